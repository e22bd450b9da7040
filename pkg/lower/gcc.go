package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/util"
)

// lowerGCCConditional rewrites a ?: b into (bool)a ? a : b once a is free of
// side effects, so a is evaluated exactly once.
func (c *Converter) lowerGCCConditional(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	util.Invariant(len(e.Operands) == 2, e.Tok, "'?:' takes two operands")
	cond, falseCase := e.Operands[0], e.Operands[1]

	c.Lower(cond, dest, true)
	util.Invariant(!cond.IsNil(), cond.Tok, "condition of '?:' has no value")

	e.Replace(ast.NewIf(e.Tok, ast.ConditionalCast(cond, ast.TypeBool), cond.Clone(), falseCase, e.Type))

	// the false case may still have side effects
	c.Lower(e, dest, resultIsUsed)
}
