package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/token"
)

// negate returns !cond, folding double negation and boolean constants.
func negate(cond *ast.Expr) *ast.Expr {
	switch {
	case cond.Kind == ast.Not:
		return cond.Operands[0]
	case cond.Kind == ast.Constant && cond.Type.IsBool():
		if cond.Value != 0 {
			return ast.NewFalse(cond.Tok)
		}
		return ast.NewTrue(cond.Tok)
	}
	return ast.NewNot(cond.Tok, cond)
}

// generateIfThenElse appends to dest a branch that runs trueCase when cond
// holds and falseCase otherwise. Both programs are emptied.
//
//	IF !c THEN GOTO x      IF !c THEN GOTO z      IF c THEN GOTO z
//	T                      T                      F
//	GOTO z              z: SKIP               z: SKIP
//	x: F
//	z: SKIP
func (c *Converter) generateIfThenElse(cond *ast.Expr, trueCase, falseCase *ir.Program, tok token.Token, dest *ir.Program) {
	if trueCase.IsEmpty() && falseCase.IsEmpty() {
		dest.AddSkip(tok)
		return
	}

	z := ir.NewProgram()
	zSkip := z.AddSkip(tok)

	if falseCase.IsEmpty() {
		dest.AddGoto(negate(cond), zSkip, tok)
		dest.Append(trueCase)
		dest.Append(z)
		return
	}

	if trueCase.IsEmpty() {
		dest.AddGoto(cond, zSkip, tok)
		dest.Append(falseCase)
		dest.Append(z)
		return
	}

	x := falseCase.Instructions[0]
	dest.AddGoto(negate(cond), x, tok)
	dest.Append(trueCase)
	dest.AddGoto(nil, zSkip, tok)
	dest.Append(falseCase)
	dest.Append(z)
}
