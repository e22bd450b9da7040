package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/util"
)

// rewriteBoolean turns &&, || and ==> into nested conditionals so that the
// conditional rule alone decides what is evaluated when:
//
//	a ==> b       a ? b : TRUE
//	a && b && c   a ? (b ? (c ? TRUE : FALSE) : FALSE) : FALSE
//	a || b || c   a ? TRUE : (b ? TRUE : (c ? TRUE : FALSE))
func rewriteBoolean(e *ast.Expr) {
	util.Invariant(e.Kind == ast.And || e.Kind == ast.Or || e.Kind == ast.Implies, e.Tok,
		"boolean rewrite of '%s'", e.Kind)
	util.Invariant(e.Type.IsBool(), e.Tok, "'%s' must be Boolean, but got %s", e.Kind, e.Type)

	tok := e.Tok
	for _, op := range e.Operands {
		util.Invariant(op.Type.IsBool(), op.Tok, "boolean operators must have only boolean operands, got %s", op.Type)
	}

	if e.Kind == ast.Implies {
		util.Invariant(len(e.Operands) == 2, tok, "'==>' takes two operands")
		e.Replace(ast.NewIf(tok, e.Operands[0], e.Operands[1], ast.NewTrue(tok), ast.TypeBool))
		return
	}

	var acc *ast.Expr
	if e.Kind == ast.And {
		acc = ast.NewTrue(tok)
	} else {
		acc = ast.NewFalse(tok)
	}

	for i := len(e.Operands) - 1; i >= 0; i-- {
		op := e.Operands[i]
		if e.Kind == ast.And {
			acc = ast.NewIf(op.Tok, op, acc, ast.NewFalse(tok), ast.TypeBool)
		} else {
			acc = ast.NewIf(op.Tok, op, ast.NewTrue(tok), acc, ast.TypeBool)
		}
	}

	e.Replace(acc)
}
