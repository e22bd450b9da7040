package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/util"
)

// Verify checks that a lowered unit holds no expression that still needs
// cleaning and that every goto lands inside its own program.
func Verify(u *ir.Unit) error {
	if err := verifyProgram(u.Init); err != nil {
		return err
	}
	for _, f := range u.Functions {
		if err := verifyProgram(f.Body); err != nil {
			return err
		}
	}
	return nil
}

func verifyProgram(p *ir.Program) error {
	for _, ins := range p.Instructions {
		if ins.Kind == ir.Goto && p.IndexOf(ins.Target) < 0 {
			return &util.InvariantError{Tok: ins.Tok, Msg: "goto target outside of its program"}
		}
		for _, e := range ins.Exprs() {
			var bad *ast.Expr
			ast.Walk(e, func(x *ast.Expr) bool {
				if bad != nil {
					return false
				}
				switch x.Kind {
				case ast.SideEffect, ast.CompoundLiteral, ast.Comma:
					bad = x
					return false
				}
				return true
			})
			if bad != nil {
				return &util.InvariantError{Tok: bad.Tok, Msg: "'" + bad.Kind.String() + "' left in lowered " + ins.Kind.String()}
			}
		}
	}
	return nil
}
