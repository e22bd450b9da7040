package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/ir"
)

// LowerAddressOf lowers e as the object of an address-of. Object
// constructors become named storage so that their address can be taken.
func (c *Converter) LowerAddressOf(e *ast.Expr, dest *ir.Program) {
	switch e.Kind {
	case ast.CompoundLiteral:
		init := e.Operands[0]
		c.Lower(init, dest, true)
		e.Replace(c.makeCompoundLiteral(init, e.Type, dest))

	case ast.StringConstant:
		// already an addressable constant

	case ast.Index:
		c.LowerAddressOf(e.Operands[0], dest)
		c.Lower(e.Operands[1], dest, true)

	case ast.Dereference:
		c.Lower(e.Operands[0], dest, true)

	case ast.Comma:
		ops := e.Operands
		last := ops[len(ops)-1]
		for _, op := range ops[:len(ops)-1] {
			c.Lower(op, dest, false)
			keepDiscarded(op, dest)
		}
		e.Replace(last)
		c.LowerAddressOf(e, dest)

	case ast.SideEffect:
		c.removeSideEffect(e, dest, true, true)

	default:
		for _, op := range e.Operands {
			c.LowerAddressOf(op, dest)
		}
	}
}
