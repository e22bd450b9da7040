package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/util"
)

// makeCompoundLiteral stores value in a fresh "literal" object and returns
// a reference to it. The object lives as long as the enclosing block, or for
// the whole program inside static initializers.
func (c *Converter) makeCompoundLiteral(value *ast.Expr, typ *ast.Type, dest *ir.Program) *ast.Expr {
	tok := value.Tok
	if typ == nil {
		typ = value.Type
	}

	sym := c.symbols.NewTemporary(typ, c.prefix, "literal", tok, c.lifetime)
	sym.Value = value.Clone()
	isStatic := sym.Lifetime == symtab.Static

	result := sym.Expr(tok)
	if isStatic {
		util.Warn(c.cfg, config.WarnStaticLiteral, tok, "compound literal '%s' has static storage duration", sym.Name)
	} else {
		dest.AddDecl(result.Clone(), tok)
	}

	// the value may read variables, so it is assigned even when static
	c.convertAssign(result.Clone(), value, dest, tok)

	if !isStatic {
		c.scopes.Add(sym)
	}
	return result
}
