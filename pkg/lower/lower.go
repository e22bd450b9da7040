// Package lower turns expressions with side effects into side-effect free
// expressions plus goto-program instructions, and drives that rewrite over
// whole function bodies.
//
// The engine mutates the trees it is given. Every value needed in two
// places is cloned; no subtree ends up with two owners.
package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/scope"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

const initPrefix = "__CPROVER_initialize"

// Converter carries the per-unit state of a lowering run. It is not safe for
// concurrent use; lower independent units with independent converters.
type Converter struct {
	cfg        *config.Config
	symbols    *symtab.Table
	scopes     *scope.Stack
	init       *ir.Program
	prefix     string
	lifetime   symtab.Lifetime
	returnType *ast.Type
}

func NewConverter(cfg *config.Config, symbols *symtab.Table) *Converter {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if symbols == nil {
		symbols = symtab.NewTable()
	}
	return &Converter{
		cfg:     cfg,
		symbols: symbols,
		scopes:  scope.NewStack(),
		init:    ir.NewProgram(),
		prefix:  initPrefix,
	}
}

func (c *Converter) Symbols() *symtab.Table { return c.symbols }
func (c *Converter) Scopes() *scope.Stack   { return c.scopes }

// SetFunction names the function temporaries are created for.
func (c *Converter) SetFunction(name string) { c.prefix = name }

// SetLifetime selects the lifetime given to compound literals. Static is
// used while lowering static initializers.
func (c *Converter) SetLifetime(l symtab.Lifetime) { c.lifetime = l }

// newTemporary allocates an automatic temporary, declares it in dest and
// schedules its DEAD for the end of the innermost scope.
func (c *Converter) newTemporary(typ *ast.Type, hint string, tok token.Token, dest *ir.Program) *symtab.Symbol {
	util.Invariant(!typ.IsVoid(), tok, "temporary '%s' of void type", hint)
	sym := c.symbols.NewTemporary(typ, c.prefix, hint, tok, symtab.AutomaticLocal)
	dest.AddDecl(sym.Expr(tok), tok)
	c.scopes.Add(sym)
	return sym
}

// keepDiscarded records what is left of a discarded expression so that
// later checks still see it.
func keepDiscarded(e *ast.Expr, dest *ir.Program) {
	if !e.IsNil() {
		dest.AddOther(e, e.Tok)
	}
}
