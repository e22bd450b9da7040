package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/token"
)

func TestAddRejectsDuplicates(t *testing.T) {
	tab := symtab.NewTable()
	require.NoError(t, tab.Add(&symtab.Symbol{Name: "main::x", BaseName: "x", Type: ast.TypeInt}))
	err := tab.Add(&symtab.Symbol{Name: "main::x", BaseName: "x", Type: ast.TypeLong})
	require.EqualError(t, err, "symbol 'main::x' already defined")

	sym, ok := tab.Lookup("main::x")
	require.True(t, ok)
	assert.Same(t, ast.TypeInt, sym.Type)
	_, ok = tab.Lookup("main::y")
	assert.False(t, ok)
}

func TestNewTemporaryNaming(t *testing.T) {
	tab := symtab.NewTable()
	a := tab.NewTemporary(ast.TypeInt, "main", "if_expr", token.Token{}, symtab.AutomaticLocal)
	b := tab.NewTemporary(ast.TypeBool, "main", "if_expr", token.Token{}, symtab.AutomaticLocal)
	c := tab.NewTemporary(ast.TypeInt, "main", "post", token.Token{}, symtab.AutomaticLocal)
	d := tab.NewTemporary(ast.TypeInt, "f", "if_expr", token.Token{}, symtab.Static)

	assert.Equal(t, "main::$tmp::if_expr$0", a.Name)
	assert.Equal(t, "main::$tmp::if_expr$1", b.Name)
	assert.Equal(t, "main::$tmp::post$0", c.Name)
	assert.Equal(t, "f::$tmp::if_expr$0", d.Name)
	assert.Equal(t, "if_expr", a.BaseName)
	assert.True(t, a.IsAuxiliary)
	assert.Equal(t, "static", d.Lifetime.String())
	assert.Equal(t, "automatic", a.Lifetime.String())
}

func TestNewTemporarySkipsTakenNames(t *testing.T) {
	tab := symtab.NewTable()
	require.NoError(t, tab.Add(&symtab.Symbol{Name: "main::$tmp::assign$0", Type: ast.TypeInt}))
	tmp := tab.NewTemporary(ast.TypeInt, "main", "assign", token.Token{}, symtab.AutomaticLocal)
	assert.Equal(t, "main::$tmp::assign$1", tmp.Name)

	got, ok := tab.Lookup(tmp.Name)
	require.True(t, ok)
	assert.Same(t, tmp, got)
}

func TestTemporariesAreSorted(t *testing.T) {
	tab := symtab.NewTable()
	require.NoError(t, tab.Add(&symtab.Symbol{Name: "g", Type: ast.TypeInt}))
	tab.NewTemporary(ast.TypeInt, "main", "post", token.Token{}, symtab.AutomaticLocal)
	tab.NewTemporary(ast.TypeInt, "main", "assign", token.Token{}, symtab.AutomaticLocal)

	var names []string
	for _, sym := range tab.Temporaries() {
		names = append(names, sym.Name)
	}
	assert.Equal(t, []string{"main::$tmp::assign$0", "main::$tmp::post$0"}, names)
	assert.Len(t, tab.Symbols(), 3)
	assert.Equal(t, "g", tab.Symbols()[0].Name)
}

func TestSymbolExpr(t *testing.T) {
	sym := &symtab.Symbol{Name: "main::x", Type: ast.TypeInt}
	e := sym.Expr(token.Token{Line: 3})
	assert.Equal(t, ast.Symbol, e.Kind)
	assert.Equal(t, "main::x", e.String())
	assert.Equal(t, 3, e.Tok.Line)
	assert.NotSame(t, e, sym.Expr(token.Token{}))
}
