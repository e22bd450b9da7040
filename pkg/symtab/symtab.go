// Package symtab is the per-unit symbol table and fresh-temporary allocator.
package symtab

import (
	"fmt"
	"sort"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/token"
)

type Lifetime int

const (
	AutomaticLocal Lifetime = iota
	Static
)

func (l Lifetime) String() string {
	if l == Static {
		return "static"
	}
	return "automatic"
}

type Symbol struct {
	Name        string
	BaseName    string
	Type        *ast.Type
	Tok         token.Token
	Lifetime    Lifetime
	Value       *ast.Expr
	IsAuxiliary bool
	IsFunction  bool
	IsParameter bool
}

// Expr returns a fresh symbol expression referring to s.
func (s *Symbol) Expr(tok token.Token) *ast.Expr {
	return ast.NewSymbol(tok, s.Name, s.Type)
}

// Table is owned by one compilation unit and must not be shared between
// concurrent lowering runs.
type Table struct {
	symbols  map[string]*Symbol
	order    []*Symbol
	counters map[string]int
}

func NewTable() *Table {
	return &Table{symbols: make(map[string]*Symbol), counters: make(map[string]int)}
}

// Add inserts sym, failing when the name is already taken.
func (t *Table) Add(sym *Symbol) error {
	if _, exists := t.symbols[sym.Name]; exists {
		return fmt.Errorf("symbol '%s' already defined", sym.Name)
	}
	t.symbols[sym.Name] = sym
	t.order = append(t.order, sym)
	return nil
}

func (t *Table) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.symbols[name]
	return sym, ok
}

// Symbols returns every symbol in insertion order.
func (t *Table) Symbols() []*Symbol { return t.order }

// Temporaries returns the auxiliary symbols sorted by name.
func (t *Table) Temporaries() []*Symbol {
	var out []*Symbol
	for _, sym := range t.order {
		if sym.IsAuxiliary {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewTemporary allocates an auxiliary symbol named
// <prefix>::$tmp::<hint>$<n>, with n the first suffix not yet in use.
func (t *Table) NewTemporary(typ *ast.Type, prefix, hint string, tok token.Token, lifetime Lifetime) *Symbol {
	base := prefix + "::$tmp::" + hint
	for {
		n := t.counters[base]
		t.counters[base] = n + 1
		name := fmt.Sprintf("%s$%d", base, n)
		if _, taken := t.symbols[name]; taken {
			continue
		}
		sym := &Symbol{
			Name: name, BaseName: hint, Type: typ, Tok: tok,
			Lifetime: lifetime, IsAuxiliary: true,
		}
		t.symbols[name] = sym
		t.order = append(t.order, sym)
		return sym
	}
}
