// Package scope tracks, per open lexical scope, the symbols whose lifetime
// ends when the scope closes.
package scope

import (
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

type Stack struct {
	frames [][]*symtab.Symbol
}

func NewStack() *Stack { return &Stack{} }

func (s *Stack) Push() { s.frames = append(s.frames, nil) }

func (s *Stack) Depth() int { return len(s.frames) }

// Add registers sym for a DEAD when the innermost scope closes.
func (s *Stack) Add(sym *symtab.Symbol) {
	util.Invariant(len(s.frames) > 0, sym.Tok, "scope exit registered for '%s' with no open scope", sym.Name)
	util.Invariant(sym.Lifetime != symtab.Static, sym.Tok, "static symbol '%s' registered for scope exit", sym.Name)
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], sym)
}

// Pending returns the symbols registered in the innermost scope.
func (s *Stack) Pending() []*symtab.Symbol {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Pop closes the innermost scope, emitting DEAD into dest for its symbols in
// reverse registration order.
func (s *Stack) Pop(dest *ir.Program, tok token.Token) {
	util.Invariant(len(s.frames) > 0, tok, "scope stack underflow")
	top := len(s.frames) - 1
	syms := s.frames[top]
	s.frames = s.frames[:top]
	for i := len(syms) - 1; i >= 0; i-- {
		dest.AddDead(syms[i].Expr(tok), tok)
	}
}
