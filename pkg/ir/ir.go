// Package ir holds goto programs: ordered instruction sequences whose only
// control flow is guarded gotos. Expressions stored in instructions are the
// side-effect free trees produced by the lowering stage.
package ir

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/token"
)

type Kind int

const (
	Skip Kind = iota
	Assign
	Decl
	Dead
	Goto
	FunctionCall
	Other
	Return
	EndFunction
)

var kindNames = [...]string{
	Skip: "SKIP", Assign: "ASSIGN", Decl: "DECL", Dead: "DEAD", Goto: "GOTO",
	FunctionCall: "CALL", Other: "OTHER", Return: "RETURN", EndFunction: "END_FUNCTION",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Instruction is a single goto-program step.
//
//	Assign        Lhs := Rhs
//	Decl, Dead    Lhs is the symbol
//	Goto          IF Guard THEN GOTO Target; a nil Guard is unconditional
//	FunctionCall  [Lhs :=] Function(Args...)
//	Other, Return Rhs (nil for a bare return)
type Instruction struct {
	Kind     Kind
	Lhs      *ast.Expr
	Rhs      *ast.Expr
	Guard    *ast.Expr
	Target   *Instruction
	Function *ast.Expr
	Args     []*ast.Expr
	Tok      token.Token
}

// Exprs returns every expression the instruction holds.
func (i *Instruction) Exprs() []*ast.Expr {
	var out []*ast.Expr
	for _, e := range []*ast.Expr{i.Lhs, i.Rhs, i.Guard, i.Function} {
		if e != nil {
			out = append(out, e)
		}
	}
	return append(out, i.Args...)
}

// Program is an append-only instruction sequence.
type Program struct {
	Instructions []*Instruction
}

func NewProgram() *Program { return &Program{} }

func (p *Program) Len() int      { return len(p.Instructions) }
func (p *Program) IsEmpty() bool { return len(p.Instructions) == 0 }

func (p *Program) Add(ins *Instruction) *Instruction {
	p.Instructions = append(p.Instructions, ins)
	return ins
}

func (p *Program) AddSkip(tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: Skip, Tok: tok})
}

func (p *Program) AddAssign(lhs, rhs *ast.Expr, tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: Assign, Lhs: lhs, Rhs: rhs, Tok: tok})
}

func (p *Program) AddDecl(symbol *ast.Expr, tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: Decl, Lhs: symbol, Tok: tok})
}

func (p *Program) AddDead(symbol *ast.Expr, tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: Dead, Lhs: symbol, Tok: tok})
}

func (p *Program) AddGoto(guard *ast.Expr, target *Instruction, tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: Goto, Guard: guard, Target: target, Tok: tok})
}

func (p *Program) AddFunctionCall(lhs, function *ast.Expr, args []*ast.Expr, tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: FunctionCall, Lhs: lhs, Function: function, Args: args, Tok: tok})
}

func (p *Program) AddOther(e *ast.Expr, tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: Other, Rhs: e, Tok: tok})
}

func (p *Program) AddReturn(value *ast.Expr, tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: Return, Rhs: value, Tok: tok})
}

func (p *Program) AddEndFunction(tok token.Token) *Instruction {
	return p.Add(&Instruction{Kind: EndFunction, Tok: tok})
}

// Append moves every instruction of other to the end of p and leaves other
// empty. Goto targets stay valid since instructions are moved, not copied.
func (p *Program) Append(other *Program) {
	p.Instructions = append(p.Instructions, other.Instructions...)
	other.Instructions = nil
}

// Count returns the number of instructions of the given kind.
func (p *Program) Count(k Kind) int {
	n := 0
	for _, ins := range p.Instructions {
		if ins.Kind == k {
			n++
		}
	}
	return n
}

// Filter returns the instructions of the given kind in order.
func (p *Program) Filter(k Kind) []*Instruction {
	var out []*Instruction
	for _, ins := range p.Instructions {
		if ins.Kind == k {
			out = append(out, ins)
		}
	}
	return out
}

func (p *Program) IndexOf(target *Instruction) int {
	for i, ins := range p.Instructions {
		if ins == target {
			return i
		}
	}
	return -1
}

type Function struct {
	Name   string
	Type   *ast.Type
	Params []string
	Body   *Program
}

// Unit is a lowered translation unit. Init holds the static initializers.
type Unit struct {
	Name      string
	Functions []*Function
	Init      *Program
}

func NewUnit(name string) *Unit { return &Unit{Name: name, Init: NewProgram()} }

func (u *Unit) FindFunction(name string) *Function {
	for _, f := range u.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
