// Package ast defines the expression and statement trees of the C subset,
// the form the lowering stage reads and rewrites in place.
package ast

import (
	"github.com/xplshn/gclean/pkg/token"
)

// Kind defines the kind of an expression node. The set is closed; every
// switch over it in the lowering stage is exhaustive.
type Kind int

// Expression kinds enum
const (
	Nil Kind = iota
	Constant
	StringConstant
	Symbol
	Typecast
	AddressOf
	Dereference
	Index
	Member
	Unary
	Not
	Binary
	And
	Or
	Implies
	If
	Comma
	SideEffect
	CompoundLiteral
	Initializer
	Forall
	Exists
	Sizeof
)

var kindNames = [...]string{
	Nil: "nil", Constant: "constant", StringConstant: "string_constant", Symbol: "symbol",
	Typecast: "typecast", AddressOf: "address_of", Dereference: "dereference", Index: "index",
	Member: "member", Unary: "unary", Not: "not", Binary: "binary", And: "and", Or: "or",
	Implies: "=>", If: "if", Comma: "comma", SideEffect: "side_effect",
	CompoundLiteral: "compound_literal", Initializer: "initializer", Forall: "forall",
	Exists: "exists", Sizeof: "sizeof",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Effect names the statement a SideEffect node performs.
type Effect int

const (
	NoEffect Effect = iota
	Assign
	AssignOp
	PreIncrement
	PreDecrement
	PostIncrement
	PostDecrement
	FunctionCall
	StatementExpression
	GCCConditional
)

var effectNames = [...]string{
	NoEffect: "none", Assign: "assign", AssignOp: "assign_op", PreIncrement: "preincrement",
	PreDecrement: "predecrement", PostIncrement: "postincrement", PostDecrement: "postdecrement",
	FunctionCall: "function_call", StatementExpression: "statement_expression",
	GCCConditional: "gcc_conditional_expression",
}

func (e Effect) String() string {
	if int(e) < len(effectNames) {
		return effectNames[e]
	}
	return "unknown"
}

// Expr is a node of the expression tree.
//
// Operand layout per kind:
//
//	Typecast, AddressOf, Dereference, Unary, Not, Member  [op]
//	Index                                                [array, index]
//	Binary, Implies                                      [lhs, rhs]
//	And, Or, Comma, Initializer                          [op...]
//	If                                                   [cond, true, false]
//	SideEffect Assign, AssignOp                          [lhs, rhs]
//	SideEffect Pre/PostIncrement, Pre/PostDecrement      [lhs]
//	SideEffect FunctionCall                              [function, arg...]
//	SideEffect StatementExpression                       [] (Body holds the block)
//	SideEffect GCCConditional                            [cond, false]
//	CompoundLiteral                                      [initializer]
//	Forall, Exists                                       [bound symbol, body]
//	Sizeof                                               [] or [expr], Of holds the queried type
type Expr struct {
	Kind      Kind
	Op        token.Type
	Statement Effect
	Value     int64
	Name      string
	Str       string
	Type      *Type
	Of        *Type
	Operands  []*Expr
	Body      *Stmt
	Tok       token.Token
}

func newExpr(tok token.Token, kind Kind, typ *Type, operands ...*Expr) *Expr {
	return &Expr{Kind: kind, Tok: tok, Type: typ, Operands: operands}
}

// Operand returns the i-th operand.
func (e *Expr) Operand(i int) *Expr { return e.Operands[i] }

// IsNil reports whether e is absent or the empty marker.
func (e *Expr) IsNil() bool { return e == nil || e.Kind == Nil }

// Clone returns a deep copy of e. Types are shared.
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	c := *e
	if e.Operands != nil {
		c.Operands = make([]*Expr, len(e.Operands))
		for i, op := range e.Operands {
			c.Operands[i] = op.Clone()
		}
	}
	c.Body = e.Body.Clone()
	return &c
}

// Replace overwrites e, tag included, with other. other must not be used
// afterwards by its previous owner.
func (e *Expr) Replace(other *Expr) {
	if other == nil {
		other = NewNil(e.Tok)
	}
	*e = *other
}

// --- Expression Constructors ---

func NewNil(tok token.Token) *Expr { return newExpr(tok, Nil, TypeVoid) }

func NewConstant(tok token.Token, value int64, typ *Type) *Expr {
	e := newExpr(tok, Constant, typ)
	e.Value = value
	return e
}

func NewTrue(tok token.Token) *Expr  { return NewConstant(tok, 1, TypeBool) }
func NewFalse(tok token.Token) *Expr { return NewConstant(tok, 0, TypeBool) }

func NewStringConstant(tok token.Token, value string) *Expr {
	e := newExpr(tok, StringConstant, ArrayOf(TypeChar, int64(len(value))+1))
	e.Str = value
	return e
}

func NewSymbol(tok token.Token, name string, typ *Type) *Expr {
	e := newExpr(tok, Symbol, typ)
	e.Name = name
	return e
}

func NewTypecast(tok token.Token, op *Expr, typ *Type) *Expr {
	return newExpr(tok, Typecast, typ, op)
}

func NewAddressOf(tok token.Token, object *Expr) *Expr {
	var typ *Type
	if object.Type != nil {
		typ = PointerTo(object.Type)
	}
	return newExpr(tok, AddressOf, typ, object)
}

func NewDereference(tok token.Token, pointer *Expr) *Expr {
	var typ *Type
	if pointer.Type.IsPointer() {
		typ = pointer.Type.Base
	}
	return newExpr(tok, Dereference, typ, pointer)
}

func NewIndex(tok token.Token, array, index *Expr) *Expr {
	var typ *Type
	if array.Type != nil && array.Type.Base != nil {
		typ = array.Type.Base
	}
	return newExpr(tok, Index, typ, array, index)
}

func NewMember(tok token.Token, object *Expr, field string) *Expr {
	e := newExpr(tok, Member, object.Type.FieldType(field), object)
	e.Name = field
	return e
}

func NewUnary(tok token.Token, op token.Type, operand *Expr) *Expr {
	e := newExpr(tok, Unary, operand.Type, operand)
	e.Op = op
	return e
}

func NewNot(tok token.Token, operand *Expr) *Expr {
	return newExpr(tok, Not, TypeBool, operand)
}

func NewBinary(tok token.Token, op token.Type, lhs, rhs *Expr, typ *Type) *Expr {
	e := newExpr(tok, Binary, typ, lhs, rhs)
	e.Op = op
	return e
}

func NewAnd(tok token.Token, operands ...*Expr) *Expr {
	return newExpr(tok, And, TypeBool, operands...)
}

func NewOr(tok token.Token, operands ...*Expr) *Expr {
	return newExpr(tok, Or, TypeBool, operands...)
}

func NewImplies(tok token.Token, lhs, rhs *Expr) *Expr {
	return newExpr(tok, Implies, TypeBool, lhs, rhs)
}

func NewIf(tok token.Token, cond, trueCase, falseCase *Expr, typ *Type) *Expr {
	return newExpr(tok, If, typ, cond, trueCase, falseCase)
}

func NewComma(tok token.Token, operands []*Expr, typ *Type) *Expr {
	return newExpr(tok, Comma, typ, operands...)
}

func NewSideEffect(tok token.Token, statement Effect, typ *Type, operands ...*Expr) *Expr {
	e := newExpr(tok, SideEffect, typ, operands...)
	e.Statement = statement
	return e
}

func NewAssign(tok token.Token, lhs, rhs *Expr) *Expr {
	return NewSideEffect(tok, Assign, lhs.Type, lhs, rhs)
}

func NewAssignOp(tok token.Token, op token.Type, lhs, rhs *Expr) *Expr {
	e := NewSideEffect(tok, AssignOp, lhs.Type, lhs, rhs)
	e.Op = op
	return e
}

func NewFunctionCall(tok token.Token, function *Expr, args []*Expr, typ *Type) *Expr {
	return NewSideEffect(tok, FunctionCall, typ, append([]*Expr{function}, args...)...)
}

func NewStatementExpression(tok token.Token, body *Stmt, typ *Type) *Expr {
	e := NewSideEffect(tok, StatementExpression, typ)
	e.Body = body
	return e
}

func NewGCCConditional(tok token.Token, cond, falseCase *Expr, typ *Type) *Expr {
	return NewSideEffect(tok, GCCConditional, typ, cond, falseCase)
}

func NewCompoundLiteral(tok token.Token, init *Expr, typ *Type) *Expr {
	return newExpr(tok, CompoundLiteral, typ, init)
}

func NewInitializer(tok token.Token, elems []*Expr, typ *Type) *Expr {
	return newExpr(tok, Initializer, typ, elems...)
}

func NewQuantifier(tok token.Token, kind Kind, bound, body *Expr) *Expr {
	return newExpr(tok, kind, TypeBool, bound, body)
}

func NewSizeof(tok token.Token, of *Type, operand *Expr) *Expr {
	e := newExpr(tok, Sizeof, nil)
	e.Of = of
	if operand != nil {
		e.Operands = []*Expr{operand}
	}
	return e
}

// ConditionalCast wraps e in a typecast to typ unless it already has that type.
func ConditionalCast(e *Expr, typ *Type) *Expr {
	if typ == nil || TypesEqual(e.Type, typ) {
		return e
	}
	return NewTypecast(e.Tok, e, typ)
}

// SkipTypecast strips any number of enclosing casts.
func SkipTypecast(e *Expr) *Expr {
	for e != nil && e.Kind == Typecast {
		e = e.Operands[0]
	}
	return e
}

// HasSideEffect reports whether e or any descendant, quantifier bodies and
// statement expressions included, is a side effect.
func HasSideEffect(e *Expr) bool {
	if e == nil {
		return false
	}
	if e.Kind == SideEffect {
		return true
	}
	for _, op := range e.Operands {
		if HasSideEffect(op) {
			return true
		}
	}
	return false
}

// Walk calls fn for e and every descendant expression in pre-order,
// descending into statement expression bodies. Returning false from fn
// prunes the subtree.
func Walk(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, op := range e.Operands {
		Walk(op, fn)
	}
	if e.Body != nil {
		WalkStmt(e.Body, func(s *Stmt) bool {
			for _, x := range s.Exprs() {
				Walk(x, fn)
			}
			return true
		})
	}
}
