package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclean/pkg/token"
)

var tok = token.Token{}

func intSym(name string) *Expr { return NewSymbol(tok, name, TypeInt) }

func TestCloneIsDeep(t *testing.T) {
	body := NewBlock(tok, []*Stmt{NewExprStmt(tok, NewAssign(tok, intSym("x"), NewConstant(tok, 1, TypeInt)))})
	orig := NewBinary(tok, token.Plus, intSym("x"), NewStatementExpression(tok, body, TypeInt), TypeInt)

	c := orig.Clone()
	require.Equal(t, Fingerprint(orig), Fingerprint(c))

	c.Operands[0].Name = "y"
	c.Operands[1].Body.Stmts[0].Expr.Operands[1].Value = 2
	assert.Equal(t, "x", orig.Operands[0].Name)
	assert.Equal(t, int64(1), orig.Operands[1].Body.Stmts[0].Expr.Operands[1].Value)
	assert.NotEqual(t, Fingerprint(orig), Fingerprint(c))
	assert.Same(t, orig.Type, c.Type)
}

func TestReplace(t *testing.T) {
	e := NewAssign(tok, intSym("x"), intSym("y"))
	lhs := e.Operands[0]
	e.Replace(lhs)
	assert.Equal(t, Symbol, e.Kind)
	assert.Equal(t, "x", e.Name)

	e.Replace(nil)
	assert.True(t, e.IsNil())
	assert.Equal(t, "nil", e.String())
}

func TestConditionalCast(t *testing.T) {
	x := intSym("x")
	assert.Same(t, x, ConditionalCast(x, TypeInt))
	assert.Same(t, x, ConditionalCast(x, NewIntType(32, true)))
	assert.Same(t, x, ConditionalCast(x, nil))

	cast := ConditionalCast(x, TypeLong)
	assert.Equal(t, Typecast, cast.Kind)
	assert.Equal(t, "(long)x", cast.String())
	assert.Same(t, x, SkipTypecast(NewTypecast(tok, cast, TypeBool)))
}

func TestHasSideEffect(t *testing.T) {
	assert.False(t, HasSideEffect(NewBinary(tok, token.Slash, intSym("x"), intSym("y"), TypeInt)))
	assert.True(t, HasSideEffect(NewNot(tok, NewSideEffect(tok, PostIncrement, TypeInt, intSym("x")))))
	assert.True(t, HasSideEffect(NewQuantifier(tok, Forall, intSym("i"), NewAssign(tok, intSym("x"), intSym("i")))))
	assert.False(t, HasSideEffect(nil))
}

func TestWalkDescendsIntoStatementExpressions(t *testing.T) {
	inner := NewSideEffect(tok, PostIncrement, TypeInt, intSym("x"))
	body := NewBlock(tok, []*Stmt{NewExprStmt(tok, inner)})
	e := NewBinary(tok, token.Plus, intSym("y"), NewStatementExpression(tok, body, TypeInt), TypeInt)

	var names []string
	Walk(e, func(x *Expr) bool {
		if x.Kind == Symbol {
			names = append(names, x.Name)
		}
		return true
	})
	assert.Equal(t, []string{"y", "x"}, names)

	visited := 0
	Walk(e, func(*Expr) bool { visited++; return false })
	assert.Equal(t, 1, visited)
}

func TestExprString(t *testing.T) {
	s := NewStructType("S", []Field{{"u", TypeInt}, {"v", TypeInt}})
	arr := NewSymbol(tok, "a", ArrayOf(TypeInt, 4))
	ptr := NewSymbol(tok, "p", PointerTo(TypeInt))

	tests := []struct {
		e    *Expr
		want string
	}{
		{NewConstant(tok, 42, TypeInt), "42"},
		{NewConstant(tok, 0, PointerTo(TypeVoid)), "NULL"},
		{NewTrue(tok), "TRUE"},
		{NewStringConstant(tok, "hi\n"), `"hi\n"`},
		{NewIndex(tok, arr, intSym("i")), "a[i]"},
		{NewMember(tok, NewSymbol(tok, "s", s), "v"), "s.v"},
		{NewMember(tok, NewDereference(tok, NewSymbol(tok, "sp", PointerTo(s))), "u"), "(*sp).u"},
		{NewUnary(tok, token.Minus, intSym("x")), "-x"},
		{NewAddressOf(tok, intSym("x")), "&x"},
		{NewDereference(tok, ptr), "*p"},
		{NewBinary(tok, token.Star, NewBinary(tok, token.Plus, intSym("x"), intSym("y"), TypeInt), intSym("z"), TypeInt), "(x + y) * z"},
		{NewAnd(tok, NewSymbol(tok, "b", TypeBool), NewNot(tok, NewSymbol(tok, "c", TypeBool))), "b && (!c)"},
		{NewComma(tok, []*Expr{intSym("x"), intSym("y")}, TypeInt), "x, y"},
		{NewAssignOp(tok, token.Shl, intSym("x"), NewConstant(tok, 2, TypeInt)), "x <<= 2"},
		{NewFunctionCall(tok, NewSymbol(tok, "f", NewCodeType(TypeInt, nil, true)), []*Expr{intSym("x"), intSym("y")}, TypeInt), "f(x, y)"},
		{NewGCCConditional(tok, intSym("x"), intSym("y"), TypeInt), "x ?: y"},
		{NewCompoundLiteral(tok, NewInitializer(tok, []*Expr{NewConstant(tok, 1, TypeInt)}, s), s), "(struct S){ 1 }"},
		{NewQuantifier(tok, Exists, intSym("i"), NewBinary(tok, token.Lt, intSym("i"), intSym("n"), TypeBool)), "exists(int i; i < n)"},
		{NewSizeof(tok, PointerTo(TypeChar), nil), "sizeof(char *)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.String())
		})
	}
}

func TestTypes(t *testing.T) {
	code := NewCodeType(TypeInt, []*Type{PointerTo(TypeChar)}, true)
	assert.Equal(t, "int (char *, ...)", code.String())
	assert.Equal(t, "unsigned long", TypeUlong.String())
	assert.Equal(t, "int[]", ArrayOf(TypeInt, -1).String())

	assert.True(t, TypesEqual(PointerTo(TypeInt), PointerTo(NewIntType(32, true))))
	assert.False(t, TypesEqual(TypeInt, TypeUint))
	assert.False(t, TypesEqual(ArrayOf(TypeInt, 2), ArrayOf(TypeInt, 3)))
	assert.True(t, TypesEqual(NewStructType("S", nil), NewStructType("S", []Field{{"u", TypeInt}})))
	assert.False(t, TypesEqual(code, NewCodeType(TypeInt, []*Type{PointerTo(TypeChar)}, false)))

	assert.True(t, TypeBool.IsInteger())
	assert.True(t, PointerTo(TypeInt).IsScalar())
	assert.False(t, NewStructType("S", nil).IsScalar())
	var missing *Type
	assert.True(t, missing.IsVoid())
	assert.Nil(t, missing.FieldType("u"))
}

func TestStmtHelpers(t *testing.T) {
	last := NewExprStmt(tok, intSym("x"))
	block := NewBlock(tok, []*Stmt{NewSkip(tok), last})
	assert.Same(t, last, block.LastExprStmt())
	assert.Nil(t, NewBlock(tok, []*Stmt{last, NewSkip(tok)}).LastExprStmt())
	assert.Nil(t, NewBlock(tok, nil).LastExprStmt())

	decl := &VarDecl{Name: "t", Type: TypeInt, Init: NewConstant(tok, 3, TypeInt)}
	s := NewWhileStmt(tok, NewSymbol(tok, "b", TypeBool), NewBlock(tok, []*Stmt{NewDeclStmt(tok, decl)}))
	c := s.Clone()
	require.Equal(t, FingerprintStmt(s), FingerprintStmt(c))
	c.Then.Stmts[0].Decl.Init.Value = 4
	assert.Equal(t, int64(3), decl.Init.Value)
	assert.Equal(t, "while(b) { int t = 3; }", s.String())
}
