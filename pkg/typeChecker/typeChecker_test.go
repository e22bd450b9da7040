package typeChecker_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/lexer"
	"github.com/xplshn/gclean/pkg/parser"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/typeChecker"
	"github.com/xplshn/gclean/pkg/util"
)

var structS = ast.NewStructType("S", []ast.Field{{Name: "u", Type: ast.TypeInt}, {Name: "v", Type: ast.TypeChar}})

var structT = ast.NewStructType("T", []ast.Field{{Name: "c", Type: ast.TypeChar}, {Name: "l", Type: ast.TypeLong}})

func newChecker(cfg *config.Config) (*typeChecker.TypeChecker, *symtab.Table) {
	symbols := symtab.NewTable()
	tc := typeChecker.NewTypeChecker(cfg, symbols)
	tc.Declare("x", ast.TypeInt)
	tc.Declare("b", ast.TypeBool)
	tc.Declare("c", ast.TypeChar)
	tc.Declare("a", ast.ArrayOf(ast.TypeInt, 4))
	tc.Declare("p", ast.PointerTo(ast.TypeInt))
	tc.Declare("s", structS)
	tc.Declare("t", structT)
	tc.Declare("f", ast.NewCodeType(ast.TypeInt, []*ast.Type{ast.TypeInt}, false))
	tc.SetFunction(&ast.Function{Name: "main", Type: ast.NewCodeType(ast.TypeInt, nil, false)})
	return tc, symbols
}

func parseExpr(t *testing.T, cfg *config.Config, src string) *ast.Expr {
	t.Helper()
	toks, err := lexer.Tokenize([]rune(src), 0, cfg)
	require.NoError(t, err)
	e, err := parser.NewParser(toks, cfg).ParseExpr()
	require.NoError(t, err)
	return e
}

func check(t *testing.T, tc *typeChecker.TypeChecker, src string) *ast.Expr {
	t.Helper()
	e, err := tc.CheckExpr(parseExpr(t, config.NewConfig(), src))
	require.NoError(t, err)
	return e
}

func TestCheckExpr(t *testing.T) {
	tests := []struct {
		src  string
		want string
		typ  string
	}{
		{"b && x", "b && ((_Bool)x)", "_Bool"},
		{"!p", "!((_Bool)p)", "_Bool"},
		{"x + c", "x + ((int)c)", "int"},
		{"-c", "-((int)c)", "int"},
		{"x < 2", "x < 2", "_Bool"},
		{"a", "&a[0]", "int *"},
		{"a[x]", "a[x]", "int"},
		{"p + 1", "p + 1", "int *"},
		{"p == 0", "p == NULL", "_Bool"},
		{"b ? 1 : 2", "b ? 1 : 2", "int"},
		{"x ? p : 0", "((_Bool)x) ? p : ((int *)0)", "int *"},
		{"f(c)", "f((int)c)", "int"},
		{"x = c", "x = c", "int"},
		{"x += 1", "x += 1", "int"},
		{"c = 1", "c = 1", "char"},
		{"s.v", "s.v", "char"},
		{"x, p", "x, p", "int *"},
		{"sizeof(int)", "4", "unsigned long"},
		{"sizeof a", "16", "unsigned long"},
		{"sizeof t", "16", "unsigned long"},
		{"(void)x", "(void)x", "void"},
		{"x ?: 3", "x ?: 3", "int"},
		{"(int[]){1, 2}", "&((int[2]){ 1, 2 })[0]", "int *"},
		{"__CPROVER_exists { int i; a[i] == x }", "exists(int main::i; a[main::i] == x)", "_Bool"},
		{"({ int v = x; v; })", "({ int main::v = x; main::v; })", "int"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tc, _ := newChecker(config.NewConfig())
			e := check(t, tc, tt.src)
			assert.Equal(t, tt.want, e.String())
			assert.Equal(t, tt.typ, e.Type.String())
		})
	}
}

func TestLocalsGetUniqueNames(t *testing.T) {
	tc, symbols := newChecker(config.NewConfig())
	first := check(t, tc, "({ int v = 1; v; })")
	second := check(t, tc, "({ int v = 2; v; })")
	assert.Equal(t, "({ int main::v = 1; main::v; })", first.String())
	assert.Equal(t, "({ int main::v$1 = 2; main::v$1; })", second.String())

	sym, ok := symbols.Lookup("main::v$1")
	require.True(t, ok)
	assert.Equal(t, "v", sym.BaseName)
	assert.Equal(t, symtab.AutomaticLocal, sym.Lifetime)
}

func TestSizesFollowWordSize(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetTarget("linux", "386", "i386")
	tc, _ := newChecker(cfg)
	assert.Equal(t, "4", check(t, tc, "sizeof(long)").String())
	assert.Equal(t, "4", check(t, tc, "sizeof(int *)").String())
	assert.Equal(t, "8", check(t, tc, "sizeof t").String())
}

func TestImplicitDeclarationWarns(t *testing.T) {
	var buf bytes.Buffer
	saved := util.Stderr
	util.Stderr = &buf
	defer func() { util.Stderr = saved }()

	tc, symbols := newChecker(config.NewConfig())
	e := check(t, tc, "h(1, 2)")
	assert.Equal(t, "int", e.Type.String())
	assert.Contains(t, buf.String(), "Implicit declaration of function 'h'")

	sym, ok := symbols.Lookup("h")
	require.True(t, ok)
	assert.True(t, sym.IsFunction)
}

func TestCheckExprErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"y", "Use of undeclared identifier 'y'."},
		{"*x", "Cannot dereference non-pointer type 'int'."},
		{"x(1)", "Called object of type 'int' is not a function."},
		{"f(1, 2)", "Function 'f' expects 1 arguments, got 2."},
		{"s + 1", "Invalid operands to binary '+' ('struct S' and 'int')."},
		{"a = p", "Cannot assign to an expression of type 'int[4]'."},
		{"s ? 1 : 2", "Expression of type 'struct S' used as a condition."},
		{"s.w", "'struct S' has no member named 'w'."},
		{"x.u", "Request for member 'u' in something not a complete structure ('int')."},
		{"x = s", "Assigning to 'int' with an expression of incompatible type 'struct S'."},
		{"(struct S)x", "Cannot cast 'int' to 'struct S'."},
		{"__CPROVER_forall { int i; x++ > i }", "Quantifier must not have side effects."},
		{"__CPROVER_forall { struct S i; 1 }", "Quantified variable must have scalar type, got 'struct S'."},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tc, _ := newChecker(config.NewConfig())
			_, err := tc.CheckExpr(parseExpr(t, config.NewConfig(), tt.src))
			var diag *util.Diagnostic
			require.ErrorAs(t, err, &diag)
			assert.Equal(t, tt.msg, diag.Msg)
		})
	}
}

func checkFile(t *testing.T, src string) (*ast.File, *symtab.Table, error) {
	t.Helper()
	cfg := config.NewConfig()
	toks, err := lexer.Tokenize([]rune(src), 0, cfg)
	require.NoError(t, err)
	file, err := parser.NewParser(toks, cfg).Parse("t.c")
	require.NoError(t, err)
	symbols := symtab.NewTable()
	return file, symbols, typeChecker.NewTypeChecker(cfg, symbols).Check(file)
}

func TestCheckFile(t *testing.T) {
	file, symbols, err := checkFile(t, `int g[] = {1, 2, 3};
int f(int x) {
	static int n;
	int y = x;
	{ int y = 2; }
	if (y) y = n;
	return y;
}`)
	require.NoError(t, err)

	assert.Equal(t, int64(3), file.Globals[0].Type.Size)
	g, ok := symbols.Lookup("g")
	require.True(t, ok)
	assert.Equal(t, "int[3]", g.Type.String())

	fn := file.Functions[0]
	assert.Equal(t, "f::x", fn.Params[0].Name)
	var got []string
	for _, st := range fn.Body.Stmts {
		got = append(got, st.String())
	}
	assert.Equal(t, []string{
		"static int f::n;",
		"int f::y = f::x;",
		"{ int f::y$1 = 2; }",
		"if((_Bool)f::y) f::y = f::n;",
		"return f::y;",
	}, got)

	n, ok := symbols.Lookup("f::n")
	require.True(t, ok)
	assert.Equal(t, symtab.Static, n.Lifetime)
	x, ok := symbols.Lookup("f::x")
	require.True(t, ok)
	assert.True(t, x.IsParameter)
}

func TestCheckFileErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"int g; long g;", "Conflicting types for 'g'."},
		{"int g = 1; int g = 2;", "Redefinition of 'g'."},
		{"void v;", "Variable declared with type 'void'."},
		{"void f(void) { return 1; }", "Return with a value in function returning void."},
		{"char s[2] = \"abc\";", "Initializer string is too long for 'char[2]'."},
		{"int a[2] = {1, 2, 3};", "Excess elements in array initializer."},
		{"int a[2] = 1;", "Array initializer must be an initializer list."},
		{"int f(void) { int a[]; return 0; }", "Array 'a' has incomplete type 'int[]'."},
		{"int f(int x) { int x; return x; }", "Redefinition of 'x'."},
		{"struct S; struct S s;", "Variable has incomplete type 'struct S'."},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			_, _, err := checkFile(t, tt.src)
			var diag *util.Diagnostic
			require.ErrorAs(t, err, &diag)
			assert.Equal(t, tt.msg, diag.Msg)
		})
	}
}

func TestReturnWithoutValueWarns(t *testing.T) {
	var buf bytes.Buffer
	saved := util.Stderr
	util.Stderr = &buf
	defer func() { util.Stderr = saved }()

	_, _, err := checkFile(t, "int f(void) { return; }")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Return with no value in function returning 'int'")
}
