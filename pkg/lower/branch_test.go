package lower

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

var tok = token.Token{}

func sym(name string, typ *ast.Type) *ast.Expr { return ast.NewSymbol(tok, name, typ) }

func assignProgram(value int64) *ir.Program {
	p := ir.NewProgram()
	p.AddAssign(sym("x", ast.TypeInt), ast.NewConstant(tok, value, ast.TypeInt), tok)
	return p
}

func TestNegate(t *testing.T) {
	b := sym("b", ast.TypeBool)
	assert.Same(t, b, negate(ast.NewNot(tok, b)))
	assert.Equal(t, "FALSE", negate(ast.NewTrue(tok)).String())
	assert.Equal(t, "TRUE", negate(ast.NewFalse(tok)).String())
	assert.Equal(t, "!b", negate(b).String())
}

func TestGenerateIfThenElse(t *testing.T) {
	b := sym("b", ast.TypeBool)
	tests := []struct {
		name      string
		trueCase  *ir.Program
		falseCase *ir.Program
		want      []string
	}{
		{
			name:      "both empty",
			trueCase:  ir.NewProgram(),
			falseCase: ir.NewProgram(),
			want:      []string{"SKIP"},
		},
		{
			name:      "no else",
			trueCase:  assignProgram(1),
			falseCase: ir.NewProgram(),
			want:      []string{"IF !b THEN GOTO 1", "ASSIGN x := 1", "SKIP"},
		},
		{
			name:      "no then",
			trueCase:  ir.NewProgram(),
			falseCase: assignProgram(2),
			want:      []string{"IF b THEN GOTO 1", "ASSIGN x := 2", "SKIP"},
		},
		{
			name:      "both",
			trueCase:  assignProgram(1),
			falseCase: assignProgram(2),
			want:      []string{"IF !b THEN GOTO 1", "ASSIGN x := 1", "GOTO 2", "ASSIGN x := 2", "SKIP"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(nil, nil)
			dest := ir.NewProgram()
			c.generateIfThenElse(b, tt.trueCase, tt.falseCase, tok, dest)
			assert.Equal(t, tt.want, dest.Lines())
			assert.True(t, tt.trueCase.IsEmpty())
			assert.True(t, tt.falseCase.IsEmpty())
			for _, ins := range dest.Filter(ir.Goto) {
				assert.GreaterOrEqual(t, dest.IndexOf(ins.Target), 0)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	t.Run("clean unit", func(t *testing.T) {
		u := ir.NewUnit("clean.c")
		body := assignProgram(1)
		body.AddEndFunction(tok)
		u.Functions = append(u.Functions, &ir.Function{Name: "main", Body: body})
		assert.NoError(t, Verify(u))
	})

	t.Run("side effect left behind", func(t *testing.T) {
		u := ir.NewUnit("dirty.c")
		u.Init.AddOther(ast.NewAssign(tok, sym("x", ast.TypeInt), ast.NewConstant(tok, 1, ast.TypeInt)), tok)
		err := Verify(u)
		require.Error(t, err)
		var inv *util.InvariantError
		require.True(t, errors.As(err, &inv))
		assert.Contains(t, inv.Msg, "OTHER")
	})

	t.Run("goto into another program", func(t *testing.T) {
		elsewhere := ir.NewProgram()
		target := elsewhere.AddSkip(tok)
		body := ir.NewProgram()
		body.AddGoto(nil, target, tok)
		u := ir.NewUnit("jump.c")
		u.Functions = append(u.Functions, &ir.Function{Name: "main", Body: body})
		var inv *util.InvariantError
		assert.True(t, errors.As(Verify(u), &inv))
	})
}

func TestRewriteBoolean(t *testing.T) {
	tests := []struct {
		name string
		e    *ast.Expr
		want string
	}{
		{"and", ast.NewAnd(tok, sym("a", ast.TypeBool), sym("b", ast.TypeBool), sym("c", ast.TypeBool)),
			"a ? (b ? (c ? TRUE : FALSE) : FALSE) : FALSE"},
		{"or", ast.NewOr(tok, sym("a", ast.TypeBool), sym("b", ast.TypeBool)),
			"a ? TRUE : (b ? TRUE : FALSE)"},
		{"implies", ast.NewImplies(tok, sym("a", ast.TypeBool), sym("b", ast.TypeBool)),
			"a ? b : TRUE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rewriteBoolean(tt.e)
			assert.Equal(t, ast.If, tt.e.Kind)
			assert.Equal(t, tt.want, tt.e.String())
		})
	}
}
