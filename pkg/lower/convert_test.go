package lower_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/driver"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/lower"
	"github.com/xplshn/gclean/pkg/util"
)

func lowerSource(t *testing.T, src string) *ir.Unit {
	t.Helper()
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatVerify, true)
	res, err := driver.RunString(cfg, "test.c", src)
	require.NoError(t, err)
	return res.Unit
}

func bodyLines(t *testing.T, u *ir.Unit, name string) []string {
	t.Helper()
	fn := u.FindFunction(name)
	require.NotNil(t, fn, "function %s not lowered", name)
	return fn.Body.Lines()
}

func TestConvertFunction(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "while re-evaluates its condition at the head",
			src: `int f(int v);
int main(void) {
	int x = 0;
	while (x++ < 3)
		f(x);
	return x;
}`,
			want: []string{
				"DECL main::x : int",
				"ASSIGN main::x := 0",
				"DECL main::$tmp::post$0 : int",
				"ASSIGN main::$tmp::post$0 := main::x",
				"ASSIGN main::x := main::x + 1",
				"IF !(main::$tmp::post$0 < 3) THEN GOTO 2",
				"DEAD main::$tmp::post$0",
				"CALL f(main::x)",
				"GOTO 1",
				"SKIP",
				"DEAD main::$tmp::post$0",
				"RETURN main::x",
				"DEAD main::x",
				"END_FUNCTION",
			},
		},
		{
			name: "initializer call writes straight into the variable",
			src: `int f(int v);
int main(void) {
	int r = f(3);
	return r;
}`,
			want: []string{
				"DECL main::r : int",
				"CALL main::r := f(3)",
				"RETURN main::r",
				"DEAD main::r",
				"END_FUNCTION",
			},
		},
		{
			name: "initializer call of another type is converted",
			src: `int f(int v);
void main(void) {
	long l = f(1);
}`,
			want: []string{
				"DECL main::l : long",
				"DECL main::$tmp::return_value$0 : int",
				"CALL main::$tmp::return_value$0 := f(1)",
				"ASSIGN main::l := (long)main::$tmp::return_value$0",
				"DEAD main::l",
				"DEAD main::$tmp::return_value$0",
				"END_FUNCTION",
			},
		},
		{
			name: "returned call goes through a temporary",
			src: `int f(int v);
int main(void) {
	return f(1) + 1;
}`,
			want: []string{
				"DECL main::$tmp::return_value$0 : int",
				"CALL main::$tmp::return_value$0 := f(1)",
				"RETURN main::$tmp::return_value$0 + 1",
				"DEAD main::$tmp::return_value$0",
				"END_FUNCTION",
			},
		},
		{
			name: "if with both branches",
			src: `int x;
void main(void) {
	if (x) x = 2; else x = 3;
}`,
			want: []string{
				"IF !((_Bool)x) THEN GOTO 1",
				"ASSIGN x := 2",
				"GOTO 2",
				"ASSIGN x := 3",
				"SKIP",
				"END_FUNCTION",
			},
		},
		{
			name: "shadowed locals get distinct names",
			src: `int main(void) {
	int x = 1;
	{ int x = 2; }
	return x;
}`,
			want: []string{
				"DECL main::x : int",
				"ASSIGN main::x := 1",
				"DECL main::x$1 : int",
				"ASSIGN main::x$1 := 2",
				"DEAD main::x$1",
				"RETURN main::x",
				"DEAD main::x",
				"END_FUNCTION",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := lowerSource(t, tt.src)
			if diff := cmp.Diff(tt.want, bodyLines(t, u, "main")); diff != "" {
				t.Errorf("main mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoopConditionTemporariesDieEachIteration(t *testing.T) {
	u := lowerSource(t, `int f(int v);
int main(void) {
	int x = 2;
	while (f(x) && x--)
		;
	return x;
}`)
	body := u.FindFunction("main").Body

	var back *ir.Instruction
	for _, ins := range body.Filter(ir.Goto) {
		if body.IndexOf(ins.Target) < body.IndexOf(ins) {
			back = ins
		}
	}
	require.NotNil(t, back, "loop has no back edge")

	count := func(from, to int) (decls, deads int) {
		for _, ins := range body.Instructions[from:to] {
			switch ins.Kind {
			case ir.Decl:
				decls++
			case ir.Dead:
				deads++
			}
		}
		return decls, deads
	}

	head, end := body.IndexOf(back.Target), body.IndexOf(back)
	decls, deads := count(head, end)
	assert.Positive(t, decls)
	assert.Equal(t, decls, deads, "iteration leaks temporaries")

	ret := body.Filter(ir.Return)
	require.Len(t, ret, 1)
	_, exitDeads := count(end, body.IndexOf(ret[0]))
	assert.Equal(t, decls, exitDeads, "loop exit leaks temporaries")

	lines := body.Lines()
	assert.Equal(t, []string{"RETURN main::x", "DEAD main::x", "END_FUNCTION"}, lines[len(lines)-3:])
}

func TestStaticInitializers(t *testing.T) {
	u := lowerSource(t, `int *gp = (int[2]){1, 2};
int main(void) {
	static int s = 4;
	return s + *gp;
}`)

	assert.Equal(t, []string{
		"ASSIGN __CPROVER_initialize::$tmp::literal$0 := { 1, 2 }",
		"ASSIGN gp := &__CPROVER_initialize::$tmp::literal$0[0]",
		"ASSIGN main::s := 4",
	}, u.Init.Lines())
	assert.Zero(t, u.Init.Count(ir.Decl))
	assert.Zero(t, u.Init.Count(ir.Dead))
	assert.Equal(t, []string{"RETURN main::s + (*gp)", "END_FUNCTION"}, bodyLines(t, u, "main"))
}

func TestShortCircuitConditionCallsOnce(t *testing.T) {
	u := lowerSource(t, `int g;
int h(void);
void main(void) {
	if (g || h())
		g = 1;
}`)
	body := u.FindFunction("main").Body
	assert.Equal(t, 1, body.Count(ir.FunctionCall))
	assert.Equal(t, body.Count(ir.Decl), body.Count(ir.Dead))
	assert.NoError(t, lower.Verify(u))
}

func TestLoweringIsDeterministic(t *testing.T) {
	src := `int f(int v);
int a[3];
int main(void) {
	int i = 0;
	while (i < 3) {
		a[i] = f(i) ?: i++;
		i += f(a[i]) && i;
	}
	return ({ int t = i; t * 2; });
}`
	first := lowerSource(t, src)
	second := lowerSource(t, src)
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
	assert.NoError(t, lower.Verify(first))
}

func TestUnusedValueWarning(t *testing.T) {
	var buf bytes.Buffer
	saved := util.Stderr
	util.Stderr = &buf
	defer func() { util.Stderr = saved }()

	u := lowerSource(t, `int x;
void main(void) {
	x + 1;
}`)
	assert.Equal(t, []string{"OTHER x + 1", "END_FUNCTION"}, bodyLines(t, u, "main"))
	assert.Contains(t, buf.String(), "value computed is not used")
}

func TestFrontEndRejections(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"value returned from void function", "void main(void) { return 1; }", "Return with a value"},
		{"side effect in quantifier", "int x; int main(void) { return __CPROVER_forall(int i; x++ > i); }", "Quantifier must not have side effects"},
		{"undeclared identifier", "int main(void) { return y; }", "undeclared identifier 'y'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := driver.RunString(config.NewConfig(), "bad.c", tt.src)
			var diag *util.Diagnostic
			require.ErrorAs(t, err, &diag)
			assert.Contains(t, diag.Msg, tt.msg)
		})
	}
}
