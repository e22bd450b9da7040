package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type options struct {
	output   string
	std      string
	verbose  bool
	includes []string
	warnings []string
	features []string
}

func newTestFlagSet(o *options) *FlagSet {
	fs := NewFlagSet("gclean")
	fs.String(&o.output, "output", "o", "-", "Write the lowered program to <file>", "file")
	fs.String(&o.std, "std", "", "cprover", "Language standard", "std")
	fs.Bool(&o.verbose, "verbose", "v", false, "Verbose output")
	fs.List(&o.includes, "include", "I", "Add a directory", "path")
	fs.AddFlagGroup("Warning Flags", "W", "warning", []GroupEntry{{Name: "unused-value", Usage: "Discarded values", Enabled: true}}, &o.warnings)
	fs.AddFlagGroup("Feature Flags", "F", "feature", []GroupEntry{{Name: "verify", Usage: "Re-check the output"}}, &o.features)
	return fs
}

func TestParse(t *testing.T) {
	var o options
	fs := newTestFlagSet(&o)
	err := fs.Parse([]string{
		"-v", "-ofile.txt", "--std=gnu99", "-Wall", "-Wno-unused-value", "-Fverify",
		"-I", "a", "--include", "b", "main.c", "--", "-odd.c",
	})
	require.NoError(t, err)

	assert.True(t, o.verbose)
	assert.Equal(t, "file.txt", o.output)
	assert.Equal(t, "gnu99", o.std)
	assert.Equal(t, []string{"a", "b"}, o.includes)
	assert.Equal(t, []string{"Wall", "Wno-unused-value"}, o.warnings)
	assert.Equal(t, []string{"Fverify"}, o.features)
	assert.Equal(t, []string{"main.c", "-odd.c"}, fs.Args())
	assert.Equal(t, "gnu99", fs.Lookup("std").Value.String())
}

func TestParseSingleDashLongName(t *testing.T) {
	var o options
	fs := newTestFlagSet(&o)
	require.NoError(t, fs.Parse([]string{"-std=c99", "-verbose=false", "-"}))
	assert.Equal(t, "c99", o.std)
	assert.False(t, o.verbose)
	assert.Equal(t, []string{"-"}, fs.Args())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		args []string
		msg  string
	}{
		{[]string{"--bogus"}, "unknown flag: --bogus"},
		{[]string{"-x"}, "unknown shorthand flag: -x"},
		{[]string{"--output"}, "flag needs an argument: --output"},
		{[]string{"--verbose=maybe"}, "invalid boolean value 'maybe'"},
		{[]string{"--=x"}, "empty flag name"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			var o options
			err := newTestFlagSet(&o).Parse(tt.args)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
	assert.Equal(t, []string{"unbreakableword"}, wrapText("unbreakableword", 4))
	assert.Empty(t, wrapText("   ", 10))
	assert.Equal(t, []string{"a", "b"}, wrapText("a b", 0))
}

func TestWriteHelp(t *testing.T) {
	var o options
	app := NewApp("gclean")
	app.Synopsis = "[options] <file>"
	app.Description = "Lowers C expressions."
	app.FlagSet = newTestFlagSet(&o)

	var sb strings.Builder
	app.WriteHelp(&sb, 100)
	help := sb.String()

	assert.Contains(t, help, "gclean [options] <file>")
	assert.Contains(t, help, "-o, --output <file>")
	assert.Contains(t, help, "|cprover|")
	assert.Contains(t, help, "-Wno-<warning>")
	assert.Contains(t, help, "Warning Flags")
	assert.Regexp(t, `unused-value\s+Discarded values\s+\|x\|`, help)
	assert.Regexp(t, `verify\s+Re-check the output\s+\|-\|`, help)
	assert.Less(t, strings.Index(help, "--include"), strings.Index(help, "--output"))
}

func TestRunCallsAction(t *testing.T) {
	var o options
	app := NewApp("gclean")
	app.FlagSet = newTestFlagSet(&o)
	var got []string
	app.Action = func(args []string) error { got = args; return nil }

	require.NoError(t, app.Run([]string{"-v", "a.c"}))
	assert.Equal(t, []string{"a.c"}, got)
	assert.True(t, o.verbose)
}
