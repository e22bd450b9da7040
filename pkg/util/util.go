package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/token"
)

// Stderr receives every diagnostic; tests swap it for a buffer.
var Stderr io.Writer = os.Stderr

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var sourceFiles []SourceFileRecord

// SetSourceFiles stores the source code for all input files for rich error messages
func SetSourceFiles(files []SourceFileRecord) { sourceFiles = files }

// Diagnostic is a user-facing front-end error tied to a source position.
type Diagnostic struct {
	Tok token.Token
	Msg string
}

func (d *Diagnostic) Error() string {
	filename, line, col := findFileAndLine(d.Tok)
	return fmt.Sprintf("%s:%d:%d: %s", filename, line, col, d.Msg)
}

func Errorf(tok token.Token, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

// InvariantError reports malformed input that an earlier stage should have
// rejected. It is raised with panic and never patched over.
type InvariantError struct {
	Tok token.Token
	Msg string
}

func (e *InvariantError) Error() string {
	filename, line, col := findFileAndLine(e.Tok)
	return fmt.Sprintf("%s:%d:%d: invariant violated: %s", filename, line, col, e.Msg)
}

// Invariant panics with an *InvariantError when cond does not hold.
func Invariant(cond bool, tok token.Token, format string, args ...interface{}) {
	if !cond {
		panic(&InvariantError{Tok: tok, Msg: fmt.Sprintf(format, args...)})
	}
}

// RecoverInvariant turns a panicking *InvariantError into *err. Any other
// panic keeps unwinding.
func RecoverInvariant(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InvariantError); ok {
		*err = ie
		return
	}
	panic(r)
}

func findFileAndLine(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) {
		return "<unknown>", tok.Line, tok.Column
	}
	return sourceFiles[tok.FileIndex].Name, tok.Line, tok.Column
}

// printErrorLine prints the source line and a caret indicating the error position
func printErrorLine(w io.Writer, tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) || tok.Line == 0 {
		return
	}

	content := sourceFiles[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(w, "  %s\n", string(content[lineStart:lineEnd]))
	col := tok.Column
	if col < 1 {
		col = 1
	}
	fmt.Fprintf(w, "  %s\033[32m^", strings.Repeat(" ", col-1))
	if tok.Len > 1 {
		fmt.Fprint(w, strings.Repeat("~", tok.Len-1))
	}
	fmt.Fprintln(w, "\033[0m")
}

// Report prints err the way diagnostics are printed, with a caret when the
// error carries a source position.
func Report(err error) {
	var diag *Diagnostic
	var inv *InvariantError
	switch {
	case errors.As(err, &diag):
		filename, line, col := findFileAndLine(diag.Tok)
		fmt.Fprintf(Stderr, "%s:%d:%d: \033[31merror:\033[0m %s\n", filename, line, col, diag.Msg)
		printErrorLine(Stderr, diag.Tok)
	case errors.As(err, &inv):
		filename, line, col := findFileAndLine(inv.Tok)
		fmt.Fprintf(Stderr, "%s:%d:%d: \033[31minternal error:\033[0m %s\n", filename, line, col, inv.Msg)
		printErrorLine(Stderr, inv.Tok)
	default:
		fmt.Fprintf(Stderr, "gclean: \033[31merror:\033[0m %v\n", err)
	}
}

// Error prints a formatted error message and exits the program
func Error(tok token.Token, format string, args ...interface{}) {
	Report(Errorf(tok, format, args...))
	os.Exit(1)
}

// Warn prints a formatted warning message if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if cfg == nil || !cfg.IsWarningEnabled(wt) {
		return
	}
	filename, line, col := findFileAndLine(tok)
	fmt.Fprintf(Stderr, "%s:%d:%d: \033[33mwarning:\033[0m ", filename, line, col)
	fmt.Fprintf(Stderr, format, args...)
	fmt.Fprintf(Stderr, " [-W%s]\n", cfg.Warnings[wt].Name)
	printErrorLine(Stderr, tok)
}

func Info(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, "gclean: info: "+format+"\n", args...)
}
