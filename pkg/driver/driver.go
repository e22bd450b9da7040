// Package driver runs the front end over source files: lexing, parsing,
// type checking and lowering into goto programs.
package driver

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/lexer"
	"github.com/xplshn/gclean/pkg/lower"
	"github.com/xplshn/gclean/pkg/parser"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/typeChecker"
	"github.com/xplshn/gclean/pkg/util"
)

// Result is everything a run produced for one translation unit.
type Result struct {
	File    *ast.File
	Unit    *ir.Unit
	Symbols *symtab.Table
	Records []util.SourceFileRecord
}

// ReadSources loads every path. The records also feed diagnostics.
func ReadSources(paths []string) ([]util.SourceFileRecord, error) {
	records := make([]util.SourceFileRecord, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read file '%s': %w", path, err)
		}
		records = append(records, util.SourceFileRecord{Name: path, Content: []rune(string(content))})
	}
	return records, nil
}

// tokenize lexes all records into one stream with a single trailing EOF.
func tokenize(records []util.SourceFileRecord, cfg *config.Config) ([]token.Token, error) {
	var all []token.Token
	for i, rec := range records {
		toks, err := lexer.Tokenize(rec.Content, i, cfg)
		if err != nil {
			return nil, err
		}
		all = append(all, toks[:len(toks)-1]...)
	}
	last := max(len(records)-1, 0)
	return append(all, token.Token{Type: token.EOF, FileIndex: last}), nil
}

func progress(cfg *config.Config, format string, args ...interface{}) {
	if cfg.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// Run lowers the given sources as one translation unit.
func Run(cfg *config.Config, records []util.SourceFileRecord) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no input files specified")
	}
	util.SetSourceFiles(records)

	progress(cfg, "Tokenizing %d source file(s)...", len(records))
	toks, err := tokenize(records, cfg)
	if err != nil {
		return nil, err
	}

	progress(cfg, "Parsing tokens into AST...")
	file, err := parser.NewParser(toks, cfg).Parse(records[0].Name)
	if err != nil {
		return nil, err
	}

	progress(cfg, "Type checking...")
	symbols := symtab.NewTable()
	if err := typeChecker.NewTypeChecker(cfg, symbols).Check(file); err != nil {
		return nil, err
	}

	progress(cfg, "Lowering expressions...")
	unit, err := lower.NewConverter(cfg, symbols).ConvertUnit(file)
	if err != nil {
		return nil, err
	}
	return &Result{File: file, Unit: unit, Symbols: symbols, Records: records}, nil
}

// RunFiles reads and lowers paths.
func RunFiles(cfg *config.Config, paths []string) (*Result, error) {
	records, err := ReadSources(paths)
	if err != nil {
		return nil, err
	}
	return Run(cfg, records)
}

// RunString lowers a single in-memory source named name.
func RunString(cfg *config.Config, name, src string) (*Result, error) {
	return Run(cfg, []util.SourceFileRecord{{Name: name, Content: []rune(src)}})
}

// Dump writes the lowered unit. With details it also lists the temporaries
// and the fingerprint of the unit.
func (r *Result) Dump(w io.Writer, details bool) {
	r.Unit.Print(w)
	if !details {
		return
	}
	if temps := r.Symbols.Temporaries(); len(temps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "/* temporaries */")
		for _, sym := range temps {
			fmt.Fprintf(w, "%s : %s (%s)\n", sym.Name, sym.Type, sym.Lifetime)
		}
	}
	fmt.Fprintf(w, "\n/* fingerprint %016x */\n", r.Unit.Fingerprint())
}

func (r *Result) String() string {
	var sb strings.Builder
	r.Dump(&sb, false)
	return sb.String()
}
