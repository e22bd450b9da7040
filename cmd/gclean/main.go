package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/xplshn/gclean/pkg/cli"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/driver"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

func main() {
	app := cli.NewApp("gclean")
	app.Synopsis = "[options] <input.c> ..."
	app.Description = "Lowers C expressions with side effects into side-effect free expressions and goto programs."
	app.Repository = "<https://github.com/xplshn/gclean>"

	var (
		outFile  string
		std      string
		target   string
		pedantic bool
		dump     bool
		verbose  bool
		watch    bool
		toggles  []string
	)

	cfg := config.NewConfig()

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "-", "Place the output into <file>.", "file")
	fs.String(&target, "target", "t", "", "Set the target ABI; the word size follows from it.", "target")
	fs.String(&std, "std", "", "cprover", "Specify language standard (c99, gnu99, cprover)", "std")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue all warnings demanded by the current std.")
	fs.Bool(&dump, "dump", "d", false, "Also list the temporaries and the fingerprint of the unit.")
	fs.Bool(&verbose, "verbose", "v", false, "Print the stages as they run.")
	fs.Bool(&watch, "watch", "w", false, "Lower again whenever an input file changes.")
	fs.AddFlagGroup("Warning Flags", "W", "warning", warningEntries(cfg), &toggles)
	fs.AddFlagGroup("Feature Flags", "F", "feature", featureEntries(cfg), &toggles)

	app.Action = func(inputFiles []string) error {
		if err := cfg.ApplyStd(std); err != nil {
			util.Error(token.Token{}, "%s", err.Error())
		}
		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		cfg.ApplyFlags(toggles)
		cfg.Verbose = verbose
		cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target)

		if len(inputFiles) == 0 {
			util.Error(token.Token{}, "no input files specified.")
		}

		if watch {
			return watchAndLower(cfg, inputFiles, outFile, dump)
		}
		if _, err := lowerOnce(cfg, inputFiles, outFile, dump); err != nil {
			util.Report(err)
			os.Exit(1)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func warningEntries(cfg *config.Config) []cli.GroupEntry {
	entries := make([]cli.GroupEntry, 0, config.WarnCount)
	for w := config.Warning(0); w < config.WarnCount; w++ {
		info := cfg.Warnings[w]
		entries = append(entries, cli.GroupEntry{Name: info.Name, Usage: info.Description, Enabled: info.Enabled})
	}
	return append(entries, cli.GroupEntry{Name: "all", Usage: "Enable most warnings"})
}

func featureEntries(cfg *config.Config) []cli.GroupEntry {
	entries := make([]cli.GroupEntry, 0, config.FeatCount)
	for f := config.Feature(0); f < config.FeatCount; f++ {
		info := cfg.Features[f]
		entries = append(entries, cli.GroupEntry{Name: info.Name, Usage: info.Description, Enabled: info.Enabled})
	}
	return entries
}

// lowerOnce runs the whole pipeline and writes the result. It returns the
// fingerprint of the lowered unit.
func lowerOnce(cfg *config.Config, inputFiles []string, outFile string, dump bool) (uint64, error) {
	res, err := driver.RunFiles(cfg, inputFiles)
	if err != nil {
		return 0, err
	}

	var w io.Writer = os.Stdout
	if outFile != "-" {
		f, err := os.Create(outFile)
		if err != nil {
			return 0, fmt.Errorf("could not create '%s': %w", outFile, err)
		}
		defer f.Close()
		w = f
	}
	res.Dump(w, dump)
	if cfg.Verbose {
		fmt.Printf("Done! %d function(s), %d temporaries.\n", len(res.Unit.Functions), len(res.Symbols.Temporaries()))
	}
	return res.Unit.Fingerprint(), nil
}
