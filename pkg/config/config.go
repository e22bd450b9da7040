package config

import (
	"fmt"
	"os"
	"strings"

	"modernc.org/libqbe"
)

type Feature int

const (
	FeatStmtExpr Feature = iota
	FeatGCCCond
	FeatQuantifiers
	FeatCompoundLiterals
	FeatImplies
	FeatCComments
	FeatVerify
	FeatCount
)

type Warning int

const (
	WarnUnusedValue Warning = iota
	WarnImplicitDecl
	WarnPedantic
	WarnStaticLiteral
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	StdName    string
	Target     string
	TargetArch string
	WordSize   int
	Verbose    bool
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		WordSize:   8,
	}

	features := map[Feature]Info{
		FeatStmtExpr:         {"stmt-expr", true, "Allow GNU statement expressions `({ ... })`."},
		FeatGCCCond:          {"gcc-cond", true, "Allow the GNU binary conditional `a ?: b`."},
		FeatQuantifiers:      {"quantifiers", true, "Allow `__CPROVER_forall` and `__CPROVER_exists`."},
		FeatCompoundLiterals: {"compound-literals", true, "Allow compound literals `(T){...}`."},
		FeatImplies:          {"implies", true, "Allow the implication operator `==>`."},
		FeatCComments:        {"c-comments", true, "Recognize C++-style '//' line comments."},
		FeatVerify:           {"verify", false, "Re-check that every lowered expression is side-effect free."},
	}

	warnings := map[Warning]Info{
		WarnUnusedValue:   {"unused-value", true, "Warn when the value of an expression statement is discarded."},
		WarnImplicitDecl:  {"implicit-decl", true, "Warn about calls to undeclared functions."},
		WarnPedantic:      {"pedantic", false, "Warn about every extension outside the selected standard."},
		WarnStaticLiteral: {"static-literal", false, "Warn when a compound literal gets static storage."},
		WarnExtra:         {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

// SetTarget picks the target and derives the word size used for `long`,
// pointers and `sizeof`.
func (c *Config) SetTarget(goos, goarch, target string) {
	if target == "" {
		c.Target = libqbe.DefaultTarget(goos, goarch)
		if c.Verbose {
			fmt.Fprintf(os.Stderr, "gclean: info: no target specified, defaulting to host target '%s'\n", c.Target)
		}
	} else {
		c.Target = target
	}
	c.TargetArch = goarch

	switch c.Target {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.WordSize = 8
	case "arm", "rv32", "i386":
		c.WordSize = 4
	default:
		fmt.Fprintf(os.Stderr, "gclean: warning: unrecognized target '%s', assuming 64-bit.\n", c.Target)
		c.WordSize = 8
	}
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyStd switches the extension features on or off for a language standard.
func (c *Config) ApplyStd(stdName string) error {
	c.StdName = stdName

	type stdSettings struct {
		feature   Feature
		c99Value  bool
		gnuValue  bool
		cproValue bool
	}

	settings := []stdSettings{
		{FeatStmtExpr, false, true, true},
		{FeatGCCCond, false, true, true},
		{FeatQuantifiers, false, false, true},
		{FeatImplies, false, false, true},
		{FeatCompoundLiterals, true, true, true},
		{FeatCComments, true, true, true},
	}

	switch stdName {
	case "c99":
		for _, s := range settings {
			c.SetFeature(s.feature, s.c99Value)
		}
	case "gnu99":
		for _, s := range settings {
			c.SetFeature(s.feature, s.gnuValue)
		}
	case "cprover":
		for _, s := range settings {
			c.SetFeature(s.feature, s.cproValue)
		}
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'c99', 'gnu99', 'cprover'", stdName)
	}
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	isWarning := true
	switch {
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		isWarning = false
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
	default:
		name = trimmed
	}
	if isNo {
		name = strings.TrimPrefix(name, "no-")
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
	}
}

// ApplyFlags applies -W/-F style flags; -Wall and -Wno-all go first so that
// specific flags can override them.
func (c *Config) ApplyFlags(flags []string) {
	for _, f := range flags {
		if f == "Wall" || f == "Wno-all" {
			c.applyFlag("-" + f)
		}
	}
	for _, f := range flags {
		if f != "Wall" && f != "Wno-all" {
			c.applyFlag("-" + f)
		}
	}
}
