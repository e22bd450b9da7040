// Package cli is a small flag parser with grouped -F/-W toggles and a help
// page laid out for the width of the terminal.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const indentUnit = "    "

type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

type listValue struct{ p *[]string }

func (v *listValue) Set(s string) error { *v.p = append(*v.p, s); return nil }
func (v *listValue) String() string     { return strings.Join(*v.p, ", ") }

type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
}

// GroupEntry is one toggle of a flag group, spelled <prefix><name> and
// <prefix>no-<name>. Set records every toggle in command line order.
type GroupEntry struct {
	Name    string
	Usage   string
	Enabled bool
}

type FlagGroup struct {
	Name      string
	Prefix    string
	GroupType string
	Entries   []GroupEntry
	Set       *[]string
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	groups     []*FlagGroup
	args       []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:       name,
		flags:      make(map[string]*Flag),
		shorthands: make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.Var(&stringValue{p}, name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) List(p *[]string, name, shorthand string, usage, expectedType string) {
	*p = nil
	f.Var(&listValue{p}, name, shorthand, usage, "", expectedType)
}

func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, expectedType string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	f.flags[name] = flag
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

// AddFlagGroup registers a family of toggles sharing a one-letter prefix,
// such as -Wunused-value and -Wno-unused-value. Matching arguments are
// appended to set without the leading dash.
func (f *FlagSet) AddFlagGroup(name, prefix, groupType string, entries []GroupEntry, set *[]string) {
	f.groups = append(f.groups, &FlagGroup{Name: name, Prefix: prefix, GroupType: groupType, Entries: entries, Set: set})
}

func (f *FlagSet) groupFor(arg string) *FlagGroup {
	for _, g := range f.groups {
		if strings.HasPrefix(arg, "-"+g.Prefix) && len(arg) > len(g.Prefix)+1 {
			return g
		}
	}
	return nil
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = nil
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		switch {
		case len(arg) < 2 || arg[0] != '-':
			f.args = append(f.args, arg)
		case arg == "--":
			f.args = append(f.args, arguments[i+1:]...)
			return nil
		case strings.HasPrefix(arg, "--"):
			if err := f.parseLong(arg[2:], arguments, &i); err != nil {
				return err
			}
		default:
			if err := f.parseShort(arg, arguments, &i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *FlagSet) setValue(flag *Flag, value string, hasValue bool, display string, arguments []string, i *int) error {
	if hasValue {
		return flag.Value.Set(value)
	}
	if _, isBool := flag.Value.(*boolValue); isBool {
		return flag.Value.Set("")
	}
	if *i+1 >= len(arguments) {
		return fmt.Errorf("flag needs an argument: %s", display)
	}
	*i++
	return flag.Value.Set(arguments[*i])
}

func (f *FlagSet) parseLong(body string, arguments []string, i *int) error {
	name, value, hasValue := strings.Cut(body, "=")
	if name == "" {
		return fmt.Errorf("empty flag name")
	}
	flag, ok := f.flags[name]
	if !ok {
		return fmt.Errorf("unknown flag: --%s", name)
	}
	return f.setValue(flag, value, hasValue, "--"+name, arguments, i)
}

func (f *FlagSet) parseShort(arg string, arguments []string, i *int) error {
	name, value, hasValue := strings.Cut(arg[1:], "=")
	if flag, ok := f.flags[name]; ok {
		return f.setValue(flag, value, hasValue, "-"+name, arguments, i)
	}
	if g := f.groupFor(arg); g != nil {
		*g.Set = append(*g.Set, arg[1:])
		return nil
	}

	flag, ok := f.shorthands[arg[1:2]]
	if !ok {
		return fmt.Errorf("unknown shorthand flag: -%s", arg[1:2])
	}
	if rest := arg[2:]; rest != "" {
		return flag.Value.Set(rest)
	}
	return f.setValue(flag, "", false, "-"+flag.Shorthand, arguments, i)
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Repository  string
	FlagSet     *FlagSet
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet(name)}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.WriteUsage(os.Stderr)
		return err
	}
	if help {
		a.WriteHelp(os.Stdout, terminalWidth())
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) WriteUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s %s\n", a.Name, a.Synopsis)
	fmt.Fprintf(w, "Run '%s --help' for all available options and flags.\n", a.Name)
}

func (a *App) sortedFlags() []*Flag {
	flags := make([]*Flag, 0, len(a.FlagSet.flags))
	for _, flag := range a.FlagSet.flags {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

func formatFlag(flag *Flag) string {
	_, isBool := flag.Value.(*boolValue)
	var sb strings.Builder
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s, ", flag.Shorthand)
	}
	fmt.Fprintf(&sb, "--%s", flag.Name)
	if !isBool && flag.ExpectedType != "" {
		fmt.Fprintf(&sb, " <%s>", flag.ExpectedType)
	}
	return sb.String()
}

// WriteHelp prints the full help page wrapped to width columns.
func (a *App) WriteHelp(w io.Writer, width int) {
	flags := a.sortedFlags()
	leftWidth := 0
	for _, flag := range flags {
		leftWidth = max(leftWidth, len(formatFlag(flag)))
	}
	for _, g := range a.FlagSet.groups {
		leftWidth = max(leftWidth, len(fmt.Sprintf("-%sno-<%s>", g.Prefix, g.GroupType)))
		for _, e := range g.Entries {
			leftWidth = max(leftWidth, len(e.Name))
		}
	}

	var sb strings.Builder
	if a.Repository != "" {
		fmt.Fprintf(&sb, "\n%sFor more details refer to %s\n", indentUnit, a.Repository)
	}
	if a.Synopsis != "" {
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s %s\n", indentUnit, indentUnit+indentUnit, a.Name, a.Synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n", indentUnit)
		for _, line := range wrapText(a.Description, width-2*len(indentUnit)) {
			fmt.Fprintf(&sb, "%s%s\n", indentUnit+indentUnit, line)
		}
	}

	fmt.Fprintf(&sb, "\n%sOptions\n", indentUnit)
	for _, flag := range flags {
		right := ""
		if _, isBool := flag.Value.(*boolValue); !isBool && flag.DefValue != "" {
			right = fmt.Sprintf("|%s|", flag.DefValue)
		}
		writeEntry(&sb, width, leftWidth, formatFlag(flag), flag.Usage, right)
	}

	for _, g := range a.FlagSet.groups {
		fmt.Fprintf(&sb, "\n%s%s\n", indentUnit, g.Name)
		writeEntry(&sb, width, leftWidth, fmt.Sprintf("-%s<%s>", g.Prefix, g.GroupType), "Enable a specific "+g.GroupType, "")
		writeEntry(&sb, width, leftWidth, fmt.Sprintf("-%sno-<%s>", g.Prefix, g.GroupType), "Disable a specific "+g.GroupType, "")
		entries := append([]GroupEntry(nil), g.Entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			mark := "|-|"
			if e.Enabled {
				mark = "|x|"
			}
			writeEntry(&sb, width, leftWidth, e.Name, e.Usage, mark)
		}
	}
	fmt.Fprint(w, sb.String())
}

func writeEntry(sb *strings.Builder, width, leftWidth int, left, usage, right string) {
	indent := indentUnit + indentUnit
	usageWidth := max(width-len(indent)-leftWidth-1-len(right)-2, 10)
	lines := wrapText(usage, usageWidth)
	first := ""
	if len(lines) > 0 {
		first = lines[0]
	}
	if right != "" {
		fmt.Fprintf(sb, "%s%-*s %-*s  %s\n", indent, leftWidth, left, usageWidth, first, right)
	} else {
		fmt.Fprintf(sb, "%s%-*s %s\n", indent, leftWidth, left, first)
	}
	pad := strings.Repeat(" ", leftWidth+1)
	for _, line := range lines[min(1, len(lines)):] {
		fmt.Fprintf(sb, "%s%s%s\n", indent, pad, line)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return max(width, 20)
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if maxWidth <= 0 || len(words) == 0 {
		return words
	}
	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len() > 0 && line.Len()+len(word)+1 > maxWidth {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
