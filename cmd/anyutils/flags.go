package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

var (
	_ pflag.Value = (*engineValue)(nil)
	_ pflag.Value = (*modeValue)(nil)
)

// engineValue is a pflag.Value for --engine.
type engineValue struct {
	engine match.Engine
	set    bool
}

func (v *engineValue) String() string { return v.engine.String() }
func (v *engineValue) Type() string   { return "engine" }

func (v *engineValue) Set(s string) error {
	e, err := match.ParseEngine(s)
	if err != nil {
		return err
	}
	v.engine = e
	v.set = true
	return nil
}

// Mode names the predicate applied by filter and follow.
type Mode string

const (
	ModeAny  Mode = "any"
	ModeAll  Mode = "all"
	ModeNone Mode = "none"
)

// ValidModes maps mode names to their predicates.
var ValidModes = map[Mode]func() match.Predicate{
	ModeAny:  match.Any,
	ModeAll:  match.All,
	ModeNone: match.None,
}

// ValidModeNames returns the sorted mode names.
func ValidModeNames() []string {
	names := make([]string, 0, len(ValidModes))
	for m := range ValidModes {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}

// modeValue is a pflag.Value for --mode.
type modeValue struct {
	mode Mode
}

func (v *modeValue) String() string { return string(v.mode) }
func (v *modeValue) Type() string   { return "mode" }

func (v *modeValue) Set(s string) error {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ValidModes[m]; !ok {
		return fmt.Errorf("invalid mode %q (valid: %s)", s, strings.Join(ValidModeNames(), ", "))
	}
	v.mode = m
	return nil
}

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// matcherFlags are the flags shared by every command that compiles patterns.
type matcherFlags struct {
	exprs         []string
	patternFile   string
	engine        engineValue
	timeout       time.Duration
	workers       int
	captureErrors bool
	format        string
}

func (f *matcherFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.exprs, "regexp", "e", nil,
		"Pattern to evaluate (repeatable)")
	fs.StringVarP(&f.patternFile, "patterns", "p", "",
		"YAML pattern file")
	fs.Var(&f.engine, "engine",
		"Regex engine: re2, backtrack (default from the pattern file, else re2)")
	fs.DurationVar(&f.timeout, "timeout", 0,
		"Per-evaluation timeout for the backtrack engine (0 = none)")
	fs.IntVar(&f.workers, "workers", 0,
		"Maximum concurrent evaluations (0 = min(32, NumCPU+4))")
	fs.BoolVar(&f.captureErrors, "capture-errors", false,
		"Record evaluation errors per result instead of aborting")
	fs.StringVarP(&f.format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")

	_ = cmd.RegisterFlagCompletionFunc("engine", fixedCompletion("re2", "backtrack"))
	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion("jsonl", "pretty"))
	_ = cmd.MarkFlagFilename("patterns", "yaml", "yml")
}

func (f *matcherFlags) validate() error {
	if !ValidFormats[f.format] {
		return fmt.Errorf("unknown format: %s", f.format)
	}
	if len(f.exprs) == 0 && f.patternFile == "" {
		return fmt.Errorf("no patterns: use --regexp or --patterns")
	}
	if f.timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", f.timeout)
	}
	if f.workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", f.workers)
	}
	return nil
}

// selectFlags are the row selection flags of filter and follow.
type selectFlags struct {
	mode          modeValue
	require       []int
	plugin        string
	pluginTimeout time.Duration
}

func (f *selectFlags) register(cmd *cobra.Command) {
	f.mode.mode = ModeAny

	fs := cmd.Flags()
	fs.Var(&f.mode, "mode",
		"Keep lines where any, all or none of the patterns matched")
	fs.IntSliceVar(&f.require, "require", nil,
		"Also require the pattern at this 0-based index to match (repeatable)")
	fs.StringVar(&f.plugin, "plugin", "",
		"WebAssembly plugin that makes the final keep decision")
	fs.DurationVar(&f.pluginTimeout, "plugin-timeout", 0,
		"Timeout for each plugin call (0 = plugin default)")

	_ = cmd.RegisterFlagCompletionFunc("mode", fixedCompletion(ValidModeNames()...))
	_ = cmd.MarkFlagFilename("plugin", "wasm")
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
