// Package commands implements pyfly's subcommands: one per rewriter
// primitive in pkg/rewrite, plus collect, each a thin cobra wrapper that
// reads files or stdin, calls the primitive, and renders the result
// according to --diff/--in-place/--prompt (spec.md §4.16).
package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/config"
	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/importdb"
	"github.com/deshaw/pyflyby/pkg/probe"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

// exit codes (spec.md §4.16)
const (
	exitOK            = 0
	exitFatal         = 1
	exitUsage         = 2
	exitDiagnosticsOK = 100
)

// errUsage marks an error as a usage error (bad flag combination,
// malformed --rule argument) rather than a runtime failure, so Execute
// can tell exitUsage apart from exitFatal.
var errUsage = errors.New("usage error")

// usageErrorf wraps a formatted message so errors.Is(err, errUsage) is
// true, for Execute's exit-code dispatch.
func usageErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, errUsage)...)
}

// lastExitCode is set by a subcommand's RunE before returning nil, and
// read back by Execute once cobra finishes.
var lastExitCode int

// runOptions holds the flags shared by every rewriter subcommand.
type runOptions struct {
	diff    bool
	inPlace bool
	prompt  bool
	dbPath  []string
	files   []string
}

func bindRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("diff", false, "print a unified diff of the proposed change instead of the rewritten text")
	cmd.Flags().Bool("in-place", false, "write the rewritten text back to each file")
	cmd.Flags().Bool("prompt", false, "show a diff and ask for confirmation before writing each file (implies --in-place)")
	cmd.Flags().StringSlice("db", nil, "ImportDB contributor root(s), overriding the configured path_spec")
}

func readRunFlags(cmd *cobra.Command, args []string) (runOptions, error) {
	diff, _ := cmd.Flags().GetBool("diff")
	inPlace, _ := cmd.Flags().GetBool("in-place")
	prompt, _ := cmd.Flags().GetBool("prompt")
	db, _ := cmd.Flags().GetStringSlice("db")

	if prompt {
		inPlace = true
	}
	if diff && inPlace {
		return runOptions{}, usageErrorf("--diff and --in-place are mutually exclusive")
	}
	return runOptions{diff: diff, inPlace: inPlace, prompt: prompt, dbPath: db, files: targetFiles(args)}, nil
}

// loadSettings loads config.Settings, falling back to defaults on any
// load error so a missing or malformed config file never blocks a
// rewrite (spec.md §4.13 describes the layered loader; a CLI invocation
// degrades to defaults rather than failing outright).
func loadSettings() *config.Settings {
	settings, err := config.Load()
	if err != nil {
		return config.DefaultSettings()
	}
	return settings
}

// targetFiles resolves the positional arguments to a list of file
// paths to rewrite; "-" (or no arguments) reads a single file from
// stdin and writes the result to stdout regardless of --in-place.
func targetFiles(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

// readSource reads path's contents, or stdin's when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// buildDB resolves the ImportDB for path, using opts.dbPath when given
// or settings.PathSpec otherwise.
func buildDB(path string, opts runOptions, settings *config.Settings, diags *log.Diagnostics) (*importdb.DB, error) {
	pathSpec := settings.PathSpec
	if len(opts.dbPath) > 0 {
		pathSpec = opts.dbPath
	}
	abs, err := absTargetPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	return importdb.Build(pathSpec, abs, diags)
}

// absTargetPath resolves path to an absolute path for ImportDB
// ancestor-search purposes; stdin ("-") resolves against the current
// directory under a synthetic filename, since there is no real file to
// search upward from.
func absTargetPath(path string) (string, error) {
	if path == "-" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, "<stdin>.py"), nil
	}
	return filepath.Abs(path)
}

// resolveProbe looks up settings.ProbeName in a fresh Registry
// (pre-seeded with only "null", since this CLI process links in no
// interpreter-backed resolver of its own): ProbeNull always resolves to
// probe.Null{}, and ProbeRuntime requires a name actually registered by
// an embedding caller, which this binary never is.
func resolveProbe(settings *config.Settings) (probe.Resolver, error) {
	if settings.Probe == config.ProbeNull {
		return probe.Null{}, nil
	}
	registry := probe.NewRegistry()
	resolver, ok := registry.Lookup(settings.ProbeName)
	if !ok {
		return nil, fmt.Errorf("no import probe registered as %q; the pyfly binary only ships the null probe", settings.ProbeName)
	}
	return resolver, nil
}

// runOverFiles drives one rewriter primitive, wrapped as fn, over every
// file in opts.files (or stdin), emitting each Outcome per opts and
// accumulating diags. It returns the process exit code (spec.md §4.16).
func runOverFiles(opts runOptions, diags *log.Diagnostics, fn func(path string, text ftext.FileText) (rewrite.Outcome, error)) int {
	fatal := false
	anyChanged := false
	for _, path := range opts.files {
		contents, err := readSource(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "pyfly:", err)
			fatal = true
			continue
		}

		outcome, err := fn(path, sourceText(path, contents))
		if err != nil {
			fmt.Fprintln(os.Stderr, "pyfly:", err)
			fatal = true
			continue
		}
		if outcome.Changed {
			anyChanged = true
		}

		if err := emitResult(path, contents, outcome.Text, outcome.Changed, opts); err != nil {
			fmt.Fprintln(os.Stderr, "pyfly:", err)
			fatal = true
		}
	}

	reportDiagnostics(diags)
	code := finalExitCode(fatal, diags)
	if code == exitDiagnosticsOK && anyChanged {
		return exitOK
	}
	return code
}

// unifiedDiff renders a unified diff of before -> after, labeled with
// path, in the format the corpus's kubeadm upgrade-diff command emits.
func unifiedDiff(path, before, after string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// confirmWrite shows path's diff and asks whether to write it, the
// same huh.Confirm pattern the corpus's init command uses for its
// interactive prompts.
func confirmWrite(path, before, after string) (bool, error) {
	rendered, err := unifiedDiff(path, before, after)
	if err != nil {
		return false, err
	}
	fmt.Print(rendered)

	var proceed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Write changes to %s?", path)).
				Affirmative("Write").
				Negative("Skip").
				Value(&proceed),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("interactive prompt failed: %w", err)
	}
	return proceed, nil
}

// emitResult applies one file's rewrite Outcome according to opts,
// returning any error from diffing, prompting, or writing.
func emitResult(path, before, after string, changed bool, opts runOptions) error {
	switch {
	case opts.diff:
		if !changed {
			return nil
		}
		rendered, err := unifiedDiff(path, before, after)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	case opts.inPlace:
		if !changed {
			return nil
		}
		if opts.prompt {
			ok, err := confirmWrite(path, before, after)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		if path == "-" {
			_, err := io.WriteString(os.Stdout, after)
			return err
		}
		return os.WriteFile(path, []byte(after), 0644)
	default:
		_, err := io.WriteString(os.Stdout, after)
		return err
	}
}

// sourceText constructs the ftext.FileText for path's contents.
func sourceText(path, contents string) ftext.FileText {
	return ftext.NewAt(contents, path, ftext.FilePos{Line: 1, Column: 1})
}

// compilerFlags is the __future__ flag set assumed for every file this
// CLI rewrites; a future revision could sniff it from existing
// `from __future__ import ...` statements, but no rewriter primitive
// needs more than the zero value today.
func compilerFlags() flags.CompilerFlags {
	return flags.CompilerFlags(0)
}

// reportDiagnostics writes diags to stderr, one per line.
func reportDiagnostics(diags *log.Diagnostics) {
	_ = diags.WriteTo(os.Stderr)
}

// finalExitCode combines whether any fatal error occurred, whether any
// diagnostics were emitted, with spec.md §4.16's precedence: a fatal
// error always wins, otherwise diagnostics-but-no-crash reports 100.
func finalExitCode(fatal bool, diags *log.Diagnostics) int {
	if fatal {
		return exitFatal
	}
	if len(diags.Items()) > 0 {
		return exitDiagnosticsOK
	}
	return exitOK
}
