package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is pyfly's base command: import maintenance for the target
// language, one subcommand per rewriter primitive.
var RootCmd = &cobra.Command{
	Use:   "pyfly",
	Short: "pyfly - automatic import statement maintenance",
	Long: `pyfly tidies, reformats, and rewrites import statements.

Commands:
  tidy           Reformat, resolve missing names, and drop unused imports
  reformat       Reformat the import prologue only
  transform      Rewrite a dotted-name prefix across all imports
  canonicalize   Apply the ImportDB's canonical_imports rewrites
  replace-star   Expand "from M import *" into an explicit name list
  remove-broken  Drop imports an import probe rejects
  collect        Run tidy over every source file under a directory
  find-bad-doc-xrefs  Find docstring cross-references that don't resolve

Use "pyfly [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs RootCmd and returns the process exit code (spec.md
// §4.16): 0 on success, 1 on a fatal error, 2 on a usage error, and 100
// when the run produced no changes but did emit diagnostics.
func Execute() int {
	lastExitCode = exitOK
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pyfly:", err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitFatal
	}
	return lastExitCode
}

func init() {
	RootCmd.AddCommand(tidyCmd)
	RootCmd.AddCommand(reformatCmd)
	RootCmd.AddCommand(transformCmd)
	RootCmd.AddCommand(canonicalizeCmd)
	RootCmd.AddCommand(replaceStarCmd)
	RootCmd.AddCommand(removeBrokenCmd)
	RootCmd.AddCommand(collectCmd)
	RootCmd.AddCommand(docXrefCmd)
}
