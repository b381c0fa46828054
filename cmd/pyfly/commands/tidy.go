package commands

import (
	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

var tidyCmd = &cobra.Command{
	Use:   "tidy [files...]",
	Short: "Reformat imports, resolve missing names, and drop unused ones",
	Long: `tidy runs the full tidy_imports pipeline (spec.md §4.10) over each
file: reformat the import prologue, resolve free names against the
ImportDB's known_imports, remove imports that are never read (unless
marked "# noqa"), add mandatory_imports, and apply canonical_imports
rewrites.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readRunFlags(cmd, args)
		if err != nil {
			return err
		}

		settings := loadSettings()
		diags := &log.Diagnostics{}

		lastExitCode = runOverFiles(opts, diags, func(path string, text ftext.FileText) (rewrite.Outcome, error) {
			db, err := buildDB(path, opts, settings, diags)
			if err != nil {
				return rewrite.Outcome{}, err
			}
			return rewrite.TidyImports(cmd.Context(), text, compilerFlags(), settings.Format, db, diags, path)
		})
		return nil
	},
}

func init() {
	bindRunFlags(tidyCmd)
}
