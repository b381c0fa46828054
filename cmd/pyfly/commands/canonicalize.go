package commands

import (
	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

var canonicalizeCmd = &cobra.Command{
	Use:   "canonicalize [files...]",
	Short: "Apply the ImportDB's canonical_imports rewrites",
	Long: `canonicalize runs canonicalize_imports (spec.md §4.10): it looks
up the ImportDB's canonical_imports map and rewrites every import
matching an OLD prefix to NEW, the same dotted-prefix rewrite transform
performs with an explicit rule list.`,
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
			return rewrite.CanonicalizeImports(cmd.Context(), text, compilerFlags(), settings.Format, db)
		})
		return nil
	},
}

func init() {
	bindRunFlags(canonicalizeCmd)
}
