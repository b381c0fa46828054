package commands

import (
	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

var reformatCmd = &cobra.Command{
	Use:   "reformat [files...]",
	Short: "Reformat the import prologue without touching scope analysis",
	Long: `reformat runs reformat_import_statements (spec.md §4.10): it
re-sorts, groups, and re-renders the file's leading import statements
using the configured FormatParams, without resolving missing names or
removing unused ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readRunFlags(cmd, args)
		if err != nil {
			return err
		}

		settings := loadSettings()
		allowConflicts, _ := cmd.Flags().GetBool("allow-conflicts")
		diags := &log.Diagnostics{}

		lastExitCode = runOverFiles(opts, diags, func(path string, text ftext.FileText) (rewrite.Outcome, error) {
			return rewrite.ReformatImportStatements(cmd.Context(), text, compilerFlags(), settings.Format, allowConflicts)
		})
		return nil
	},
}

func init() {
	bindRunFlags(reformatCmd)
	reformatCmd.Flags().Bool("allow-conflicts", false, "tolerate more than one candidate import sharing a bound name")
}
