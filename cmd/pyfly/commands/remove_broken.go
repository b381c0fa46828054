package commands

import (
	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

var removeBrokenCmd = &cobra.Command{
	Use:   "remove-broken [files...]",
	Short: "Drop imports the import probe rejects",
	Long: `remove-broken runs remove_broken_imports (spec.md §4.10): every
import the configured probe reports as unresolvable is dropped. With
the default null probe, every import resolves and this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readRunFlags(cmd, args)
		if err != nil {
			return err
		}

		settings := loadSettings()
		resolver, err := resolveProbe(settings)
		if err != nil {
			return err
		}
		diags := &log.Diagnostics{}

		lastExitCode = runOverFiles(opts, diags, func(path string, text ftext.FileText) (rewrite.Outcome, error) {
			return rewrite.RemoveBrokenImports(cmd.Context(), text, compilerFlags(), settings.Format, resolver)
		})
		return nil
	},
}

func init() {
	bindRunFlags(removeBrokenCmd)
}
