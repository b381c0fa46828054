package commands

import (
	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

var replaceStarCmd = &cobra.Command{
	Use:   "replace-star [files...]",
	Short: `Expand "from M import *" into an explicit name list`,
	Long: `replace-star runs replace_star_imports (spec.md §4.10): each
wildcard import is resolved through the configured import probe and
replaced with an explicit name list, wrapped per the configured format
settings. A wildcard the probe cannot resolve is left untouched and
produces a diagnostic.`,
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
			return rewrite.ReplaceStarImports(cmd.Context(), text, compilerFlags(), settings.Format, resolver, diags, path)
		})
		return nil
	},
}

func init() {
	bindRunFlags(replaceStarCmd)
}
