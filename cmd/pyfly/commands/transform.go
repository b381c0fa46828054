package commands

import (
	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/imports"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

var transformCmd = &cobra.Command{
	Use:   "transform [files...]",
	Short: "Rewrite a dotted-name prefix across every import",
	Long: `transform runs transform_imports (spec.md §4.10): each --rule
OLD=NEW rewrites any import whose fullname starts with the OLD dotted
prefix to start with NEW instead, preserving the bound name via an
explicit "as" alias when the rewrite would otherwise change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readRunFlags(cmd, args)
		if err != nil {
			return err
		}

		ruleArgs, _ := cmd.Flags().GetStringArray("rule")
		if len(ruleArgs) == 0 {
			return usageErrorf("at least one --rule OLD=NEW is required")
		}
		rules := make([]imports.RewriteRule, 0, len(ruleArgs))
		for _, text := range ruleArgs {
			rule, err := imports.ParseRewriteRule(text)
			if err != nil {
				return usageErrorf("invalid --rule %q: %v", text, err)
			}
			rules = append(rules, rule)
		}

		settings := loadSettings()
		diags := &log.Diagnostics{}

		lastExitCode = runOverFiles(opts, diags, func(path string, text ftext.FileText) (rewrite.Outcome, error) {
			return rewrite.TransformImports(cmd.Context(), text, compilerFlags(), settings.Format, rules)
		})
		return nil
	},
}

func init() {
	bindRunFlags(transformCmd)
	transformCmd.Flags().StringArray("rule", nil, "OLD=NEW dotted-prefix rewrite rule (repeatable)")
}
