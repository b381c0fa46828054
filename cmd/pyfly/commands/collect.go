package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/internal/scanner"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/rewrite"
)

var collectCmd = &cobra.Command{
	Use:   "collect [directory]",
	Short: "Run tidy over every source file under a directory",
	Long: `collect walks directory (default ".") with the same
.pyflybyignore-aware scanner the ImportDB uses for its own directory
roots, then runs tidy_imports over every discovered file in sorted
order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}

		diff, _ := cmd.Flags().GetBool("diff")
		inPlace, _ := cmd.Flags().GetBool("in-place")
		prompt, _ := cmd.Flags().GetBool("prompt")
		db, _ := cmd.Flags().GetStringSlice("db")
		if prompt {
			inPlace = true
		}
		if diff && inPlace {
			return usageErrorf("--diff and --in-place are mutually exclusive")
		}

		files, err := scanner.Scan(root)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}

		spinner := log.NewProgressSpinner(fmt.Sprintf("tidying %d files", len(files)))
		spinner.Start()
		defer spinner.Stop()

		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.FullPath
		}
		opts := runOptions{diff: diff, inPlace: inPlace, prompt: prompt, dbPath: db, files: paths}

		settings := loadSettings()
		diags := &log.Diagnostics{}

		lastExitCode = runOverFiles(opts, diags, func(path string, text ftext.FileText) (rewrite.Outcome, error) {
			spinner.Message(fmt.Sprintf("tidying %s", path))
			importDB, err := buildDB(path, opts, settings, diags)
			if err != nil {
				return rewrite.Outcome{}, err
			}
			return rewrite.TidyImports(cmd.Context(), text, compilerFlags(), settings.Format, importDB, diags, path)
		})
		return nil
	},
}

func init() {
	bindRunFlags(collectCmd)
}
