package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assetbind/assetbind/internal/generator"
)

// newGenerateCommand represents the generate command.
func newGenerateCommand(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate embed bindings from the manifest and asset tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd, check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Fail if the generated file is out of date instead of writing it")
	cmd.Flags().StringP("output", "o", "", "Generated file (default embedded.go)")
	cmd.Flags().String("package", "", "Package clause of the generated file (default main)")
	return cmd
}

// runGenerate executes the code generation pipeline with the loaded
// configuration and prints a one-line summary.
//
// Returns:
//   - error: An error if generation fails at any step, or a
//     *generator.StaleError in check mode.
func (a *app) runGenerate(cmd *cobra.Command, check bool) error {
	w := cmd.OutOrStdout()

	res, err := generator.Generate(cmd.Context(), a.fs, a.cfg, generator.Options{Check: check})
	if err != nil {
		var stale *generator.StaleError
		if errors.As(err, &stale) {
			printError(w, "stale", stale.Path)
		}
		return err
	}

	summary := fmt.Sprintf("%s (%d entities, %d configs, %d images)", res.Output, res.Entities, res.Configs, res.Images)
	switch {
	case check:
		printSuccess(w, "up to date", summary)
	case res.Changed:
		printSuccess(w, "generated", summary)
	default:
		printSuccess(w, "unchanged", summary)
	}
	return nil
}
