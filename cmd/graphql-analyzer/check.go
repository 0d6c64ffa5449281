package main

import "github.com/spf13/cobra"

// checkCmd is `validate` ∪ `lint` (spec.md §6): every diagnostic
// validateSourceTags or the lint rules would report, in one pass.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run validation and linting together",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiagnosticsCommand(cmd, func(tag string) bool {
			return validateSourceTags(tag) || tag == "lint"
		})
	},
}
