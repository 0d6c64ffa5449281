package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run spec validation over configured documents + schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiagnosticsCommand(cmd, validateSourceTags)
	},
}

// validateSourceTags keeps parser diagnostics always, and schema
// validator diagnostics unless --syntax-only asked to skip them
// (spec.md §6 "--syntax-only: skip schema validation").
func validateSourceTags(tag string) bool {
	switch tag {
	case "parser":
		return true
	case "validator":
		return !flagSyntaxOnly
	default:
		return false
	}
}

func runDiagnosticsCommand(cmd *cobra.Command, keep func(string) bool) error {
	loaded, err := loadWorkspace(cmd, false)
	if err != nil {
		os.Exit(2)
		return nil
	}

	run := func() int {
		snap := loaded.Host.Snapshot()
		diags, err := collectDiagnostics(snap, keep)
		if err != nil {
			loaded.Host.Logger().Error("collect_diagnostics_failed", zap.Error(err))
			return 2
		}
		printDiagnostics(diags)
		return diagnosticsExitCode(diags)
	}

	if flagWatch {
		return watchAndRerun(cmd, loaded, run)
	}
	os.Exit(run())
	return nil
}
