package main

import "github.com/spf13/cobra"

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Run the linter only",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiagnosticsCommand(cmd, func(tag string) bool { return tag == "lint" })
	},
}
