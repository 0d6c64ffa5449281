package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var deprecationsCmd = &cobra.Command{
	Use:   "deprecations",
	Short: "Report every operation still selecting a @deprecated field",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadWorkspace(cmd, false)
		if err != nil {
			os.Exit(2)
			return nil
		}

		usages, err := loaded.Host.Snapshot().DeprecatedFieldUsages()
		if err != nil {
			os.Exit(2)
			return nil
		}

		t := table.NewWriter()
		t.AppendHeader(table.Row{"operation", "field", "file", "range"})
		for _, u := range usages {
			t.AppendRow(table.Row{u.OperationName, u.FieldName, u.FileId, u.Range})
		}
		fmt.Println(t.Render())

		if len(usages) > 0 {
			os.Exit(1)
		}
		os.Exit(0)
		return nil
	},
}
