package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Report which schema fields are reached by any configured operation",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadWorkspace(cmd, false)
		if err != nil {
			os.Exit(2)
			return nil
		}

		report, err := loaded.Host.Snapshot().SchemaCoverage()
		if err != nil {
			os.Exit(2)
			return nil
		}

		t := table.NewWriter()
		t.AppendHeader(table.Row{"type", "field", "used"})
		for _, fc := range report.Fields {
			t.AppendRow(table.Row{fc.TypeName, fc.FieldName, fc.Used})
		}
		fmt.Println(t.Render())
		fmt.Printf("%d/%d fields used\n", report.UsedFields, report.TotalFields)

		os.Exit(0)
		return nil
	},
}
