package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/trevor-scheer/graphql-analyzer/internal/engine"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// statsCmd reports per-query execution counts (C10, spec.md §4.10) for
// one full load-and-check pass, the same counters the golden-invariant
// tests assert on, surfaced as a human-readable table instead of an
// in-process assertion.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report file counts and per-query execution counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadWorkspace(cmd, true)
		if err != nil {
			os.Exit(2)
			return nil
		}

		snap := loaded.Host.Snapshot()
		checkpoint := loaded.Log.Checkpoint()
		if _, err := snap.MergedSchema(); err != nil {
			os.Exit(2)
			return nil
		}
		if _, err := collectDiagnostics(snap, func(string) bool { return true }); err != nil {
			os.Exit(2)
			return nil
		}

		fmt.Println(summaryTable(snap))
		fmt.Println()
		fmt.Println(queryCountTable(loaded.Log, checkpoint))

		os.Exit(0)
		return nil
	},
}

func summaryTable(snap *engine.Snapshot) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"metric", "count"})
	t.AppendRow(table.Row{"schema files", len(snap.SchemaFiles())})
	t.AppendRow(table.Row{"document files", len(snap.DocumentFiles())})

	ops, _ := snap.AllOperations()
	t.AppendRow(table.Row{"operations", len(ops)})

	frags, _ := snap.AllFragments()
	t.AppendRow(table.Row{"fragments", len(frags)})
	return t.Render()
}

func queryCountTable(log *store.Log, checkpoint int) string {
	counts := map[string]int{}
	for _, ev := range log.Events(checkpoint) {
		counts[ev.Query]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"query", "executions since checkpoint"})
	for _, name := range names {
		t.AppendRow(table.Row{name, counts[name]})
	}
	return t.Render()
}
