package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trevor-scheer/graphql-analyzer/internal/diff"
	"github.com/trevor-scheer/graphql-analyzer/internal/engine"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema structural diff and introspection download",
}

var schemaDiffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Structural diff; categorize each change as breaking / dangerous / safe",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldSchema, err := loadStandaloneSchema(args[0])
		if err != nil {
			os.Exit(2)
			return nil
		}
		newSchema, err := loadStandaloneSchema(args[1])
		if err != nil {
			os.Exit(2)
			return nil
		}

		report := diff.Diff(oldSchema, newSchema)
		for _, c := range report.Changes {
			fmt.Printf("%s: %s\n", c.Severity, c.Message)
		}

		switch report.Worst {
		case diff.Breaking:
			os.Exit(2)
		case diff.Dangerous:
			os.Exit(1)
		default:
			os.Exit(0)
		}
		return nil
	},
}

var schemaDownloadCmd = &cobra.Command{
	Use:   "download URL",
	Short: "Delegate to the introspector, write SDL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sdl, err := introspectSDL(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
			return nil
		}
		fmt.Println(sdl)
		os.Exit(0)
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaDiffCmd, schemaDownloadCmd)
}

// loadStandaloneSchema reads a single SDL file outside of any workspace
// config — `schema diff` compares two arbitrary files named on the
// command line, not a configured project.
func loadStandaloneSchema(path string) (hir.MergedSchema, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return hir.MergedSchema{}, fmt.Errorf("reading %s: %w", path, err)
	}
	h := engine.New()
	h.AddFile(filemodel.FileUri("file://"+path), filemodel.SchemaGraphQL, string(text))
	return h.Snapshot().MergedSchema()
}
