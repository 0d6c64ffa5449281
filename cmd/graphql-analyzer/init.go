package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Emit a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(flagWorkdir, ".graphqlrc.yml")
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "%s already exists\n", path)
			os.Exit(1)
			return nil
		}

		doc := map[string]interface{}{
			"schema":    []string{"schema/**/*.graphqls"},
			"documents": []string{"src/**/*.graphql", "src/**/*.ts", "src/**/*.tsx"},
			"extensions": map[string]interface{}{
				"lint": map[string]interface{}{
					"extends": "recommended",
				},
			},
		}

		out, err := yaml.Marshal(doc)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
			return nil
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
			return nil
		}

		fmt.Printf("wrote %s\n", path)
		os.Exit(0)
		return nil
	},
}
