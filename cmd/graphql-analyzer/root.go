// Command graphql-analyzer is the batch CLI collaborator spec.md §6
// describes: validate/lint/check over a workspace's configured schema
// and documents, schema diffing/downloading, and derived reports
// (stats/coverage/deprecations), each reporting through the shared
// exit-code scheme (0 clean, 1 diagnostics/dangerous, 2 config-error/
// breaking). Grounded on codeNERD's cmd/nerd/main.go: a cobra rootCmd
// with persistent flags, a PersistentPreRunE that builds a zap logger
// (raised to debug under --verbose) and hands it down via the command
// context rather than a package global.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trevor-scheer/graphql-analyzer/internal/workspace"
)

var (
	flagProject     string
	flagSyntaxOnly  bool
	flagWatch       bool
	flagVerbose     bool
	flagConfigPath  string
	flagWorkdir     string
)

type loggerKey struct{}

func loggerFromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

var rootCmd = &cobra.Command{
	Use:   "graphql-analyzer",
	Short: "Incremental validation, linting and reporting for GraphQL workspaces",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if flagVerbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "select a named project from a multi-project config")
	rootCmd.PersistentFlags().BoolVar(&flagSyntaxOnly, "syntax-only", false, "skip schema validation, parse only")
	rootCmd.PersistentFlags().BoolVar(&flagWatch, "watch", false, "stay running, re-checking on file changes (debounced ~100ms)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "raise log level to debug")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a .graphqlrc*/graphql.config.* file (default: discover under workdir)")
	rootCmd.PersistentFlags().StringVar(&flagWorkdir, "workdir", ".", "workspace root to discover configuration under")

	rootCmd.AddCommand(validateCmd, lintCmd, checkCmd, schemaCmd, initCmd, statsCmd, coverageCmd, deprecationsCmd)
}

// loadWorkspace is the shared "load project" helper every report/check
// subcommand starts from: discover config, resolve globs, populate a
// Host. withTracking is set by stats, which needs C10's execution log.
func loadWorkspace(cmd *cobra.Command, withTracking bool) (*workspace.Loaded, error) {
	logger := loggerFromContext(cmd.Context())
	loaded, err := workspace.Load(flagWorkdir, flagConfigPath, flagProject, logger, withTracking)
	if err != nil {
		return nil, err
	}
	for _, d := range loaded.Diagnostics {
		fmt.Fprintf(os.Stderr, "config: %s\n", d.Message)
	}
	return loaded, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
