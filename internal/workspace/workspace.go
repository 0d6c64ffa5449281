// Package workspace bridges internal/config's file discovery/resolution
// to a running internal/engine.Host: given a workspace root and a
// project selector, it loads every configured schema/document file into
// a fresh Host, ready for the CLI or MCP server to snapshot and query.
// Grounded on the teacher's pkg/parser/discovery.go (glob-based file
// discovery feeding a processing pipeline), generalized here to feed
// the Host's AddFile mutator instead of the AsciiDoc generator.
package workspace

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/trevor-scheer/graphql-analyzer/internal/config"
	"github.com/trevor-scheer/graphql-analyzer/internal/engine"
	"github.com/trevor-scheer/graphql-analyzer/internal/extract"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/introspect"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// Loaded is a workspace's resolved configuration plus the Host it was
// loaded into. Log is non-nil only when Load was called with
// tracked=true (the `stats` command's C10 execution counts).
type Loaded struct {
	Host        *engine.Host
	Project     *config.Project
	ConfigPath  string
	Diagnostics []config.Diagnostic
	Log         *store.Log
}

// Load discovers a config file under workdir (or uses configPath if
// non-empty), resolves the named project's (or the default project's,
// if projectName is "") schema/document globs, and loads every matched
// file into a new Host. When tracked is true the Host is built with
// engine.WithTracking so the caller can read Loaded.Log afterward.
func Load(workdir, configPath, projectName string, logger *zap.Logger, tracked bool) (*Loaded, error) {
	if configPath == "" {
		found, ok := config.Discover(workdir)
		if !ok {
			return nil, fmt.Errorf("no .graphqlrc*/graphql.config.* file found under %s", workdir)
		}
		configPath = found
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	proj, ok := cfg.Projects[projectName]
	if !ok {
		if projectName == "" && len(cfg.Projects) == 1 {
			for _, p := range cfg.Projects {
				proj = p
			}
		} else {
			names := make([]string, 0, len(cfg.Projects))
			for n := range cfg.Projects {
				names = append(names, n)
			}
			sort.Strings(names)
			return nil, fmt.Errorf("project %q not found in %s (known projects: %v)", projectName, configPath, names)
		}
	}

	schemaFiles, documentFiles, diags := proj.Resolve(workdir)
	if len(schemaFiles) == 0 && len(documentFiles) == 0 {
		return nil, fmt.Errorf("project %q resolved to zero schema/document files", proj.Name)
	}

	x := extract.New(proj.ExtractConfig)
	opts := []engine.Option{engine.WithExtractor(x), engine.WithLogger(logger)}
	var log *store.Log
	if tracked {
		opts = append(opts, engine.WithTracking())
	}
	h := engine.New(opts...)
	if tracked {
		log = h.Log()
	}
	h.SetConfig(proj.Lint)

	for _, path := range schemaFiles {
		text, err := readSchemaSource(path)
		if err != nil {
			diags = append(diags, config.Diagnostic{Message: fmt.Sprintf("reading schema source %s: %v", path, err)})
			continue
		}
		h.AddFile(filemodel.FileUri(schemaSourceUri(path)), filemodel.SchemaGraphQL, text)
	}
	for _, path := range documentFiles {
		text, err := os.ReadFile(path)
		if err != nil {
			diags = append(diags, config.Diagnostic{Message: fmt.Sprintf("reading document file %s: %v", path, err)})
			continue
		}
		kind, ambiguous := filemodel.SniffKind(filemodel.FileUri(path))
		if ambiguous {
			kind = filemodel.ExecutableGraphQL
		}
		h.AddFile(filemodel.FileUri("file://"+path), kind, string(text))
	}

	return &Loaded{Host: h, Project: proj, ConfigPath: configPath, Diagnostics: diags, Log: log}, nil
}

// readSchemaSource reads a `schema` key entry, which spec.md §6 allows
// to be a file path, a glob match, or an HTTP(S) URL fetched by the
// introspector collaborator (config.Project.Resolve passes URLs through
// untouched rather than globbing them).
func readSchemaSource(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return introspect.Download(context.Background(), nil, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func schemaSourceUri(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return "file://" + path
}
