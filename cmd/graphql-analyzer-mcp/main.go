// Command graphql-analyzer-mcp is the AI-agent tool server collaborator
// spec.md §6 describes: list_projects/load_project/validate_document/
// lint_document/get_project_diagnostics, each returning a JSON payload.
// Grounded on ternarybob-quaero's cmd/quaero-mcp (server.NewMCPServer,
// mcp.NewTool/mcp.WithString/mcp.Required, server.ToolHandlerFunc,
// server.ServeStdio), generalized here from Quaero's search-document
// domain to this project's schema/document-validation domain.
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/trevor-scheer/graphql-analyzer/internal/config"
	"github.com/trevor-scheer/graphql-analyzer/internal/workspace"
)

// registry tracks every project known from the discovered config plus
// which ones have actually been loaded into a Host — load_project is
// explicit and lazy, matching the tool payload's `{success, project,
// message}` shape (a caller must load before validating).
type registry struct {
	mu      sync.Mutex
	workdir string
	cfgPath string
	logger  *zap.Logger
	cfg     *config.Config
	loaded  map[string]*workspace.Loaded
}

func newRegistry(workdir, cfgPath string, logger *zap.Logger) *registry {
	return &registry{workdir: workdir, cfgPath: cfgPath, logger: logger, loaded: map[string]*workspace.Loaded{}}
}

func (r *registry) ensureConfig() error {
	if r.cfg != nil {
		return nil
	}
	path := r.cfgPath
	if path == "" {
		found, ok := config.Discover(r.workdir)
		if !ok {
			return fmt.Errorf("no config file found under %s", r.workdir)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

func (r *registry) listProjects() ([]map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureConfig(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(r.cfg.Projects))
	for name := range r.cfg.Projects {
		names = append(names, name)
	}
	out := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		_, isLoaded := r.loaded[name]
		out = append(out, map[string]interface{}{"name": name, "is_loaded": isLoaded})
	}
	return out, nil
}

func (r *registry) load(name string) (*workspace.Loaded, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loaded[name]; ok {
		return l, nil
	}
	l, err := workspace.Load(r.workdir, r.cfgPath, name, r.logger, false)
	if err != nil {
		return nil, err
	}
	r.loaded[name] = l
	return l, nil
}

func (r *registry) get(name string) (*workspace.Loaded, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loaded[name]
	return l, ok
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	workdir, _ := os.Getwd()
	reg := newRegistry(workdir, os.Getenv("GRAPHQL_ANALYZER_CONFIG"), logger)

	mcpServer := server.NewMCPServer(
		"graphql-analyzer",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(listProjectsTool(), handleListProjects(reg))
	mcpServer.AddTool(loadProjectTool(), handleLoadProject(reg))
	mcpServer.AddTool(validateDocumentTool(), handleValidateDocument(reg))
	mcpServer.AddTool(lintDocumentTool(), handleLintDocument(reg))
	mcpServer.AddTool(getProjectDiagnosticsTool(), handleGetProjectDiagnostics(reg))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("mcp server exited", zap.Error(err))
		os.Exit(1)
	}
}
