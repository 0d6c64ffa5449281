package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
)

var scratchCounter int64

func textResult(payload interface{}) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(body))}}, nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("error: %v", err))}}, nil
}

func handleListProjects(reg *registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projects, err := reg.listProjects()
		if err != nil {
			return errorResult(err)
		}
		return textResult(projects)
	}
}

func handleLoadProject(reg *registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("project")
		if err != nil {
			return errorResult(err)
		}
		if _, err := reg.load(name); err != nil {
			return textResult(map[string]interface{}{
				"success": false,
				"project": name,
				"message": err.Error(),
			})
		}
		return textResult(map[string]interface{}{
			"success": true,
			"project": name,
			"message": "loaded",
		})
	}
}

// diagnosticJSON renders diag.Diagnostic values the way every MCP
// payload in spec.md §6's table reports them: plain structs ready for
// json.Marshal, not the engine's internal diag.Range/Position types
// verbatim (those still marshal fine, but flattened fields are easier
// for an agent caller to consume).
func diagnosticJSON(d diag.Diagnostic) map[string]interface{} {
	return map[string]interface{}{
		"severity":  d.Severity.String(),
		"message":   d.Message,
		"source":    d.SourceTag,
		"rule_code": d.RuleCode,
		"range":     d.Primary.String(),
	}
}

func handleValidateDocument(reg *registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("project")
		if err != nil {
			return errorResult(err)
		}
		document, err := request.RequireString("document")
		if err != nil {
			return errorResult(err)
		}

		diags, err := runScratchDocument(reg, name, document, func(tag string) bool {
			return tag == "parser" || tag == "validator"
		})
		if err != nil {
			return errorResult(err)
		}

		errCount, warnCount := 0, 0
		payload := make([]map[string]interface{}, 0, len(diags))
		for _, d := range diags {
			switch d.Severity {
			case diag.Error:
				errCount++
			case diag.Warning:
				warnCount++
			}
			payload = append(payload, diagnosticJSON(d))
		}
		return textResult(map[string]interface{}{
			"valid":         errCount == 0,
			"error_count":   errCount,
			"warning_count": warnCount,
			"diagnostics":   payload,
		})
	}
}

func handleLintDocument(reg *registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("project")
		if err != nil {
			return errorResult(err)
		}
		document, err := request.RequireString("document")
		if err != nil {
			return errorResult(err)
		}

		diags, err := runScratchDocument(reg, name, document, func(tag string) bool { return tag == "lint" })
		if err != nil {
			return errorResult(err)
		}

		fixable := 0 // no auto-fix machinery exists yet; always 0, never fabricated.
		payload := make([]map[string]interface{}, 0, len(diags))
		for _, d := range diags {
			payload = append(payload, diagnosticJSON(d))
		}
		return textResult(map[string]interface{}{
			"issue_count":   len(diags),
			"fixable_count": fixable,
			"diagnostics":   payload,
		})
	}
}

func handleGetProjectDiagnostics(reg *registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("project")
		if err != nil {
			return errorResult(err)
		}
		loaded, ok := reg.get(name)
		if !ok {
			return errorResult(fmt.Errorf("project %q is not loaded; call load_project first", name))
		}

		snap := loaded.Host.Snapshot()
		ids := append(append([]filemodel.FileId{}, snap.SchemaFiles()...), snap.DocumentFiles()...)

		type fileReport struct {
			File        string                   `json:"file"`
			Diagnostics []map[string]interface{} `json:"diagnostics"`
		}
		files := make([]fileReport, 0, len(ids))
		total := 0
		for _, id := range ids {
			uri, ok := snap.Uri(id)
			if !ok {
				continue
			}
			diags, err := snap.Diagnostics(uri)
			if err != nil {
				return errorResult(err)
			}
			if len(diags) == 0 {
				continue
			}
			payload := make([]map[string]interface{}, 0, len(diags))
			for _, d := range diags {
				payload = append(payload, diagnosticJSON(d))
			}
			files = append(files, fileReport{File: string(uri), Diagnostics: payload})
			total += len(diags)
		}

		return textResult(map[string]interface{}{
			"project":     name,
			"total_count": total,
			"file_count":  len(files),
			"files":       files,
		})
	}
}

// runScratchDocument loads document as a throwaway file in the named
// project's already-loaded Host, collects diagnostics passing keep, and
// removes the file again so repeated validate_document/lint_document
// calls never leak scratch entries into the project's file sets.
func runScratchDocument(reg *registry, project, document string, keep func(string) bool) ([]diag.Diagnostic, error) {
	loaded, ok := reg.get(project)
	if !ok {
		return nil, fmt.Errorf("project %q is not loaded; call load_project first", project)
	}

	n := atomic.AddInt64(&scratchCounter, 1)
	uri := filemodel.FileUri(fmt.Sprintf("mcp-scratch://%d.graphql", n))
	id := loaded.Host.AddFile(uri, filemodel.ExecutableGraphQL, document)
	defer loaded.Host.RemoveFile(id)

	snap := loaded.Host.Snapshot()
	diags, err := snap.Diagnostics(uri)
	if err != nil {
		return nil, err
	}

	out := make([]diag.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if keep == nil || keep(d.SourceTag) {
			out = append(out, d)
		}
	}
	return out, nil
}
