package main

import "github.com/mark3labs/mcp-go/mcp"

func listProjectsTool() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List every project the discovered workspace config declares, and whether it is currently loaded"),
	)
}

func loadProjectTool() mcp.Tool {
	return mcp.NewTool("load_project",
		mcp.WithDescription("Load a project's schema and document files into the engine"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name (\"\" for a single-project workspace)"),
		),
	)
}

func validateDocumentTool() mcp.Tool {
	return mcp.NewTool("validate_document",
		mcp.WithDescription("Validate an ad-hoc GraphQL document against a loaded project's schema"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name; must already be loaded via load_project"),
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("GraphQL document source text"),
		),
	)
}

func lintDocumentTool() mcp.Tool {
	return mcp.NewTool("lint_document",
		mcp.WithDescription("Lint an ad-hoc GraphQL document against a loaded project's lint configuration"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name; must already be loaded via load_project"),
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("GraphQL document source text"),
		),
	)
}

func getProjectDiagnosticsTool() mcp.Tool {
	return mcp.NewTool("get_project_diagnostics",
		mcp.WithDescription("Return every diagnostic across every file in a loaded project"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name; must already be loaded via load_project"),
		),
	)
}
