package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDiscoverFindsFirstCandidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".graphqlrc.yaml", "schema: schema.graphql\n")

	path, ok := Discover(dir)
	if !ok {
		t.Fatal("expected Discover to find .graphqlrc.yaml")
	}
	if filepath.Base(path) != ".graphqlrc.yaml" {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestDiscoverReturnsFalseWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Discover(dir); ok {
		t.Fatal("expected Discover to report no config file present")
	}
}

func TestLoadSingleProjectYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".graphqlrc.yaml", `
schema: schema.graphqls
documents:
  - "**/*.graphql"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := cfg.Projects[""]
	if !ok {
		t.Fatal("expected an implicit default project")
	}
	if len(p.SchemaPatterns) != 1 || p.SchemaPatterns[0] != "schema.graphqls" {
		t.Fatalf("unexpected schema patterns: %+v", p.SchemaPatterns)
	}
	if len(p.DocumentGlobs) != 1 || p.DocumentGlobs[0] != "**/*.graphql" {
		t.Fatalf("unexpected document globs: %+v", p.DocumentGlobs)
	}
}

func TestLoadSingleProjectJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "graphql.config.json", `{
		"schema": "schema.graphqls",
		"documents": ["a.graphql", "b.graphql"]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Projects[""]
	if len(p.DocumentGlobs) != 2 {
		t.Fatalf("expected 2 document globs, got %+v", p.DocumentGlobs)
	}
}

func TestLoadMultiProject(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".graphqlrc.yaml", `
projects:
  admin:
    schema: admin/schema.graphqls
    documents: admin/**/*.graphql
  storefront:
    schema: storefront/schema.graphqls
    documents: storefront/**/*.graphql
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(cfg.Projects))
	}
	if _, ok := cfg.Projects["admin"]; !ok {
		t.Fatal("expected an admin project")
	}
	if _, ok := cfg.Projects["storefront"]; !ok {
		t.Fatal("expected a storefront project")
	}
}

func TestLoadLintExtensionAppliesStrictExtends(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".graphqlrc.yaml", `
schema: schema.graphqls
extensions:
  lint:
    extends: strict
    rules:
      no-anonymous-operations: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Projects[""]
	if p.Lint.Extends != "strict" {
		t.Fatalf("expected strict lint preset, got %q", p.Lint.Extends)
	}
	if on, ok := p.Lint.Overrides["no-anonymous-operations"]; !ok || on {
		t.Fatalf("expected no-anonymous-operations override to be false, got %v/%v", on, ok)
	}
}

func TestLoadExtractConfigExtensionOverridesTagIdentifiers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".graphqlrc.yaml", `
schema: schema.graphqls
extensions:
  extractConfig:
    tagIdentifiers:
      - gqlTag
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Projects[""]
	if !p.HasExtractOverlay {
		t.Fatal("expected HasExtractOverlay to be true")
	}
	if _, ok := p.ExtractConfig.TagIdentifiers["gqlTag"]; !ok {
		t.Fatalf("expected gqlTag in TagIdentifiers, got %+v", p.ExtractConfig.TagIdentifiers)
	}
}

func TestResolveFlagsUnmatchedPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.graphqls", "type Query { x: String }")

	p := &Project{SchemaPatterns: []string{"schema.graphqls"}, DocumentGlobs: []string{"*.graphql"}}
	schemaFiles, documentFiles, diags := p.Resolve(dir)

	if len(schemaFiles) != 1 {
		t.Fatalf("expected 1 resolved schema file, got %+v", schemaFiles)
	}
	if len(documentFiles) != 0 {
		t.Fatalf("expected 0 resolved document files, got %+v", documentFiles)
	}
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics for the unmatched documents pattern (per-pattern plus summary), got %+v", diags)
	}
}

func TestResolvePassesThroughSchemaURL(t *testing.T) {
	dir := t.TempDir()
	p := &Project{SchemaPatterns: []string{"https://api.example.com/graphql"}}
	schemaFiles, _, diags := p.Resolve(dir)

	if len(schemaFiles) != 1 || schemaFiles[0] != "https://api.example.com/graphql" {
		t.Fatalf("expected the URL to pass through untouched, got %+v", schemaFiles)
	}
	if len(diags) != 0 {
		t.Fatalf("did not expect a diagnostic for a URL schema entry, got %+v", diags)
	}
}
