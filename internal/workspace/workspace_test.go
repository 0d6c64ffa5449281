package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPopulatesHostFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema/s.graphqls", `type Query { user: User } type User { id: ID! }`)
	writeFile(t, dir, "src/q.graphql", `query Q { user { id } }`)
	writeFile(t, dir, ".graphqlrc.yml", `
schema: "schema/**/*.graphqls"
documents: "src/**/*.graphql"
extensions:
  lint:
    extends: recommended
`)

	loaded, err := Load(dir, "", "", zap.NewNop(), false)
	if err != nil {
		t.Fatal(err)
	}

	snap := loaded.Host.Snapshot()
	if len(snap.SchemaFiles()) != 1 {
		t.Fatalf("expected 1 schema file, got %d", len(snap.SchemaFiles()))
	}
	if len(snap.DocumentFiles()) != 1 {
		t.Fatalf("expected 1 document file, got %d", len(snap.DocumentFiles()))
	}

	ms, err := snap.MergedSchema()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ms.Types["User"]; !ok {
		t.Fatalf("expected User type in merged schema, got %+v", ms.Types)
	}
}

func TestLoadReturnsErrorWhenProjectMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema/s.graphqls", `type Query { x: String }`)
	writeFile(t, dir, ".graphqlrc.yml", `
projects:
  api:
    schema: "schema/**/*.graphqls"
`)

	if _, err := Load(dir, "", "missing", zap.NewNop(), false); err == nil {
		t.Fatal("expected an error for an unknown project name")
	}
}

func TestLoadWithTrackingExposesLog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema/s.graphqls", `type Query { x: String }`)
	writeFile(t, dir, ".graphqlrc.yml", `schema: "schema/**/*.graphqls"`)

	loaded, err := Load(dir, "", "", zap.NewNop(), true)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Log == nil {
		t.Fatal("expected a non-nil Log when tracked=true")
	}

	checkpoint := loaded.Log.Checkpoint()
	if _, err := loaded.Host.Snapshot().MergedSchema(); err != nil {
		t.Fatal(err)
	}
	if loaded.Log.CountSince(checkpoint, "merged_schema") == 0 {
		t.Fatal("expected merged_schema to have executed at least once since checkpoint")
	}
}

func TestSchemaSourceUriDistinguishesUrlsFromPaths(t *testing.T) {
	if schemaSourceUri("https://example.com/graphql") != "https://example.com/graphql" {
		t.Fatal("expected a URL to pass through unchanged")
	}
	if schemaSourceUri("/tmp/s.graphqls") != "file:///tmp/s.graphqls" {
		t.Fatal("expected a file path to gain a file:// prefix")
	}
}
