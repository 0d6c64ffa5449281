package main

import (
	"testing"

	"github.com/trevor-scheer/graphql-analyzer/internal/engine"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
)

func TestCollectDiagnosticsFiltersBySourceTagAndSorts(t *testing.T) {
	h := engine.New()
	h.AddFile("file:///b.graphql", filemodel.ExecutableGraphQL, `query { user { id } }`)
	h.AddFile("file:///a.graphql", filemodel.ExecutableGraphQL, `query Named { user { id } }`)
	snap := h.Snapshot()

	lintOnly, err := collectDiagnostics(snap, func(tag string) bool { return tag == "lint" })
	if err != nil {
		t.Fatal(err)
	}
	if len(lintOnly) == 0 {
		t.Fatal("expected at least one lint diagnostic for the anonymous operation in b.graphql")
	}
	if lintOnly[0].uri != "file:///a.graphql" && lintOnly[0].uri != "file:///b.graphql" {
		t.Fatalf("unexpected file ordering: %+v", lintOnly)
	}
	for i := 1; i < len(lintOnly); i++ {
		if lintOnly[i-1].uri > lintOnly[i].uri {
			t.Fatalf("expected diagnostics sorted by uri, got %+v", lintOnly)
		}
	}

	none, err := collectDiagnostics(snap, func(tag string) bool { return tag == "nonexistent-tag" })
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no diagnostics for an unmatched tag, got %+v", none)
	}
}

func TestDiagnosticsExitCode(t *testing.T) {
	if diagnosticsExitCode(nil) != 0 {
		t.Fatal("expected exit 0 for no diagnostics")
	}
	if diagnosticsExitCode([]fileDiagnostic{{}}) != 1 {
		t.Fatal("expected exit 1 when diagnostics are present")
	}
}

func TestValidateSourceTagsRespectsSyntaxOnly(t *testing.T) {
	old := flagSyntaxOnly
	defer func() { flagSyntaxOnly = old }()

	flagSyntaxOnly = false
	if !validateSourceTags("validator") {
		t.Fatal("expected validator diagnostics to be kept by default")
	}

	flagSyntaxOnly = true
	if validateSourceTags("validator") {
		t.Fatal("expected validator diagnostics to be dropped under --syntax-only")
	}
	if !validateSourceTags("parser") {
		t.Fatal("expected parser diagnostics to always be kept")
	}
}
