package syntax

import (
	"testing"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

func setup(t *testing.T) (*store.Database, *filemodel.Registry, *Engine) {
	t.Helper()
	db := store.New()
	files := filemodel.NewRegistry(db)
	return db, files, New(db, files, nil)
}

func TestParseSchemaFile(t *testing.T) {
	db, files, eng := setup(t)

	var id filemodel.FileId
	db.Mutate(func(rev store.Revision) {
		id = files.Intern(rev, "file:///schema.graphqls")
		files.RegisterAsSchema(rev, id)
		files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: "file:///schema.graphqls", Kind: filemodel.SchemaGraphQL})
		files.SetText(rev, id, "type Query { hello: String }")
	})

	snap := db.Snapshot()
	ctx := snap.NewContext()
	p, err := eng.Parse(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if p.SchemaTree == nil {
		t.Fatal("expected a schema tree")
	}
	if len(p.SchemaTree.Definitions) != 1 || p.SchemaTree.Definitions[0].Name != "Query" {
		t.Fatalf("unexpected definitions: %+v", p.SchemaTree.Definitions)
	}
	if len(p.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", p.Diagnostics)
	}
}

func TestParseToleratesSyntaxError(t *testing.T) {
	db, files, eng := setup(t)

	var id filemodel.FileId
	db.Mutate(func(rev store.Revision) {
		id = files.Intern(rev, "file:///broken.graphqls")
		files.RegisterAsSchema(rev, id)
		files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: "file:///broken.graphqls", Kind: filemodel.SchemaGraphQL})
		files.SetText(rev, id, "type Query { hello: }")
	})

	snap := db.Snapshot()
	p, err := eng.Parse(snap.NewContext(), id)
	if err != nil {
		t.Fatal(err)
	}
	if p.SchemaTree == nil {
		t.Fatal("expected a non-nil tree even on syntax error")
	}
	if len(p.Diagnostics) == 0 {
		t.Fatal("expected at least one parse diagnostic")
	}
	if p.Diagnostics[0].SourceTag != "parser" {
		t.Fatalf("expected source tag 'parser', got %q", p.Diagnostics[0].SourceTag)
	}
}

func TestParseCachesAcrossUnrelatedFileEdits(t *testing.T) {
	db, files, eng := setup(t)
	log := store.NewLog()
	db.SetTracker(log)

	var idA, idB filemodel.FileId
	db.Mutate(func(rev store.Revision) {
		idA = files.Intern(rev, "file:///a.graphqls")
		files.RegisterAsSchema(rev, idA)
		files.SetMetadata(rev, idA, filemodel.FileMetadata{Uri: "file:///a.graphqls", Kind: filemodel.SchemaGraphQL})
		files.SetText(rev, idA, "type A { f: String }")

		idB = files.Intern(rev, "file:///b.graphqls")
		files.RegisterAsSchema(rev, idB)
		files.SetMetadata(rev, idB, filemodel.FileMetadata{Uri: "file:///b.graphqls", Kind: filemodel.SchemaGraphQL})
		files.SetText(rev, idB, "type B { g: String }")
	})

	snap := db.Snapshot()
	if _, err := eng.Parse(snap.NewContext(), idA); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Parse(snap.NewContext(), idB); err != nil {
		t.Fatal(err)
	}

	db.Mutate(func(rev store.Revision) {
		files.SetText(rev, idA, "type A { f: String, h: Int }")
	})

	snap2 := db.Snapshot()
	cp := log.Checkpoint()
	if _, err := eng.Parse(snap2.NewContext(), idA); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Parse(snap2.NewContext(), idB); err != nil {
		t.Fatal(err)
	}
	if n := log.CountSince(cp, "parse"); n != 1 {
		t.Fatalf("expected only file A's parse to re-execute, got %d executions", n)
	}
}

// stubExtractor is a minimal Extractor used to exercise the TS/JS
// synthetic-concatenation and position-remapping path without needing
// the real C3 extractor.
type stubExtractor struct {
	blocks []Block
}

func (s stubExtractor) Extract(uri filemodel.FileUri, content string) ([]Block, []diag.Diagnostic) {
	return s.blocks, nil
}

func TestParseRemapsPositionsThroughSyntheticConcatenation(t *testing.T) {
	db := store.New()
	files := filemodel.NewRegistry(db)

	// Original source: two tagged templates, the second containing a
	// syntax error, at known byte offsets.
	original := "const A = gql`query A { ok }`;\nconst B = gql`query B { bad: }`;\n"
	blockA := "query A { ok }"
	blockB := "query B { bad: }"
	offsetA := indexOf(original, blockA)
	offsetB := indexOf(original, blockB)

	eng := New(db, files, stubExtractor{blocks: []Block{
		{Text: blockA, SourceOffset: offsetA},
		{Text: blockB, SourceOffset: offsetB},
	}})

	var id filemodel.FileId
	db.Mutate(func(rev store.Revision) {
		id = files.Intern(rev, "file:///c.ts")
		files.RegisterAsDocument(rev, id)
		files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: "file:///c.ts", Kind: filemodel.TypeScriptLike})
		files.SetText(rev, id, original)
	})

	snap := db.Snapshot()
	p, err := eng.Parse(snap.NewContext(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Diagnostics) == 0 {
		t.Fatal("expected a diagnostic for the malformed second block")
	}
	gotLine := p.Diagnostics[0].Primary.Start.Line
	if gotLine != 1 {
		t.Fatalf("expected the diagnostic remapped to original line 1 (0-indexed), got %d", gotLine)
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
