package filemodel

import (
	"testing"

	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

func TestInternIsStableAndDeduplicates(t *testing.T) {
	db := store.New()
	reg := NewRegistry(db)

	var id1, id2, id3 FileId
	db.Mutate(func(rev store.Revision) {
		id1 = reg.Intern(rev, "file:///a.graphql")
		id2 = reg.Intern(rev, "file:///b.graphql")
		id3 = reg.Intern(rev, "file:///a.graphql")
	})

	if id1 != id3 {
		t.Fatalf("expected re-interning the same uri to return the same id: %v != %v", id1, id3)
	}
	if id1 == id2 {
		t.Fatalf("expected distinct uris to get distinct ids")
	}
}

func TestSchemaAndDocumentSetsAreDisjoint(t *testing.T) {
	db := store.New()
	reg := NewRegistry(db)

	var id FileId
	db.Mutate(func(rev store.Revision) {
		id = reg.Intern(rev, "file:///schema.graphql")
		reg.RegisterAsDocument(rev, id)
	})

	snap := db.Snapshot()
	ctx := snap.NewContext()
	docs := reg.DocumentFiles(ctx)
	if len(docs) != 1 || docs[0] != id {
		t.Fatalf("expected id in document set, got %v", docs)
	}

	db.Mutate(func(rev store.Revision) {
		reg.RegisterAsSchema(rev, id)
	})

	snap2 := db.Snapshot()
	ctx2 := snap2.NewContext()
	if docs := reg.DocumentFiles(ctx2); len(docs) != 0 {
		t.Fatalf("expected id removed from document set after RegisterAsSchema, got %v", docs)
	}
	schemas := reg.SchemaFiles(ctx2)
	if len(schemas) != 1 || schemas[0] != id {
		t.Fatalf("expected id in schema set, got %v", schemas)
	}
}

// TestTextEditDoesNotInvalidateOtherFiles is the direct test of spec.md
// §3's "critical design decision": editing one file's text must not
// change the identity of the registry's own Input, so a query
// parameterized on a different, unrelated file stays a cache hit.
func TestTextEditDoesNotInvalidateOtherFiles(t *testing.T) {
	db := store.New()
	log := store.NewLog()
	db.SetTracker(log)
	reg := NewRegistry(db)

	var idA, idB FileId
	db.Mutate(func(rev store.Revision) {
		idA = reg.Intern(rev, "file:///a.graphql")
		idB = reg.Intern(rev, "file:///b.graphql")
		reg.RegisterAsSchema(rev, idA)
		reg.RegisterAsSchema(rev, idB)
		reg.SetText(rev, idA, "type A { f: String }")
		reg.SetText(rev, idB, "type B { g: String }")
	})

	lenOf := store.New(db, "content_len", func(ctx *store.Context, id FileId) (int, error) {
		c, _ := reg.Content(ctx, id)
		return len(c), nil
	}, store.DeepEqual[int])

	snap := db.Snapshot()
	ctx := snap.NewContext()
	if _, err := lenOf.Get(ctx, idA); err != nil {
		t.Fatal(err)
	}
	if _, err := lenOf.Get(ctx, idB); err != nil {
		t.Fatal(err)
	}

	db.Mutate(func(rev store.Revision) {
		reg.SetText(rev, idA, "type A { f: String, h: Int }")
	})

	snap2 := db.Snapshot()
	ctx2 := snap2.NewContext()

	cp := log.Checkpoint()
	if _, err := lenOf.Get(ctx2, idA); err != nil {
		t.Fatal(err)
	}
	if _, err := lenOf.Get(ctx2, idB); err != nil {
		t.Fatal(err)
	}
	if n := log.CountSince(cp, "content_len"); n != 1 {
		t.Fatalf("expected exactly one re-execution (file A only), got %d", n)
	}
}

func TestSniffKind(t *testing.T) {
	tests := []struct {
		uri           FileUri
		wantKind      FileKind
		wantAmbiguous bool
	}{
		{"a.ts", TypeScriptLike, false},
		{"a.tsx", TypeScriptLike, false},
		{"a.js", JavaScriptLike, false},
		{"a.mjs", JavaScriptLike, false},
		{"a.graphql", KindUnknown, true},
		{"a.graphqls", KindUnknown, true},
		{"a.gql", KindUnknown, true},
		{"a.txt", KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.uri), func(t *testing.T) {
			kind, ambiguous := SniffKind(tt.uri)
			if kind != tt.wantKind || ambiguous != tt.wantAmbiguous {
				t.Fatalf("SniffKind(%q) = (%v, %v), want (%v, %v)", tt.uri, kind, ambiguous, tt.wantKind, tt.wantAmbiguous)
			}
		})
	}
}
