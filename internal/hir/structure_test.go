package hir

import (
	"testing"

	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

func setup(t *testing.T) (*store.Database, *filemodel.Registry, *syntax.Engine, *Engine) {
	t.Helper()
	db := store.New()
	files := filemodel.NewRegistry(db)
	syn := syntax.New(db, files, nil)
	return db, files, syn, New(db, files, syn)
}

func addSchemaFile(t *testing.T, db *store.Database, files *filemodel.Registry, uri filemodel.FileUri, text string) filemodel.FileId {
	t.Helper()
	var id filemodel.FileId
	db.Mutate(func(rev store.Revision) {
		id = files.Intern(rev, uri)
		files.RegisterAsSchema(rev, id)
		files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: uri, Kind: filemodel.SchemaGraphQL})
		files.SetText(rev, id, text)
	})
	return id
}

func addDocumentFile(t *testing.T, db *store.Database, files *filemodel.Registry, uri filemodel.FileUri, text string) filemodel.FileId {
	t.Helper()
	var id filemodel.FileId
	db.Mutate(func(rev store.Revision) {
		id = files.Intern(rev, uri)
		files.RegisterAsDocument(rev, id)
		files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: uri, Kind: filemodel.ExecutableGraphQL})
		files.SetText(rev, id, text)
	})
	return id
}

func TestFileTypeDefsCapturesFieldSignatures(t *testing.T) {
	db, files, _, eng := setup(t)
	id := addSchemaFile(t, db, files, "file:///s.graphqls", `
		type Query {
			user(id: ID!): User
		}
		type User {
			id: ID!
			name: String
		}
	`)

	ctx := db.Snapshot().NewContext()
	defs, err := eng.FileTypeDefs(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 type defs, got %d", len(defs))
	}
	var query TypeDef
	for _, d := range defs {
		if d.Name == "Query" {
			query = d
		}
	}
	if len(query.Fields) != 1 || query.Fields[0].Name != "user" {
		t.Fatalf("unexpected Query fields: %+v", query.Fields)
	}
	if len(query.Fields[0].Args) != 1 || query.Fields[0].Args[0].Name != "id" || query.Fields[0].Args[0].Type != "ID!" {
		t.Fatalf("unexpected args: %+v", query.Fields[0].Args)
	}
}

func TestFileOperationAndFragmentHeadersExcludeSelections(t *testing.T) {
	db, files, _, eng := setup(t)
	id := addDocumentFile(t, db, files, "file:///q.graphql", `
		fragment UserFields on User { id name }
		query GetUser($id: ID!) { user(id: $id) { ...UserFields } }
	`)

	ctx := db.Snapshot().NewContext()
	ops, err := eng.FileOperationHeaders(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Name != "GetUser" || ops[0].Kind != "query" {
		t.Fatalf("unexpected operation headers: %+v", ops)
	}
	if len(ops[0].Variables) != 1 || ops[0].Variables[0].Name != "id" || ops[0].Variables[0].Type != "ID!" {
		t.Fatalf("unexpected variables: %+v", ops[0].Variables)
	}

	frags, err := eng.FileFragmentHeaders(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(frags) != 1 || frags[0].Name != "UserFields" || frags[0].TypeCondition != "User" {
		t.Fatalf("unexpected fragment headers: %+v", frags)
	}
}

func TestBodyEditDoesNotInvalidateOperationHeaders(t *testing.T) {
	db, files, _, eng := setup(t)
	log := store.NewLog()
	db.SetTracker(log)

	id := addDocumentFile(t, db, files, "file:///q.graphql", `query GetUser($id: ID!) { user(id: $id) { id name } }`)

	ctx := db.Snapshot().NewContext()
	if _, err := eng.FileOperationHeaders(ctx, id); err != nil {
		t.Fatal(err)
	}

	// Edit only the selection set: add a field, leave name/kind/variables
	// untouched. file_structure itself must re-execute (content changed),
	// but its recomputed value is equal, so durable equality keeps
	// file_operation_headers from re-executing.
	db.Mutate(func(rev store.Revision) {
		files.SetText(rev, id, `query GetUser($id: ID!) { user(id: $id) { id name email } }`)
	})

	snap2 := db.Snapshot()
	cp := log.Checkpoint()
	if _, err := eng.FileOperationHeaders(snap2.NewContext(), id); err != nil {
		t.Fatal(err)
	}
	if n := log.CountSince(cp, "file_structure"); n != 1 {
		t.Fatalf("expected file_structure to re-execute once, got %d", n)
	}
	// The Structure (OperationHeader sans selection set) is unchanged, so
	// file_structure keeps its old changed-at revision and
	// file_operation_headers is revalidated without executing.
	if n := log.CountSince(cp, "file_operation_headers"); n != 0 {
		t.Fatalf("expected file_operation_headers not to re-execute, got %d", n)
	}
}

func TestMergedSchemaAppliesExtensionsInUriOrder(t *testing.T) {
	db, files, _, eng := setup(t)
	// Registered out of URI order on purpose: z.graphqls defines the
	// base type, m.graphqls and then a.graphqls extend it. URI sort puts
	// a.graphqls's extension first despite it being registered last.
	addSchemaFile(t, db, files, "file:///z.graphqls", `type Query { a: String }`)
	addSchemaFile(t, db, files, "file:///m.graphqls", `extend type Query { c: String }`)
	addSchemaFile(t, db, files, "file:///a.graphqls", `extend type Query { b: String }`)

	ctx := db.Snapshot().NewContext()
	ms, err := eng.MergedSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	q, ok := ms.Types["Query"]
	if !ok {
		t.Fatal("expected a merged Query type")
	}
	if q.Base.Name != "Query" || len(q.Extensions) != 2 {
		t.Fatalf("unexpected merged Query: %+v", q)
	}
	if q.Extensions[0].Fields[0].Name != "b" || q.Extensions[1].Fields[0].Name != "c" {
		t.Fatalf("expected extensions in URI order (a.graphqls, m.graphqls), got %+v", q.Extensions)
	}
}

func TestMergedSchemaFlagsDuplicateDefinitions(t *testing.T) {
	db, files, _, eng := setup(t)
	addSchemaFile(t, db, files, "file:///a.graphqls", `type Foo { x: String }`)
	addSchemaFile(t, db, files, "file:///b.graphqls", `type Foo { y: String }`)

	ctx := db.Snapshot().NewContext()
	ms, err := eng.MergedSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict diagnostic, got %d: %+v", len(ms.Conflicts), ms.Conflicts)
	}
}

func TestMergedSchemaSeedsBuiltinScalars(t *testing.T) {
	db, _, _, eng := setup(t)
	ctx := db.Snapshot().NewContext()
	ms, err := eng.MergedSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Int", "Float", "String", "Boolean", "ID"} {
		td, ok := ms.Types[name]
		if !ok || td.Base.Kind != Scalar {
			t.Fatalf("expected builtin scalar %q to be seeded", name)
		}
	}
}

func TestFragmentByNameLooksUpAcrossFiles(t *testing.T) {
	db, files, _, eng := setup(t)
	addDocumentFile(t, db, files, "file:///frag.graphql", `fragment UserFields on User { id }`)
	addDocumentFile(t, db, files, "file:///op.graphql", `query Q { user { ...UserFields } }`)

	ctx := db.Snapshot().NewContext()
	h, ok, err := eng.FragmentByName(ctx, "UserFields")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || h.TypeCondition != "User" {
		t.Fatalf("expected to find UserFields, got %+v ok=%v", h, ok)
	}
}
