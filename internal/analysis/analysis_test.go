package analysis

import (
	"testing"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

type harness struct {
	db        *store.Database
	files     *filemodel.Registry
	syn       *syntax.Engine
	structure *hir.Engine
	bodies    *hir.BodyEngine
	engine    *Engine
}

func newHarness(t *testing.T, lint LintConfig) *harness {
	t.Helper()
	db := store.New()
	files := filemodel.NewRegistry(db)
	syn := syntax.New(db, files, nil)
	structure := hir.New(db, files, syn)
	bodies := hir.NewBodyEngine(db, syn, structure)
	return &harness{
		db: db, files: files, syn: syn, structure: structure, bodies: bodies,
		engine: New(db, files, syn, structure, bodies, lint),
	}
}

func (h *harness) addSchema(t *testing.T, uri filemodel.FileUri, text string) filemodel.FileId {
	t.Helper()
	var id filemodel.FileId
	h.db.Mutate(func(rev store.Revision) {
		id = h.files.Intern(rev, uri)
		h.files.RegisterAsSchema(rev, id)
		h.files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: uri, Kind: filemodel.SchemaGraphQL})
		h.files.SetText(rev, id, text)
	})
	return id
}

func (h *harness) addDoc(t *testing.T, uri filemodel.FileUri, text string) filemodel.FileId {
	t.Helper()
	var id filemodel.FileId
	h.db.Mutate(func(rev store.Revision) {
		id = h.files.Intern(rev, uri)
		h.files.RegisterAsDocument(rev, id)
		h.files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: uri, Kind: filemodel.ExecutableGraphQL})
		h.files.SetText(rev, id, text)
	})
	return id
}

func TestValidateSchemaFlagsUnknownType(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	id := h.addSchema(t, "file:///s.graphqls", `type Query { user: Phantom }`)

	ctx := h.db.Snapshot().NewContext()
	diags, err := h.engine.FileDiagnostics(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range diags {
		if d.SourceTag == "validator" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a validator diagnostic for unknown type Phantom, got %+v", diags)
	}
}

func TestValidateDocumentFlagsUnknownFragment(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	id := h.addDoc(t, "file:///q.graphql", `query Q { user { ...Missing } }`)

	ctx := h.db.Snapshot().NewContext()
	diags, err := h.engine.FileDiagnostics(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range diags {
		if d.SourceTag == "validator" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a validator diagnostic for unknown fragment Missing, got %+v", diags)
	}
}

func TestNoAnonymousOperationsRuleUnderRecommended(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	id := h.addDoc(t, "file:///q.graphql", `query { user { id } }`)

	ctx := h.db.Snapshot().NewContext()
	diags, err := h.engine.FileDiagnostics(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !hasRuleCode(diags, "no-anonymous-operations") {
		t.Fatalf("expected no-anonymous-operations finding, got %+v", diags)
	}
}

func TestPascalCaseRuleDisabledUnderRecommended(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	id := h.addSchema(t, "file:///s.graphqls", `type lowerCased { x: String }`)

	ctx := h.db.Snapshot().NewContext()
	diags, err := h.engine.FileDiagnostics(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if hasRuleCode(diags, "type-names-should-be-pascal-case") {
		t.Fatalf("expected the pascal-case rule to be off under recommended, got %+v", diags)
	}
}

func TestPascalCaseRuleEnabledUnderStrict(t *testing.T) {
	cfg := LintConfig{Extends: "strict", Overrides: map[string]bool{}}
	h := newHarness(t, cfg)
	id := h.addSchema(t, "file:///s.graphqls", `type lowerCased { x: String }`)

	ctx := h.db.Snapshot().NewContext()
	diags, err := h.engine.FileDiagnostics(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !hasRuleCode(diags, "type-names-should-be-pascal-case") {
		t.Fatalf("expected the pascal-case rule to fire under strict, got %+v", diags)
	}
}

func TestFragmentMustBeUsedFlagsOrphanFragment(t *testing.T) {
	cfg := LintConfig{Extends: "strict", Overrides: map[string]bool{}}
	h := newHarness(t, cfg)
	fragId := h.addDoc(t, "file:///frag.graphql", `fragment Orphan on User { id }`)
	h.addDoc(t, "file:///op.graphql", `query Q { user { id } }`)

	ctx := h.db.Snapshot().NewContext()
	diags, err := h.engine.FileDiagnostics(ctx, fragId)
	if err != nil {
		t.Fatal(err)
	}
	if !hasRuleCode(diags, "fragment-must-be-used") {
		t.Fatalf("expected fragment-must-be-used finding on the orphan fragment's file, got %+v", diags)
	}
}

func TestFragmentUsedIsNotFlagged(t *testing.T) {
	cfg := LintConfig{Extends: "strict", Overrides: map[string]bool{}}
	h := newHarness(t, cfg)
	fragId := h.addDoc(t, "file:///frag.graphql", `fragment UserFields on User { id }`)
	h.addDoc(t, "file:///op.graphql", `query Q { user { ...UserFields } }`)

	ctx := h.db.Snapshot().NewContext()
	diags, err := h.engine.FileDiagnostics(ctx, fragId)
	if err != nil {
		t.Fatal(err)
	}
	if hasRuleCode(diags, "fragment-must-be-used") {
		t.Fatalf("did not expect a finding for a used fragment, got %+v", diags)
	}
}

func hasRuleCode(diags []diag.Diagnostic, code string) bool {
	for _, d := range diags {
		if d.RuleCode == code {
			return true
		}
	}
	return false
}
