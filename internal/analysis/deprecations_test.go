package analysis

import "testing"

func TestDeprecatedFieldUsagesFindsSelectedDeprecatedField(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	h.addSchema(t, "file:///s.graphqls", `
type Query { user: User }
type User {
  id: ID!
  name: String
  legacyHandle: String @deprecated(reason: "use handle instead")
}`)
	h.addDoc(t, "file:///q.graphql", `query Q { user { id legacyHandle } }`)

	ctx := h.db.Snapshot().NewContext()
	usages, err := h.engine.DeprecatedFieldUsages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(usages) != 1 {
		t.Fatalf("expected 1 deprecated usage, got %+v", usages)
	}
	if usages[0].FieldName != "legacyHandle" || usages[0].OperationName != "Q" {
		t.Fatalf("unexpected usage: %+v", usages[0])
	}
}

func TestDeprecatedFieldUsagesFollowsFragmentSpreads(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	h.addSchema(t, "file:///s.graphqls", `
type Query { user: User }
type User {
  id: ID!
  legacyHandle: String @deprecated
}`)
	h.addDoc(t, "file:///q.graphql", `
query Q { user { ...UserFields } }
fragment UserFields on User { id legacyHandle }
`)

	ctx := h.db.Snapshot().NewContext()
	usages, err := h.engine.DeprecatedFieldUsages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(usages) != 1 {
		t.Fatalf("expected 1 deprecated usage reached via the fragment spread, got %+v", usages)
	}
}

func TestDeprecatedFieldUsagesReturnsNoneWhenSchemaHasNoDeprecations(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	h.addSchema(t, "file:///s.graphqls", `type Query { user: User } type User { id: ID! }`)
	h.addDoc(t, "file:///q.graphql", `query Q { user { id } }`)

	ctx := h.db.Snapshot().NewContext()
	usages, err := h.engine.DeprecatedFieldUsages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(usages) != 0 {
		t.Fatalf("expected no deprecated usages, got %+v", usages)
	}
}
