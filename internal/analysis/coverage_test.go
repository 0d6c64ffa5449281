package analysis

import "testing"

func TestSchemaCoverageFlagsUnusedFields(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	h.addSchema(t, "file:///s.graphqls", `
type Query { user: User }
type User {
  id: ID!
  name: String
  unusedField: String
}`)
	h.addDoc(t, "file:///q.graphql", `query Q { user { id name } }`)

	ctx := h.db.Snapshot().NewContext()
	report, err := h.engine.SchemaCoverage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalFields != 4 {
		t.Fatalf("expected 4 total fields (Query.user + User.id/name/unusedField), got %d: %+v", report.TotalFields, report.Fields)
	}

	var sawUnused bool
	for _, f := range report.Fields {
		if f.TypeName == "User" && f.FieldName == "unusedField" {
			sawUnused = true
			if f.Used {
				t.Fatal("expected unusedField to be reported as not used")
			}
		}
		if f.TypeName == "User" && f.FieldName == "id" && !f.Used {
			t.Fatal("expected id to be reported as used")
		}
	}
	if !sawUnused {
		t.Fatal("expected unusedField to appear in the coverage report")
	}
}

func TestSchemaCoverageCountsEveryTypeFieldOnce(t *testing.T) {
	h := newHarness(t, DefaultLintConfig())
	h.addSchema(t, "file:///s.graphqls", `type Query { a: String b: String }`)
	h.addDoc(t, "file:///q.graphql", `query Q { a }`)

	ctx := h.db.Snapshot().NewContext()
	report, err := h.engine.SchemaCoverage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalFields != 2 {
		t.Fatalf("expected 2 total fields, got %d", report.TotalFields)
	}
	if report.UsedFields != 1 {
		t.Fatalf("expected 1 used field, got %d", report.UsedFields)
	}
}
