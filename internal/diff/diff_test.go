package diff

import (
	"testing"

	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
)

func schemaOf(t *testing.T, typeDefs ...hir.TypeDef) hir.MergedSchema {
	t.Helper()
	ms := hir.MergedSchema{Types: map[string]hir.MergedType{}}
	for _, td := range typeDefs {
		ms.Types[td.Name] = hir.MergedType{Base: td}
	}
	return ms
}

func TestDiffFlagsRemovedFieldAsBreaking(t *testing.T) {
	oldSchema := schemaOf(t, hir.TypeDef{Name: "User", Kind: hir.Object, Fields: []hir.FieldSignature{
		{Name: "id", Type: "ID!"},
		{Name: "name", Type: "String!"},
	}})
	newSchema := schemaOf(t, hir.TypeDef{Name: "User", Kind: hir.Object, Fields: []hir.FieldSignature{
		{Name: "id", Type: "ID!"},
	}})

	report := Diff(oldSchema, newSchema)
	if report.Worst != Breaking {
		t.Fatalf("expected Breaking, got %v: %+v", report.Worst, report.Changes)
	}
}

func TestDiffFlagsAddedOptionalFieldAsSafe(t *testing.T) {
	oldSchema := schemaOf(t, hir.TypeDef{Name: "User", Kind: hir.Object, Fields: []hir.FieldSignature{
		{Name: "id", Type: "ID!"},
	}})
	newSchema := schemaOf(t, hir.TypeDef{Name: "User", Kind: hir.Object, Fields: []hir.FieldSignature{
		{Name: "id", Type: "ID!"},
		{Name: "nickname", Type: "String"},
	}})

	report := Diff(oldSchema, newSchema)
	if report.Worst != Safe {
		t.Fatalf("expected Safe, got %v: %+v", report.Worst, report.Changes)
	}
}

func TestDiffFlagsAddedRequiredFieldAsBreaking(t *testing.T) {
	oldSchema := schemaOf(t, hir.TypeDef{Name: "User", Kind: hir.Object, Fields: []hir.FieldSignature{
		{Name: "id", Type: "ID!"},
	}})
	newSchema := schemaOf(t, hir.TypeDef{Name: "User", Kind: hir.Object, Fields: []hir.FieldSignature{
		{Name: "id", Type: "ID!"},
		{Name: "tenantId", Type: "ID!"},
	}})

	report := Diff(oldSchema, newSchema)
	if report.Worst != Breaking {
		t.Fatalf("expected Breaking for a new required field, got %v: %+v", report.Worst, report.Changes)
	}
}

func TestDiffFlagsAddedEnumValueAsDangerous(t *testing.T) {
	oldSchema := schemaOf(t, hir.TypeDef{Name: "Role", Kind: hir.Enum, EnumValues: []string{"ADMIN"}})
	newSchema := schemaOf(t, hir.TypeDef{Name: "Role", Kind: hir.Enum, EnumValues: []string{"ADMIN", "GUEST"}})

	report := Diff(oldSchema, newSchema)
	if report.Worst != Dangerous {
		t.Fatalf("expected Dangerous, got %v: %+v", report.Worst, report.Changes)
	}
}

func TestDiffReportsNoChanges(t *testing.T) {
	oldSchema := schemaOf(t, hir.TypeDef{Name: "Query", Kind: hir.Object, Fields: []hir.FieldSignature{{Name: "x", Type: "String"}}})
	newSchema := schemaOf(t, hir.TypeDef{Name: "Query", Kind: hir.Object, Fields: []hir.FieldSignature{{Name: "x", Type: "String"}}})

	report := Diff(oldSchema, newSchema)
	if len(report.Changes) != 0 {
		t.Fatalf("expected no changes, got %+v", report.Changes)
	}
}

func TestDiffFlagsRemovedTypeAsBreaking(t *testing.T) {
	oldSchema := schemaOf(t,
		hir.TypeDef{Name: "Query", Kind: hir.Object},
		hir.TypeDef{Name: "Legacy", Kind: hir.Object},
	)
	newSchema := schemaOf(t, hir.TypeDef{Name: "Query", Kind: hir.Object})

	report := Diff(oldSchema, newSchema)
	if report.Worst != Breaking {
		t.Fatalf("expected Breaking for a removed type, got %v: %+v", report.Worst, report.Changes)
	}
}
