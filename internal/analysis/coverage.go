package analysis

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// FieldCoverage reports whether one schema type's field is selected by
// at least one operation or fragment in the project.
type FieldCoverage struct {
	TypeName  string
	FieldName string
	Used      bool
}

// CoverageReport is the project-wide result of cross-referencing the
// merged schema's fields against every operation/fragment's transitive
// selections — the supplemented `coverage` CLI command's payload.
type CoverageReport struct {
	Fields      []FieldCoverage
	TotalFields int
	UsedFields  int
}

// SchemaCoverage cross-references every type's fields against the
// project-wide selection set (every operation's transitive closure,
// including fragment spreads) and reports which fields are never
// selected by any document. Coverage is computed type-blind, the same
// simplification DeprecatedFieldUsages makes: selecting a field named
// "id" on any type marks every type's "id" field used, since nothing in this
// engine's scope tracks which concrete type a selection set resolves
// against at each nesting level.
func (e *Engine) SchemaCoverage(ctx *store.Context) (CoverageReport, error) {
	ms, err := e.structure.MergedSchema(ctx)
	if err != nil {
		return CoverageReport{}, err
	}

	used, err := e.projectSelectedFieldNames(ctx)
	if err != nil {
		return CoverageReport{}, err
	}

	var report CoverageReport
	typeNames := make([]string, 0, len(ms.Types))
	for name := range ms.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, typeName := range typeNames {
		mt := ms.Types[typeName]
		if mt.Base.Kind != hir.Object && mt.Base.Kind != hir.Interface {
			continue
		}
		fieldNames := make([]string, 0, len(mt.Base.Fields))
		for _, f := range mt.Base.Fields {
			fieldNames = append(fieldNames, f.Name)
		}
		sort.Strings(fieldNames)
		for _, name := range fieldNames {
			isUsed := used[name]
			report.Fields = append(report.Fields, FieldCoverage{TypeName: typeName, FieldName: name, Used: isUsed})
			report.TotalFields++
			if isUsed {
				report.UsedFields++
			}
		}
	}
	return report, nil
}

// projectSelectedFieldNames unions every field name reachable from any
// operation's transitive selection set (direct body plus every spread
// fragment, recursively), project-wide.
func (e *Engine) projectSelectedFieldNames(ctx *store.Context) (map[string]bool, error) {
	ops, err := e.structure.AllOperations(ctx)
	if err != nil {
		return nil, err
	}

	used := map[string]bool{}
	seenFrag := map[string]bool{}
	var collectFragments func(names []string)
	collectFragments = func(names []string) {
		for _, name := range names {
			if seenFrag[name] {
				continue
			}
			seenFrag[name] = true
			header, ok, err := e.structure.FragmentByName(ctx, name)
			if err != nil || !ok {
				continue
			}
			fragBody, err := e.bodies.FragmentBody(ctx, hir.FragmentId{File: header.FileId, Name: name})
			if err != nil {
				continue
			}
			collectFieldNames(fragBody, used)
			collectFragments(hir.DirectSpreadNames(fragBody))
		}
	}

	for _, op := range ops {
		id := hir.OperationId{File: op.FileId, Name: op.Name}
		body, err := e.bodies.OperationBody(ctx, id)
		if err != nil {
			continue
		}
		collectFieldNames(body, used)
		collectFragments(hir.DirectSpreadNames(body))
	}
	return used, nil
}

func collectFieldNames(sel ast.SelectionSet, used map[string]bool) {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			used[v.Name] = true
			collectFieldNames(v.SelectionSet, used)
		case *ast.InlineFragment:
			collectFieldNames(v.SelectionSet, used)
		}
	}
}
