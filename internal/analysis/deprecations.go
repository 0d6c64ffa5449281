package analysis

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// DeprecatedFieldUsage is one occurrence of a field still selected by a
// document despite the schema marking it @deprecated — the report the
// supplemented `deprecations` CLI command needs.
type DeprecatedFieldUsage struct {
	OperationName string
	FileId        filemodel.FileId
	FieldName     string
	Range         diag.Range
}

// DeprecatedFieldUsages walks every operation's transitive selection
// set (spreads resolved the same closure C6's operation_transitive_
// fragments computes) and reports every selected field whose name the
// merged schema marks @deprecated anywhere. Matching is by field name
// only, the same simplification C8's semantic-tokens deprecated
// modifier uses (ide.go's fieldTokens/hasDeprecated) — a fully
// type-directed walk would need to track the selection type at each
// nesting level, which nothing in this engine's scope currently
// requires.
func (e *Engine) DeprecatedFieldUsages(ctx *store.Context) ([]DeprecatedFieldUsage, error) {
	ms, err := e.structure.MergedSchema(ctx)
	if err != nil {
		return nil, err
	}
	deprecated := map[string]bool{}
	for _, mt := range ms.Types {
		for _, f := range mt.Base.Fields {
			if hasDirective(f.Directives, "deprecated") {
				deprecated[f.Name] = true
			}
		}
	}
	if len(deprecated) == 0 {
		return nil, nil
	}

	ops, err := e.structure.AllOperations(ctx)
	if err != nil {
		return nil, err
	}

	var out []DeprecatedFieldUsage
	for _, op := range ops {
		id := hir.OperationId{File: op.FileId, Name: op.Name}
		body, err := e.bodies.OperationBody(ctx, id)
		if err != nil {
			continue
		}

		seenFrag := map[string]bool{}
		var walkFragments func(names []string)
		collect := func(sel ast.SelectionSet, fileId filemodel.FileId) {
			li, err := e.syn.LineIndex(ctx, fileId)
			if err != nil {
				return
			}
			out = append(out, collectDeprecatedUsages(op.Name, fileId, sel, deprecated, li)...)
		}
		collect(body, op.FileId)

		walkFragments = func(names []string) {
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
				collect(fragBody, header.FileId)
				walkFragments(hir.DirectSpreadNames(fragBody))
			}
		}
		walkFragments(hir.DirectSpreadNames(body))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OperationName != out[j].OperationName {
			return out[i].OperationName < out[j].OperationName
		}
		if out[i].FieldName != out[j].FieldName {
			return out[i].FieldName < out[j].FieldName
		}
		return out[i].FileId < out[j].FileId
	})
	return out, nil
}

func collectDeprecatedUsages(opName string, fileId filemodel.FileId, sel ast.SelectionSet, deprecated map[string]bool, li *diag.LineIndex) []DeprecatedFieldUsage {
	var out []DeprecatedFieldUsage
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if deprecated[v.Name] {
				out = append(out, DeprecatedFieldUsage{
					OperationName: opName,
					FileId:        fileId,
					FieldName:     v.Name,
					Range:         astFieldRange(v, li),
				})
			}
			out = append(out, collectDeprecatedUsages(opName, fileId, v.SelectionSet, deprecated, li)...)
		case *ast.InlineFragment:
			out = append(out, collectDeprecatedUsages(opName, fileId, v.SelectionSet, deprecated, li)...)
		}
	}
	return out
}

// astFieldRange reports a zero-width range at the field's start when
// gqlparser hasn't attached a *ast.Position (can happen for
// synthetically constructed selection sets in tests); this report is
// best-effort positional metadata, not a navigation target the way
// C8's Definition/References results are.
func astFieldRange(f *ast.Field, li *diag.LineIndex) diag.Range {
	if f.Position == nil || li == nil {
		return diag.Range{}
	}
	p := li.Position(f.Position.Start)
	return diag.Range{Start: p, End: p}
}
