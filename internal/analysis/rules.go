package analysis

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// standardRules is the built-in rule set, one representative rule per
// RuleKind per spec.md §4.7's four contexts.
func standardRules() []Rule {
	return []Rule{
		noAnonymousOperationsRule,
		noDeprecatedFieldsRule,
		typeNamesPascalCaseRule,
		fragmentMustBeUsedRule,
	}
}

// noAnonymousOperationsRule flags executable operations with no name,
// since an unnamed operation can't be targeted by codegen, persisted
// query registries, or `operation_by_name` lookups.
var noAnonymousOperationsRule = Rule{
	Code:               "no-anonymous-operations",
	Kind:               StandaloneDocument,
	Severity:           diag.Warning,
	RecommendedDefault: true,
	CheckFile: func(e *Engine, ctx *store.Context, id filemodel.FileId) ([]diag.Diagnostic, error) {
		ops, err := e.structure.FileOperationHeaders(ctx, id)
		if err != nil {
			return nil, err
		}
		var out []diag.Diagnostic
		for _, op := range ops {
			if op.Name == "" {
				out = append(out, diag.Diagnostic{
					Message: "anonymous operations should be named",
					Primary: op.Range,
				})
			}
		}
		return out, nil
	},
}

// noDeprecatedFieldsRule flags a selection of a field whose schema
// signature carries a @deprecated directive. This is a simplified,
// name-based match rather than a full type-checked selection walk (it
// doesn't track the selection's current parent type through the tree),
// which is an accepted approximation: a field name that's deprecated on
// every type that declares it will always be caught; a name reused by
// both a deprecated and a non-deprecated field of the same name on
// different types may false-positive. Full type-directed checking
// belongs to a dedicated type-checker this engine doesn't implement.
var noDeprecatedFieldsRule = Rule{
	Code:               "no-deprecated-fields",
	Kind:               DocumentAgainstSchema,
	Severity:           diag.Warning,
	RecommendedDefault: true,
	CheckFile: func(e *Engine, ctx *store.Context, id filemodel.FileId) ([]diag.Diagnostic, error) {
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

		ops, err := e.structure.FileOperationHeaders(ctx, id)
		if err != nil {
			return nil, err
		}
		var out []diag.Diagnostic
		for _, op := range ops {
			body, err := e.bodies.OperationBody(ctx, hir.OperationId{File: id, Name: op.Name})
			if err != nil {
				continue
			}
			for _, name := range fieldNamesIn(body) {
				if deprecated[name] {
					out = append(out, diag.Diagnostic{
						Message: fmt.Sprintf("field %q is deprecated", name),
						Primary: op.Range,
					})
				}
			}
		}
		return out, nil
	},
}

// typeNamesPascalCaseRule flags schema type names that don't start with
// an uppercase letter, the GraphQL community naming convention.
var typeNamesPascalCaseRule = Rule{
	Code:               "type-names-should-be-pascal-case",
	Kind:               StandaloneSchema,
	Severity:           diag.Hint,
	RecommendedDefault: false,
	CheckFile: func(e *Engine, ctx *store.Context, id filemodel.FileId) ([]diag.Diagnostic, error) {
		defs, err := e.structure.FileTypeDefs(ctx, id)
		if err != nil {
			return nil, err
		}
		var out []diag.Diagnostic
		for _, td := range defs {
			if td.IsExtension || isBuiltinScalarName(td.Name) {
				continue
			}
			if !isPascalCase(td.Name) {
				out = append(out, diag.Diagnostic{
					Message: fmt.Sprintf("type name %q should be PascalCase", td.Name),
					Primary: td.Range,
				})
			}
		}
		return out, nil
	},
}

// fragmentMustBeUsedRule flags fragments that no operation in the
// project spreads, directly or transitively.
var fragmentMustBeUsedRule = Rule{
	Code:               "fragment-must-be-used",
	Kind:               Project,
	Severity:           diag.Warning,
	RecommendedDefault: false,
	CheckProject: func(e *Engine, ctx *store.Context) (map[filemodel.FileId][]diag.Diagnostic, error) {
		allFrags, err := e.structure.AllFragments(ctx)
		if err != nil {
			return nil, err
		}
		allOps, err := e.structure.AllOperations(ctx)
		if err != nil {
			return nil, err
		}

		used := map[string]bool{}
		for _, op := range allOps {
			frags, err := e.bodies.OperationTransitiveFragments(ctx, hir.OperationId{File: op.FileId, Name: op.Name})
			if err != nil {
				continue
			}
			for _, f := range frags {
				used[f.Name] = true
			}
		}

		out := map[filemodel.FileId][]diag.Diagnostic{}
		for _, frag := range allFrags {
			if used[frag.Name] {
				continue
			}
			out[frag.FileId] = append(out[frag.FileId], diag.Diagnostic{
				Message: fmt.Sprintf("fragment %q is never used", frag.Name),
				Primary: frag.Range,
			})
		}
		return out, nil
	},
}

func hasDirective(directives []string, name string) bool {
	for _, d := range directives {
		if d == name {
			return true
		}
	}
	return false
}

// fieldNamesIn collects every field name reached anywhere in sel,
// recursing into nested selection sets and inline fragments. Fragment
// spreads are not followed — noDeprecatedFieldsRule checks one
// operation's own body only, by design (a simplification, documented
// above).
func fieldNamesIn(sel ast.SelectionSet) []string {
	var names []string
	var walk func(ast.SelectionSet)
	walk = func(s ast.SelectionSet) {
		for _, selection := range s {
			switch v := selection.(type) {
			case *ast.Field:
				names = append(names, v.Name)
				walk(v.SelectionSet)
			case *ast.InlineFragment:
				walk(v.SelectionSet)
			}
		}
	}
	walk(sel)
	return names
}
