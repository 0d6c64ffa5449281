package hir

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

// OperationId and FragmentId are the stable identifiers body queries are
// keyed by: (FileId, name), so a renamed operation/fragment gets a new
// memo entry rather than reusing the old name's. Each body query reads
// the whole file's parse and has no durable equality, so any edit to a
// file re-executes the body queries of every operation and fragment in
// that file, renamed or not.
type OperationId struct {
	File filemodel.FileId
	Name string
}

type FragmentId struct {
	File filemodel.FileId
	Name string
}

// BodyEngine computes component C6: operation and fragment selection
// sets, and the cycle-safe transitive fragment closure of an operation.
// It reads the raw ast tree directly (unlike Engine/C5, which only ever
// touches headers) because carrying selections is exactly this layer's
// job.
type BodyEngine struct {
	syntax    *syntax.Engine
	structure *Engine

	opBodyQ   *store.Query[OperationId, ast.SelectionSet]
	fragBodyQ *store.Query[FragmentId, ast.SelectionSet]
	spreadsQ  *store.Query[OperationId, []FragmentId]
}

// NewBodyEngine constructs the C6 engine. structure is used only to
// resolve a fragment spread's name to the FileId it's defined in
// (fragment_by_name). Only operation_transitive_fragments makes that
// lookup, so it is the one body query that depends on fragment_by_name;
// operation_body and fragment_body read only the parse.
func NewBodyEngine(db *store.Database, synEngine *syntax.Engine, structure *Engine) *BodyEngine {
	b := &BodyEngine{syntax: synEngine, structure: structure}
	b.opBodyQ = store.New(db, "operation_body", b.computeOperationBody, nil)
	b.fragBodyQ = store.New(db, "fragment_body", b.computeFragmentBody, nil)
	b.spreadsQ = store.New(db, "operation_transitive_fragments", b.computeTransitiveFragments, store.DeepEqual)
	return b
}

// OperationBody returns id's selection set, or nil if no operation by
// that name exists in the file at the current revision.
func (b *BodyEngine) OperationBody(ctx *store.Context, id OperationId) (ast.SelectionSet, error) {
	return b.opBodyQ.Get(ctx, id)
}

// FragmentBody returns id's selection set, or nil if no fragment by that
// name exists in the file at the current revision.
func (b *BodyEngine) FragmentBody(ctx *store.Context, id FragmentId) (ast.SelectionSet, error) {
	return b.fragBodyQ.Get(ctx, id)
}

// OperationTransitiveFragments returns the deduplicated, cycle-safe set
// of every fragment id's operation depends on, directly or through
// other fragments, sorted by (File, Name) for determinism.
func (b *BodyEngine) OperationTransitiveFragments(ctx *store.Context, id OperationId) ([]FragmentId, error) {
	return b.spreadsQ.Get(ctx, id)
}

func (b *BodyEngine) computeOperationBody(ctx *store.Context, id OperationId) (ast.SelectionSet, error) {
	p, err := b.syntax.Parse(ctx, id.File)
	if err != nil || p.ExecutableTree == nil {
		return nil, err
	}
	for _, op := range p.ExecutableTree.Operations {
		if op.Name == id.Name {
			return op.SelectionSet, nil
		}
	}
	return nil, nil
}

func (b *BodyEngine) computeFragmentBody(ctx *store.Context, id FragmentId) (ast.SelectionSet, error) {
	p, err := b.syntax.Parse(ctx, id.File)
	if err != nil || p.ExecutableTree == nil {
		return nil, err
	}
	for _, frag := range p.ExecutableTree.Fragments {
		if frag.Name == id.Name {
			return frag.SelectionSet, nil
		}
	}
	return nil, nil
}

// computeTransitiveFragments implements spec.md §4.6's cycle-safe
// transitive closure: a breadth-first walk over fragment spreads,
// tracking visited names so a fragment cycle (directly or mutually
// recursive) terminates instead of looping forever.
func (b *BodyEngine) computeTransitiveFragments(ctx *store.Context, id OperationId) ([]FragmentId, error) {
	body, err := b.OperationBody(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{}
	var result []FragmentId
	queue := DirectSpreadNames(body)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		header, ok, err := b.structure.FragmentByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		fragId := FragmentId{File: header.FileId, Name: name}
		result = append(result, fragId)

		fragBody, err := b.FragmentBody(ctx, fragId)
		if err != nil {
			return nil, err
		}
		for _, next := range DirectSpreadNames(fragBody) {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].File != result[j].File {
			return result[i].File < result[j].File
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// DirectSpreadNames collects every FragmentSpread name reachable from
// sel, recursing into field sub-selections and inline fragments but not
// following spreads themselves (that's the caller's job, one queue
// iteration at a time). Exported for C7's validation pass, which needs
// to distinguish an unresolved spread name from a resolved one — a
// concern this package's own transitive-closure query deliberately
// doesn't surface (spec.md §4.6 only asks for the resolved set).
func DirectSpreadNames(sel ast.SelectionSet) []string {
	var names []string
	var walk func(ast.SelectionSet)
	walk = func(s ast.SelectionSet) {
		for _, selection := range s {
			switch v := selection.(type) {
			case *ast.Field:
				walk(v.SelectionSet)
			case *ast.InlineFragment:
				walk(v.SelectionSet)
			case *ast.FragmentSpread:
				names = append(names, v.Name)
			}
		}
	}
	walk(sel)
	return names
}
