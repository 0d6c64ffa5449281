// Package syntax implements component C4: parsing file content into a
// GraphQL syntax tree, tolerant of errors, plus the UTF-16 line index
// each file needs for LSP-compatible coordinates.
package syntax

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// Block is one extracted GraphQL fragment of source text, the unit
// described in spec.md §3 "Parse": for a pure GraphQL file there is
// exactly one identity block covering the whole file; for TS/JS files
// there is one block per tagged template literal the Extractor found.
type Block struct {
	Text string
	// SourceOffset is the byte offset in the *original* file where this
	// block's text begins.
	SourceOffset int
}

// Extractor is implemented by component C3 for TS/JS files. It is
// consulted only for filemodel.TypeScriptLike and filemodel.JavaScriptLike
// files; pure GraphQL files never call it.
type Extractor interface {
	Extract(uri filemodel.FileUri, content string) ([]Block, []diag.Diagnostic)
}

// Parse is the result of parsing one file: its tree (schema-shaped or
// executable-shaped depending on FileKind), the blocks it was built
// from, and any parse diagnostics. The tree field that doesn't apply to
// this file's kind is left nil; exactly one of SchemaTree/ExecutableTree
// is populated for any file that produced at least one block.
type Parse struct {
	SchemaTree     *ast.SchemaDocument
	ExecutableTree *ast.QueryDocument
	Blocks         []Block
	Diagnostics    []diag.Diagnostic
}

// Engine wires the Store's memoization over file content into the
// underlying gqlparser parser, and owns the per-file LineIndex query.
type Engine struct {
	files     *filemodel.Registry
	extractor Extractor

	parseQ *store.Query[filemodel.FileId, Parse]
	lineQ  *store.Query[filemodel.FileId, *diag.LineIndex]
}

// New constructs the syntax engine. extractor may be nil if the project
// has no TS/JS files configured; in that case such files parse to an
// empty Parse with a single diagnostic explaining why.
func New(db *store.Database, files *filemodel.Registry, extractor Extractor) *Engine {
	e := &Engine{files: files, extractor: extractor}
	e.parseQ = store.New(db, "parse", e.computeParse, parseEqual)
	e.lineQ = store.New(db, "line_index", e.computeLineIndex, lineIndexEqual)
	return e
}

// Parse returns the memoized Parse for id.
func (e *Engine) Parse(ctx *store.Context, id filemodel.FileId) (Parse, error) {
	return e.parseQ.Get(ctx, id)
}

// LineIndex returns the memoized LineIndex for id.
func (e *Engine) LineIndex(ctx *store.Context, id filemodel.FileId) (*diag.LineIndex, error) {
	return e.lineQ.Get(ctx, id)
}

func (e *Engine) computeLineIndex(ctx *store.Context, id filemodel.FileId) (*diag.LineIndex, error) {
	content, _ := e.files.Content(ctx, id)
	return diag.NewLineIndex(content), nil
}

func (e *Engine) computeParse(ctx *store.Context, id filemodel.FileId) (Parse, error) {
	content, ok := e.files.Content(ctx, id)
	if !ok {
		return Parse{}, nil
	}
	md, _ := e.files.Metadata(ctx, id)
	uri := md.Uri

	switch md.Kind {
	case filemodel.SchemaGraphQL:
		tree, diags := parseSchemaBlock(uri, content)
		return Parse{
			SchemaTree:  tree,
			Blocks:      []Block{{Text: content, SourceOffset: 0}},
			Diagnostics: diags,
		}, nil

	case filemodel.ExecutableGraphQL:
		tree, diags := parseExecutableBlock(uri, content)
		return Parse{
			ExecutableTree: tree,
			Blocks:         []Block{{Text: content, SourceOffset: 0}},
			Diagnostics:    diags,
		}, nil

	case filemodel.TypeScriptLike, filemodel.JavaScriptLike:
		if e.extractor == nil {
			return Parse{
				ExecutableTree: &ast.QueryDocument{},
				Diagnostics: []diag.Diagnostic{{
					Severity:  diag.Info,
					Message:   "no GraphQL extractor configured for this project; TS/JS files are not scanned for tagged templates",
					SourceTag: "parser",
				}},
			}, nil
		}
		blocks, extractDiags := e.extractor.Extract(uri, content)
		tree, parseDiags := parseConcatenatedBlocks(uri, blocks, diag.NewLineIndex(content))
		return Parse{
			ExecutableTree: tree,
			Blocks:         blocks,
			Diagnostics:    append(extractDiags, parseDiags...),
		}, nil

	default:
		return Parse{
			ExecutableTree: &ast.QueryDocument{},
			Diagnostics: []diag.Diagnostic{{
				Severity:  diag.Warning,
				Message:   fmt.Sprintf("file %q has no resolved kind; it cannot be parsed until registered as schema or document", uri),
				SourceTag: "parser",
			}},
		}, nil
	}
}

func parseSchemaBlock(uri filemodel.FileUri, content string) (*ast.SchemaDocument, []diag.Diagnostic) {
	tree, gqlErr := parser.ParseSchema(&ast.Source{Name: string(uri), Input: content})
	if tree == nil {
		// gqlparser's recursive-descent parser returns a nil document on
		// the first fatal syntax error rather than a partial tree; the
		// engine's own "tree always produced" guarantee is upheld at this
		// boundary by substituting an empty document.
		tree = &ast.SchemaDocument{}
	}
	return tree, gqlErrorsToDiagnostics(gqlErr)
}

func parseExecutableBlock(uri filemodel.FileUri, content string) (*ast.QueryDocument, []diag.Diagnostic) {
	tree, gqlErr := parser.ParseQuery(&ast.Source{Name: string(uri), Input: content})
	if tree == nil {
		tree = &ast.QueryDocument{}
	}
	return tree, gqlErrorsToDiagnostics(gqlErr)
}

// parseConcatenatedBlocks joins every extracted block's text into one
// synthetic source (spec.md §3 "Parse"), parses it as a single
// executable document, and remaps any resulting diagnostic's position
// back into the original file's coordinates via each block's
// SourceOffset.
func parseConcatenatedBlocks(uri filemodel.FileUri, blocks []Block, originalLines *diag.LineIndex) (*ast.QueryDocument, []diag.Diagnostic) {
	if len(blocks) == 0 {
		return &ast.QueryDocument{}, nil
	}

	var synthetic string
	blockSyntheticOffset := make([]int, len(blocks))
	for i, b := range blocks {
		blockSyntheticOffset[i] = len(synthetic)
		synthetic += b.Text + "\n"
	}
	syntheticLines := diag.NewLineIndex(synthetic)

	tree, gqlErr := parser.ParseQuery(&ast.Source{Name: string(uri), Input: synthetic})
	if tree == nil {
		tree = &ast.QueryDocument{}
	}

	diags := gqlErrorsToDiagnostics(gqlErr)
	for i := range diags {
		diags[i].Primary = remapRange(diags[i].Primary, blocks, blockSyntheticOffset, syntheticLines, originalLines)
	}
	return tree, diags
}

// remapRange converts a range computed against the synthetic
// concatenation back into the original file's coordinates: it turns the
// synthetic Position into a synthetic byte offset, finds the block that
// offset falls within, adds that block's original-file SourceOffset,
// and converts back to a Position using the original file's LineIndex.
func remapRange(r diag.Range, blocks []Block, blockSyntheticOffset []int, syntheticLines, originalLines *diag.LineIndex) diag.Range {
	remapPos := func(p diag.Position) diag.Position {
		syntheticOffset := syntheticLines.Offset(p)
		blockIdx := 0
		for i, start := range blockSyntheticOffset {
			if start <= syntheticOffset {
				blockIdx = i
			}
		}
		withinBlock := syntheticOffset - blockSyntheticOffset[blockIdx]
		originalOffset := blocks[blockIdx].SourceOffset + withinBlock
		return originalLines.Position(originalOffset)
	}
	return diag.Range{Start: remapPos(r.Start), End: remapPos(r.End)}
}

func gqlErrorsToDiagnostics(err *gqlerror.Error) []diag.Diagnostic {
	if err == nil {
		return nil
	}
	out := make([]diag.Diagnostic, 0, 1+len(err.Nodes))
	out = append(out, diag.Diagnostic{
		Severity:  diag.Error,
		Message:   err.Message,
		SourceTag: "parser",
		Primary:   positionToRange(err),
	})
	return out
}

func positionToRange(err *gqlerror.Error) diag.Range {
	if len(err.Locations) == 0 {
		return diag.Range{}
	}
	loc := err.Locations[0]
	// gqlerror.Location is 1-indexed in both line and column; Position is
	// zero-indexed.
	line := loc.Line - 1
	if line < 0 {
		line = 0
	}
	col := loc.Column - 1
	if col < 0 {
		col = 0
	}
	p := diag.Position{Line: line, Character: col}
	return diag.Range{Start: p, End: p}
}

func parseEqual(a, b Parse) bool {
	if (a.SchemaTree == nil) != (b.SchemaTree == nil) || (a.ExecutableTree == nil) != (b.ExecutableTree == nil) {
		return false
	}
	if len(a.Blocks) != len(b.Blocks) {
		return false
	}
	for i := range a.Blocks {
		if a.Blocks[i] != b.Blocks[i] {
			return false
		}
	}
	return diagSliceEqual(a.Diagnostics, b.Diagnostics)
}

func diagSliceEqual(a, b []diag.Diagnostic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		// diag.Diagnostic carries a Related []RelatedRange field, which
		// makes the struct non-comparable with ==; compare the fields
		// that determine identity for this equality purpose directly.
		if a[i].Severity != b[i].Severity || a[i].Message != b[i].Message ||
			a[i].SourceTag != b[i].SourceTag || a[i].RuleCode != b[i].RuleCode ||
			a[i].Primary != b[i].Primary || len(a[i].Related) != len(b[i].Related) {
			return false
		}
	}
	return true
}

func lineIndexEqual(a, b *diag.LineIndex) bool {
	// Line indexes are rebuilt whenever content changes; pointer identity
	// differing is expected on every recompute, so this always reports
	// "changed" rather than attempting a deep text comparison; the index
	// is only recomputed when the file's content cell was Set again.
	return false
}
