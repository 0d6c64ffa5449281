package engine

import (
	"github.com/trevor-scheer/graphql-analyzer/internal/analysis"
	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/ide"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// Snapshot is the cheap, immutable read handle spec.md §4.9 describes:
// a revision tag plus a reference to the Host's shared engines. Readers
// (an LSP handler, a CLI command, a worker goroutine) call every
// operation below through one of these rather than through the Host
// directly, so a concurrent write never blocks them — it only cancels
// their read at the next Context.Checkpoint, which every long-running
// query in this engine calls at least once per selection-set traversal
// or file iteration (spec.md §5).
type Snapshot struct {
	host *Host
	snap *store.Snapshot
}

// Revision reports the revision this snapshot is bound to.
func (s *Snapshot) Revision() store.Revision { return s.snap.Revision() }

// Cancelled reports whether a newer write has superseded this snapshot.
func (s *Snapshot) Cancelled() bool { return s.snap.Cancelled() }

func (s *Snapshot) ctx() *store.Context { return s.snap.NewContext() }

// Diagnostics, Hover, Definition, References, DocumentSymbols,
// SemanticTokens, Completion, PrepareRename and RenameEdits are direct
// pass-throughs to C8's IDE engine, each opening a fresh Context bound
// to this snapshot's revision.

func (s *Snapshot) Diagnostics(uri filemodel.FileUri) ([]diag.Diagnostic, error) {
	return s.host.ide.Diagnostics(s.ctx(), uri)
}

func (s *Snapshot) Hover(uri filemodel.FileUri, pos diag.Position) (*ide.HoverResult, error) {
	return s.host.ide.Hover(s.ctx(), uri, pos)
}

func (s *Snapshot) Definition(uri filemodel.FileUri, pos diag.Position) ([]ide.Location, error) {
	return s.host.ide.Definition(s.ctx(), uri, pos)
}

func (s *Snapshot) References(uri filemodel.FileUri, pos diag.Position, includeDecl bool) ([]ide.Location, error) {
	return s.host.ide.References(s.ctx(), uri, pos, includeDecl)
}

func (s *Snapshot) DocumentSymbols(uri filemodel.FileUri) ([]ide.DocumentSymbol, error) {
	return s.host.ide.DocumentSymbols(s.ctx(), uri)
}

func (s *Snapshot) SemanticTokens(uri filemodel.FileUri) ([]ide.SemanticToken, error) {
	return s.host.ide.SemanticTokens(s.ctx(), uri)
}

func (s *Snapshot) Completion(uri filemodel.FileUri, pos diag.Position) ([]ide.CompletionItem, error) {
	return s.host.ide.Completion(s.ctx(), uri, pos)
}

func (s *Snapshot) PrepareRename(uri filemodel.FileUri, pos diag.Position) (*ide.PrepareRenameResult, error) {
	return s.host.ide.PrepareRename(s.ctx(), uri, pos)
}

func (s *Snapshot) RenameEdits(uri filemodel.FileUri, pos diag.Position, newName string) (map[filemodel.FileUri][]ide.TextEdit, error) {
	return s.host.ide.RenameEdits(s.ctx(), uri, pos, newName)
}

// MergedSchema exposes C5's merged_schema query directly, for callers
// outside the IDE surface proper — the CLI's `schema diff`/`stats`
// commands need the whole merged type graph, not a per-position editor
// operation.
func (s *Snapshot) MergedSchema() (hir.MergedSchema, error) {
	return s.host.structure.MergedSchema(s.ctx())
}

// AllOperations and AllFragments expose C5's project-wide indexes, used
// by the CLI's `stats` command to count every operation/fragment without
// re-deriving the index itself.
func (s *Snapshot) AllOperations() ([]hir.OperationHeader, error) {
	return s.host.structure.AllOperations(s.ctx())
}

func (s *Snapshot) AllFragments() ([]hir.FragmentHeader, error) {
	return s.host.structure.AllFragments(s.ctx())
}

// OperationTransitiveFragments exposes C6's fragment-closure query to
// callers outside the IDE surface. The `coverage`/`deprecations`
// reports do not go through it; they walk fragment spreads themselves
// (see internal/analysis).
func (s *Snapshot) OperationTransitiveFragments(op hir.OperationId) ([]hir.FragmentId, error) {
	return s.host.bodies.OperationTransitiveFragments(s.ctx(), op)
}

// SchemaFiles and DocumentFiles list the project's current file
// membership sets, for CLI commands (`validate`, `lint`) that iterate
// every file rather than a single one named on the command line.
func (s *Snapshot) SchemaFiles() []filemodel.FileId {
	return s.host.files.SchemaFiles(s.ctx())
}

func (s *Snapshot) DocumentFiles() []filemodel.FileId {
	return s.host.files.DocumentFiles(s.ctx())
}

// Uri resolves id back to the FileUri it was interned with.
func (s *Snapshot) Uri(id filemodel.FileId) (filemodel.FileUri, bool) {
	return s.host.files.Uri(s.ctx(), id)
}

// Lookup resolves a FileUri to its interned FileId, the inverse of Uri.
func (s *Snapshot) Lookup(uri filemodel.FileUri) (filemodel.FileId, bool) {
	return s.host.files.Lookup(uri)
}

// DeprecatedFieldUsages and SchemaCoverage expose the supplemented
// `deprecations`/`coverage` CLI reports (not part of C7's ordinary
// per-file diagnostics), built on the same body-query machinery.
func (s *Snapshot) DeprecatedFieldUsages() ([]analysis.DeprecatedFieldUsage, error) {
	return s.host.diags.DeprecatedFieldUsages(s.ctx())
}

func (s *Snapshot) SchemaCoverage() (analysis.CoverageReport, error) {
	return s.host.diags.SchemaCoverage(s.ctx())
}
