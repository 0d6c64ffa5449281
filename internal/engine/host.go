// Package engine implements component C9: the Host, the single logical
// writer over the Store and every input cell, and Snapshot, the cheap
// immutable read handle every IDE/CLI caller actually goes through.
// Grounded on the Factory/Snapshot split in the upbound/up xpkg language
// server (an external Factory that "stamps out" read-only snapshots
// while sharing the references that don't change), generalized here to
// this project's Salsa-style revision/cancellation model.
package engine

import (
	"go.uber.org/zap"

	"github.com/trevor-scheer/graphql-analyzer/internal/analysis"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/ide"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

// Host owns the Store, the file registry, and every derived-value
// engine layered over it (C3/C5-C8). It is the only component allowed
// to mutate inputs (spec.md §4.9, §5 "Inputs are behind the Host; only
// the Host mutates"); every other component is handed a Snapshot.
type Host struct {
	db    *store.Database
	files *filemodel.Registry

	syn       *syntax.Engine
	structure *hir.Engine
	bodies    *hir.BodyEngine
	diags     *analysis.Engine
	ide       *ide.Engine

	log    *store.Log
	logger *zap.Logger
}

// Option configures a Host at construction.
type Option func(*Host)

// WithExtractor overrides the default nil C3 extractor (no TS/JS
// extraction) with one configured for the workspace, e.g.
// extract.New(extract.DefaultConfig()).
func WithExtractor(x syntax.Extractor) Option {
	return func(h *Host) { h.syn = syntax.New(h.db, h.files, x) }
}

// WithTracking installs a store.Log so tests and the CLI's `stats`
// command can assert on exact incremental-recompute counts (C10,
// spec.md §4.10).
func WithTracking() Option {
	return func(h *Host) {
		h.log = store.NewLog()
		h.db.SetTracker(h.log)
	}
}

// WithLogger installs logger as the Host's structured logger, replacing
// the no-op default. Construct it the way codenerd's cmd/nerd/main.go
// does — a zap.NewProductionConfig() build with an atomic level the
// caller can raise for --verbose — and pass it by reference rather than
// reading from an ambient global.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// New constructs a Host with an empty file registry and default lint
// config. Options are applied before the derived-value engines are
// wired, so WithExtractor must be passed here rather than set later.
func New(opts ...Option) *Host {
	h := &Host{db: store.New(), logger: zap.NewNop()}
	h.files = filemodel.NewRegistry(h.db)
	for _, o := range opts {
		o(h)
	}
	if h.syn == nil {
		h.syn = syntax.New(h.db, h.files, nil)
	}
	h.structure = hir.New(h.db, h.files, h.syn)
	h.bodies = hir.NewBodyEngine(h.db, h.syn, h.structure)
	h.diags = analysis.New(h.db, h.files, h.syn, h.structure, h.bodies, analysis.DefaultLintConfig())
	h.ide = ide.New(h.files, h.syn, h.structure, h.bodies, h.diags)
	return h
}

// Log returns the installed tracking log, or nil if WithTracking wasn't
// passed to New.
func (h *Host) Log() *store.Log { return h.log }

// Logger returns the Host's structured logger (a no-op logger unless
// WithLogger was passed to New).
func (h *Host) Logger() *zap.Logger { return h.logger }

// AddFile interns uri (if not already known), registers it in the
// schema or document set per kind, and sets its initial text — all in
// one atomic revision bump (spec.md §4.9 "add_file").
func (h *Host) AddFile(uri filemodel.FileUri, kind filemodel.FileKind, text string) filemodel.FileId {
	var id filemodel.FileId
	h.db.Mutate(func(rev store.Revision) {
		id = h.files.Intern(rev, uri)
		h.setKind(rev, id, uri, kind)
		h.files.SetText(rev, id, text)
	})
	h.logger.Debug("add_file", zap.String("uri", string(uri)), zap.Stringer("kind", kind))
	return id
}

// UpdateText replaces id's full text content (spec.md §4.9
// "update_text"). This is the primitive, highest-frequency mutation:
// every keystroke in an editor funnels through here.
func (h *Host) UpdateText(id filemodel.FileId, text string) {
	h.db.Mutate(func(rev store.Revision) {
		h.files.SetText(rev, id, text)
	})
	h.logger.Debug("update_text", zap.Int("file_id", int(id)), zap.Int("bytes", len(text)))
}

// RemoveFile deregisters id from whichever membership set it occupies.
// The FileId itself stays valid and addressable (interning is
// permanent, spec.md §3), but it drops out of SchemaFiles/DocumentFiles
// and so out of every query that iterates those sets.
func (h *Host) RemoveFile(id filemodel.FileId) {
	h.db.Mutate(func(rev store.Revision) {
		h.files.Deregister(rev, id)
	})
	h.logger.Debug("remove_file", zap.Int("file_id", int(id)))
}

// SetFileKind reclassifies id, e.g. once workspace config resolves the
// SchemaGraphQL/ExecutableGraphQL ambiguity SniffKind left open for a
// bare ".graphql" extension (spec.md §4.9 "set_file_kind").
func (h *Host) SetFileKind(id filemodel.FileId, kind filemodel.FileKind) {
	h.db.Mutate(func(rev store.Revision) {
		uri, _ := h.files.Uri(store.WriterContext(rev), id)
		h.setKind(rev, id, uri, kind)
	})
	h.logger.Debug("set_file_kind", zap.Int("file_id", int(id)), zap.Stringer("kind", kind))
}

func (h *Host) setKind(rev store.Revision, id filemodel.FileId, uri filemodel.FileUri, kind filemodel.FileKind) {
	switch kind {
	case filemodel.SchemaGraphQL:
		h.files.RegisterAsSchema(rev, id)
	default:
		h.files.RegisterAsDocument(rev, id)
	}
	h.files.SetMetadata(rev, id, filemodel.FileMetadata{Uri: uri, Kind: kind})
}

// SetConfig replaces the active lint configuration (spec.md §4.9
// "set_config"), invalidating every file_diagnostics/project_diagnostics
// value computed under the prior configuration.
func (h *Host) SetConfig(cfg analysis.LintConfig) {
	h.db.Mutate(func(rev store.Revision) {
		h.diags.SetLintConfig(rev, cfg)
	})
	h.logger.Info("set_config", zap.String("extends", cfg.Extends), zap.Int("overrides", len(cfg.Overrides)))
}

// Snapshot returns an immutable handle bound to the current revision
// (spec.md §4.9 "snapshot()"). Snapshots are cheap to take and to hand
// to worker goroutines; the Host continues accepting writes
// concurrently, which cancels any in-flight read at its next
// Context.Checkpoint call without blocking the writer.
func (h *Host) Snapshot() *Snapshot {
	return &Snapshot{
		host: h,
		snap: h.db.Snapshot(),
	}
}
