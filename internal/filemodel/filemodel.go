// Package filemodel implements component C2: interned file identities,
// per-file content/metadata inputs, and the project-wide file registry.
package filemodel

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/trevor-scheer/graphql-analyzer/internal/store"
)

// FileId is an opaque interned handle for a source file, stable for the
// lifetime of the engine instance: once assigned it is never reused, even
// if the file is later deregistered (spec.md §3 "FileId").
type FileId uint32

func (id FileId) String() string { return fmt.Sprintf("file#%d", uint32(id)) }

// FileUri is the opaque path-or-URI string associated with a FileId.
type FileUri string

// FileKind classifies a file for parsing/extraction purposes.
type FileKind int

const (
	// KindUnknown is never stored in the registry; it is only returned
	// by best-effort sniffing when a file's role cannot be determined.
	KindUnknown FileKind = iota
	SchemaGraphQL
	ExecutableGraphQL
	TypeScriptLike
	JavaScriptLike
)

func (k FileKind) String() string {
	switch k {
	case SchemaGraphQL:
		return "schema-graphql"
	case ExecutableGraphQL:
		return "executable-graphql"
	case TypeScriptLike:
		return "typescript-like"
	case JavaScriptLike:
		return "javascript-like"
	default:
		return "unknown"
	}
}

// FileMetadata is the (uri, kind) pair tracked per file. Changing kind is
// a project-structure event, not a content event (spec.md §3), which is
// why it lives in its own Input cell rather than alongside FileContent.
type FileMetadata struct {
	Uri  FileUri
	Kind FileKind
}

// Entry is a read-only snapshot of one file's content paired with its
// metadata, the FileEntry tuple from spec.md §3.
type Entry struct {
	Content  string
	Metadata FileMetadata
}

// fileEntry is the registry's internal, identity-stable record for one
// interned FileId. Its two Input cells are read independently so that a
// text-only edit never invalidates queries keyed only on metadata, and
// vice versa.
type fileEntry struct {
	content  *store.Input[string]
	metadata *store.Input[FileMetadata]
}

// registryState is the value held by the registry's single Input cell:
// the two disjoint FileId sets plus the total id-to-entry mapping.
// Critically it holds *fileEntry pointers, not content — so replacing
// this state (on intern/register/deregister) never touches the content
// or metadata of files that didn't change membership (spec.md §3
// "critical design decision").
type registryState struct {
	schema   map[FileId]struct{}
	document map[FileId]struct{}
	entries  map[FileId]*fileEntry
}

func (s registryState) clone() registryState {
	next := registryState{
		schema:   make(map[FileId]struct{}, len(s.schema)),
		document: make(map[FileId]struct{}, len(s.document)),
		entries:  make(map[FileId]*fileEntry, len(s.entries)),
	}
	for k, v := range s.schema {
		next.schema[k] = v
	}
	for k, v := range s.document {
		next.document[k] = v
	}
	for k, v := range s.entries {
		next.entries[k] = v
	}
	return next
}

// Registry is the writer-side API for component C2, described in
// spec.md §4.2: intern, set_text, set_metadata, register_as_schema,
// register_as_document, deregister. It owns the database's FileRegistry
// input plus a per-entry map of independently-settable content/metadata
// inputs. Mutators must only be called from the engine host (C9), inside
// a store.Database.Mutate callback.
type Registry struct {
	db *store.Database

	// internMu guards uri interning and id assignment only; it is a
	// writer-side bookkeeping lock, never held across a query read.
	internMu sync.Mutex
	byUri    map[FileUri]FileId
	nextID   FileId

	state *store.Input[registryState]
}

// NewRegistry constructs an empty registry bound to db.
func NewRegistry(db *store.Database) *Registry {
	return &Registry{
		db:    db,
		byUri: make(map[FileUri]FileId),
		state: store.NewInput(db, "file_registry", registryState{
			schema:   map[FileId]struct{}{},
			document: map[FileId]struct{}{},
			entries:  map[FileId]*fileEntry{},
		}),
	}
}

// Intern returns the stable FileId for uri, assigning a new one on first
// sight. The returned entry starts with empty content and KindUnknown
// metadata until SetText/SetMetadata are called. Call only within a
// Database.Mutate callback.
func (r *Registry) Intern(rev store.Revision, uri FileUri) FileId {
	r.internMu.Lock()
	if id, ok := r.byUri[uri]; ok {
		r.internMu.Unlock()
		return id
	}
	id := r.nextID
	r.nextID++
	r.byUri[uri] = id
	r.internMu.Unlock()

	e := &fileEntry{
		content:  store.NewInput(r.db, fmt.Sprintf("file_content(%s)", uri), ""),
		metadata: store.NewInput(r.db, fmt.Sprintf("file_metadata(%s)", uri), FileMetadata{Uri: uri, Kind: KindUnknown}),
	}

	cur := r.state.Get(noRecordContext(rev))
	next := cur.clone()
	next.entries[id] = e
	r.state.Set(rev, next)
	return id
}

// SetText replaces the full UTF-8 content of id. This is the only
// primitive source of change detection in the system (spec.md §3
// "FileContent"); it updates only this file's content cell, leaving the
// registry's own Input untouched so other files' queries stay cache-hits.
func (r *Registry) SetText(rev store.Revision, id FileId, text string) {
	e := r.entryFor(rev, id)
	if e == nil {
		return
	}
	e.content.Set(rev, text)
}

// SetMetadata replaces id's (uri, kind) pair. Call register_as_schema /
// register_as_document separately to move id between the registry's
// membership sets; SetMetadata alone does not change set membership.
func (r *Registry) SetMetadata(rev store.Revision, id FileId, md FileMetadata) {
	e := r.entryFor(rev, id)
	if e == nil {
		return
	}
	e.metadata.Set(rev, md)
}

// RegisterAsSchema moves id into the schema set, removing it from the
// document set first if present (a FileId is in at most one set at a
// time, spec.md §4.2).
func (r *Registry) RegisterAsSchema(rev store.Revision, id FileId) {
	r.mutateMembership(rev, func(s *registryState) {
		delete(s.document, id)
		s.schema[id] = struct{}{}
	})
}

// RegisterAsDocument moves id into the document set.
func (r *Registry) RegisterAsDocument(rev store.Revision, id FileId) {
	r.mutateMembership(rev, func(s *registryState) {
		delete(s.schema, id)
		s.document[id] = struct{}{}
	})
}

// Deregister removes id from whichever membership set it's in. The
// fileEntry itself (and the FileId) remain valid and addressable —
// interning is permanent — but id no longer appears in either
// SchemaFiles or DocumentFiles.
func (r *Registry) Deregister(rev store.Revision, id FileId) {
	r.mutateMembership(rev, func(s *registryState) {
		delete(s.schema, id)
		delete(s.document, id)
	})
}

func (r *Registry) mutateMembership(rev store.Revision, fn func(s *registryState)) {
	cur := r.state.Get(noRecordContext(rev))
	next := cur.clone()
	fn(&next)
	r.state.Set(rev, next)
}

func (r *Registry) entryFor(rev store.Revision, id FileId) *fileEntry {
	cur := r.state.Get(noRecordContext(rev))
	return cur.entries[id]
}

// noRecordContext builds a throwaway Context for writer-side reads of
// the registry's own Input during a mutation. It never escapes the
// writer and is never handed to a query, so recording dependencies
// against it would be meaningless; deps is left nil so Get's recordDep
// call is a no-op.
func noRecordContext(rev store.Revision) *store.Context {
	return store.WriterContext(rev)
}

// SchemaFiles returns the current schema-set FileIds, recording a
// dependency on the registry. Order is unspecified; callers that need
// determinism (e.g. merged_schema) must sort explicitly.
func (r *Registry) SchemaFiles(ctx *store.Context) []FileId {
	s := r.state.Get(ctx)
	out := make([]FileId, 0, len(s.schema))
	for id := range s.schema {
		out = append(out, id)
	}
	return out
}

// DocumentFiles returns the current document-set FileIds.
func (r *Registry) DocumentFiles(ctx *store.Context) []FileId {
	s := r.state.Get(ctx)
	out := make([]FileId, 0, len(s.document))
	for id := range s.document {
		out = append(out, id)
	}
	return out
}

// Lookup resolves a uri to its interned FileId, if any. This is the
// inverse of Uri, used by the IDE surface (C8) to translate an editor
// request's FileUri into the FileId every internal query is keyed by.
func (r *Registry) Lookup(uri FileUri) (FileId, bool) {
	r.internMu.Lock()
	defer r.internMu.Unlock()
	id, ok := r.byUri[uri]
	return id, ok
}

// Uri returns the FileUri a FileId was interned with. Uris never change
// for a given FileId (spec.md §3 "FileUri").
func (r *Registry) Uri(ctx *store.Context, id FileId) (FileUri, bool) {
	s := r.state.Get(ctx)
	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.metadata.Get(ctx).Uri, true
}

// Content reads id's current text, recording a dependency only on that
// file's content cell — not on the registry or on any other file.
func (r *Registry) Content(ctx *store.Context, id FileId) (string, bool) {
	s := r.state.Get(ctx)
	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.content.Get(ctx), true
}

// Metadata reads id's current (uri, kind) pair.
func (r *Registry) Metadata(ctx *store.Context, id FileId) (FileMetadata, bool) {
	s := r.state.Get(ctx)
	e, ok := s.entries[id]
	if !ok {
		return FileMetadata{}, false
	}
	return e.metadata.Get(ctx), true
}

// Entry reads both the content and metadata of id in one call.
func (r *Registry) Entry(ctx *store.Context, id FileId) (Entry, bool) {
	content, ok := r.Content(ctx, id)
	if !ok {
		return Entry{}, false
	}
	md, _ := r.Metadata(ctx, id)
	return Entry{Content: content, Metadata: md}, true
}

// SniffKind makes a best-effort guess at a file's kind from its
// extension alone. ".graphql"/".graphqls"/".gql" files are ambiguous
// between SchemaGraphQL and ExecutableGraphQL — the caller must resolve
// that ambiguity from workspace config (schema vs. documents glob
// membership), so SniffKind reports KindUnknown with ambiguous=true
// for those extensions rather than guessing.
func SniffKind(uri FileUri) (kind FileKind, ambiguous bool) {
	ext := strings.ToLower(filepath.Ext(string(uri)))
	switch ext {
	case ".ts", ".tsx", ".mts", ".cts":
		return TypeScriptLike, false
	case ".js", ".jsx", ".mjs", ".cjs":
		return JavaScriptLike, false
	case ".graphql", ".graphqls", ".gql":
		return KindUnknown, true
	default:
		return KindUnknown, false
	}
}
