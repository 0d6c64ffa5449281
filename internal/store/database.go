package store

import "sync"

// Database owns the current revision and the cancellation token readers
// check against. It holds no input values itself — those live in Input
// cells constructed against it — which keeps the Database generic and
// reusable for any set of inputs/queries (spec.md §4.1, §9 "Global
// mutable state is confined to the Host").
type Database struct {
	mu       sync.Mutex
	revision Revision
	cancel   *cancelToken

	tracker Tracker // optional, nil unless tracking hooks are enabled (C10)
}

// New constructs a Database at revision 1 (revision 0 is never issued,
// so it compares < any real revision; a new Input starts out changed
// at the revision current when it was constructed).
func New() *Database {
	return &Database{revision: 1, cancel: newCancelToken()}
}

// SetTracker installs the optional per-query execution tracker (C10).
// Not safe to call concurrently with reads/writes; set it once at
// startup before the first Snapshot is taken.
func (db *Database) SetTracker(t Tracker) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tracker = t
}

func (db *Database) currentRevision() Revision {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.revision
}

// Mutate applies fn, which should call Set on one or more Input cells,
// as a single atomic revision bump: the revision advances exactly once,
// and any snapshot taken before this call observes the prior revision
// while being cancelled at its very next suspension point. Mutate is
// the only primitive source of change detection in the system (spec.md
// §3's FileContent note, generalized to any input).
func (db *Database) Mutate(fn func(rev Revision)) Revision {
	db.mu.Lock()
	db.revision++
	rev := db.revision
	old := db.cancel
	db.cancel = newCancelToken()
	db.mu.Unlock()

	fn(rev)

	old.cancel()
	return rev
}

// Snapshot returns an immutable handle bound to the current revision.
// Snapshots are cheap: a revision number plus a reference to the shared
// cancellation token and Database (spec.md §4.9, §9).
func (db *Database) Snapshot() *Snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return &Snapshot{db: db, revision: db.revision, cancel: db.cancel}
}

// Snapshot is an immutable, cheaply cloneable view bound to one
// revision of the input set.
type Snapshot struct {
	db       *Database
	revision Revision
	cancel   *cancelToken
}

// Revision reports the revision this snapshot is bound to.
func (s *Snapshot) Revision() Revision { return s.revision }

// Cancelled reports whether a newer write has superseded this snapshot.
func (s *Snapshot) Cancelled() bool { return s.cancel.cancelled() }

// NewContext starts a fresh top-level query read bound to this
// snapshot.
func (s *Snapshot) NewContext() *Context {
	return &Context{db: s.db, cancel: s.cancel, revision: s.revision}
}
