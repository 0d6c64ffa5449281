package store

import (
	"fmt"
	"sync"
)

// Input is a primitive, directly-settable value cell: the only kind of
// node in the dependency graph that a writer (as opposed to a query) may
// mutate (spec.md §3, §4.2). FileContent, FileMetadata and FileRegistry
// are all Inputs.
type Input[T any] struct {
	db   *Database
	name string

	mu        sync.RWMutex
	value     T
	changedAt Revision
}

// NewInput constructs an Input cell holding initial, considered changed
// at the Database's current revision.
func NewInput[T any](db *Database, name string, initial T) *Input[T] {
	return &Input[T]{db: db, name: name, value: initial, changedAt: db.currentRevision()}
}

// Get reads the current value, recording a dependency on this cell in
// ctx if ctx is itself inside a query's compute function.
func (in *Input[T]) Get(ctx *Context) T {
	ctx.recordDep(in)
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value
}

// Set replaces the value as part of a Database.Mutate call. It is a
// programmer error to call Set outside of Mutate; doing so would change
// the input without bumping the revision other readers validate
// against.
func (in *Input[T]) Set(rev Revision, v T) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = v
	in.changedAt = rev
}

// changedAt implements depNode.
func (in *Input[T]) changedAt(ctx *Context) (Revision, error) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.changedAt, nil
}

func (in *Input[T]) label() string { return fmt.Sprintf("input:%s", in.name) }
