package store

import "fmt"

// depNode is anything the Store can ask "at what revision did you last
// actually change", recursively revalidating itself (and its own
// dependencies) as part of answering. Input cells and Query memo slots
// both implement it.
type depNode interface {
	changedAt(ctx *Context) (Revision, error)
	label() string
}

// frame identifies one in-flight query execution, for cycle detection.
type frame struct {
	query string
	key   string
}

// Context is threaded through every query computation. It carries the
// snapshot's cancellation token, the in-flight call stack (for cycle
// detection), and — while a particular query's compute function is
// running — the slice that accumulates the dependencies it reads.
//
// A Context is never shared in-place across concurrent query
// executions: each recursive demand gets its own (copied) stack and,
// when it triggers a recomputation, its own fresh deps accumulator. The
// only thing multiple contexts ever share is the *Database and the
// cancellation token of the snapshot they were minted from.
type Context struct {
	db       *Database
	cancel   *cancelToken
	revision Revision
	stack    []frame
	deps     *[]depNode // nil outside of a query's compute function
}

// WriterContext builds a Context for writer-side reads of an Input cell
// made from inside a Database.Mutate callback (e.g. a registry
// re-reading its own state to apply a membership change). It records no
// dependencies, and its cancellation token is a fresh one that nothing
// ever cancels, since the writer is never itself subject to
// cancellation. It must never be handed to a
// query's compute function.
func WriterContext(rev Revision) *Context {
	return &Context{revision: rev, cancel: newCancelToken()}
}

// Revision returns the revision this context's snapshot is bound to.
func (ctx *Context) Revision() Revision { return ctx.revision }

// Checkpoint is the explicit cancellation checkpoint queries must call
// at least once per selection-set traversal and once per file iteration
// (spec.md §5). It returns a *Cancelled error when the writer has
// applied a newer mutation since this context's snapshot was taken.
func (ctx *Context) Checkpoint() error {
	if ctx.cancel.cancelled() {
		return &Cancelled{Revision: ctx.revision}
	}
	return nil
}

// recordDep appends a dependency to the currently-computing query's
// accumulator, if this context is inside one. Called by Input.Get and
// Query.Get regardless of whether the read was a cache hit.
func (ctx *Context) recordDep(d depNode) {
	if ctx.deps != nil {
		*ctx.deps = append(*ctx.deps, d)
	}
}

// pushFrame returns a child context with f appended to the call stack,
// or a *CycleError if f (by query name + key hash) already appears on
// it.
func (ctx *Context) pushFrame(f frame) (*Context, error) {
	for _, existing := range ctx.stack {
		if existing == f {
			chain := make([]string, 0, len(ctx.stack)+1)
			for _, fr := range ctx.stack {
				chain = append(chain, fmt.Sprintf("%s(%s)", fr.query, fr.key))
			}
			chain = append(chain, fmt.Sprintf("%s(%s)", f.query, f.key))
			return nil, &CycleError{Chain: chain}
		}
	}
	next := make([]frame, len(ctx.stack)+1)
	copy(next, ctx.stack)
	next[len(ctx.stack)] = f
	return &Context{db: ctx.db, cancel: ctx.cancel, revision: ctx.revision, stack: next, deps: ctx.deps}, nil
}

// forCompute returns a child context scoped to recording the
// dependencies of a single compute invocation. The caller reads back
// *child.deps once compute has returned to get the full dependency set.
func (ctx *Context) forCompute() *Context {
	d := make([]depNode, 0, 4)
	return &Context{db: ctx.db, cancel: ctx.cancel, revision: ctx.revision, stack: ctx.stack, deps: &d}
}
