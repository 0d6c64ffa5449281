package store

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Func is the shape of a query's compute function: a pure function of
// the values it reads through ctx (other Inputs or Queries).
type Func[K comparable, V any] func(ctx *Context, key K) (V, error)

// EqualFunc reports whether two query results should be considered
// equal for the purposes of "durable equality" (spec.md §4.1): when a
// recomputed value compares equal to the previous one, downstream
// consumers are not invalidated even though this query itself
// re-executed.
type EqualFunc[V any] func(a, b V) bool

// Query is a named, memoized, demand-driven function from K to V,
// backed by a Database. Construct one per logically distinct query in
// the system (file_structure, merged_schema, operation_body, ...);
// Query values are typically held as fields on a larger "queries"
// struct that mirrors spec.md's C5-C8 query groups.
type Query[K comparable, V any] struct {
	db      *Database
	name    string
	compute Func[K, V]
	equal   EqualFunc[V]

	mu      sync.RWMutex
	entries map[K]*entry[V]

	group singleflight.Group
}

type entry[V any] struct {
	mu         sync.Mutex
	has        bool
	value      V
	verifiedAt Revision
	changedAt  Revision
	deps       []depNode
}

// New constructs a Query. If equal is nil, values are never considered
// durably equal across revisions (every recomputation is treated as a
// change) — callers that want the golden-invariant-style invalidation
// damping should supply a structural equality function (see
// store.DeepEqual).
func New[K comparable, V any](db *Database, name string, compute Func[K, V], equal EqualFunc[V]) *Query[K, V] {
	if equal == nil {
		equal = func(a, b V) bool { return false }
	}
	return &Query[K, V]{db: db, name: name, compute: compute, equal: equal, entries: make(map[K]*entry[V])}
}

func (q *Query[K, V]) entryFor(key K) *entry[V] {
	q.mu.RLock()
	e, ok := q.entries[key]
	q.mu.RUnlock()
	if ok {
		return e
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[key]; ok {
		return e
	}
	e = &entry[V]{}
	q.entries[key] = e
	return e
}

// Get demands the value for key, revalidating or recomputing as needed
// per spec.md §4.1's three-step lookup rule, and returns a *Cancelled
// or *CycleError in place of a domain error when applicable.
func (q *Query[K, V]) Get(ctx *Context, key K) (V, error) {
	var zero V
	if err := ctx.Checkpoint(); err != nil {
		return zero, err
	}

	keyStr := fmt.Sprintf("%#v", key)
	child, err := ctx.pushFrame(frame{query: q.name, key: keyStr})
	if err != nil {
		return zero, err
	}

	ctx.recordDep(queryDep[K, V]{q: q, key: key})

	cur := q.db.currentRevision()
	e := q.entryFor(key)

	e.mu.Lock()
	if e.has && e.verifiedAt == cur {
		v := e.value
		e.mu.Unlock()
		return v, nil
	}
	hadPrior := e.has
	deps := append([]depNode(nil), e.deps...)
	e.mu.Unlock()

	if hadPrior {
		stillValid := true
		for _, d := range deps {
			dch, derr := d.changedAt(child)
			if derr != nil {
				return zero, derr
			}
			e.mu.Lock()
			stale := dch > e.verifiedAt
			e.mu.Unlock()
			if stale {
				stillValid = false
				break
			}
		}
		if stillValid {
			e.mu.Lock()
			e.verifiedAt = cur
			v := e.value
			e.mu.Unlock()
			return v, nil
		}
	}

	viface, sfErr, _ := q.group.Do(keyStr, func() (interface{}, error) {
		computeCtx := child.forCompute()
		v, cerr := q.compute(computeCtx, key)
		if cerr != nil {
			return nil, cerr
		}
		if t := q.db.tracker; t != nil {
			t.Record(q.name, keyStr)
		}
		e.mu.Lock()
		changedAt := cur
		if e.has && q.equal(e.value, v) {
			changedAt = e.changedAt
		}
		e.has = true
		e.value = v
		e.verifiedAt = cur
		e.changedAt = changedAt
		e.deps = *computeCtx.deps
		e.mu.Unlock()
		return v, nil
	})
	if sfErr != nil {
		return zero, sfErr
	}
	return viface.(V), nil
}

// Peek returns the last computed value for key without validating or
// recomputing it, and whether one exists. Used by tracking/debug
// tooling, never by query compute functions themselves.
func (q *Query[K, V]) Peek(key K) (V, bool) {
	var zero V
	q.mu.RLock()
	e, ok := q.entries[key]
	q.mu.RUnlock()
	if !ok {
		return zero, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.has
}

// queryDep is the depNode adapter recorded against a caller's
// dependency list whenever Query.Get is invoked.
type queryDep[K comparable, V any] struct {
	q   *Query[K, V]
	key K
}

func (d queryDep[K, V]) changedAt(ctx *Context) (Revision, error) {
	if _, err := d.q.Get(ctx, d.key); err != nil {
		return 0, err
	}
	e := d.q.entryFor(d.key)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changedAt, nil
}

func (d queryDep[K, V]) label() string { return fmt.Sprintf("query:%s", d.q.name) }
