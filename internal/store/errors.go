package store

import "fmt"

// Cancelled is returned by Get when the snapshot a query is running
// against has been superseded by a newer write. It is not a crash and
// not user-visible: callers re-issue the read on a fresh snapshot or
// drop the request (spec.md §5, §7).
type Cancelled struct {
	Revision Revision
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("query cancelled: revision %d superseded", e.Revision)
}

// IsCancelled reports whether err is (or wraps) a Cancelled signal.
func IsCancelled(err error) bool {
	_, ok := err.(*Cancelled)
	return ok
}

// CycleError is returned when a query's dependency chain demands itself,
// directly or transitively. Unlike Cancelled this is never an expected
// control-flow outcome: a cycle is a bug in query definitions and is
// meant to fail loudly (spec.md §4.1).
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	s := "query cycle detected: "
	for i, f := range e.Chain {
		if i > 0 {
			s += " -> "
		}
		s += f
	}
	return s
}
