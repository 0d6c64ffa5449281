package store

import "github.com/google/go-cmp/cmp"

// DeepEqual is the default structural-equality EqualFunc for query
// results: it's what gives downstream queries "durable equality" (spec
// §4.1) across revisions — equal values returned by a recomputation
// are treated as no-change even though the query itself re-ran. Value
// types used as query results should stick to exported fields so cmp
// can compare them without an Exporter option.
func DeepEqual[V any](a, b V) bool {
	return cmp.Equal(a, b)
}
