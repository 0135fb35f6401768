// Package pkgcount accumulates per-package file counts from a Contents
// record stream.
package pkgcount

import (
	"github.com/pkgstat/pkgstat/pkg/contents"
)

// Table maps package identifiers to the number of files they claim.
//
// Table is NOT safe for concurrent use. For parallel aggregation, run one
// Table per independent input shard and combine the results with Merge; never
// share one live Table across goroutines.
type Table struct {
	counts map[string]uint64

	// records is the number of Contents records folded in.
	records int64

	// observations is the number of (record, qualifier) pairs counted.
	// By construction it always equals the sum of all counts.
	observations int64
}

// NewTable creates an empty Table with the given initial capacity hint.
func NewTable(initialCapacity int) *Table {
	if initialCapacity <= 0 {
		initialCapacity = 1 << 16
	}
	return &Table{counts: make(map[string]uint64, initialCapacity)}
}

// Observe folds one record into the table: every qualifier in the record is
// incremented by 1, with absent keys created at 1. Observe is a counting
// fold, deliberately not idempotent.
func (t *Table) Observe(rec contents.Record) {
	t.records++
	for _, pkg := range rec.Packages {
		t.counts[pkg]++
		t.observations++
	}
}

// Count returns the current count for a package identifier (0 when absent).
func (t *Table) Count(pkg string) uint64 {
	return t.counts[pkg]
}

// Len returns the number of distinct package identifiers.
func (t *Table) Len() int {
	return len(t.counts)
}

// Records returns the number of records observed.
func (t *Table) Records() int64 {
	return t.records
}

// Observations returns the number of (record, qualifier) pairs counted.
func (t *Table) Observations() int64 {
	return t.observations
}

// All iterates over every (package, count) pair in map order.
func (t *Table) All(yield func(pkg string, count uint64) bool) {
	for pkg, count := range t.counts {
		if !yield(pkg, count) {
			return
		}
	}
}

// Merge adds every count from other into t. Used to combine tables built
// over independent input shards; addition makes the combined table identical
// to one built over the concatenated input.
func (t *Table) Merge(other *Table) {
	for pkg, count := range other.counts {
		t.counts[pkg] += count
	}
	t.records += other.records
	t.observations += other.observations
}

// EstimatedMemoryBytes returns a coarse estimate of the table's resident
// memory. Per entry: map bucket overhead (~48B), the identifier string
// header+bytes (~40B average for section/name identifiers), and the count.
func (t *Table) EstimatedMemoryBytes() int64 {
	const bytesPerEntry = 96
	return int64(len(t.counts)) * bytesPerEntry
}
