// Package toprank selects the K highest-count packages from a frequency
// table using a bounded min-heap, O(N log K) for N distinct packages.
package toprank

import (
	"container/heap"

	"github.com/pkgstat/pkgstat/pkg/pkgcount"
)

// Entry is one ranked (package, count) pair.
type Entry struct {
	Package string
	Count   uint64
}

// less orders entries by rank strength: higher count ranks higher, and on
// equal counts the lexicographically smaller identifier ranks higher. The
// tie-break makes the ranking a deterministic total order regardless of the
// table's map iteration order.
func less(a, b Entry) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Package < b.Package
}

// entryHeap is a min-heap by rank strength: the root is the weakest entry
// currently retained, so it is the one evicted when a stronger entry arrives.
type entryHeap []Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return less(h[j], h[i]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Top returns the k strongest entries of the table, rank 1 first: count
// descending, identifier ascending on ties. When the table has fewer than k
// distinct packages, all of them are returned. k <= 0 returns an empty slice.
//
// The heap never holds more than k entries, so ranking a table of N packages
// costs O(N log K) time and O(K) additional memory.
func Top(table *pkgcount.Table, k int) []Entry {
	if k <= 0 || table.Len() == 0 {
		return []Entry{}
	}

	h := make(entryHeap, 0, k)
	for pkg, count := range table.All {
		e := Entry{Package: pkg, Count: count}
		if len(h) < k {
			heap.Push(&h, e)
			continue
		}
		if less(e, h[0]) {
			h[0] = e
			heap.Fix(&h, 0)
		}
	}

	// Popping the min-heap yields weakest-first; fill the result backwards.
	ranked := make([]Entry, len(h))
	for i := len(ranked) - 1; i >= 0; i-- {
		ranked[i] = heap.Pop(&h).(Entry)
	}
	return ranked
}
