// Package sorterr defines the sentinel error kinds surfaced by the sort
// engine (see the error table in the engine's design). Callers should
// match with errors.Is against these sentinels; wrapped context is
// added with fmt.Errorf("...: %w", ...) at the call site.
package sorterr

import "errors"

var (
	// ErrNotFound: the input path does not exist.
	ErrNotFound = errors.New("extsort: input file not found")
	// ErrIoOpen: the input, output, or a temp file could not be opened.
	ErrIoOpen = errors.New("extsort: failed to open file")
	// ErrIoRead: a positional read reported a short or failed count.
	ErrIoRead = errors.New("extsort: read failed")
	// ErrIoWrite: a positional write reported a short or failed count.
	ErrIoWrite = errors.New("extsort: write failed")
	// ErrEmpty: top_min/top_max/pop_min/pop_max called on an empty
	// interval heap.
	ErrEmpty = errors.New("extsort: interval heap is empty")
	// ErrNoFreeBuffer: a pooled reader's collect-allocate pass found a
	// way that needs refilling but the free list is empty.
	ErrNoFreeBuffer = errors.New("extsort: no free buffer available for pool refill")
	// ErrExhausted marks normal termination of a k-way merge once every
	// way's loser-tree leaf has become a sentinel. It is not a failure;
	// callers generally never see it escape a public function.
	ErrExhausted = errors.New("extsort: merge source exhausted")
	// ErrInvariant: a structural invariant check (interval heap nesting,
	// run ordering, ...) failed. Surfaced only from validation helpers
	// used in tests, never from normal operation.
	ErrInvariant = errors.New("extsort: invariant violated")
)
