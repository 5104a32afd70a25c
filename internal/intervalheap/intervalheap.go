// Package intervalheap implements the interval heap double-ended
// priority queue backing external quicksort's in-memory middle group.
// Even slots hold the "small" side of a pair, odd slots the "large"
// side; slots 0 and 1 form the root pair, holding the global minimum
// and maximum. With an odd element count the last slot is a lone
// element that serves as both ends of its pair.
package intervalheap

import (
	"cmp"

	"github.com/qysort/extsort/internal/sorterr"
)

// IntervalHeap is a double-ended priority queue backed by a single
// slice, where each adjacent pair (2i, 2i+1) forms an interval and pair
// i's interval nests inside pair parent(i)'s interval.
type IntervalHeap[T cmp.Ordered] struct {
	data []T
}

// New constructs an empty interval heap.
func New[T cmp.Ordered]() *IntervalHeap[T] {
	return &IntervalHeap[T]{}
}

// NewFromSlice builds an interval heap in place from elems, reordering
// elems in O(n).
func NewFromSlice[T cmp.Ordered](elems []T) *IntervalHeap[T] {
	h := &IntervalHeap[T]{data: elems}
	h.makeHeap()
	return h
}

// Empty reports whether the heap holds no elements.
func (h *IntervalHeap[T]) Empty() bool { return len(h.data) == 0 }

// Len reports the number of elements currently held.
func (h *IntervalHeap[T]) Len() int { return len(h.data) }

// TopMin returns the minimum element.
func (h *IntervalHeap[T]) TopMin() (T, error) {
	var zero T
	if len(h.data) == 0 {
		return zero, sorterr.ErrEmpty
	}
	return h.data[0], nil
}

// TopMax returns the maximum element.
func (h *IntervalHeap[T]) TopMax() (T, error) {
	var zero T
	switch len(h.data) {
	case 0:
		return zero, sorterr.ErrEmpty
	case 1:
		return h.data[0], nil
	default:
		return h.data[1], nil
	}
}

// Push inserts x, keeping it paired with the heap's current odd-length
// tail slot if that keeps the last pair's interval consistent.
func (h *IntervalHeap[T]) Push(x T) {
	L := len(h.data)
	var loIndex int
	if L&1 == 1 && x < h.data[L-1] {
		// x becomes the pair's small side, displacing the former lone
		// value into the newly completed pair's large side.
		t := h.data[L-1]
		h.data[L-1] = x
		h.data = append(h.data, t)
		loIndex = L - 1
	} else {
		h.data = append(h.data, x)
		loIndex = L - L%2
	}
	// Restore the heap along the path from the newly touched pair up to
	// the root. adjustHeap assumes everything below its hole is already
	// valid, which holds at every level here: below loIndex nothing has
	// changed yet, and each iteration only re-settles the pair it just
	// altered before moving up to its parent.
	for {
		n := len(h.data)
		h.adjustHeap(loIndex, h.data[loIndex], greater)
		if loIndex+1 < n {
			h.adjustHeap(loIndex+1, h.data[loIndex+1], less)
		}
		if loIndex == 0 {
			return
		}
		loIndex = parent(loIndex)
	}
}

// PopMin removes and discards the minimum element.
func (h *IntervalHeap[T]) PopMin() error {
	switch len(h.data) {
	case 0:
		return sorterr.ErrEmpty
	case 1:
		h.data = h.data[:0]
		return nil
	default:
		h.popHeap(0, len(h.data)-1, greater)
		return nil
	}
}

// PopMax removes and discards the maximum element.
func (h *IntervalHeap[T]) PopMax() error {
	switch len(h.data) {
	case 0:
		return sorterr.ErrEmpty
	case 1:
		h.data = h.data[:0]
		return nil
	case 2:
		// The lone pair's large side is going away, leaving its small
		// side — already the root — as the sole remaining element.
		// popHeap's generic sift has no hole to fill here, since the
		// slot it would sift into is the one just truncated away.
		h.data = h.data[:1]
		return nil
	default:
		h.popHeap(1, len(h.data)-1, less)
		return nil
	}
}

func less[T cmp.Ordered](a, b T) bool    { return a < b }
func greater[T cmp.Ordered](a, b T) bool { return a > b }

func leftChild(i int) int  { return (i << 1) + 2 - (i & 1) }
func rightChild(i int) int { return (i << 1) + 4 - (i & 1) }
func parent(i int) int     { return i - (i>>2)<<1 - 2 }

// adjustHeap restores the heap property in the subtree rooted at
// holeIndex, given that everything below holeIndex already satisfies
// both the pairing and nesting invariants and only holeIndex's own
// pairing against its sibling might not. value is checked against the
// sibling on every iteration — not just descended past it — because a
// value pulled up from a child can just as easily break pairing with
// holeIndex's sibling as it can break nesting with holeIndex's parent.
func (h *IntervalHeap[T]) adjustHeap(holeIndex int, value T, cmp func(a, b T) bool) {
	n := len(h.data)
	for {
		if sib := holeIndex ^ 1; sib < n && cmp(value, h.data[sib]) {
			value, h.data[sib] = h.data[sib], value
		}
		firstChild := leftChild(holeIndex)
		secondChild := rightChild(holeIndex)
		if holeIndex&1 == 1 {
			// A lone trailing element has no max slot of its own; it
			// bounds its pair from above too, so on the max side it
			// stands in for the missing max-slot child.
			if firstChild == n {
				firstChild = n - 1
			} else if secondChild == n {
				secondChild = n - 1
			}
		}
		if firstChild >= n {
			break
		}
		if secondChild < n && cmp(h.data[firstChild], h.data[secondChild]) {
			firstChild = secondChild
		}
		if !cmp(value, h.data[firstChild]) {
			break
		}
		h.data[holeIndex] = h.data[firstChild]
		holeIndex = firstChild
	}
	h.data[holeIndex] = value
}

func (h *IntervalHeap[T]) popHeap(topIndex, resultIndex int, cmp func(a, b T) bool) {
	value := h.data[resultIndex]
	h.data = h.data[:resultIndex]
	h.adjustHeap(topIndex, value, cmp)
}

func (h *IntervalHeap[T]) makeHeap() {
	n := len(h.data)
	for p := n - 1; p > 0; p-- {
		if p&1 == 1 && h.data[p] < h.data[p-1] {
			h.data[p], h.data[p-1] = h.data[p-1], h.data[p]
		}
	}
	for p := ((n+2)>>2)<<1 - 1; p >= 0; p-- {
		value := h.data[p]
		if p&1 == 1 {
			h.adjustHeap(p, value, less)
		} else {
			h.adjustHeap(p, value, greater)
		}
	}
}

// Validate checks the interval and nesting invariants, returning the
// first violation found. Intended for tests.
func (h *IntervalHeap[T]) Validate() error {
	for i := 1; i < len(h.data); i += 2 {
		if h.data[i] < h.data[i-1] {
			return sorterr.ErrInvariant
		}
	}
	for i := 2; i < len(h.data); i++ {
		if i&1 == 1 {
			if h.data[parent(i)] < h.data[i] {
				return sorterr.ErrInvariant
			}
		} else {
			if h.data[parent(i)] > h.data[i] {
				return sorterr.ErrInvariant
			}
			if i == len(h.data)-1 && h.data[parent(i)+1] < h.data[i] {
				// A lone trailing element is also its pair's max.
				return sorterr.ErrInvariant
			}
		}
	}
	return nil
}
