package intervalheap

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/qysort/extsort/internal/sorterr"
)

func TestEmptyHeap(t *testing.T) {
	h := New[int]()
	if !h.Empty() {
		t.Fatal("freshly constructed heap should be empty")
	}
	if _, err := h.TopMin(); !errors.Is(err, sorterr.ErrEmpty) {
		t.Errorf("TopMin on empty heap: got %v, want ErrEmpty", err)
	}
	if _, err := h.TopMax(); !errors.Is(err, sorterr.ErrEmpty) {
		t.Errorf("TopMax on empty heap: got %v, want ErrEmpty", err)
	}
}

func TestPushTracksMinAndMax(t *testing.T) {
	h := New[int]()
	values := []int{5, 3, 8, 1, 9, 2, 7}
	for _, v := range values {
		h.Push(v)
		if err := h.Validate(); err != nil {
			t.Fatalf("invariant violated after pushing %d: %v", v, err)
		}
	}
	min, err := h.TopMin()
	if err != nil || min != 1 {
		t.Errorf("TopMin() = %v, %v, want 1, nil", min, err)
	}
	max, err := h.TopMax()
	if err != nil || max != 9 {
		t.Errorf("TopMax() = %v, %v, want 9, nil", max, err)
	}
	if h.Len() != len(values) {
		t.Errorf("Len() = %d, want %d", h.Len(), len(values))
	}
}

func TestSingleElement(t *testing.T) {
	h := New[int]()
	h.Push(42)
	min, err := h.TopMin()
	if err != nil || min != 42 {
		t.Errorf("TopMin() = %v, %v, want 42, nil", min, err)
	}
	max, err := h.TopMax()
	if err != nil || max != 42 {
		t.Errorf("TopMax() = %v, %v, want 42, nil", max, err)
	}
}

func TestNewFromSliceBuildsValidHeap(t *testing.T) {
	elems := []int{9, 3, 7, 1, 8, 2, 6, 4, 5, 0}
	h := NewFromSlice(elems)
	if err := h.Validate(); err != nil {
		t.Fatalf("NewFromSlice produced invalid heap: %v", err)
	}
	min, _ := h.TopMin()
	max, _ := h.TopMax()
	if min != 0 {
		t.Errorf("TopMin() = %d, want 0", min)
	}
	if max != 9 {
		t.Errorf("TopMax() = %d, want 9", max)
	}
}

func TestDrainBothEndsProducesSortedOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	elems := make([]int, 50)
	for i := range elems {
		elems[i] = rng.Intn(1000)
	}
	h := NewFromSlice(append([]int(nil), elems...))

	var mins, maxs []int
	for !h.Empty() {
		if h.Len()%2 == 0 {
			v, err := h.TopMax()
			if err != nil {
				t.Fatal(err)
			}
			maxs = append(maxs, v)
			if err := h.PopMax(); err != nil {
				t.Fatal(err)
			}
		} else {
			v, err := h.TopMin()
			if err != nil {
				t.Fatal(err)
			}
			mins = append(mins, v)
			if err := h.PopMin(); err != nil {
				t.Fatal(err)
			}
		}
		if err := h.Validate(); err != nil {
			t.Fatalf("invariant violated with %d elements left: %v", h.Len(), err)
		}
	}
	for i := 1; i < len(mins); i++ {
		if mins[i-1] > mins[i] {
			t.Fatalf("mins not ascending: %v", mins)
		}
	}
	for i := 1; i < len(maxs); i++ {
		if maxs[i-1] < maxs[i] {
			t.Fatalf("maxs not descending: %v", maxs)
		}
	}
	if len(mins)+len(maxs) != len(elems) {
		t.Fatalf("got %d total pops, want %d", len(mins)+len(maxs), len(elems))
	}
}

func TestPushRandomSequenceStaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	h := New[int]()
	var elems []int
	for i := 0; i < 500; i++ {
		v := rng.Intn(1000)
		elems = append(elems, v)
		h.Push(v)
		if err := h.Validate(); err != nil {
			t.Fatalf("invariant violated after pushing %d (n=%d): %v", v, i+1, err)
		}
	}
	min, _ := h.TopMin()
	max, _ := h.TopMax()
	wantMin, wantMax := elems[0], elems[0]
	for _, v := range elems {
		if v < wantMin {
			wantMin = v
		}
		if v > wantMax {
			wantMax = v
		}
	}
	if min != wantMin {
		t.Errorf("TopMin() = %d, want %d", min, wantMin)
	}
	if max != wantMax {
		t.Errorf("TopMax() = %d, want %d", max, wantMax)
	}
}

func TestPopMinThenPopMax(t *testing.T) {
	h := New[int]()
	for _, v := range []int{10, 20, 30, 40, 50} {
		h.Push(v)
		if err := h.Validate(); err != nil {
			t.Fatalf("invariant violated after pushing %d: %v", v, err)
		}
	}
	if err := h.PopMin(); err != nil {
		t.Fatal(err)
	}
	min, _ := h.TopMin()
	if min != 20 {
		t.Errorf("after PopMin, TopMin() = %d, want 20", min)
	}
	if err := h.PopMax(); err != nil {
		t.Fatal(err)
	}
	max, _ := h.TopMax()
	if max != 40 {
		t.Errorf("after PopMax, TopMax() = %d, want 40", max)
	}
}
