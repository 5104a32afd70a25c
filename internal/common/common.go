// Package common holds the element type model shared by every stream,
// tree, heap, and sort strategy: the fixed-width numeric type T, its
// on-disk big-endian encoding, and the file-span vocabulary (Span, Run)
// used throughout the engine.
package common

import (
	"encoding/binary"
	"math"
)

// Numeric is the set of fixed-width, totally ordered element types the
// engine can sort. Variable-width records and external comparators are
// not supported.
type Numeric interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// Sizeof returns the on-disk size in bytes of T.
func Sizeof[T Numeric]() int {
	var zero T
	switch any(zero).(type) {
	case int32, float32:
		return 4
	default:
		return 8
	}
}

// Encode writes x into buf in big-endian order. buf must have at least
// Sizeof[T]() bytes.
func Encode[T Numeric](x T, buf []byte) {
	switch v := any(x).(type) {
	case int32:
		binary.BigEndian.PutUint32(buf, uint32(v))
	case float32:
		binary.BigEndian.PutUint32(buf, math.Float32bits(v))
	case int64:
		binary.BigEndian.PutUint64(buf, uint64(v))
	case float64:
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	}
}

// Decode reads a value of T out of buf, which must hold at least
// Sizeof[T]() bytes.
func Decode[T Numeric](buf []byte) T {
	var zero T
	switch any(zero).(type) {
	case int32:
		return any(int32(binary.BigEndian.Uint32(buf))).(T)
	case float32:
		return any(math.Float32frombits(binary.BigEndian.Uint32(buf))).(T)
	case int64:
		return any(int64(binary.BigEndian.Uint64(buf))).(T)
	case float64:
		return any(math.Float64frombits(binary.BigEndian.Uint64(buf))).(T)
	}
	return zero
}

// EncodeBatch packs elems into a freshly allocated byte slice, one
// element at a time, matching the on-disk layout of a data file.
func EncodeBatch[T Numeric](elems []T) []byte {
	sz := Sizeof[T]()
	buf := make([]byte, len(elems)*sz)
	for i, x := range elems {
		Encode(x, buf[i*sz:])
	}
	return buf
}

// DecodeBatch unpacks buf (a whole number of elements) into a freshly
// allocated slice.
func DecodeBatch[T Numeric](buf []byte) []T {
	sz := Sizeof[T]()
	n := len(buf) / sz
	out := make([]T, n)
	for i := range out {
		out[i] = Decode[T](buf[i*sz:])
	}
	return out
}

// Compare orders a and b, matching the three-way contract
// slices.SortFunc expects.
func Compare[T Numeric](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Span is a half-open element interval [First, Last).
type Span struct {
	First int64
	Last  int64
}

// Len returns the number of elements in the span.
func (s Span) Len() int64 { return s.Last - s.First }

// Run names a maximal sorted subsequence produced by replacement
// selection: Length elements starting at Offset in the runs file.
type Run struct {
	Length int64
	Offset int64
}
