// Package quicksort implements external quicksort: a three-way
// partition against an in-memory interval heap, with the small side
// written forward and the large side written backward into the same
// output file.
package quicksort

import (
	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/intervalheap"
	"github.com/qysort/extsort/internal/iobuf"
	"github.com/qysort/extsort/internal/logsink"
)

// quicksorter holds the three buffers and the middle-group heap shared
// across the whole recursion. inputBuf starts bound to the original
// input file and is rebound once, after the top-level partition, to the
// output handle — by then every remaining unsorted element already
// lives there (the original's finput/ftemp/foutput were three separate
// streams over what is really just two files; here smallBuf and
// largeBuf share a single output handle instead of opening the output
// path twice, since fhandle.SharedOutput already serialises concurrent
// positional access).
type quicksorter[T common.Numeric] struct {
	bufferSize int
	heapSize   int

	inputBuf *iobuf.ArrayBuf[T]
	smallBuf *iobuf.ArrayBuf[T]
	largeBuf *iobuf.ArrayBuf[T]

	outHandle  fhandle.PositionalIO
	middleHeap *intervalheap.IntervalHeap[T]

	sink logsink.Sink
}

// Sort external-quicksorts inputPath into outputPath. heapSize bounds
// the in-memory middle group; larger values mean fewer, larger
// partitions at the cost of more memory.
func Sort[T common.Numeric](inputPath, outputPath string, bufferSize, heapSize int, sink logsink.Sink) error {
	if sink == nil {
		sink = logsink.Nop{}
	}
	in, err := fhandle.OpenInput(inputPath)
	if err != nil {
		return err
	}
	size, err := in.FileSize()
	if err != nil {
		in.Close()
		return err
	}
	out, err := fhandle.OpenOutput(outputPath)
	if err != nil {
		in.Close()
		return err
	}
	if err := out.Truncate(size); err != nil {
		in.Close()
		out.Close()
		return err
	}

	qs := &quicksorter[T]{
		bufferSize: bufferSize,
		heapSize:   heapSize,
		inputBuf:   iobuf.NewArrayBuf[T](bufferSize, false),
		smallBuf:   iobuf.NewArrayBuf[T](bufferSize, false),
		largeBuf:   iobuf.NewArrayBuf[T](bufferSize, true),
		outHandle:  out,
		sink:       sink,
	}
	qs.inputBuf.Bind(in)
	qs.smallBuf.Bind(out)
	qs.largeBuf.Bind(out)

	totalElems := size / int64(common.Sizeof[T]())
	sortErr := qs.sortRange(0, totalElems, true)
	in.Close()
	if sortErr != nil {
		out.Close()
		return sortErr
	}
	sink.Record("quicksort.heap_size", heapSize)
	return out.Close()
}

// sortRange partitions [first, last) around the interval heap's
// min/max, writing values already known to be on the correct side
// straight to disk and recursing only on the two unresolved ends.
func (qs *quicksorter[T]) sortRange(first, last int64, initial bool) error {
	if first >= last {
		return nil
	}

	inputSize := min(last-first, int64(qs.bufferSize))
	if err := qs.inputBuf.Load(first, int(inputSize)); err != nil {
		return err
	}
	elems := make([]T, inputSize)
	for i := range elems {
		elems[i] = qs.inputBuf.At(i)
	}
	qs.middleHeap = intervalheap.NewFromSlice[T](elems)

	cur := first + inputSize
	for cur < last && cur-first < int64(qs.heapSize) {
		inputSize = min(last-cur, int64(qs.bufferSize))
		if err := qs.inputBuf.Load(cur, int(inputSize)); err != nil {
			return err
		}
		for i := int64(0); i < inputSize; i++ {
			qs.middleHeap.Push(qs.inputBuf.At(int(i)))
		}
		cur += inputSize
	}

	qs.largeBuf.SeekWrite(last)
	qs.smallBuf.SeekWrite(first)
	mid1, mid2, cur2 := first, last, last

	for cur < cur2 {
		if cur+int64(qs.bufferSize) >= cur2 || cur-mid1 <= mid2-cur2 {
			inputSize = min(int64(qs.bufferSize), cur2-cur)
			if err := qs.inputBuf.Load(cur, int(inputSize)); err != nil {
				return err
			}
			cur += inputSize
		} else {
			inputSize = int64(qs.bufferSize)
			cur2 -= inputSize
			if err := qs.inputBuf.Load(cur2, int(inputSize)); err != nil {
				return err
			}
		}
		for i := int64(0); i < inputSize; i++ {
			value := qs.inputBuf.At(int(i))
			tmin, err := qs.middleHeap.TopMin()
			if err != nil {
				return err
			}
			tmax, err := qs.middleHeap.TopMax()
			if err != nil {
				return err
			}
			switch {
			case value <= tmin:
				if err := qs.smallBuf.Write(value); err != nil {
					return err
				}
				mid1++
			case value >= tmax:
				if err := qs.largeBuf.Write(value); err != nil {
					return err
				}
				mid2--
			default:
				if err := qs.smallBuf.Write(tmin); err != nil {
					return err
				}
				mid1++
				if err := qs.middleHeap.PopMin(); err != nil {
					return err
				}
				qs.middleHeap.Push(value)
			}
		}
	}
	if err := qs.largeBuf.Dump(); err != nil {
		return err
	}

	for i := mid1; i < mid2; i++ {
		v, err := qs.middleHeap.TopMin()
		if err != nil {
			return err
		}
		if err := qs.smallBuf.Write(v); err != nil {
			return err
		}
		if err := qs.middleHeap.PopMin(); err != nil {
			return err
		}
	}
	if err := qs.smallBuf.Dump(); err != nil {
		return err
	}

	if initial {
		qs.inputBuf.Bind(qs.outHandle)
	}
	if err := qs.sortRange(first, mid1, false); err != nil {
		return err
	}
	return qs.sortRange(mid2, last, false)
}
