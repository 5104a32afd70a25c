package mergesort

import (
	"os"
	"slices"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/iobuf"
	"github.com/qysort/extsort/internal/logsink"
)

// SimpleTwoWayMerge is the classic bottom-up iterative merge sort
// baseline: bufferSize-element chunks are sorted in memory and written
// out as the initial runs, then merged in passes that double the run
// length each time, alternating between two ping-pong scratch files
// (outputPath+".tmp.a"/".tmp.b") so neither pass ever reads and writes
// the same file region at once.
func SimpleTwoWayMerge[T common.Numeric](inputPath, outputPath string, bufferSize int, sink logsink.Sink) error {
	if sink == nil {
		sink = logsink.Nop{}
	}
	tmpA := outputPath + ".tmp.a"
	tmpB := outputPath + ".tmp.b"

	in, err := fhandle.OpenInput(inputPath)
	if err != nil {
		return err
	}
	size, err := in.FileSize()
	if err != nil {
		in.Close()
		return err
	}
	totalElems := size / int64(common.Sizeof[T]())

	if err := writeInitialRuns[T](in, tmpA, bufferSize, sink); err != nil {
		in.Close()
		os.Remove(tmpA)
		return err
	}
	in.Close()

	if totalElems == 0 {
		os.Remove(tmpA)
		out, err := fhandle.OpenOutput(outputPath)
		if err != nil {
			return err
		}
		return out.Close()
	}

	src, dst := tmpA, tmpB
	for runLength := int64(bufferSize); runLength < totalElems; runLength *= 2 {
		if err := mergePass[T](src, dst, totalElems, runLength, bufferSize, sink); err != nil {
			os.Remove(tmpA)
			os.Remove(tmpB)
			return err
		}
		src, dst = dst, src
	}

	sink.Record("simple.total_elems", totalElems)
	os.Remove(dst)
	return os.Rename(src, outputPath)
}

// writeInitialRuns reads in end to end in bufferSize-element chunks,
// sorts each chunk in memory, and writes the sorted chunks sequentially
// to dstPath.
func writeInitialRuns[T common.Numeric](in *fhandle.SharedInput, dstPath string, bufferSize int, sink logsink.Sink) error {
	out, err := fhandle.OpenOutput(dstPath)
	if err != nil {
		return err
	}
	r := iobuf.NewReader[T](in, bufferSize, sink, "simple.initial.in")
	r.Seek(0, -1)
	w := iobuf.NewWriter[T](out, bufferSize, sink, "simple.initial.out")

	chunk := make([]T, 0, bufferSize)
	for !r.Eof() {
		chunk = chunk[:0]
		for len(chunk) < bufferSize && !r.Eof() {
			v, err := r.Next()
			if err != nil {
				return err
			}
			chunk = append(chunk, v)
		}
		slices.SortFunc(chunk, common.Compare[T])
		for _, v := range chunk {
			if err := w.Write(v); err != nil {
				return err
			}
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return out.Close()
}

// mergePass merges adjacent runLength-element runs of srcPath pairwise
// into dstPath, doubling the run length.
func mergePass[T common.Numeric](srcPath, dstPath string, totalElems, runLength int64, bufferSize int, sink logsink.Sink) error {
	in, err := fhandle.OpenInput(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := fhandle.OpenOutput(dstPath)
	if err != nil {
		return err
	}

	r1 := iobuf.NewReader[T](in, bufferSize, sink, "simple.pass.r1")
	r2 := iobuf.NewReader[T](in, bufferSize, sink, "simple.pass.r2")
	w := iobuf.NewWriter[T](out, bufferSize, sink, "simple.pass.out")

	for pos := int64(0); pos < totalElems; pos += 2 * runLength {
		firstLast := min(pos+runLength, totalElems)
		secondLast := min(pos+2*runLength, totalElems)
		r1.Seek(pos, firstLast)
		r2.Seek(firstLast, secondLast)
		if err := twoWayMerge(r1, r2, w); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	return out.Close()
}
