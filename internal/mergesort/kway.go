// Package mergesort implements the merge-sort family of external sort
// strategies built on top of replacement selection: a k-way merge using
// a pooled reader set, and a two-way Huffman-optimal merge for when
// buffer budget can't support one way per run.
package mergesort

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/iobuf"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/losertree"
	"github.com/qysort/extsort/internal/replsel"
)

// kwayTuple tags a candidate with its owning way. phase 2 marks a way
// that has been fully consumed; such entries are never written out.
type kwayTuple[T common.Numeric] struct {
	phase int
	value T
	way   int
}

func kwayLess[T common.Numeric](a, b kwayTuple[T]) bool {
	if a.phase != b.phase {
		return a.phase < b.phase
	}
	return a.value < b.value
}

// KWayMerge runs replacement selection to produce initial runs, then
// merges all of them in a single pass with one way per run.
func KWayMerge[T common.Numeric](inputPath, outputPath string, bufferSize int, sink logsink.Sink) error {
	if sink == nil {
		sink = logsink.Nop{}
	}
	// .merge stays a raw (uncompressed) file: every way seeks into its
	// own arbitrary span of this single shared file, and the pool's
	// prefetch heuristic reads those spans out of file order — there is
	// no way to frame that access pattern as one LZ4 stream, which only
	// decodes forward from its start. HuffmanMerge's per-run merge_N
	// files don't have this problem since each holds exactly one run
	// read start-to-finish, so those go through lz4io instead.
	tmpPath := filepath.Join(filepath.Dir(outputPath), ".merge")

	in, err := fhandle.OpenInput(inputPath)
	if err != nil {
		return err
	}
	scratch, err := fhandle.OpenOutput(tmpPath)
	if err != nil {
		in.Close()
		return err
	}
	runs, err := replsel.Run[T](in, scratch, bufferSize, bufferSize, sink)
	in.Close()
	scratch.Close()
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	mergeOrder := len(runs)
	if mergeOrder == 0 {
		out, err := fhandle.OpenOutput(outputPath)
		if err != nil {
			os.Remove(tmpPath)
			return err
		}
		err = out.Close()
		os.Remove(tmpPath)
		return err
	}

	bufferSize2 := max(bufferSize*2/mergeOrder, 16)

	tmpIn, err := fhandle.OpenInput(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	defer func() {
		tmpIn.Close()
		os.Remove(tmpPath)
	}()

	outHandle, err := fhandle.OpenOutput(outputPath)
	if err != nil {
		return err
	}
	outWriter := iobuf.NewAsyncWriter[T](outHandle, bufferSize2, sink, "kway.output")

	pool := iobuf.NewReaderPool[T](tmpIn, mergeOrder, bufferSize2, mergeOrder, sink)
	sum := int64(0)
	for i, length := range runs {
		span := common.Span{First: sum, Last: sum + length}
		if err := pool.Seek(i, span); err != nil {
			return err
		}
		sum += length
	}
	if err := pool.CollectAllocate(); err != nil {
		return fmt.Errorf("extsort: priming k-way merge pool: %w", err)
	}

	lt := losertree.New[kwayTuple[T]](mergeOrder, kwayLess[T])
	for i := mergeOrder - 1; i >= 0; i-- {
		if pool.Done(i) {
			lt.PushAt(kwayTuple[T]{phase: 2, way: i}, i)
			continue
		}
		v, err := pool.Read(i)
		if err != nil {
			return err
		}
		lt.PushAt(kwayTuple[T]{phase: 1, value: v, way: i}, i)
	}

	st := 0
	for {
		st++
		if st == bufferSize2 {
			if err := pool.CollectAllocate(); err != nil {
				return fmt.Errorf("extsort: k-way merge pool refill: %w", err)
			}
			st = 0
		}
		top := lt.Top()
		if top.phase == 2 {
			break
		}
		if err := outWriter.Write(top.value); err != nil {
			return err
		}
		if !pool.Done(top.way) {
			v, err := pool.Read(top.way)
			if err != nil {
				return err
			}
			lt.Push(kwayTuple[T]{phase: 1, value: v, way: top.way})
		} else {
			lt.Push(kwayTuple[T]{phase: 2, way: top.way})
		}
	}

	if err := outWriter.Close(); err != nil {
		return err
	}
	if err := pool.Close(); err != nil {
		return err
	}
	sink.Record("kway.merge_order", mergeOrder)
	return outHandle.Close()
}
