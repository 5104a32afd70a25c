package mergesort

import (
	"container/heap"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/iobuf"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/lz4io"
	"github.com/qysort/extsort/internal/replsel"
)

// fileSegment names one run's extent within a merge_N file.
type fileSegment struct {
	size  int64
	pos   int64
	index int
}

// segHeap orders fileSegments by ascending size, smallest first — the
// two smallest runs are always merged next, building a Huffman-optimal
// merge sequence.
type segHeap []fileSegment

func (h segHeap) Len() int            { return len(h) }
func (h segHeap) Less(i, j int) bool  { return h[i].size < h[j].size }
func (h segHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *segHeap) Push(x interface{}) { *h = append(*h, x.(fileSegment)) }
func (h *segHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

func mergeFile(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("merge_%d", id))
}

// HuffmanMerge runs replacement selection to produce initial runs, then
// repeatedly merges the two currently-smallest runs until one remains.
// Unlike KWayMerge this needs only 3 buffers at a time regardless of how
// many runs replacement selection produced, at the cost of doing
// several merge passes instead of one.
func HuffmanMerge[T common.Numeric](inputPath, outputPath string, bufferSize, loserSize int, sink logsink.Sink) error {
	if sink == nil {
		sink = logsink.Nop{}
	}
	dir := filepath.Dir(outputPath)
	file0 := mergeFile(dir, 0)

	in, err := fhandle.OpenInput(inputPath)
	if err != nil {
		return err
	}
	scratch0, err := fhandle.OpenOutput(file0)
	if err != nil {
		in.Close()
		return err
	}
	runs, err := replsel.Run[T](in, scratch0, bufferSize, loserSize, sink)
	in.Close()
	scratch0.Close()
	if err != nil {
		os.Remove(file0)
		return err
	}

	h := &segHeap{}
	heap.Init(h)
	sum := int64(0)
	for _, s := range runs {
		heap.Push(h, fileSegment{size: s, pos: sum, index: 0})
		sum += s
	}
	n := h.Len()
	if n == 0 {
		os.Remove(file0)
		out, err := fhandle.OpenOutput(outputPath)
		if err != nil {
			return err
		}
		return out.Close()
	}

	for i := 1; i < n; i++ {
		s1 := heap.Pop(h).(fileSegment)
		s2 := heap.Pop(h).(fileSegment)
		heap.Push(h, fileSegment{size: s1.size + s2.size, pos: 0, index: i})
		final := i == n-1
		if err := mergeRun[T](dir, i, s1, s2, final, bufferSize, sink); err != nil {
			return err
		}
		if s1.index != 0 {
			os.Remove(mergeFile(dir, s1.index))
		}
		if s2.index != 0 {
			os.Remove(mergeFile(dir, s2.index))
		}
	}
	if n > 1 {
		os.Remove(file0)
	}
	sink.Record("huffman.run_count", n)
	return os.Rename(mergeFile(dir, n-1), outputPath)
}

// mergeRun two-way merges s1 and s2 into merge_i. Segment index 0
// always refers to file0, replacement selection's shared multi-run
// output, which keeps several runs packed at different byte offsets in
// one file and so cannot be read through an LZ4 frame (decoding an LZ4
// stream requires starting from its beginning); every other merge_N
// file holds exactly one run written start-to-finish and is LZ4-framed.
// The final merge in the sequence (final == true) is written raw instead: that file is
// renamed directly into the caller's output path, which carries no
// compression contract.
func mergeRun[T common.Numeric](dir string, i int, s1, s2 fileSegment, final bool, bufferSize int, sink logsink.Sink) error {
	r1, close1, err := openSegment[T](dir, s1, bufferSize, sink, "huffman.in1")
	if err != nil {
		return err
	}
	defer close1()
	r2, close2, err := openSegment[T](dir, s2, bufferSize, sink, "huffman.in2")
	if err != nil {
		return err
	}
	defer close2()

	var w *iobuf.Writer[T]
	var closeOut func() error
	if final {
		out, err := fhandle.OpenOutput(mergeFile(dir, i))
		if err != nil {
			return err
		}
		w = iobuf.NewWriter[T](out, bufferSize, sink, "huffman.out")
		closeOut = out.Close
	} else {
		out, err := lz4io.CreateWriter(mergeFile(dir, i))
		if err != nil {
			return err
		}
		w = iobuf.NewWriter[T](out, bufferSize, sink, "huffman.out")
		closeOut = out.Close
	}

	if err := twoWayMerge(r1, r2, w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return closeOut()
}

// openSegment opens the reader for one fileSegment, choosing the raw or
// LZ4-framed path per the rule documented on mergeRun.
func openSegment[T common.Numeric](dir string, s fileSegment, bufferSize int, sink logsink.Sink, name string) (*iobuf.Reader[T], func() error, error) {
	if s.index == 0 {
		in, err := fhandle.OpenInput(mergeFile(dir, s.index))
		if err != nil {
			return nil, nil, err
		}
		r := iobuf.NewReader[T](in, bufferSize, sink, name)
		r.Seek(s.pos, s.pos+s.size)
		return r, in.Close, nil
	}
	in, err := lz4io.OpenReader(mergeFile(dir, s.index), s.size*int64(common.Sizeof[T]()))
	if err != nil {
		return nil, nil, err
	}
	r := iobuf.NewReader[T](in, bufferSize, sink, name)
	r.Seek(0, s.size)
	return r, in.Close, nil
}
