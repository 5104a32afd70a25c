// Package iobuf implements the buffered binary stream layer: sequential
// readers and writers over a fhandle.PositionalIO,
// with basic and double-buffered (background-prefetch) variants, the
// combined read/write stream used by replacement selection, the
// backward-capable random-access arraybuf behind external quicksort,
// and the pooled reader set behind the k-way merge.
package iobuf

import (
	"fmt"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/sorterr"
)

// Reader is the basic buffered input stream: it holds a
// handle, one buffer, and a span [First, Last). Next is undefined once
// Eof reports true.
type Reader[T common.Numeric] struct {
	handle     fhandle.PositionalIO
	bufferSize int
	elemSize   int
	fileElems  int64

	buf   []T
	raw   []byte
	pos   int // index into buf of the next element to return
	first int64
	last  int64
	spos  int64 // next logical element position to be returned
	fpos  int64 // next file element offset background/sync reads will land at

	sink logsink.Sink
	name string
}

// NewReader constructs a Reader bound to handle with the given buffer
// capacity (in elements).
func NewReader[T common.Numeric](handle fhandle.PositionalIO, bufferSize int, sink logsink.Sink, name string) *Reader[T] {
	if sink == nil {
		sink = logsink.Nop{}
	}
	sz := common.Sizeof[T]()
	size, _ := handle.FileSize()
	r := &Reader[T]{
		handle:     handle,
		bufferSize: bufferSize,
		elemSize:   sz,
		fileElems:  size / int64(sz),
		buf:        make([]T, bufferSize),
		raw:        make([]byte, bufferSize*sz),
		sink:       sink,
		name:       name,
	}
	r.pos = bufferSize // start "empty"
	r.spos = -1
	return r
}

// Seek repositions the stream. last < 0 means "until EOF, plus last+1"
// so last == -1 means the true end of file. The buffer is marked empty
// so the next Next() triggers a fresh load.
func (r *Reader[T]) Seek(first int64, last int64) {
	r.first = first
	r.spos = first
	if last < 0 {
		r.last = r.fileElems + last + 1
	} else {
		r.last = last
	}
	r.fpos = first
	r.pos = r.bufferSize
}

// Span reports the stream's current [First, Last) span.
func (r *Reader[T]) Span() common.Span { return common.Span{First: r.first, Last: r.last} }

// Eof reports whether the stream has logically reached the end of its
// span. fpos tracks how far the file has been read into buffers, not
// how far the caller has consumed via Next; checking it here would
// report Eof early whenever a prefetch races ahead of consumption,
// dropping whatever the buffer still holds unread.
func (r *Reader[T]) Eof() bool {
	return r.spos >= r.last
}

// Next returns the next element, loading a fresh block if the current
// buffer is exhausted. Undefined (will panic on out-of-range) if called
// once Eof() is true.
func (r *Reader[T]) Next() (T, error) {
	if r.pos == r.bufferSize {
		if err := r.load(); err != nil {
			var zero T
			return zero, err
		}
	}
	v := r.buf[r.pos]
	r.pos++
	r.spos++
	return v, nil
}

func (r *Reader[T]) load() error {
	n, err := r.handle.ReadAt(r.raw, r.fpos*int64(r.elemSize))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", sorterr.ErrIoRead, r.name, err)
	}
	count := n / r.elemSize
	for i := 0; i < count; i++ {
		r.buf[i] = common.Decode[T](r.raw[i*r.elemSize:])
	}
	r.pos = 0
	r.fpos += int64(count)
	r.sink.Counter(r.name+".block_reads", 1)
	return nil
}

// Close is a no-op for Reader: it does not own the handle's lifecycle.
func (r *Reader[T]) Close() error { return nil }

// AsyncReader is the double-buffered input stream: the
// front buffer serves Next() while a background goroutine fills the
// back buffer, with at most one outstanding read in flight.
type AsyncReader[T common.Numeric] struct {
	handle     fhandle.PositionalIO
	bufferSize int
	elemSize   int
	fileElems  int64

	buf, back   []T
	rawF, rawB  []byte
	pos         int
	first, last int64
	spos        int64
	fpos        int64
	pending     *future

	sink logsink.Sink
	name string
}

// NewAsyncReader constructs a double-buffered reader over handle.
func NewAsyncReader[T common.Numeric](handle fhandle.PositionalIO, bufferSize int, sink logsink.Sink, name string) *AsyncReader[T] {
	if sink == nil {
		sink = logsink.Nop{}
	}
	sz := common.Sizeof[T]()
	size, _ := handle.FileSize()
	return &AsyncReader[T]{
		handle:     handle,
		bufferSize: bufferSize,
		elemSize:   sz,
		fileElems:  size / int64(sz),
		buf:        make([]T, bufferSize),
		back:       make([]T, bufferSize),
		rawF:       make([]byte, bufferSize*sz),
		rawB:       make([]byte, bufferSize*sz),
		sink:       sink,
		name:       name,
	}
}

// Seek repositions the stream, synchronously filling the front buffer
// and — if more data remains — launching a background read for the
// back buffer.
func (r *AsyncReader[T]) Seek(first int64, last int64) error {
	r.first = first
	r.spos = first
	if last < 0 {
		r.last = r.fileElems + last + 1
	} else {
		r.last = last
	}
	r.fpos = first
	if err := r.loadSync(); err != nil {
		return err
	}
	if r.fpos < r.fileElems {
		r.launchLoad()
	}
	return nil
}

func (r *AsyncReader[T]) loadSync() error {
	n, err := r.handle.ReadAt(r.rawF, r.fpos*int64(r.elemSize))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", sorterr.ErrIoRead, r.name, err)
	}
	count := n / r.elemSize
	for i := 0; i < count; i++ {
		r.buf[i] = common.Decode[T](r.rawF[i*r.elemSize:])
	}
	r.pos = 0
	r.fpos += int64(count)
	r.sink.Counter(r.name+".block_reads", 1)
	return nil
}

func (r *AsyncReader[T]) launchLoad() {
	fpos := r.fpos
	r.pending = runAsync(func() (int, error) {
		return r.handle.ReadAt(r.rawB, fpos*int64(r.elemSize))
	})
}

func (r *AsyncReader[T]) swap() error {
	if r.pending == nil {
		return nil
	}
	n, err := r.pending.wait()
	r.pending = nil
	if err != nil {
		return fmt.Errorf("%w: %s: %v", sorterr.ErrIoRead, r.name, err)
	}
	count := n / r.elemSize
	for i := 0; i < count; i++ {
		r.back[i] = common.Decode[T](r.rawB[i*r.elemSize:])
	}
	r.buf, r.back = r.back, r.buf
	r.fpos += int64(count)
	r.pos = 0
	r.sink.Counter(r.name+".block_reads", 1)
	return nil
}

// Eof reports whether the stream has logically reached the end of its
// span. fpos tracks how far the file has been read into buffers, not
// how far the caller has consumed via Next; checking it here would
// report Eof early whenever the background prefetch races ahead of
// consumption, dropping whatever the buffer still holds unread.
func (r *AsyncReader[T]) Eof() bool {
	return r.spos >= r.last
}

// Next returns the next element, swapping in the prefetched back
// buffer and launching the next background read when the front buffer
// is exhausted.
func (r *AsyncReader[T]) Next() (T, error) {
	if r.pos == r.bufferSize {
		if err := r.swap(); err != nil {
			var zero T
			return zero, err
		}
		if r.fpos < r.fileElems {
			r.launchLoad()
		}
	}
	v := r.buf[r.pos]
	r.pos++
	r.spos++
	return v, nil
}

// Close waits for any outstanding background read to finish.
func (r *AsyncReader[T]) Close() error {
	if r.pending != nil {
		_, err := r.pending.wait()
		r.pending = nil
		return err
	}
	return nil
}
