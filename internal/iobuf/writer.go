package iobuf

import (
	"fmt"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/sorterr"
)

// Writer is the basic buffered output stream: it fills a
// single buffer and dumps it synchronously once full.
type Writer[T common.Numeric] struct {
	handle     fhandle.PositionalIO
	bufferSize int
	elemSize   int

	buf  []T
	raw  []byte
	pos  int
	wpos int64 // next file element offset a dump will land at

	sink logsink.Sink
	name string
}

// NewWriter constructs a Writer bound to handle with the given buffer
// capacity (in elements).
func NewWriter[T common.Numeric](handle fhandle.PositionalIO, bufferSize int, sink logsink.Sink, name string) *Writer[T] {
	if sink == nil {
		sink = logsink.Nop{}
	}
	sz := common.Sizeof[T]()
	return &Writer[T]{
		handle:     handle,
		bufferSize: bufferSize,
		elemSize:   sz,
		buf:        make([]T, bufferSize),
		raw:        make([]byte, bufferSize*sz),
		sink:       sink,
		name:       name,
	}
}

// Seek is only valid while the stream is empty; it sets
// the file element offset the next dump will target.
func (w *Writer[T]) Seek(first int64) error {
	if w.pos != 0 {
		return fmt.Errorf("extsort: seek on non-empty writer %s", w.name)
	}
	w.wpos = first
	return nil
}

// Write appends x to the active buffer, dumping synchronously once it
// fills.
func (w *Writer[T]) Write(x T) error {
	w.buf[w.pos] = x
	w.pos++
	if w.pos == w.bufferSize {
		return w.dump()
	}
	return nil
}

func (w *Writer[T]) dump() error {
	for i := 0; i < w.pos; i++ {
		common.Encode(w.buf[i], w.raw[i*w.elemSize:])
	}
	n, err := w.handle.WriteAt(w.raw[:w.pos*w.elemSize], w.wpos*int64(w.elemSize))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", sorterr.ErrIoWrite, w.name, err)
	}
	w.wpos += int64(n / w.elemSize)
	w.sink.Counter(w.name+".block_writes", 1)
	w.pos = 0
	return nil
}

// Close flushes any partially filled buffer.
func (w *Writer[T]) Close() error {
	if w.pos > 0 {
		return w.dump()
	}
	return nil
}

// AsyncWriter is the double-buffered output stream: it
// swaps with a back buffer and launches a background dump once the
// front buffer fills, waiting for any prior dump to land first.
type AsyncWriter[T common.Numeric] struct {
	handle     fhandle.PositionalIO
	bufferSize int
	elemSize   int

	buf, back  []T
	rawF, rawB []byte
	pos        int
	wpos       int64
	pending    *future

	sink logsink.Sink
	name string
}

// NewAsyncWriter constructs a double-buffered writer over handle.
func NewAsyncWriter[T common.Numeric](handle fhandle.PositionalIO, bufferSize int, sink logsink.Sink, name string) *AsyncWriter[T] {
	if sink == nil {
		sink = logsink.Nop{}
	}
	sz := common.Sizeof[T]()
	return &AsyncWriter[T]{
		handle:     handle,
		bufferSize: bufferSize,
		elemSize:   sz,
		buf:        make([]T, bufferSize),
		back:       make([]T, bufferSize),
		rawF:       make([]byte, bufferSize*sz),
		rawB:       make([]byte, bufferSize*sz),
		sink:       sink,
		name:       name,
	}
}

// Seek is only valid while the stream is empty.
func (w *AsyncWriter[T]) Seek(first int64) error {
	if w.pos != 0 {
		return fmt.Errorf("extsort: seek on non-empty writer %s", w.name)
	}
	w.wpos = first
	return nil
}

// Write appends x to the active buffer; once full, it swaps with the
// back buffer (waiting for any outstanding background dump) and
// launches the next dump in the background.
func (w *AsyncWriter[T]) Write(x T) error {
	w.buf[w.pos] = x
	w.pos++
	if w.pos == w.bufferSize {
		return w.swapAndDump()
	}
	return nil
}

func (w *AsyncWriter[T]) swapAndDump() error {
	if w.pending != nil {
		if _, err := w.pending.wait(); err != nil {
			w.pending = nil
			return fmt.Errorf("%w: %s: %v", sorterr.ErrIoWrite, w.name, err)
		}
		w.pending = nil
	}
	for i := 0; i < w.bufferSize; i++ {
		common.Encode(w.buf[i], w.rawF[i*w.elemSize:])
	}
	w.buf, w.back = w.back, w.buf
	w.rawF, w.rawB = w.rawB, w.rawF
	wpos := w.wpos
	raw := w.rawB
	w.pending = runAsync(func() (int, error) {
		return w.handle.WriteAt(raw, wpos*int64(w.elemSize))
	})
	w.wpos += int64(w.bufferSize)
	w.sink.Counter(w.name+".block_writes", 1)
	w.pos = 0
	return nil
}

// Close waits for any outstanding background dump and flushes the
// remaining partial buffer synchronously.
func (w *AsyncWriter[T]) Close() error {
	if w.pending != nil {
		if _, err := w.pending.wait(); err != nil {
			w.pending = nil
			return fmt.Errorf("%w: %s: %v", sorterr.ErrIoWrite, w.name, err)
		}
		w.pending = nil
	}
	if w.pos > 0 {
		for i := 0; i < w.pos; i++ {
			common.Encode(w.buf[i], w.rawF[i*w.elemSize:])
		}
		n, err := w.handle.WriteAt(w.rawF[:w.pos*w.elemSize], w.wpos*int64(w.elemSize))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", sorterr.ErrIoWrite, w.name, err)
		}
		w.wpos += int64(n / w.elemSize)
		w.sink.Counter(w.name+".block_writes", 1)
		w.pos = 0
	}
	return nil
}
