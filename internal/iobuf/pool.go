package iobuf

import (
	"fmt"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/sorterr"
)

// poolBuf is one fixed-capacity recyclable buffer shared between a
// way's queue and the pool's free list.
type poolBuf[T common.Numeric] struct {
	data []T // len == cap == bufferCap; valid prefix is data[:n]
	raw  []byte
	n    int
}

// wayState tracks one of the k ways a ReaderPool serves: its span
// within the shared runs file, its FIFO of ready buffers, and the
// buffers it has fully drained and is waiting to hand back.
type wayState[T common.Numeric] struct {
	span  common.Span
	fpos  int64 // next file element offset a prefetch for this way will land at
	spos  int64 // next logical element position this way will hand to Read
	queue []*poolBuf[T]
	pos   int // read cursor within queue[0]
	spent []*poolBuf[T]
}

// ReaderPool is the pooled input stream set: k ways share
// one aggregate buffer budget and one outstanding background read.
// CollectAllocate recycles drained buffers into a shared free list and
// prefetches the way most likely to run dry soonest — the one whose
// queued tail holds the smallest last element, since the loser tree
// will select it most aggressively over the near future.
type ReaderPool[T common.Numeric] struct {
	handle    fhandle.PositionalIO
	elemSize  int
	bufferCap int

	ways []*wayState[T]
	free []*poolBuf[T]

	pending    *future
	pendingWay int

	sink logsink.Sink
}

// NewReaderPool constructs a pool over handle for k ways, each buffer
// sized bufferCap elements, with extraBuffers spare buffers in the free
// list beyond the one buffer each way starts with (extraBuffers must be
// at least 1 so CollectAllocate always has somewhere to prefetch into).
func NewReaderPool[T common.Numeric](handle fhandle.PositionalIO, k, bufferCap, extraBuffers int, sink logsink.Sink) *ReaderPool[T] {
	if sink == nil {
		sink = logsink.Nop{}
	}
	sz := common.Sizeof[T]()
	free := make([]*poolBuf[T], extraBuffers)
	for i := range free {
		free[i] = &poolBuf[T]{data: make([]T, bufferCap), raw: make([]byte, bufferCap*sz)}
	}
	return &ReaderPool[T]{
		handle:    handle,
		elemSize:  sz,
		bufferCap: bufferCap,
		ways:      make([]*wayState[T], k),
		free:      free,
		sink:      sink,
	}
}

// Seek positions way over span and synchronously loads its first
// block. A zero-length span leaves the way permanently drained (the
// caller is expected to treat it as already Done).
func (p *ReaderPool[T]) Seek(way int, span common.Span) error {
	w := &wayState[T]{span: span, fpos: span.First, spos: span.First}
	p.ways[way] = w
	if span.Len() == 0 {
		return nil
	}
	b := &poolBuf[T]{data: make([]T, p.bufferCap), raw: make([]byte, p.bufferCap*p.elemSize)}
	count := span.Len()
	if count > int64(p.bufferCap) {
		count = int64(p.bufferCap)
	}
	n, err := p.handle.ReadAt(b.raw[:count*int64(p.elemSize)], w.fpos*int64(p.elemSize))
	if err != nil {
		return fmt.Errorf("%w: pool way %d: %v", sorterr.ErrIoRead, way, err)
	}
	b.n = n / p.elemSize
	decode(b)
	w.fpos += int64(b.n)
	w.queue = append(w.queue, b)
	return nil
}

func decode[T common.Numeric](b *poolBuf[T]) {
	for i := 0; i < b.n; i++ {
		b.data[i] = common.Decode[T](b.raw[i*common.Sizeof[T]():])
	}
}

// Done reports whether way has been fully consumed (every element in
// its span has already been returned by Read).
func (p *ReaderPool[T]) Done(way int) bool {
	w := p.ways[way]
	return w.spos >= w.span.Last
}

// Read returns the next element for way. It is an error to call Read
// when Done(way) is true, or before CollectAllocate has kept the way's
// queue supplied with a ready buffer.
func (p *ReaderPool[T]) Read(way int) (T, error) {
	w := p.ways[way]
	if w.pos == w.queue[0].n {
		w.spent = append(w.spent, w.queue[0])
		w.queue = w.queue[1:]
		w.pos = 0
		if len(w.queue) == 0 {
			var zero T
			return zero, fmt.Errorf("extsort: pool way %d starved of buffers; collect_allocate ran too late", way)
		}
	}
	v := w.queue[0].data[w.pos]
	w.pos++
	w.spos++
	return v, nil
}

// CollectAllocate moves every buffer drained since the last call onto
// the shared free list, waits for any outstanding background read to
// land, then launches a fresh prefetch for the way most in need of it:
// any way whose queue has already run dry takes priority, otherwise the
// way whose queued tail holds the smallest last element among ways that
// still have file data left to read. It is a no-op if no way needs
// refilling, and reports ErrNoFreeBuffer if one does but the free list
// is empty.
func (p *ReaderPool[T]) CollectAllocate() error {
	for _, w := range p.ways {
		if w == nil || len(w.spent) == 0 {
			continue
		}
		p.free = append(p.free, w.spent...)
		w.spent = nil
	}

	if p.pending != nil {
		n, err := p.pending.wait()
		w := p.ways[p.pendingWay]
		p.pending = nil
		if err != nil {
			return fmt.Errorf("%w: pool way %d: %v", sorterr.ErrIoRead, p.pendingWay, err)
		}
		b := w.queue[len(w.queue)-1]
		b.n = n / p.elemSize
		decode(b)
		w.fpos += int64(b.n)
		p.sink.Counter("pool.block_reads", 1)
	}

	best := -1
	for i, w := range p.ways {
		if w == nil || w.fpos >= w.span.Last {
			continue
		}
		if len(w.queue) == 0 {
			// Already out of buffered data — more urgent than any way
			// that merely runs low, since Read on it fails right now.
			best = i
			break
		}
		back := w.queue[len(w.queue)-1]
		last := back.data[back.n-1]
		if best == -1 {
			best = i
			continue
		}
		bestBack := p.ways[best].queue[len(p.ways[best].queue)-1]
		bestLast := bestBack.data[bestBack.n-1]
		if last < bestLast {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	if len(p.free) == 0 {
		return sorterr.ErrNoFreeBuffer
	}
	b := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	w := p.ways[best]
	w.queue = append(w.queue, b)

	remaining := w.span.Last - w.fpos
	count := int64(p.bufferCap)
	if remaining < count {
		count = remaining
	}
	fpos := w.fpos
	p.pendingWay = best
	p.pending = runAsync(func() (int, error) {
		return p.handle.ReadAt(b.raw[:count*int64(p.elemSize)], fpos*int64(p.elemSize))
	})
	return nil
}

// Close waits for any outstanding background read before the pool's
// handle is closed by its owner.
func (p *ReaderPool[T]) Close() error {
	if p.pending != nil {
		_, err := p.pending.wait()
		p.pending = nil
		return err
	}
	return nil
}
