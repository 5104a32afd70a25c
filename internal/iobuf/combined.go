package iobuf

import (
	"fmt"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/sorterr"
)

// CombinedStream is the double-buffered reader and writer replacement
// selection runs over one file: it reads from and writes to the same
// file at disjoint, advancing offsets, one element of each per step.
// Input and output each get their own front/back buffer pair — reusing
// one buffer for both directions looks tempting since the read cursor
// stays ahead of the write cursor, but the two cursors cross the
// buffer_size boundary at different times (the loser tree primes more
// reads than writes before the first write ever happens), so a single
// shared buffer gets swapped out from under whichever cursor hasn't
// caught up yet.
type CombinedStream[T common.Numeric] struct {
	in, out  fhandle.PositionalIO
	elemSize int
	n        int // buffer_size

	main, ibuf      []T
	outBuf, obuf    []T
	rawMain, rawI   []byte
	rawOut, rawObuf []byte

	ipos int // read cursor within main
	opos int // write cursor within outBuf

	ispos     int64 // elements consumed so far (cumulative)
	isize     int64 // elements loaded so far (cumulative)
	ifpos     int64 // next input file element offset
	ofpos     int64 // next output file element offset
	fileElems int64 // total elements in the input file
	ieof      bool

	pendingRead  *future
	pendingWrite *future

	sink logsink.Sink
}

// NewCombinedStream constructs a combined stream with buffer_size
// elements per buffer.
func NewCombinedStream[T common.Numeric](bufferSize int, sink logsink.Sink) *CombinedStream[T] {
	if sink == nil {
		sink = logsink.Nop{}
	}
	sz := common.Sizeof[T]()
	return &CombinedStream[T]{
		elemSize: sz,
		n:        bufferSize,
		main:     make([]T, bufferSize),
		ibuf:     make([]T, bufferSize),
		outBuf:   make([]T, bufferSize),
		obuf:     make([]T, bufferSize),
		rawMain:  make([]byte, bufferSize*sz),
		rawI:     make([]byte, bufferSize*sz),
		rawOut:   make([]byte, bufferSize*sz),
		rawObuf:  make([]byte, bufferSize*sz),
		sink:     sink,
	}
}

// Open binds the input and output handles, synchronously fills main
// from the start of in, and — if input is not already exhausted —
// launches a background read into ibuf.
func (c *CombinedStream[T]) Open(in, out fhandle.PositionalIO) error {
	c.in, c.out = in, out
	c.ispos, c.isize, c.ifpos, c.ofpos = 0, 0, 0, 0
	size, err := in.FileSize()
	if err != nil {
		return err
	}
	c.fileElems = size / int64(c.elemSize)
	if err := c.loadSync(); err != nil {
		return err
	}
	if !c.ieof {
		c.launchLoad()
	}
	return nil
}

func (c *CombinedStream[T]) loadSync() error {
	n, err := c.in.ReadAt(c.rawMain, c.ifpos*int64(c.elemSize))
	if err != nil {
		return fmt.Errorf("%w: combined input: %v", sorterr.ErrIoRead, err)
	}
	count := n / c.elemSize
	for i := 0; i < count; i++ {
		c.main[i] = common.Decode[T](c.rawMain[i*c.elemSize:])
	}
	c.ipos = 0
	c.isize += int64(count)
	c.ifpos += int64(count)
	c.ieof = c.ifpos >= c.fileElems
	c.sink.Counter("combined.block_reads", 1)
	return nil
}

func (c *CombinedStream[T]) launchLoad() {
	ifpos := c.ifpos
	c.pendingRead = runAsync(func() (int, error) {
		return c.in.ReadAt(c.rawI, ifpos*int64(c.elemSize))
	})
}

// Ieof reports whether the input side has been fully consumed: every
// element loaded so far has also been read.
func (c *CombinedStream[T]) Ieof() bool { return c.ieof && c.ispos == c.isize }

// Read consumes the next input element, swapping in the background
// block and launching the next prefetch once main is exhausted.
func (c *CombinedStream[T]) Read() (T, error) {
	if c.ipos == c.n {
		if err := c.swapIn(); err != nil {
			var zero T
			return zero, err
		}
	}
	v := c.main[c.ipos]
	c.ipos++
	c.ispos++
	return v, nil
}

func (c *CombinedStream[T]) swapIn() error {
	n, err := c.pendingRead.wait()
	c.pendingRead = nil
	if err != nil {
		return fmt.Errorf("%w: combined input: %v", sorterr.ErrIoRead, err)
	}
	count := n / c.elemSize
	for i := 0; i < count; i++ {
		c.ibuf[i] = common.Decode[T](c.rawI[i*c.elemSize:])
	}
	c.main, c.ibuf = c.ibuf, c.main
	c.rawMain, c.rawI = c.rawI, c.rawMain
	c.ipos = 0
	c.isize += int64(count)
	c.ifpos += int64(count)
	c.ieof = c.ifpos >= c.fileElems
	c.sink.Counter("combined.block_reads", 1)
	if !c.ieof {
		c.launchLoad()
	}
	return nil
}

// Write appends x to the output side, swapping out and launching a
// background dump once outBuf's write cursor fills. outBuf is entirely
// separate storage from main/ibuf, so a read-side swap can never land
// on output data still waiting to be flushed.
func (c *CombinedStream[T]) Write(x T) error {
	c.outBuf[c.opos] = x
	c.opos++
	if c.opos == c.n {
		return c.swapOut()
	}
	return nil
}

func (c *CombinedStream[T]) swapOut() error {
	if c.pendingWrite != nil {
		if _, err := c.pendingWrite.wait(); err != nil {
			c.pendingWrite = nil
			return fmt.Errorf("%w: combined output: %v", sorterr.ErrIoWrite, err)
		}
		c.pendingWrite = nil
	}
	for i := 0; i < c.n; i++ {
		common.Encode(c.outBuf[i], c.rawOut[i*c.elemSize:])
	}
	c.outBuf, c.obuf = c.obuf, c.outBuf
	c.rawOut, c.rawObuf = c.rawObuf, c.rawOut
	ofpos := c.ofpos
	raw := c.rawObuf
	c.pendingWrite = runAsync(func() (int, error) {
		return c.out.WriteAt(raw, ofpos*int64(c.elemSize))
	})
	c.ofpos += int64(c.n)
	c.sink.Counter("combined.block_writes", 1)
	c.opos = 0
	return nil
}

// Close waits for any outstanding background write, flushes whatever
// outBuf still holds, and releases the pending read (if any — it
// targets the now-discarded ibuf and its result is simply dropped).
func (c *CombinedStream[T]) Close() error {
	if c.pendingWrite != nil {
		if _, err := c.pendingWrite.wait(); err != nil {
			c.pendingWrite = nil
			return fmt.Errorf("%w: combined output: %v", sorterr.ErrIoWrite, err)
		}
		c.pendingWrite = nil
	}
	if c.opos > 0 {
		for i := 0; i < c.opos; i++ {
			common.Encode(c.outBuf[i], c.rawOut[i*c.elemSize:])
		}
		if _, err := c.out.WriteAt(c.rawOut[:c.opos*c.elemSize], c.ofpos*int64(c.elemSize)); err != nil {
			return fmt.Errorf("%w: combined output: %v", sorterr.ErrIoWrite, err)
		}
		c.sink.Counter("combined.block_writes", 1)
		c.opos = 0
	}
	if c.pendingRead != nil {
		c.pendingRead.wait()
		c.pendingRead = nil
	}
	return nil
}
