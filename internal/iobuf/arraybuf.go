package iobuf

import (
	"fmt"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/sorterr"
)

// ArrayBuf is the random-access, block-level buffer behind external
// quicksort. It can be rebound to a different handle at
// any time (quicksort's input buffer starts on the input file and is
// rebound to the output file after the first partition), and supports
// a Backward write mode: dumps land at currentWritePos-bufferSize and
// the write cursor then becomes that position, so repeated writes fill
// the preceding block — the asymmetry external quicksort's large-side
// output needs to fill its output region from the top down.
type ArrayBuf[T common.Numeric] struct {
	handle     fhandle.PositionalIO
	bufferSize int
	elemSize   int
	backward   bool

	buf  []T
	raw  []byte
	size int // filled length (valid data in buf[0:size])
	wpos int64
}

// NewArrayBuf constructs an ArrayBuf with the given buffer capacity. If
// backward is true, Dump writes land below the current write cursor
// instead of above it.
func NewArrayBuf[T common.Numeric](bufferSize int, backward bool) *ArrayBuf[T] {
	sz := common.Sizeof[T]()
	return &ArrayBuf[T]{
		bufferSize: bufferSize,
		elemSize:   sz,
		backward:   backward,
		buf:        make([]T, bufferSize),
		raw:        make([]byte, bufferSize*sz),
	}
}

// Bind rebinds the buffer to handle, resetting its fill state.
func (a *ArrayBuf[T]) Bind(handle fhandle.PositionalIO) {
	a.handle = handle
	a.size = 0
}

// SeekWrite sets the element position the next Dump (forward mode) or
// the position just above the next Dump's landing block (backward
// mode) will use.
func (a *ArrayBuf[T]) SeekWrite(pos int64) { a.wpos = pos }

// At returns the element currently loaded at index i.
func (a *ArrayBuf[T]) At(i int) T { return a.buf[i] }

// Size returns the number of valid elements currently loaded.
func (a *ArrayBuf[T]) Size() int { return a.size }

// Load reads count elements from the bound handle starting at element
// position pos, replacing the buffer's contents. The write cursor is
// untouched.
func (a *ArrayBuf[T]) Load(pos int64, count int) error {
	n, err := a.handle.ReadAt(a.raw[:count*a.elemSize], pos*int64(a.elemSize))
	if err != nil {
		return fmt.Errorf("%w: arraybuf load: %v", sorterr.ErrIoRead, err)
	}
	got := n / a.elemSize
	for i := 0; i < got; i++ {
		a.buf[i] = common.Decode[T](a.raw[i*a.elemSize:])
	}
	a.size = got
	return nil
}

// Write appends x to the buffer, dumping automatically once it fills.
func (a *ArrayBuf[T]) Write(x T) error {
	a.buf[a.size] = x
	a.size++
	if a.size == a.bufferSize {
		return a.Dump()
	}
	return nil
}

// Dump flushes the buffer's current contents to the bound handle. In
// forward mode it writes at wpos and advances wpos by the written
// count. In backward mode it writes at wpos-size and then moves wpos
// to that same position, so the next Dump lands immediately before it.
func (a *ArrayBuf[T]) Dump() error {
	if a.size == 0 {
		return nil
	}
	for i := 0; i < a.size; i++ {
		common.Encode(a.buf[i], a.raw[i*a.elemSize:])
	}
	writeAt := a.wpos
	if a.backward {
		writeAt = a.wpos - int64(a.size)
	}
	if _, err := a.handle.WriteAt(a.raw[:a.size*a.elemSize], writeAt*int64(a.elemSize)); err != nil {
		return fmt.Errorf("%w: arraybuf dump: %v", sorterr.ErrIoWrite, err)
	}
	if a.backward {
		a.wpos = writeAt
	} else {
		a.wpos += int64(a.size)
	}
	a.size = 0
	return nil
}
