// Package fhandle provides the thread-safe positional file handles that
// every buffered stream reads or writes through. A single
// handle may be shared by several streams pointing at disjoint regions
// of the same file; an internal mutex serialises the underlying
// syscalls so the file's positional I/O behaves atomically from the
// caller's point of view.
package fhandle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/qysort/extsort/internal/sorterr"
)

// PositionalIO is the narrow read/write-at-offset trait every buffered
// stream is built on. A cache-blocked demo (out of scope for this
// engine — see DESIGN.md) would consume exactly this interface.
type PositionalIO interface {
	ReadAt(buf []byte, off int64) (int, error)
	WriteAt(buf []byte, off int64) (int, error)
	FileSize() (int64, error)
}

// file is the shared mutex-guarded wrapper around an *os.File.
type file struct {
	mu sync.Mutex
	f  *os.File
}

func (h *file) ReadAt(buf []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.f.ReadAt(buf, off)
	if errors.Is(err, io.EOF) {
		// Partial reads at end-of-file are expected, not an error.
		err = nil
	}
	return n, err
}

func (h *file) WriteAt(buf []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.f.WriteAt(buf, off)
}

func (h *file) FileSize() (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fi, err := h.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (h *file) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.f.Close()
}

// SharedInput is a read-only positional handle over an existing file.
type SharedInput struct {
	file
	size int64
}

// OpenInput opens path for positional reads. It fails with ErrNotFound
// if path does not exist, or ErrIoOpen on any other open failure.
func OpenInput(path string) (*SharedInput, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", sorterr.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", sorterr.ErrIoOpen, path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", sorterr.ErrIoOpen, path, err)
	}
	return &SharedInput{file: file{f: f}, size: fi.Size()}, nil
}

// FileSize returns the file's byte length, fixed at open time.
func (s *SharedInput) FileSize() (int64, error) { return s.size, nil }

// WriteAt always fails: a SharedInput is read-only.
func (s *SharedInput) WriteAt([]byte, int64) (int, error) {
	return 0, fmt.Errorf("%w: input handle is read-only", sorterr.ErrIoWrite)
}

// Close releases the underlying file descriptor.
func (s *SharedInput) Close() error { return s.file.Close() }

// SharedOutput is a read/write positional handle. OpenOutput's handles
// are created (truncated) and exclusively locked (see
// lock_unix.go/lock_windows.go) for the duration of one sort;
// OpenScratch's handles are neither truncated nor locked.
type SharedOutput struct {
	file
}

// OpenOutput creates (truncating) path for positional read/write and
// takes an advisory exclusive lock on it, failing with ErrIoOpen if
// either step fails.
func OpenOutput(path string) (*SharedOutput, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", sorterr.ErrIoOpen, path, err)
	}
	if err := lockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: lock %s: %v", sorterr.ErrIoOpen, path, err)
	}
	return &SharedOutput{file: file{f: f}}, nil
}

// OpenScratch opens (creating if needed, without truncating existing
// contents) a read/write scratch file used for merge intermediates.
func OpenScratch(path string) (*SharedOutput, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", sorterr.ErrIoOpen, path, err)
	}
	return &SharedOutput{file: file{f: f}}, nil
}

// Truncate resizes the underlying file to size bytes.
func (s *SharedOutput) Truncate(size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Truncate(size)
}

// Close unlocks and releases the underlying file descriptor.
func (s *SharedOutput) Close() error {
	unlockExclusive(s.f)
	return s.file.Close()
}
