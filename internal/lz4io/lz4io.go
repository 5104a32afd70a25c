// Package lz4io adapts an LZ4-framed file to the fhandle.PositionalIO
// trait iobuf's streams are built on, for scratch files that are pure
// internal intermediates with no on-disk contract: Huffman merge's
// merge_N files. Each caller opens its own handle per file rather than
// keeping a pool of them open at once, so one reader/writer per call is
// all this needs to support.
//
// Unlike fhandle's handles this is sequential-only: WriteAt and ReadAt
// require their offset to match the stream's current position, since
// LZ4 frames cannot be decoded or re-encoded starting mid-stream. The
// only caller in this module, the Huffman merge's two-way merge step,
// writes and reads each merge_N file strictly forward, so the
// restriction is enforced, not worked around.
package lz4io

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// Writer sequentially LZ4-encodes whatever is written to it.
type Writer struct {
	f    *os.File
	zw   *lz4.Writer
	next int64
}

// CreateWriter creates (truncating) path and wraps it in an LZ4 writer.
func CreateWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("extsort: lz4io create %s: %w", path, err)
	}
	return &Writer{f: f, zw: lz4.NewWriter(f)}, nil
}

// WriteAt requires off to equal the number of bytes written so far.
func (w *Writer) WriteAt(buf []byte, off int64) (int, error) {
	if off != w.next {
		return 0, fmt.Errorf("extsort: lz4io writer requires sequential offsets, got %d want %d", off, w.next)
	}
	n, err := w.zw.Write(buf)
	w.next += int64(n)
	if err != nil {
		return n, fmt.Errorf("extsort: lz4io write: %w", err)
	}
	return n, nil
}

// ReadAt always fails: a Writer is write-only.
func (w *Writer) ReadAt([]byte, int64) (int, error) {
	return 0, fmt.Errorf("extsort: lz4io writer is write-only")
}

// FileSize returns the logical (uncompressed) byte count written so far.
func (w *Writer) FileSize() (int64, error) { return w.next, nil }

// Close flushes the LZ4 frame and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("extsort: lz4io close: %w", err)
	}
	return w.f.Close()
}

// Reader sequentially LZ4-decodes an existing stream.
type Reader struct {
	f           *os.File
	zr          *lz4.Reader
	next        int64
	logicalSize int64
}

// OpenReader opens path for LZ4-decoded sequential reads. logicalSize
// is the caller-known uncompressed byte length, supplied directly
// rather than discovered by decompressing ahead of time.
func OpenReader(path string, logicalSize int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("extsort: lz4io open %s: %w", path, err)
	}
	return &Reader{f: f, zr: lz4.NewReader(f), logicalSize: logicalSize}, nil
}

// ReadAt requires off to equal the number of bytes read so far. Short
// reads at end-of-stream are reported as success, matching
// fhandle.file's treatment of io.EOF.
func (r *Reader) ReadAt(buf []byte, off int64) (int, error) {
	if off != r.next {
		return 0, fmt.Errorf("extsort: lz4io reader requires sequential offsets, got %d want %d", off, r.next)
	}
	n, err := io.ReadFull(r.zr, buf)
	r.next += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return n, fmt.Errorf("extsort: lz4io read: %w", err)
	}
	return n, nil
}

// WriteAt always fails: a Reader is read-only.
func (r *Reader) WriteAt([]byte, int64) (int, error) {
	return 0, fmt.Errorf("extsort: lz4io reader is read-only")
}

// FileSize returns the caller-supplied logical byte length.
func (r *Reader) FileSize() (int64, error) { return r.logicalSize, nil }

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }
