package iobuf

import (
	"path/filepath"
	"testing"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
)

func TestArrayBufLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	out, err := fhandle.OpenOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	values := []int64{10, 20, 30, 40, 50}
	if _, err := out.WriteAt(common.EncodeBatch(values), 0); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := fhandle.OpenInput(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	buf := NewArrayBuf[int64](8, false)
	buf.Bind(in)
	if err := buf.Load(1, 3); err != nil {
		t.Fatal(err)
	}
	if buf.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", buf.Size())
	}
	want := []int64{20, 30, 40}
	for i, w := range want {
		if got := buf.At(i); got != w {
			t.Errorf("At(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestArrayBufForwardDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	out, err := fhandle.OpenOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Truncate(int64(5 * common.Sizeof[int64]())); err != nil {
		t.Fatal(err)
	}

	buf := NewArrayBuf[int64](3, false)
	buf.Bind(out)
	buf.SeekWrite(0)
	for _, v := range []int64{1, 2, 3, 4, 5} {
		if err := buf.Write(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := buf.Dump(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := fhandle.OpenInput(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	raw := make([]byte, 5*common.Sizeof[int64]())
	if _, err := in.ReadAt(raw, 0); err != nil {
		t.Fatal(err)
	}
	got := common.DecodeBatch[int64](raw)
	want := []int64{1, 2, 3, 4, 5}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("index %d: got %d, want %d", i, got[i], w)
		}
	}
}

func TestArrayBufBackwardDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	out, err := fhandle.OpenOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Truncate(int64(6 * common.Sizeof[int64]())); err != nil {
		t.Fatal(err)
	}

	buf := NewArrayBuf[int64](3, true)
	buf.Bind(out)
	buf.SeekWrite(6)
	// First dump should land at [3,6), second at [0,3), filling the
	// region from the top down.
	for _, v := range []int64{100, 200, 300} {
		if err := buf.Write(v); err != nil {
			t.Fatal(err)
		}
	}
	for _, v := range []int64{10, 20, 30} {
		if err := buf.Write(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := fhandle.OpenInput(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	raw := make([]byte, 6*common.Sizeof[int64]())
	if _, err := in.ReadAt(raw, 0); err != nil {
		t.Fatal(err)
	}
	got := common.DecodeBatch[int64](raw)
	want := []int64{10, 20, 30, 100, 200, 300}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("index %d: got %d, want %d", i, got[i], w)
		}
	}
}
