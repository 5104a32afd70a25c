package replsel

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
)

func writeInts(t *testing.T, path string, values []int64) {
	t.Helper()
	out, err := fhandle.OpenOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	buf := common.EncodeBatch(values)
	if _, err := out.WriteAt(buf, 0); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
}

func readInts(t *testing.T, path string, n int) []int64 {
	t.Helper()
	in, err := fhandle.OpenInput(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	sz := common.Sizeof[int64]()
	buf := make([]byte, n*sz)
	if _, err := in.ReadAt(buf, 0); err != nil {
		t.Fatal(err)
	}
	return common.DecodeBatch[int64](buf)
}

func TestRunProducesSortedRunsCoveringEveryElement(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in")
	outPath := filepath.Join(dir, "out")

	rng := rand.New(rand.NewSource(7))
	values := make([]int64, 500)
	for i := range values {
		values[i] = rng.Int63n(10000)
	}
	writeInts(t, inPath, values)

	in, err := fhandle.OpenInput(inPath)
	if err != nil {
		t.Fatal(err)
	}
	out, err := fhandle.OpenOutput(outPath)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := Run[int64](in, out, 16, 8, nil)
	in.Close()
	out.Close()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var total int64
	for _, r := range runs {
		total += r
	}
	if total != int64(len(values)) {
		t.Fatalf("run lengths sum to %d, want %d", total, len(values))
	}

	got := readInts(t, outPath, len(values))
	pos := int64(0)
	for i, r := range runs {
		run := got[pos : pos+r]
		for j := 1; j < len(run); j++ {
			if run[j-1] > run[j] {
				t.Fatalf("run %d not sorted at offset %d: %v", i, j, run)
			}
		}
		pos += r
	}

	gotSum, wantSum := int64(0), int64(0)
	for _, v := range got {
		gotSum += v
	}
	for _, v := range values {
		wantSum += v
	}
	if gotSum != wantSum {
		t.Fatalf("output is not a permutation of input: sum %d, want %d", gotSum, wantSum)
	}
}

func TestRunOnAlreadySortedInputProducesOneRun(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in")
	outPath := filepath.Join(dir, "out")

	values := make([]int64, 40)
	for i := range values {
		values[i] = int64(i)
	}
	writeInts(t, inPath, values)

	in, err := fhandle.OpenInput(inPath)
	if err != nil {
		t.Fatal(err)
	}
	out, err := fhandle.OpenOutput(outPath)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := Run[int64](in, out, 8, 4, nil)
	in.Close()
	out.Close()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs for sorted input, want 1: %v", len(runs), runs)
	}
	if runs[0] != int64(len(values)) {
		t.Fatalf("run length %d, want %d", runs[0], len(values))
	}
}

func TestRunOnEmptyInput(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in")
	outPath := filepath.Join(dir, "out")
	writeInts(t, inPath, nil)

	in, err := fhandle.OpenInput(inPath)
	if err != nil {
		t.Fatal(err)
	}
	out, err := fhandle.OpenOutput(outPath)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := Run[int64](in, out, 8, 4, nil)
	in.Close()
	out.Close()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	var total int64
	for _, r := range runs {
		total += r
	}
	if total != 0 {
		t.Fatalf("run lengths sum to %d for empty input, want 0", total)
	}
}
