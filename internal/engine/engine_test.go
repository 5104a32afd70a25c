package engine

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/logsink"
)

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"valid", Params{BufferSize: 16, HeapSize: 64, LoserSize: 4}, false},
		{"zero buffer", Params{BufferSize: 0, HeapSize: 64, LoserSize: 4}, true},
		{"negative buffer", Params{BufferSize: -1, HeapSize: 64, LoserSize: 4}, true},
		{"heap smaller than buffer", Params{BufferSize: 16, HeapSize: 8, LoserSize: 4}, true},
		{"loser size of 1 is legal", Params{BufferSize: 16, HeapSize: 64, LoserSize: 1}, false},
		{"loser size too small", Params{BufferSize: 16, HeapSize: 64, LoserSize: 0}, true},
	}
	for _, c := range cases {
		err := c.p.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}

func writeFile(t *testing.T, path string, values []int64) {
	t.Helper()
	out, err := fhandle.OpenOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := out.WriteAt(common.EncodeBatch(values), 0); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string, n int) []int64 {
	t.Helper()
	in, err := fhandle.OpenInput(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	buf := make([]byte, n*common.Sizeof[int64]())
	if _, err := in.ReadAt(buf, 0); err != nil {
		t.Fatal(err)
	}
	return common.DecodeBatch[int64](buf)
}

func TestRunDispatchesEveryStrategy(t *testing.T) {
	values := []int64{40, 10, 30, 20, 90, 50, 70, 60, 80, 0, 15, 25, 35, 45, 55, 65}
	p := Params{BufferSize: 4, HeapSize: 16, LoserSize: 4}

	for _, strat := range []Strategy{StrategyQuicksort, StrategyKWay, StrategyHuffman, StrategySimple} {
		t.Run(string(strat), func(t *testing.T) {
			dir := t.TempDir()
			inPath := filepath.Join(dir, "in")
			outPath := filepath.Join(dir, "out")
			writeFile(t, inPath, values)

			sink := logsink.NewMap()
			if err := Run[int64](strat, inPath, outPath, p, sink); err != nil {
				t.Fatalf("Run(%s) failed: %v", strat, err)
			}
			got := readFile(t, outPath, len(values))
			want := append([]int64(nil), values...)
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("%s: index %d: got %d, want %d", strat, i, got[i], want[i])
				}
			}
		})
	}
}

func TestRunUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in")
	outPath := filepath.Join(dir, "out")
	writeFile(t, inPath, []int64{1, 2, 3})

	p := Params{BufferSize: 4, HeapSize: 16, LoserSize: 4}
	err := Run[int64](Strategy("bogus"), inPath, outPath, p, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown strategy")
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in")
	outPath := filepath.Join(dir, "out")
	writeFile(t, inPath, []int64{1, 2, 3})

	p := Params{BufferSize: 0, HeapSize: 16, LoserSize: 4}
	if err := Run[int64](StrategyKWay, inPath, outPath, p, nil); err == nil {
		t.Fatal("expected Validate's error to propagate from Run")
	}
}
