package logsink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestMapCounterAccumulates(t *testing.T) {
	m := NewMap()
	m.Counter("reads", 3)
	m.Counter("reads", 4)
	m.Counter("writes", 1)
	counters := m.Counters()
	if counters["reads"] != 7 {
		t.Errorf("reads = %d, want 7", counters["reads"])
	}
	if counters["writes"] != 1 {
		t.Errorf("writes = %d, want 1", counters["writes"])
	}
}

func TestMapRecordOverwrites(t *testing.T) {
	m := NewMap()
	m.Record("run_count", 5)
	m.Record("run_count", 9)
	records := m.Records()
	if records["run_count"] != 9 {
		t.Errorf("run_count = %v, want 9", records["run_count"])
	}
}

func TestNopDiscardsEverything(t *testing.T) {
	var s Sink = Nop{}
	s.Counter("x", 1)
	s.Record("y", 2)
}

func TestCSVSinkFlushCreatesHeaderThenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	s1 := NewCSVSink("kway", "input.bin", 100, 800)
	s1.Counter("kway.merge_order", 4)
	s1.Record("kway.run_lengths", []int64{25, 25, 25, 25})
	if err := s1.Flush(path); err != nil {
		t.Fatalf("first Flush failed: %v", err)
	}

	s2 := NewCSVSink("huffman", "input.bin", 100, 800)
	if err := s2.Flush(path); err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows (incl. header), want 3", len(rows))
	}
	for i, want := range csvHeader {
		if rows[0][i] != want {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want)
		}
	}
	if rows[1][1] != "kway" || rows[2][1] != "huffman" {
		t.Errorf("strategy column mismatch: %q, %q", rows[1][1], rows[2][1])
	}
}

func TestCSVSinkFlushRejectsHeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	if err := os.WriteFile(path, []byte("not,the,right,header\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewCSVSink("kway", "input.bin", 1, 8)
	if err := s.Flush(path); err == nil {
		t.Fatal("expected a header mismatch error")
	}
}
