package logsink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"
)

var csvHeader = []string{"timestamp", "strategy", "input", "elements", "bytes", "counters", "records"}

// CSVSink is the one concrete Sink an operator points the CLI at for a
// durable run history: an in-memory Map that accumulates counters and
// records during a sort, plus a Flush that appends one summary row per
// run to a CSV file, creating the header on first use and validating it
// on every later append.
type CSVSink struct {
	*Map
	Strategy string
	Input    string
	Elements int64
	Bytes    int64
}

// NewCSVSink creates a CSVSink that otherwise behaves exactly like Map
// until Flush is called.
func NewCSVSink(strategy, input string, elements, bytes int64) *CSVSink {
	return &CSVSink{
		Map:      NewMap(),
		Strategy: strategy,
		Input:    input,
		Elements: elements,
		Bytes:    bytes,
	}
}

// Flush appends one row summarising the accumulated counters and
// records to path, creating it with a header if it doesn't yet exist
// and validating the header otherwise.
func (c *CSVSink) Flush(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("extsort: create results dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("extsort: open results file: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("extsort: lock results file: %w", err)
	}
	defer unlockFile(file)

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if stat.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	} else {
		if _, err := file.Seek(0, 0); err != nil {
			return fmt.Errorf("extsort: seek results file: %w", err)
		}
		r := csv.NewReader(file)
		existing, err := r.Read()
		if err != nil {
			return fmt.Errorf("extsort: read results header: %w", err)
		}
		if !reflect.DeepEqual(existing, csvHeader) {
			return fmt.Errorf("extsort: results file header mismatch: got %v want %v", existing, csvHeader)
		}
	}

	countersJSON, err := json.Marshal(c.Counters())
	if err != nil {
		return err
	}
	recordsJSON, err := json.Marshal(c.Records())
	if err != nil {
		return err
	}

	row := []string{
		time.Now().UTC().Format(time.RFC3339),
		c.Strategy,
		c.Input,
		fmt.Sprintf("%d", c.Elements),
		fmt.Sprintf("%d", c.Bytes),
		string(countersJSON),
		string(recordsJSON),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
