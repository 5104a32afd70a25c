// Package engine is the thin dispatch layer between the CLI and the
// four sort strategies: a plain config struct with a Validate method
// and a Strategy enum naming which one to run.
package engine

import (
	"fmt"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/mergesort"
	"github.com/qysort/extsort/internal/quicksort"
)

// Strategy names one of the four sort strategies the engine dispatches
// to.
type Strategy string

const (
	StrategyQuicksort Strategy = "quicksort"
	StrategyKWay      Strategy = "kway"
	StrategyHuffman   Strategy = "huffman"
	StrategySimple    Strategy = "simple"
)

// Params holds the tuning knobs shared across every strategy, built by
// the CLI from flags.
type Params struct {
	// BufferSize is the element capacity of each I/O buffer.
	BufferSize int
	// HeapSize bounds external quicksort's in-memory middle group.
	HeapSize int
	// LoserSize is the loser tree width used by the Huffman merge's
	// replacement selection pass. The k-way merge does not read it: its
	// replacement selection pass uses BufferSize as the loser tree width.
	LoserSize int
}

// Validate reports an error for any parameter combination a sort
// strategy could not run with.
func (p Params) Validate() error {
	if p.BufferSize <= 0 {
		return fmt.Errorf("extsort: buffer size must be positive, got %d", p.BufferSize)
	}
	if p.HeapSize < p.BufferSize {
		return fmt.Errorf("extsort: heap size (%d) must be at least buffer size (%d)", p.HeapSize, p.BufferSize)
	}
	if p.LoserSize < 1 {
		return fmt.Errorf("extsort: loser size must be at least 1, got %d", p.LoserSize)
	}
	return nil
}

// Run dispatches to the sort strategy named by strat.
func Run[T common.Numeric](strat Strategy, inputPath, outputPath string, p Params, sink logsink.Sink) error {
	if err := p.Validate(); err != nil {
		return err
	}
	switch strat {
	case StrategyQuicksort:
		return quicksort.Sort[T](inputPath, outputPath, p.BufferSize, p.HeapSize, sink)
	case StrategyKWay:
		return mergesort.KWayMerge[T](inputPath, outputPath, p.BufferSize, sink)
	case StrategyHuffman:
		return mergesort.HuffmanMerge[T](inputPath, outputPath, p.BufferSize, p.LoserSize, sink)
	case StrategySimple:
		return mergesort.SimpleTwoWayMerge[T](inputPath, outputPath, p.BufferSize, sink)
	default:
		return fmt.Errorf("extsort: unknown strategy %q", strat)
	}
}
