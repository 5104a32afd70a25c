// Package main provides extsort - an external-memory sort engine for
// fixed-width numeric files.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/engine"
	"github.com/qysort/extsort/internal/logsink"
)

const (
	Version   = "0.1.0"
	BuildDate = "2026-07-30"
)

var shutdownChan = make(chan os.Signal, 1)

func main() {
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdownChan
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		os.Exit(130)
	}()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sort":
		runSort(os.Args[2:])
	case "version":
		fmt.Printf("extsort v%s (%s)\n", Version, BuildDate)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`extsort - external-memory sorting engine

Usage:
    extsort sort [arguments]

Commands:
    sort     Sort a fixed-width numeric file
    version  Show version
    help     Show this help

Use "extsort sort --help" for sort-specific options.`)
}

func runSort(args []string) {
	fs := flag.NewFlagSet("sort", flag.ExitOnError)

	input := fs.String("input", "", "Input file path (fixed-width packed array)")
	output := fs.String("output", "", "Output file path")
	elemType := fs.String("type", "int64", "Element type: int32, int64, float32, float64")
	strategy := fs.String("strategy", "kway", "Strategy: quicksort, kway, huffman, simple")
	bufferSize := fs.Int("buffer", 4096, "I/O buffer size, in elements")
	heapSize := fs.Int("heap", 16384, "Quicksort middle-group heap size, in elements")
	loserSize := fs.Int("loser", 64, "Loser tree width for the Huffman merge's replacement selection pass")
	resultsCSV := fs.String("results", "", "Append a summary row to this CSV file (optional)")

	_ = fs.Parse(args)

	if *input == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Error: --input and --output are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	p := engine.Params{BufferSize: *bufferSize, HeapSize: *heapSize, LoserSize: *loserSize}
	if err := p.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	strat := engine.Strategy(*strategy)

	var sink logsink.Sink
	var csvSink *logsink.CSVSink
	if *resultsCSV != "" {
		csvSink = logsink.NewCSVSink(string(strat), *input, 0, 0)
		sink = csvSink
	}

	start := time.Now()
	var err error
	switch *elemType {
	case "int32":
		err = engine.Run[int32](strat, *input, *output, p, sink)
	case "int64":
		err = engine.Run[int64](strat, *input, *output, p, sink)
	case "float32":
		err = engine.Run[float32](strat, *input, *output, p, sink)
	case "float64":
		err = engine.Run[float64](strat, *input, *output, p, sink)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown --type %q\n", *elemType)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Sorted %s -> %s (%s, %s) in %s\n", *input, *output, *elemType, *strategy, time.Since(start))

	if csvSink != nil {
		if stat, statErr := os.Stat(*input); statErr == nil {
			csvSink.Bytes = stat.Size()
			csvSink.Elements = stat.Size() / int64(elemSize(*elemType))
		}
		if err := csvSink.Flush(*resultsCSV); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write results: %v\n", err)
		}
	}
}

func elemSize(elemType string) int {
	switch elemType {
	case "int32":
		return common.Sizeof[int32]()
	case "int64":
		return common.Sizeof[int64]()
	case "float32":
		return common.Sizeof[float32]()
	case "float64":
		return common.Sizeof[float64]()
	default:
		return common.Sizeof[int64]()
	}
}
