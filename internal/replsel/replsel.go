// Package replsel implements replacement selection: reading straight
// through an unsorted input while writing out runs roughly twice the
// loser tree's size on average.
package replsel

import (
	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/fhandle"
	"github.com/qysort/extsort/internal/iobuf"
	"github.com/qysort/extsort/internal/logsink"
	"github.com/qysort/extsort/internal/losertree"
)

// tuple tags a candidate value with the round it belongs to. phase 1 is
// the current round during priming; a phase beyond the current rmax
// marks a virtual/sentinel slot once input has run out, and is never
// selected since the outer loop in Run stops before rc reaches it.
type tuple[T common.Numeric] struct {
	phase int
	value T
}

func tupleLess[T common.Numeric](a, b tuple[T]) bool {
	if a.phase != b.phase {
		return a.phase < b.phase
	}
	return a.value < b.value
}

// Run streams every element of in through a loser tree of size
// loserSize and writes it back out to out in runs, returning each run's
// length in elements. in and out are read/written through a single
// iobuf.CombinedStream, so out may be the same underlying file as in
// or a separate scratch file (the merge sorts in this module pass a
// separate scratch file) — see iobuf.CombinedStream for why sharing
// one file is safe.
func Run[T common.Numeric](in, out fhandle.PositionalIO, bufferSize, loserSize int, sink logsink.Sink) ([]int64, error) {
	if sink == nil {
		sink = logsink.Nop{}
	}
	stream := iobuf.NewCombinedStream[T](bufferSize, sink)
	if err := stream.Open(in, out); err != nil {
		return nil, err
	}

	lt := losertree.New[tuple[T]](loserSize, tupleLess[T])
	for i := loserSize - 1; i >= 0; i-- {
		if stream.Ieof() {
			lt.PushAt(tuple[T]{phase: 2}, i)
			continue
		}
		x, err := stream.Read()
		if err != nil {
			return nil, err
		}
		lt.PushAt(tuple[T]{phase: 1, value: x}, i)
	}

	var runs []int64
	for rc, rmax := 1, 1; rc <= rmax; {
		var cnt int64
		for lt.Top().phase == rc {
			minimax := lt.Top().value
			if stream.Ieof() {
				lt.Push(tuple[T]{phase: rmax + 1})
			} else {
				x, err := stream.Read()
				if err != nil {
					return nil, err
				}
				if x < minimax {
					rmax = rc + 1
					lt.Push(tuple[T]{phase: rmax, value: x})
				} else {
					lt.Push(tuple[T]{phase: rc, value: x})
				}
			}
			if err := stream.Write(minimax); err != nil {
				return nil, err
			}
			cnt++
		}
		rc = lt.Top().phase
		runs = append(runs, cnt)
	}

	if err := stream.Close(); err != nil {
		return nil, err
	}
	sink.Record("replsel.loser_size", loserSize)
	sink.Record("replsel.run_count", len(runs))
	return runs, nil
}
