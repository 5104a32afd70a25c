package mergesort

import (
	"github.com/qysort/extsort/internal/common"
	"github.com/qysort/extsort/internal/iobuf"
)

// twoWayMerge drains r1 and r2 (already Seek'd to their respective
// spans) into w in sorted order. Shared by HuffmanMerge's pairwise runs
// and SimpleTwoWayMerge's doubling passes.
func twoWayMerge[T common.Numeric](r1, r2 *iobuf.Reader[T], w *iobuf.Writer[T]) error {
	ok1, ok2 := !r1.Eof(), !r2.Eof()
	var v1, v2 T
	var err error
	if ok1 {
		if v1, err = r1.Next(); err != nil {
			return err
		}
	}
	if ok2 {
		if v2, err = r2.Next(); err != nil {
			return err
		}
	}
	for ok1 && ok2 {
		if v1 < v2 {
			if err := w.Write(v1); err != nil {
				return err
			}
			ok1 = !r1.Eof()
			if ok1 {
				if v1, err = r1.Next(); err != nil {
					return err
				}
			}
		} else {
			if err := w.Write(v2); err != nil {
				return err
			}
			ok2 = !r2.Eof()
			if ok2 {
				if v2, err = r2.Next(); err != nil {
					return err
				}
			}
		}
	}
	for ok1 {
		if err := w.Write(v1); err != nil {
			return err
		}
		ok1 = !r1.Eof()
		if ok1 {
			if v1, err = r1.Next(); err != nil {
				return err
			}
		}
	}
	for ok2 {
		if err := w.Write(v2); err != nil {
			return err
		}
		ok2 = !r2.Eof()
		if ok2 {
			if v2, err = r2.Next(); err != nil {
				return err
			}
		}
	}
	return nil
}
