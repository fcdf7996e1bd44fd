package ingest

import (
	"context"
	"errors"
	"strconv"
)

// sliceSource is an in-memory Source over prepared cells.
type sliceSource struct {
	desc      Descriptor
	cells     []Cell
	delivered int
	scans     int
}

func newSliceSource(cells ...Cell) *sliceSource {
	return &sliceSource{
		desc:  Descriptor{Path: "mem.csv", Format: FormatTextTabular},
		cells: cells,
	}
}

func (s *sliceSource) Descriptor() Descriptor { return s.desc }

func (s *sliceSource) CountRows(context.Context) (uint64, error) {
	return uint64(len(s.cells)), nil
}

func (s *sliceSource) Scan(_ context.Context, fn ScanFunc) error {
	s.scans++
	for _, c := range s.cells {
		s.delivered++
		if err := fn(c); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *sliceSource) Close() error { return nil }

// numbered assigns 1-based row numbers in order.
func numbered(cells ...Cell) []Cell {
	for i := range cells {
		cells[i].Row = uint64(i + 1)
	}
	return cells
}

func value(v uint64) Cell {
	return Cell{Kind: CellValue, Value: v, Raw: strconv.FormatUint(v, 10)}
}

func kind(k CellKind, raw string) Cell {
	return Cell{Kind: k, Raw: raw}
}
