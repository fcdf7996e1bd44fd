package ingest

import (
	"context"
	"math"
)

// Stats describes a source column relative to a bit width.
type Stats struct {
	Path           string   `json:"path"`
	Format         string   `json:"format"`
	Rows           uint64   `json:"rows"`
	Present        uint64   `json:"present"`
	Invalid        uint64   `json:"invalid"`
	Min            uint64   `json:"min"`
	Max            uint64   `json:"max"`
	BitWidth       BitWidth `json:"bit_width"`
	MaxAllowed     uint64   `json:"max_allowed"`
	SuggestedWidth BitWidth `json:"suggested_bit_width"`
	SizeMiB        float64  `json:"size_mib"`
}

// HasValues reports whether Min and Max are meaningful.
func (s *Stats) HasValues() bool {
	return s.Present > 0
}

// CollectStats counts rows and finds the range of parsed values. Cells that
// are not non-negative integers are counted as invalid and otherwise
// ignored.
func CollectStats(ctx context.Context, src Source, width BitWidth) (*Stats, error) {
	if err := width.Validate(); err != nil {
		return nil, err
	}
	desc := src.Descriptor()

	n, err := src.CountRows(ctx)
	if err != nil {
		return nil, err
	}

	s := &Stats{
		Path:       desc.Path,
		Format:     desc.Format.String(),
		Rows:       n,
		Min:        math.MaxUint64,
		BitWidth:   width,
		MaxAllowed: width.Max(),
		SizeMiB:    float64(n) * float64(width) / 8 / (1 << 20),
	}

	err = src.Scan(ctx, func(c Cell) error {
		switch c.Kind {
		case CellValue:
			s.Present++
			s.Min = min(s.Min, c.Value)
			s.Max = max(s.Max, c.Value)
		case CellAbsent:
		default:
			s.Invalid++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Present == 0 {
		s.Min = 0
	}
	s.SuggestedWidth = BitsFor(s.Max)
	return s, nil
}
