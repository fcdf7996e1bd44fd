package ingest

import (
	"context"
	"errors"
)

// ErrStop may be returned by a ScanFunc to end a scan early. Scan then
// returns nil.
var ErrStop = errors.New("stop scan")

// CellKind classifies a single value read from the target column.
type CellKind int

const (
	// CellValue is a parsed non-negative integer
	CellValue CellKind = iota
	// CellAbsent is an empty text field or a null typed value
	CellAbsent
	// CellUnparsable is text that is not a non-negative integer literal
	CellUnparsable
	// CellNegative is a negative integer
	CellNegative
	// CellOverflow is an integer literal beyond the 64-bit range
	CellOverflow
)

// String returns the kind name used in logs and metric labels.
func (k CellKind) String() string {
	switch k {
	case CellValue:
		return "value"
	case CellAbsent:
		return "absent"
	case CellUnparsable:
		return "unparsable"
	case CellNegative:
		return "negative"
	case CellOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Cell is one row of the target column.
type Cell struct {
	Row   uint64 // 1-based data row, header excluded
	Kind  CellKind
	Value uint64 // set when Kind is CellValue
	Raw   string // original text, for diagnostics
}

// ScanFunc receives cells in row order.
type ScanFunc func(Cell) error

// Source is a format adapter over one column of one file. Every pass opens
// the file again, so a Source may be scanned any number of times.
type Source interface {
	// Descriptor returns the resolved source descriptor.
	Descriptor() Descriptor
	// CountRows returns the number of usable data rows (N).
	CountRows(ctx context.Context) (uint64, error)
	// Scan calls fn for every usable row. Blank text records are skipped
	// and do not consume a row number.
	Scan(ctx context.Context, fn ScanFunc) error
	// Close releases resources held between passes.
	Close() error
}

// CheckInterval is how many rows an adapter may process between context
// cancellation checks.
const CheckInterval = 4096
