// Package csv is the text-tabular ingest adapter. The first comma-delimited
// field of every non-blank record is the target column. Files ending in a
// compression suffix (.gz, .zst, .lz4, .sz) are decompressed while reading.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ajitpratap0/colpir/pkg/compression"
	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

func init() {
	ingest.Register(ingest.FormatTextTabular, NewSource)
}

// Source reads the first column of a CSV file.
type Source struct {
	desc ingest.Descriptor
}

// NewSource creates a CSV source. The file is opened lazily by each pass.
func NewSource(desc ingest.Descriptor) (ingest.Source, error) {
	return &Source{desc: desc}, nil
}

// Descriptor returns the source descriptor.
func (s *Source) Descriptor() ingest.Descriptor {
	return s.desc
}

// CountRows counts non-blank data records, excluding the header.
func (s *Source) CountRows(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.each(ctx, func(_ []string) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Scan calls fn with the first field of every non-blank data record.
func (s *Source) Scan(ctx context.Context, fn ingest.ScanFunc) error {
	var row uint64
	err := s.each(ctx, func(record []string) error {
		row++
		return fn(Classify(row, record[0]))
	})
	if errors.Is(err, ingest.ErrStop) {
		return nil
	}
	return err
}

// Close is a no-op; every pass closes its own file handle.
func (s *Source) Close() error {
	return nil
}

func (s *Source) each(ctx context.Context, fn func(record []string) error) error {
	file, err := os.Open(s.desc.Path)
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "unable to open source").
			WithDetail("path", s.desc.Path)
	}
	defer file.Close()

	_, alg := compression.Split(s.desc.Path)
	stream, err := compression.NewReader(file, alg)
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "unable to decompress source").
			WithDetail("path", s.desc.Path).
			WithDetail("compression", string(alg))
	}
	defer stream.Close()

	reader := csv.NewReader(stream)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	if s.desc.HasHeader {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return s.readError(err)
		}
	}

	var seen int
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return s.readError(err)
		}

		seen++
		if seen%ingest.CheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if isBlank(record) {
			continue
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

func (s *Source) readError(err error) error {
	e := pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "failed to read source").
		WithDetail("path", s.desc.Path)
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		e.WithDetail("line", perr.Line)
	}
	return e
}

// isBlank reports whether a record is a whitespace-only line.
func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}

// Classify parses the text of a single field.
func Classify(row uint64, raw string) ingest.Cell {
	cell := ingest.Cell{Row: row, Raw: raw}
	text := strings.TrimSpace(raw)
	if text == "" {
		cell.Kind = ingest.CellAbsent
		return cell
	}

	v, err := strconv.ParseUint(text, 10, 64)
	if err == nil {
		cell.Kind = ingest.CellValue
		cell.Value = v
		return cell
	}
	if errors.Is(err, strconv.ErrRange) {
		cell.Kind = ingest.CellOverflow
		return cell
	}

	if strings.HasPrefix(text, "-") {
		iv, ierr := strconv.ParseInt(text, 10, 64)
		switch {
		case ierr == nil && iv == 0:
			cell.Kind = ingest.CellValue
			return cell
		case ierr == nil, errors.Is(ierr, strconv.ErrRange):
			cell.Kind = ingest.CellNegative
			return cell
		}
	}

	cell.Kind = ingest.CellUnparsable
	return cell
}
