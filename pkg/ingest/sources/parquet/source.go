// Package parquet is the typed-columnar ingest adapter. It reads one INT64
// or UINT64 column through the Arrow Parquet reader.
package parquet

import (
	"context"
	"errors"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// batchSize is the number of rows decoded per Arrow record.
const batchSize = 64 * 1024

func init() {
	ingest.Register(ingest.FormatTypedColumnar, NewSource)
}

// Source reads one column of a Parquet file.
type Source struct {
	desc ingest.Descriptor
}

// NewSource creates a Parquet source. The file is opened by each pass.
func NewSource(desc ingest.Descriptor) (ingest.Source, error) {
	return &Source{desc: desc}, nil
}

// Descriptor returns the source descriptor.
func (s *Source) Descriptor() ingest.Descriptor {
	return s.desc
}

// Close is a no-op; every pass closes its own reader.
func (s *Source) Close() error {
	return nil
}

// column is an open file with its resolved target column. index is the
// top-level field, leaf the physical column it maps to or -1 when nested.
type column struct {
	rdr   *file.Reader
	fr    *pqarrow.FileReader
	index int
	leaf  int
	field arrow.Field
}

func (c *column) supported() bool {
	if c.leaf < 0 {
		return false
	}
	id := c.field.Type.ID()
	return id == arrow.INT64 || id == arrow.UINT64
}

func (c *column) close() {
	_ = c.rdr.Close()
}

func (s *Source) open() (*column, error) {
	rdr, err := file.OpenParquetFile(s.desc.Path, false)
	if err != nil {
		return nil, pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "unable to open source").
			WithDetail("path", s.desc.Path)
	}

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: batchSize}, memory.DefaultAllocator)
	if err != nil {
		_ = rdr.Close()
		return nil, pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "unable to read metadata").
			WithDetail("path", s.desc.Path)
	}

	schema, err := fr.Schema()
	if err != nil {
		_ = rdr.Close()
		return nil, pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "unable to read schema").
			WithDetail("path", s.desc.Path)
	}

	index := -1
	if s.desc.Column == "" {
		if schema.NumFields() > 0 {
			index = 0
		}
	} else if indices := schema.FieldIndices(s.desc.Column); len(indices) > 0 {
		index = indices[0]
	}
	if index < 0 {
		_ = rdr.Close()
		return nil, pirerrors.New(pirerrors.ErrorTypeInput, "column not found").
			WithDetail("path", s.desc.Path).
			WithDetail("column", s.desc.Column)
	}

	return &column{
		rdr:   rdr,
		fr:    fr,
		index: index,
		leaf:  fr.Manifest.Fields[index].ColIndex,
		field: schema.Field(index),
	}, nil
}

// CountRows returns the row count from the file metadata.
func (s *Source) CountRows(ctx context.Context) (uint64, error) {
	col, err := s.open()
	if err != nil {
		return 0, err
	}
	defer col.close()

	n := col.rdr.NumRows()
	if n < 0 {
		n = 0
	}
	return uint64(n), nil
}

// Scan calls fn for every row of the target column. A column whose type is
// neither INT64 nor UINT64 is a validation error.
func (s *Source) Scan(ctx context.Context, fn ingest.ScanFunc) error {
	col, err := s.open()
	if err != nil {
		return err
	}
	defer col.close()

	if !col.supported() {
		return pirerrors.New(pirerrors.ErrorTypeValidation, "unsupported column type").
			WithDetail("path", s.desc.Path).
			WithDetail("column", col.field.Name).
			WithDetail("type", col.field.Type.String())
	}

	rr, err := col.fr.GetRecordReader(ctx, []int{col.leaf}, nil)
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "failed to read column").
			WithDetail("path", s.desc.Path).
			WithDetail("column", col.field.Name)
	}
	defer rr.Release()

	var row uint64
	for rr.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := rr.Record()
		err := scanArray(rec.Column(0), &row, fn)
		if errors.Is(err, ingest.ErrStop) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	if err := rr.Err(); err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "failed to read column").
			WithDetail("path", s.desc.Path).
			WithDetail("column", col.field.Name)
	}
	return nil
}

func scanArray(arr arrow.Array, row *uint64, fn ingest.ScanFunc) error {
	switch a := arr.(type) {
	case *array.Int64:
		for i := 0; i < a.Len(); i++ {
			*row++
			cell := ingest.Cell{Row: *row}
			switch v := a.Value(i); {
			case a.IsNull(i):
				cell.Kind = ingest.CellAbsent
			case v < 0:
				cell.Kind = ingest.CellNegative
				cell.Raw = strconv.FormatInt(v, 10)
			default:
				cell.Kind = ingest.CellValue
				cell.Value = uint64(v)
				cell.Raw = strconv.FormatInt(v, 10)
			}
			if err := fn(cell); err != nil {
				return err
			}
		}
	case *array.Uint64:
		for i := 0; i < a.Len(); i++ {
			*row++
			cell := ingest.Cell{Row: *row}
			if a.IsNull(i) {
				cell.Kind = ingest.CellAbsent
			} else {
				cell.Kind = ingest.CellValue
				cell.Value = a.Value(i)
				cell.Raw = strconv.FormatUint(cell.Value, 10)
			}
			if err := fn(cell); err != nil {
				return err
			}
		}
	default:
		return pirerrors.New(pirerrors.ErrorTypeValidation, "unsupported column type").
			WithDetail("type", arr.DataType().String())
	}
	return nil
}
