package parquet

import (
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pq "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// WriterConfig describes the column written by WriteColumn.
type WriterConfig struct {
	Column      string
	Signed      bool   // INT64 instead of UINT64
	Compression string // snappy, gzip, zstd or none
	BatchSize   int
}

// Codec maps a compression name to a Parquet codec. Unknown names fall back
// to snappy.
func Codec(name string) compress.Compression {
	switch strings.ToLower(name) {
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	default:
		return compress.Codecs.Snappy
	}
}

// WriteColumn writes values as a single non-null column.
func WriteColumn(path string, config WriterConfig, values []uint64) error {
	if config.Column == "" {
		config.Column = "value"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = batchSize
	}

	dataType := arrow.PrimitiveTypes.Uint64
	if config.Signed {
		dataType = arrow.PrimitiveTypes.Int64
	}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: config.Column, Type: dataType, Nullable: true},
	}, nil)

	f, err := os.Create(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "unable to create output").
			WithDetail("path", path)
	}
	defer f.Close()

	pool := memory.NewGoAllocator()
	props := pq.NewWriterProperties(
		pq.WithCompression(Codec(config.Compression)),
		pq.WithAllocator(pool),
	)
	fw, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool)))
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to create parquet writer").
			WithDetail("path", path)
	}

	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	for start := 0; start < len(values); start += config.BatchSize {
		end := min(start+config.BatchSize, len(values))
		switch b := builder.Field(0).(type) {
		case *array.Int64Builder:
			for _, v := range values[start:end] {
				b.Append(int64(v))
			}
		case *array.Uint64Builder:
			b.AppendValues(values[start:end], nil)
		}

		rec := builder.NewRecord()
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			_ = fw.Close()
			return pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to write record batch").
				WithDetail("path", path)
		}
	}

	if err := fw.Close(); err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to close parquet writer").
			WithDetail("path", path)
	}
	return nil
}
