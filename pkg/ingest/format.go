package ingest

import (
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/colpir/pkg/compression"
)

// Format identifies how a source file is laid out.
type Format int

const (
	// FormatUnknown is returned for unrecognized or missing suffixes
	FormatUnknown Format = iota
	// FormatTextTabular is comma-delimited text (.csv), optionally compressed
	FormatTextTabular
	// FormatTypedColumnar is a schema-bearing columnar container (.parquet)
	FormatTypedColumnar
)

// String returns the format name used in logs and metric labels.
func (f Format) String() string {
	switch f {
	case FormatTextTabular:
		return "csv"
	case FormatTypedColumnar:
		return "parquet"
	default:
		return "unknown"
	}
}

// DetectFormat classifies path by its suffix, ignoring case. A CSV file may
// carry a compression suffix such as .csv.gz. The content is never
// inspected, so a mislabelled file is indistinguishable from an unsupported
// one.
func DetectFormat(path string) Format {
	inner, alg := compression.Split(path)
	switch strings.ToLower(filepath.Ext(inner)) {
	case ".csv":
		return FormatTextTabular
	case ".parquet":
		if alg != compression.None {
			return FormatUnknown
		}
		return FormatTypedColumnar
	default:
		return FormatUnknown
	}
}
