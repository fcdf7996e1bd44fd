package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		path  string
		inner string
		alg   Algorithm
	}{
		{"data.csv", "data.csv", None},
		{"data.csv.gz", "data.csv", Gzip},
		{"DATA.CSV.GZ", "DATA.CSV", Gzip},
		{"/tmp/a.b/data.csv.zst", "/tmp/a.b/data.csv", Zstd},
		{"data.csv.lz4", "data.csv", LZ4},
		{"data.csv.sz", "data.csv", Snappy},
		{"data.csv.bz2", "data.csv.bz2", None},
		{"data.gz", "data", Gzip},
		{"", "", None},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			inner, alg := Split(tt.path)
			assert.Equal(t, tt.inner, inner)
			assert.Equal(t, tt.alg, alg)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	original := strings.Repeat("value\n0\n42\n100\n255\n", 500)

	for _, alg := range []Algorithm{None, Gzip, Zstd, LZ4, Snappy} {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(fmt.Sprintf("%s/%d", alg, level), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, alg, level)
				require.NoError(t, err)
				_, err = io.WriteString(w, original)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if alg != None {
					assert.Less(t, buf.Len(), len(original))
				}

				r, err := NewReader(&buf, alg)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, original, string(got))
			})
		}
	}
}

func TestNewReader_Corrupt(t *testing.T) {
	_, err := NewReader(strings.NewReader("not gzip"), Gzip)
	assert.Error(t, err)

	r, err := NewReader(strings.NewReader("not zstd at all"), Zstd)
	if err == nil {
		_, err = io.ReadAll(r)
	}
	assert.Error(t, err)
}

func TestUnsupported(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), "brotli")
	assert.EqualError(t, err, "unsupported compression algorithm: brotli")

	_, err = NewWriter(io.Discard, "brotli", Default)
	assert.Error(t, err)
}
