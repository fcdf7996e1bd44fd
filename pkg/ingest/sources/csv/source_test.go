package csv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/testutil"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw   string
		kind  ingest.CellKind
		value uint64
	}{
		{"42", ingest.CellValue, 42},
		{"  7\t", ingest.CellValue, 7},
		{"0", ingest.CellValue, 0},
		{"-0", ingest.CellValue, 0},
		{"18446744073709551615", ingest.CellValue, 18446744073709551615},
		{"18446744073709551616", ingest.CellOverflow, 0},
		{"-1", ingest.CellNegative, 0},
		{"-99999999999999999999", ingest.CellNegative, 0},
		{"", ingest.CellAbsent, 0},
		{"   ", ingest.CellAbsent, 0},
		{"abc", ingest.CellUnparsable, 0},
		{"12abc", ingest.CellUnparsable, 0},
		{"1.5", ingest.CellUnparsable, 0},
		{"-x", ingest.CellUnparsable, 0},
		{"+5", ingest.CellUnparsable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := Classify(3, tt.raw)
			assert.Equal(t, tt.kind, c.Kind, c.Kind.String())
			assert.Equal(t, tt.value, c.Value)
			assert.Equal(t, uint64(3), c.Row)
			assert.Equal(t, tt.raw, c.Raw)
		})
	}
}

func TestSource_CountRows(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		hasHeader bool
		want      uint64
	}{
		{"with header", "value\n1\n2\n3\n", true, 3},
		{"without header", "1\n2\n3\n", false, 3},
		{"blank records skipped", "value\n1\n\n   \n2\n", true, 2},
		{"empty first field counts", "value\n,5\n1\n", true, 2},
		{"no trailing newline", "value\n1\n2", true, 2},
		{"header only", "value\n", true, 0},
		{"empty file", "", true, 0},
		{"crlf", "value\r\n1\r\n2\r\n", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, "data.csv", tt.content)
			src, err := NewSource(ingest.NewDescriptor(path, tt.hasHeader, ""))
			require.NoError(t, err)

			n, err := src.CountRows(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestSource_Scan(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", testutil.CSV(
		"value,label",
		"5,a",
		"",
		" 6 ,b",
		"abc,c",
		",d",
		"\"7\",e",
	))
	src, err := NewSource(ingest.NewDescriptor(path, true, ""))
	require.NoError(t, err)

	var cells []ingest.Cell
	require.NoError(t, src.Scan(context.Background(), func(c ingest.Cell) error {
		cells = append(cells, c)
		return nil
	}))

	require.Len(t, cells, 5)
	assert.Equal(t, ingest.Cell{Row: 1, Kind: ingest.CellValue, Value: 5, Raw: "5"}, cells[0])
	assert.Equal(t, ingest.Cell{Row: 2, Kind: ingest.CellValue, Value: 6, Raw: " 6 "}, cells[1])
	assert.Equal(t, ingest.Cell{Row: 3, Kind: ingest.CellUnparsable, Raw: "abc"}, cells[2])
	assert.Equal(t, ingest.Cell{Row: 4, Kind: ingest.CellAbsent, Raw: ""}, cells[3])
	assert.Equal(t, ingest.Cell{Row: 5, Kind: ingest.CellValue, Value: 7, Raw: "7"}, cells[4])
}

func TestSource_ScanStop(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", testutil.CSV("1", "2", "3"))
	src, err := NewSource(ingest.NewDescriptor(path, false, ""))
	require.NoError(t, err)

	var seen int
	err = src.Scan(context.Background(), func(ingest.Cell) error {
		seen++
		return ingest.ErrStop
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestSource_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	src, err := NewSource(ingest.NewDescriptor(path, true, ""))
	require.NoError(t, err)

	_, err = src.CountRows(context.Background())
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeInput))
	assert.Contains(t, err.Error(), "unable to open source")
}

func TestSource_Cancelled(t *testing.T) {
	lines := make([]string, 0, ingest.CheckInterval+1)
	for range ingest.CheckInterval + 1 {
		lines = append(lines, "1")
	}
	path := testutil.WriteFile(t, "data.csv", testutil.CSV(lines...))
	src, err := NewSource(ingest.NewDescriptor(path, false, ""))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.CountRows(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	values := []uint64{0, 1, 255, 18446744073709551615}
	require.NoError(t, WriteColumn(path, "value", values))

	src, err := NewSource(ingest.NewDescriptor(path, true, ""))
	require.NoError(t, err)

	n, err := src.CountRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(len(values)), n)

	var got []uint64
	require.NoError(t, src.Scan(context.Background(), func(c ingest.Cell) error {
		got = append(got, c.Value)
		return nil
	}))
	assert.Equal(t, values, got)
}

func TestWriteColumn_Compressed(t *testing.T) {
	values := []uint64{3, 1, 4, 1, 5, 9, 2, 6}

	for _, name := range []string{"out.csv.gz", "out.csv.zst", "out.csv.lz4", "out.csv.sz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteColumn(path, "value", values))

			src, err := ingest.Open(ingest.NewDescriptor(path, true, ""))
			require.NoError(t, err)

			var got []uint64
			require.NoError(t, src.Scan(context.Background(), func(c ingest.Cell) error {
				got = append(got, c.Value)
				return nil
			}))
			assert.Equal(t, values, got)
		})
	}
}

func TestSource_CorruptCompressed(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv.gz", testutil.CSV("1", "2"))
	src, err := NewSource(ingest.NewDescriptor(path, false, ""))
	require.NoError(t, err)

	_, err = src.CountRows(context.Background())
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeInput))
	assert.Contains(t, err.Error(), "unable to decompress source")
}
