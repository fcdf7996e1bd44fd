package ingest_test

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colpir/pkg/ingest"
	_ "github.com/ajitpratap0/colpir/pkg/ingest/sources/csv"
	_ "github.com/ajitpratap0/colpir/pkg/ingest/sources/parquet"
	"github.com/ajitpratap0/colpir/pkg/observability"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/testutil"
)

func newPipeline(t *testing.T) *ingest.Pipeline {
	return ingest.NewPipeline(ingest.PipelineConfig{MaxWarnings: 100}, testutil.TestLogger(t))
}

func TestPipeline_HeaderedColumn(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	path := testutil.WriteFile(t, "values.csv", testutil.CSV("value", "0", "42", "100", "255"))

	db, report, err := newPipeline(t).Build(ctx, ingest.NewDescriptor(path, true, ""), 8)
	require.NoError(t, err)

	assert.Equal(t, uint64(255), db.Width().Max())
	assert.Equal(t, uint64(4), db.Len())
	assert.Equal(t, []uint64{0, 42, 100, 255}, db.Entries())
	assert.False(t, report.Short)

	v, err := db.At(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v)
}

func TestPipeline_NonNumericRejected(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	path := testutil.WriteFile(t, "bad.csv", testutil.CSV("value", "1", "abc", "2"))
	logger, logs := testutil.ObservedLogger(t)

	db, _, err := ingest.NewPipeline(ingest.PipelineConfig{}, logger).
		Build(ctx, ingest.NewDescriptor(path, true, ""), 2)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "row=2")
	assert.Contains(t, err.Error(), "text=abc")
	assert.Zero(t, logs.FilterMessage("database loaded").Len(), "loading must not start")
}

func TestPipeline_OutOfRangeRejected(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	path := testutil.WriteFile(t, "range.csv", testutil.CSV("value", "1", "5", "3"))

	_, _, err := newPipeline(t).Build(ctx, ingest.NewDescriptor(path, true, ""), 2)
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "value exceeds maximum")
	assert.Contains(t, err.Error(), "row=2")
	assert.Contains(t, err.Error(), "max=3")
}

func TestLoader_OutOfRangeClamped(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	path := testutil.WriteFile(t, "range.csv", testutil.CSV("value", "1", "5", "3"))

	src, err := ingest.Open(ingest.NewDescriptor(path, true, ""))
	require.NoError(t, err)
	defer src.Close()

	n, err := src.CountRows(ctx)
	require.NoError(t, err)

	db, report, err := ingest.NewLoader(ingest.LoaderConfig{MaxWarnings: 10}, testutil.TestLogger(t)).
		Load(ctx, src, n, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3, 3}, db.Entries())
	assert.Equal(t, uint64(1), report.Clamped)
}

func TestPipeline_RowEventsTraced(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	var buf bytes.Buffer
	cfg := observability.DefaultConfig("test")
	cfg.Writer = &buf
	require.NoError(t, observability.Initialize(ctx, cfg))

	bad := testutil.WriteFile(t, "bad.csv", testutil.CSV("value", "1", "abc"))
	_, _, err := newPipeline(t).Build(ctx, ingest.NewDescriptor(bad, true, ""), 8)
	require.Error(t, err)

	src, err := ingest.Open(ingest.NewDescriptor(
		testutil.WriteFile(t, "range.csv", testutil.CSV("value", "1", "5")), true, ""))
	require.NoError(t, err)
	defer src.Close()
	loadCtx, end := observability.StartPhase(ctx, "load")
	_, _, err = ingest.NewLoader(ingest.LoaderConfig{MaxWarnings: 10}, testutil.TestLogger(t)).
		Load(loadCtx, src, 2, 2)
	end(err)
	require.NoError(t, err)

	require.NoError(t, observability.Shutdown(ctx))
	assert.Contains(t, buf.String(), "row_rejected")
	assert.Contains(t, buf.String(), "row_repaired")
}

func TestPipeline_EmptySource(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no rows", ""},
		{"header only", "value\n"},
		{"blank lines", "value\n\n   \n\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext(t)
			defer cancel()
			path := testutil.WriteFile(t, "empty.csv", tt.content)

			_, _, err := newPipeline(t).Build(ctx, ingest.NewDescriptor(path, true, ""), 8)
			require.Error(t, err)
			assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeStructural))
			assert.Contains(t, err.Error(), "empty dataset")
		})
	}
}

func TestPipeline_InputErrors(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing csv", filepath.Join(dir, "missing.csv")},
		{"missing parquet", filepath.Join(dir, "missing.parquet")},
		{"unknown suffix", testutil.WriteFile(t, "data.txt", "1\n2\n")},
		{"no suffix", filepath.Join(dir, "data")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newPipeline(t).Build(ctx, ingest.NewDescriptor(tt.path, true, ""), 8)
			require.Error(t, err)
			assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeInput), err.Error())
			assert.False(t, pirerrors.IsType(err, pirerrors.ErrorTypeStructural))
		})
	}
}

func TestPipeline_MemoryGuardRunsBeforeLoad(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	path := testutil.WriteFile(t, "values.csv", testutil.CSV("value", "1", "2", "3"))
	logger, logs := testutil.ObservedLogger(t)

	p := ingest.NewPipeline(ingest.PipelineConfig{MemoryGuard: true}, logger).
		WithMemoryProbe(func() (uint64, error) { return 16, nil })

	_, _, err := p.Build(ctx, ingest.NewDescriptor(path, true, ""), 8)
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeStructural))
	assert.Zero(t, logs.FilterMessage("database loaded").Len())
}

func TestPipeline_InvalidWidth(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	path := testutil.WriteFile(t, "values.csv", testutil.CSV("value", "1"))

	_, _, err := newPipeline(t).Build(ctx, ingest.NewDescriptor(path, true, ""), 65)
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeConfig))
}

// Every in-range CSV value lands at its row index, reduced mod 2^d.
func TestPipeline_CSVEntriesMatchRows(t *testing.T) {
	for _, d := range []ingest.BitWidth{1, 3, 8, 17, 64} {
		t.Run(strconv.Itoa(int(d)), func(t *testing.T) {
			ctx, cancel := testutil.TestContext(t)
			defer cancel()

			want := ingest.Synthetic(257, d, uint64(d)).Entries()
			lines := []string{"value"}
			for i, v := range want {
				lines = append(lines, strconv.FormatUint(v, 10)+",ignored")
				if i%50 == 0 {
					lines = append(lines, "   ")
				}
			}
			path := testutil.WriteFile(t, "values.csv", testutil.CSV(lines...))

			db, _, err := newPipeline(t).Build(ctx, ingest.NewDescriptor(path, true, ""), d)
			require.NoError(t, err)
			require.Equal(t, uint64(len(want)), db.Len())
			for i, v := range want {
				got, err := db.At(uint64(i))
				require.NoError(t, err)
				require.Equal(t, d.Reduce(v), got, "row %d", i+1)
			}
		})
	}
}
