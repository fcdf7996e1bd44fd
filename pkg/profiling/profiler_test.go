package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/testutil"
)

func TestProfiler(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPUFile:    filepath.Join(dir, "cpu.prof"),
		MemoryFile: filepath.Join(dir, "mem.prof"),
	}
	require.True(t, cfg.Enabled())

	p := NewProfiler(cfg, testutil.TestLogger(t))
	require.NoError(t, p.Start())

	sum := 0
	for i := range 1_000_000 {
		sum += i
	}
	assert.Positive(t, sum)

	require.NoError(t, p.Stop())
	for _, path := range []string{cfg.CPUFile, cfg.MemoryFile} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	// a second Stop only rewrites the heap profile
	assert.NoError(t, p.Stop())
}

func TestProfiler_Disabled(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.Enabled())

	p := NewProfiler(cfg, nil)
	assert.NoError(t, p.Start())
	assert.NoError(t, p.Stop())
}

func TestProfiler_BadPath(t *testing.T) {
	p := NewProfiler(Config{CPUFile: filepath.Join(t.TempDir(), "missing", "cpu.prof")}, nil)
	err := p.Start()
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeInternal))
}
