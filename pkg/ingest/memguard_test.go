package ingest

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/testutil"
)

func fixedMemory(n uint64) MemoryProbe {
	return func() (uint64, error) { return n, nil }
}

func TestCheckAllocation(t *testing.T) {
	logger := testutil.TestLogger(t)

	assert.NoError(t, CheckAllocation(100, fixedMemory(800), logger))
	assert.NoError(t, CheckAllocation(100, nil, logger))
	assert.NoError(t, CheckAllocation(100, func() (uint64, error) {
		return 0, errors.New("no /proc")
	}, logger))

	err := CheckAllocation(101, fixedMemory(800), logger)
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeStructural))

	err = CheckAllocation(math.MaxUint64, nil, logger)
	require.Error(t, err)
	assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeStructural))
}

func TestSystemMemory(t *testing.T) {
	available, err := SystemMemory()
	if err != nil {
		t.Skipf("memory statistics unavailable: %v", err)
	}
	assert.Positive(t, available)
}
