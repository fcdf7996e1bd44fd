package ingest

import (
	"math"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// entryBytes is the in-memory size of one quantized entry.
const entryBytes = 8

// MemoryProbe reports how many bytes can be allocated.
type MemoryProbe func() (uint64, error)

// SystemMemory reports the available system memory.
func SystemMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// CheckAllocation fails with a structural error when a buffer of n entries
// cannot fit in the memory reported by probe. If the probe fails the check
// is skipped.
func CheckAllocation(n uint64, probe MemoryProbe, logger *zap.Logger) error {
	if n > math.MaxUint64/entryBytes {
		return pirerrors.New(pirerrors.ErrorTypeStructural, "allocation too large").
			WithDetail("entries", n)
	}
	need := n * entryBytes

	if probe == nil {
		return nil
	}
	available, err := probe()
	if err != nil {
		logger.Debug("memory statistics unavailable, skipping allocation check", zap.Error(err))
		return nil
	}
	if need > available {
		return pirerrors.New(pirerrors.ErrorTypeStructural, "allocation does not fit in available memory").
			WithDetail("entries", n).
			WithDetail("required_bytes", need).
			WithDetail("available_bytes", available)
	}
	return nil
}
