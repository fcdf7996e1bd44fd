package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// unregister removes the adapter for f for the duration of the test.
func unregister(t *testing.T, f Format) {
	registryMu.Lock()
	prev, ok := registry[f]
	delete(registry, f)
	registryMu.Unlock()

	t.Cleanup(func() {
		registryMu.Lock()
		defer registryMu.Unlock()
		if ok {
			registry[f] = prev
		} else {
			delete(registry, f)
		}
	})
}

func TestOpen_Unsupported(t *testing.T) {
	unregister(t, FormatTypedColumnar)

	tests := []Descriptor{
		NewDescriptor("data.txt", false, ""),
		NewDescriptor("data.parquet", false, ""),
	}
	for _, desc := range tests {
		t.Run(desc.Path, func(t *testing.T) {
			_, err := Open(desc)
			require.Error(t, err)
			assert.True(t, pirerrors.IsType(err, pirerrors.ErrorTypeInput))
			assert.Contains(t, err.Error(), "unsupported format")
		})
	}
	assert.NotContains(t, RegisteredFormats(), FormatTypedColumnar)
}

func TestRegister(t *testing.T) {
	unregister(t, FormatTextTabular)

	src := newSliceSource()
	Register(FormatTextTabular, func(Descriptor) (Source, error) { return src, nil })

	got, err := Open(NewDescriptor("x.csv", true, ""))
	require.NoError(t, err)
	assert.Same(t, src, got)
	assert.Contains(t, RegisteredFormats(), FormatTextTabular)
}
