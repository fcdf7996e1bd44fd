package ingest

import (
	"sort"
	"sync"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Opener creates a Source for a resolved descriptor.
type Opener func(desc Descriptor) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[Format]Opener)
)

// Register makes an adapter available for a format. Adapters call it from
// init; registering the same format twice replaces the earlier opener.
func Register(format Format, opener Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[format] = opener
}

// RegisteredFormats returns the formats with a linked adapter.
func RegisteredFormats() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()

	formats := make([]Format, 0, len(registry))
	for f := range registry {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Open returns a Source for desc. An unknown format and a format without a
// linked adapter are the same input error.
func Open(desc Descriptor) (Source, error) {
	registryMu.RLock()
	opener, ok := registry[desc.Format]
	registryMu.RUnlock()

	if desc.Format == FormatUnknown || !ok {
		return nil, pirerrors.New(pirerrors.ErrorTypeInput, "unsupported format").
			WithDetail("path", desc.Path).
			WithDetail("format", desc.Format.String())
	}
	return opener(desc)
}
