package ingest

import (
	"math"
	"math/bits"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// MaxBitWidth is the widest entry a quantized database can hold.
const MaxBitWidth = 64

// BitWidth is the number of bits per quantized entry (d). It defines the
// closed range [0, 2^d - 1].
type BitWidth uint

// Validate checks that the width is in [1, MaxBitWidth].
func (w BitWidth) Validate() error {
	if w == 0 || w > MaxBitWidth {
		return pirerrors.New(pirerrors.ErrorTypeConfig, "bit width out of range").
			WithDetail("bit_width", uint(w)).
			WithDetail("min", 1).
			WithDetail("max", MaxBitWidth)
	}
	return nil
}

// Max returns 2^d - 1, the largest representable entry.
func (w BitWidth) Max() uint64 {
	if w >= MaxBitWidth {
		return math.MaxUint64
	}
	return (uint64(1) << w) - 1
}

// Reduce returns v mod 2^d.
func (w BitWidth) Reduce(v uint64) uint64 {
	return v & w.Max()
}

// Fits reports whether v is in [0, 2^d - 1].
func (w BitWidth) Fits(v uint64) bool {
	return v <= w.Max()
}

// BitsFor returns the smallest width that can hold v. Zero needs one bit.
func BitsFor(v uint64) BitWidth {
	if v == 0 {
		return 1
	}
	return BitWidth(bits.Len64(v))
}
