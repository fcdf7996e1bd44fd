package simplepir

import (
	"math"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Defaults.
const (
	DefaultLWEDimension  = 512
	DefaultPlaintextBits = 8
	DefaultChallengeRows = 32
	DefaultSigma         = 6.4

	MaxPlaintextBits = 10
	MaxEntryBits     = 64
)

// Params are the public parameters of one database.
type Params struct {
	N      uint64  // number of entries
	D      uint    // bits per entry
	LogP   uint    // plaintext bits k, p = 2^k
	LWEDim int     // secret dimension n
	Sigma  float64 // error deviation
	Kappa  int     // challenge rows of the proof
	Digits int     // base-p digits per entry
	L      int     // database matrix rows
	M      int     // database matrix columns
	Seed   Seed
	A      *Matrix // M x LWEDim, expanded from Seed
}

// P returns the plaintext modulus.
func (p *Params) P() uint32 {
	return 1 << p.LogP
}

// Delta returns the scaling factor q/p.
func (p *Params) Delta() uint32 {
	return 1 << (32 - p.LogP)
}

// EntriesPerColumn returns how many entries share a column.
func (p *Params) EntriesPerColumn() int {
	return p.L / p.Digits
}

// Locate returns the column of entry i and the first of its digit rows.
func (p *Params) Locate(i uint64) (col, row int) {
	m := uint64(p.M)
	return int(i % m), int(i/m) * p.Digits
}

// layout picks a close to square matrix of L rows and M columns for n
// entries of ne digits each. L is a multiple of ne.
func layout(n uint64, ne int) (l, m int) {
	l = int(math.Floor(math.Sqrt(float64(n) * float64(ne))))
	if r := l % ne; r != 0 {
		l += ne - r
	}
	if l < ne {
		l = ne
	}
	perCol := uint64(l / ne)
	m = int((n + perCol - 1) / perCol)
	return l, m
}

func digitsFor(d, logp uint) int {
	return int((d + logp - 1) / logp)
}

func validateDims(n uint64, d uint, config Config) error {
	if n == 0 {
		return pirerrors.New(pirerrors.ErrorTypeStructural, "empty dataset")
	}
	if d == 0 || d > MaxEntryBits {
		return pirerrors.New(pirerrors.ErrorTypeConfig, "bit width out of range").
			WithDetail("bit_width", d)
	}
	if config.PlaintextBits == 0 || config.PlaintextBits > MaxPlaintextBits {
		return pirerrors.New(pirerrors.ErrorTypeConfig, "plaintext bits out of range").
			WithDetail("plaintext_bits", config.PlaintextBits)
	}
	if config.LWEDimension < 1 {
		return pirerrors.New(pirerrors.ErrorTypeConfig, "lwe dimension must be positive").
			WithDetail("lwe_dimension", config.LWEDimension)
	}
	return nil
}
