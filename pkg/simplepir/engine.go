package simplepir

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Config selects the LWE parameters.
type Config struct {
	LWEDimension  int
	PlaintextBits uint
	ChallengeRows int
	Sigma         float64
	// Seed makes every random choice reproducible when non-zero.
	Seed uint64
}

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	return Config{
		LWEDimension:  DefaultLWEDimension,
		PlaintextBits: DefaultPlaintextBits,
		ChallengeRows: DefaultChallengeRows,
		Sigma:         DefaultSigma,
	}
}

// Digest is a commitment to the public matrix and the hint.
type Digest [sha256.Size]byte

// Ciphertext is an encrypted query.
type Ciphertext struct {
	Vec []uint32 // length M
}

// SizeBytes returns the encoded size of the query.
func (c *Ciphertext) SizeBytes() int { return len(c.Vec) * 4 }

// Secret is the client state needed to decode one answer.
type Secret struct {
	S     []uint32 // length LWEDim
	Index uint64
}

// Answer is the server response to one query.
type Answer struct {
	Vec []uint32 // length L
}

// SizeBytes returns the encoded size of the answer.
func (a *Answer) SizeBytes() int { return len(a.Vec) * 4 }

// Engine implements the PIR protocol. Its methods are safe for sequential
// use; randomness is drawn from a single seeded stream.
type Engine struct {
	config Config

	mu  sync.Mutex
	prg *PRG
}

// New creates an engine. A zero Seed draws the master key from the
// operating system.
func New(config Config) (*Engine, error) {
	if config.Sigma == 0 {
		config.Sigma = DefaultSigma
	}
	if config.ChallengeRows <= 0 {
		config.ChallengeRows = DefaultChallengeRows
	}
	if err := validateDims(1, 1, config); err != nil {
		return nil, err
	}

	var seed Seed
	if config.Seed != 0 {
		seed = DeriveSeed("colpir/engine", config.Seed)
	} else {
		var err error
		if seed, err = RandomSeed(); err != nil {
			return nil, pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to seed engine")
		}
	}
	return &Engine{config: config, prg: NewPRG(seed)}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// nextSeed draws a fresh seed from the master stream.
func (e *Engine) nextSeed() Seed {
	e.mu.Lock()
	defer e.mu.Unlock()
	var s Seed
	_, _ = e.prg.Read(s[:])
	return s
}

// Init chooses the layout for n entries of d bits and expands the public
// matrix A.
func (e *Engine) Init(n uint64, d uint) (*Params, error) {
	if err := validateDims(n, d, e.config); err != nil {
		return nil, err
	}

	ne := digitsFor(d, e.config.PlaintextBits)
	l, m := layout(n, ne)
	p := &Params{
		N:      n,
		D:      d,
		LogP:   e.config.PlaintextBits,
		LWEDim: e.config.LWEDimension,
		Sigma:  e.config.Sigma,
		Kappa:  e.config.ChallengeRows,
		Digits: ne,
		L:      l,
		M:      m,
		Seed:   e.nextSeed(),
	}
	p.A = expandA(p.Seed, m, p.LWEDim)
	return p, nil
}

func expandA(seed Seed, rows, cols int) *Matrix {
	a := NewMatrix(rows, cols)
	NewPRG(seed).Fill(a.Data)
	return a
}

// GenerateHint returns H = D*A.
func (e *Engine) GenerateHint(params *Params, db *Matrix) (*Matrix, error) {
	return db.Mul(params.A)
}

// GenerateFakeHint returns a zero matrix with the shape of the hint. It
// costs nothing and decodes nothing; it exists for offline timing runs.
func (e *Engine) GenerateFakeHint(params *Params) *Matrix {
	return NewMatrix(params.L, params.LWEDim)
}

// CommitHash binds the public parameters and the hint.
func (e *Engine) CommitHash(params *Params, hint *Matrix) Digest {
	h := sha256.New()
	h.Write(params.Seed[:])
	var b [8]byte
	for _, v := range []uint64{params.N, uint64(params.D), uint64(params.LogP), uint64(params.L), uint64(params.M), uint64(params.LWEDim)} {
		binary.LittleEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	params.A.writeTo(h)
	hint.writeTo(h)

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Query encrypts the unit vector of the column holding entry index.
func (e *Engine) Query(params *Params, index uint64) (*Ciphertext, *Secret, error) {
	if index >= params.N {
		return nil, nil, pirerrors.New(pirerrors.ErrorTypeProtocol, "index out of range").
			WithDetail("index", index).
			WithDetail("n", params.N)
	}

	g := NewPRG(e.nextSeed())
	s := make([]uint32, params.LWEDim)
	g.Fill(s)

	ct, err := params.A.MulVec(s)
	if err != nil {
		return nil, nil, err
	}
	for i := range ct {
		ct[i] += g.Gaussian(params.Sigma)
	}
	col, _ := params.Locate(index)
	ct[col] += params.Delta()

	return &Ciphertext{Vec: ct}, &Secret{S: s, Index: index}, nil
}

// Answer returns D*ct computed on the packed matrix.
func (e *Engine) Answer(ct *Ciphertext, packed *PackedMatrix) (*Answer, error) {
	if len(ct.Vec) != packed.Cols {
		return nil, dimensionError("answer", packed.Cols, len(ct.Vec))
	}

	var sum uint32
	for _, v := range ct.Vec {
		sum += v
	}
	half := uint32(1) << (packed.LogP - 1)
	mask := uint32(1)<<packed.LogP - 1

	ans := make([]uint32, packed.Rows)
	for i := range ans {
		words := packed.Data[i*packed.Words : (i+1)*packed.Words]
		var acc uint32
		col := 0
		for _, w := range words {
			for t := 0; t < packed.PerWord && col < packed.Cols; t++ {
				acc += (w & mask) * ct.Vec[col]
				w >>= packed.LogP
				col++
			}
		}
		// un-centred digits: D' = D - p/2
		ans[i] = acc - half*sum
	}
	return &Answer{Vec: ans}, nil
}

// Recover decodes entry index from an answer.
func (e *Engine) Recover(params *Params, hint *Matrix, ans *Answer, sk *Secret, index uint64) (uint64, error) {
	if index >= params.N {
		return 0, pirerrors.New(pirerrors.ErrorTypeProtocol, "index out of range").
			WithDetail("index", index).
			WithDetail("n", params.N)
	}
	if len(ans.Vec) != params.L {
		return 0, dimensionError("recover", params.L, len(ans.Vec))
	}
	if hint.Rows != params.L || hint.Cols != len(sk.S) {
		return 0, dimensionError("recover", params.L, hint.Rows)
	}

	_, row := params.Locate(index)
	shift := 32 - params.LogP
	half := params.P() / 2
	mask := params.P() - 1

	var v uint64
	for j := 0; j < params.Digits; j++ {
		noised := ans.Vec[row+j] - dot(hint.Row(row+j), sk.S)
		centred := ((noised + params.Delta()/2) >> shift) & mask
		digit := (centred + half) & mask
		v |= uint64(digit) << (uint(j) * params.LogP)
	}
	if params.D < 64 {
		v &= (uint64(1) << params.D) - 1
	}
	return v, nil
}
