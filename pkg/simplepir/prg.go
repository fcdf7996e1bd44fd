package simplepir

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"golang.org/x/crypto/chacha20"
)

// SeedSize is the size of a PRG key.
const SeedSize = chacha20.KeySize

// Seed keys a PRG.
type Seed [SeedSize]byte

// RandomSeed draws a seed from the operating system.
func RandomSeed() (Seed, error) {
	var s Seed
	_, err := rand.Read(s[:])
	return s, err
}

// DeriveSeed deterministically derives a seed from a label and a number.
func DeriveSeed(label string, n uint64) Seed {
	h := sha256.New()
	h.Write([]byte(label))
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	h.Write(b[:])
	var s Seed
	copy(s[:], h.Sum(nil))
	return s
}

// PRG expands a seed into a ChaCha20 key stream.
type PRG struct {
	cipher *chacha20.Cipher
	buf    [1024]byte
	pos    int
	bits   uint64
	nbits  int
}

// NewPRG creates a PRG. The nonce is fixed, so a seed must not be reused for
// unrelated purposes.
func NewPRG(seed Seed) *PRG {
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// key and nonce sizes are constants
		panic(err)
	}
	g := &PRG{cipher: c}
	g.refill()
	return g
}

func (g *PRG) refill() {
	clear(g.buf[:])
	g.cipher.XORKeyStream(g.buf[:], g.buf[:])
	g.pos = 0
}

// Read fills p with key stream. It never fails.
func (g *PRG) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if g.pos == len(g.buf) {
			g.refill()
		}
		c := copy(p[n:], g.buf[g.pos:])
		g.pos += c
		n += c
	}
	return n, nil
}

// Uint32 returns a uniform element of Z_q.
func (g *PRG) Uint32() uint32 {
	if g.pos+4 > len(g.buf) {
		g.refill()
	}
	v := binary.LittleEndian.Uint32(g.buf[g.pos:])
	g.pos += 4
	return v
}

// Uint64 returns 64 uniform bits.
func (g *PRG) Uint64() uint64 {
	return uint64(g.Uint32())<<32 | uint64(g.Uint32())
}

// Bit returns a uniform bit.
func (g *PRG) Bit() uint32 {
	if g.nbits == 0 {
		g.bits = g.Uint64()
		g.nbits = 64
	}
	b := uint32(g.bits & 1)
	g.bits >>= 1
	g.nbits--
	return b
}

// Float64 returns a uniform float in [0, 1).
func (g *PRG) Float64() float64 {
	return float64(g.Uint64()>>11) / (1 << 53)
}

// Gaussian returns a sample of the rounded Gaussian with deviation sigma,
// reduced into Z_q.
func (g *PRG) Gaussian(sigma float64) uint32 {
	u1 := 1 - g.Float64() // (0, 1]
	u2 := g.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return uint32(int32(math.Round(z * sigma)))
}

// Fill fills v with uniform elements of Z_q.
func (g *PRG) Fill(v []uint32) {
	for i := range v {
		v[i] = g.Uint32()
	}
}
