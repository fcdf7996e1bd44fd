package simplepir

import (
	"crypto/sha256"
	"slices"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Proof shows that an answer was computed with the committed database. It
// is Z = C*D for a binary challenge C derived from the transcript.
type Proof struct {
	Z *Matrix // Kappa x M
}

// SizeBytes returns the encoded size of the proof.
func (p *Proof) SizeBytes() int { return p.Z.SizeBytes() }

// challenge derives the binary Kappa x L matrix C from the commitment, the
// query and the answer.
func challenge(digest Digest, ct *Ciphertext, ans *Answer, kappa, l int) *Matrix {
	h := sha256.New()
	h.Write(digest[:])
	writeVec(h, ct.Vec)
	writeVec(h, ans.Vec)
	var seed Seed
	copy(seed[:], h.Sum(nil))

	g := NewPRG(seed)
	c := NewMatrix(kappa, l)
	for i := range c.Data {
		c.Data[i] = g.Bit()
	}
	return c
}

// Prove computes Z = C*D over the centred database.
func (e *Engine) Prove(digest Digest, ct *Ciphertext, ans *Answer, packed *PackedMatrix) (*Proof, error) {
	if len(ans.Vec) != packed.Rows {
		return nil, dimensionError("prove", packed.Rows, len(ans.Vec))
	}
	c := challenge(digest, ct, ans, e.config.ChallengeRows, packed.Rows)

	z := NewMatrix(c.Rows, packed.Cols)
	for r := 0; r < packed.Rows; r++ {
		var row []uint32
		for i := 0; i < c.Rows; i++ {
			if c.At(i, r) == 0 {
				continue
			}
			if row == nil {
				row = packed.centredRow(r)
			}
			axpy(z.Row(i), 1, row)
		}
	}
	return &Proof{Z: z}, nil
}

// Verify accepts iff Z*A = C*H and Z*ct = C*ans.
func (e *Engine) Verify(params *Params, hint *Matrix, digest Digest, ct *Ciphertext, ans *Answer, proof *Proof) error {
	if proof == nil || proof.Z == nil {
		return pirerrors.New(pirerrors.ErrorTypeVerification, "missing proof")
	}
	if proof.Z.Rows != params.Kappa || proof.Z.Cols != params.M || len(ans.Vec) != params.L {
		return pirerrors.New(pirerrors.ErrorTypeVerification, "proof has wrong shape").
			WithDetail("rows", proof.Z.Rows).
			WithDetail("cols", proof.Z.Cols)
	}
	c := challenge(digest, ct, ans, params.Kappa, params.L)

	za, err := proof.Z.Mul(params.A)
	if err != nil {
		return err
	}
	ch, err := c.Mul(hint)
	if err != nil {
		return err
	}
	if !za.Equal(ch) {
		return pirerrors.New(pirerrors.ErrorTypeVerification, "proof does not match the committed hint")
	}

	zct, err := proof.Z.MulVec(ct.Vec)
	if err != nil {
		return err
	}
	cans, err := c.MulVec(ans.Vec)
	if err != nil {
		return err
	}
	if !slices.Equal(zct, cans) {
		return pirerrors.New(pirerrors.ErrorTypeVerification, "proof does not match the answer")
	}
	return nil
}
