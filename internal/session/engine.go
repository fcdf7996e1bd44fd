package session

import (
	"github.com/ajitpratap0/colpir/pkg/simplepir"
)

// Engine is the PIR engine contract the session sequences. *simplepir.Engine
// implements it.
type Engine interface {
	Init(n uint64, d uint) (*simplepir.Params, error)
	PackDatabase(entries []uint64, params *simplepir.Params) (*simplepir.Matrix, error)
	PackMatrixForAnswer(db *simplepir.Matrix) *simplepir.PackedMatrix
	GenerateHint(params *simplepir.Params, db *simplepir.Matrix) (*simplepir.Matrix, error)
	GenerateFakeHint(params *simplepir.Params) *simplepir.Matrix
	CommitHash(params *simplepir.Params, hint *simplepir.Matrix) simplepir.Digest
	Query(params *simplepir.Params, index uint64) (*simplepir.Ciphertext, *simplepir.Secret, error)
	Answer(ct *simplepir.Ciphertext, packed *simplepir.PackedMatrix) (*simplepir.Answer, error)
	Prove(digest simplepir.Digest, ct *simplepir.Ciphertext, ans *simplepir.Answer, packed *simplepir.PackedMatrix) (*simplepir.Proof, error)
	Verify(params *simplepir.Params, hint *simplepir.Matrix, digest simplepir.Digest, ct *simplepir.Ciphertext, ans *simplepir.Answer, proof *simplepir.Proof) error
	Recover(params *simplepir.Params, hint *simplepir.Matrix, ans *simplepir.Answer, sk *simplepir.Secret, index uint64) (uint64, error)
}

var _ Engine = (*simplepir.Engine)(nil)
