package simplepir

import (
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// PackedMatrix holds the un-centred digits of the database matrix, several
// per 32-bit word, for the answer computation.
type PackedMatrix struct {
	Rows    int
	Cols    int
	LogP    uint
	PerWord int // digits per word
	Words   int // words per row
	Data    []uint32
}

// SizeBytes returns the encoded size of the packed matrix.
func (pm *PackedMatrix) SizeBytes() int {
	return len(pm.Data) * 4
}

// digit returns the un-centred digit at (i, j).
func (pm *PackedMatrix) digit(i, j int) uint32 {
	w := pm.Data[i*pm.Words+j/pm.PerWord]
	shift := uint(j%pm.PerWord) * pm.LogP
	return (w >> shift) & (1<<pm.LogP - 1)
}

// PackDatabase lays the entries out as an L x M matrix of centred digits.
// Digit j of entry i is stored at row Locate(i).row + j.
func (e *Engine) PackDatabase(entries []uint64, params *Params) (*Matrix, error) {
	if uint64(len(entries)) != params.N {
		return nil, pirerrors.New(pirerrors.ErrorTypeProtocol, "database length differs from parameters").
			WithDetail("entries", len(entries)).
			WithDetail("n", params.N)
	}

	half := params.P() / 2
	mask := uint64(params.P() - 1)
	db := NewMatrix(params.L, params.M)
	for i := range db.Data {
		db.Data[i] = -half
	}
	for i, v := range entries {
		col, row := params.Locate(uint64(i))
		for j := 0; j < params.Digits; j++ {
			digit := uint32((v >> (uint(j) * params.LogP)) & mask)
			db.Set(row+j, col, digit-half)
		}
	}
	return db, nil
}

// PackMatrixForAnswer squeezes 32/k digits into each word.
func (e *Engine) PackMatrixForAnswer(db *Matrix) *PackedMatrix {
	logp := e.config.PlaintextBits
	half := uint32(1) << (logp - 1)
	perWord := int(32 / logp)
	words := (db.Cols + perWord - 1) / perWord

	pm := &PackedMatrix{
		Rows:    db.Rows,
		Cols:    db.Cols,
		LogP:    logp,
		PerWord: perWord,
		Words:   words,
		Data:    make([]uint32, db.Rows*words),
	}
	for i := 0; i < db.Rows; i++ {
		row := db.Row(i)
		for j, v := range row {
			digit := v + half
			pm.Data[i*words+j/perWord] |= digit << (uint(j%perWord) * logp)
		}
	}
	return pm
}

// centredRow returns row i of the centred database matrix.
func (pm *PackedMatrix) centredRow(i int) []uint32 {
	half := uint32(1) << (pm.LogP - 1)
	row := make([]uint32, pm.Cols)
	for j := range row {
		row[j] = pm.digit(i, j) - half
	}
	return row
}
