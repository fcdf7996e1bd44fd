package ingest

import (
	"math/rand/v2"
)

// Synthetic returns a database of n uniformly random entries in
// [0, 2^d - 1]. The same seed yields the same database.
func Synthetic(n uint64, width BitWidth, seed uint64) *Database {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	entries := make([]uint64, n)
	for i := range entries {
		entries[i] = r.Uint64() & width.Max()
	}
	return &Database{entries: entries, width: width}
}
