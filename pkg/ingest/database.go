package ingest

import (
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Database is a dense, index-addressable sequence of quantized entries. It is
// the single owner of its buffer: the loader builds it and hands it over to a
// protocol session, nothing else mutates it afterwards.
type Database struct {
	entries []uint64
	width   BitWidth
}

// NewDatabase takes ownership of entries. Entries are reduced mod 2^d so that
// the database invariant holds even for hand-built inputs.
func NewDatabase(entries []uint64, width BitWidth) *Database {
	for i, v := range entries {
		entries[i] = width.Reduce(v)
	}
	return &Database{entries: entries, width: width}
}

// Len returns N.
func (db *Database) Len() uint64 {
	return uint64(len(db.entries))
}

// Width returns d.
func (db *Database) Width() BitWidth {
	return db.width
}

// At returns the entry at index i.
func (db *Database) At(i uint64) (uint64, error) {
	if i >= db.Len() {
		return 0, pirerrors.New(pirerrors.ErrorTypeProtocol, "index out of range").
			WithDetail("index", i).
			WithDetail("n", db.Len())
	}
	return db.entries[i], nil
}

// Entries exposes the underlying buffer for packing. Callers must treat it
// as read-only.
func (db *Database) Entries() []uint64 {
	return db.entries
}

// SizeBytes returns the logical size N*d/8 of the database.
func (db *Database) SizeBytes() float64 {
	return float64(db.Len()) * float64(db.width) / 8
}
