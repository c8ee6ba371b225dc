package store

import (
	"log/slog"

	"github.com/cockroachdb/pebble"
)

// Options configures the row store.
type Options struct {
	DataDir  string // Directory for the pebble database
	InMemory bool   // Keep everything in memory; DataDir is ignored
	Sync     bool   // Fsync the WAL on every write

	// PebbleOptions allows advanced tuning of pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
	Logger        *slog.Logger
}

// Bound is one end of a key range.
type Bound struct {
	Key       []byte
	Inclusive bool
}

// Range limits a scan to primary keys between Lower and Upper in byte order.
// A nil bound leaves that end open.
type Range struct {
	Lower *Bound
	Upper *Bound
}

// TableStats summarizes a table.
type TableStats struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
	Bytes int64  `json:"bytes"`
}

// Errors
var (
	ErrKeyNotFound  = &StoreError{"key not found"}
	ErrDuplicateKey = &StoreError{"duplicate primary key"}
	ErrInvalidKey   = &StoreError{"invalid key"}
	ErrCorruption   = &StoreError{"data corruption detected"}
	ErrClosed       = &StoreError{"store is closed"}
)

// StoreError represents a row store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
