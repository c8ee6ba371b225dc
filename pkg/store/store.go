// Package store persists rows in pebble. Rows of a table are keyed by their
// primary key bytes, so scans return them in raw byte order.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/ssargent/oidcast/pkg/codec"
)

// Store is a pebble-backed row store.
type Store struct {
	db        *pebble.DB
	codec     *codec.RowCodec
	writeOpts *pebble.WriteOptions
	logger    *slog.Logger

	mutex  sync.RWMutex // serializes Insert's existence check with its write
	closed bool
}

// Open creates or opens a row store.
func Open(opts Options) (*Store, error) {
	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	dir := opts.DataDir
	if opts.InMemory {
		po.FS = vfs.NewMem()
		dir = "mem"
	} else if dir == "" {
		return nil, errors.New("store: Options.DataDir is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dir, err)
	}

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}

	logger.Debug("row store opened", "dir", dir, "in_memory", opts.InMemory, "sync", opts.Sync)
	return &Store{
		db:        db,
		codec:     codec.NewRowCodec(),
		writeOpts: writeOpts,
		logger:    logger,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Insert writes a new row and fails with ErrDuplicateKey if key exists.
func (s *Store) Insert(ctx context.Context, table string, key []byte, cells []codec.Cell) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return ErrClosed
	}

	k, err := rowKey(table, key)
	if err != nil {
		return err
	}
	_, closer, err := s.db.Get(k)
	switch {
	case err == nil:
		closer.Close()
		return fmt.Errorf("%w: %s/%x", ErrDuplicateKey, table, key)
	case !errors.Is(err, pebble.ErrNotFound):
		return fmt.Errorf("failed to check key: %w", err)
	}
	return s.write(ctx, k, key, cells)
}

// Put writes a row, replacing any existing row with the same key.
func (s *Store) Put(ctx context.Context, table string, key []byte, cells []codec.Cell) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return ErrClosed
	}

	k, err := rowKey(table, key)
	if err != nil {
		return err
	}
	return s.write(ctx, k, key, cells)
}

func (s *Store) write(ctx context.Context, k, key []byte, cells []codec.Cell) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.codec.Encode(key, cells)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if err := s.db.Set(k, data, s.writeOpts); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// Get returns the row stored under key.
func (s *Store) Get(ctx context.Context, table string, key []byte) (*codec.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	k, err := rowKey(table, key)
	if err != nil {
		return nil, err
	}

	val, closer, err := s.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	data := append([]byte(nil), val...)
	closer.Close()

	return s.decode(data)
}

// Delete removes the row stored under key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, table string, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return ErrClosed
	}
	k, err := rowKey(table, key)
	if err != nil {
		return err
	}
	if err := s.db.Delete(k, s.writeOpts); err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	return nil
}

// Scan calls fn for every row of table inside r, in primary key byte order.
// Returning an error from fn stops the scan and returns that error.
func (s *Store) Scan(ctx context.Context, table string, r Range, fn func(*codec.Row) error) error {
	lower, upper, err := bounds(table, r)
	if err != nil {
		return err
	}
	if bytes.Compare(lower, upper) >= 0 {
		return nil
	}

	s.mutex.RLock()
	closed := s.closed
	s.mutex.RUnlock()
	if closed {
		return ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := s.decode(append([]byte(nil), iter.Value()...))
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Stats counts the rows of table.
func (s *Store) Stats(ctx context.Context, table string) (*TableStats, error) {
	stats := &TableStats{Table: table}
	err := s.Scan(ctx, table, Range{}, func(row *codec.Row) error {
		stats.Rows++
		stats.Bytes += int64(row.Size())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) decode(data []byte) (*codec.Row, error) {
	row, err := s.codec.Decode(data)
	if err != nil {
		s.logger.Error("undecodable row", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	if err := row.Validate(); err != nil {
		s.logger.Error("row failed validation", "key", fmt.Sprintf("%x", row.Key), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	return row, nil
}
