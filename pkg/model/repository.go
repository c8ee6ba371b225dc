package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ssargent/oidcast/pkg/codec"
	"github.com/ssargent/oidcast/pkg/objectid"
	"github.com/ssargent/oidcast/pkg/query"
	"github.com/ssargent/oidcast/pkg/schema"
	"github.com/ssargent/oidcast/pkg/store"
)

var (
	ErrMissingKey = errors.New("model: primary key is absent")
	ErrNotNull    = errors.New("model: column cannot be null")
	ErrNotFound   = errors.New("model: record not found")
)

// Observer receives the outcome of every repository operation.
type Observer interface {
	RecordDBOperation(operation string, success bool, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) RecordDBOperation(string, bool, time.Duration) {}

// Repository persists records of one definition.
type Repository struct {
	def      *Definition
	store    *store.Store
	engine   *query.Engine
	logger   *slog.Logger
	observer Observer
}

// NewRepository creates a repository. logger and observer may be nil.
func NewRepository(def *Definition, s *store.Store, logger *slog.Logger, observer Observer) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Repository{
		def:      def,
		store:    s,
		engine:   query.NewEngine(s),
		logger:   logger.With("table", def.table.Name),
		observer: observer,
	}
}

// Definition returns the repository's definition.
func (repo *Repository) Definition() *Definition { return repo.def }

func (repo *Repository) observe(op string, start time.Time, err error) {
	repo.observer.RecordDBOperation(op, err == nil, time.Since(start))
}

// Create fills a new record from attrs, runs the creating hooks and inserts it.
func (repo *Repository) Create(ctx context.Context, attrs map[string]any) (rec *Record, err error) {
	start := time.Now()
	defer func() { repo.observe("create", start, err) }()

	rec = repo.def.New()
	if err := rec.Fill(attrs); err != nil {
		return nil, err
	}
	for _, h := range repo.def.Hooks() {
		h.Apply(rec)
	}

	key, err := keyBytes(repo.def.pk, rec.Raw(repo.def.pk.Name))
	if err != nil {
		return nil, err
	}
	cells, err := repo.cells(rec)
	if err != nil {
		return nil, err
	}
	if err := repo.store.Insert(ctx, repo.def.table.Name, key, cells); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	rec.exists = true
	repo.logger.Debug("record created", "key", fmt.Sprintf("%x", key))
	return rec, nil
}

// Save writes an existing record back.
func (repo *Repository) Save(ctx context.Context, rec *Record) (err error) {
	start := time.Now()
	defer func() { repo.observe("save", start, err) }()

	key, err := keyBytes(repo.def.pk, rec.Raw(repo.def.pk.Name))
	if err != nil {
		return err
	}
	cells, err := repo.cells(rec)
	if err != nil {
		return err
	}
	if err := repo.store.Put(ctx, repo.def.table.Name, key, cells); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	rec.exists = true
	return nil
}

// Find loads the record whose primary key equals key. For identifier keys,
// key may be an ID, its hex string or its binary form.
func (repo *Repository) Find(ctx context.Context, key any) (rec *Record, err error) {
	start := time.Now()
	defer func() { repo.observe("find", start, err) }()

	if repo.def.pk.IsObjectID() {
		key = objectid.Normalize(key)
	}
	k, err := keyBytes(repo.def.pk, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	row, err := repo.store.Get(ctx, repo.def.table.Name, k)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return repo.hydrate(row.Map()), nil
}

// Where returns the records matching every predicate, in primary key order.
// Predicate values are compared in storage form; normalize identifiers with
// objectid.Normalize first.
func (repo *Repository) Where(ctx context.Context, preds ...query.Predicate) (recs []*Record, err error) {
	start := time.Now()
	defer func() { repo.observe("where", start, err) }()

	results, err := repo.engine.Find(ctx, repo.def.table, preds...)
	if err != nil {
		return nil, err
	}
	recs = make([]*Record, 0, len(results))
	for _, res := range results {
		recs = append(recs, repo.hydrate(res.Values))
	}
	return recs, nil
}

// First returns the first matching record in primary key order.
func (repo *Repository) First(ctx context.Context, preds ...query.Predicate) (*Record, error) {
	recs, err := repo.Where(ctx, preds...)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// Latest returns the matching record with the greatest primary key, which for
// identifier keys is the most recently created one.
func (repo *Repository) Latest(ctx context.Context, preds ...query.Predicate) (*Record, error) {
	recs, err := repo.Where(ctx, preds...)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[len(recs)-1], nil
}

// Count returns the number of records matching every predicate.
func (repo *Repository) Count(ctx context.Context, preds ...query.Predicate) (n int, err error) {
	start := time.Now()
	defer func() { repo.observe("count", start, err) }()
	return repo.engine.Count(ctx, repo.def.table, preds...)
}

// Delete removes rec.
func (repo *Repository) Delete(ctx context.Context, rec *Record) (err error) {
	start := time.Now()
	defer func() { repo.observe("delete", start, err) }()

	key, err := keyBytes(repo.def.pk, rec.Raw(repo.def.pk.Name))
	if err != nil {
		return err
	}
	if err := repo.store.Delete(ctx, repo.def.table.Name, key); err != nil {
		return err
	}
	rec.exists = false
	return nil
}

// Stats reports the row count and encoded size of the repository's table.
func (repo *Repository) Stats(ctx context.Context) (*store.TableStats, error) {
	return repo.store.Stats(ctx, repo.def.table.Name)
}

func (repo *Repository) hydrate(values map[string]any) *Record {
	rec := repo.def.New()
	for k, v := range values {
		rec.attrs[k] = v
	}
	rec.exists = true
	return rec
}

func (repo *Repository) cells(rec *Record) ([]codec.Cell, error) {
	cells := make([]codec.Cell, 0, len(repo.def.table.Columns))
	for _, col := range repo.def.table.Columns {
		v := rec.Raw(col.Name)
		if v == nil && !col.Nullable && !col.Primary {
			return nil, fmt.Errorf("%w: %s.%s", ErrNotNull, repo.def.table.Name, col.Name)
		}
		cell, err := codec.CellOf(col.Name, v)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// keyBytes converts a primary key value in storage form to store key bytes.
func keyBytes(pk schema.Column, v any) ([]byte, error) {
	switch k := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, pk.Name)
	case []byte:
		if len(k) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, pk.Name)
		}
		if pk.Fixed && len(k) != pk.Width {
			return nil, fmt.Errorf("model: key %s must be %d bytes, got %d", pk.Name, pk.Width, len(k))
		}
		return k, nil
	case string:
		if pk.Type != schema.TypeString {
			return nil, fmt.Errorf("model: key %s cannot be text", pk.Name)
		}
		if k == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, pk.Name)
		}
		return []byte(k), nil
	}
	cell, err := codec.CellOf(pk.Name, v)
	if err != nil || cell.Kind != codec.KindInt64 || pk.Type != schema.TypeInt64 {
		return nil, fmt.Errorf("model: unsupported key value %T for %s", v, pk.Name)
	}
	return cell.Data, nil
}
