// Package query executes column predicates against the row store.
package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ssargent/oidcast/pkg/codec"
	"github.com/ssargent/oidcast/pkg/schema"
	"github.com/ssargent/oidcast/pkg/store"
)

// Engine runs predicates against one store. Predicates on the primary key are
// turned into byte-order key ranges or point lookups; all predicates are then
// checked against each candidate row.
type Engine struct {
	store *store.Store
}

// NewEngine creates a new query engine
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Find returns the rows of table matching every predicate, in primary key order.
func (e *Engine) Find(ctx context.Context, table schema.Table, preds ...Predicate) ([]Result, error) {
	var results []Result
	err := e.each(ctx, table, preds, func(row *codec.Row) {
		results = append(results, Result{Key: row.Key, Values: row.Map()})
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Count returns the number of rows of table matching every predicate.
func (e *Engine) Count(ctx context.Context, table schema.Table, preds ...Predicate) (int, error) {
	n := 0
	err := e.each(ctx, table, preds, func(*codec.Row) { n++ })
	return n, err
}

func (e *Engine) each(ctx context.Context, table schema.Table, preds []Predicate, fn func(*codec.Row)) error {
	pk, err := table.PrimaryKey()
	if err != nil {
		return err
	}
	for _, p := range preds {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
		if _, ok := table.Column(p.Column); !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table.Name, p.Column)
		}
	}

	var plan keyPlan
	if pk.Type == schema.TypeBinary {
		plan = planKeys(pk.Name, preds)
	}
	if plan.empty {
		return nil
	}

	visit := func(row *codec.Row) error {
		values := row.Map()
		for _, p := range preds {
			if !matches(values[p.Column], p) {
				return nil
			}
		}
		fn(row)
		return nil
	}

	if plan.points != nil {
		for _, k := range plan.points {
			row, err := e.store.Get(ctx, table.Name, k)
			if errors.Is(err, store.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := visit(row); err != nil {
				return err
			}
		}
		return nil
	}
	return e.store.Scan(ctx, table.Name, plan.rng, visit)
}

type keyPlan struct {
	rng    store.Range
	points [][]byte // nil means scan rng
	empty  bool
}

// planKeys narrows the key space using the primary key predicates. Values
// that are not binary can never equal a stored key, which is why they empty
// the plan instead of failing.
func planKeys(pkName string, preds []Predicate) keyPlan {
	var plan keyPlan
	for _, p := range preds {
		if p.Column != pkName {
			continue
		}
		switch p.Operator {
		case OpEqual:
			k, ok := p.Value.([]byte)
			if !ok {
				return keyPlan{empty: true}
			}
			plan.points = intersectPoints(plan.points, [][]byte{k})
		case OpIn:
			var keys [][]byte
			for _, v := range p.Values {
				if k, ok := v.([]byte); ok {
					keys = append(keys, k)
				}
			}
			if len(keys) == 0 {
				return keyPlan{empty: true}
			}
			plan.points = intersectPoints(plan.points, keys)
		default:
			k, ok := p.Value.([]byte)
			if !ok {
				return keyPlan{empty: true}
			}
			b := &store.Bound{Key: k, Inclusive: p.Operator == OpGreaterEq || p.Operator == OpLessEq}
			if p.Operator == OpGreater || p.Operator == OpGreaterEq {
				plan.rng.Lower = tighterLower(plan.rng.Lower, b)
			} else {
				plan.rng.Upper = tighterUpper(plan.rng.Upper, b)
			}
		}
		if plan.points != nil && len(plan.points) == 0 {
			return keyPlan{empty: true}
		}
	}
	return plan
}

// intersectPoints returns the sorted, distinct keys present in both sets. A
// nil current set means no point constraint yet.
func intersectPoints(current, next [][]byte) [][]byte {
	sort.Slice(next, func(i, j int) bool { return bytes.Compare(next[i], next[j]) < 0 })
	deduped := make([][]byte, 0, len(next))
	for i, k := range next {
		if i == 0 || !bytes.Equal(k, next[i-1]) {
			deduped = append(deduped, k)
		}
	}
	if current == nil {
		return deduped
	}
	out := make([][]byte, 0, len(current))
	for _, k := range current {
		for _, n := range deduped {
			if bytes.Equal(k, n) {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

func tighterLower(a, b *store.Bound) *store.Bound {
	if a == nil {
		return b
	}
	switch c := bytes.Compare(a.Key, b.Key); {
	case c < 0:
		return b
	case c > 0:
		return a
	}
	if !a.Inclusive {
		return a
	}
	return b
}

func tighterUpper(a, b *store.Bound) *store.Bound {
	if a == nil {
		return b
	}
	switch c := bytes.Compare(a.Key, b.Key); {
	case c > 0:
		return b
	case c < 0:
		return a
	}
	if !a.Inclusive {
		return a
	}
	return b
}
