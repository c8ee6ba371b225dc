// Package model maps rows to records: casts translate column values between
// storage and runtime form, and creating hooks run before a record is first
// persisted.
package model

import (
	"fmt"
	"sync"

	"github.com/ssargent/oidcast/pkg/objectid"
	"github.com/ssargent/oidcast/pkg/schema"
)

// Caster converts one column between storage and runtime form.
type Caster interface {
	Get(key string, value any) any
	Set(key string, value any) any
	Serialize(key string, value any) any
}

// Hook runs against a record before it is created. Hooks are deduplicated by
// identity, so implementations must be comparable (typically pointers).
type Hook interface {
	Apply(r objectid.Record)
}

// Definition binds a table to its casts and creating hooks.
type Definition struct {
	table schema.Table
	pk    schema.Column

	mu       sync.RWMutex
	casts    map[string]Caster
	creating []Hook
}

// Define creates a definition for table.
func Define(table schema.Table) (*Definition, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	pk, err := table.PrimaryKey()
	if err != nil {
		return nil, err
	}
	return &Definition{table: table, pk: pk, casts: make(map[string]Caster)}, nil
}

// ForTable defines table with an objectid.Cast on every identifier column and,
// when the primary key is an identifier, the default assigner for it.
func ForTable(table schema.Table) (*Definition, error) {
	d, err := Define(table)
	if err != nil {
		return nil, err
	}
	for _, c := range table.Columns {
		if c.IsObjectID() {
			d.casts[c.Name] = objectid.Cast{}
		}
	}
	if d.pk.IsObjectID() {
		d.Creating(objectid.DefaultAssigner(d.pk.Name))
	}
	return d, nil
}

// Table returns the table the definition maps.
func (d *Definition) Table() schema.Table { return d.table }

// Cast registers c for column.
func (d *Definition) Cast(column string, c Caster) error {
	if _, ok := d.table.Column(column); !ok {
		return fmt.Errorf("model: unknown column %s.%s", d.table.Name, column)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.casts[column] = c
	return nil
}

// Creating registers a creating hook. It reports false when the identical
// hook is already registered.
func (d *Definition) Creating(h Hook) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.creating {
		if existing == h {
			return false
		}
	}
	d.creating = append(d.creating, h)
	return true
}

// Hooks returns the registered creating hooks in registration order.
func (d *Definition) Hooks() []Hook {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Hook(nil), d.creating...)
}

func (d *Definition) caster(column string) Caster {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.casts[column]
}

// New returns an empty, unsaved record.
func (d *Definition) New() *Record {
	return &Record{def: d, attrs: make(map[string]any, len(d.table.Columns))}
}
