package model

import (
	"fmt"
)

// Record holds one row's attributes in storage form.
type Record struct {
	def    *Definition
	attrs  map[string]any
	exists bool
}

// Get returns the runtime form of field, or nil when it is absent.
func (r *Record) Get(field string) any {
	raw := r.attrs[field]
	if c := r.def.caster(field); c != nil {
		return c.Get(field, raw)
	}
	return raw
}

// Set stores value for field, converted to storage form by its cast.
func (r *Record) Set(field string, value any) {
	if c := r.def.caster(field); c != nil {
		value = c.Set(field, value)
	}
	r.attrs[field] = value
}

// Fill sets every attribute in attrs. Unknown columns are rejected.
func (r *Record) Fill(attrs map[string]any) error {
	for name, v := range attrs {
		if _, ok := r.def.table.Column(name); !ok {
			return fmt.Errorf("model: unknown column %s.%s", r.def.table.Name, name)
		}
		r.Set(name, v)
	}
	return nil
}

// Raw returns the storage form of field.
func (r *Record) Raw(field string) any {
	return r.attrs[field]
}

// Attributes returns every column in runtime form.
func (r *Record) Attributes() map[string]any {
	out := make(map[string]any, len(r.def.table.Columns))
	for _, c := range r.def.table.Columns {
		out[c.Name] = r.Get(c.Name)
	}
	return out
}

// Serialize returns every column prepared for output. Values a cast does not
// recognize are kept rather than dropped.
func (r *Record) Serialize() map[string]any {
	out := make(map[string]any, len(r.def.table.Columns))
	for _, col := range r.def.table.Columns {
		v := r.Get(col.Name)
		if c := r.def.caster(col.Name); c != nil {
			v = c.Serialize(col.Name, v)
		}
		out[col.Name] = v
	}
	return out
}

// Exists reports whether the record has been persisted.
func (r *Record) Exists() bool { return r.exists }

// Definition returns the definition the record belongs to.
func (r *Record) Definition() *Definition { return r.def }
