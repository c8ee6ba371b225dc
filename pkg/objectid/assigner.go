package objectid

import "sync"

// Record is the record-like object a creating hook receives.
type Record interface {
	Get(field string) any
	Set(field string, value any)
}

// Assigner fills an absent identifier field with a new identifier.
type Assigner struct {
	field string
}

var assigners sync.Map // field name -> *Assigner

// DefaultAssigner returns the assigner for field. Every call with the same
// field name returns the same pointer, including under concurrent first use.
func DefaultAssigner(field string) *Assigner {
	if field == "" {
		panic("objectid: DefaultAssigner called with empty field name")
	}
	if a, ok := assigners.Load(field); ok {
		return a.(*Assigner)
	}
	a, _ := assigners.LoadOrStore(field, &Assigner{field: field})
	return a.(*Assigner)
}

// Field returns the name of the field the assigner fills.
func (a *Assigner) Field() string {
	return a.field
}

// Apply sets the field on r to New() when it is currently nil.
func (a *Assigner) Apply(r Record) {
	if r.Get(a.field) != nil {
		return
	}
	r.Set(a.field, New())
}
