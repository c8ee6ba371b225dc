package objectid

import "strings"

// Value is the classified form of a filter value. It is one of Instance,
// Text or Other.
type Value interface {
	isValue()
}

// Instance is a live identifier.
type Instance struct {
	ID ID
}

// Text is a string that may or may not be a hex identifier.
type Text struct {
	S string
}

// Other is any value that is neither an identifier nor a string, including
// binary forms, numbers and nil.
type Other struct {
	V any
}

func (Instance) isValue() {}
func (Text) isValue()     {}
func (Other) isValue()    {}

// Classify tags v with its Value case.
func Classify(v any) Value {
	switch t := v.(type) {
	case ID:
		return Instance{ID: t}
	case *ID:
		if t != nil {
			return Instance{ID: *t}
		}
	case string:
		return Text{S: t}
	}
	return Other{V: v}
}

// Normalize returns the binary form of v when v is an identifier or a valid
// hex string, and v unchanged otherwise. It never fails.
//
// The canonical string form is ID.Hex. The ObjectID("<hex>") form printed by
// ID.String and fmt is accepted as well.
func Normalize(v any) any {
	switch c := Classify(v).(type) {
	case Instance:
		return Binary(c.ID)
	case Text:
		id, err := FromHex(unwrapString(c.S))
		if err != nil {
			return c.S
		}
		return Binary(id)
	case Other:
		return c.V
	}
	return v
}

// unwrapString strips the ObjectID("...") wrapper from s, if present.
func unwrapString(s string) string {
	inner, ok := strings.CutPrefix(s, `ObjectID("`)
	if !ok {
		return s
	}
	if inner, ok = strings.CutSuffix(inner, `")`); !ok {
		return s
	}
	return inner
}

// NormalizeAll applies Normalize to each value. The input is not modified.
func NormalizeAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Normalize(v)
	}
	return out
}
