package objectid

import (
	"database/sql/driver"
)

// Decode converts a storage value into an identifier. The boolean is false
// when b is not a valid binary encoding; the parse error is dropped so that
// NULL or legacy column contents read as absent.
func Decode(b []byte) (ID, bool) {
	id, err := FromBinary(b)
	if err != nil {
		return Nil, false
	}
	return id, true
}

// Encode converts a runtime value into its storage form. Anything other than
// an identifier encodes to nil and is persisted as NULL.
func Encode(value any) []byte {
	switch v := value.(type) {
	case ID:
		return Binary(v)
	case *ID:
		if v != nil {
			return Binary(*v)
		}
	}
	return nil
}

// Serialize is the display-path counterpart of Encode: identifiers become
// their binary form and every other value is returned as is.
func Serialize(value any) any {
	if b := Encode(value); b != nil {
		return b
	}
	return value
}

// Cast adapts the codec to the record attribute layer. It has no state and
// its zero value is ready to use.
type Cast struct{}

// Get converts the stored value of key to its runtime form, or nil.
func (Cast) Get(key string, value any) any {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		// some drivers hand back BINARY columns as strings
		b = []byte(v)
	default:
		return nil
	}
	id, ok := Decode(b)
	if !ok {
		return nil
	}
	return id
}

// Set converts a runtime value to the storage form written for key.
func (Cast) Set(key string, value any) any {
	if b := Encode(value); b != nil {
		return b
	}
	return nil
}

// Serialize converts a runtime value for output without dropping it.
func (Cast) Serialize(key string, value any) any {
	return Serialize(value)
}

// Null is a nullable identifier for hosts scanning BINARY(12) columns through
// database/sql.
type Null struct {
	ID    ID
	Valid bool
}

// Scan implements sql.Scanner. NULL and malformed values scan as invalid
// without an error.
func (n *Null) Scan(src any) error {
	n.ID, n.Valid = Nil, false
	if id, ok := (Cast{}).Get("", src).(ID); ok {
		n.ID, n.Valid = id, true
	}
	return nil
}

// Value implements driver.Valuer.
func (n Null) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return Binary(n.ID), nil
}
