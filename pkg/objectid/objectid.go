package objectid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Size is the length of the binary encoding.
const Size = 12

// ID is the runtime form of an identifier.
type ID = bson.ObjectID

// Nil is the zero identifier. It is never produced by New.
var Nil = bson.NilObjectID

// ErrInvalid reports a malformed binary or string encoding.
var ErrInvalid = errors.New("objectid: invalid encoding")

// New returns a freshly generated identifier.
func New() ID {
	return bson.NewObjectID()
}

// FromTime returns a synthetic identifier carrying only the timestamp of t,
// with the remaining eight bytes zero. It sorts at or before every real
// identifier created in the same second and is meant for range boundaries,
// not for storing. Equal seconds give equal boundaries.
func FromTime(t time.Time) ID {
	var id ID
	binary.BigEndian.PutUint32(id[:4], uint32(t.Unix()))
	return id
}

// FromBinary parses the 12-byte storage form.
func FromBinary(b []byte) (ID, error) {
	if len(b) != Size {
		return Nil, fmt.Errorf("%w: binary length %d", ErrInvalid, len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// FromHex parses the canonical 24-character hex form.
func FromHex(s string) (ID, error) {
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return Nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return id, nil
}

// Binary returns the storage form of id in a new slice.
func Binary(id ID) []byte {
	b := make([]byte, Size)
	copy(b, id[:])
	return b
}

// Val returns the binary form of an identifier the caller already holds,
// ready to use as a filter value without going through Normalize.
func Val(id ID) []byte {
	return Binary(id)
}
