// Package objectid bridges 12-byte ObjectIds with binary storage columns and
// the record attribute layer.
//
// # Representations
//
// A field holding an identifier is always in one of three states:
//
//   - absent: nil, before the creating hook has run
//   - runtime form: an ID value, as seen by application code
//   - storage form: the 12-byte binary encoding, as seen by the store
//
// Only Decode, Encode and Cast move a value between the storage and runtime
// forms. Encode(Decode(b)) == b for every valid 12-byte b.
//
// # Ordering
//
// The binary form starts with a big-endian seconds timestamp, so comparing
// stored values with bytes.Compare orders them by creation time. FromTime
// builds a synthetic boundary for range predicates:
//
//	since := objectid.FromTime(time.Now().Add(-time.Hour))
//	q := query.Where("id", query.OpGreaterEq, objectid.Normalize(since))
//
// # Normalization
//
// Normalize accepts anything a caller might use as a filter value: an ID, its
// hex string, its binary form or an unrelated value. It returns the binary
// form when the input is recognizable and the input unchanged otherwise. It
// never fails, so mixed filter lists can be normalized in one pass:
//
//	values := objectid.NormalizeAll([]any{objectid.Binary(a), b.Hex(), "not-an-id"})
//
// # Default assignment
//
// DefaultAssigner returns one *Assigner per field name for the life of the
// process. Hosts that deduplicate creating hooks by identity can register it
// repeatedly without stacking duplicate hooks.
//
// # Errors
//
// ErrInvalid is the only error kind. It is returned by FromBinary and FromHex
// and is contained by every other entry point.
package objectid
