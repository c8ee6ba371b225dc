// Package codec provides the binary row format used by the row store.
//
// # Row Format
//
// Rows are serialized with a fixed header followed by the primary key and a
// body of cells:
//
//	[CRC32(4)][KeySize(4)][BodySize(4)][Timestamp(8)][Key][Body]
//
// The body is a sequence of cells:
//
//	[NameLen(2)][Name][Kind(1)][ValueLen(4)][Value]
//
// All integers are little-endian except Int64 cell values, which are stored
// big-endian with the sign bit flipped so that encoded values sort in numeric
// order.
//
// # CRC32 Calculation
//
// The checksum covers every header field after the CRC itself, the key and
// the body. Decode does not verify it; call Row.Validate.
//
// # Usage
//
//	c := codec.NewRowCodec()
//	cells := []codec.Cell{codec.Bytes("id", objectid.Binary(id)), codec.String("name", "Luna")}
//	encoded, err := c.Encode(objectid.Binary(id), cells)
//	...
//	row, err := c.Decode(encoded)
//	if err == nil {
//	    err = row.Validate()
//	}
//
// RowCodec instances are safe for concurrent use.
package codec
