package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"time"
)

const headerSize = 20

// now is replaced in tests.
var now = func() time.Time { return time.Now() }

// Row is a decoded row with its header metadata.
type Row struct {
	CRC32     uint32 // CRC32 checksum for integrity
	KeySize   uint32 // Size of the key in bytes
	BodySize  uint32 // Size of the encoded cells in bytes
	Timestamp uint64 // Unix timestamp in nanoseconds
	Key       []byte
	Cells     []Cell

	body []byte
}

// RowCodec handles serialization and deserialization of rows.
type RowCodec struct{}

// NewRowCodec creates a new row codec instance.
func NewRowCodec() *RowCodec {
	return &RowCodec{}
}

// Encode serializes a key and its cells.
func (c *RowCodec) Encode(key []byte, cells []Cell) ([]byte, error) {
	body, err := encodeCells(cells)
	if err != nil {
		return nil, err
	}
	if uint64(len(key)) > math.MaxUint32 || uint64(len(body)) > math.MaxUint32 {
		return nil, fmt.Errorf("row too large")
	}

	r := &Row{
		KeySize:   uint32(len(key)),
		BodySize:  uint32(len(body)),
		Timestamp: uint64(now().UnixNano()),
		Key:       key,
		body:      body,
	}
	r.CRC32 = r.calculateCRC32()

	buf := make([]byte, r.Size())
	binary.LittleEndian.PutUint32(buf[0:], r.CRC32)
	binary.LittleEndian.PutUint32(buf[4:], r.KeySize)
	binary.LittleEndian.PutUint32(buf[8:], r.BodySize)
	binary.LittleEndian.PutUint64(buf[12:], r.Timestamp)
	copy(buf[headerSize:], key)
	copy(buf[headerSize+len(key):], body)
	return buf, nil
}

// Decode deserializes an encoded row. The returned row shares memory with data.
func (c *RowCodec) Decode(data []byte) (*Row, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("data too short for row header")
	}

	r := &Row{}
	r.CRC32 = binary.LittleEndian.Uint32(data[0:4])
	r.KeySize = binary.LittleEndian.Uint32(data[4:8])
	r.BodySize = binary.LittleEndian.Uint32(data[8:12])
	r.Timestamp = binary.LittleEndian.Uint64(data[12:20])

	total := uint64(headerSize) + uint64(r.KeySize) + uint64(r.BodySize)
	if uint64(len(data)) < total {
		return nil, fmt.Errorf("data too short for key/body sizes: %d < %d", len(data), total)
	}

	keyEnd := headerSize + int(r.KeySize)
	r.Key = data[headerSize:keyEnd]
	r.body = data[keyEnd : keyEnd+int(r.BodySize)]

	cells, err := decodeCells(r.body)
	if err != nil {
		return nil, err
	}
	r.Cells = cells
	return r, nil
}

// Validate checks the integrity of a row using CRC32.
func (r *Row) Validate() error {
	if sum := r.calculateCRC32(); r.CRC32 != sum {
		return fmt.Errorf("CRC32 mismatch: %d != %d", r.CRC32, sum)
	}
	return nil
}

// Size returns the total size of the row when encoded.
func (r *Row) Size() int {
	return headerSize + len(r.Key) + len(r.body)
}

// Map returns the cell values keyed by column name.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.Cells))
	for _, c := range r.Cells {
		m[c.Name] = c.Any()
	}
	return m
}

// Cell returns the cell named name.
func (r *Row) Cell(name string) (Cell, bool) {
	for _, c := range r.Cells {
		if c.Name == name {
			return c, true
		}
	}
	return Cell{}, false
}

func (r *Row) calculateCRC32() uint32 {
	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:], r.KeySize)
	binary.LittleEndian.PutUint32(hdr[4:], r.BodySize)
	binary.LittleEndian.PutUint64(hdr[8:], r.Timestamp)

	crc := crc32.ChecksumIEEE(hdr[:])
	crc = crc32.Update(crc, crc32.IEEETable, r.Key)
	return crc32.Update(crc, crc32.IEEETable, r.body)
}

func encodeCells(cells []Cell) ([]byte, error) {
	size := 0
	for _, c := range cells {
		if len(c.Name) == 0 || len(c.Name) > math.MaxUint16 {
			return nil, fmt.Errorf("invalid column name length %d", len(c.Name))
		}
		size += c.encodedSize()
	}

	buf := make([]byte, 0, size)
	for _, c := range cells {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(c.Name)))
		buf = append(buf, c.Name...)
		buf = append(buf, byte(c.Kind))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Data)))
		buf = append(buf, c.Data...)
	}
	return buf, nil
}

func decodeCells(body []byte) ([]Cell, error) {
	var cells []Cell
	for off := 0; off < len(body); {
		if len(body)-off < 2 {
			return nil, fmt.Errorf("truncated cell name length at offset %d", off)
		}
		nameLen := int(binary.LittleEndian.Uint16(body[off:]))
		off += 2
		if len(body)-off < nameLen+5 {
			return nil, fmt.Errorf("truncated cell header at offset %d", off)
		}
		name := string(body[off : off+nameLen])
		off += nameLen
		kind := Kind(body[off])
		off++
		if kind > KindInt64 {
			return nil, fmt.Errorf("unknown cell kind %d for column %s", kind, name)
		}
		valLen := int(binary.LittleEndian.Uint32(body[off:]))
		off += 4
		if valLen < 0 || len(body)-off < valLen {
			return nil, fmt.Errorf("truncated value for column %s", name)
		}
		cells = append(cells, Cell{Name: name, Kind: kind, Data: body[off : off+valLen]})
		off += valLen
	}
	return cells, nil
}
