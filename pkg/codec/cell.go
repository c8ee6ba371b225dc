package codec

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies the type of a cell value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBytes
	KindString
	KindInt64
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Cell is a single named column value in storage form.
type Cell struct {
	Name string
	Kind Kind
	Data []byte
}

// Null returns a NULL cell.
func Null(name string) Cell { return Cell{Name: name, Kind: KindNull} }

// Bytes returns a binary cell.
func Bytes(name string, b []byte) Cell {
	if b == nil {
		return Null(name)
	}
	return Cell{Name: name, Kind: KindBytes, Data: b}
}

// String returns a text cell.
func String(name, s string) Cell { return Cell{Name: name, Kind: KindString, Data: []byte(s)} }

// Int64 returns an integer cell.
func Int64(name string, n int64) Cell {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n)^(1<<63))
	return Cell{Name: name, Kind: KindInt64, Data: b}
}

// CellOf builds a cell from a storage value.
func CellOf(name string, v any) (Cell, error) {
	switch t := v.(type) {
	case nil:
		return Null(name), nil
	case []byte:
		return Bytes(name, t), nil
	case string:
		return String(name, t), nil
	case int64:
		return Int64(name, t), nil
	case int:
		return Int64(name, int64(t)), nil
	case int32:
		return Int64(name, int64(t)), nil
	default:
		return Cell{}, fmt.Errorf("unsupported value type %T for column %s", v, name)
	}
}

// Any returns the cell value as nil, []byte, string or int64.
func (c Cell) Any() any {
	switch c.Kind {
	case KindBytes:
		return c.Data
	case KindString:
		return string(c.Data)
	case KindInt64:
		if len(c.Data) != 8 {
			return nil
		}
		return int64(binary.BigEndian.Uint64(c.Data) ^ (1 << 63))
	default:
		return nil
	}
}

func (c Cell) encodedSize() int {
	return 2 + len(c.Name) + 1 + 4 + len(c.Data)
}
