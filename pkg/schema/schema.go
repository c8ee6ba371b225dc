// Package schema declares tables for the row store and renders them as DDL.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ssargent/oidcast/pkg/objectid"
)

// Type is the storage type of a column.
type Type int

const (
	TypeBinary Type = iota
	TypeString
	TypeInt64
)

func (t Type) String() string {
	switch t {
	case TypeBinary:
		return "binary"
	case TypeString:
		return "string"
	case TypeInt64:
		return "int64"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Column describes a single column.
type Column struct {
	Name     string
	Type     Type
	Width    int  // byte width for binary columns, 0 = unbounded
	Fixed    bool // fixed-length binary
	Nullable bool
	Primary  bool
}

// IsObjectID reports whether the column has the ObjectId storage shape.
func (c Column) IsObjectID() bool {
	return c.Type == TypeBinary && c.Fixed && c.Width == objectid.Size
}

// Table is a named list of columns with exactly one primary key.
type Table struct {
	Name    string
	Columns []Column
}

var (
	ErrNoPrimaryKey = errors.New("schema: table has no primary key")
	ErrUnknownTable = errors.New("schema: unknown table")
)

// Column returns the column named name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKey returns the primary key column.
func (t Table) PrimaryKey() (Column, error) {
	for _, c := range t.Columns {
		if c.Primary {
			return c, nil
		}
	}
	return Column{}, fmt.Errorf("%w: %s", ErrNoPrimaryKey, t.Name)
}

// Validate checks that the table is usable by the store.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("schema: table name cannot be empty")
	}
	if strings.Contains(t.Name, "/") {
		return fmt.Errorf("schema: table name %q cannot contain '/'", t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("schema: table %s has no columns", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	primaries := 0
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("schema: table %s has a column without a name", t.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("schema: table %s has duplicate column %s", t.Name, c.Name)
		}
		seen[c.Name] = true
		if c.Primary {
			primaries++
			if c.Nullable {
				return fmt.Errorf("schema: primary key %s.%s cannot be nullable", t.Name, c.Name)
			}
		}
	}
	switch primaries {
	case 0:
		return fmt.Errorf("%w: %s", ErrNoPrimaryKey, t.Name)
	case 1:
		return nil
	default:
		return fmt.Errorf("schema: table %s has %d primary keys", t.Name, primaries)
	}
}

// DDL renders a CREATE TABLE statement.
func (t Table) DDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "  %s %s", c.Name, sqlType(c))
		if c.Primary {
			b.WriteString(" PRIMARY KEY")
		} else if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

func sqlType(c Column) string {
	switch c.Type {
	case TypeBinary:
		if c.Width == 0 {
			return "BLOB"
		}
		if c.Fixed {
			return fmt.Sprintf("BINARY(%d)", c.Width)
		}
		return fmt.Sprintf("VARBINARY(%d)", c.Width)
	case TypeInt64:
		return "BIGINT"
	default:
		return "TEXT"
	}
}
