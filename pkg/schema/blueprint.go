package schema

import "github.com/ssargent/oidcast/pkg/objectid"

// Blueprint builds a Table column by column.
//
//	t := schema.Create("cats", func(b *schema.Blueprint) {
//	    b.ObjectID("id").Primary()
//	    b.String("name")
//	})
type Blueprint struct {
	table Table
}

// ColumnBuilder tweaks the most recently declared column.
type ColumnBuilder struct {
	b   *Blueprint
	idx int
}

// Create runs fn against a fresh blueprint and returns the table.
func Create(name string, fn func(*Blueprint)) Table {
	b := &Blueprint{table: Table{Name: name}}
	fn(b)
	return b.Table()
}

// Table returns a copy of the table declared so far.
func (b *Blueprint) Table() Table {
	cols := make([]Column, len(b.table.Columns))
	copy(cols, b.table.Columns)
	return Table{Name: b.table.Name, Columns: cols}
}

func (b *Blueprint) add(c Column) *ColumnBuilder {
	b.table.Columns = append(b.table.Columns, c)
	return &ColumnBuilder{b: b, idx: len(b.table.Columns) - 1}
}

// Binary declares a binary column of width bytes.
func (b *Blueprint) Binary(name string, width int, fixed bool) *ColumnBuilder {
	return b.add(Column{Name: name, Type: TypeBinary, Width: width, Fixed: fixed})
}

// ObjectID declares a column holding the 12-byte identifier form.
func (b *Blueprint) ObjectID(name string) *ColumnBuilder {
	return b.Binary(name, objectid.Size, true)
}

// String declares a text column.
func (b *Blueprint) String(name string) *ColumnBuilder {
	return b.add(Column{Name: name, Type: TypeString})
}

// Int64 declares an integer column.
func (b *Blueprint) Int64(name string) *ColumnBuilder {
	return b.add(Column{Name: name, Type: TypeInt64})
}

// Primary marks the column as the primary key.
func (cb *ColumnBuilder) Primary() *ColumnBuilder {
	cb.b.table.Columns[cb.idx].Primary = true
	cb.b.table.Columns[cb.idx].Nullable = false
	return cb
}

// Nullable allows NULL values in the column.
func (cb *ColumnBuilder) Nullable() *ColumnBuilder {
	cb.b.table.Columns[cb.idx].Nullable = true
	return cb
}
