package schema

import (
	"slices"
	"strings"
)

// Table owns its columns and constraints.
type Table struct {
	Name    string
	Comment string

	schema *Schema

	columns []*Column
	pk      *PrimaryKey
	fks     []*ForeignKey
	indexes []*Index
	uniques []*Unique
}

// Schema returns the owning schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// FullName returns "SCHEMA.TABLE", or the bare name in the default schema.
func (t *Table) FullName() string {
	if t.schema == nil || t.schema.Name == "" {
		return t.Name
	}

	return t.schema.Name + "." + t.Name
}

// Column looks a column up by name, ignoring case.
func (t *Table) Column(name string) *Column {
	for _, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}

	return nil
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column {
	return slices.Clone(t.columns)
}

// ColumnNameTaken reports whether name is already used by a column.
func (t *Table) ColumnNameTaken(name string) bool {
	return t.Column(name) != nil
}

// AddColumn returns the column with the given name, creating it if needed.
func (t *Table) AddColumn(name string) *Column {
	if c := t.Column(name); c != nil {
		return c
	}

	c := &Column{Name: name, table: t}
	t.columns = append(t.columns, c)

	return c
}

// RemoveColumn detaches c from the table and every constraint using it.
func (t *Table) RemoveColumn(c *Column) bool {
	idx := slices.Index(t.columns, c)
	if idx < 0 {
		return false
	}

	t.columns = slices.Delete(t.columns, idx, idx+1)

	if t.pk != nil {
		t.pk.removeColumn(c)
	}

	for _, i := range t.indexes {
		i.removeColumn(c)
	}

	for _, u := range t.uniques {
		u.removeColumn(c)
	}

	for _, fk := range t.fks {
		fk.RemoveJoin(c)
	}

	c.table = nil

	return true
}

// PrimaryKey returns the table's primary key, or nil.
func (t *Table) PrimaryKey() *PrimaryKey {
	return t.pk
}

// AddPrimaryKey returns the primary key, creating it if needed.
func (t *Table) AddPrimaryKey(name string) *PrimaryKey {
	if t.pk == nil {
		t.pk = &PrimaryKey{Name: name, table: t}
	}

	return t.pk
}

// RemovePrimaryKey drops the primary key.
func (t *Table) RemovePrimaryKey() {
	t.pk = nil
}

// PrimaryKeyColumns returns the primary key columns, or nil.
func (t *Table) PrimaryKeyColumns() []*Column {
	if t.pk == nil {
		return nil
	}

	return t.pk.Columns()
}

// ForeignKeys returns the table's foreign keys.
func (t *Table) ForeignKeys() []*ForeignKey {
	return slices.Clone(t.fks)
}

// AddForeignKey creates a new foreign key on the table.
func (t *Table) AddForeignKey(name string) *ForeignKey {
	fk := &ForeignKey{Name: name, table: t}
	t.fks = append(t.fks, fk)

	return fk
}

// RemoveForeignKey drops fk from the table.
func (t *Table) RemoveForeignKey(fk *ForeignKey) bool {
	idx := slices.Index(t.fks, fk)
	if idx < 0 {
		return false
	}

	t.fks = slices.Delete(t.fks, idx, idx+1)
	fk.table = nil

	return true
}

// Indexes returns the table's indexes.
func (t *Table) Indexes() []*Index {
	return slices.Clone(t.indexes)
}

// Index looks an index up by name, ignoring case.
func (t *Table) Index(name string) *Index {
	for _, i := range t.indexes {
		if strings.EqualFold(i.Name, name) {
			return i
		}
	}

	return nil
}

// AddIndex creates a new index on the table.
func (t *Table) AddIndex(name string) *Index {
	i := &Index{Name: name, table: t}
	t.indexes = append(t.indexes, i)

	return i
}

// RemoveIndex drops idx from the table.
func (t *Table) RemoveIndex(idx *Index) bool {
	pos := slices.Index(t.indexes, idx)
	if pos < 0 {
		return false
	}

	t.indexes = slices.Delete(t.indexes, pos, pos+1)
	idx.table = nil

	return true
}

// Uniques returns the table's unique constraints.
func (t *Table) Uniques() []*Unique {
	return slices.Clone(t.uniques)
}

// AddUnique creates a new unique constraint on the table.
func (t *Table) AddUnique(name string) *Unique {
	u := &Unique{Name: name, table: t}
	t.uniques = append(t.uniques, u)

	return u
}

// RemoveUnique drops u from the table.
func (t *Table) RemoveUnique(u *Unique) bool {
	pos := slices.Index(t.uniques, u)
	if pos < 0 {
		return false
	}

	t.uniques = slices.Delete(t.uniques, pos, pos+1)
	u.table = nil

	return true
}

func (t *Table) String() string {
	return t.FullName()
}
