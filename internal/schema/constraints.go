package schema

import "strings"

type columnSet struct {
	cols []*Column
}

// Columns returns the constrained columns in order.
func (s *columnSet) Columns() []*Column {
	return append([]*Column(nil), s.cols...)
}

// SetColumns replaces the constrained columns.
func (s *columnSet) SetColumns(cols []*Column) {
	s.cols = append([]*Column(nil), cols...)
}

// AddColumn appends a column unless it is already present.
func (s *columnSet) AddColumn(c *Column) {
	if !s.ContainsColumn(c) {
		s.cols = append(s.cols, c)
	}
}

// ContainsColumn reports whether c is one of the constrained columns.
func (s *columnSet) ContainsColumn(c *Column) bool {
	for _, col := range s.cols {
		if col == c {
			return true
		}
	}

	return false
}

// ColumnsMatch reports whether cols equals the constrained columns, in order.
func (s *columnSet) ColumnsMatch(cols []*Column) bool {
	if len(cols) != len(s.cols) {
		return false
	}

	for i := range cols {
		if cols[i] != s.cols[i] {
			return false
		}
	}

	return true
}

func (s *columnSet) removeColumn(c *Column) {
	for i, col := range s.cols {
		if col == c {
			s.cols = append(s.cols[:i], s.cols[i+1:]...)
			return
		}
	}
}

func (s *columnSet) names() string {
	names := make([]string, len(s.cols))
	for i, c := range s.cols {
		names[i] = c.Name
	}

	return strings.Join(names, ", ")
}

// PrimaryKey is a table's primary key. A logical key is tracked in metadata
// only and never emitted as DDL.
type PrimaryKey struct {
	columnSet
	Name    string
	Logical bool

	table *Table
}

// Table returns the owning table.
func (pk *PrimaryKey) Table() *Table {
	return pk.table
}

func (pk *PrimaryKey) String() string {
	return "PRIMARY KEY (" + pk.names() + ")"
}

// Index is a (possibly unique) index over an ordered column list.
type Index struct {
	columnSet
	Name   string
	Unique bool

	table *Table
}

// NewIndex creates a detached index template.
func NewIndex(name string, unique bool) *Index {
	return &Index{Name: name, Unique: unique}
}

// Table returns the owning table.
func (i *Index) Table() *Table {
	return i.table
}

func (i *Index) String() string {
	return "INDEX " + i.Name + " (" + i.names() + ")"
}

// Unique is a unique constraint over an ordered column list.
type Unique struct {
	columnSet
	Name     string
	Deferred bool

	table *Table
}

// NewUnique creates a detached unique constraint template.
func NewUnique(name string, deferred bool) *Unique {
	return &Unique{Name: name, Deferred: deferred}
}

// Table returns the owning table.
func (u *Unique) Table() *Table {
	return u.table
}

func (u *Unique) String() string {
	return "UNIQUE " + u.Name + " (" + u.names() + ")"
}

// ForeignKey joins local columns to primary (target) columns. Either side of
// a join may instead be a constant: a local column compared to a literal, or
// a literal compared to a primary column.
type ForeignKey struct {
	Name         string
	DeleteAction Action
	UpdateAction Action
	Deferred     bool

	table *Table

	cols   []*Column
	pkCols []*Column

	constCols []*Column
	consts    []any

	constPKCols []*Column
	constsPK    []any
}

// NewForeignKey creates a detached foreign key template.
func NewForeignKey(name string, deleteAction Action) *ForeignKey {
	return &ForeignKey{Name: name, DeleteAction: deleteAction}
}

// Table returns the local table.
func (fk *ForeignKey) Table() *Table {
	return fk.table
}

// PrimaryKeyTable returns the referenced table, or nil if the key only holds
// local constant joins.
func (fk *ForeignKey) PrimaryKeyTable() *Table {
	if len(fk.pkCols) > 0 {
		return fk.pkCols[0].table
	}

	if len(fk.constPKCols) > 0 {
		return fk.constPKCols[0].table
	}

	return nil
}

// IsLogical reports whether the key exists in metadata only.
func (fk *ForeignKey) IsLogical() bool {
	return fk.DeleteAction == ActionNone
}

// Columns returns the local join columns.
func (fk *ForeignKey) Columns() []*Column {
	return append([]*Column(nil), fk.cols...)
}

// PrimaryKeyColumns returns the target columns, parallel to Columns.
func (fk *ForeignKey) PrimaryKeyColumns() []*Column {
	return append([]*Column(nil), fk.pkCols...)
}

// ConstantColumns returns local columns joined to constants.
func (fk *ForeignKey) ConstantColumns() []*Column {
	return append([]*Column(nil), fk.constCols...)
}

// Constants returns the constants joined to ConstantColumns.
func (fk *ForeignKey) Constants() []any {
	return append([]any(nil), fk.consts...)
}

// ConstantPrimaryKeyColumns returns target columns joined to constants.
func (fk *ForeignKey) ConstantPrimaryKeyColumns() []*Column {
	return append([]*Column(nil), fk.constPKCols...)
}

// PrimaryKeyConstants returns the constants joined to ConstantPrimaryKeyColumns.
func (fk *ForeignKey) PrimaryKeyConstants() []any {
	return append([]any(nil), fk.constsPK...)
}

// Join adds a local-to-target column pair, replacing any existing join on local.
func (fk *ForeignKey) Join(local, pk *Column) {
	fk.RemoveJoin(local)
	fk.cols = append(fk.cols, local)
	fk.pkCols = append(fk.pkCols, pk)
}

// JoinConstant joins a local column to a constant value.
func (fk *ForeignKey) JoinConstant(local *Column, val any) {
	fk.RemoveJoin(local)
	fk.constCols = append(fk.constCols, local)
	fk.consts = append(fk.consts, val)
}

// JoinConstantPK joins a constant value to a target column.
func (fk *ForeignKey) JoinConstantPK(val any, pk *Column) {
	for i, c := range fk.constPKCols {
		if c == pk {
			fk.constsPK[i] = val
			return
		}
	}

	fk.constPKCols = append(fk.constPKCols, pk)
	fk.constsPK = append(fk.constsPK, val)
}

// RemoveJoin drops every join that involves local.
func (fk *ForeignKey) RemoveJoin(local *Column) {
	for i, c := range fk.cols {
		if c == local {
			fk.cols = append(fk.cols[:i], fk.cols[i+1:]...)
			fk.pkCols = append(fk.pkCols[:i], fk.pkCols[i+1:]...)

			break
		}
	}

	for i, c := range fk.constCols {
		if c == local {
			fk.constCols = append(fk.constCols[:i], fk.constCols[i+1:]...)
			fk.consts = append(fk.consts[:i], fk.consts[i+1:]...)

			break
		}
	}
}

// PrimaryKeyColumnFor returns the target column joined to local, or nil.
func (fk *ForeignKey) PrimaryKeyColumnFor(local *Column) *Column {
	for i, c := range fk.cols {
		if c == local {
			return fk.pkCols[i]
		}
	}

	return nil
}

// ColumnFor returns the local column joined to target column pk, or nil.
func (fk *ForeignKey) ColumnFor(pk *Column) *Column {
	for i, c := range fk.pkCols {
		if c == pk {
			return fk.cols[i]
		}
	}

	return nil
}

// ConstantFor returns the constant joined to local.
func (fk *ForeignKey) ConstantFor(local *Column) (any, bool) {
	for i, c := range fk.constCols {
		if c == local {
			return fk.consts[i], true
		}
	}

	return nil, false
}

// ConstantPKFor returns the constant joined to target column pk.
func (fk *ForeignKey) ConstantPKFor(pk *Column) (any, bool) {
	for i, c := range fk.constPKCols {
		if c == pk {
			return fk.constsPK[i], true
		}
	}

	return nil, false
}

// ColumnsMatch reports whether the column joins are exactly the given pairs,
// in any order. Constant joins are ignored.
func (fk *ForeignKey) ColumnsMatch(cols, pkCols []*Column) bool {
	if len(cols) != len(fk.cols) || len(cols) != len(pkCols) {
		return false
	}

	for i := range cols {
		if fk.PrimaryKeyColumnFor(cols[i]) != pkCols[i] {
			return false
		}
	}

	return true
}

// ContainsColumn reports whether c takes part in any join of the key.
func (fk *ForeignKey) ContainsColumn(c *Column) bool {
	for _, col := range fk.cols {
		if col == c {
			return true
		}
	}

	for _, col := range fk.constCols {
		if col == c {
			return true
		}
	}

	return false
}

func (fk *ForeignKey) String() string {
	var b strings.Builder
	b.WriteString("FOREIGN KEY ")
	b.WriteString(fk.Name)
	b.WriteString(" (")

	for i, c := range fk.cols {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(c.Name)
		b.WriteString(" -> ")
		b.WriteString(fk.pkCols[i].FullName())
	}

	b.WriteString(")")

	return b.String()
}
