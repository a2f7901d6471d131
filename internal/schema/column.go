package schema

import (
	"fmt"
	"strings"

	"relmap/internal/typecode"
)

// Flag marks per-column restrictions recorded during mapping.
type Flag int

const (
	FlagUninsertable Flag = 1 << iota
	FlagUnupdatable
	FlagPKJoin
)

// Column is a table column, or a detached column template when Table is nil.
type Column struct {
	// Name may be qualified ("TABLE.COL") on templates.
	Name string
	// TableName qualifies a template column with the table it belongs to.
	TableName string

	Type     SQLType
	TypeName string
	JavaType typecode.Code

	Size          int
	DecimalDigits int

	NotNull         bool
	NotNullExplicit bool
	Default         string

	AutoAssigned     bool
	RelationID       bool
	ImplicitRelation bool

	// Target names the join target on templates: a column name, a qualified
	// column, or a literal constant.
	Target      string
	TargetField string

	Comment string
	XML     bool
	Flags   Flag

	table *Table
}

// NewColumn creates a detached column template.
func NewColumn(name string, javaType typecode.Code) *Column {
	return &Column{Name: name, JavaType: javaType}
}

// Table returns the owning table, or nil for templates.
func (c *Column) Table() *Table {
	return c.table
}

// FullName returns "TABLE.COL" for attached columns and the raw name otherwise.
func (c *Column) FullName() string {
	if c.table == nil {
		return c.Name
	}

	return c.table.FullName() + "." + c.Name
}

// SetNotNull sets nullability and marks it as explicitly chosen.
func (c *Column) SetNotNull(notNull bool) {
	c.NotNull = notNull
	c.NotNullExplicit = true
}

// Flag reports whether f is set.
func (c *Column) Flag(f Flag) bool {
	return c.Flags&f != 0
}

// SetFlag turns f on or off.
func (c *Column) SetFlag(f Flag, on bool) {
	if on {
		c.Flags |= f
	} else {
		c.Flags &^= f
	}
}

// IsPrimaryKey reports whether the column belongs to its table's primary key.
func (c *Column) IsPrimaryKey() bool {
	if c.table == nil || c.table.pk == nil {
		return false
	}

	return c.table.pk.ContainsColumn(c)
}

// IsCompatible reports whether a column of this type can hold values of the
// given type. Types in the same family (numeric, binary, character,
// temporal) are compatible; an unset type is compatible with anything.
func (c *Column) IsCompatible(t SQLType, typeName string, size, decimals int) bool {
	if c.Type == Other || t == Other {
		return true
	}

	if c.Type == t {
		return true
	}

	f := t.family()
	if f == familyNone {
		return false
	}

	if t == Blob && c.Type.family() == familyBinary {
		return true
	}

	return c.Type.family() == f
}

// Clone returns a detached copy of the column.
func (c *Column) Clone() *Column {
	cp := *c
	cp.table = nil

	return &cp
}

// Description is a short human-readable summary used in messages.
func (c *Column) Description() string {
	var b strings.Builder
	b.WriteString(c.FullName())
	b.WriteString(" ")

	if c.TypeName != "" {
		b.WriteString(c.TypeName)
	} else {
		b.WriteString(c.Type.String())
	}

	if c.Size > 0 {
		fmt.Fprintf(&b, "(%d", c.Size)
		if c.DecimalDigits > 0 {
			fmt.Fprintf(&b, ",%d", c.DecimalDigits)
		}

		b.WriteString(")")
	}

	return b.String()
}

func (c *Column) String() string {
	return c.FullName()
}
