package introspect

import (
	"strconv"
	"strings"

	"relmap/internal/schema"
)

// TableDef is the catalog description of one table as a backend reports it.
type TableDef struct {
	Name        string
	Columns     []ColumnDef
	PrimaryKey  *KeyDef
	Indexes     []IndexDef
	ForeignKeys []ForeignKeyDef
}

// ColumnDef describes one column.
type ColumnDef struct {
	Name          string
	TypeName      string
	Size          int
	Decimals      int
	NotNull       bool
	Default       string
	AutoIncrement bool
}

// KeyDef is a named, ordered column list.
type KeyDef struct {
	Name    string
	Columns []string
}

// IndexDef describes an index. Indexes backing unique constraints are
// reported as unique indexes.
type IndexDef struct {
	KeyDef
	Unique bool
}

// ForeignKeyDef describes a foreign key. RefSchema is empty when the
// referenced table lives in the schema being read.
type ForeignKeyDef struct {
	KeyDef
	RefSchema  string
	RefTable   string
	RefColumns []string
	OnDelete   schema.Action
	OnUpdate   schema.Action
}

// parseAction reads a referential action as the catalogs spell it:
// "NO ACTION", "SET_NULL", or the single letter codes of pg_constraint.
// Keys found in a catalog exist in the database, so "no action" reads as
// restrict rather than as the logical ActionNone.
func parseAction(s string) schema.Action {
	switch s {
	case "a", "r":
		return schema.ActionRestrict
	case "c":
		return schema.ActionCascade
	case "n":
		return schema.ActionNull
	case "d":
		return schema.ActionDefault
	}

	a, ok := schema.ParseAction(strings.ReplaceAll(s, "_", " "))
	if !ok || a == schema.ActionNone {
		return schema.ActionRestrict
	}

	return a
}

// splitTypeSize splits a declared type such as "VARCHAR(80)" or
// "DECIMAL(10, 2)" into its name, size and scale.
func splitTypeSize(decl string) (name string, size, decimals int) {
	decl = strings.TrimSpace(decl)

	open := strings.IndexByte(decl, '(')
	if open < 0 || !strings.HasSuffix(decl, ")") {
		return decl, 0, 0
	}

	name = strings.TrimSpace(decl[:open])
	args := strings.Split(decl[open+1:len(decl)-1], ",")

	size, _ = strconv.Atoi(strings.TrimSpace(args[0]))
	if len(args) > 1 {
		decimals, _ = strconv.Atoi(strings.TrimSpace(args[1]))
	}

	return name, size, decimals
}
