package schema

import (
	"slices"
	"strings"
	"sync"

	"relmap/internal/common"
)

// Schema is a named collection of tables. The default schema has an empty name.
type Schema struct {
	Name string

	group  *Group
	tables []*Table
}

// Group returns the owning group.
func (s *Schema) Group() *Group {
	return s.group
}

// Table looks a table up by name, ignoring case.
func (s *Schema) Table(name string) *Table {
	for _, t := range s.tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}

	return nil
}

// Tables returns the schema's tables in creation order.
func (s *Schema) Tables() []*Table {
	return slices.Clone(s.tables)
}

// AddTable returns the table with the given name, creating it if needed.
func (s *Schema) AddTable(name string) *Table {
	if t := s.Table(name); t != nil {
		return t
	}

	t := &Table{Name: name, schema: s}
	s.tables = append(s.tables, t)

	return t
}

// RemoveTable drops t from the schema.
func (s *Schema) RemoveTable(t *Table) bool {
	idx := slices.Index(s.tables, t)
	if idx < 0 {
		return false
	}

	s.tables = slices.Delete(s.tables, idx, idx+1)
	t.schema = nil

	return true
}

// TableNameTaken reports whether a table already uses name.
func (s *Schema) TableNameTaken(name string) bool {
	return s.Table(name) != nil
}

// IndexNameTaken reports whether any table in the schema has an index named name.
func (s *Schema) IndexNameTaken(name string) bool {
	for _, t := range s.tables {
		if t.Index(name) != nil {
			return true
		}
	}

	return false
}

// ConstraintNameTaken reports whether a primary key, foreign key or unique
// constraint in the schema uses name.
func (s *Schema) ConstraintNameTaken(name string) bool {
	for _, t := range s.tables {
		if t.pk != nil && strings.EqualFold(t.pk.Name, name) {
			return true
		}

		for _, fk := range t.fks {
			if strings.EqualFold(fk.Name, name) {
				return true
			}
		}

		for _, u := range t.uniques {
			if strings.EqualFold(u.Name, name) {
				return true
			}
		}
	}

	return false
}

// Loader discovers tables that are not yet part of a group. It returns
// (nil, nil) when the table does not exist.
type Loader interface {
	LoadTable(g *Group, schemaName, tableName string) (*Table, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(g *Group, schemaName, tableName string) (*Table, error)

// LoadTable calls f.
func (f LoaderFunc) LoadTable(g *Group, schemaName, tableName string) (*Table, error) {
	return f(g, schemaName, tableName)
}

// Group is the root of the schema model.
type Group struct {
	schemas []*Schema
	loader  Loader

	mu     sync.Mutex
	misses map[string]struct{}
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{}
}

// SetLoader installs a loader consulted by FindTable on misses.
func (g *Group) SetLoader(l Loader) {
	g.loader = l
	g.mu.Lock()
	g.misses = nil
	g.mu.Unlock()
}

// Schema looks a schema up by name, ignoring case.
func (g *Group) Schema(name string) *Schema {
	for _, s := range g.schemas {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}

	return nil
}

// Schemas returns all schemas.
func (g *Group) Schemas() []*Schema {
	return slices.Clone(g.schemas)
}

// AddSchema returns the schema with the given name, creating it if needed.
func (g *Group) AddSchema(name string) *Schema {
	if s := g.Schema(name); s != nil {
		return s
	}

	s := &Schema{Name: name, group: g}
	g.schemas = append(g.schemas, s)

	return s
}

// Tables returns every table in the group, schema by schema.
func (g *Group) Tables() []*Table {
	var out []*Table
	for _, s := range g.schemas {
		out = append(out, s.tables...)
	}

	return out
}

// FindTable resolves a possibly qualified table name. An unqualified name is
// searched in every schema, the default schema first. When nothing matches
// and a loader is set, the loader is asked once per name.
func (g *Group) FindTable(name string) (*Table, error) {
	schemaName, tableName := common.SplitQualified(name)

	if t := g.lookup(schemaName, tableName, name); t != nil {
		return t, nil
	}

	if g.loader == nil {
		return nil, nil
	}

	key := strings.ToUpper(name)

	g.mu.Lock()
	_, missed := g.misses[key]
	g.mu.Unlock()

	if missed {
		return nil, nil
	}

	t, err := g.loader.LoadTable(g, schemaName, tableName)
	if err != nil {
		return nil, err
	}

	if t == nil {
		g.mu.Lock()
		if g.misses == nil {
			g.misses = make(map[string]struct{})
		}
		g.misses[key] = struct{}{}
		g.mu.Unlock()
	}

	return t, nil
}

func (g *Group) lookup(schemaName, tableName, raw string) *Table {
	if strings.Contains(raw, ".") {
		if s := g.Schema(schemaName); s != nil {
			return s.Table(tableName)
		}

		return nil
	}

	if s := g.Schema(""); s != nil {
		if t := s.Table(tableName); t != nil {
			return t
		}
	}

	for _, s := range g.schemas {
		if t := s.Table(tableName); t != nil {
			return t
		}
	}

	return nil
}

// Clone returns a deep copy of the group. Constraints in the copy point at
// the copied columns. The loader is not carried over.
func (g *Group) Clone() *Group {
	out := NewGroup()
	cols := make(map[*Column]*Column)

	for _, s := range g.schemas {
		cs := out.AddSchema(s.Name)
		for _, t := range s.tables {
			ct := cs.AddTable(t.Name)
			ct.Comment = t.Comment

			for _, c := range t.columns {
				cc := c.Clone()
				cc.table = ct
				ct.columns = append(ct.columns, cc)
				cols[c] = cc
			}
		}
	}

	mapCols := func(in []*Column) []*Column {
		out := make([]*Column, len(in))
		for i, c := range in {
			out[i] = cols[c]
		}

		return out
	}

	for _, s := range g.schemas {
		cs := out.Schema(s.Name)
		for _, t := range s.tables {
			ct := cs.Table(t.Name)

			if t.pk != nil {
				pk := ct.AddPrimaryKey(t.pk.Name)
				pk.Logical = t.pk.Logical
				pk.cols = mapCols(t.pk.cols)
			}

			for _, i := range t.indexes {
				ci := ct.AddIndex(i.Name)
				ci.Unique = i.Unique
				ci.cols = mapCols(i.cols)
			}

			for _, u := range t.uniques {
				cu := ct.AddUnique(u.Name)
				cu.Deferred = u.Deferred
				cu.cols = mapCols(u.cols)
			}

			for _, fk := range t.fks {
				cf := ct.AddForeignKey(fk.Name)
				cf.DeleteAction = fk.DeleteAction
				cf.UpdateAction = fk.UpdateAction
				cf.Deferred = fk.Deferred
				cf.cols = mapCols(fk.cols)
				cf.pkCols = mapCols(fk.pkCols)
				cf.constCols = mapCols(fk.constCols)
				cf.consts = slices.Clone(fk.consts)
				cf.constPKCols = mapCols(fk.constPKCols)
				cf.constsPK = slices.Clone(fk.constsPK)
			}
		}
	}

	return out
}
