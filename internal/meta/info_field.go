package meta

import (
	"relmap/internal/common"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// FieldMappingInfo is the raw mapping of a field. Its base columns join the
// field's table back to the class table; the value columns live in the
// value's own info.
type FieldMappingInfo struct {
	MappingInfo

	// TableName names a join table or a secondary table of the class.
	TableName string
	OuterJoin bool

	OrderColumn    *schema.Column
	CanOrderColumn Allowance

	// JoinTableUniques are unique constraints over named join table columns.
	JoinTableUniques []*schema.Unique
}

// GetTable resolves the field's own table. Without a declared name it
// returns nil unless create is set, in which case the default join table is
// used.
func (fi *FieldMappingInfo) GetTable(fm *FieldMapping, create bool, mode Mode) (*schema.Table, error) {
	if fi.TableName == "" && !create {
		return nil, nil
	}

	schemaName := ""
	if owner := fm.DefiningMapping(); owner != nil {
		schemaName = owner.info.SchemaName
	}

	defaults := fm.Repository().Defaults()

	return fi.createTable(fm, func(s *schema.Schema) string {
		return defaults.JoinTableName(fm, s)
	}, schemaName, fi.TableName, mode)
}

// GetJoin resolves the key joining table to the class table. Without
// declared join columns, the columns declared for the class's secondary
// table of the same name are used.
func (fi *FieldMappingInfo) GetJoin(fm *FieldMapping, table *schema.Table, mode Mode) (*schema.ForeignKey, error) {
	cls := fm.DefiningMapping()

	cols := fi.Columns
	if len(cols) == 0 && fi.TableName != "" {
		cols = cls.info.SecondaryTableJoinColumns(fi.TableName)
		if cols == nil {
			cols = cls.info.SecondaryTableJoinColumns(common.UnqualifiedName(fi.TableName))
		}
	}

	defaults := fm.Repository().Defaults()
	def := &fkDefaults{
		get: func(local, foreign *schema.Table, _ bool) *schema.ForeignKey {
			return defaults.FieldJoinForeignKey(fm, local, foreign)
		},
		populate: func(local, foreign *schema.Table, col, target *schema.Column, _ bool, pos, n int) {
			defaults.PopulateFieldJoinColumn(fm, local, foreign, col, target, pos, n)
		},
	}

	return fi.createForeignKey(fm, "join", cols, def, table, cls, cls, false, mode)
}

// GetJoinUnique resolves a unique constraint over the join columns when the
// defaults ask for one.
func (fi *FieldMappingInfo) GetJoinUnique(fm *FieldMapping, mode Mode) (*schema.Unique, error) {
	fk := fm.JoinForeignKey()
	if fk == nil || len(fk.Columns()) == 0 {
		return nil, nil
	}

	tmpl := fm.Repository().Defaults().JoinUnique(fm, fk.Table(), fk.Columns())
	if tmpl == nil && fi.Unique == nil {
		return nil, nil
	}

	return fi.createUnique(fm, "join", tmpl, fk.Columns(), mode)
}

// GetJoinIndex resolves the index over the join columns.
func (fi *FieldMappingInfo) GetJoinIndex(fm *FieldMapping, mode Mode) (*schema.Index, error) {
	fk := fm.JoinForeignKey()
	if fk == nil {
		return nil, nil
	}

	var tmpl *schema.Index
	if cols := fk.Columns(); len(cols) > 0 {
		tmpl = fm.Repository().Defaults().JoinIndex(fm, fk.Table(), cols)
	}

	return fi.createIndex(fm, "join", tmpl, fk.Columns(), mode)
}

// GetJoinTableUniques resolves the unique constraints declared over join
// table columns.
func (fi *FieldMappingInfo) GetJoinTableUniques(fm *FieldMapping, mode Mode) ([]*schema.Unique, error) {
	if fm.JoinForeignKey() == nil {
		return nil, nil
	}

	return resolveUniques(fm, "join", fi.JoinTableUniques, fm.Table(), mode)
}

// GetOrderColumn resolves the column keeping the element order of a list.
func (fi *FieldMappingInfo) GetOrderColumn(fm *FieldMapping, table *schema.Table, mode Mode) (*schema.Column, error) {
	if fi.OrderColumn != nil && fm.OrderBy != "" {
		return nil, metaErr(fm, "order-conflict", "an order column is declared but elements are ordered by %q", fm.OrderBy)
	}

	fi.SetColumnIO(ColumnIO{})

	if fi.CanOrderColumn.Denied() || fm.OrderBy != "" {
		return nil, nil
	}

	defaults := fm.Repository().Defaults()
	fill := mode.Fill()

	if fi.OrderColumn == nil && !fill {
		return nil, nil
	}

	tmpl := &schema.Column{JavaType: typecode.Int}
	if !defaults.PopulateOrderColumns(fm, table, []*schema.Column{tmpl}) && fi.OrderColumn == nil {
		return nil, nil
	}

	if fi.OrderColumn != nil {
		var io ColumnIO
		io.SetNullInsertable(0, false)
		io.SetNullUpdatable(0, false)

		if fi.OrderColumn.Flag(schema.FlagUninsertable) {
			io.SetInsertable(0, false)
		}

		if fi.OrderColumn.Flag(schema.FlagUnupdatable) {
			io.SetUpdatable(0, false)
		}

		fi.SetColumnIO(io)
	}

	return fi.mergeColumn(fm, "order", tmpl, true, fi.OrderColumn, table, mode)
}

// HasSchemaComponents reports whether any schema data was declared.
func (fi *FieldMappingInfo) HasSchemaComponents() bool {
	return fi.MappingInfo.HasSchemaComponents() || fi.TableName != "" ||
		fi.OrderColumn != nil || fi.CanOrderColumn.Denied() || len(fi.JoinTableUniques) > 0
}

// Clear drops the declared data.
func (fi *FieldMappingInfo) Clear(canFlags bool) {
	fi.MappingInfo.Clear(canFlags)
	fi.TableName = ""
	fi.OuterJoin = false
	fi.OrderColumn = nil
	fi.JoinTableUniques = nil

	if canFlags {
		fi.CanOrderColumn = Unspecified
	}
}

// Copy fills in the data other declares and fi leaves unset.
func (fi *FieldMappingInfo) Copy(other *FieldMappingInfo) {
	if other == nil {
		return
	}

	fi.MappingInfo.Copy(&other.MappingInfo)

	if fi.TableName == "" {
		fi.TableName = other.TableName
	}

	fi.OuterJoin = fi.OuterJoin || other.OuterJoin

	if fi.OrderColumn == nil && !fi.CanOrderColumn.Denied() {
		if other.OrderColumn != nil {
			oc := *other.OrderColumn
			fi.OrderColumn = &oc
		} else if fi.CanOrderColumn == Unspecified {
			fi.CanOrderColumn = other.CanOrderColumn
		}
	}

	if len(fi.JoinTableUniques) == 0 {
		fi.JoinTableUniques = append(fi.JoinTableUniques, other.JoinTableUniques...)
	}
}

// SyncWith rewrites the info to the minimal form that resolves to fm's
// current mapping.
func (fi *FieldMappingInfo) SyncWith(fm *FieldMapping) {
	fi.Clear(false)

	owner := fm.DefiningMapping()

	if fk := fm.JoinForeignKey(); fk != nil && fm.MappedBy == "" {
		fi.TableName = fm.Table().FullName()
		fi.SetColumnIO(fm.JoinColumnIO())

		if owner.Table() != nil {
			fi.syncForeignKey(fm, fk, fm.Table(), owner.Table())
		}
	}

	fi.syncIndex(fm.JoinIndex())
	fi.syncUnique(fm.JoinUnique())

	for _, u := range fm.JoinTableUniques() {
		fi.JoinTableUniques = append(fi.JoinTableUniques, uniqueTemplate(u))
	}

	if oc := fm.OrderColumn(); oc != nil {
		fi.OrderColumn = syncColumn(fm, oc, 1, false, fm.Table(), nil, nil, false)
		if !fm.OrderColumnIO().IsInsertable(0, false) {
			fi.OrderColumn.SetFlag(schema.FlagUninsertable, true)
		}

		if !fm.OrderColumnIO().IsUpdatable(0, false) {
			fi.OrderColumn.SetFlag(schema.FlagUnupdatable, true)
		}
	} else if fm.Ordered {
		fi.CanOrderColumn = Denied
	}

	fi.syncStrategy(fm)
}

// syncStrategy records the strategy alias only when it differs from the one
// that would be chosen by default.
func (fi *FieldMappingInfo) syncStrategy(fm *FieldMapping) {
	s := fm.Strategy()
	if s == nil {
		return
	}

	def, err := fm.Repository().DefaultFieldStrategy(fm, false)
	if err == nil && def != nil && def.Alias() == s.Alias() {
		return
	}

	fi.Strategy = s.Alias()
}
