package meta

import (
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// fullClassStrategy stores the class in its own table with its own
// identity.
type fullClassStrategy struct {
	cm *ClassMapping
}

func (s *fullClassStrategy) Alias() string { return ClassFull }

func (s *fullClassStrategy) Map(mode Mode) error {
	cm := s.cm
	info := cm.info

	if err := info.AssertNoForeignKey(cm, !mode.Adapt()); err != nil {
		return err
	}

	if err := info.AssertNoJoin(cm, !mode.Adapt()); err != nil {
		return err
	}

	table, err := info.GetTable(cm, mode)
	if err != nil {
		return err
	}

	cm.table = table
	cm.joinFK = nil
	cm.pkCols = nil

	pk := ensurePrimaryKey(cm, table, mode)

	if cm.Identity == IdentityDatastore {
		tmpl := &schema.Column{
			JavaType:        typecode.Long,
			NotNull:         true,
			NotNullExplicit: true,
			AutoAssigned:    cm.IdentityAutoAssign,
		}

		cols, err := info.GetDataStoreIDColumns(cm, []*schema.Column{tmpl}, table, mode)
		if err != nil {
			return err
		}

		cm.pkCols = cols
		cm.io = info.ColumnIO()

		if pk.Logical || mode.Adapt() {
			for _, c := range cols {
				pk.AddColumn(c)
			}
		}
	} else if err := info.AssertNoSchemaComponents(cm, !mode.Adapt()); err != nil {
		return err
	}

	_, err = info.GetUniques(cm, table, mode)

	return err
}

// ensurePrimaryKey returns the table's primary key, creating it when
// missing. Keys created outside of Adapt are logical.
func ensurePrimaryKey(cm *ClassMapping, table *schema.Table, mode Mode) *schema.PrimaryKey {
	pk := table.PrimaryKey()
	if pk == nil {
		pk = table.AddPrimaryKey("")
		pk.Logical = true
	}

	if mode.Adapt() && pk.Logical {
		pk.Logical = false
		if name := cm.Repository().Defaults().PrimaryKeyName(cm, table); name != "" {
			pk.Name = cm.Repository().Dictionary().ValidPrimaryKeyName(name, table)
		}
	}

	return pk
}

// flatClassStrategy stores the class in the table of its superclass.
type flatClassStrategy struct {
	cm *ClassMapping
}

func (s *flatClassStrategy) Alias() string { return ClassFlat }

func (s *flatClassStrategy) Map(mode Mode) error {
	cm := s.cm

	sup := cm.JoinableSuperclass()
	if sup == nil {
		return metaErr(cm, "flat-no-super", "flat mapping needs a superclass with a table")
	}

	if err := cm.info.AssertNoSchemaComponents(cm, !mode.Adapt()); err != nil {
		return err
	}

	if name := cm.info.TableName; name != "" && !tableMatches(sup.Table(), name) {
		return metaErr(cm, "flat-table", "table %q differs from superclass table %s", name, sup.Table())
	}

	cm.table = sup.Table()
	cm.joinFK = nil
	cm.pkCols = sup.PrimaryKeyColumns()
	cm.io = sup.io

	return nil
}

// verticalClassStrategy stores the class's own fields in a table joined to
// the superclass table on the primary key.
type verticalClassStrategy struct {
	cm *ClassMapping
}

func (s *verticalClassStrategy) Alias() string { return ClassVertical }

func (s *verticalClassStrategy) Map(mode Mode) error {
	cm := s.cm
	info := cm.info

	sup := cm.JoinableSuperclass()
	if sup == nil {
		return metaErr(cm, "vertical-no-super", "vertical mapping needs a superclass with a table")
	}

	table, err := info.GetTable(cm, mode)
	if err != nil {
		return err
	}

	if table == sup.Table() {
		return metaErr(cm, "vertical-same-table", "vertical mapping cannot share superclass table %s", table)
	}

	fk, err := info.GetSuperclassJoin(cm, table, mode)
	if err != nil {
		return err
	}

	cm.table = table
	cm.joinFK = fk
	cm.io = info.ColumnIO()
	cm.pkCols = fk.Columns()

	if pk := ensurePrimaryKey(cm, table, mode); pk.Logical || mode.Adapt() {
		for _, c := range cm.pkCols {
			pk.AddColumn(c)
		}
	}

	_, err = info.GetUniques(cm, table, mode)

	return err
}

// noneClassStrategy leaves the class unmapped. Embedded copies use it: their
// fields live in the embedding field's table.
type noneClassStrategy struct {
	cm *ClassMapping
}

func (s *noneClassStrategy) Alias() string { return ClassNone }

func (s *noneClassStrategy) Map(mode Mode) error {
	s.cm.table = nil
	s.cm.joinFK = nil
	s.cm.pkCols = nil

	if s.cm.IsEmbedded() {
		return nil
	}

	return s.cm.info.AssertNoSchemaComponents(s.cm, false)
}
