package meta

import (
	"slices"
	"strings"

	"relmap/internal/schema"
)

// SecondaryTable is an extra table holding some of a class's fields, joined
// to the primary table by JoinColumns.
type SecondaryTable struct {
	Name        string
	JoinColumns []*schema.Column
}

// ClassMappingInfo is the raw mapping of a class. Its base columns are the
// datastore identity columns, or the join columns to the superclass table.
type ClassMappingInfo struct {
	MappingInfo

	ClassName  string
	TableName  string
	SchemaName string
	// Joined marks a subclass stored in its own table joined to the parent.
	Joined bool
	// HierarchyStrategy is the class strategy alias subclasses default to.
	HierarchyStrategy string

	secondary []SecondaryTable
	uniques   map[string][]*schema.Unique
}

func newClassMappingInfo(name string) *ClassMappingInfo {
	return &ClassMappingInfo{ClassName: name}
}

// SecondaryTableNames returns the secondary tables in declaration order.
func (ci *ClassMappingInfo) SecondaryTableNames() []string {
	names := make([]string, len(ci.secondary))
	for i, st := range ci.secondary {
		names[i] = st.Name
	}

	return names
}

// SecondaryTableJoinColumns returns the join columns declared for the
// secondary table, or nil.
func (ci *ClassMappingInfo) SecondaryTableJoinColumns(table string) []*schema.Column {
	for _, st := range ci.secondary {
		if strings.EqualFold(st.Name, table) {
			return st.JoinColumns
		}
	}

	return nil
}

// AddSecondaryTable declares a secondary table, replacing an earlier
// declaration of the same name.
func (ci *ClassMappingInfo) AddSecondaryTable(table string, joinCols []*schema.Column) {
	for i, st := range ci.secondary {
		if strings.EqualFold(st.Name, table) {
			ci.secondary[i].JoinColumns = joinCols
			return
		}
	}

	ci.secondary = append(ci.secondary, SecondaryTable{Name: table, JoinColumns: joinCols})
}

// UniqueTables returns the tables that have declared unique constraints,
// sorted by name.
func (ci *ClassMappingInfo) UniqueTables() []string {
	names := make([]string, 0, len(ci.uniques))
	for t := range ci.uniques {
		names = append(names, t)
	}

	slices.Sort(names)

	return names
}

// Uniques returns the unique constraint templates declared for table.
func (ci *ClassMappingInfo) Uniques(table string) []*schema.Unique {
	for t, us := range ci.uniques {
		if strings.EqualFold(t, table) {
			return us
		}
	}

	return nil
}

// AddUnique declares a unique constraint over named columns of table.
func (ci *ClassMappingInfo) AddUnique(table string, u *schema.Unique) {
	if ci.uniques == nil {
		ci.uniques = make(map[string][]*schema.Unique)
	}

	for t := range ci.uniques {
		if strings.EqualFold(t, table) {
			table = t
			break
		}
	}

	ci.uniques[table] = append(ci.uniques[table], u)
}

// GetTable resolves the class's primary table.
func (ci *ClassMappingInfo) GetTable(cm *ClassMapping, mode Mode) (*schema.Table, error) {
	defaults := cm.Repository().Defaults()

	return ci.createTable(cm, func(s *schema.Schema) string {
		return defaults.TableName(cm, s)
	}, ci.SchemaName, ci.TableName, mode)
}

// GetDataStoreIDColumns resolves the surrogate identity columns.
func (ci *ClassMappingInfo) GetDataStoreIDColumns(cm *ClassMapping, tmpls []*schema.Column, table *schema.Table, mode Mode) ([]*schema.Column, error) {
	cm.Repository().Defaults().PopulateDataStoreIDColumns(cm, table, tmpls)
	return ci.createColumns(cm, "datastoreid", tmpls, table, mode)
}

// GetSuperclassJoin resolves the key joining table to the table of the
// nearest superclass with storage, or returns nil when there is none.
func (ci *ClassMappingInfo) GetSuperclassJoin(cm *ClassMapping, table *schema.Table, mode Mode) (*schema.ForeignKey, error) {
	sup := cm.JoinableSuperclass()
	if sup == nil {
		return nil, nil
	}

	defaults := cm.Repository().Defaults()
	def := &fkDefaults{
		get: func(local, foreign *schema.Table, _ bool) *schema.ForeignKey {
			return defaults.JoinForeignKey(cm, local, foreign)
		},
		populate: func(local, foreign *schema.Table, col, target *schema.Column, _ bool, pos, n int) {
			defaults.PopulateJoinColumn(cm, local, foreign, col, target, pos, n)
		},
	}

	return ci.createForeignKey(cm, "superclass", ci.Columns, def, table, cm, sup, false, mode)
}

// GetUniques resolves the unique constraints declared for table. A table
// without declarations yields none.
func (ci *ClassMappingInfo) GetUniques(cm *ClassMapping, table *schema.Table, mode Mode) ([]*schema.Unique, error) {
	tmpls := ci.Uniques(table.Name)
	if len(tmpls) == 0 {
		tmpls = ci.Uniques(table.FullName())
	}

	return resolveUniques(cm, "class", tmpls, table, mode)
}

// resolveUniques finds or creates unique constraints from templates naming
// their columns.
func resolveUniques(ctx Context, prefix string, tmpls []*schema.Unique, table *schema.Table, mode Mode) ([]*schema.Unique, error) {
	if len(tmpls) == 0 {
		return nil, nil
	}

	dict := ctx.Repository().Dictionary()
	out := make([]*schema.Unique, 0, len(tmpls))

	for _, tmpl := range tmpls {
		names := tmpl.Columns()
		if len(names) == 0 {
			return nil, metaErr(ctx, prefix+"-no-unique-cols", "unique constraint %q names no columns", tmpl.Name)
		}

		cols := make([]*schema.Column, len(names))
		for i, n := range names {
			if cols[i] = table.Column(n.Name); cols[i] == nil {
				return nil, metaErr(ctx, prefix+"-bad-unique-col", "unique constraint column %q is not in %s", n.Name, table)
			}
		}

		idx := slices.IndexFunc(table.Uniques(), func(u *schema.Unique) bool { return u.ColumnsMatch(cols) })
		if idx >= 0 {
			out = append(out, table.Uniques()[idx])
			continue
		}

		if !dict.SupportsUniqueConstraints() {
			warn(ctx, prefix+"-unique-unsupported", "dictionary %s has no unique constraints", dict.Name)
			continue
		}

		name := tmpl.Name
		if name == "" {
			name = dict.ValidUniqueName(cols[0].Name, table)
		}

		u := table.AddUnique(name)
		u.Deferred = tmpl.Deferred && dict.SupportsDeferredConstraints()
		u.SetColumns(cols)
		out = append(out, u)
	}

	return out, nil
}

// uniqueTemplate returns a detached template naming the columns of u.
func uniqueTemplate(u *schema.Unique) *schema.Unique {
	tmpl := schema.NewUnique(u.Name, u.Deferred)
	for _, c := range u.Columns() {
		tmpl.AddColumn(&schema.Column{Name: c.Name})
	}

	return tmpl
}

// HasSchemaComponents reports whether any schema data was declared.
func (ci *ClassMappingInfo) HasSchemaComponents() bool {
	return ci.MappingInfo.HasSchemaComponents() || ci.TableName != "" ||
		len(ci.secondary) > 0 || len(ci.uniques) > 0
}

// Clear drops the declared data.
func (ci *ClassMappingInfo) Clear(canFlags bool) {
	ci.MappingInfo.Clear(canFlags)
	ci.TableName = ""
	ci.SchemaName = ""
	ci.Joined = false
	ci.HierarchyStrategy = ""
	ci.secondary = nil
	ci.uniques = nil
}

// Copy fills in the data other declares and ci leaves unset.
func (ci *ClassMappingInfo) Copy(other *ClassMappingInfo) {
	if other == nil {
		return
	}

	ci.MappingInfo.Copy(&other.MappingInfo)

	if ci.TableName == "" {
		ci.TableName = other.TableName
	}

	if ci.SchemaName == "" {
		ci.SchemaName = other.SchemaName
	}

	if ci.HierarchyStrategy == "" {
		ci.HierarchyStrategy = other.HierarchyStrategy
	}

	ci.Joined = ci.Joined || other.Joined

	for _, st := range other.secondary {
		if ci.SecondaryTableJoinColumns(st.Name) == nil {
			ci.AddSecondaryTable(st.Name, st.JoinColumns)
		}
	}

	for t, us := range other.uniques {
		if len(ci.Uniques(t)) == 0 {
			for _, u := range us {
				ci.AddUnique(t, u)
			}
		}
	}
}

// SyncWith rewrites the info to the minimal form that resolves to cm's
// current mapping.
func (ci *ClassMappingInfo) SyncWith(cm *ClassMapping) {
	ci.Clear(false)

	if cm.IsEmbedded() || cm.Embeddable {
		return
	}

	sup := cm.JoinableSuperclass()
	table := cm.Table()

	if table != nil && (sup == nil || sup.Table() != table) {
		ci.TableName = table.Name
		if s := table.Schema(); s != nil && s.Name != "" && s.Name != cm.Repository().DefaultSchemaName() {
			ci.SchemaName = s.Name
		}
	}

	ci.SetColumnIO(cm.ColumnIO())

	switch {
	case cm.JoinForeignKey() != nil && sup != nil && sup.Table() != nil:
		ci.syncForeignKey(cm, cm.JoinForeignKey(), table, sup.Table())
	case cm.Identity == IdentityDatastore && cm.super == nil:
		ci.syncColumns(cm, cm.PrimaryKeyColumns(), false)
	}

	if s := cm.Strategy(); s != nil && (cm.super != nil || s.Alias() != ClassFull) {
		ci.Strategy = s.Alias()
	}

	if table == nil || (sup != nil && sup.Table() == table) {
		return
	}

	owned := make(map[*schema.Unique]bool)
	for _, f := range cm.DeclaredFields() {
		for _, vm := range []*ValueMapping{f.value, f.key, f.element} {
			if vm != nil && vm.unique != nil {
				owned[vm.unique] = true
			}
		}

		if f.joinUnique != nil {
			owned[f.joinUnique] = true
		}
	}

	for _, u := range table.Uniques() {
		if !owned[u] {
			ci.AddUnique(table.Name, uniqueTemplate(u))
		}
	}
}
