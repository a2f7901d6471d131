package meta

import (
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// ValueMappingInfo is the raw mapping of a field value, key or element. Its
// base columns are the value columns, the relation join columns, or the
// null indicator of an embedded value.
type ValueMappingInfo struct {
	MappingInfo

	// UseClassCriteria restricts relation joins to the declared class.
	UseClassCriteria bool
	CanIndicateNull  Allowance
}

// GetTypeJoin resolves the key joining the field's table to the table of
// the related class. With inversable the join columns may live in the
// related table instead.
func (vi *ValueMappingInfo) GetTypeJoin(vm *ValueMapping, name string, inversable bool, mode Mode) (*schema.ForeignKey, error) {
	rel := vm.Related()
	if rel == nil {
		return nil, nil
	}

	defaults := vm.Repository().Defaults()
	def := &fkDefaults{
		get: func(local, foreign *schema.Table, inverse bool) *schema.ForeignKey {
			return defaults.ForeignKey(vm, name, local, foreign, inverse)
		},
		populate: func(local, foreign *schema.Table, col, target *schema.Column, inverse bool, pos, n int) {
			defaults.PopulateForeignKeyColumn(vm, name, local, foreign, col, target, inverse, pos, n)
		},
	}

	fm := vm.Field()

	return vi.createForeignKey(vm, "field", vi.Columns, def, fm.Table(), fm.DefiningMapping(), rel, inversable, mode)
}

// GetInverseTypeJoin resolves the key from the related class's table back
// to the class table, as used by inverse-key collections.
func (vi *ValueMappingInfo) GetInverseTypeJoin(vm *ValueMapping, name string, mode Mode) (*schema.ForeignKey, error) {
	rel := vm.Related()
	if rel == nil || rel.Table() == nil {
		return nil, nil
	}

	defaults := vm.Repository().Defaults()
	def := &fkDefaults{
		get: func(local, foreign *schema.Table, inverse bool) *schema.ForeignKey {
			return defaults.ForeignKey(vm, name, local, foreign, !inverse)
		},
		populate: func(local, foreign *schema.Table, col, target *schema.Column, inverse bool, pos, n int) {
			defaults.PopulateForeignKeyColumn(vm, name, local, foreign, col, target, !inverse, pos, n)
		},
	}

	owner := vm.Field().DefiningMapping()

	return vi.createForeignKey(vm, "field", vi.Columns, def, rel.Table(), owner, owner, false, mode)
}

// GetColumns resolves the value columns from the templates.
func (vi *ValueMappingInfo) GetColumns(vm *ValueMapping, name string, tmpls []*schema.Column, table *schema.Table, mode Mode) ([]*schema.Column, error) {
	vm.Repository().Defaults().PopulateColumns(vm, name, table, tmpls)
	return vi.createColumns(vm, "field", tmpls, table, mode)
}

// GetIndex resolves the index over the value columns.
func (vi *ValueMappingInfo) GetIndex(vm *ValueMapping, name string, cols []*schema.Column, mode Mode) (*schema.Index, error) {
	var tmpl *schema.Index
	if len(cols) > 0 {
		tmpl = vm.Repository().Defaults().Index(vm, name, cols[0].Table(), cols)
	}

	return vi.createIndex(vm, "field", tmpl, cols, mode)
}

// GetUnique resolves the unique constraint over the value columns.
func (vi *ValueMappingInfo) GetUnique(vm *ValueMapping, name string, cols []*schema.Column, mode Mode) (*schema.Unique, error) {
	var tmpl *schema.Unique
	if len(cols) > 0 {
		tmpl = vm.Repository().Defaults().Unique(vm, name, cols[0].Table(), cols)
	}

	return vi.createUnique(vm, "field", tmpl, cols, mode)
}

// GetNullIndicatorColumn resolves the column that tells a null embedded
// value apart from one with all fields null.
func (vi *ValueMappingInfo) GetNullIndicatorColumn(vm *ValueMapping, name string, table *schema.Table, mode Mode) (*schema.Column, error) {
	vi.SetColumnIO(ColumnIO{})

	if vi.CanIndicateNull.Denied() {
		return nil, nil
	}

	if len(vi.Columns) == 0 && !mode.Fill() {
		return nil, nil
	}

	tmpl := &schema.Column{JavaType: typecode.Int}
	if !vm.Repository().Defaults().PopulateNullIndicatorColumns(vm, name, table, []*schema.Column{tmpl}) && len(vi.Columns) == 0 {
		return nil, nil
	}

	var given *schema.Column
	if len(vi.Columns) > 0 {
		given = vi.Columns[0]
		vi.setIOFromColumnFlags(given, 0)
	}

	return vi.mergeColumn(vm, "null-ind", tmpl, false, given, table, mode)
}

// HasSchemaComponents reports whether any schema data was declared.
func (vi *ValueMappingInfo) HasSchemaComponents() bool {
	return vi.MappingInfo.HasSchemaComponents() || vi.CanIndicateNull.Denied()
}

// Clear drops the declared data.
func (vi *ValueMappingInfo) Clear(canFlags bool) {
	vi.MappingInfo.Clear(canFlags)
	vi.UseClassCriteria = false

	if canFlags {
		vi.CanIndicateNull = Unspecified
	}
}

// Copy fills in the data other declares and vi leaves unset.
func (vi *ValueMappingInfo) Copy(other *ValueMappingInfo) {
	if other == nil {
		return
	}

	vi.MappingInfo.Copy(&other.MappingInfo)
	vi.UseClassCriteria = vi.UseClassCriteria || other.UseClassCriteria

	if vi.CanIndicateNull == Unspecified {
		vi.CanIndicateNull = other.CanIndicateNull
	}
}

// SyncWith rewrites the info to the minimal form that resolves to vm's
// current mapping.
func (vi *ValueMappingInfo) SyncWith(vm *ValueMapping) {
	vi.Clear(false)
	vi.SetColumnIO(vm.ColumnIO())

	switch fk := vm.ForeignKey(); {
	case vm.isMappedBy():
	case fk != nil && vm.JoinDirection() == JoinInverse:
		vi.JoinDirection = JoinInverse
		vi.syncForeignKey(vm, fk, vm.Field().Table(), vm.Related().Table())
	case fk != nil:
		vi.JoinDirection = vm.JoinDirection()
		vi.syncForeignKey(vm, fk, fk.Table(), fk.PrimaryKeyTable())
	case vm.IsEmbeddedPC():
		if ni := vm.NullIndicatorColumn(); ni != nil {
			vi.syncColumns(vm, []*schema.Column{ni}, false)
		} else {
			vi.CanIndicateNull = Denied
		}
	default:
		vi.syncColumns(vm, vm.Columns(), false)
	}

	vi.syncIndex(vm.Index())
	vi.syncUnique(vm.Unique())

	if h := vm.Handler(); h != nil {
		if def := vm.Repository().DefaultHandler(vm); def == nil || def.Alias() != h.Alias() {
			vi.Strategy = h.Alias()
		}
	}
}
