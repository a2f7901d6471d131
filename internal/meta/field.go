package meta

import (
	"slices"

	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// FieldMapping is the mapping of one persistent field.
type FieldMapping struct {
	Name string
	// Code is the declared type code of the field value.
	Code typecode.Code
	// TypeName is the declared Go type, e.g. "time.Time" or "*shop.Customer".
	TypeName string

	Transient    bool
	PrimaryKey   bool
	VersionField bool
	AutoAssign   bool

	// MappedBy names the field of the related class that owns the relation.
	MappedBy string
	// Ordered lists keep their element order in an order column.
	Ordered bool
	// OrderBy sorts elements by a field of the element instead.
	OrderBy string
	// LOB requests large-object storage for strings and byte slices.
	LOB bool
	// EnumValues lists the constant names of an enum type, in ordinal order.
	EnumValues []string

	owner *ClassMapping
	index int

	value   *ValueMapping
	key     *ValueMapping
	element *ValueMapping

	info *FieldMappingInfo

	table            *schema.Table
	joinFK           *schema.ForeignKey
	joinIO           ColumnIO
	joinUnique       *schema.Unique
	joinIndex        *schema.Index
	joinTableUniques []*schema.Unique
	orderCol         *schema.Column
	orderIO          ColumnIO

	strategy FieldStrategy
	state    resolveState
}

func newFieldMapping(owner *ClassMapping, name string, code typecode.Code) *FieldMapping {
	fm := &FieldMapping{Name: name, Code: code, owner: owner, info: &FieldMappingInfo{}}
	fm.value = newValueMapping(fm, RoleValue, code)

	return fm
}

// Repository implements Context.
func (fm *FieldMapping) Repository() *Repository {
	return fm.owner.Repository()
}

func (fm *FieldMapping) String() string {
	return fm.owner.String() + "." + fm.Name
}

// Owner returns the class declaring the field.
func (fm *FieldMapping) Owner() *ClassMapping {
	return fm.owner
}

// Index returns the declaration position of the field in its class.
func (fm *FieldMapping) Index() int {
	return fm.index
}

// Info returns the raw field mapping info.
func (fm *FieldMapping) Info() *FieldMappingInfo {
	return fm.info
}

// Value returns the mapping of the field value itself.
func (fm *FieldMapping) Value() *ValueMapping {
	return fm.value
}

// Key returns the key mapping of a map field, or nil.
func (fm *FieldMapping) Key() *ValueMapping {
	return fm.key
}

// Element returns the element mapping of a collection, array or map field,
// or nil.
func (fm *FieldMapping) Element() *ValueMapping {
	return fm.element
}

// SetElement declares the element type of a container field.
func (fm *FieldMapping) SetElement(code typecode.Code, typeName string) *ValueMapping {
	fm.element = newValueMapping(fm, RoleElement, code)
	fm.element.TypeName = typeName

	return fm.element
}

// SetKey declares the key type of a map field.
func (fm *FieldMapping) SetKey(code typecode.Code, typeName string) *ValueMapping {
	fm.key = newValueMapping(fm, RoleKey, code)
	fm.key.TypeName = typeName

	return fm.key
}

// IsPersistent reports whether the field is stored at all.
func (fm *FieldMapping) IsPersistent() bool {
	return !fm.Transient
}

// IsSerialized reports whether the value is stored as a serialized blob.
func (fm *FieldMapping) IsSerialized() bool {
	return fm.value.Serialized
}

// IsEmbedded reports whether the field value is an embedded object.
func (fm *FieldMapping) IsEmbedded() bool {
	return fm.value.IsEmbeddedPC()
}

// MappedByField returns the owning side of a bidirectional relation, or nil.
func (fm *FieldMapping) MappedByField() *FieldMapping {
	if fm.MappedBy == "" {
		return nil
	}

	var rel *ClassMapping

	switch {
	case fm.value.related != nil:
		rel = fm.value.related
	case fm.element != nil && fm.element.related != nil:
		rel = fm.element.related
	}

	if rel == nil {
		return nil
	}

	return rel.Field(fm.MappedBy)
}

// DefiningMapping returns the class whose table holds the field by default.
// For fields of embedded copies this is the copy itself.
func (fm *FieldMapping) DefiningMapping() *ClassMapping {
	return fm.owner
}

// Strategy returns the installed strategy, or nil.
func (fm *FieldMapping) Strategy() FieldStrategy {
	return fm.strategy
}

// SetStrategy installs s and maps it. On failure the previous strategy is
// restored.
func (fm *FieldMapping) SetStrategy(s FieldStrategy, mode Mode) error {
	orig := fm.strategy
	fm.strategy = s

	if err := s.Map(mode); err != nil {
		fm.strategy = orig
		return err
	}

	return nil
}

// Table returns the table holding the field's columns.
func (fm *FieldMapping) Table() *schema.Table {
	if fm.table != nil {
		return fm.table
	}

	return fm.owner.Table()
}

// SetTable overrides the field's table.
func (fm *FieldMapping) SetTable(t *schema.Table) {
	fm.table = t
}

// Columns returns the columns of the field value.
func (fm *FieldMapping) Columns() []*schema.Column {
	return fm.value.Columns()
}

// SetColumns sets the columns of the field value.
func (fm *FieldMapping) SetColumns(cols []*schema.Column) {
	fm.value.SetColumns(cols)
}

// ForeignKey returns the value's foreign key, or nil.
func (fm *FieldMapping) ForeignKey() *schema.ForeignKey {
	return fm.value.fk
}

// JoinForeignKey returns the key joining the field's table to the class
// table, or nil when the field lives in the class table.
func (fm *FieldMapping) JoinForeignKey() *schema.ForeignKey {
	return fm.joinFK
}

// SetJoinForeignKey sets the join to the class table.
func (fm *FieldMapping) SetJoinForeignKey(fk *schema.ForeignKey) {
	fm.joinFK = fk
}

// JoinColumnIO returns the writability of the join columns.
func (fm *FieldMapping) JoinColumnIO() ColumnIO {
	return fm.joinIO
}

// JoinUnique returns the unique constraint on the join columns, or nil.
func (fm *FieldMapping) JoinUnique() *schema.Unique {
	return fm.joinUnique
}

// JoinIndex returns the index on the join columns, or nil.
func (fm *FieldMapping) JoinIndex() *schema.Index {
	return fm.joinIndex
}

// JoinTableUniques returns the unique constraints declared over join table
// columns.
func (fm *FieldMapping) JoinTableUniques() []*schema.Unique {
	return slices.Clone(fm.joinTableUniques)
}

// OrderColumn returns the order column, or nil.
func (fm *FieldMapping) OrderColumn() *schema.Column {
	return fm.orderCol
}

// OrderColumnIO returns the writability of the order column.
func (fm *FieldMapping) OrderColumnIO() ColumnIO {
	return fm.orderIO
}

// IsResolved reports whether the strategy is installed.
func (fm *FieldMapping) IsResolved() bool {
	return fm.state == resolved
}

// copyDeclaration copies the declared shape of f, not its mapping state.
func (fm *FieldMapping) copyDeclaration(f *FieldMapping) {
	fm.TypeName = f.TypeName
	fm.Transient = f.Transient
	fm.PrimaryKey = f.PrimaryKey
	fm.VersionField = f.VersionField
	fm.AutoAssign = f.AutoAssign
	fm.MappedBy = f.MappedBy
	fm.Ordered = f.Ordered
	fm.OrderBy = f.OrderBy
	fm.LOB = f.LOB
	fm.EnumValues = slices.Clone(f.EnumValues)

	fm.value.copyDeclaration(f.value)

	if f.key != nil {
		fm.SetKey(f.key.Code, f.key.TypeName).copyDeclaration(f.key)
	}

	if f.element != nil {
		fm.SetElement(f.element.Code, f.element.TypeName).copyDeclaration(f.element)
	}
}

// mapJoin resolves the field's table and the join back to the class table.
// When joinRequired is false a field in the class table gets no join.
func (fm *FieldMapping) mapJoin(mode Mode, joinRequired bool) error {
	table, err := fm.info.GetTable(fm, joinRequired, mode)
	if err != nil {
		return err
	}

	if table != nil && table == fm.owner.Table() {
		table = nil
	}

	var join *schema.ForeignKey
	if table != nil {
		join, err = fm.info.GetJoin(fm, table, mode)
		if err != nil {
			return err
		}
	}

	if join == nil && joinRequired {
		return metaErr(fm, "join-required", "field requires a join table but none could be resolved")
	}

	if join == nil {
		fm.table = nil
		fm.joinFK = nil

		return nil
	}

	fm.table = table
	fm.joinFK = join
	fm.joinIO = fm.info.ColumnIO()

	if fm.joinUnique, err = fm.info.GetJoinUnique(fm, mode); err != nil {
		return err
	}

	if fm.joinIndex, err = fm.info.GetJoinIndex(fm, mode); err != nil {
		return err
	}

	fm.joinTableUniques, err = fm.info.GetJoinTableUniques(fm, mode)

	return err
}

// mapOrderColumn resolves the order column of a container field.
func (fm *FieldMapping) mapOrderColumn(mode Mode) error {
	col, err := fm.info.GetOrderColumn(fm, fm.Table(), mode)
	if err != nil {
		return err
	}

	fm.orderCol = col
	fm.orderIO = fm.info.ColumnIO()

	return nil
}

// mapPrimaryKey adds the value columns to the table's primary key when the
// field is part of the identity.
func (fm *FieldMapping) mapPrimaryKey(mode Mode) {
	if !fm.PrimaryKey {
		return
	}

	addToPrimaryKey(fm.Table(), fm.Columns(), mode)
}

func addToPrimaryKey(t *schema.Table, cols []*schema.Column, mode Mode) {
	if t == nil {
		return
	}

	pk := t.PrimaryKey()
	if pk == nil || (!mode.Adapt() && !pk.Logical) {
		return
	}

	for _, c := range cols {
		if c.Table() == t {
			pk.AddColumn(c)
		}
	}
}
