package meta

import (
	"slices"

	"relmap/internal/common"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// IdentityType tells how instances of a class are identified.
type IdentityType int

const (
	// IdentityApplication uses the class's primary key fields.
	IdentityApplication IdentityType = iota
	// IdentityDatastore uses a surrogate id column managed by the store.
	IdentityDatastore
	// IdentityUnknown is used for embeddable types.
	IdentityUnknown
)

func (t IdentityType) String() string {
	switch t {
	case IdentityApplication:
		return "application"
	case IdentityDatastore:
		return "datastore"
	case IdentityUnknown:
		return "unknown"
	default:
		return common.UnknownStr
	}
}

// ClassMapping is the mapping of one persistent class.
type ClassMapping struct {
	// Name is the qualified type name, e.g. "shop.Order".
	Name string

	Abstract bool
	Final    bool
	// Embeddable classes are only stored inside other classes' tables.
	Embeddable bool

	Identity           IdentityType
	IdentityAutoAssign bool

	repo   *Repository
	super  *ClassMapping
	subs   []*ClassMapping
	fields []*FieldMapping

	// embeddedBy is set on the per-field copies of embeddable classes.
	embeddedBy *ValueMapping

	info    *ClassMappingInfo
	version *Version
	disc    *Discriminator

	table  *schema.Table
	pkCols []*schema.Column
	joinFK *schema.ForeignKey
	io     ColumnIO

	strategy ClassStrategy
	state    resolveState
}

type resolveState int

const (
	unresolved resolveState = iota
	resolving
	resolved
)

// NewClassMapping creates a class mapping with empty mapping info.
func NewClassMapping(name string) *ClassMapping {
	cm := &ClassMapping{Name: name}
	cm.info = newClassMappingInfo(name)
	cm.version = &Version{cls: cm, info: &VersionMappingInfo{}}
	cm.disc = &Discriminator{cls: cm, info: &DiscriminatorMappingInfo{}}

	return cm
}

// Repository implements Context.
func (cm *ClassMapping) Repository() *Repository {
	if cm.repo == nil && cm.embeddedBy != nil {
		return cm.embeddedBy.Repository()
	}

	return cm.repo
}

func (cm *ClassMapping) String() string {
	if cm.embeddedBy != nil {
		return cm.embeddedBy.String() + "<" + common.UnqualifiedName(cm.Name) + ">"
	}

	return cm.Name
}

// Info returns the raw mapping info.
func (cm *ClassMapping) Info() *ClassMappingInfo {
	return cm.info
}

// Version returns the version mapping.
func (cm *ClassMapping) Version() *Version {
	return cm.version
}

// Discriminator returns the discriminator mapping.
func (cm *ClassMapping) Discriminator() *Discriminator {
	return cm.disc
}

// SetSuperclass links cm below sup in the inheritance hierarchy.
func (cm *ClassMapping) SetSuperclass(sup *ClassMapping) {
	if cm.super != nil {
		if i := slices.Index(cm.super.subs, cm); i >= 0 {
			cm.super.subs = slices.Delete(cm.super.subs, i, i+1)
		}
	}

	cm.super = sup
	if sup != nil {
		sup.subs = append(sup.subs, cm)
	}
}

// Superclass returns the mapped superclass, or nil.
func (cm *ClassMapping) Superclass() *ClassMapping {
	return cm.super
}

// Subclasses returns the direct subclasses.
func (cm *ClassMapping) Subclasses() []*ClassMapping {
	return slices.Clone(cm.subs)
}

// JoinableSuperclass returns the nearest superclass that has storage of its
// own, or nil.
func (cm *ClassMapping) JoinableSuperclass() *ClassMapping {
	for s := cm.super; s != nil; s = s.super {
		if s.strategy != nil {
			if s.strategy.Alias() != ClassNone {
				return s
			}

			continue
		}

		if !s.Embeddable && s.info.Strategy != ClassNone {
			return s
		}
	}

	return nil
}

// EmbeddingValue returns the value that embeds this class copy, or nil.
func (cm *ClassMapping) EmbeddingValue() *ValueMapping {
	return cm.embeddedBy
}

// IsEmbedded reports whether this is an embedded copy of an embeddable class.
func (cm *ClassMapping) IsEmbedded() bool {
	return cm.embeddedBy != nil
}

// AddField declares a field on the class.
func (cm *ClassMapping) AddField(name string, code typecode.Code) *FieldMapping {
	fm := newFieldMapping(cm, name, code)
	fm.index = len(cm.fields)
	cm.fields = append(cm.fields, fm)

	return fm
}

// DeclaredFields returns the fields declared on cm itself.
func (cm *ClassMapping) DeclaredFields() []*FieldMapping {
	return slices.Clone(cm.fields)
}

// Fields returns every field, inherited ones first.
func (cm *ClassMapping) Fields() []*FieldMapping {
	var out []*FieldMapping
	if cm.super != nil {
		out = cm.super.Fields()
	}

	return append(out, cm.fields...)
}

// Field looks up a field by name, searching superclasses too.
func (cm *ClassMapping) Field(name string) *FieldMapping {
	for c := cm; c != nil; c = c.super {
		for _, f := range c.fields {
			if f.Name == name {
				return f
			}
		}
	}

	return nil
}

// PrimaryKeyFields returns the primary key fields, inherited ones included.
func (cm *ClassMapping) PrimaryKeyFields() []*FieldMapping {
	var out []*FieldMapping

	for _, f := range cm.Fields() {
		if f.PrimaryKey {
			out = append(out, f)
		}
	}

	return out
}

// VersionField returns the field holding the version, or nil.
func (cm *ClassMapping) VersionField() *FieldMapping {
	for _, f := range cm.Fields() {
		if f.VersionField {
			return f
		}
	}

	return nil
}

// Strategy returns the installed class strategy, or nil.
func (cm *ClassMapping) Strategy() ClassStrategy {
	return cm.strategy
}

// SetStrategy installs s and maps it. On failure the previous strategy is
// restored.
func (cm *ClassMapping) SetStrategy(s ClassStrategy, mode Mode) error {
	orig := cm.strategy
	cm.strategy = s

	if err := s.Map(mode); err != nil {
		cm.strategy = orig
		return err
	}

	return nil
}

// Table returns the primary table, or nil before resolution.
func (cm *ClassMapping) Table() *schema.Table {
	if cm.embeddedBy != nil && cm.table == nil {
		return cm.embeddedBy.field.Table()
	}

	return cm.table
}

// SetTable sets the primary table.
func (cm *ClassMapping) SetTable(t *schema.Table) {
	cm.table = t
}

// PrimaryKeyColumns returns the identity columns: the datastore id or
// superclass join columns when set, else the columns of the primary key
// fields.
func (cm *ClassMapping) PrimaryKeyColumns() []*schema.Column {
	if len(cm.pkCols) > 0 {
		return slices.Clone(cm.pkCols)
	}

	if cm.Identity == IdentityApplication {
		var cols []*schema.Column

		for _, f := range cm.PrimaryKeyFields() {
			cols = append(cols, f.Columns()...)
		}

		if len(cols) > 0 {
			return cols
		}
	}

	if sup := cm.JoinableSuperclass(); sup != nil {
		return sup.PrimaryKeyColumns()
	}

	return nil
}

// SetPrimaryKeyColumns sets explicit identity columns.
func (cm *ClassMapping) SetPrimaryKeyColumns(cols []*schema.Column) {
	cm.pkCols = slices.Clone(cols)
}

// JoinForeignKey returns the key joining cm's table to its superclass table.
func (cm *ClassMapping) JoinForeignKey() *schema.ForeignKey {
	return cm.joinFK
}

// SetJoinForeignKey sets the superclass join.
func (cm *ClassMapping) SetJoinForeignKey(fk *schema.ForeignKey) {
	cm.joinFK = fk
}

// ColumnIO returns the writability of the identity columns.
func (cm *ClassMapping) ColumnIO() ColumnIO {
	return cm.io
}

// SetColumnIO sets the writability of the identity columns.
func (cm *ClassMapping) SetColumnIO(io ColumnIO) {
	cm.io = io
}

// IsResolved reports whether the class strategy is installed.
func (cm *ClassMapping) IsResolved() bool {
	return cm.state == resolved
}

// embeddedCopy creates the mapping of an embeddable class as stored inside
// the value vm. Fields are copied with fresh mapping info taken from the
// template so each embedding can be mapped independently.
func (cm *ClassMapping) embeddedCopy(vm *ValueMapping) *ClassMapping {
	cp := NewClassMapping(cm.Name)
	cp.Embeddable = true
	cp.Identity = IdentityUnknown
	cp.embeddedBy = vm
	cp.info.Copy(cm.info)

	for _, f := range cm.Fields() {
		nf := cp.AddField(f.Name, f.Code)
		nf.copyDeclaration(f)
		nf.info.Copy(f.info)
		nf.value.info.Copy(f.value.info)
	}

	return cp
}
