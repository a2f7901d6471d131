package meta

import (
	"slices"

	"relmap/internal/common"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// ValueRole tells which part of a field a value mapping describes.
type ValueRole int

const (
	RoleValue ValueRole = iota
	RoleKey
	RoleElement
)

func (r ValueRole) String() string {
	switch r {
	case RoleValue:
		return "value"
	case RoleKey:
		return "key"
	case RoleElement:
		return "element"
	default:
		return common.UnknownStr
	}
}

// ValueMapping maps a field value, map key or container element.
type ValueMapping struct {
	Code     typecode.Code
	TypeName string

	// Embedded stores a related class inline instead of by reference.
	Embedded   bool
	Serialized bool
	// ValueMappedBy names the field of the map value that supplies the key.
	ValueMappedBy string

	role  ValueRole
	field *FieldMapping

	related  *ClassMapping
	embedded *ClassMapping

	info    *ValueMappingInfo
	handler ValueHandler

	columns []*schema.Column
	io      ColumnIO
	fk      *schema.ForeignKey
	joinDir JoinDirection
	index   *schema.Index
	unique  *schema.Unique
	nullInd *schema.Column
}

func newValueMapping(fm *FieldMapping, role ValueRole, code typecode.Code) *ValueMapping {
	return &ValueMapping{Code: code, role: role, field: fm, info: &ValueMappingInfo{}}
}

// Repository implements Context.
func (vm *ValueMapping) Repository() *Repository {
	return vm.field.Repository()
}

func (vm *ValueMapping) String() string {
	if vm.role == RoleValue {
		return vm.field.String()
	}

	return vm.field.String() + "<" + vm.role.String() + ">"
}

// Role returns which part of the field this value describes.
func (vm *ValueMapping) Role() ValueRole {
	return vm.role
}

// Field returns the owning field.
func (vm *ValueMapping) Field() *FieldMapping {
	return vm.field
}

// Info returns the raw value mapping info.
func (vm *ValueMapping) Info() *ValueMappingInfo {
	return vm.info
}

// SetRelated declares the persistent class the value refers to.
func (vm *ValueMapping) SetRelated(cm *ClassMapping) {
	vm.related = cm
	vm.embedded = nil
}

// Related returns the related persistent class, or nil.
func (vm *ValueMapping) Related() *ClassMapping {
	return vm.related
}

// IsEmbeddedPC reports whether the value is a persistent class stored inline.
func (vm *ValueMapping) IsEmbeddedPC() bool {
	return vm.Code == typecode.PC && vm.related != nil && (vm.Embedded || vm.related.Embeddable)
}

// EmbeddedMapping returns the per-value copy of the embedded class, creating
// it on first use.
func (vm *ValueMapping) EmbeddedMapping() *ClassMapping {
	if !vm.IsEmbeddedPC() {
		return nil
	}

	if vm.embedded == nil {
		vm.embedded = vm.related.embeddedCopy(vm)
	}

	return vm.embedded
}

// Handler returns the value handler, or nil.
func (vm *ValueMapping) Handler() ValueHandler {
	return vm.handler
}

// SetHandler sets the value handler.
func (vm *ValueMapping) SetHandler(h ValueHandler) {
	vm.handler = h
}

// Columns returns the value columns.
func (vm *ValueMapping) Columns() []*schema.Column {
	return slices.Clone(vm.columns)
}

// SetColumns sets the value columns.
func (vm *ValueMapping) SetColumns(cols []*schema.Column) {
	vm.columns = slices.Clone(cols)
}

// ColumnIO returns the writability of the value columns.
func (vm *ValueMapping) ColumnIO() ColumnIO {
	return vm.io
}

// SetColumnIO sets the writability of the value columns.
func (vm *ValueMapping) SetColumnIO(io ColumnIO) {
	vm.io = io
}

// ForeignKey returns the key joining the value to its related class.
func (vm *ValueMapping) ForeignKey() *schema.ForeignKey {
	return vm.fk
}

// SetForeignKey sets the relation key and takes its local columns as the
// value columns.
func (vm *ValueMapping) SetForeignKey(fk *schema.ForeignKey) {
	vm.fk = fk
	if fk == nil {
		return
	}

	if vm.joinDir == JoinInverse {
		vm.columns = nil
		return
	}

	vm.columns = append(fk.Columns(), fk.ConstantColumns()...)
}

// JoinDirection returns the direction of the relation key.
func (vm *ValueMapping) JoinDirection() JoinDirection {
	return vm.joinDir
}

// SetJoinDirection sets the direction of the relation key.
func (vm *ValueMapping) SetJoinDirection(d JoinDirection) {
	vm.joinDir = d
}

// Index returns the value index, or nil.
func (vm *ValueMapping) Index() *schema.Index {
	return vm.index
}

// Unique returns the value unique constraint, or nil.
func (vm *ValueMapping) Unique() *schema.Unique {
	return vm.unique
}

// isIdentity reports whether the value is a primary key field value.
func (vm *ValueMapping) isIdentity() bool {
	return vm.role == RoleValue && vm.field.PrimaryKey
}

// isMappedBy reports whether the value is mapped by a field of the related
// class rather than by its own columns.
func (vm *ValueMapping) isMappedBy() bool {
	return vm.role != RoleKey && vm.field.MappedBy != ""
}

// NullIndicatorColumn returns the column telling a null embedded value from
// an empty one, or nil.
func (vm *ValueMapping) NullIndicatorColumn() *schema.Column {
	return vm.nullInd
}

// mapConstraints resolves the value's index and unique constraint.
func (vm *ValueMapping) mapConstraints(name string, mode Mode) error {
	var err error

	vm.io = vm.info.ColumnIO()

	if vm.index, err = vm.info.GetIndex(vm, name, vm.columns, mode); err != nil {
		return err
	}

	vm.unique, err = vm.info.GetUnique(vm, name, vm.columns, mode)

	return err
}

func (vm *ValueMapping) copyDeclaration(v *ValueMapping) {
	vm.Code = v.Code
	vm.TypeName = v.TypeName
	vm.Embedded = v.Embedded
	vm.Serialized = v.Serialized
	vm.ValueMappedBy = v.ValueMappedBy
	vm.related = v.related
}

// ValueKind classifies a value for default strategy selection. The set of
// kinds is closed; see KindOf.
type ValueKind interface {
	valueKind()
}

type (
	// PrimitiveKind is a boolean, number, char or temporal value.
	PrimitiveKind struct{ Code typecode.Code }
	// StringKind is a string value.
	StringKind struct{}
	// RelationKind refers to another persistent class. Class is nil for
	// untyped references.
	RelationKind struct{ Class *ClassMapping }
	// EmbeddedKind stores a persistent class inline.
	EmbeddedKind struct{ Class *ClassMapping }
	// CollectionKind is a slice or set of elements.
	CollectionKind struct{ Element *ValueMapping }
	// MapKind is a map of keys to values.
	MapKind struct{ Key, Value *ValueMapping }
	// ArrayKind is a fixed array, including byte and rune slices.
	ArrayKind struct{ Element *ValueMapping }
	// ObjectIDKind is an object id value.
	ObjectIDKind struct{}
	// UnknownKind is anything else, such as streams and opaque objects.
	UnknownKind struct{ Code typecode.Code }
)

func (PrimitiveKind) valueKind()  {}
func (StringKind) valueKind()     {}
func (RelationKind) valueKind()   {}
func (EmbeddedKind) valueKind()   {}
func (CollectionKind) valueKind() {}
func (MapKind) valueKind()        {}
func (ArrayKind) valueKind()      {}
func (ObjectIDKind) valueKind()   {}
func (UnknownKind) valueKind()    {}

// KindOf classifies vm. For the value of a container field the element and
// key mappings of the field are attached to the kind.
func KindOf(vm *ValueMapping) ValueKind {
	switch code := vm.Code; {
	case code == typecode.String:
		return StringKind{}
	case code.IsPrimitive(), code.IsNumeric(), code.IsTemporal(),
		code == typecode.Locale, code == typecode.Enum:
		return PrimitiveKind{Code: code}
	case code == typecode.PC:
		if vm.IsEmbeddedPC() {
			return EmbeddedKind{Class: vm.related}
		}

		return RelationKind{Class: vm.related}
	case code == typecode.PCUntyped:
		return RelationKind{}
	case code == typecode.Collection:
		return CollectionKind{Element: containerPart(vm, RoleElement)}
	case code == typecode.Array:
		return ArrayKind{Element: containerPart(vm, RoleElement)}
	case code == typecode.Map:
		return MapKind{Key: containerPart(vm, RoleKey), Value: containerPart(vm, RoleElement)}
	case code == typecode.OID:
		return ObjectIDKind{}
	default:
		return UnknownKind{Code: code}
	}
}

func containerPart(vm *ValueMapping, role ValueRole) *ValueMapping {
	if vm.role != RoleValue {
		return nil
	}

	if role == RoleKey {
		return vm.field.key
	}

	return vm.field.element
}
