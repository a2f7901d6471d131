package analyze

import (
	"go/types"
	"slices"

	"relmap/internal/diagnostic"
	"relmap/internal/logger"
	"relmap/internal/meta"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// externalCodes maps well-known types from packages outside the analyzed
// set to their type codes.
var externalCodes = map[string]typecode.Code{
	"time.Time":                      typecode.Date,
	"time.Duration":                  typecode.Long,
	"math/big.Int":                   typecode.BigInteger,
	"math/big.Rat":                   typecode.BigDecimal,
	"math/big.Float":                 typecode.BigDecimal,
	"golang.org/x/text/language.Tag": typecode.Locale,
	"io.Reader":                      typecode.InputStream,
	"io.ReadCloser":                  typecode.InputStream,
	"encoding/json.RawMessage":       typecode.String,
	"database/sql.NullString":        typecode.String,
	"database/sql.NullInt64":         typecode.LongObj,
	"database/sql.NullBool":          typecode.BooleanObj,
	"database/sql.NullTime":          typecode.Date,
	"database/sql.NullFloat64":       typecode.DoubleObj,
}

// ClassBuilder turns the structs of a type graph into class mappings.
//
// A struct is an entity when it has a field tagged `relmap:"id"` or
// anonymously embeds an entity, which then becomes its superclass. Other
// structs embedded anonymously are flattened into the embedding class.
// Non-entity structs held in fields become embeddable classes.
type ClassBuilder struct {
	graph    *TypeGraph
	stringer *TypeStringer

	entities map[TypeID]bool
	classes  map[TypeID]*meta.ClassMapping
	order    []TypeID
	diags    diagnostic.Diagnostics
}

// NewClassBuilder creates a builder over graph.
func NewClassBuilder(graph *TypeGraph) *ClassBuilder {
	return &ClassBuilder{
		graph:    graph,
		stringer: NewTypeStringer(),
		entities: make(map[TypeID]bool),
		classes:  make(map[TypeID]*meta.ClassMapping),
	}
}

// BuildClasses maps every entity of graph, and every struct the entities
// hold by value, into repo.
func BuildClasses(graph *TypeGraph, repo *meta.Repository) diagnostic.Diagnostics {
	return NewClassBuilder(graph).Build(repo)
}

// Build adds the class mappings to repo in a stable order: packages by
// import path, types by name, embeddables after the classes that first
// reach them.
func (b *ClassBuilder) Build(repo *meta.Repository) diagnostic.Diagnostics {
	paths := make([]string, 0, len(b.graph.Packages))
	for p := range b.graph.Packages {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	for _, p := range paths {
		for _, id := range b.graph.Packages[p].Types {
			if t := b.graph.GetType(id); b.isEntity(t) {
				b.class(t, false)
			}
		}
	}

	// populate appends embeddables to b.order as it finds them.
	for i := 0; i < len(b.order); i++ {
		b.populate(b.order[i])
	}

	for _, id := range b.order {
		cm := b.classes[id]
		if err := repo.AddClass(cm); err != nil {
			b.diags.AddErr(err)
			continue
		}

		logger.Debugf("analyze: mapped %s with %d fields", cm.Name, len(cm.DeclaredFields()))
	}

	return b.diags
}

// Class returns the class built for id, or nil.
func (b *ClassBuilder) Class(id TypeID) *meta.ClassMapping {
	return b.classes[id]
}

// ClassName returns the mapping name of a type: package name and type name.
func (b *ClassBuilder) ClassName(id TypeID) string {
	if pkg, ok := b.graph.Packages[id.PkgPath]; ok && pkg.Name != "" {
		return pkg.Name + "." + id.Name
	}

	return b.stringer.QualifiedName(id)
}

func (b *ClassBuilder) isEntity(t *TypeInfo) bool {
	if t == nil || t.Kind != TypeKindStruct || !t.IsNamed() {
		return false
	}

	if v, ok := b.entities[t.ID]; ok {
		return v
	}

	b.entities[t.ID] = false

	for _, f := range t.Fields {
		opts, err := ParseTag(f.GetTag(TagKey), "")
		if err != nil || opts.Skip {
			continue
		}

		if opts.ID || (f.Embedded && b.isEntity(f.Type.Deref())) {
			b.entities[t.ID] = true
			return true
		}
	}

	return false
}

func (b *ClassBuilder) class(t *TypeInfo, embeddable bool) *meta.ClassMapping {
	if cm, ok := b.classes[t.ID]; ok {
		return cm
	}

	cm := meta.NewClassMapping(b.ClassName(t.ID))
	if embeddable {
		cm.Embeddable = true
		cm.Identity = meta.IdentityUnknown
	}

	b.classes[t.ID] = cm
	b.order = append(b.order, t.ID)

	return cm
}

func (b *ClassBuilder) populate(id TypeID) {
	cm := b.classes[id]
	t := b.graph.GetType(id)

	b.addFields(cm, t, NewTypePath(cm.Name), nil)
}

// addFields adds the fields of t to cm. Names in shadow belong to an
// outer struct and hide the fields of flattened embeds.
func (b *ClassBuilder) addFields(cm *meta.ClassMapping, t *TypeInfo, path *TypePath, shadow map[string]bool) {
	outer := make(map[string]bool, len(shadow)+len(t.Fields))
	for k := range shadow {
		outer[k] = true
	}

	for _, f := range t.Fields {
		if !f.Embedded {
			outer[f.Name] = true
		}
	}

	for _, f := range t.Fields {
		if shadow[f.Name] {
			continue
		}

		fpath := path.Field(f.Name)

		opts, err := ParseTag(f.GetTag(TagKey), fpath.String())
		if err != nil {
			b.diags.AddErr(err)
			continue
		}

		if opts.Skip {
			continue
		}

		if f.Embedded {
			if inner := f.Type.Deref(); inner.Kind == TypeKindStruct && inner.IsNamed() {
				if b.isEntity(inner) && !cm.Embeddable {
					b.extend(cm, inner, fpath)
				} else {
					b.addFields(cm, inner, path, outer)
				}

				continue
			}
		}

		b.addField(cm, f, opts, fpath)
	}
}

func (b *ClassBuilder) extend(cm *meta.ClassMapping, sup *TypeInfo, path *TypePath) {
	if cur := cm.Superclass(); cur != nil {
		b.diags.AddError("multiple-superclasses",
			"a class can extend one entity; "+b.ClassName(sup.ID)+" is embedded next to "+cur.Name,
			path.String(), "")

		return
	}

	cm.SetSuperclass(b.class(sup, false))
}

func (b *ClassBuilder) addField(cm *meta.ClassMapping, f FieldInfo, opts Options, path *TypePath) {
	code := b.codeOf(f.Type, opts)
	if code == typecode.Object && f.Type.Deref().Kind == TypeKindUnknown {
		b.diags.AddWarning("unpersistable-field", "field type "+b.stringer.TypeString(f.Type)+" cannot be stored",
			path.String(), "")

		return
	}

	fm := cm.AddField(f.Name, code)
	fm.TypeName = b.stringer.TypeString(f.Type)
	fm.PrimaryKey = opts.ID
	fm.AutoAssign = opts.Auto && opts.ID
	fm.VersionField = opts.Version
	fm.MappedBy = opts.MappedBy
	fm.Ordered = opts.Ordered
	fm.OrderBy = opts.OrderBy
	fm.LOB = opts.LOB
	fm.Info().Strategy = opts.Strategy

	vm := fm.Value()
	vm.TypeName = fm.TypeName
	vm.Serialized = opts.Serialized

	if opts.Column != "" {
		vm.Info().Columns = []*schema.Column{schema.NewColumn(opts.Column, code)}
	}

	u := b.unwrap(f.Type.Deref())

	switch code {
	case typecode.PC:
		b.relate(vm, u, opts)

	case typecode.Enum:
		fm.EnumValues = enumValues(u)

	case typecode.Array, typecode.Collection:
		b.element(fm.SetElement, u.ElemType, opts)

	case typecode.Map:
		b.element(fm.SetKey, u.KeyType, Options{})
		b.element(fm.SetElement, u.ElemType, opts)
	}
}

// element declares a container part of type t through set.
func (b *ClassBuilder) element(set func(typecode.Code, string) *meta.ValueMapping, t *TypeInfo, opts Options) {
	if t == nil {
		return
	}

	vm := set(b.codeOf(t, Options{Untyped: opts.Untyped}), b.stringer.TypeString(t))
	if vm.Code == typecode.PC {
		b.relate(vm, b.unwrap(t.Deref()), opts)
	}
}

func (b *ClassBuilder) relate(vm *meta.ValueMapping, t *TypeInfo, opts Options) {
	if t.Kind != TypeKindStruct || !t.IsNamed() {
		return
	}

	if b.isEntity(t) {
		vm.SetRelated(b.class(t, false))
		vm.Embedded = opts.Embedded

		return
	}

	vm.SetRelated(b.class(t, true))
}

// unwrap follows named non-enum types to the type they wrap.
func (b *ClassBuilder) unwrap(t *TypeInfo) *TypeInfo {
	for t != nil && t.Kind == TypeKindAlias && !t.IsEnum() && t.Underlying != nil {
		t = t.Underlying
	}

	return t
}

// codeOf classifies t. Pointers to scalars take the nullable codes.
func (b *ClassBuilder) codeOf(t *TypeInfo, opts Options) typecode.Code {
	if opts.OID {
		return typecode.OID
	}

	code := b.baseCode(t.Deref(), opts)
	if t.Kind == TypeKindPointer {
		code = code.Boxed()
	}

	return code
}

func (b *ClassBuilder) baseCode(t *TypeInfo, opts Options) typecode.Code {
	switch t.Kind {
	case TypeKindBasic:
		return basicCode(t.GoType)

	case TypeKindAlias:
		if t.IsEnum() {
			return typecode.Enum
		}

		return b.baseCode(t.Underlying, opts)

	case TypeKindStruct:
		if t.IsNamed() {
			return typecode.PC
		}

		return typecode.Object

	case TypeKindExternal:
		if code, ok := externalCodes[t.ID.String()]; ok {
			return code
		}

		return typecode.Object

	case TypeKindSlice:
		if e := t.ElemType; e != nil && e.Kind == TypeKindBasic && basicCode(e.GoType) == typecode.Byte {
			return typecode.Array
		}

		return typecode.Collection

	case TypeKindArray:
		return typecode.Array

	case TypeKindMap:
		return typecode.Map

	case TypeKindInterface:
		if opts.Untyped {
			return typecode.PCUntyped
		}

		return typecode.Object

	default:
		return typecode.Object
	}
}

func basicCode(t types.Type) typecode.Code {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return typecode.Object
	}

	switch basic.Kind() {
	case types.Bool:
		return typecode.Boolean
	case types.Int8, types.Uint8:
		return typecode.Byte
	case types.Int16, types.Uint16:
		return typecode.Short
	case types.Int32, types.Uint32:
		return typecode.Int
	case types.Int, types.Int64, types.Uint, types.Uint64, types.Uintptr:
		return typecode.Long
	case types.Float32:
		return typecode.Float
	case types.Float64:
		return typecode.Double
	case types.String:
		return typecode.String
	default:
		return typecode.Object
	}
}

// enumValues lists the stored names of an enum: the constant values of a
// string enum, the constant names otherwise.
func enumValues(t *TypeInfo) []string {
	if t.Underlying != nil && basicCode(t.Underlying.GoType) == typecode.String {
		return slices.Clone(t.ConstValues)
	}

	return slices.Clone(t.Constants)
}
