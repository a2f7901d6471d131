package meta

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"relmap/internal/common"
	"relmap/internal/diagnostic"
	"relmap/internal/dict"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// RepositoryConfig configures a Repository. Zero fields get defaults: the
// generic dictionary, native mapping defaults and the built-in registry.
type RepositoryConfig struct {
	Dictionary *dict.Dictionary
	Defaults   MappingDefaults
	Registry   *Registry
	Logger     diagnostic.Logger

	// Group is the schema to resolve against. Without one an empty group
	// is created on first use, consulting Loader for unknown tables.
	Group  *schema.Group
	Loader schema.Loader

	Mode          Mode
	DefaultSchema string
}

// Repository holds the class mappings of one model together with the
// dictionary, defaults and strategy registry used to resolve them.
// Resolution is single threaded; the lazily built schema group and
// installer are guarded so read-mostly use may be shared afterwards.
type Repository struct {
	dict          *dict.Dictionary
	defaults      MappingDefaults
	registry      *Registry
	diags         *diagnostic.Collector
	mode          Mode
	defaultSchema string
	loader        schema.Loader

	groupMu sync.Mutex
	group   *schema.Group

	installerMu sync.Mutex
	installer   StrategyInstaller

	classes []*ClassMapping
	byName  map[string]*ClassMapping
}

// NewRepository creates an empty repository.
func NewRepository(cfg RepositoryConfig) *Repository {
	r := &Repository{
		dict:          cfg.Dictionary,
		defaults:      cfg.Defaults,
		registry:      cfg.Registry,
		diags:         diagnostic.NewCollector(cfg.Logger),
		mode:          cfg.Mode,
		defaultSchema: cfg.DefaultSchema,
		loader:        cfg.Loader,
		group:         cfg.Group,
		byName:        make(map[string]*ClassMapping),
	}

	if r.dict == nil {
		r.dict = dict.Generic()
	}

	if r.defaults == nil {
		r.defaults = NewDefaults()
	}

	if r.registry == nil {
		r.registry = NewRegistry()
	}

	return r
}

// Warn records a non-fatal condition.
func (r *Repository) Warn(code, context, format string, args ...any) {
	r.diags.Warn(code, context, format, args...)
}

// Diagnostics returns everything recorded so far.
func (r *Repository) Diagnostics() diagnostic.Diagnostics {
	return r.diags.Snapshot()
}

// Collector returns the diagnostics collector.
func (r *Repository) Collector() *diagnostic.Collector {
	return r.diags
}

func (r *Repository) Dictionary() *dict.Dictionary { return r.dict }

func (r *Repository) Defaults() MappingDefaults { return r.defaults }

func (r *Repository) Registry() *Registry { return r.registry }

func (r *Repository) Mode() Mode { return r.mode }

// DefaultSchemaName is the schema of tables named without a qualifier.
func (r *Repository) DefaultSchemaName() string {
	return r.defaultSchema
}

// SchemaGroup returns the schema being resolved against, creating an empty
// one on first use.
func (r *Repository) SchemaGroup() *schema.Group {
	r.groupMu.Lock()
	defer r.groupMu.Unlock()

	if r.group == nil {
		r.group = schema.NewGroup()
		if r.loader != nil {
			r.group.SetLoader(r.loader)
		}
	}

	return r.group
}

// SetSchemaGroup replaces the schema group.
func (r *Repository) SetSchemaGroup(g *schema.Group) {
	r.groupMu.Lock()
	defer r.groupMu.Unlock()

	r.group = g
}

// Installer returns the strategy installer for the repository's mode,
// creating it on first use.
func (r *Repository) Installer() StrategyInstaller {
	r.installerMu.Lock()
	defer r.installerMu.Unlock()

	if r.installer == nil {
		if r.mode.Adapt() {
			r.installer = &MappingInstaller{repo: r}
		} else {
			r.installer = &RuntimeInstaller{repo: r, mode: r.mode}
		}
	}

	return r.installer
}

// SetInstaller replaces the strategy installer.
func (r *Repository) SetInstaller(si StrategyInstaller) {
	r.installerMu.Lock()
	defer r.installerMu.Unlock()

	r.installer = si
}

// AddClass adds cm to the catalogue.
func (r *Repository) AddClass(cm *ClassMapping) error {
	if _, ok := r.byName[cm.Name]; ok {
		return metaErr(cm, "dup-class", "class %s is already mapped", cm.Name)
	}

	cm.repo = r
	r.classes = append(r.classes, cm)
	r.byName[cm.Name] = cm

	return nil
}

// Class looks a class up by qualified name, or by unqualified name when
// that is unambiguous.
func (r *Repository) Class(name string) *ClassMapping {
	if cm, ok := r.byName[name]; ok {
		return cm
	}

	var found *ClassMapping

	for _, cm := range r.classes {
		if common.UnqualifiedName(cm.Name) == name {
			if found != nil {
				return nil
			}

			found = cm
		}
	}

	return found
}

// Classes returns the classes in the order they were added.
func (r *Repository) Classes() []*ClassMapping {
	return slices.Clone(r.classes)
}

// ClassNames returns the qualified names of all classes.
func (r *Repository) ClassNames() []string {
	names := make([]string, len(r.classes))
	for i, cm := range r.classes {
		names[i] = cm.Name
	}

	return names
}

// NamedClassStrategy returns the strategy named in the class info, or nil.
func (r *Repository) NamedClassStrategy(cm *ClassMapping) (ClassStrategy, error) {
	if cm.info.Strategy == "" {
		return nil, nil
	}

	return r.registry.newClass(cm, cm.info.Strategy)
}

// DefaultClassStrategy chooses the class strategy when none is named.
func (r *Repository) DefaultClassStrategy(cm *ClassMapping, adapt bool) (ClassStrategy, error) {
	if cm.IsEmbedded() || cm.Embeddable {
		return r.registry.newClass(cm, ClassNone)
	}

	if alias := r.defaults.ClassStrategy(cm, adapt); alias != "" {
		return r.registry.newClass(cm, alias)
	}

	var hierarchy string
	for base := cm; base != nil && hierarchy == ""; base = base.super {
		hierarchy = base.info.HierarchyStrategy
	}

	sup := cm.super

	switch {
	case hierarchy == ClassFull || sup == nil:
		return r.registry.newClass(cm, ClassFull)
	case hierarchy != "":
		return r.registry.newClass(cm, hierarchy)
	case sup.strategy != nil && sup.strategy.Alias() == ClassNone:
		return r.registry.newClass(cm, ClassFull)
	case cm.info.Joined:
		return r.registry.newClass(cm, ClassVertical)
	case cm.info.TableName != "" && !tableMatches(sup.Table(), cm.info.TableName):
		return r.registry.newClass(cm, ClassVertical)
	default:
		return r.registry.newClass(cm, ClassFlat)
	}
}

// NamedFieldStrategy returns the strategy named in the field info, or nil.
// A handler alias selects the handler strategy; with install the handler
// is set on the field value.
func (r *Repository) NamedFieldStrategy(fm *FieldMapping, install bool) (FieldStrategy, error) {
	alias := fm.info.Strategy
	if alias == "" {
		return nil, nil
	}

	if base, _ := splitAlias(alias); r.registry.Has(KindField, base) {
		return r.registry.newField(fm, base)
	}

	if !r.registry.Has(KindHandler, alias) {
		known := append(r.registry.Aliases(KindField), r.registry.Aliases(KindHandler)...)
		return nil, unknownAlias(fm, KindField, alias, known)
	}

	h, err := r.registry.newHandler(fm, alias)
	if err != nil {
		return nil, err
	}

	if install {
		fm.value.handler = h
	}

	return r.registry.newField(fm, FieldHandler)
}

// DefaultFieldStrategy chooses the field strategy when none is named. It
// does not change the field.
func (r *Repository) DefaultFieldStrategy(fm *FieldMapping, adapt bool) (FieldStrategy, error) {
	return r.defaultFieldStrategy(fm, false, adapt)
}

// defaultFieldStrategy tries, in order: a named value handler, the
// strategy mapped by the defaults, the built-in strategy for the value
// kind, the default handler, and finally serialization to a blob.
func (r *Repository) defaultFieldStrategy(fm *FieldMapping, install, adapt bool) (FieldStrategy, error) {
	if !fm.IsPersistent() || fm.VersionField {
		return r.registry.newField(fm, FieldNone)
	}

	if owner := fm.DefiningMapping(); !owner.IsEmbedded() && owner.strategy != nil && owner.strategy.Alias() == ClassNone {
		return r.registry.newField(fm, FieldNone)
	}

	vm := fm.value

	h, err := r.NamedHandler(vm)
	if err != nil {
		return nil, err
	}

	if h != nil {
		return r.handlerStrategy(fm, h, install)
	}

	if alias := r.defaults.FieldStrategy(vm, adapt); alias != "" {
		if r.registry.Has(KindField, alias) {
			return r.registry.newField(fm, alias)
		}

		if h, err = r.registry.newHandler(fm, alias); err != nil {
			return nil, err
		}

		return r.handlerStrategy(fm, h, install)
	}

	if !vm.Serialized {
		alias, err := r.typeStrategy(fm, install)
		if err != nil {
			return nil, err
		}

		if alias != "" {
			return r.registry.newField(fm, alias)
		}
	}

	if h = r.DefaultHandler(vm); h != nil {
		return r.handlerStrategy(fm, h, install)
	}

	if install {
		warn(fm, "no-field-strategy", "no strategy maps values of type %s; storing them serialized", typeLabel(vm))
		vm.Serialized = true
	}

	h, err = r.registry.newHandler(fm, HandlerBlob)
	if err != nil {
		return nil, err
	}

	return r.handlerStrategy(fm, h, install)
}

func (r *Repository) handlerStrategy(fm *FieldMapping, h ValueHandler, install bool) (FieldStrategy, error) {
	if install {
		fm.value.handler = h
	}

	return r.registry.newField(fm, FieldHandler)
}

func typeLabel(vm *ValueMapping) string {
	if vm.TypeName != "" {
		return vm.TypeName
	}

	return vm.Code.String()
}

// typeStrategy returns the alias of the built-in strategy for the field's
// value kind, or "" when the kind has none. Element and key handlers are
// installed with install.
func (r *Repository) typeStrategy(fm *FieldMapping, install bool) (string, error) {
	switch k := KindOf(fm.value).(type) {
	case PrimitiveKind:
		if k.Code.IsPrimitive() {
			return FieldPrimitive, nil
		}
	case StringKind:
		if !fm.LOB && !r.IsClob(fm.value, false) {
			return FieldString, nil
		}
	case RelationKind:
		if k.Class != nil {
			return FieldRelation, nil
		}
	case EmbeddedKind:
		return FieldEmbed, nil
	case CollectionKind:
		return r.collectionStrategy(fm, k.Element, install)
	case ArrayKind:
		if isByteOrCharArray(fm.value) {
			return "", nil
		}

		return r.collectionStrategy(fm, k.Element, install)
	case MapKind:
		return r.mapStrategy(fm, k.Key, k.Value, install)
	case ObjectIDKind:
	case UnknownKind:
		if k.Code == typecode.InputStream || k.Code == typecode.InputReader {
			return FieldLOB, nil
		}
	}

	return "", nil
}

// elementHandler returns the named or default handler of a container part.
func (r *Repository) elementHandler(vm *ValueMapping, install bool) (ValueHandler, error) {
	h, err := r.NamedHandler(vm)
	if err != nil {
		return nil, err
	}

	if h == nil {
		h = r.DefaultHandler(vm)
	}

	if h != nil && install {
		vm.handler = h
	}

	return h, nil
}

func isRelation(vm *ValueMapping) bool {
	return vm.Code == typecode.PC && vm.related != nil && !vm.Serialized && !vm.IsEmbeddedPC()
}

func (r *Repository) collectionStrategy(fm *FieldMapping, elem *ValueMapping, install bool) (string, error) {
	if elem == nil {
		return "", nil
	}

	h, err := r.elementHandler(elem, install)
	if err != nil {
		return "", err
	}

	switch {
	case h != nil:
		return FieldHandlerCollectionTable, nil
	case isRelation(elem):
		inverse, err := r.useInverseKey(fm)
		if err != nil {
			return "", err
		}

		if inverse {
			return FieldRelationCollectionInverseKey, nil
		}

		return FieldRelationCollectionTable, nil
	default:
		return "", nil
	}
}

func (r *Repository) mapStrategy(fm *FieldMapping, key, val *ValueMapping, install bool) (string, error) {
	if key == nil || val == nil {
		return "", nil
	}

	kh, err := r.elementHandler(key, install)
	if err != nil {
		return "", err
	}

	vh, err := r.elementHandler(val, install)
	if err != nil {
		return "", err
	}

	krel := kh == nil && isRelation(key)
	vrel := vh == nil && isRelation(val)

	if vrel && key.ValueMappedBy != "" {
		inverse, err := r.useInverseKey(fm)
		if err != nil {
			return "", err
		}

		if inverse {
			return FieldRelationMapInverseKey, nil
		}

		return FieldRelationMapTable, nil
	}

	switch {
	case kh != nil && vh != nil:
		return FieldHandlerHandlerMapTable, nil
	case kh != nil && vrel:
		return FieldHandlerRelationMapTable, nil
	case krel && vh != nil:
		return FieldRelationHandlerMapTable, nil
	case krel && vrel:
		return FieldRelationRelationMapTable, nil
	default:
		return "", nil
	}
}

// useInverseKey reports whether a relation container is stored through a
// foreign key in the related table, as it is when the owning side is a
// single-valued relation.
func (r *Repository) useInverseKey(fm *FieldMapping) (bool, error) {
	if fm.MappedBy == "" {
		return false, nil
	}

	mb := fm.MappedByField()
	if mb == nil {
		var rel *ClassMapping
		if fm.element != nil {
			rel = fm.element.related
		}

		return false, metaErr(fm, "bad-mapped-by", "mapped-by field %q does not exist", fm.MappedBy).
			WithSuggestions(suggestField(rel, fm.MappedBy)...)
	}

	switch {
	case mb.Code == typecode.PC:
		return true, nil
	case mb.element != nil && mb.element.Code == typecode.PC:
		return false, nil
	default:
		return false, metaErr(fm, "bad-mapped-by", "mapped-by field %s is not a relation", mb)
	}
}

func isByteOrCharArray(vm *ValueMapping) bool {
	el := containerPart(vm, RoleElement)
	if el == nil {
		return false
	}

	switch el.Code {
	case typecode.Byte, typecode.ByteObj, typecode.Char, typecode.CharObj:
		return true
	default:
		return false
	}
}

// NamedHandler returns the handler named in the value info, or nil.
func (r *Repository) NamedHandler(vm *ValueMapping) (ValueHandler, error) {
	if vm.info.Strategy == "" {
		return nil, nil
	}

	return r.registry.newHandler(vm, vm.info.Strategy)
}

// DefaultHandler chooses the value handler for vm when none is named, or
// returns nil when the value needs a dedicated strategy.
func (r *Repository) DefaultHandler(vm *ValueMapping) ValueHandler {
	alias := r.defaultHandlerAlias(vm)
	if alias == "" {
		return nil
	}

	h, err := r.registry.newHandler(vm, alias)
	if err != nil {
		warn(vm, diagnostic.CodeOf(err), "%v", err)
		return nil
	}

	return h
}

func (r *Repository) defaultHandlerAlias(vm *ValueMapping) string {
	if vm.Serialized {
		return HandlerBlob
	}

	if alias := r.defaults.FieldStrategy(vm, r.mode.Adapt()); alias != "" && r.registry.Has(KindHandler, alias) {
		return alias
	}

	lob := vm.role == RoleValue && vm.field.LOB

	switch k := KindOf(vm).(type) {
	case PrimitiveKind:
		if k.Code == typecode.Enum {
			return HandlerEnum
		}

		return HandlerImmutable
	case StringKind:
		if lob || r.IsClob(vm, true) {
			return HandlerClob
		}

		return HandlerImmutable
	case RelationKind:
		if k.Class == nil {
			return HandlerUntypedPC
		}
	case ObjectIDKind:
		return HandlerObjectID
	case ArrayKind, CollectionKind:
		el := containerPart(vm, RoleElement)
		if el == nil {
			return ""
		}

		switch el.Code {
		case typecode.Byte, typecode.ByteObj:
			if lob {
				return HandlerBlob
			}

			return HandlerByteArray
		case typecode.Char, typecode.CharObj:
			if lob || r.IsClob(vm, true) {
				return HandlerClob
			}

			return HandlerCharArray
		}
	case EmbeddedKind, MapKind, UnknownKind:
	}

	return ""
}

// IsClob reports whether the single declared column of vm asks for
// character large-object storage.
func (r *Repository) IsClob(vm *ValueMapping, warnIfLimited bool) bool {
	cols := vm.info.Columns
	if len(cols) != 1 {
		return false
	}

	col := cols[0]
	if col.Size != -1 && col.Type != schema.Clob {
		return false
	}

	if r.dict.PreferredType(schema.Clob) != schema.Clob {
		if warnIfLimited {
			warn(vm, "clob-unsupported", "dictionary %s stores CLOB values as %s", r.dict.Name, r.dict.PreferredType(schema.Clob))
		}

		return false
	}

	return true
}

// NamedVersionStrategy returns the strategy named in the version info, or
// nil.
func (r *Repository) NamedVersionStrategy(v *Version) (VersionStrategy, error) {
	if v.info.Strategy == "" {
		return nil, nil
	}

	return r.registry.newVersion(v, v.info.Strategy)
}

// DefaultVersionStrategy defers to the superclass when one has storage,
// picks the strategy from the type of a version field declared on the
// class, and otherwise asks the defaults.
func (r *Repository) DefaultVersionStrategy(v *Version, adapt bool) (VersionStrategy, error) {
	cls := v.cls
	vf := cls.VersionField()

	if cls.IsEmbedded() || (cls.JoinableSuperclass() != nil && (vf == nil || vf.owner != cls)) {
		return r.registry.newVersion(v, VersionSuperclass)
	}

	if vf != nil {
		switch code := vf.Code; {
		case code.IsTemporal():
			return r.registry.newVersion(v, VersionTimestamp)
		case code.IsInteger() || code == typecode.Number:
			return r.registry.newVersion(v, VersionNumber)
		default:
			return nil, metaErr(v, "version-type-unsupported", "version field %s of type %s cannot hold a version", vf.Name, typeLabel(vf.value))
		}
	}

	if alias := r.defaults.VersionStrategy(v, adapt); alias != "" {
		return r.registry.newVersion(v, alias)
	}

	return r.registry.newVersion(v, VersionNone)
}

// NamedDiscriminatorStrategy returns the strategy named in the
// discriminator info, or nil.
func (r *Repository) NamedDiscriminatorStrategy(d *Discriminator) (DiscriminatorStrategy, error) {
	if d.info.Strategy == "" {
		return nil, nil
	}

	return r.registry.newDiscriminator(d, d.info.Strategy)
}

// DefaultDiscriminatorStrategy chooses the discriminator strategy when none
// is named.
func (r *Repository) DefaultDiscriminatorStrategy(d *Discriminator, adapt bool) (DiscriminatorStrategy, error) {
	cls := d.cls

	if cls.IsEmbedded() {
		return r.registry.newDiscriminator(d, DiscriminatorNone)
	}

	if cls.JoinableSuperclass() != nil {
		return r.registry.newDiscriminator(d, DiscriminatorSuperclass)
	}

	if (cls.strategy != nil && cls.strategy.Alias() == ClassNone) || cls.Final {
		return r.registry.newDiscriminator(d, DiscriminatorNone)
	}

	if alias := r.defaults.DiscriminatorStrategy(d, adapt); alias != "" {
		return r.registry.newDiscriminator(d, alias)
	}

	switch {
	case d.info.Value != "":
		return r.registry.newDiscriminator(d, DiscriminatorValueMap)
	case len(d.info.Columns) > 0 || ((adapt || r.defaults.DefaultMissingInfo()) && len(cls.subs) > 0):
		return r.registry.newDiscriminator(d, DiscriminatorClassName)
	default:
		return r.registry.newDiscriminator(d, DiscriminatorNone)
	}
}

// ensureFieldResolved installs the strategy of a field needed while
// resolving another mapping, such as the target of a join column.
func (r *Repository) ensureFieldResolved(fm *FieldMapping) error {
	if fm.state == resolved {
		return nil
	}

	if fm.state == resolving {
		return metaErr(fm, "resolve-cycle", "field mapping depends on itself")
	}

	if err := r.ensureClassResolved(fm.owner); err != nil {
		return err
	}

	return r.Installer().InstallField(fm)
}

func (r *Repository) ensureClassResolved(cm *ClassMapping) error {
	if cm.state == resolved {
		return nil
	}

	if cm.state == resolving {
		return metaErr(cm, "resolve-cycle", "class mapping depends on itself")
	}

	if cm.super != nil {
		if err := r.ensureClassResolved(cm.super); err != nil {
			return err
		}
	}

	if err := r.Installer().InstallClass(cm); err != nil {
		return err
	}

	for _, f := range cm.fields {
		if f.PrimaryKey {
			if err := r.ensureFieldResolved(f); err != nil {
				return err
			}
		}
	}

	return nil
}

// ResolveAll resolves every class in two passes: first class strategies
// and primary key fields, so that relations can find their targets, then
// the remaining fields, versions and discriminators. Every error is
// recorded; the first is returned.
func (r *Repository) ResolveAll() error {
	var first error

	record := func(err error) {
		if err == nil {
			return
		}

		r.diags.Error(err)

		if first == nil {
			first = err
		}
	}

	for _, cm := range r.classes {
		if err := cm.info.Validate(cm); err != nil {
			record(err)
			continue
		}

		record(r.ensureClassResolved(cm))
	}

	for _, cm := range r.classes {
		if cm.state != resolved {
			continue
		}

		for _, f := range cm.fields {
			if err := f.info.Validate(f); err != nil {
				record(err)
				continue
			}

			record(r.ensureFieldResolved(f))
		}

		record(r.Installer().InstallVersion(cm.version))
		record(r.Installer().InstallDiscriminator(cm.disc))
	}

	return first
}

// Resolve resolves a single class and its fields.
func (r *Repository) Resolve(cm *ClassMapping) error {
	if err := r.ensureClassResolved(cm); err != nil {
		return err
	}

	for _, f := range cm.fields {
		if err := r.ensureFieldResolved(f); err != nil {
			return err
		}
	}

	if err := r.Installer().InstallVersion(cm.version); err != nil {
		return err
	}

	return r.Installer().InstallDiscriminator(cm.disc)
}

// SyncAll rewrites every mapping info to the minimal form resolving to the
// current mappings.
func (r *Repository) SyncAll() {
	for _, cm := range r.classes {
		if cm.state != resolved {
			continue
		}

		cm.SyncMappingInfo()
	}
}

// Describe summarizes the repository for logs.
func (r *Repository) Describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d classes, dictionary %s, mode %s", len(r.classes), r.dict.Name, r.mode)

	return b.String()
}
