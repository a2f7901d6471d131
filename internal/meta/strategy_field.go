package meta

import (
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// columnBase is the default column name stem of fm. Fields of embedded
// values are prefixed with the stem of the embedding field so that two
// embeddings of one class do not share columns.
func columnBase(fm *FieldMapping) string {
	if ev := fm.owner.embeddedBy; ev != nil {
		return columnBase(ev.field) + "_" + fm.Name
	}

	return fm.Name
}

// resetValue drops the mapping results of vm.
func resetValue(vm *ValueMapping) {
	if vm == nil {
		return
	}

	vm.columns = nil
	vm.fk = nil
	vm.joinDir = JoinNone
	vm.index = nil
	vm.unique = nil
	vm.nullInd = nil
	vm.io = ColumnIO{}
}

type noneFieldStrategy struct {
	fm *FieldMapping
}

func (s *noneFieldStrategy) Alias() string { return FieldNone }

func (s *noneFieldStrategy) Map(mode Mode) error {
	fm := s.fm

	fm.table = nil
	fm.joinFK = nil
	fm.orderCol = nil

	for _, vm := range []*ValueMapping{fm.value, fm.key, fm.element} {
		resetValue(vm)
	}

	if !fm.IsPersistent() || fm.VersionField {
		return nil
	}

	if err := fm.info.AssertNoSchemaComponents(fm, false); err != nil {
		return err
	}

	return fm.value.info.AssertNoSchemaComponents(fm.value, false)
}

// scalarFieldStrategy stores primitives and strings in one column of the
// field's table.
type scalarFieldStrategy struct {
	fm    *FieldMapping
	alias string
}

func (s *scalarFieldStrategy) Alias() string { return s.alias }

func (s *scalarFieldStrategy) Map(mode Mode) error {
	fm, vm := s.fm, s.fm.value

	code := fm.Code
	switch {
	case s.alias == FieldString:
		code = typecode.String
	case !code.IsPrimitive():
		return metaErr(fm, "primitive-type", "type %s is not a primitive", typeLabel(vm))
	}

	if err := fm.mapJoin(mode, false); err != nil {
		return err
	}

	vm.handler = nil

	if err := mapValueColumns(vm, columnBase(fm), []*schema.Column{valueTemplate(vm, code)}, ColumnIO{}, fm.Table(), mode); err != nil {
		return err
	}

	fm.mapPrimaryKey(mode)

	return nil
}

// handlerFieldStrategy stores the value through its value handler.
type handlerFieldStrategy struct {
	fm *FieldMapping
}

func (s *handlerFieldStrategy) Alias() string { return FieldHandler }

func (s *handlerFieldStrategy) Map(mode Mode) error {
	fm := s.fm

	if err := ensureHandler(fm.value); err != nil {
		return err
	}

	if err := fm.mapJoin(mode, false); err != nil {
		return err
	}

	if err := mapHandler(fm.value, columnBase(fm), fm.Table(), mode); err != nil {
		return err
	}

	fm.mapPrimaryKey(mode)

	return nil
}

// lobFieldStrategy streams the value into a large object column.
type lobFieldStrategy struct {
	fm *FieldMapping
}

func (s *lobFieldStrategy) Alias() string { return FieldLOB }

func (s *lobFieldStrategy) Map(mode Mode) error {
	fm, vm := s.fm, s.fm.value

	if err := vm.info.AssertNoIndex(vm, !mode.Adapt()); err != nil {
		return err
	}

	if err := fm.mapJoin(mode, false); err != nil {
		return err
	}

	vm.handler = nil
	tmpl := &schema.Column{JavaType: fm.Code, Size: -1}

	return mapValueColumns(vm, columnBase(fm), []*schema.Column{tmpl}, ColumnIO{}, fm.Table(), mode)
}

// relationFieldStrategy stores a reference to another class as a foreign
// key, or reads it through the key of the mapped-by field.
type relationFieldStrategy struct {
	fm *FieldMapping
}

func (s *relationFieldStrategy) Alias() string { return FieldRelation }

func (s *relationFieldStrategy) Map(mode Mode) error {
	fm, vm := s.fm, s.fm.value

	rel := vm.related
	if rel == nil {
		return metaErr(fm, "relation-no-class", "relation of type %s has no mapped class", typeLabel(vm))
	}

	repo := fm.Repository()

	if err := repo.ensureClassResolved(rel); err != nil {
		return err
	}

	vm.handler = nil

	if fm.MappedBy != "" {
		return s.mapInverse(mode)
	}

	if err := fm.mapJoin(mode, false); err != nil {
		return err
	}

	name := columnBase(fm)

	fk, err := vm.info.GetTypeJoin(vm, name, true, mode)
	if err != nil {
		return err
	}

	vm.joinDir = vm.info.JoinDirection
	vm.SetForeignKey(fk)

	if err := vm.mapConstraints(name, mode); err != nil {
		return err
	}

	fm.mapPrimaryKey(mode)

	return nil
}

func (s *relationFieldStrategy) mapInverse(mode Mode) error {
	fm, vm := s.fm, s.fm.value

	mb, err := mappedByField(fm, vm.related)
	if err != nil {
		return err
	}

	fk := mb.ForeignKey()
	if fk == nil || mb.value.joinDir == JoinInverse {
		return metaErr(fm, "mapped-by-no-fk", "mapped-by field %s does not own a foreign key", mb)
	}

	if err := fm.info.AssertNoSchemaComponents(fm, !mode.Adapt()); err != nil {
		return err
	}

	if err := vm.info.AssertNoSchemaComponents(vm, !mode.Adapt()); err != nil {
		return err
	}

	resetValue(vm)
	vm.joinDir = JoinInverse
	vm.SetForeignKey(fk)

	return nil
}

// mappedByField resolves the owning side of a bidirectional relation.
func mappedByField(fm *FieldMapping, rel *ClassMapping) (*FieldMapping, error) {
	mb := fm.MappedByField()
	if mb == nil {
		return nil, metaErr(fm, "bad-mapped-by", "mapped-by field %q does not exist", fm.MappedBy).
			WithSuggestions(suggestField(rel, fm.MappedBy)...)
	}

	if err := fm.Repository().ensureFieldResolved(mb); err != nil {
		return nil, err
	}

	return mb, nil
}

// embedFieldStrategy stores the fields of an embedded value in the
// embedding field's table.
type embedFieldStrategy struct {
	fm *FieldMapping
}

func (s *embedFieldStrategy) Alias() string { return FieldEmbed }

func (s *embedFieldStrategy) Map(mode Mode) error {
	fm, vm := s.fm, s.fm.value

	emb := vm.EmbeddedMapping()
	if emb == nil {
		return metaErr(fm, "embed-not-embeddable", "type %s cannot be embedded", typeLabel(vm))
	}

	if err := vm.info.AssertNoForeignKey(vm, !mode.Adapt()); err != nil {
		return err
	}

	if err := fm.mapJoin(mode, false); err != nil {
		return err
	}

	vm.handler = nil
	resetValue(vm)

	ni, err := vm.info.GetNullIndicatorColumn(vm, columnBase(fm), fm.Table(), mode)
	if err != nil {
		return err
	}

	vm.nullInd = ni
	vm.io = vm.info.ColumnIO()

	installer := fm.Repository().Installer()

	if err := installer.InstallClass(emb); err != nil {
		return err
	}

	for _, f := range emb.fields {
		if err := installer.InstallField(f); err != nil {
			return err
		}

		if fm.PrimaryKey {
			addToPrimaryKey(fm.Table(), f.Columns(), mode)
		}
	}

	return nil
}

// mapContainerPart maps a key or element stored in the field's join table,
// through a handler or as a relation.
func mapContainerPart(vm *ValueMapping, name string, relation bool, mode Mode) error {
	if !relation {
		if err := ensureHandler(vm); err != nil {
			return err
		}

		return mapHandler(vm, name, vm.field.Table(), mode)
	}

	rel := vm.related
	if rel == nil {
		return metaErr(vm, "relation-no-class", "relation of type %s has no mapped class", typeLabel(vm))
	}

	if err := vm.Repository().ensureClassResolved(rel); err != nil {
		return err
	}

	vm.handler = nil

	fk, err := vm.info.GetTypeJoin(vm, name, false, mode)
	if err != nil {
		return err
	}

	vm.joinDir = JoinForward
	vm.SetForeignKey(fk)

	return vm.mapConstraints(name, mode)
}

// collectionTableStrategy stores collection elements in a join table.
type collectionTableStrategy struct {
	fm       *FieldMapping
	alias    string
	relation bool
}

func (s *collectionTableStrategy) Alias() string { return s.alias }

func (s *collectionTableStrategy) Map(mode Mode) error {
	fm := s.fm

	el := fm.element
	if el == nil {
		return metaErr(fm, "no-element", "field has no element type")
	}

	if err := fm.value.info.AssertNoSchemaComponents(fm.value, !mode.Adapt()); err != nil {
		return err
	}

	if s.relation && fm.MappedBy != "" {
		return s.mapShared(mode)
	}

	if err := fm.mapJoin(mode, true); err != nil {
		return err
	}

	if err := fm.mapOrderColumn(mode); err != nil {
		return err
	}

	return mapContainerPart(el, columnBase(fm), s.relation, mode)
}

// mapShared maps the inverse side of a many-to-many relation onto the join
// table of the mapped-by field, with the two keys swapped.
func (s *collectionTableStrategy) mapShared(mode Mode) error {
	fm, el := s.fm, s.fm.element

	if el.related == nil {
		return metaErr(fm, "relation-no-class", "relation of type %s has no mapped class", typeLabel(el))
	}

	if err := fm.Repository().ensureClassResolved(el.related); err != nil {
		return err
	}

	mb, err := mappedByField(fm, el.related)
	if err != nil {
		return err
	}

	if mb.element == nil || mb.joinFK == nil || mb.element.fk == nil {
		return metaErr(fm, "mapped-by-no-join", "mapped-by field %s has no join table", mb)
	}

	if err := fm.info.AssertNoSchemaComponents(fm, !mode.Adapt()); err != nil {
		return err
	}

	fm.table = mb.table
	fm.joinFK = mb.element.fk
	fm.joinIO = mb.element.io
	fm.joinIndex = nil
	fm.joinUnique = nil

	resetValue(el)
	el.handler = nil
	el.joinDir = JoinForward
	el.SetForeignKey(mb.joinFK)
	el.io = mb.joinIO

	return fm.mapOrderColumn(mode)
}

// inverseKeyStrategy stores related elements by a foreign key in the
// element table pointing back at the owner. Maps take their key from a
// field of the element.
type inverseKeyStrategy struct {
	fm    *FieldMapping
	alias string
}

func (s *inverseKeyStrategy) Alias() string { return s.alias }

func (s *inverseKeyStrategy) Map(mode Mode) error {
	fm := s.fm

	el := fm.element
	if el == nil || el.related == nil {
		return metaErr(fm, "no-element", "inverse key needs a related element class")
	}

	rel := el.related
	repo := fm.Repository()

	if err := repo.ensureClassResolved(rel); err != nil {
		return err
	}

	if err := fm.value.info.AssertNoSchemaComponents(fm.value, !mode.Adapt()); err != nil {
		return err
	}

	if err := checkMapKey(fm); err != nil {
		return err
	}

	if fm.MappedBy != "" {
		mb, err := mappedByField(fm, rel)
		if err != nil {
			return err
		}

		fk := mb.ForeignKey()
		if fk == nil || mb.value.joinDir == JoinInverse {
			return metaErr(fm, "mapped-by-no-fk", "mapped-by field %s does not own a foreign key", mb)
		}

		if err := fm.info.AssertNoSchemaComponents(fm, !mode.Adapt()); err != nil {
			return err
		}

		fm.table = fk.Table()
		fm.joinFK = fk
		fm.joinIO = mb.value.io
		fm.joinIndex = nil
		fm.joinUnique = nil
	} else {
		table := rel.Table()
		if name := fm.info.TableName; name != "" && !tableMatches(table, name) {
			return metaErr(fm, "inverse-key-table", "table %q is not the element table %s", name, table)
		}

		join, err := fm.info.GetJoin(fm, table, mode)
		if err != nil {
			return err
		}

		fm.table = table
		fm.joinFK = join
		fm.joinIO = fm.info.ColumnIO()

		if fm.joinIndex, err = fm.info.GetJoinIndex(fm, mode); err != nil {
			return err
		}

		fm.joinUnique = nil
	}

	resetValue(el)
	el.handler = nil

	if fm.key != nil {
		resetValue(fm.key)
	}

	return fm.mapOrderColumn(mode)
}

// checkMapKey validates the element field supplying the key of a map
// stored by relation.
func checkMapKey(fm *FieldMapping) error {
	key := fm.key
	if key == nil || key.ValueMappedBy == "" {
		return nil
	}

	rel := fm.element.related
	if rel == nil || rel.Field(key.ValueMappedBy) == nil {
		return metaErr(key, "bad-key-mapped-by", "map key field %q does not exist", key.ValueMappedBy).
			WithSuggestions(suggestField(rel, key.ValueMappedBy)...)
	}

	return nil
}

// mapTableStrategy stores map entries in a join table. Keys and values are
// stored through handlers or as relations. A key mapped by a field of the
// value is not stored at all.
type mapTableStrategy struct {
	fm     *FieldMapping
	alias  string
	keyRel bool
	valRel bool
}

func (s *mapTableStrategy) Alias() string { return s.alias }

func (s *mapTableStrategy) Map(mode Mode) error {
	fm := s.fm

	if fm.key == nil || fm.element == nil {
		return metaErr(fm, "no-map-types", "field has no key or value type")
	}

	if err := fm.value.info.AssertNoSchemaComponents(fm.value, !mode.Adapt()); err != nil {
		return err
	}

	if err := fm.mapJoin(mode, true); err != nil {
		return err
	}

	name := columnBase(fm)

	if fm.key.ValueMappedBy != "" && s.valRel {
		if err := checkMapKey(fm); err != nil {
			return err
		}

		resetValue(fm.key)
	} else if err := mapContainerPart(fm.key, name+"_key", s.keyRel, mode); err != nil {
		return err
	}

	return mapContainerPart(fm.element, name, s.valRel, mode)
}
