package meta

import (
	"slices"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"

	"relmap/internal/common"
	"relmap/internal/dict"
	"relmap/internal/match"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// MappingDefaults supplies what a mapping leaves out: strategy choices,
// names and constraint templates. The Populate hooks rename the given
// column templates in place. Strategy hooks return an alias, or "" to let
// the repository decide.
type MappingDefaults interface {
	// DefaultMissingInfo reports whether defaults apply even when the
	// mapping is not being adapted.
	DefaultMissingInfo() bool
	UseClassCriteria() bool

	ClassStrategy(cm *ClassMapping, adapt bool) string
	VersionStrategy(v *Version, adapt bool) string
	DiscriminatorStrategy(d *Discriminator, adapt bool) string
	FieldStrategy(vm *ValueMapping, adapt bool) string

	DiscriminatorValue(d *Discriminator, adapt bool) any

	TableName(cm *ClassMapping, s *schema.Schema) string
	JoinTableName(fm *FieldMapping, s *schema.Schema) string
	PrimaryKeyName(cm *ClassMapping, t *schema.Table) string

	PopulateDataStoreIDColumns(cm *ClassMapping, t *schema.Table, cols []*schema.Column)
	PopulateJoinColumn(cm *ClassMapping, local, foreign *schema.Table, col, target *schema.Column, pos, n int)
	PopulateFieldJoinColumn(fm *FieldMapping, local, foreign *schema.Table, col, target *schema.Column, pos, n int)
	PopulateForeignKeyColumn(vm *ValueMapping, name string, local, foreign *schema.Table, col, target *schema.Column, inverse bool, pos, n int)
	PopulateColumns(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column)
	PopulateOrderColumns(fm *FieldMapping, t *schema.Table, cols []*schema.Column) bool
	PopulateNullIndicatorColumns(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column) bool
	PopulateVersionColumns(v *Version, t *schema.Table, cols []*schema.Column)
	PopulateDiscriminatorColumns(d *Discriminator, t *schema.Table, cols []*schema.Column)

	JoinForeignKey(cm *ClassMapping, local, foreign *schema.Table) *schema.ForeignKey
	FieldJoinForeignKey(fm *FieldMapping, local, foreign *schema.Table) *schema.ForeignKey
	ForeignKey(vm *ValueMapping, name string, local, foreign *schema.Table, inverse bool) *schema.ForeignKey

	JoinIndex(fm *FieldMapping, t *schema.Table, cols []*schema.Column) *schema.Index
	Index(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column) *schema.Index
	VersionIndex(v *Version, t *schema.Table, cols []*schema.Column) *schema.Index
	DiscriminatorIndex(d *Discriminator, t *schema.Table, cols []*schema.Column) *schema.Index

	JoinUnique(fm *FieldMapping, t *schema.Table, cols []*schema.Column) *schema.Unique
	Unique(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column) *schema.Unique
}

// Preset names accepted by DefaultsFor.
const (
	PresetNative = "native"
	PresetJPA    = "jpa"
)

// Defaults is the configurable MappingDefaults implementation.
type Defaults struct {
	DefaultMissing bool
	ClassCriteria  bool

	// Strategy aliases returned by the hooks when defaults apply.
	BaseClassStrategy     string
	SubclassStrategy      string
	VersionStrategyAlias  string
	DiscriminatorAlias    string
	FieldStrategies       map[string]string
	DiscriminatorOnlySubs bool

	DataStoreIDColumnName   string
	VersionColumnName       string
	DiscriminatorColumnName string
	OrderColumnName         string
	NullIndicatorColumnName string

	OrderLists       bool
	AddNullIndicator bool
	StoreEnumOrdinal bool
	// StoreUnmappedObjectIDString stores references to unmapped classes as
	// stringified object ids.
	StoreUnmappedObjectIDString bool

	IndexLogicalForeignKeys bool
	IndexVersion            bool
	IndexDiscriminator      bool

	JoinForeignKeyDeleteAction schema.Action
	ForeignKeyDeleteAction     schema.Action
	DeferConstraints           bool

	// FieldTargetJoinNames names relation columns <field>_<target column>.
	FieldTargetJoinNames bool
	SnakeCaseNames       bool
	PluralTableNames     bool
	// UniqueNames keeps generated table names clear of tables already in
	// the schema.
	UniqueNames bool
}

// NewDefaults returns the native preset: validated unique names, order
// columns on lists, null indicators on embedded values and indexed
// version and discriminator columns.
func NewDefaults() *Defaults {
	return &Defaults{
		BaseClassStrategy:          ClassFull,
		DataStoreIDColumnName:      "ID",
		VersionColumnName:          "VERSN",
		DiscriminatorColumnName:    "TYP",
		OrderColumnName:            "ORDR",
		OrderLists:                 true,
		AddNullIndicator:           true,
		IndexLogicalForeignKeys:    true,
		IndexVersion:               true,
		IndexDiscriminator:         true,
		JoinForeignKeyDeleteAction: schema.ActionRestrict,
		ForeignKeyDeleteAction:     schema.ActionRestrict,
		SnakeCaseNames:             true,
		UniqueNames:                true,
	}
}

// NewJPADefaults returns the JPA preset: defaults always apply, relation
// columns are named <field>_<target>, the discriminator is DTYPE and enums
// are stored by ordinal.
func NewJPADefaults() *Defaults {
	return &Defaults{
		DefaultMissing:          true,
		BaseClassStrategy:       ClassFull,
		VersionStrategyAlias:    VersionNone,
		DiscriminatorAlias:      DiscriminatorValueMap,
		DiscriminatorOnlySubs:   true,
		DataStoreIDColumnName:   "ID",
		VersionColumnName:       "VERSN",
		DiscriminatorColumnName: "DTYPE",
		OrderColumnName:         "ORDR",
		StoreEnumOrdinal:        true,
		IndexLogicalForeignKeys: true,
		FieldTargetJoinNames:    true,
	}
}

// DefaultsFor returns the preset with the given name.
func DefaultsFor(preset string) (*Defaults, bool) {
	switch strings.ToLower(preset) {
	case "", PresetNative:
		return NewDefaults(), true
	case PresetJPA:
		return NewJPADefaults(), true
	default:
		return nil, false
	}
}

func (d *Defaults) DefaultMissingInfo() bool { return d.DefaultMissing }

func (d *Defaults) UseClassCriteria() bool { return d.ClassCriteria }

func (d *Defaults) applies(adapt bool) bool {
	return adapt || d.DefaultMissing
}

func (d *Defaults) ClassStrategy(cm *ClassMapping, adapt bool) string {
	if !d.applies(adapt) {
		return ""
	}

	if cm.Superclass() == nil {
		return d.BaseClassStrategy
	}

	return d.SubclassStrategy
}

func (d *Defaults) VersionStrategy(v *Version, adapt bool) string {
	cls := v.ClassMapping()
	if !d.applies(adapt) || cls.JoinableSuperclass() != nil || cls.VersionField() != nil {
		return ""
	}

	return d.VersionStrategyAlias
}

func (d *Defaults) DiscriminatorStrategy(disc *Discriminator, adapt bool) string {
	cls := disc.ClassMapping()
	if !d.applies(adapt) || cls.JoinableSuperclass() != nil || disc.Info().Value != "" {
		return ""
	}

	if d.DiscriminatorOnlySubs && len(cls.Subclasses()) == 0 {
		return DiscriminatorNone
	}

	return d.DiscriminatorAlias
}

// FieldStrategy looks the declared Go type up in FieldStrategies, then
// applies the enum and unmapped relation options.
func (d *Defaults) FieldStrategy(vm *ValueMapping, adapt bool) string {
	typeName := strings.TrimPrefix(vm.TypeName, "*")
	if alias, ok := d.FieldStrategies[typeName]; ok {
		return alias
	}

	if vm.Serialized {
		return ""
	}

	if d.StoreUnmappedObjectIDString && vm.Code == typecode.PC && vm.Related() == nil {
		return HandlerObjectID
	}

	if d.StoreEnumOrdinal && vm.Code == typecode.Enum {
		return HandlerEnum + "(ordinal)"
	}

	return ""
}

// DiscriminatorValue is the unqualified class name, or nil when defaults do
// not apply.
func (d *Defaults) DiscriminatorValue(disc *Discriminator, adapt bool) any {
	if !d.applies(adapt) {
		return nil
	}

	return common.UnqualifiedName(disc.ClassMapping().Name)
}

func (d *Defaults) baseName(name string) string {
	if d.SnakeCaseNames {
		return match.SnakeCase(name)
	}

	return name
}

func (d *Defaults) validTable(dc *dict.Dictionary, name string, s *schema.Schema) string {
	if !d.UniqueNames {
		s = nil
	}

	return dc.ValidTableName(name, s)
}

func (d *Defaults) TableName(cm *ClassMapping, s *schema.Schema) string {
	name := d.baseName(strings.ReplaceAll(common.UnqualifiedName(cm.Name), "$", "_"))
	if d.PluralTableNames {
		name = inflection.Plural(name)
	}

	return d.validTable(cm.Repository().Dictionary(), name, s)
}

// JoinTableName prefixes the owner's table. Relation collections add the
// related table, other fields add the field name.
func (d *Defaults) JoinTableName(fm *FieldMapping, s *schema.Schema) string {
	name := d.baseName(fm.Name)

	if t := fm.DefiningMapping().Table(); t != nil {
		suffix := name
		if el := fm.Element(); d.FieldTargetJoinNames && el != nil && fm.Code != typecode.Map {
			if rel := el.Related(); rel != nil && rel.Table() != nil {
				suffix = rel.Table().Name
			}
		}

		name = t.Name + "_" + suffix
	}

	return d.validTable(fm.Repository().Dictionary(), name, s)
}

func (d *Defaults) PrimaryKeyName(cm *ClassMapping, t *schema.Table) string {
	return ""
}

// correctName validates a generated column name. Names are not made unique:
// two mappings defaulting to the same name share the column.
func correctName(dc *dict.Dictionary, t *schema.Table, col *schema.Column) {
	col.Name = dc.ValidColumnName(col.Name, t, false)
}

// nameColumns gives cols the base name, suffixing positions when there is
// more than one.
func nameColumns(base string, cols []*schema.Column, sep string) {
	if base == "" {
		return
	}

	for i, c := range cols {
		if len(cols) == 1 {
			c.Name = base
		} else {
			c.Name = base + sep + strconv.Itoa(i)
		}
	}
}

func (d *Defaults) PopulateDataStoreIDColumns(cm *ClassMapping, t *schema.Table, cols []*schema.Column) {
	nameColumns(d.DataStoreIDColumnName, cols, "")

	for _, c := range cols {
		correctName(cm.Repository().Dictionary(), t, c)
	}
}

func (d *Defaults) PopulateJoinColumn(cm *ClassMapping, local, foreign *schema.Table, col, target *schema.Column, pos, n int) {
	correctName(cm.Repository().Dictionary(), local, col)
}

// PopulateFieldJoinColumn names join table columns after the owner when
// FieldTargetJoinNames is set. A container join column that would land on
// a primary key column of the element table is prefixed with the owner
// name.
func (d *Defaults) PopulateFieldJoinColumn(fm *FieldMapping, local, foreign *schema.Table, col, target *schema.Column, pos, n int) {
	owner := common.UnqualifiedName(fm.DefiningMapping().Name)

	switch {
	case d.FieldTargetJoinNames && target != nil:
		col.Name = owner + "_" + target.Name
	case fm.Code.IsContainer() && isPrimaryKeyColumn(local, col.Name):
		col.Name = match.SnakeCase(owner) + "_" + col.Name
	}

	correctName(fm.Repository().Dictionary(), local, col)
}

func isPrimaryKeyColumn(t *schema.Table, name string) bool {
	if t == nil || t.PrimaryKey() == nil {
		return false
	}

	c := t.Column(name)

	return c != nil && t.PrimaryKey().ContainsColumn(c)
}

// PopulateForeignKeyColumn names the columns of container keys and
// elements, and relation columns that would land on a primary key column,
// after the field and the target column. A default name already mapped by
// another field of the class is kept but reported, as the two fields then
// share the column.
func (d *Defaults) PopulateForeignKeyColumn(vm *ValueMapping, name string, local, foreign *schema.Table, col, target *schema.Column, inverse bool, pos, n int) {
	if target != nil && (d.FieldTargetJoinNames || vm.Role() != RoleValue ||
		(!vm.isIdentity() && isPrimaryKeyColumn(local, col.Name))) {
		col.Name = d.baseName(name) + "_" + target.Name
	}

	correctName(vm.Repository().Dictionary(), local, col)

	if len(vm.Info().Columns) > 0 {
		return
	}

	if other := columnOwner(vm.Field(), local, col.Name); other != nil {
		warn(vm, "field-dup-fk-col", "default join column %q is already mapped by %s; both fields share it", col.Name, other)
	}
}

// columnOwner returns another field of fm's class already mapped to the
// column named name in t, or nil.
func columnOwner(fm *FieldMapping, t *schema.Table, name string) *FieldMapping {
	if t == nil {
		return nil
	}

	col := t.Column(name)
	if col == nil {
		return nil
	}

	for _, f := range fm.DefiningMapping().Fields() {
		if f != fm && slices.Contains(f.Columns(), col) {
			return f
		}
	}

	return nil
}

func (d *Defaults) PopulateColumns(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column) {
	base := d.baseName(name)

	for i, c := range cols {
		switch {
		case len(cols) == 1:
			c.Name = base
		case c.Name != "":
			c.Name = base + "_" + c.Name
		default:
			c.Name = base + "_" + strconv.Itoa(i)
		}

		correctName(vm.Repository().Dictionary(), t, c)
	}
}

// PopulateOrderColumns asks for an order column on arrays and ordered
// slices when OrderLists is set.
func (d *Defaults) PopulateOrderColumns(fm *FieldMapping, t *schema.Table, cols []*schema.Column) bool {
	nameColumns(d.OrderColumnName, cols, "")

	for _, c := range cols {
		correctName(fm.Repository().Dictionary(), t, c)
	}

	return d.OrderLists && (fm.Code == typecode.Array || fm.Ordered)
}

func (d *Defaults) PopulateNullIndicatorColumns(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column) bool {
	base := d.NullIndicatorColumnName
	if base == "" {
		base = d.baseName(name) + "_null"
	}

	nameColumns(base, cols, "")

	for _, c := range cols {
		correctName(vm.Repository().Dictionary(), t, c)
	}

	return d.AddNullIndicator
}

func (d *Defaults) PopulateVersionColumns(v *Version, t *schema.Table, cols []*schema.Column) {
	nameColumns(d.VersionColumnName, cols, "_")

	for _, c := range cols {
		correctName(v.Repository().Dictionary(), t, c)
	}
}

func (d *Defaults) PopulateDiscriminatorColumns(disc *Discriminator, t *schema.Table, cols []*schema.Column) {
	nameColumns(d.DiscriminatorColumnName, cols, "_")

	for _, c := range cols {
		correctName(disc.Repository().Dictionary(), t, c)
	}
}

func (d *Defaults) foreignKey(action schema.Action) *schema.ForeignKey {
	if action == schema.ActionNone {
		return nil
	}

	fk := schema.NewForeignKey("", action)
	fk.Deferred = d.DeferConstraints

	return fk
}

func (d *Defaults) JoinForeignKey(cm *ClassMapping, local, foreign *schema.Table) *schema.ForeignKey {
	return d.foreignKey(d.JoinForeignKeyDeleteAction)
}

func (d *Defaults) FieldJoinForeignKey(fm *FieldMapping, local, foreign *schema.Table) *schema.ForeignKey {
	return d.foreignKey(d.JoinForeignKeyDeleteAction)
}

func (d *Defaults) ForeignKey(vm *ValueMapping, name string, local, foreign *schema.Table, inverse bool) *schema.ForeignKey {
	return d.foreignKey(d.ForeignKeyDeleteAction)
}

func allPrimaryKey(cols []*schema.Column) bool {
	for _, c := range cols {
		if !c.IsPrimaryKey() {
			return false
		}
	}

	return true
}

// indexTemplate names the index I_<table>_<name>; the name is validated
// when the index is created.
func indexTemplate(name string, t *schema.Table, cols []*schema.Column) *schema.Index {
	if name == "" {
		name = cols[0].Name
	}

	return schema.NewIndex("I_"+t.Name+"_"+name, false)
}

// JoinIndex indexes the join columns of a join table whose key is logical.
func (d *Defaults) JoinIndex(fm *FieldMapping, t *schema.Table, cols []*schema.Column) *schema.Index {
	fk := fm.JoinForeignKey()
	if !d.IndexLogicalForeignKeys || fk == nil || !fk.IsLogical() || allPrimaryKey(cols) {
		return nil
	}

	return indexTemplate("", t, cols)
}

// Index indexes relation columns whose key is logical.
func (d *Defaults) Index(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column) *schema.Index {
	fk := vm.ForeignKey()
	if !d.IndexLogicalForeignKeys || fk == nil || !fk.IsLogical() || allPrimaryKey(cols) {
		return nil
	}

	return indexTemplate(d.baseName(name), t, cols)
}

func (d *Defaults) VersionIndex(v *Version, t *schema.Table, cols []*schema.Column) *schema.Index {
	if !d.IndexVersion {
		return nil
	}

	return indexTemplate(d.VersionColumnName, t, cols)
}

func (d *Defaults) DiscriminatorIndex(disc *Discriminator, t *schema.Table, cols []*schema.Column) *schema.Index {
	if !d.IndexDiscriminator {
		return nil
	}

	return indexTemplate(d.DiscriminatorColumnName, t, cols)
}

func (d *Defaults) JoinUnique(fm *FieldMapping, t *schema.Table, cols []*schema.Column) *schema.Unique {
	return nil
}

func (d *Defaults) Unique(vm *ValueMapping, name string, t *schema.Table, cols []*schema.Column) *schema.Unique {
	return nil
}
