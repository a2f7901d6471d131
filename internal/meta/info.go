package meta

import (
	"slices"
	"strconv"
	"strings"

	"relmap/internal/common"
	"relmap/internal/diagnostic"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// MappingInfo holds the raw mapping data declared for one mapping object and
// the operations that turn it into schema objects.
//
// The exported fields are the declared view: what a directive file or a
// SyncWith call wrote. The unexported resolved view records side results of
// the last resolution (column writability, memoized default names) and is
// reset by Clear.
type MappingInfo struct {
	// Strategy is an explicit strategy alias; empty selects the default.
	Strategy string
	// Columns are raw column templates, possibly partial.
	Columns []*schema.Column

	Index      *schema.Index
	Unique     *schema.Unique
	ForeignKey *schema.ForeignKey

	CanIndex      Allowance
	CanUnique     Allowance
	CanForeignKey Allowance

	JoinDirection JoinDirection

	resolved resolvedView
}

type resolvedView struct {
	io        ColumnIO
	tableName string
}

// ColumnIO returns the column writability recorded by the last column or
// join merge.
func (mi *MappingInfo) ColumnIO() ColumnIO {
	return mi.resolved.io
}

// SetColumnIO replaces the recorded column writability.
func (mi *MappingInfo) SetColumnIO(io ColumnIO) {
	mi.resolved.io = io
}

// ColumnsFor returns the raw columns qualified with table, or the
// unqualified ones when table is empty.
func (mi *MappingInfo) ColumnsFor(table string) []*schema.Column {
	var out []*schema.Column

	for _, c := range mi.Columns {
		if strings.EqualFold(c.TableName, table) {
			out = append(out, c)
		}
	}

	return out
}

// HasSchemaComponents reports whether any schema data or opt-out was declared.
func (mi *MappingInfo) HasSchemaComponents() bool {
	return len(mi.Columns) > 0 ||
		mi.Index != nil || mi.Unique != nil || mi.ForeignKey != nil ||
		mi.CanIndex.Denied() || mi.CanUnique.Denied() || mi.CanForeignKey.Denied()
}

// Clear drops all declared data. With canFlags the opt-outs are reset too.
func (mi *MappingInfo) Clear(canFlags bool) {
	mi.Strategy = ""
	mi.Columns = nil
	mi.Index = nil
	mi.Unique = nil
	mi.ForeignKey = nil
	mi.JoinDirection = JoinNone
	mi.resolved = resolvedView{}

	if canFlags {
		mi.CanIndex = Unspecified
		mi.CanUnique = Unspecified
		mi.CanForeignKey = Unspecified
	}
}

// Copy fills in whatever other declares and mi leaves unset. Columns are
// merged position by position when the counts agree.
func (mi *MappingInfo) Copy(other *MappingInfo) {
	if other == nil {
		return
	}

	if mi.Strategy == "" {
		mi.Strategy = other.Strategy
	}

	if mi.JoinDirection == JoinNone {
		mi.JoinDirection = other.JoinDirection
	}

	if !mi.CanIndex.Denied() && mi.Index == nil {
		if other.Index != nil {
			mi.Index = other.Index
		} else if mi.CanIndex == Unspecified {
			mi.CanIndex = other.CanIndex
		}
	}

	if !mi.CanUnique.Denied() && mi.Unique == nil {
		if other.Unique != nil {
			mi.Unique = other.Unique
		} else if mi.CanUnique == Unspecified {
			mi.CanUnique = other.CanUnique
		}
	}

	if !mi.CanForeignKey.Denied() && mi.ForeignKey == nil {
		if other.ForeignKey != nil {
			mi.ForeignKey = other.ForeignKey
		} else if mi.CanForeignKey == Unspecified {
			mi.CanForeignKey = other.CanForeignKey
		}
	}

	if len(other.Columns) == 0 || (len(mi.Columns) > 0 && len(mi.Columns) != len(other.Columns)) {
		return
	}

	for i, src := range other.Columns {
		if i == len(mi.Columns) {
			mi.Columns = append(mi.Columns, &schema.Column{})
		}

		fillColumn(mi.Columns[i], src)
	}
}

// fillColumn copies the set attributes of src into the unset ones of dst.
func fillColumn(dst, src *schema.Column) {
	if dst.Name == "" {
		dst.Name = src.Name
	}

	if dst.TableName == "" {
		dst.TableName = src.TableName
	}

	if dst.Type == schema.Other {
		dst.Type = src.Type
	}

	if dst.TypeName == "" {
		dst.TypeName = src.TypeName
	}

	if dst.JavaType == typecode.Object {
		dst.JavaType = src.JavaType
	}

	if dst.Size == 0 {
		dst.Size = src.Size
	}

	if dst.DecimalDigits == 0 {
		dst.DecimalDigits = src.DecimalDigits
	}

	if !dst.NotNullExplicit && src.NotNullExplicit {
		dst.SetNotNull(src.NotNull)
	}

	if dst.Default == "" {
		dst.Default = src.Default
	}

	if dst.Target == "" {
		dst.Target = src.Target
	}

	if dst.TargetField == "" {
		dst.TargetField = src.TargetField
	}

	if dst.Comment == "" {
		dst.Comment = src.Comment
	}

	dst.AutoAssigned = dst.AutoAssigned || src.AutoAssigned
	dst.RelationID = dst.RelationID || src.RelationID
	dst.ImplicitRelation = dst.ImplicitRelation || src.ImplicitRelation
	dst.XML = dst.XML || src.XML
	dst.Flags |= src.Flags
}

// Validate reports opt-outs that contradict a declared template.
func (mi *MappingInfo) Validate(ctx Context) error {
	switch {
	case mi.CanIndex.Denied() && mi.Index != nil:
		return metaErr(ctx, "index-conflict", "an index is declared but indexing is disabled")
	case mi.CanUnique.Denied() && mi.Unique != nil:
		return metaErr(ctx, "unique-conflict", "a unique constraint is declared but unique constraints are disabled")
	case mi.CanForeignKey.Denied() && mi.ForeignKey != nil:
		return metaErr(ctx, "fk-conflict", "a foreign key is declared but foreign keys are disabled")
	default:
		return nil
	}
}

// AssertNoSchemaComponents complains about any declared columns or
// constraints. With die the complaint is an error, otherwise a warning.
func (mi *MappingInfo) AssertNoSchemaComponents(ctx Context, die bool) error {
	if len(mi.Columns) > 0 {
		return complain(ctx, die, "unexpected-cols", "columns are declared but the mapping does not use any")
	}

	if err := mi.AssertNoIndex(ctx, die); err != nil {
		return err
	}

	if err := mi.AssertNoUnique(ctx, die); err != nil {
		return err
	}

	return mi.AssertNoForeignKey(ctx, die)
}

// AssertNoIndex complains about a declared index.
func (mi *MappingInfo) AssertNoIndex(ctx Context, die bool) error {
	if mi.Index == nil {
		return nil
	}

	return complain(ctx, die, "unexpected-index", "an index is declared but the mapping does not use one")
}

// AssertNoUnique complains about a declared unique constraint.
func (mi *MappingInfo) AssertNoUnique(ctx Context, die bool) error {
	if mi.Unique == nil {
		return nil
	}

	return complain(ctx, die, "unexpected-unique", "a unique constraint is declared but the mapping does not use one")
}

// AssertNoForeignKey complains about a declared foreign key.
func (mi *MappingInfo) AssertNoForeignKey(ctx Context, die bool) error {
	if mi.ForeignKey == nil {
		return nil
	}

	return complain(ctx, die, "unexpected-fk", "a foreign key is declared but the mapping does not use one")
}

// AssertNoJoin complains about a declared join direction.
func (mi *MappingInfo) AssertNoJoin(ctx Context, die bool) error {
	if mi.JoinDirection == JoinNone {
		return nil
	}

	return complain(ctx, die, "unexpected-join", "a join direction is declared but the mapping does not join")
}

// AssertStrategy complains when an explicit strategy other than expected
// was declared.
func (mi *MappingInfo) AssertStrategy(ctx Context, expected string, die bool) error {
	if mi.Strategy == "" || mi.Strategy == expected {
		return nil
	}

	return complain(ctx, die, "unexpected-strategy", "strategy %q is declared but %q is in use", mi.Strategy, expected)
}

func prefixOr(prefix string) string {
	if prefix == "" {
		return "generic"
	}

	return prefix
}

// tableDefault supplies a default table name inside s.
type tableDefault func(s *schema.Schema) string

// createTable finds or creates the table named given, or the default table
// when no name is given. The default is computed at most once per info.
func (mi *MappingInfo) createTable(ctx Context, def tableDefault, schemaName, given string, mode Mode) (*schema.Table, error) {
	if given == "" && (def == nil || !mode.Fill()) {
		return nil, metaErr(ctx, "no-table", "no table is given and no default may be used")
	}

	repo := ctx.Repository()
	group := repo.SchemaGroup()

	if q, local := common.SplitQualified(given); q != "" {
		schemaName, given = q, local
	}

	if schemaName == "" {
		schemaName = repo.DefaultSchemaName()
	}

	if given == "" {
		if mi.resolved.tableName == "" {
			mi.resolved.tableName = def(group.AddSchema(schemaName))
		}

		given = mi.resolved.tableName
	}

	t, err := group.FindTable(common.Qualify(schemaName, given))
	if err != nil {
		return nil, diagnostic.Wrap(err, "table-lookup", describe(ctx), "cannot look up table %q", given)
	}

	if t != nil {
		return t, nil
	}

	if !mode.Fill() {
		return nil, metaErr(ctx, "bad-table", "table %q does not exist", common.Qualify(schemaName, given))
	}

	return group.AddSchema(schemaName).AddTable(given), nil
}

func tableMatches(t *schema.Table, name string) bool {
	return t != nil && (strings.EqualFold(t.Name, name) || strings.EqualFold(t.FullName(), name))
}

// findTable resolves a table named in a column or target qualifier. The
// expected and related tables are preferred over a group lookup.
func findTable(ctx Context, prefix, name string, expected, rel *schema.Table) (*schema.Table, error) {
	if name == "" || tableMatches(expected, name) {
		return expected, nil
	}

	if tableMatches(rel, name) {
		return rel, nil
	}

	t, err := ctx.Repository().SchemaGroup().FindTable(name)
	if err != nil {
		return nil, diagnostic.Wrap(err, "table-lookup", describe(ctx), "cannot look up table %q", name)
	}

	if t == nil {
		return nil, metaErr(ctx, prefix+"-bad-table", "table %q does not exist", name)
	}

	return t, nil
}

// createColumns merges the declared columns with the templates, one column
// per template.
func (mi *MappingInfo) createColumns(ctx Context, prefix string, tmpls []*schema.Column, table *schema.Table, mode Mode) ([]*schema.Column, error) {
	prefix = prefixOr(prefix)

	if table == nil {
		return nil, metaErr(ctx, prefix+"-no-table", "no table to hold the columns")
	}

	given := mi.Columns
	if (len(given) > 0 || mode == Strict) && len(given) != len(tmpls) {
		// Columns declared for several tables: take the ones of this table.
		switch forTable, bare := mi.ColumnsFor(table.Name), mi.ColumnsFor(""); {
		case len(given) > 0 && len(forTable) == len(tmpls):
			given = forTable
		case len(given) > 0 && len(bare) == len(tmpls):
			given = bare
		case mode == Strict:
			return nil, metaErr(ctx, prefix+"-num-cols", "expected %d columns, %d are declared", len(tmpls), len(mi.Columns))
		default:
			warn(ctx, prefix+"-num-cols", "expected %d columns, %d are declared; using defaults for the rest", len(tmpls), len(mi.Columns))
		}
	}

	mi.resolved.io = ColumnIO{}

	cols := make([]*schema.Column, len(tmpls))
	for i, tmpl := range tmpls {
		var g *schema.Column
		if i < len(given) {
			g = given[i]
		}

		col, err := mi.mergeColumn(ctx, prefix, tmpl, true, g, table, mode)
		if err != nil {
			return nil, err
		}

		cols[i] = col
		mi.setIOFromColumnFlags(g, i)
	}

	return cols, nil
}

func (mi *MappingInfo) setIOFromColumnFlags(col *schema.Column, i int) {
	if col == nil {
		return
	}

	if col.Flag(schema.FlagUninsertable) {
		mi.resolved.io.SetInsertable(i, false)
	}

	if col.Flag(schema.FlagUnupdatable) {
		mi.resolved.io.SetUpdatable(i, false)
	}
}

func (mi *MappingInfo) setColumnFlagsFromIO(col *schema.Column, i int) {
	io := mi.resolved.io
	col.SetFlag(schema.FlagUninsertable, !io.IsInsertable(i, false))
	col.SetFlag(schema.FlagUnupdatable, !io.IsUpdatable(i, false))
}

// mergeColumn produces the table column for a template and an optional
// declared column. Declared attributes override the template one by one.
func (mi *MappingInfo) mergeColumn(ctx Context, prefix string, tmpl *schema.Column, compat bool, given *schema.Column, table *schema.Table, mode Mode) (*schema.Column, error) {
	if tmpl == nil {
		tmpl = &schema.Column{}
	}

	var name string
	if given != nil {
		name = given.Name
	}

	if name == "" && !mode.Fill() {
		return nil, metaErr(ctx, prefix+"-no-col-name", "a column name must be given when defaults are not used")
	}

	if name == "" {
		name = tmpl.Name
	}

	if name == "" {
		return nil, metaErr(ctx, prefix+"-no-col-name", "no column name is given and the defaults supply none")
	}

	tableName := ""
	if given != nil {
		tableName = given.TableName
	}

	if q, local := common.SplitQualified(name); q != "" {
		tableName, name = q, local
	}

	if tableName != "" {
		t, err := findTable(ctx, prefix, tableName, table, nil)
		if err != nil {
			return nil, err
		}

		table = t
	}

	dict := ctx.Repository().Dictionary()

	sqlType := tmpl.Type
	typeName := tmpl.TypeName
	size := tmpl.Size
	decimals := tmpl.DecimalDigits

	if given != nil {
		if given.TypeName != "" {
			typeName = given.TypeName
		}

		if given.Size != 0 {
			size = given.Size
		}

		if given.DecimalDigits != 0 {
			decimals = given.DecimalDigits
		}
	}

	if sqlType == schema.Other {
		sqlType = dict.JDBCType(tmpl.JavaType, size == -1, size, decimals, tmpl.XML)
	}

	if given != nil && given.Type != schema.Other {
		if compat && !given.IsCompatible(sqlType, typeName, size, decimals) {
			warn(ctx, prefix+"-incompat-col", "declared type %s of column %q cannot hold %s values", given.Type, name, sqlType)
		}

		sqlType = dict.PreferredType(given.Type)
	}

	if sqlType.IsCharacter() && size == 0 {
		size = dict.CharacterColumnSize
	}

	notNull, explicit := tmpl.NotNull, tmpl.NotNullExplicit
	if given != nil && given.NotNullExplicit {
		notNull, explicit = given.NotNull, true
	}

	defValue := tmpl.Default
	if given != nil && given.Default != "" {
		defValue = given.Default
	}

	col := table.Column(name)
	if col == nil && !mode.Fill() {
		return nil, metaErr(ctx, prefix+"-bad-col-name", "column %q does not exist in table %s", name, table.FullName())
	}

	if col == nil {
		col = table.AddColumn(name)
		col.Type = sqlType
		col.TypeName = typeName
		col.Size = size
		col.DecimalDigits = decimals
	} else if compat && !col.IsCompatible(sqlType, typeName, size, decimals) {
		if !mode.Adapt() {
			return nil, metaErr(ctx, prefix+"-bad-col", "existing column %s cannot hold %s values", col.Description(), sqlType)
		}

		warn(ctx, prefix+"-bad-col", "existing column %s cannot hold %s values; changing its type", col.Description(), sqlType)
		col.Type = sqlType
	}

	if mode.Adapt() {
		col.TypeName = typeName
		col.Size = size
		col.DecimalDigits = decimals
	}

	if compat || col.JavaType == typecode.Object {
		col.JavaType = tmpl.JavaType
	}

	col.AutoAssigned = col.AutoAssigned || tmpl.AutoAssigned || (given != nil && given.AutoAssigned)
	col.RelationID = col.RelationID || tmpl.RelationID || (given != nil && given.RelationID)
	col.ImplicitRelation = col.ImplicitRelation || tmpl.ImplicitRelation || (given != nil && given.ImplicitRelation)

	if tmpl.TargetField != "" {
		col.TargetField = tmpl.TargetField
	}

	if given != nil && given.TargetField != "" {
		col.TargetField = given.TargetField
	}

	if defValue != "" {
		col.Default = defValue
	}

	if explicit {
		col.SetNotNull(notNull)
	}

	if tmpl.Comment != "" {
		col.Comment = tmpl.Comment
	}

	col.XML = col.XML || tmpl.XML

	return col, nil
}

// createIndex finds or creates an index over cols.
func (mi *MappingInfo) createIndex(ctx Context, prefix string, tmpl *schema.Index, cols []*schema.Column, mode Mode) (*schema.Index, error) {
	prefix = prefixOr(prefix)

	if len(cols) == 0 {
		if mi.Index != nil {
			return nil, metaErr(ctx, prefix+"-no-index-cols", "an index is declared but there are no columns to index")
		}

		return nil, nil
	}

	table := cols[0].Table()

	var exist *schema.Index

	for _, idx := range table.Indexes() {
		if idx.ColumnsMatch(cols) {
			exist = idx
			break
		}
	}

	if mi.CanIndex.Denied() {
		if exist == nil {
			return nil, nil
		}

		if !mode.Adapt() {
			return nil, metaErr(ctx, prefix+"-index-exists", "indexing is disabled but index %s exists", exist.Name)
		}

		table.RemoveIndex(exist)

		return nil, nil
	}

	if exist != nil {
		if mi.Index != nil && mi.Index.Unique && !exist.Unique {
			if !mode.Adapt() {
				return nil, metaErr(ctx, prefix+"-index-not-unique", "existing index %s is not unique", exist.Name)
			}

			exist.Unique = true
		}

		return exist, nil
	}

	if mi.Index == nil && (tmpl == nil || mode == Strict) {
		return nil, nil
	}

	var (
		name   string
		unique bool
	)

	if tmpl != nil {
		name, unique = tmpl.Name, tmpl.Unique
	}

	if mi.Index != nil {
		unique = mi.Index.Unique
	}

	if mi.Index != nil && mi.Index.Name != "" {
		name = mi.Index.Name
	} else {
		if name == "" {
			name = cols[0].Name
		}

		name = ctx.Repository().Dictionary().ValidIndexName(name, table)
	}

	idx := table.AddIndex(name)
	idx.Unique = unique
	idx.SetColumns(cols)

	return idx, nil
}

// createUnique finds or creates a unique constraint over cols.
func (mi *MappingInfo) createUnique(ctx Context, prefix string, tmpl *schema.Unique, cols []*schema.Column, mode Mode) (*schema.Unique, error) {
	prefix = prefixOr(prefix)

	if len(cols) == 0 {
		if mi.Unique != nil {
			return nil, metaErr(ctx, prefix+"-no-unique-cols", "a unique constraint is declared but there are no columns")
		}

		return nil, nil
	}

	table := cols[0].Table()

	var exist *schema.Unique

	for _, u := range table.Uniques() {
		if u.ColumnsMatch(cols) {
			exist = u
			break
		}
	}

	if mi.CanUnique.Denied() {
		if exist == nil {
			return nil, nil
		}

		if !mode.Adapt() {
			return nil, metaErr(ctx, prefix+"-unique-exists", "unique constraints are disabled but %s exists", exist.Name)
		}

		table.RemoveUnique(exist)

		return nil, nil
	}

	dict := ctx.Repository().Dictionary()

	if exist != nil {
		if mi.Unique != nil && mi.Unique.Deferred && !exist.Deferred {
			if mode.Adapt() && dict.SupportsDeferredConstraints() {
				exist.Deferred = true
			} else {
				warn(ctx, prefix+"-defer-unique", "existing unique constraint %s is not deferred", exist.Name)
			}
		}

		return exist, nil
	}

	if mi.Unique == nil && (tmpl == nil || mode == Strict) {
		return nil, nil
	}

	if !dict.SupportsUniqueConstraints() {
		warn(ctx, prefix+"-unique-unsupported", "dictionary %s has no unique constraints", dict.Name)
		return nil, nil
	}

	var (
		name     string
		deferred bool
	)

	if tmpl != nil {
		name, deferred = tmpl.Name, tmpl.Deferred
	}

	if mi.Unique != nil {
		deferred = mi.Unique.Deferred
	}

	if deferred && !dict.SupportsDeferredConstraints() {
		warn(ctx, prefix+"-create-defer-unique", "dictionary %s cannot defer constraints", dict.Name)
		deferred = false
	}

	if mi.Unique != nil && mi.Unique.Name != "" {
		name = mi.Unique.Name
	} else {
		if name == "" {
			name = cols[0].Name
		}

		name = dict.ValidUniqueName(name, table)
	}

	u := table.AddUnique(name)
	u.Deferred = deferred
	u.SetColumns(cols)

	return u, nil
}

// fkDefaults supplies the default key and join columns of a foreign key.
type fkDefaults struct {
	get      func(local, foreign *schema.Table, inverse bool) *schema.ForeignKey
	populate func(local, foreign *schema.Table, col, target *schema.Column, inverse bool, pos, n int)
}

func (d *fkDefaults) template(local, foreign *schema.Table, inverse bool) *schema.ForeignKey {
	if d == nil || d.get == nil {
		return nil
	}

	return d.get(local, foreign, inverse)
}

func (d *fkDefaults) fill(local, foreign *schema.Table, col, target *schema.Column, inverse bool, pos, n int) {
	if d == nil || d.populate == nil {
		return
	}

	d.populate(local, foreign, col, target, inverse, pos, n)
}

// join is one pair of a foreign key under construction. target is a
// *schema.Column or a constant.
type join struct {
	local   *schema.Column
	target  any
	inverse bool
	given   *schema.Column
}

func (j join) targetColumn() (*schema.Column, bool) {
	c, ok := j.target.(*schema.Column)
	return c, ok
}

// createForeignKey finds or creates the foreign key joining table to the
// table of rel. The declared columns describe the joins; without any, one
// join column per primary key column of rel is synthesized.
func (mi *MappingInfo) createForeignKey(ctx Context, prefix string, given []*schema.Column, def *fkDefaults, table *schema.Table, cls, rel *ClassMapping, inversable bool, mode Mode) (*schema.ForeignKey, error) {
	prefix = prefixOr(prefix)

	if table == nil {
		return nil, metaErr(ctx, prefix+"-no-table", "no table to hold the foreign key")
	}

	joins, err := mi.createJoins(ctx, prefix, table, cls, rel, given, def, inversable, mode)
	if err != nil {
		return nil, err
	}

	declared := mi.JoinDirection
	mi.JoinDirection = JoinForward

	local, foreign := table, rel.Table()
	localSet, constant := false, false

	for _, j := range joins {
		tcol, ok := j.targetColumn()
		if !ok {
			constant = true
			continue
		}

		t := j.local.Table()
		if !localSet {
			local, localSet = t, true
		} else if t != local {
			return nil, metaErr(ctx, prefix+"-mult-fk-tables", "join columns span tables %s and %s", local, t)
		}

		foreign = tcol.Table()

		if j.inverse {
			mi.JoinDirection = JoinInverse
		}
	}

	// Constant joins alone carry no table; keep the declared direction.
	if !localSet && len(given) > 0 && declared == JoinInverse {
		mi.JoinDirection = JoinInverse
		local, foreign = rel.Table(), table
	}

	if !constant {
		cols := make([]*schema.Column, len(joins))
		pks := make([]*schema.Column, len(joins))

		for i, j := range joins {
			cols[i] = j.local
			pks[i], _ = j.targetColumn()
		}

		for _, fk := range local.ForeignKeys() {
			if len(fk.ConstantColumns()) > 0 || len(fk.ConstantPrimaryKeyColumns()) > 0 || !fk.ColumnsMatch(cols, pks) {
				continue
			}

			return mi.mergeExistingForeignKey(ctx, prefix, fk, joins, mode)
		}
	}

	inverse := mi.JoinDirection == JoinInverse
	tmpl := def.template(local, foreign, inverse)

	var (
		name              string
		delAction, upd    schema.Action
		deferred          bool
		dict              = ctx.Repository().Dictionary()
		userFK, canCreate = mi.ForeignKey, !mi.CanForeignKey.Denied()
	)

	switch {
	case userFK != nil && (tmpl == nil || mode == Strict):
		name, delAction, upd, deferred = userFK.Name, userFK.DeleteAction, userFK.UpdateAction, userFK.Deferred
	case canCreate && mode.Fill() && userFK == nil && tmpl != nil:
		name, delAction, upd, deferred = tmpl.Name, tmpl.DeleteAction, tmpl.UpdateAction, tmpl.Deferred
	case canCreate && mode.Fill() && userFK != nil:
		name, delAction, upd, deferred = userFK.Name, userFK.DeleteAction, userFK.UpdateAction, userFK.Deferred
		if name == "" {
			name = tmpl.Name
		}

		if delAction == schema.ActionNone {
			delAction = tmpl.DeleteAction
		}

		if upd == schema.ActionNone {
			upd = tmpl.UpdateAction
		}

		deferred = deferred || tmpl.Deferred
	}

	if !dict.SupportsDeleteAction(delAction) || !dict.SupportsUpdateAction(upd) {
		warn(ctx, prefix+"-unsupported-fk-action", "dictionary %s does not support on delete %s / on update %s; the key will be logical", dict.Name, delAction, upd)
		delAction, upd = schema.ActionNone, schema.ActionNone
	}

	if deferred && !dict.SupportsDeferredConstraints() {
		warn(ctx, prefix+"-create-defer-fk", "dictionary %s cannot defer constraints", dict.Name)
		deferred = false
	}

	fk := local.AddForeignKey(name)
	fk.DeleteAction = delAction
	fk.UpdateAction = upd
	fk.Deferred = deferred

	for _, j := range joins {
		if tcol, ok := j.targetColumn(); ok {
			fk.Join(j.local, tcol)
		} else if j.inverse != inverse {
			fk.JoinConstantPK(j.target, j.local)
		} else {
			fk.JoinConstant(j.local, j.target)
		}
	}

	mi.setIOFromJoins(fk, joins)

	return fk, nil
}

func (mi *MappingInfo) mergeExistingForeignKey(ctx Context, prefix string, exist *schema.ForeignKey, joins []join, mode Mode) (*schema.ForeignKey, error) {
	if mi.CanForeignKey.Denied() {
		if !exist.IsLogical() && !mode.Adapt() {
			return nil, metaErr(ctx, prefix+"-fk-exists", "foreign keys are disabled but %s exists", exist.Name)
		}

		exist.DeleteAction = schema.ActionNone
	}

	if fk := mi.ForeignKey; fk != nil && mode.Adapt() {
		dict := ctx.Repository().Dictionary()

		if fk.Name != "" {
			exist.Name = fk.Name
		}

		if dict.SupportsDeleteAction(fk.DeleteAction) {
			exist.DeleteAction = fk.DeleteAction
		}

		if dict.SupportsUpdateAction(fk.UpdateAction) {
			exist.UpdateAction = fk.UpdateAction
		}

		if fk.Deferred && dict.SupportsDeferredConstraints() {
			exist.Deferred = true
		}
	}

	mi.setIOFromJoins(exist, joins)

	return exist, nil
}

// setIOFromJoins records the writability of the declared join columns. Plain
// joins come first, then local constant joins, matching the key's layout.
func (mi *MappingInfo) setIOFromJoins(fk *schema.ForeignKey, joins []join) {
	mi.resolved.io = ColumnIO{}

	nCols := len(fk.Columns())
	plain, consts := 0, 0
	inverse := mi.JoinDirection == JoinInverse

	for _, j := range joins {
		var idx int

		switch _, ok := j.targetColumn(); {
		case ok:
			idx = plain
			plain++
		case j.inverse == inverse:
			idx = nCols + consts
			consts++
		default:
			continue
		}

		mi.setIOFromColumnFlags(j.given, idx)
	}
}

func (mi *MappingInfo) createJoins(ctx Context, prefix string, table *schema.Table, cls, rel *ClassMapping, given []*schema.Column, def *fkDefaults, inversable bool, mode Mode) ([]join, error) {
	if len(given) == 0 {
		if !mode.Fill() {
			return nil, metaErr(ctx, prefix+"-no-fk-cols", "no join columns are given and defaults may not be used")
		}

		targets := rel.PrimaryKeyColumns()
		if len(targets) == 0 {
			return nil, metaErr(ctx, prefix+"-no-target-pk", "%s has no primary key columns to join to", rel)
		}

		joins := make([]join, len(targets))

		for i, target := range targets {
			tmpl := &schema.Column{
				Name:          target.Name,
				JavaType:      target.JavaType,
				Type:          target.Type,
				TypeName:      target.TypeName,
				Size:          target.Size,
				DecimalDigits: target.DecimalDigits,
			}
			def.fill(table, rel.Table(), tmpl, target, false, i, len(targets))

			col, err := mi.mergeColumn(ctx, prefix, tmpl, true, nil, table, mode)
			if err != nil {
				return nil, err
			}

			joins[i] = join{local: col, target: target}
		}

		return joins, nil
	}

	joins := make([]join, len(given))

	for i, g := range given {
		j, err := mi.mergeJoinColumn(ctx, prefix, g, len(given), i, table, cls, rel, def, inversable && !g.Flag(schema.FlagPKJoin), mode)
		if err != nil {
			return nil, err
		}

		joins[i] = j
	}

	return joins, nil
}

// parseConstant reads a literal join target: a quoted string, a number or
// null.
func parseConstant(s string) (val any, isConst bool, err error) {
	switch {
	case s == "":
		return nil, false, nil
	case strings.EqualFold(s, "null"):
		return schema.Null, true, nil
	case s[0] == '\'':
		return strings.Trim(s, "'"), true, nil
	case s[0] == '-' || s[0] == '.' || (s[0] >= '0' && s[0] <= '9'):
		if !strings.Contains(s, ".") {
			n, err := strconv.Atoi(s)
			return n, true, err
		}

		f, err := strconv.ParseFloat(s, 64)

		return f, true, err
	default:
		return nil, false, nil
	}
}

func (mi *MappingInfo) mergeJoinColumn(ctx Context, prefix string, given *schema.Column, n, pos int, table *schema.Table, cls, rel *ClassMapping, def *fkDefaults, inversable bool, mode Mode) (join, error) {
	name := given.Name
	if name == "" && given.Flag(schema.FlagPKJoin) && cls != nil {
		if pks := cls.PrimaryKeyColumns(); len(pks) == 1 {
			name = pks[0].Name
		}
	}

	if name == "" && !mode.Fill() {
		return join{}, metaErr(ctx, prefix+"-no-fkcol-name", "join column %d has no name", pos+1)
	}

	local, foreign := table, rel.Table()
	fullName, inverse := false, false

	qualifier := given.TableName
	if q, l := common.SplitQualified(name); q != "" {
		qualifier, name = q, l
	}

	if qualifier != "" {
		t, err := findTable(ctx, prefix, qualifier, local, foreign)
		if err != nil {
			return join{}, err
		}

		local, fullName = t, true
		if local != table {
			foreign, inverse = table, true
		}
	}

	// Unqualified columns of an inverse join live in the related table.
	if !fullName && mi.JoinDirection == JoinInverse && local != foreign {
		local, foreign, inverse = foreign, table, true
	}

	var (
		target     any
		ttable     *schema.Table
		targetName string
		fullTarget bool
	)

	val, constant, err := parseConstant(given.Target)
	if err != nil {
		return join{}, diagnostic.Wrap(err, prefix+"-bad-fkconst", describe(ctx), "bad constant target %q for join column %q", given.Target, name)
	}

	switch {
	case constant:
		target = val
	case given.Target != "":
		targetName = given.Target
		if q, l := common.SplitQualified(targetName); q != "" {
			fullTarget, targetName = true, l

			if ttable, err = findTable(ctx, prefix, q, local, foreign); err != nil {
				return join{}, err
			}
		}
	case given.TargetField != "":
		col, tt, err := mi.targetFieldColumn(ctx, prefix, given.TargetField, name, cls, rel, inverse)
		if err != nil {
			return join{}, err
		}

		target, ttable, fullTarget = col, tt, strings.Contains(given.TargetField, ".")
		targetName = col.Name
	}

	if ttable == local && local != foreign {
		if fullName {
			return join{}, metaErr(ctx, prefix+"-bad-fktarget-inverse", "join column %q and its target are both in %s", name, ttable)
		}

		local, foreign = foreign, ttable
	} else if ttable != nil {
		foreign = ttable
	}

	inverse = inverse || local != table || (local == foreign && fullName && !fullTarget)
	if !inversable && !constant && inverse {
		if local == foreign {
			return join{}, metaErr(ctx, prefix+"-bad-fk-self-inverse", "self join on %s cannot be inverse", local)
		}

		return join{}, metaErr(ctx, prefix+"-bad-fk-inverse", "join column in %s is not in the expected table %s", local, table)
	}

	if name == "" && constant {
		return join{}, metaErr(ctx, prefix+"-no-fkcol-name", "constant join %d has no column name", pos+1)
	}

	var tcol *schema.Column

	if !constant {
		if c, ok := target.(*schema.Column); ok {
			tcol = c
		} else if targetName != "" {
			if tcol = foreign.Column(targetName); tcol == nil {
				return join{}, metaErr(ctx, prefix+"-bad-fktarget", "target column %q does not exist in %s", targetName, foreign)
			}
		} else {
			pks := foreign.PrimaryKeyColumns()
			if len(pks) != n {
				return join{}, metaErr(ctx, prefix+"-no-fkcol-target", "join column %q needs an explicit target", name)
			}

			tcol = pks[pos]
		}

		target = tcol
	}

	tmpl := &schema.Column{Name: name}

	switch v := target.(type) {
	case *schema.Column:
		tmpl.JavaType = v.JavaType
		tmpl.Type = v.Type
		tmpl.TypeName = v.TypeName
		tmpl.Size = v.Size
		tmpl.DecimalDigits = v.DecimalDigits
	case string:
		tmpl.JavaType = typecode.String
	case int:
		tmpl.JavaType = typecode.Int
	case float64:
		tmpl.JavaType = typecode.Double
	}

	def.fill(local, foreign, tmpl, tcol, inverse, pos, n)

	if name != "" {
		tmpl.Name = name
	}

	g := given.Clone()
	g.Name, g.TableName = name, ""

	col, err := mi.mergeColumn(ctx, prefix, tmpl, true, g, local, mode)
	if err != nil {
		return join{}, err
	}

	return join{local: col, target: target, inverse: inverse, given: given}, nil
}

// targetFieldColumn resolves a "Field" or "Class.Field" join target to the
// single column of that field.
func (mi *MappingInfo) targetFieldColumn(ctx Context, prefix, path, colName string, cls, rel *ClassMapping, inverse bool) (*schema.Column, *schema.Table, error) {
	tcls := rel
	if inverse {
		tcls = cls
	}

	fieldName := path
	if q, l := common.SplitQualified(path); q != "" {
		fieldName = l
		tcls = findClassMapping(ctx, q, cls, rel)
	}

	if tcls == nil {
		return nil, nil, metaErr(ctx, prefix+"-bad-fktargetcls", "no class for target field %q of join column %q", path, colName)
	}

	fm := tcls.Field(fieldName)
	if fm == nil {
		return nil, nil, metaErr(ctx, prefix+"-bad-fktargetfield", "%s has no field %q", tcls, fieldName).
			WithSuggestions(suggestField(tcls, fieldName)...)
	}

	if err := ctx.Repository().ensureFieldResolved(fm); err != nil {
		return nil, nil, err
	}

	cols := fm.Columns()
	if len(cols) != 1 {
		return nil, nil, metaErr(ctx, prefix+"-fktargetfield-cols", "target field %s must map to exactly one column", fm)
	}

	return cols[0], cols[0].Table(), nil
}

func findClassMapping(ctx Context, name string, cls, rel *ClassMapping) *ClassMapping {
	for _, start := range []*ClassMapping{rel, cls} {
		for c := start; c != nil; c = c.super {
			if c.Name == name || common.UnqualifiedName(c.Name) == name {
				return c
			}
		}
	}

	return ctx.Repository().Class(name)
}

// syncColumns rewrites the declared columns from resolved ones.
func (mi *MappingInfo) syncColumns(ctx Context, cols []*schema.Column, forceType bool) {
	if len(cols) == 0 {
		mi.Columns = nil
		return
	}

	mi.Columns = make([]*schema.Column, len(cols))
	for i, c := range cols {
		cp := syncColumn(ctx, c, len(cols), forceType, c.Table(), nil, nil, false)
		mi.setColumnFlagsFromIO(cp, i)
		mi.Columns[i] = cp
	}
}

// syncIndex rewrites the declared index from a resolved one.
func (mi *MappingInfo) syncIndex(idx *schema.Index) {
	if idx == nil {
		mi.Index = nil
		return
	}

	mi.CanIndex = Unspecified
	mi.Index = schema.NewIndex(idx.Name, idx.Unique)

	if cols := idx.Columns(); len(cols) > 1 {
		mi.Index.SetColumns(cols)
	}
}

// syncUnique rewrites the declared unique constraint from a resolved one.
func (mi *MappingInfo) syncUnique(u *schema.Unique) {
	if u == nil {
		mi.Unique = nil
		return
	}

	mi.CanUnique = Unspecified
	mi.Unique = schema.NewUnique(u.Name, u.Deferred)

	if cols := u.Columns(); len(cols) > 1 {
		mi.Unique.SetColumns(cols)
	}
}

// syncForeignKey rewrites the declared foreign key and join columns from a
// resolved key. A logical key is recorded as an opt-out so that it is not
// turned into a physical key later.
func (mi *MappingInfo) syncForeignKey(ctx Context, fk *schema.ForeignKey, local, target *schema.Table) {
	if fk == nil {
		mi.ForeignKey = nil
		mi.Columns = nil
		mi.JoinDirection = JoinNone

		return
	}

	if mi.JoinDirection == JoinNone {
		mi.JoinDirection = JoinForward
	}

	if fk.IsLogical() {
		mi.ForeignKey = nil
		mi.CanForeignKey = Denied
	} else {
		mi.CanForeignKey = Unspecified
		mi.ForeignKey = schema.NewForeignKey(fk.Name, fk.DeleteAction)
		mi.ForeignKey.UpdateAction = fk.UpdateAction
		mi.ForeignKey.Deferred = fk.Deferred
	}

	cols, pks := fk.Columns(), fk.PrimaryKeyColumns()
	ccols, cs := fk.ConstantColumns(), fk.Constants()
	cpks, cpkVals := fk.ConstantPrimaryKeyColumns(), fk.PrimaryKeyConstants()

	n := len(cols) + len(ccols) + len(cpks)
	inverse := mi.JoinDirection == JoinInverse

	mi.Columns = make([]*schema.Column, 0, n)

	for i, c := range cols {
		cp := syncColumn(ctx, c, n, false, local, target, pks[i], inverse)
		mi.setColumnFlagsFromIO(cp, i)
		mi.Columns = append(mi.Columns, cp)
	}

	for i, c := range ccols {
		cp := syncColumn(ctx, c, n, false, local, target, constantOrNull(cs[i]), inverse)
		mi.setColumnFlagsFromIO(cp, len(cols)+i)
		mi.Columns = append(mi.Columns, cp)
	}

	for i, c := range cpks {
		mi.Columns = append(mi.Columns, syncColumn(ctx, c, n, false, target, local, constantOrNull(cpkVals[i]), !inverse))
	}
}

func constantOrNull(v any) any {
	if v == nil {
		return schema.Null
	}

	return v
}

// syncColumn returns the minimal declared form of col: attributes equal to
// what resolution would compute anyway are left unset.
func syncColumn(ctx Context, col *schema.Column, n int, forceType bool, colTable, targetTable *schema.Table, target any, inverse bool) *schema.Column {
	dict := ctx.Repository().Dictionary()
	cp := &schema.Column{Name: col.Name}

	if col.Table() != colTable || inverse {
		cp.Name = col.FullName()
	}

	switch v := target.(type) {
	case nil:
		if n > 1 {
			cp.TargetField = col.TargetField
		}
	case *schema.Column:
		switch {
		case (!inverse && v.Table() != targetTable) || (inverse && v.Table() != colTable):
			cp.Target = v.FullName()
		case !isDefaultTarget(v, n):
			cp.Target = v.Name
		}
	case int:
		cp.Target = strconv.Itoa(v)
	case float64:
		cp.Target = strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(cp.Target, ".eE") {
			cp.Target += ".0"
		}
	default:
		if v == schema.Null {
			cp.Target = "null"
		} else {
			cp.Target = "'" + toString(v) + "'"
		}
	}

	if col.Size != 0 && col.Size != dict.CharacterColumnSize && (col.Size != -1 || !col.Type.IsLob()) {
		cp.Size = col.Size
	}

	cp.DecimalDigits = col.DecimalDigits
	cp.Default = col.Default

	if col.NotNull && !col.IsPrimaryKey() && (!col.JavaType.IsPrimitive() || isForeignKeyColumn(col)) {
		cp.SetNotNull(true)
	}

	if col.TypeName != "" {
		shape := &schema.Column{Type: col.Type, JavaType: col.JavaType, Size: cp.Size, DecimalDigits: cp.DecimalDigits}
		if !strings.EqualFold(dict.TypeName(shape), col.TypeName) {
			cp.TypeName = col.TypeName
		}
	}

	if forceType || col.Type != dict.PreferredType(dict.JDBCType(col.JavaType, col.Type.IsLob(), col.Size, col.DecimalDigits, col.XML)) {
		cp.Type = col.Type
	}

	cp.Flags = col.Flags & schema.FlagPKJoin

	return cp
}

func isDefaultTarget(tcol *schema.Column, n int) bool {
	if n != 1 || !tcol.IsPrimaryKey() {
		return false
	}

	return len(tcol.Table().PrimaryKeyColumns()) == 1
}

func isForeignKeyColumn(col *schema.Column) bool {
	t := col.Table()
	if t == nil {
		return false
	}

	return slices.ContainsFunc(t.ForeignKeys(), func(fk *schema.ForeignKey) bool {
		return fk.ContainsColumn(col)
	})
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	if st, ok := v.(interface{ String() string }); ok {
		return st.String()
	}

	return ""
}
