package directive

import (
	"fmt"

	"relmap/internal/meta"
	"relmap/internal/schema"
)

func toColumn(c Column) (*schema.Column, error) {
	col := &schema.Column{
		Name:          c.Name,
		TableName:     c.Table,
		TypeName:      c.TypeName,
		Size:          c.Size,
		DecimalDigits: c.Decimals,
		Default:       c.Default,
		Target:        c.Target,
		TargetField:   c.TargetField,
		AutoAssigned:  c.AutoAssigned,
		Comment:       c.Comment,
	}

	if c.Type != "" {
		t, ok := schema.ParseSQLType(c.Type)
		if !ok {
			return nil, fmt.Errorf("column %q: unknown SQL type %q", c.Name, c.Type)
		}

		col.Type = t
	}

	if c.NotNull != nil {
		col.SetNotNull(*c.NotNull)
	}

	if c.Insertable != nil && !*c.Insertable {
		col.SetFlag(schema.FlagUninsertable, true)
	}

	if c.Updatable != nil && !*c.Updatable {
		col.SetFlag(schema.FlagUnupdatable, true)
	}

	return col, nil
}

func toColumns(cs Columns) ([]*schema.Column, error) {
	if len(cs) == 0 {
		return nil, nil
	}

	out := make([]*schema.Column, len(cs))

	for i, c := range cs {
		col, err := toColumn(c)
		if err != nil {
			return nil, err
		}

		out[i] = col
	}

	return out, nil
}

func fromColumn(col *schema.Column) Column {
	c := Column{
		Name:         col.Name,
		Table:        col.TableName,
		TypeName:     col.TypeName,
		Size:         col.Size,
		Decimals:     col.DecimalDigits,
		Default:      col.Default,
		Target:       col.Target,
		TargetField:  col.TargetField,
		AutoAssigned: col.AutoAssigned,
		Comment:      col.Comment,
	}

	if col.Type != schema.Other {
		c.Type = col.Type.String()
	}

	if col.NotNullExplicit {
		c.NotNull = boolPtr(col.NotNull)
	}

	if col.Flag(schema.FlagUninsertable) {
		c.Insertable = boolPtr(false)
	}

	if col.Flag(schema.FlagUnupdatable) {
		c.Updatable = boolPtr(false)
	}

	return c
}

func fromColumns(cols []*schema.Column) Columns {
	if len(cols) == 0 {
		return nil
	}

	out := make(Columns, len(cols))
	for i, col := range cols {
		out[i] = fromColumn(col)
	}

	return out
}

func namedColumns(names []string) []*schema.Column {
	out := make([]*schema.Column, len(names))
	for i, n := range names {
		out[i] = &schema.Column{Name: n}
	}

	return out
}

func columnNames(cols []*schema.Column) []string {
	if len(cols) == 0 {
		return nil
	}

	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}

	return out
}

func toForeignKey(fk *ForeignKey) (*schema.ForeignKey, error) {
	if fk == nil {
		return nil, nil
	}

	del, ok := schema.ParseAction(fk.Delete)
	if !ok {
		return nil, fmt.Errorf("foreign key %q: unknown delete action %q", fk.Name, fk.Delete)
	}

	upd, ok := schema.ParseAction(fk.Update)
	if !ok {
		return nil, fmt.Errorf("foreign key %q: unknown update action %q", fk.Name, fk.Update)
	}

	out := schema.NewForeignKey(fk.Name, del)
	out.UpdateAction = upd
	out.Deferred = fk.Deferred

	return out, nil
}

func fromForeignKey(fk *schema.ForeignKey) *ForeignKey {
	if fk == nil {
		return nil
	}

	out := &ForeignKey{Name: fk.Name, Deferred: fk.Deferred}

	if fk.DeleteAction != schema.ActionNone {
		out.Delete = fk.DeleteAction.String()
	}

	if fk.UpdateAction != schema.ActionNone {
		out.Update = fk.UpdateAction.String()
	}

	return out
}

func toIndex(i *Index) *schema.Index {
	if i == nil {
		return nil
	}

	out := schema.NewIndex(i.Name, i.Unique)
	out.SetColumns(namedColumns(i.Columns))

	return out
}

func fromIndex(i *schema.Index) *Index {
	if i == nil {
		return nil
	}

	return &Index{Name: i.Name, Unique: i.Unique, Columns: columnNames(i.Columns())}
}

func toUnique(u *Unique) *schema.Unique {
	if u == nil {
		return nil
	}

	out := schema.NewUnique(u.Name, u.Deferred)
	out.SetColumns(namedColumns(u.Columns))

	return out
}

func fromUnique(u *schema.Unique) *Unique {
	if u == nil {
		return nil
	}

	return &Unique{Name: u.Name, Deferred: u.Deferred, Columns: columnNames(u.Columns())}
}

func toAllowance(b *bool) meta.Allowance {
	switch {
	case b == nil:
		return meta.Unspecified
	case *b:
		return meta.Allowed
	default:
		return meta.Denied
	}
}

func fromAllowance(a meta.Allowance) *bool {
	switch a {
	case meta.Allowed:
		return boolPtr(true)
	case meta.Denied:
		return boolPtr(false)
	default:
		return nil
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// applyComponents copies c into mi. Columns declared in c replace those of
// mi; unset components leave mi alone.
func applyComponents(mi *meta.MappingInfo, c *Components) error {
	if c.Strategy != "" {
		mi.Strategy = c.Strategy
	}

	cols, err := toColumns(c.Columns)
	if err != nil {
		return err
	}

	if cols != nil {
		mi.Columns = cols
	}

	if c.JoinDirection != "" {
		d, ok := meta.ParseJoinDirection(c.JoinDirection)
		if !ok {
			return fmt.Errorf("unknown join direction %q", c.JoinDirection)
		}

		mi.JoinDirection = d
	}

	fk, err := toForeignKey(c.ForeignKey)
	if err != nil {
		return err
	}

	if fk != nil {
		mi.ForeignKey = fk
	}

	if idx := toIndex(c.Index); idx != nil {
		mi.Index = idx
	}

	if u := toUnique(c.Unique); u != nil {
		mi.Unique = u
	}

	if c.CanIndex != nil {
		mi.CanIndex = toAllowance(c.CanIndex)
	}

	if c.CanUnique != nil {
		mi.CanUnique = toAllowance(c.CanUnique)
	}

	if c.CanForeignKey != nil {
		mi.CanForeignKey = toAllowance(c.CanForeignKey)
	}

	return nil
}

func exportComponents(mi *meta.MappingInfo) Components {
	c := Components{
		Strategy:      mi.Strategy,
		Columns:       fromColumns(mi.Columns),
		ForeignKey:    fromForeignKey(mi.ForeignKey),
		Index:         fromIndex(mi.Index),
		Unique:        fromUnique(mi.Unique),
		CanIndex:      fromAllowance(mi.CanIndex),
		CanUnique:     fromAllowance(mi.CanUnique),
		CanForeignKey: fromAllowance(mi.CanForeignKey),
	}

	if mi.JoinDirection != meta.JoinNone {
		c.JoinDirection = mi.JoinDirection.String()
	}

	return c
}

func (c *Components) empty() bool {
	return c.Strategy == "" && len(c.Columns) == 0 && c.JoinDirection == "" &&
		c.ForeignKey == nil && c.Index == nil && c.Unique == nil &&
		c.CanIndex == nil && c.CanUnique == nil && c.CanForeignKey == nil
}
