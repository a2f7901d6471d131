package meta

import (
	"strconv"
	"strings"

	"relmap/internal/schema"
)

// VersionMappingInfo is the raw mapping of a class's version indicator.
type VersionMappingInfo struct {
	MappingInfo
}

// GetColumns resolves the version columns in the class table.
func (vi *VersionMappingInfo) GetColumns(v *Version, tmpls []*schema.Column, mode Mode) ([]*schema.Column, error) {
	table := v.ClassMapping().Table()
	v.Repository().Defaults().PopulateVersionColumns(v, table, tmpls)

	return vi.createColumns(v, "version", tmpls, table, mode)
}

// GetIndex resolves the index over the version columns.
func (vi *VersionMappingInfo) GetIndex(v *Version, cols []*schema.Column, mode Mode) (*schema.Index, error) {
	var tmpl *schema.Index
	if len(cols) > 0 {
		tmpl = v.Repository().Defaults().VersionIndex(v, cols[0].Table(), cols)
	}

	return vi.createIndex(v, "version", tmpl, cols, mode)
}

// Copy fills in the data other declares and vi leaves unset.
func (vi *VersionMappingInfo) Copy(other *VersionMappingInfo) {
	if other != nil {
		vi.MappingInfo.Copy(&other.MappingInfo)
	}
}

// SyncWith rewrites the info to the minimal form that resolves to v's
// current mapping.
func (vi *VersionMappingInfo) SyncWith(v *Version) {
	vi.Clear(false)

	s := v.Strategy()
	if s == nil || s.Alias() == VersionSuperclass {
		return
	}

	vi.SetColumnIO(v.ColumnIO())
	vi.syncColumns(v, v.Columns(), false)
	vi.syncIndex(v.Index())

	if def, err := v.Repository().DefaultVersionStrategy(v, false); err != nil || def == nil || def.Alias() != s.Alias() {
		vi.Strategy = s.Alias()
	}
}

// DiscriminatorMappingInfo is the raw mapping of a class's discriminator.
type DiscriminatorMappingInfo struct {
	MappingInfo

	// Value is the raw discriminator value: a quoted string, a number, null
	// or a bare string.
	Value string
}

// GetValue parses the declared value, falling back to the defaults when
// none is declared.
func (di *DiscriminatorMappingInfo) GetValue(d *Discriminator, mode Mode) any {
	if d.value != nil {
		return d.value
	}

	raw := strings.TrimSpace(di.Value)
	if raw == "" {
		return d.Repository().Defaults().DiscriminatorValue(d, mode.Adapt())
	}

	return parseDiscriminatorValue(raw)
}

func parseDiscriminatorValue(raw string) any {
	switch {
	case len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'':
		return raw[1 : len(raw)-1]
	case raw == "null":
		return DiscriminatorNull
	}

	if !strings.Contains(raw, ".") {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}

	return raw
}

// formatDiscriminatorValue is the inverse of parseDiscriminatorValue.
func formatDiscriminatorValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(x)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}

		return s
	case string:
		if p, ok := parseDiscriminatorValue(x).(string); ok && p == x {
			return x
		}

		return "'" + x + "'"
	default:
		if v == DiscriminatorNull {
			return "null"
		}

		return toString(v)
	}
}

// GetColumns resolves the discriminator columns in the class table.
func (di *DiscriminatorMappingInfo) GetColumns(d *Discriminator, tmpls []*schema.Column, mode Mode) ([]*schema.Column, error) {
	table := d.ClassMapping().Table()
	d.Repository().Defaults().PopulateDiscriminatorColumns(d, table, tmpls)

	return di.createColumns(d, "discriminator", tmpls, table, mode)
}

// GetIndex resolves the index over the discriminator columns.
func (di *DiscriminatorMappingInfo) GetIndex(d *Discriminator, cols []*schema.Column, mode Mode) (*schema.Index, error) {
	var tmpl *schema.Index
	if len(cols) > 0 {
		tmpl = d.Repository().Defaults().DiscriminatorIndex(d, cols[0].Table(), cols)
	}

	return di.createIndex(d, "discriminator", tmpl, cols, mode)
}

// HasSchemaComponents reports whether any schema data or a value was declared.
func (di *DiscriminatorMappingInfo) HasSchemaComponents() bool {
	return di.MappingInfo.HasSchemaComponents()
}

// Clear drops the declared data.
func (di *DiscriminatorMappingInfo) Clear(canFlags bool) {
	di.MappingInfo.Clear(canFlags)
	di.Value = ""
}

// Copy fills in the data other declares and di leaves unset.
func (di *DiscriminatorMappingInfo) Copy(other *DiscriminatorMappingInfo) {
	if other == nil {
		return
	}

	di.MappingInfo.Copy(&other.MappingInfo)

	if di.Value == "" {
		di.Value = other.Value
	}
}

// SyncWith rewrites the info to the minimal form that resolves to d's
// current mapping.
func (di *DiscriminatorMappingInfo) SyncWith(d *Discriminator) {
	di.Clear(false)

	s := d.Strategy()
	if s != nil && s.Alias() != DiscriminatorSuperclass {
		di.SetColumnIO(d.ColumnIO())
		di.syncColumns(d, d.Columns(), false)
		di.syncIndex(d.Index())
	}

	if v := d.Value(); v != nil && d.storesValue() {
		if def := d.Repository().Defaults().DiscriminatorValue(d, false); def != v {
			di.Value = formatDiscriminatorValue(v)
		}
	}

	if s == nil || s.Alias() == DiscriminatorSuperclass {
		return
	}

	if def, err := d.Repository().DefaultDiscriminatorStrategy(d, false); err != nil || def == nil || def.Alias() != s.Alias() {
		di.Strategy = s.Alias()
	}
}
