package plan

import (
	"relmap/internal/analyze"
	"relmap/internal/diagnostic"
	"relmap/internal/meta"
	"relmap/internal/schema"
)

// ResolvedPlan is the final output of the resolution pipeline.
type ResolvedPlan struct {
	// Classes are the class mappings in resolution order.
	Classes []*meta.ClassMapping
	// Schema is the schema group the classes were resolved against,
	// including every table, column and constraint resolution created.
	Schema *schema.Group
	// Diagnostics contains all warnings and errors from class building,
	// directive application and resolution.
	Diagnostics diagnostic.Diagnostics

	// Repository owns the classes and the strategy registry.
	Repository *meta.Repository
	// TypeGraph holds the analyzed Go types.
	TypeGraph *analyze.TypeGraph
}

// Class looks a class mapping up by name.
func (p *ResolvedPlan) Class(name string) *meta.ClassMapping {
	return p.Repository.Class(name)
}

// ClassSummary describes how one class was mapped.
type ClassSummary struct {
	Name       string         `yaml:"class"`
	Superclass string         `yaml:"extends,omitempty"`
	Strategy   string         `yaml:"strategy,omitempty"`
	Table      string         `yaml:"table,omitempty"`
	PrimaryKey []string       `yaml:"primary-key,flow,omitempty"`
	Version    string         `yaml:"version,omitempty"`
	Fields     []FieldSummary `yaml:"fields,omitempty"`
}

// FieldSummary describes how one field was mapped.
type FieldSummary struct {
	Name     string   `yaml:"field"`
	Strategy string   `yaml:"strategy,omitempty"`
	Table    string   `yaml:"table,omitempty"`
	Columns  []string `yaml:"columns,flow,omitempty"`
	// Related names the class a relation field points at.
	Related string `yaml:"related,omitempty"`
}

// Summary lists the mapping of every resolved class. Unresolved classes
// are reported by name only.
func (p *ResolvedPlan) Summary() []ClassSummary {
	out := make([]ClassSummary, 0, len(p.Classes))

	for _, cm := range p.Classes {
		s := ClassSummary{Name: cm.Name}

		if sup := cm.Superclass(); sup != nil {
			s.Superclass = sup.Name
		}

		if !cm.IsResolved() {
			out = append(out, s)
			continue
		}

		if st := cm.Strategy(); st != nil {
			s.Strategy = st.Alias()
		}

		if t := cm.Table(); t != nil {
			s.Table = t.FullName()
		}

		s.PrimaryKey = columnNames(cm.PrimaryKeyColumns())

		if v := cm.Version(); v != nil && v.Strategy() != nil {
			s.Version = v.Strategy().Alias()
		}

		for _, fm := range cm.DeclaredFields() {
			if fs, ok := summarizeField(fm); ok {
				s.Fields = append(s.Fields, fs)
			}
		}

		out = append(out, s)
	}

	return out
}

func summarizeField(fm *meta.FieldMapping) (FieldSummary, bool) {
	if !fm.IsPersistent() || !fm.IsResolved() {
		return FieldSummary{}, false
	}

	fs := FieldSummary{
		Name:    fm.Name,
		Columns: columnNames(fm.Columns()),
	}

	if st := fm.Strategy(); st != nil {
		fs.Strategy = st.Alias()
	}

	if t := fm.Table(); t != nil {
		fs.Table = t.FullName()
	}

	rel := fm.Value().Related()
	if rel == nil && fm.Element() != nil {
		rel = fm.Element().Related()
	}

	if rel != nil {
		fs.Related = rel.Name
	}

	return fs, true
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
