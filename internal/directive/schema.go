package directive

// File is the root of a YAML mapping directive file. Directives are the
// raw, possibly partial mapping data: anything left out is filled in from
// the mapping defaults when resolving in Fill or Adapt mode.
type File struct {
	// Version of the directive format.
	Version string `yaml:"version,omitempty"`

	// Classes holds one entry per mapped class.
	Classes []ClassDirective `yaml:"classes"`
}

// Components are the schema components every mapping info may declare.
// The meaning of Columns depends on the owner: datastore id or superclass
// join columns for a class, join columns back to the class table for a
// field, value or relation columns for a value.
type Components struct {
	Strategy      string      `yaml:"strategy,omitempty"`
	Columns       Columns     `yaml:"columns,omitempty"`
	JoinDirection string      `yaml:"join-direction,omitempty"`
	ForeignKey    *ForeignKey `yaml:"foreign-key,omitempty"`
	Index         *Index      `yaml:"index,omitempty"`
	Unique        *Unique     `yaml:"unique,omitempty"`

	// CanIndex, CanUnique and CanForeignKey set to false forbid the
	// component; set to true they allow it where defaults would not.
	CanIndex      *bool `yaml:"can-index,omitempty"`
	CanUnique     *bool `yaml:"can-unique,omitempty"`
	CanForeignKey *bool `yaml:"can-foreign-key,omitempty"`
}

// ClassDirective maps one class.
type ClassDirective struct {
	// Class is the qualified type name, or an unambiguous unqualified one.
	Class string `yaml:"class"`

	Table  string `yaml:"table,omitempty"`
	Schema string `yaml:"schema,omitempty"`
	// Hierarchy is the class strategy subclasses default to.
	Hierarchy string `yaml:"hierarchy,omitempty"`
	Joined    bool   `yaml:"joined,omitempty"`

	Components `yaml:",inline"`

	SecondaryTables []SecondaryTable `yaml:"secondary-tables,omitempty"`
	Uniques         []Unique         `yaml:"uniques,omitempty"`

	Version       *VersionDirective       `yaml:"version,omitempty"`
	Discriminator *DiscriminatorDirective `yaml:"discriminator,omitempty"`

	Fields []FieldDirective `yaml:"fields,omitempty"`
}

// SecondaryTable declares an extra table of a class and its join columns.
type SecondaryTable struct {
	Table       string  `yaml:"table"`
	JoinColumns Columns `yaml:"join-columns,omitempty"`
}

// FieldDirective maps one field.
type FieldDirective struct {
	Field string `yaml:"field"`

	// Table names a join table or secondary table.
	Table     string `yaml:"table,omitempty"`
	OuterJoin bool   `yaml:"outer-join,omitempty"`

	Components `yaml:",inline"`

	OrderColumn    *Column  `yaml:"order-column,omitempty"`
	CanOrderColumn *bool    `yaml:"can-order-column,omitempty"`
	JoinUniques    []Unique `yaml:"join-table-uniques,omitempty"`

	Value   *ValueDirective `yaml:"value,omitempty"`
	Key     *ValueDirective `yaml:"key,omitempty"`
	Element *ValueDirective `yaml:"element,omitempty"`
}

// ValueDirective maps a field value, map key or collection element.
type ValueDirective struct {
	Components `yaml:",inline"`

	UseClassCriteria bool  `yaml:"use-class-criteria,omitempty"`
	CanIndicateNull  *bool `yaml:"can-indicate-null,omitempty"`

	// Embedded maps the fields of an embedded value for this embedding
	// only.
	Embedded []FieldDirective `yaml:"embedded,omitempty"`
}

// VersionDirective maps a class's version indicator.
type VersionDirective struct {
	Components `yaml:",inline"`
}

// DiscriminatorDirective maps a class's discriminator.
type DiscriminatorDirective struct {
	Components `yaml:",inline"`

	// Value is a quoted string, a number, null or a bare string.
	Value string `yaml:"value,omitempty"`
}

// Column declares a column. In YAML a bare scalar is a column name.
type Column struct {
	Name  string `yaml:"name"`
	Table string `yaml:"table,omitempty"`

	// Type is a JDBC type name such as VARCHAR; TypeName is the database's
	// own spelling when it differs.
	Type     string `yaml:"type,omitempty"`
	TypeName string `yaml:"type-name,omitempty"`
	Size     int    `yaml:"size,omitempty"`
	Decimals int    `yaml:"decimals,omitempty"`

	NotNull *bool  `yaml:"not-null,omitempty"`
	Default string `yaml:"default,omitempty"`

	// Target names the joined column, a qualified column or a constant.
	Target      string `yaml:"target,omitempty"`
	TargetField string `yaml:"target-field,omitempty"`

	Insertable   *bool  `yaml:"insertable,omitempty"`
	Updatable    *bool  `yaml:"updatable,omitempty"`
	AutoAssigned bool   `yaml:"auto-assigned,omitempty"`
	Comment      string `yaml:"comment,omitempty"`
}

// Columns is an ordered column list. In YAML a bare scalar is a one-column
// list.
type Columns []Column

// Names returns the column names.
func (cs Columns) Names() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}

	return out
}

// ForeignKey declares a foreign key. Actions are spelled "restrict",
// "cascade", "null", "default" or "none".
type ForeignKey struct {
	Name     string `yaml:"name,omitempty"`
	Delete   string `yaml:"delete,omitempty"`
	Update   string `yaml:"update,omitempty"`
	Deferred bool   `yaml:"deferred,omitempty"`
}

// Index declares an index. In YAML a bare scalar is the index name.
type Index struct {
	Name    string   `yaml:"name,omitempty"`
	Unique  bool     `yaml:"unique,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
}

// Unique declares a unique constraint. In YAML a bare scalar is the
// constraint name. Table applies to class-level uniques only and defaults
// to the class table.
type Unique struct {
	Name     string   `yaml:"name,omitempty"`
	Table    string   `yaml:"table,omitempty"`
	Deferred bool     `yaml:"deferred,omitempty"`
	Columns  []string `yaml:"columns,omitempty"`
}
