package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"relmap/internal/dict"
	"relmap/internal/logger"
	"relmap/internal/schema"
)

// Config controls which statements Generate emits.
type Config struct {
	// Indexes emits CREATE INDEX statements.
	Indexes bool
	// ForeignKeys emits physical foreign key constraints.
	ForeignKeys bool
	// Terminator ends every statement when a script is written.
	Terminator string
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		Indexes:     true,
		ForeignKeys: true,
		Terminator:  ";",
	}
}

// Kind classifies a statement.
type Kind int

const (
	CreateTable Kind = iota
	CreateIndex
	AddForeignKey
)

func (k Kind) String() string {
	switch k {
	case CreateTable:
		return "create-table"
	case CreateIndex:
		return "create-index"
	case AddForeignKey:
		return "add-foreign-key"
	default:
		return "unknown"
	}
}

// Statement is one rendered DDL statement.
type Statement struct {
	Kind  Kind
	Table string
	SQL   string
}

// Script is an ordered list of statements for one dialect.
type Script struct {
	Dialect    string
	Statements []Statement

	terminator string
}

// String renders the script, one statement per paragraph.
func (s *Script) String() string {
	var b strings.Builder
	_, _ = s.WriteTo(&b)

	return b.String()
}

// WriteTo writes the rendered script to w. Consecutive index and
// constraint statements share a paragraph.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	var total int64

	write := func(str string) error {
		n, err := io.WriteString(w, str)
		total += int64(n)

		return err
	}

	for i, st := range s.Statements {
		if i > 0 {
			sep := "\n\n"
			if st.Kind != CreateTable && st.Kind == s.Statements[i-1].Kind {
				sep = "\n"
			}

			if err := write(sep); err != nil {
				return total, err
			}
		}

		if err := write(st.SQL + s.terminator); err != nil {
			return total, err
		}
	}

	if len(s.Statements) == 0 {
		return total, nil
	}

	return total, write("\n")
}

var createTableTmpl = template.Must(template.New("create-table").Parse(
	`CREATE TABLE {{.Name}} (
{{- range $i, $e := .Elements}}{{if $i}},{{end}}
    {{$e}}
{{- end}}
)`))

type createTableData struct {
	Name     string
	Elements []string
}

// Generator renders the DDL of a schema group for one dialect.
type Generator struct {
	dict   *dict.Dictionary
	syntax syntax
	config Config
}

// NewGenerator creates a generator for the dictionary's dialect.
func NewGenerator(d *dict.Dictionary, config Config) *Generator {
	return &Generator{
		dict:   d,
		syntax: syntaxFor(d.Name),
		config: config,
	}
}

// Generate renders CREATE TABLE statements for every table of g, ordered
// so that referenced tables come first, followed by their indexes. Foreign
// keys that point forward in that order, which only happens on reference
// cycles, are added afterwards with ALTER TABLE when the dialect allows it.
// Logical primary and foreign keys are not emitted.
func (gen *Generator) Generate(g *schema.Group) (*Script, error) {
	tables := g.Tables()

	index := make(map[*schema.Table]int, len(tables))
	for i, t := range tables {
		index[t] = i
	}

	order, err := topoSort(len(tables), func(i int) []int {
		var deps []int

		for _, fk := range gen.foreignKeys(tables[i]) {
			if j, ok := index[fk.PrimaryKeyTable()]; ok {
				deps = append(deps, j)
			}
		}

		return deps
	})

	var cyc *CycleError
	if err != nil && !errors.As(err, &cyc) {
		return nil, err
	}

	if cyc != nil {
		logger.Debugf("gen: %d tables reference each other; deferring their foreign keys", len(cyc.Nodes))
	}

	pos := make(map[*schema.Table]int, len(tables))
	for p, i := range order {
		pos[tables[i]] = p
	}

	script := &Script{Dialect: gen.dict.Name, terminator: gen.config.Terminator}

	var (
		indexes  []Statement
		deferred []Statement
	)

	for _, i := range order {
		t := tables[i]

		if len(t.Columns()) == 0 {
			logger.Warnf("gen: table %s has no columns; skipped", t.FullName())
			continue
		}

		var inline []*schema.ForeignKey

		for _, fk := range gen.foreignKeys(t) {
			p, ok := pos[fk.PrimaryKeyTable()]
			if !ok || p <= pos[t] || !gen.syntax.alterForeignKey {
				inline = append(inline, fk)
				continue
			}

			deferred = append(deferred, Statement{
				Kind:  AddForeignKey,
				Table: t.FullName(),
				SQL:   "ALTER TABLE " + t.FullName() + " ADD " + gen.foreignKey(fk),
			})
		}

		sql, err := gen.createTable(t, inline)
		if err != nil {
			return nil, err
		}

		script.Statements = append(script.Statements, Statement{Kind: CreateTable, Table: t.FullName(), SQL: sql})

		if gen.config.Indexes {
			indexes = append(indexes, gen.createIndexes(t)...)
		}
	}

	script.Statements = append(script.Statements, indexes...)
	script.Statements = append(script.Statements, deferred...)

	return script, nil
}

// foreignKeys returns the physical foreign keys of t that join columns.
func (gen *Generator) foreignKeys(t *schema.Table) []*schema.ForeignKey {
	if !gen.config.ForeignKeys {
		return nil
	}

	var out []*schema.ForeignKey

	for _, fk := range t.ForeignKeys() {
		if fk.IsLogical() || len(fk.Columns()) == 0 {
			continue
		}

		out = append(out, fk)
	}

	return out
}

func (gen *Generator) createTable(t *schema.Table, fks []*schema.ForeignKey) (string, error) {
	data := createTableData{Name: t.FullName()}

	for _, c := range t.Columns() {
		data.Elements = append(data.Elements, gen.column(c))
	}

	if pk := t.PrimaryKey(); pk != nil && !pk.Logical && len(pk.Columns()) > 0 {
		data.Elements = append(data.Elements, constraintName(pk.Name)+"PRIMARY KEY ("+columnNames(pk.Columns())+")")
	}

	if gen.dict.SupportsUniqueConstraints() {
		for _, u := range t.Uniques() {
			el := constraintName(u.Name) + "UNIQUE (" + columnNames(u.Columns()) + ")"
			if u.Deferred && gen.dict.SupportsDeferredConstraints() {
				el += " DEFERRABLE INITIALLY DEFERRED"
			}

			data.Elements = append(data.Elements, el)
		}
	}

	for _, fk := range fks {
		data.Elements = append(data.Elements, gen.foreignKey(fk))
	}

	var buf bytes.Buffer
	if err := createTableTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering table %s: %w", t.FullName(), err)
	}

	return buf.String(), nil
}

func (gen *Generator) column(c *schema.Column) string {
	parts := []string{c.Name, gen.dict.TypeName(c)}

	if c.Default != "" {
		parts = append(parts, "DEFAULT "+c.Default)
	}

	if c.NotNull || c.IsPrimaryKey() {
		parts = append(parts, "NOT NULL")
	}

	if c.AutoAssigned && gen.syntax.autoIncrement != "" {
		parts = append(parts, gen.syntax.autoIncrement)
	}

	return strings.Join(parts, " ")
}

func (gen *Generator) foreignKey(fk *schema.ForeignKey) string {
	var b strings.Builder

	b.WriteString(constraintName(fk.Name))
	b.WriteString("FOREIGN KEY (")
	b.WriteString(columnNames(fk.Columns()))
	b.WriteString(") REFERENCES ")
	b.WriteString(fk.PrimaryKeyTable().FullName())
	b.WriteString(" (")
	b.WriteString(columnNames(fk.PrimaryKeyColumns()))
	b.WriteString(")")

	if a := fk.DeleteAction; a.SQL() != "" && gen.dict.SupportsDeleteAction(a) {
		b.WriteString(" ON DELETE " + a.SQL())
	}

	if a := fk.UpdateAction; a.SQL() != "" && gen.dict.SupportsUpdateAction(a) {
		b.WriteString(" ON UPDATE " + a.SQL())
	}

	if fk.Deferred && gen.dict.SupportsDeferredConstraints() {
		b.WriteString(" DEFERRABLE INITIALLY DEFERRED")
	}

	return b.String()
}

// createIndexes renders the indexes of t, plus its unique constraints when
// the dialect only knows unique indexes.
func (gen *Generator) createIndexes(t *schema.Table) []Statement {
	var out []Statement

	add := func(name string, unique bool, cols []*schema.Column) {
		if len(cols) == 0 {
			return
		}

		if name == "" {
			name = gen.dict.ValidIndexName("I_"+t.Name+"_"+cols[0].Name, t)
		}

		kw := "CREATE INDEX "
		if unique {
			kw = "CREATE UNIQUE INDEX "
		}

		out = append(out, Statement{
			Kind:  CreateIndex,
			Table: t.FullName(),
			SQL:   kw + name + " ON " + t.FullName() + " (" + columnNames(cols) + ")",
		})
	}

	for _, idx := range t.Indexes() {
		add(idx.Name, idx.Unique, idx.Columns())
	}

	if !gen.dict.SupportsUniqueConstraints() {
		for _, u := range t.Uniques() {
			add(u.Name, true, u.Columns())
		}
	}

	return out
}

func constraintName(name string) string {
	if name == "" {
		return ""
	}

	return "CONSTRAINT " + name + " "
}

func columnNames(cols []*schema.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	return strings.Join(names, ", ")
}
