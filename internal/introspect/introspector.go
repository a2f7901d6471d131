package introspect

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"relmap/internal/dict"
	"relmap/internal/logger"
	"relmap/internal/schema"
)

// DefaultConcurrency bounds the tables read at once by Load.
const DefaultConcurrency = 4

// Introspector reads live tables into a schema group. Column types are
// mapped through the dictionary of the reader's dialect.
type Introspector struct {
	reader      Reader
	dict        *dict.Dictionary
	concurrency int

	mu    sync.Mutex
	names map[string][]string // table names per database schema
}

// Open connects to the database and returns an Introspector for it.
func Open(ctx context.Context, dialect, dsn string) (*Introspector, error) {
	r, err := OpenReader(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}

	in, err := New(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	return in, nil
}

// New wraps a connected Reader.
func New(r Reader) (*Introspector, error) {
	d, err := dict.New(r.Dialect())
	if err != nil {
		return nil, err
	}

	return &Introspector{
		reader:      r,
		dict:        d,
		concurrency: DefaultConcurrency,
		names:       make(map[string][]string),
	}, nil
}

// SetConcurrency sets how many tables Load reads at once.
func (in *Introspector) SetConcurrency(n int) {
	in.concurrency = max(n, 1)
}

// Dictionary returns the dictionary of the database's dialect.
func (in *Introspector) Dictionary() *dict.Dictionary {
	return in.dict
}

// Close closes the underlying connection.
func (in *Introspector) Close() error {
	return in.reader.Close()
}

// dbSchema is the database schema read for a group schema name.
func (in *Introspector) dbSchema(schemaName string) string {
	if schemaName == "" {
		return in.reader.DefaultSchema()
	}

	return schemaName
}

func (in *Introspector) tableNames(ctx context.Context, dbSchema string) ([]string, error) {
	in.mu.Lock()
	names, ok := in.names[dbSchema]
	in.mu.Unlock()

	if ok {
		return names, nil
	}

	names, err := in.reader.TableNames(ctx, dbSchema)
	if err != nil {
		return nil, err
	}

	in.mu.Lock()
	in.names[dbSchema] = names
	in.mu.Unlock()

	return names, nil
}

// actualName finds the stored spelling of a table name, ignoring case.
func (in *Introspector) actualName(ctx context.Context, dbSchema, table string) (string, bool, error) {
	names, err := in.tableNames(ctx, dbSchema)
	if err != nil {
		return "", false, err
	}

	for _, n := range names {
		if strings.EqualFold(n, table) {
			return n, true, nil
		}
	}

	return "", false, nil
}

// Load reads the named tables of a schema into g, or every table when no
// names are given. Tables are read concurrently and added in the order
// named; foreign keys are added once all tables are present. The empty
// schema name reads the database's default schema into the group's
// default schema.
func (in *Introspector) Load(ctx context.Context, g *schema.Group, schemaName string, tables ...string) error {
	dbSchema := in.dbSchema(schemaName)

	if len(tables) == 0 {
		names, err := in.tableNames(ctx, dbSchema)
		if err != nil {
			return err
		}

		tables = names
	}

	defs := make([]*TableDef, len(tables))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(in.concurrency)

	for i, name := range tables {
		eg.Go(func() error {
			actual, ok, err := in.actualName(egCtx, dbSchema, name)
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("table %s.%s does not exist", dbSchema, name)
			}

			def, err := in.reader.ReadTable(egCtx, dbSchema, actual)
			if err != nil {
				return err
			}

			defs[i] = def

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("introspect: %w", err)
	}

	var added []*schema.Table

	for _, def := range defs {
		if def != nil {
			added = append(added, in.addTable(g, schemaName, def))
		}
	}

	for i, def := range defs {
		if def != nil {
			in.addForeignKeys(g, schemaName, added[i], def)
		}
	}

	logger.Debugf("introspect: loaded %d tables from %s", len(added), dbSchema)

	return nil
}

// Loader returns a schema.Loader that reads tables on demand, for groups
// resolved against an existing database.
func (in *Introspector) Loader(ctx context.Context) schema.Loader {
	return schema.LoaderFunc(func(g *schema.Group, schemaName, tableName string) (*schema.Table, error) {
		dbSchema := in.dbSchema(schemaName)

		actual, ok, err := in.actualName(ctx, dbSchema, tableName)
		if err != nil || !ok {
			return nil, err
		}

		def, err := in.reader.ReadTable(ctx, dbSchema, actual)
		if err != nil || def == nil {
			return nil, err
		}

		t := in.addTable(g, schemaName, def)
		in.addForeignKeys(g, schemaName, t, def)

		return t, nil
	})
}

func (in *Introspector) addTable(g *schema.Group, schemaName string, def *TableDef) *schema.Table {
	t := g.AddSchema(schemaName).AddTable(def.Name)

	for _, cd := range def.Columns {
		col := t.AddColumn(cd.Name)
		col.TypeName = cd.TypeName
		col.Type = in.dict.SQLType(cd.TypeName)
		col.Size = cd.Size
		col.DecimalDigits = cd.Decimals
		col.SetNotNull(cd.NotNull)
		col.Default = cd.Default
		col.AutoAssigned = cd.AutoIncrement
	}

	if def.PrimaryKey != nil {
		pk := t.AddPrimaryKey(def.PrimaryKey.Name)
		pk.SetColumns(columnsOf(t, def.PrimaryKey.Columns))
	}

	for _, id := range def.Indexes {
		idx := t.AddIndex(id.Name)
		idx.Unique = id.Unique
		idx.SetColumns(columnsOf(t, id.Columns))
	}

	return t
}

// addForeignKeys links t to the tables it references. References to
// tables outside the group are looked up through the group's loader and
// skipped when still missing.
func (in *Introspector) addForeignKeys(g *schema.Group, schemaName string, t *schema.Table, def *TableDef) {
	for _, fd := range def.ForeignKeys {
		refName := fd.RefTable
		if fd.RefSchema != "" {
			refName = fd.RefSchema + "." + fd.RefTable
		} else if schemaName != "" {
			refName = schemaName + "." + fd.RefTable
		}

		ref, err := g.FindTable(refName)
		if err != nil || ref == nil {
			logger.Warnf("introspect: %s: foreign key %s references unknown table %s", t.FullName(), fd.Name, refName)
			continue
		}

		refCols := columnsOf(ref, fd.RefColumns)
		if pkCols := ref.PrimaryKeyColumns(); len(pkCols) == len(refCols) {
			for i, c := range refCols {
				if c == nil {
					refCols[i] = pkCols[i]
				}
			}
		}

		fk := t.AddForeignKey(fd.Name)
		fk.DeleteAction = fd.OnDelete
		fk.UpdateAction = fd.OnUpdate

		for i, local := range columnsOf(t, fd.Columns) {
			if local != nil && refCols[i] != nil {
				fk.Join(local, refCols[i])
			}
		}
	}
}

func columnsOf(t *schema.Table, names []string) []*schema.Column {
	out := make([]*schema.Column, len(names))
	for i, n := range names {
		if n != "" {
			out[i] = t.Column(n)
		}
	}

	return out
}
