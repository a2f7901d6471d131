package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// sqliteReader reads the catalog through the table-valued pragma
// functions. SQLite has one schema per attached database; only "main" is
// read.
type sqliteReader struct {
	q queryer
}

func openSQLite(ctx context.Context, dsn string) (Reader, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// One connection keeps ":memory:" databases visible to every query.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &sqliteReader{q: sqlQueryer{db: db}}, nil
}

func (r *sqliteReader) Dialect() string       { return "sqlite" }
func (r *sqliteReader) DefaultSchema() string { return "main" }
func (r *sqliteReader) Close() error          { return r.q.close() }

func (r *sqliteReader) TableNames(ctx context.Context, _ string) ([]string, error) {
	names, err := queryStrings(ctx, r.q,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}

	return names, nil
}

func (r *sqliteReader) ReadTable(ctx context.Context, _ string, table string) (*TableDef, error) {
	names, err := r.TableNames(ctx, "")
	if err != nil {
		return nil, err
	}

	if !slices.Contains(names, table) {
		return nil, nil
	}

	def := &TableDef{Name: table}

	if err := r.readColumns(ctx, def); err != nil {
		return nil, fmt.Errorf("sqlite: columns of %s: %w", table, err)
	}

	if err := r.readForeignKeys(ctx, def); err != nil {
		return nil, fmt.Errorf("sqlite: foreign keys of %s: %w", table, err)
	}

	if err := r.readIndexes(ctx, def); err != nil {
		return nil, fmt.Errorf("sqlite: indexes of %s: %w", table, err)
	}

	return def, nil
}

func (r *sqliteReader) readColumns(ctx context.Context, def *TableDef) error {
	type pkCol struct {
		pos  int
		name string
	}

	var pks []pkCol

	err := r.q.each(ctx, func(scan func(...any) error) error {
		var (
			c    ColumnDef
			decl string
			dflt sql.NullString
			pk   int
		)

		if err := scan(&c.Name, &decl, &c.NotNull, &dflt, &pk); err != nil {
			return err
		}

		c.TypeName, c.Size, c.Decimals = splitTypeSize(decl)
		c.Default = dflt.String

		if pk > 0 {
			pks = append(pks, pkCol{pos: pk, name: c.Name})
		}

		def.Columns = append(def.Columns, c)

		return nil
	}, `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, def.Name)
	if err != nil {
		return err
	}

	if len(pks) == 0 {
		return nil
	}

	slices.SortFunc(pks, func(a, b pkCol) int { return a.pos - b.pos })

	def.PrimaryKey = &KeyDef{}
	for _, p := range pks {
		def.PrimaryKey.Columns = append(def.PrimaryKey.Columns, p.name)
	}

	// An INTEGER PRIMARY KEY aliases the rowid.
	if len(pks) == 1 {
		for i := range def.Columns {
			if def.Columns[i].Name == pks[0].name && strings.EqualFold(def.Columns[i].TypeName, "INTEGER") {
				def.Columns[i].AutoIncrement = true
			}
		}
	}

	return nil
}

func (r *sqliteReader) readForeignKeys(ctx context.Context, def *TableDef) error {
	id := -1

	return r.q.each(ctx, func(scan func(...any) error) error {
		var (
			fkID            int
			ref, from       string
			to              sql.NullString
			onUpdate, onDel string
		)

		if err := scan(&fkID, &ref, &from, &to, &onUpdate, &onDel); err != nil {
			return err
		}

		if fkID != id {
			id = fkID
			def.ForeignKeys = append(def.ForeignKeys, ForeignKeyDef{
				RefTable: ref,
				OnDelete: parseAction(onDel),
				OnUpdate: parseAction(onUpdate),
			})
		}

		fk := &def.ForeignKeys[len(def.ForeignKeys)-1]
		fk.Columns = append(fk.Columns, from)
		// A missing target column refers to the primary key of the
		// referenced table.
		fk.RefColumns = append(fk.RefColumns, to.String)

		return nil
	}, `SELECT id, "table", "from", "to", on_update, on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`, def.Name)
}

func (r *sqliteReader) readIndexes(ctx context.Context, def *TableDef) error {
	var idxs []IndexDef

	err := r.q.each(ctx, func(scan func(...any) error) error {
		var (
			idx    IndexDef
			origin string
		)

		if err := scan(&idx.Name, &idx.Unique, &origin); err != nil {
			return err
		}

		if origin != "pk" {
			idxs = append(idxs, idx)
		}

		return nil
	}, `SELECT name, "unique", origin FROM pragma_index_list(?) ORDER BY name`, def.Name)
	if err != nil {
		return err
	}

	for _, idx := range idxs {
		cols, err := queryStrings(ctx, r.q, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, idx.Name)
		if err != nil {
			return err
		}

		idx.Columns = cols
		def.Indexes = append(def.Indexes, idx)
	}

	return nil
}
