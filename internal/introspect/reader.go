package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Reader reads table definitions from one database.
type Reader interface {
	// Dialect returns the dictionary name of the database.
	Dialect() string
	// DefaultSchema is the schema read when none is given.
	DefaultSchema() string
	// TableNames lists the base tables of a schema.
	TableNames(ctx context.Context, schemaName string) ([]string, error)
	// ReadTable returns the definition of a table, or nil when the table
	// does not exist.
	ReadTable(ctx context.Context, schemaName, table string) (*TableDef, error)
	Close() error
}

// Opener connects a Reader to the database at dsn.
type Opener func(ctx context.Context, dsn string) (Reader, error)

var (
	mu      sync.RWMutex
	openers = map[string]Opener{}
)

// Register registers (or replaces) the opener for a dialect name.
func Register(dialect string, o Opener) {
	mu.Lock()
	defer mu.Unlock()
	openers[strings.ToLower(dialect)] = o
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(openers))
	for n := range openers {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

// OpenReader connects to dsn with the backend registered for dialect.
func OpenReader(ctx context.Context, dialect, dsn string) (Reader, error) {
	mu.RLock()
	o, ok := openers[strings.ToLower(dialect)]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no schema reader for dialect %q (registered: %s)", dialect, strings.Join(Dialects(), ", "))
	}

	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", dialect)
	}

	return o(ctx, dsn)
}

func init() {
	Register("postgres", openPostgres)
	Register("sqlite", openSQLite)
	Register("mssql", openMSSQL)
	Register("mysql", openMySQL)
}

// queryer runs catalog queries. each calls fn once per result row with a
// function that scans the row.
type queryer interface {
	each(ctx context.Context, fn func(scan func(dest ...any) error) error, query string, args ...any) error
	close() error
}

type sqlQueryer struct {
	db *sql.DB
}

func (q sqlQueryer) each(ctx context.Context, fn func(scan func(dest ...any) error) error, query string, args ...any) error {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (q sqlQueryer) close() error {
	return q.db.Close()
}

type pgxQueryer struct {
	pool *pgxpool.Pool
}

func (q pgxQueryer) each(ctx context.Context, fn func(scan func(dest ...any) error) error, query string, args ...any) error {
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (q pgxQueryer) close() error {
	q.pool.Close()
	return nil
}

// queryStrings reads a one-column result.
func queryStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	var out []string

	err := q.each(ctx, func(scan func(...any) error) error {
		var s string
		if err := scan(&s); err != nil {
			return err
		}

		out = append(out, s)

		return nil
	}, query, args...)

	return out, err
}

// queryForeignKeys reads foreign keys from rows of (name, column,
// referenced schema, table and column, delete rule, update rule) ordered
// by name and position.
func queryForeignKeys(ctx context.Context, q queryer, schemaName string, def *TableDef, query string) error {
	return q.each(ctx, func(scan func(...any) error) error {
		var (
			name, column, refSchema, refTable, refColumn string
			onDelete, onUpdate                           string
		)

		if err := scan(&name, &column, &refSchema, &refTable, &refColumn, &onDelete, &onUpdate); err != nil {
			return err
		}

		if n := len(def.ForeignKeys); n == 0 || def.ForeignKeys[n-1].Name != name {
			fk := ForeignKeyDef{
				KeyDef:   KeyDef{Name: name},
				RefTable: refTable,
				OnDelete: parseAction(onDelete),
				OnUpdate: parseAction(onUpdate),
			}

			if refSchema != schemaName {
				fk.RefSchema = refSchema
			}

			def.ForeignKeys = append(def.ForeignKeys, fk)
		}

		fk := &def.ForeignKeys[len(def.ForeignKeys)-1]
		fk.Columns = append(fk.Columns, column)
		fk.RefColumns = append(fk.RefColumns, refColumn)

		return nil
	}, query, schemaName, def.Name)
}
