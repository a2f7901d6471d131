package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// mysqlReader reads information_schema. MySQL has no schemas below the
// database, so the schema read by default is the database named in the
// DSN.
type mysqlReader struct {
	q  queryer
	db string
}

func openMySQL(ctx context.Context, dsn string) (Reader, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: dsn: %w", err)
	}

	if cfg.DBName == "" {
		return nil, fmt.Errorf("mysql: dsn names no database")
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}

	return &mysqlReader{q: sqlQueryer{db: db}, db: cfg.DBName}, nil
}

func (r *mysqlReader) Dialect() string       { return "mysql" }
func (r *mysqlReader) DefaultSchema() string { return r.db }
func (r *mysqlReader) Close() error          { return r.q.close() }

func (r *mysqlReader) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	names, err := queryStrings(ctx, r.q, `
		SELECT TABLE_NAME FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("mysql: list tables of %s: %w", schemaName, err)
	}

	return names, nil
}

func (r *mysqlReader) ReadTable(ctx context.Context, schemaName, table string) (*TableDef, error) {
	def := &TableDef{Name: table}

	err := r.q.each(ctx, func(scan func(...any) error) error {
		var (
			c               ColumnDef
			size, precision sql.NullInt64
			scale           sql.NullInt64
			nullable, extra string
			dflt            sql.NullString
		)

		if err := scan(&c.Name, &c.TypeName, &size, &precision, &scale, &nullable, &dflt, &extra); err != nil {
			return err
		}

		switch {
		case size.Valid:
			c.Size = int(size.Int64)
		case precision.Valid && (c.TypeName == "decimal" || c.TypeName == "numeric"):
			c.Size = int(precision.Int64)
		}

		c.Decimals = int(scale.Int64)
		c.NotNull = nullable == "NO"
		c.Default = dflt.String
		c.AutoIncrement = strings.Contains(extra, "auto_increment")

		def.Columns = append(def.Columns, c)

		return nil
	}, `
		SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION,
		       NUMERIC_SCALE, IS_NULLABLE, COLUMN_DEFAULT, EXTRA
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("mysql: columns of %s.%s: %w", schemaName, table, err)
	}

	if len(def.Columns) == 0 {
		return nil, nil
	}

	if err := r.readIndexes(ctx, schemaName, def); err != nil {
		return nil, fmt.Errorf("mysql: indexes of %s.%s: %w", schemaName, table, err)
	}

	if err := r.readForeignKeys(ctx, schemaName, def); err != nil {
		return nil, fmt.Errorf("mysql: foreign keys of %s.%s: %w", schemaName, table, err)
	}

	return def, nil
}

func (r *mysqlReader) readIndexes(ctx context.Context, schemaName string, def *TableDef) error {
	return r.q.each(ctx, func(scan func(...any) error) error {
		var (
			name, column string
			nonUnique    int
		)

		if err := scan(&name, &nonUnique, &column); err != nil {
			return err
		}

		if name == "PRIMARY" {
			if def.PrimaryKey == nil {
				def.PrimaryKey = &KeyDef{Name: name}
			}

			def.PrimaryKey.Columns = append(def.PrimaryKey.Columns, column)

			return nil
		}

		if n := len(def.Indexes); n == 0 || def.Indexes[n-1].Name != name {
			def.Indexes = append(def.Indexes, IndexDef{KeyDef: KeyDef{Name: name}, Unique: nonUnique == 0})
		}

		idx := &def.Indexes[len(def.Indexes)-1]
		idx.Columns = append(idx.Columns, column)

		return nil
	}, `
		SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME = 'PRIMARY' DESC, INDEX_NAME, SEQ_IN_INDEX`, schemaName, def.Name)
}

func (r *mysqlReader) readForeignKeys(ctx context.Context, schemaName string, def *TableDef) error {
	return queryForeignKeys(ctx, r.q, schemaName, def, `
		SELECT k.CONSTRAINT_NAME, k.COLUMN_NAME, k.REFERENCED_TABLE_SCHEMA, k.REFERENCED_TABLE_NAME,
		       k.REFERENCED_COLUMN_NAME, rc.DELETE_RULE, rc.UPDATE_RULE
		FROM information_schema.KEY_COLUMN_USAGE k
		JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
		  ON rc.CONSTRAINT_SCHEMA = k.CONSTRAINT_SCHEMA AND rc.CONSTRAINT_NAME = k.CONSTRAINT_NAME
		WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ? AND k.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY k.CONSTRAINT_NAME, k.ORDINAL_POSITION`)
}
