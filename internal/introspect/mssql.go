package introspect

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
	"github.com/microsoft/go-mssqldb/msdsn"
)

type mssqlReader struct {
	q queryer
}

func openMSSQL(ctx context.Context, dsn string) (Reader, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql: dsn: %w", err)
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}

	return &mssqlReader{q: sqlQueryer{db: db}}, nil
}

func (r *mssqlReader) Dialect() string       { return "mssql" }
func (r *mssqlReader) DefaultSchema() string { return "dbo" }
func (r *mssqlReader) Close() error          { return r.q.close() }

func (r *mssqlReader) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	names, err := queryStrings(ctx, r.q, `
		SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("mssql: list tables of %s: %w", schemaName, err)
	}

	return names, nil
}

func (r *mssqlReader) ReadTable(ctx context.Context, schemaName, table string) (*TableDef, error) {
	def := &TableDef{Name: table}

	err := r.q.each(ctx, func(scan func(...any) error) error {
		var (
			c               ColumnDef
			size, precision sql.NullInt64
			scale           sql.NullInt64
			nullable        string
			dflt            sql.NullString
			identity        bool
		)

		if err := scan(&c.Name, &c.TypeName, &size, &precision, &scale, &nullable, &dflt, &identity); err != nil {
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
		c.AutoIncrement = identity

		def.Columns = append(def.Columns, c)

		return nil
	}, `
		SELECT c.COLUMN_NAME, c.DATA_TYPE, c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION,
		       c.NUMERIC_SCALE, c.IS_NULLABLE, c.COLUMN_DEFAULT,
		       CAST(COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)),
		            c.COLUMN_NAME, 'IsIdentity') AS bit)
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("mssql: columns of %s.%s: %w", schemaName, table, err)
	}

	if len(def.Columns) == 0 {
		return nil, nil
	}

	if err := r.readIndexes(ctx, schemaName, def); err != nil {
		return nil, fmt.Errorf("mssql: indexes of %s.%s: %w", schemaName, table, err)
	}

	if err := r.readForeignKeys(ctx, schemaName, def); err != nil {
		return nil, fmt.Errorf("mssql: foreign keys of %s.%s: %w", schemaName, table, err)
	}

	return def, nil
}

func (r *mssqlReader) readIndexes(ctx context.Context, schemaName string, def *TableDef) error {
	return r.q.each(ctx, func(scan func(...any) error) error {
		var (
			name, column    string
			unique, primary bool
		)

		if err := scan(&name, &unique, &primary, &column); err != nil {
			return err
		}

		if primary {
			if def.PrimaryKey == nil {
				def.PrimaryKey = &KeyDef{Name: name}
			}

			def.PrimaryKey.Columns = append(def.PrimaryKey.Columns, column)

			return nil
		}

		if n := len(def.Indexes); n == 0 || def.Indexes[n-1].Name != name {
			def.Indexes = append(def.Indexes, IndexDef{KeyDef: KeyDef{Name: name}, Unique: unique})
		}

		idx := &def.Indexes[len(def.Indexes)-1]
		idx.Columns = append(idx.Columns, column)

		return nil
	}, `
		SELECT i.name, i.is_unique, i.is_primary_key, col.name
		FROM sys.indexes i
		JOIN sys.tables t ON t.object_id = i.object_id
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
		WHERE SCHEMA_NAME(t.schema_id) = @p1 AND t.name = @p2 AND i.type > 0 AND ic.is_included_column = 0
		ORDER BY i.is_primary_key DESC, i.name, ic.key_ordinal`, schemaName, def.Name)
}

func (r *mssqlReader) readForeignKeys(ctx context.Context, schemaName string, def *TableDef) error {
	return queryForeignKeys(ctx, r.q, schemaName, def, `
		SELECT fk.name, pc.name, SCHEMA_NAME(rt.schema_id), rt.name, rc.name,
		       fk.delete_referential_action_desc, fk.update_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.tables pt ON pt.object_id = fk.parent_object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE SCHEMA_NAME(pt.schema_id) = @p1 AND pt.name = @p2
		ORDER BY fk.name, fkc.constraint_column_id`)
}
