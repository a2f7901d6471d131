package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresReader struct {
	q queryer
}

func openPostgres(ctx context.Context, dsn string) (Reader, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &postgresReader{q: pgxQueryer{pool: pool}}, nil
}

func (r *postgresReader) Dialect() string       { return "postgres" }
func (r *postgresReader) DefaultSchema() string { return "public" }
func (r *postgresReader) Close() error          { return r.q.close() }

func (r *postgresReader) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	names, err := queryStrings(ctx, r.q, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tables of %s: %w", schemaName, err)
	}

	return names, nil
}

func (r *postgresReader) ReadTable(ctx context.Context, schemaName, table string) (*TableDef, error) {
	def := &TableDef{Name: table}

	err := r.q.each(ctx, func(scan func(...any) error) error {
		var (
			c         ColumnDef
			size      *int32
			precision *int32
			scale     *int32
			nullable  string
			dflt      *string
		)

		if err := scan(&c.Name, &c.TypeName, &size, &precision, &scale, &nullable, &dflt); err != nil {
			return err
		}

		switch {
		case size != nil:
			c.Size = int(*size)
		case precision != nil && strings.EqualFold(c.TypeName, "numeric"):
			c.Size = int(*precision)
		}

		if scale != nil {
			c.Decimals = int(*scale)
		}

		c.NotNull = nullable == "NO"

		if dflt != nil {
			c.Default = *dflt
			c.AutoIncrement = strings.HasPrefix(c.Default, "nextval(")
		}

		def.Columns = append(def.Columns, c)

		return nil
	}, `
		SELECT column_name, data_type, character_maximum_length, numeric_precision,
		       numeric_scale, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("postgres: columns of %s.%s: %w", schemaName, table, err)
	}

	if len(def.Columns) == 0 {
		return nil, nil
	}

	if err := r.readIndexes(ctx, schemaName, def); err != nil {
		return nil, fmt.Errorf("postgres: indexes of %s.%s: %w", schemaName, table, err)
	}

	if err := r.readForeignKeys(ctx, schemaName, def); err != nil {
		return nil, fmt.Errorf("postgres: foreign keys of %s.%s: %w", schemaName, table, err)
	}

	return def, nil
}

func (r *postgresReader) readIndexes(ctx context.Context, schemaName string, def *TableDef) error {
	var cur *IndexDef

	primary := false

	flush := func() {
		if cur == nil {
			return
		}

		if primary {
			def.PrimaryKey = &cur.KeyDef
		} else {
			def.Indexes = append(def.Indexes, *cur)
		}
	}

	err := r.q.each(ctx, func(scan func(...any) error) error {
		var (
			name, column   string
			unique, isPrim bool
		)

		if err := scan(&name, &unique, &isPrim, &column); err != nil {
			return err
		}

		if cur == nil || cur.Name != name {
			flush()

			cur = &IndexDef{KeyDef: KeyDef{Name: name}, Unique: unique}
			primary = isPrim
		}

		cur.Columns = append(cur.Columns, column)

		return nil
	}, `
		SELECT i.relname, ix.indisunique, ix.indisprimary, a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class i ON i.oid = ix.indexrelid
		CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relname = $2
		ORDER BY i.relname, k.ord`, schemaName, def.Name)
	if err != nil {
		return err
	}

	flush()

	return nil
}

func (r *postgresReader) readForeignKeys(ctx context.Context, schemaName string, def *TableDef) error {
	return queryForeignKeys(ctx, r.q, schemaName, def, `
		SELECT con.conname, att.attname, ref_ns.nspname, ref.relname, ref_att.attname,
		       con.confdeltype::text, con.confupdtype::text
		FROM pg_constraint con
		JOIN pg_class cls ON cls.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = cls.relnamespace
		JOIN pg_class ref ON ref.oid = con.confrelid
		JOIN pg_namespace ref_ns ON ref_ns.oid = ref.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refnum, ord)
		JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = k.attnum
		JOIN pg_attribute ref_att ON ref_att.attrelid = con.confrelid AND ref_att.attnum = k.refnum
		WHERE con.contype = 'f' AND ns.nspname = $1 AND cls.relname = $2
		ORDER BY con.conname, k.ord`)
}
