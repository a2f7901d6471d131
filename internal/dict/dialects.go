package dict

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"relmap/internal/schema"
)

// Factory builds a fresh Dictionary.
type Factory func() *Dictionary

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a dialect name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(name)] = f
}

// New builds the dictionary registered under name.
func New(name string) (*Dictionary, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(name)]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (registered: %s)", name, strings.Join(Names(), ", "))
	}

	return f(), nil
}

// Names returns the registered dialect names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

func init() {
	Register("generic", Generic)
	Register("postgres", Postgres)
	Register("sqlite", SQLite)
	Register("mssql", MSSQL)
	Register("mysql", MySQL)
}

var sql92Reserved = []string{
	"ABSOLUTE", "ACTION", "ADD", "ALL", "ALTER", "AND", "ANY", "AS", "ASC",
	"AUTHORIZATION", "AVG", "BEGIN", "BETWEEN", "BIT", "BOTH", "BY", "CASCADE",
	"CASE", "CAST", "CHAR", "CHARACTER", "CHECK", "CLOSE", "COLUMN", "COMMIT",
	"CONSTRAINT", "COUNT", "CREATE", "CROSS", "CURRENT", "CURRENT_DATE",
	"CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER", "CURSOR", "DATE",
	"DAY", "DEC", "DECIMAL", "DECLARE", "DEFAULT", "DELETE", "DESC",
	"DISTINCT", "DOUBLE", "DROP", "ELSE", "END", "ESCAPE", "EXCEPT", "EXEC",
	"EXISTS", "EXTERNAL", "FALSE", "FETCH", "FLOAT", "FOR", "FOREIGN", "FROM",
	"FULL", "GET", "GRANT", "GROUP", "HAVING", "HOUR", "IN", "INDEX", "INNER",
	"INSERT", "INT", "INTEGER", "INTERSECT", "INTERVAL", "INTO", "IS", "JOIN",
	"KEY", "LEADING", "LEFT", "LIKE", "LOWER", "MATCH", "MAX", "MIN", "MINUTE",
	"MONTH", "NATURAL", "NOT", "NULL", "NUMERIC", "OF", "ON", "OPEN", "OPTION",
	"OR", "ORDER", "OUTER", "PRIMARY", "PRIVILEGES", "PROCEDURE", "PUBLIC",
	"REAL", "REFERENCES", "RESTRICT", "REVOKE", "RIGHT", "ROLLBACK", "ROWS",
	"SECOND", "SELECT", "SESSION_USER", "SET", "SIZE", "SMALLINT", "SOME",
	"SUM", "SYSTEM_USER", "TABLE", "THEN", "TIME", "TIMESTAMP", "TO",
	"TRAILING", "TRANSACTION", "TRUE", "UNION", "UNIQUE", "UNKNOWN", "UPDATE",
	"UPPER", "USER", "USING", "VALUE", "VALUES", "VARCHAR", "VIEW", "WHEN",
	"WHERE", "WITH", "YEAR",
}

func reservedSet(extra ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(sql92Reserved)+len(extra))
	for _, w := range sql92Reserved {
		out[w] = struct{}{}
	}

	for _, w := range extra {
		out[strings.ToUpper(w)] = struct{}{}
	}

	return out
}

func actions(as ...schema.Action) map[schema.Action]bool {
	out := make(map[schema.Action]bool, len(as))
	for _, a := range as {
		out[a] = true
	}

	return out
}

var allActions = []schema.Action{
	schema.ActionRestrict, schema.ActionCascade, schema.ActionNull, schema.ActionDefault,
}

// Generic is an ANSI-flavoured dialect used when no database is configured.
func Generic() *Dictionary {
	return &Dictionary{
		Name:                    "generic",
		IdentifierCase:          CaseUpper,
		MaxTableNameLength:      128,
		MaxColumnNameLength:     128,
		MaxIndexNameLength:      128,
		MaxConstraintNameLength: 128,
		CharacterColumnSize:     255,
		BooleanType:             schema.Bit,
		SupportsUnique:          true,
		deleteActions:           actions(allActions...),
		updateActions:           actions(schema.ActionRestrict),
		typeNames: map[schema.SQLType]string{
			schema.JavaObject: "BLOB",
			schema.SQLXML:     "XML",
		},
		reserved: reservedSet(),
	}
}

// Postgres describes PostgreSQL.
func Postgres() *Dictionary {
	return &Dictionary{
		Name:                    "postgres",
		IdentifierCase:          CaseLower,
		MaxTableNameLength:      63,
		MaxColumnNameLength:     63,
		MaxIndexNameLength:      63,
		MaxConstraintNameLength: 63,
		CharacterColumnSize:     255,
		BooleanType:             schema.Boolean,
		SupportsDeferred:        true,
		SupportsUnique:          true,
		deleteActions:           actions(allActions...),
		updateActions:           actions(allActions...),
		typeNames: map[schema.SQLType]string{
			schema.Bit:           "BOOLEAN",
			schema.TinyInt:       "SMALLINT",
			schema.Float:         "DOUBLE PRECISION",
			schema.Double:        "DOUBLE PRECISION",
			schema.Binary:        "BYTEA",
			schema.VarBinary:     "BYTEA",
			schema.LongVarBinary: "BYTEA",
			schema.Blob:          "BYTEA",
			schema.LongVarchar:   "TEXT",
			schema.Clob:          "TEXT",
			schema.NClob:         "TEXT",
			schema.NVarchar:      "VARCHAR",
			schema.NChar:         "CHAR",
			schema.SQLXML:        "XML",
			schema.JavaObject:    "BYTEA",
		},
		preferred: map[schema.SQLType]schema.SQLType{
			schema.Bit:           schema.Boolean,
			schema.TinyInt:       schema.SmallInt,
			schema.Float:         schema.Double,
			schema.Binary:        schema.Blob,
			schema.VarBinary:     schema.Blob,
			schema.LongVarBinary: schema.Blob,
			schema.LongVarchar:   schema.Clob,
			schema.NClob:         schema.Clob,
		},
		reserved: reservedSet("ANALYSE", "ANALYZE", "ARRAY", "LIMIT", "OFFSET", "RETURNING", "WINDOW"),
	}
}

// SQLite describes SQLite 3.
func SQLite() *Dictionary {
	return &Dictionary{
		Name:                    "sqlite",
		IdentifierCase:          CaseUpper,
		MaxTableNameLength:      128,
		MaxColumnNameLength:     128,
		MaxIndexNameLength:      128,
		MaxConstraintNameLength: 128,
		CharacterColumnSize:     255,
		BooleanType:             schema.Boolean,
		SupportsDeferred:        true,
		SupportsUnique:          true,
		deleteActions:           actions(allActions...),
		updateActions:           actions(allActions...),
		typeNames: map[schema.SQLType]string{
			schema.Bit:        "BOOLEAN",
			schema.Clob:       "TEXT",
			schema.NClob:      "TEXT",
			schema.SQLXML:     "TEXT",
			schema.JavaObject: "BLOB",
		},
		preferred: map[schema.SQLType]schema.SQLType{
			schema.Bit:    schema.Boolean,
			schema.NClob:  schema.Clob,
			schema.SQLXML: schema.Clob,
		},
		reserved: reservedSet("AUTOINCREMENT", "GLOB", "LIMIT", "OFFSET", "PRAGMA", "VACUUM"),
	}
}

// MSSQL describes Microsoft SQL Server.
func MSSQL() *Dictionary {
	return &Dictionary{
		Name:                    "mssql",
		IdentifierCase:          CasePreserve,
		MaxTableNameLength:      128,
		MaxColumnNameLength:     128,
		MaxIndexNameLength:      128,
		MaxConstraintNameLength: 128,
		CharacterColumnSize:     255,
		BooleanType:             schema.Bit,
		SupportsUnique:          true,
		deleteActions:           actions(schema.ActionCascade, schema.ActionNull, schema.ActionDefault),
		updateActions:           actions(schema.ActionCascade, schema.ActionNull, schema.ActionDefault),
		typeNames: map[schema.SQLType]string{
			schema.Boolean:       "BIT",
			schema.Double:        "FLOAT",
			schema.Timestamp:     "DATETIME2",
			schema.Blob:          "VARBINARY(MAX)",
			schema.LongVarBinary: "VARBINARY(MAX)",
			schema.Clob:          "VARCHAR(MAX)",
			schema.LongVarchar:   "VARCHAR(MAX)",
			schema.NClob:         "NVARCHAR(MAX)",
			schema.JavaObject:    "VARBINARY(MAX)",
		},
		preferred: map[schema.SQLType]schema.SQLType{
			schema.Boolean:       schema.Bit,
			schema.LongVarBinary: schema.Blob,
			schema.LongVarchar:   schema.Clob,
		},
		reserved: reservedSet("IDENTITY", "PERCENT", "PLAN", "TOP", "TRAN", "TRUNCATE"),
	}
}

// MySQL describes MySQL with InnoDB tables.
func MySQL() *Dictionary {
	return &Dictionary{
		Name:                    "mysql",
		IdentifierCase:          CasePreserve,
		MaxTableNameLength:      64,
		MaxColumnNameLength:     64,
		MaxIndexNameLength:      64,
		MaxConstraintNameLength: 64,
		CharacterColumnSize:     255,
		BooleanType:             schema.Bit,
		SupportsUnique:          true,
		deleteActions:           actions(schema.ActionRestrict, schema.ActionCascade, schema.ActionNull),
		updateActions:           actions(schema.ActionRestrict, schema.ActionCascade, schema.ActionNull),
		typeNames: map[schema.SQLType]string{
			schema.Timestamp:   "DATETIME",
			schema.Blob:        "LONGBLOB",
			schema.Clob:        "LONGTEXT",
			schema.LongVarchar: "LONGTEXT",
			schema.NClob:       "LONGTEXT",
			schema.JavaObject:  "LONGBLOB",
		},
		preferred: map[schema.SQLType]schema.SQLType{
			schema.LongVarchar: schema.Clob,
			schema.NClob:       schema.Clob,
		},
		reserved: reservedSet("LIMIT", "LOCK", "RANGE", "READ", "RLIKE", "SHOW", "STATUS"),
	}
}
