package schema

import (
	"strings"

	"relmap/internal/common"
)

// SQLType is a JDBC-style SQL type. The zero value, Other, means "not set".
type SQLType int

const (
	Other SQLType = iota
	Bit
	TinyInt
	SmallInt
	Integer
	BigInt
	Float
	Real
	Double
	Numeric
	Decimal
	Char
	Varchar
	LongVarchar
	Date
	Time
	Timestamp
	Binary
	VarBinary
	LongVarBinary
	Blob
	Clob
	Boolean
	Array
	Struct
	Ref
	NChar
	NVarchar
	NClob
	SQLXML
	JavaObject
)

var sqlTypeNames = [...]string{
	Other:         "OTHER",
	Bit:           "BIT",
	TinyInt:       "TINYINT",
	SmallInt:      "SMALLINT",
	Integer:       "INTEGER",
	BigInt:        "BIGINT",
	Float:         "FLOAT",
	Real:          "REAL",
	Double:        "DOUBLE",
	Numeric:       "NUMERIC",
	Decimal:       "DECIMAL",
	Char:          "CHAR",
	Varchar:       "VARCHAR",
	LongVarchar:   "LONGVARCHAR",
	Date:          "DATE",
	Time:          "TIME",
	Timestamp:     "TIMESTAMP",
	Binary:        "BINARY",
	VarBinary:     "VARBINARY",
	LongVarBinary: "LONGVARBINARY",
	Blob:          "BLOB",
	Clob:          "CLOB",
	Boolean:       "BOOLEAN",
	Array:         "ARRAY",
	Struct:        "STRUCT",
	Ref:           "REF",
	NChar:         "NCHAR",
	NVarchar:      "NVARCHAR",
	NClob:         "NCLOB",
	SQLXML:        "SQLXML",
	JavaObject:    "JAVA_OBJECT",
}

// String returns the JDBC name of the type.
func (t SQLType) String() string {
	if t < 0 || int(t) >= len(sqlTypeNames) {
		return common.UnknownStr
	}

	return sqlTypeNames[t]
}

// ParseSQLType maps a JDBC type name (case-insensitive) to its SQLType.
func ParseSQLType(name string) (SQLType, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range sqlTypeNames {
		if n == name {
			return SQLType(i), true
		}
	}

	return Other, false
}

type typeFamily int

const (
	familyNone typeFamily = iota
	familyNumeric
	familyBinary
	familyCharacter
	familyTemporal
)

func (t SQLType) family() typeFamily {
	switch t {
	case Bit, TinyInt, SmallInt, Integer, BigInt, Float, Real, Double, Numeric, Decimal, Boolean:
		return familyNumeric
	case Binary, VarBinary, LongVarBinary, Blob:
		return familyBinary
	case Char, Varchar, LongVarchar, Clob, NChar, NVarchar, NClob:
		return familyCharacter
	case Date, Time, Timestamp:
		return familyTemporal
	default:
		return familyNone
	}
}

// IsCharacter reports whether t stores text.
func (t SQLType) IsCharacter() bool {
	return t.family() == familyCharacter
}

// IsLob reports whether t is a large object type.
func (t SQLType) IsLob() bool {
	switch t {
	case Blob, Clob, NClob, LongVarBinary, LongVarchar:
		return true
	default:
		return false
	}
}

// Action is a referential action on delete or update.
type Action int

const (
	ActionNone Action = iota
	ActionRestrict
	ActionCascade
	ActionNull
	ActionDefault
)

// String returns the directive spelling of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRestrict:
		return "restrict"
	case ActionCascade:
		return "cascade"
	case ActionNull:
		return "null"
	case ActionDefault:
		return "default"
	default:
		return common.UnknownStr
	}
}

// SQL returns the DDL clause for the action, or "" for ActionNone.
func (a Action) SQL() string {
	switch a {
	case ActionRestrict:
		return "RESTRICT"
	case ActionCascade:
		return "CASCADE"
	case ActionNull:
		return "SET NULL"
	case ActionDefault:
		return "SET DEFAULT"
	default:
		return ""
	}
}

// ParseAction maps a directive spelling (or SQL clause) to an Action.
func ParseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no action":
		return ActionNone, true
	case "restrict":
		return ActionRestrict, true
	case "cascade":
		return ActionCascade, true
	case "null", "set null":
		return ActionNull, true
	case "default", "set default":
		return ActionDefault, true
	default:
		return ActionNone, false
	}
}

type nullConstant struct{}

func (nullConstant) String() string { return "null" }

// Null is the constant used for joins to the literal null.
var Null any = nullConstant{}
