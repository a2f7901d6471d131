package dict

import (
	"strconv"
	"strings"

	"relmap/internal/common"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// IdentifierCase controls how validated identifiers are cased.
type IdentifierCase int

const (
	CaseUpper IdentifierCase = iota
	CaseLower
	CasePreserve
)

// Dictionary describes one SQL dialect.
type Dictionary struct {
	Name string

	IdentifierCase IdentifierCase

	MaxTableNameLength      int
	MaxColumnNameLength     int
	MaxIndexNameLength      int
	MaxConstraintNameLength int

	// CharacterColumnSize is used for character columns without a size.
	CharacterColumnSize int

	// BooleanType is the SQL type used for boolean values.
	BooleanType schema.SQLType

	SupportsDeferred bool
	SupportsUnique   bool

	deleteActions map[schema.Action]bool
	updateActions map[schema.Action]bool

	typeNames map[schema.SQLType]string
	preferred map[schema.SQLType]schema.SQLType
	reserved  map[string]struct{}
}

// JDBCType returns the SQL type that stores values of the given type code.
// unbounded selects large-object types for strings; precision and scale are
// accepted for numeric codes but do not change the chosen type.
func (d *Dictionary) JDBCType(code typecode.Code, unbounded bool, precision, scale int, xml bool) schema.SQLType {
	if xml {
		return schema.SQLXML
	}

	switch code {
	case typecode.Boolean, typecode.BooleanObj:
		return d.BooleanType
	case typecode.Byte, typecode.ByteObj:
		return schema.TinyInt
	case typecode.Short, typecode.ShortObj:
		return schema.SmallInt
	case typecode.Int, typecode.IntObj:
		return schema.Integer
	case typecode.Long, typecode.LongObj, typecode.BigInteger:
		return schema.BigInt
	case typecode.Float, typecode.FloatObj:
		return schema.Real
	case typecode.Double, typecode.DoubleObj:
		return schema.Double
	case typecode.Char, typecode.CharObj:
		return schema.Char
	case typecode.BigDecimal, typecode.Number:
		return schema.Numeric
	case typecode.String, typecode.Enum, typecode.Locale:
		if unbounded && code == typecode.String {
			return schema.Clob
		}

		return schema.Varchar
	case typecode.Date, typecode.Calendar, typecode.LocalDateTime:
		return schema.Timestamp
	case typecode.LocalDate:
		return schema.Date
	case typecode.LocalTime:
		return schema.Time
	case typecode.InputReader:
		return schema.Clob
	default:
		return schema.Blob
	}
}

// PreferredType narrows t to the type the dialect actually stores it as.
func (d *Dictionary) PreferredType(t schema.SQLType) schema.SQLType {
	if p, ok := d.preferred[t]; ok {
		return p
	}

	return t
}

// BaseTypeName returns the dialect spelling of t without size information.
func (d *Dictionary) BaseTypeName(t schema.SQLType) string {
	if n, ok := d.typeNames[t]; ok {
		return n
	}

	return t.String()
}

// TypeName returns the DDL type of a column. An explicit column type name
// wins; otherwise the dialect name is decorated with size and decimals.
func (d *Dictionary) TypeName(col *schema.Column) string {
	if col.TypeName != "" {
		return col.TypeName
	}

	name := d.BaseTypeName(d.PreferredType(col.Type))
	if strings.Contains(name, "(") {
		return name
	}

	switch col.Type {
	case schema.Char, schema.Varchar, schema.NChar, schema.NVarchar, schema.Binary, schema.VarBinary:
		size := col.Size
		if size <= 0 && col.Type.IsCharacter() {
			size = d.CharacterColumnSize
		}

		if size > 0 {
			return name + "(" + strconv.Itoa(size) + ")"
		}
	case schema.Numeric, schema.Decimal:
		if col.Size > 0 {
			if col.DecimalDigits > 0 {
				return name + "(" + strconv.Itoa(col.Size) + "," + strconv.Itoa(col.DecimalDigits) + ")"
			}

			return name + "(" + strconv.Itoa(col.Size) + ")"
		}
	}

	return name
}

// SQLType maps a type name reported by the database back to a SQLType.
// Dialect spellings are tried first, then common names across vendors.
func (d *Dictionary) SQLType(typeName string) schema.SQLType {
	base := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(base, '('); i >= 0 && !strings.HasSuffix(base, "(MAX)") {
		base = strings.TrimSpace(base[:i])
	}

	for t := schema.Other; t.String() != common.UnknownStr; t++ {
		if n, ok := d.typeNames[t]; ok && n == base && d.PreferredType(t) == t {
			return t
		}
	}

	return ParseTypeName(base)
}

// SupportsDeleteAction reports whether a foreign key may use a on delete.
func (d *Dictionary) SupportsDeleteAction(a schema.Action) bool {
	return a == schema.ActionNone || d.deleteActions[a]
}

// SupportsUpdateAction reports whether a foreign key may use a on update.
func (d *Dictionary) SupportsUpdateAction(a schema.Action) bool {
	return a == schema.ActionNone || d.updateActions[a]
}

// SupportsDeferredConstraints reports whether constraints may be deferred.
func (d *Dictionary) SupportsDeferredConstraints() bool {
	return d.SupportsDeferred
}

// SupportsUniqueConstraints reports whether unique constraints exist at all.
func (d *Dictionary) SupportsUniqueConstraints() bool {
	return d.SupportsUnique
}

// IsReserved reports whether name is a reserved word, ignoring case.
func (d *Dictionary) IsReserved(name string) bool {
	_, ok := d.reserved[strings.ToUpper(name)]
	return ok
}

// ParseTypeName maps a vendor type name such as "int8", "character varying"
// or "datetime2" to a SQLType. Unknown names map to schema.Other.
func ParseTypeName(name string) schema.SQLType {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		if strings.HasSuffix(name, "(max)") {
			switch strings.TrimSpace(name[:i]) {
			case "varbinary":
				return schema.Blob
			case "nvarchar":
				return schema.NClob
			default:
				return schema.Clob
			}
		}

		name = strings.TrimSpace(name[:i])
	}

	switch name {
	case "bit":
		return schema.Bit
	case "bool", "boolean":
		return schema.Boolean
	case "tinyint":
		return schema.TinyInt
	case "smallint", "int2", "smallserial":
		return schema.SmallInt
	case "int", "integer", "int4", "serial", "mediumint":
		return schema.Integer
	case "bigint", "int8", "bigserial":
		return schema.BigInt
	case "real", "float4":
		return schema.Real
	case "float":
		return schema.Float
	case "double", "double precision", "float8":
		return schema.Double
	case "numeric":
		return schema.Numeric
	case "decimal", "money":
		return schema.Decimal
	case "char", "character", "bpchar":
		return schema.Char
	case "nchar":
		return schema.NChar
	case "varchar", "character varying", "varchar2":
		return schema.Varchar
	case "nvarchar":
		return schema.NVarchar
	case "text", "clob", "longtext", "mediumtext", "tinytext":
		return schema.Clob
	case "ntext", "nclob":
		return schema.NClob
	case "date":
		return schema.Date
	case "time", "time without time zone":
		return schema.Time
	case "timestamp", "timestamptz", "datetime", "datetime2", "datetimeoffset",
		"timestamp without time zone", "timestamp with time zone", "smalldatetime":
		return schema.Timestamp
	case "binary":
		return schema.Binary
	case "varbinary":
		return schema.VarBinary
	case "blob", "bytea", "longblob", "mediumblob", "tinyblob", "image":
		return schema.Blob
	case "xml":
		return schema.SQLXML
	default:
		return schema.Other
	}
}
