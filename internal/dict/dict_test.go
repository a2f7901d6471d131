package dict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/schema"
	"relmap/internal/typecode"
)

func TestNew_BuiltIns(t *testing.T) {
	for _, name := range []string{"generic", "postgres", "sqlite", "mssql", "MySQL"} {
		d, err := New(name)
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToLower(name), d.Name)
	}

	_, err := New("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestRegister_Override(t *testing.T) {
	Register("custom", func() *Dictionary {
		d := Generic()
		d.Name = "custom"
		d.CharacterColumnSize = 80

		return d
	})

	d, err := New("custom")
	require.NoError(t, err)
	assert.Equal(t, 80, d.CharacterColumnSize)
	assert.Contains(t, Names(), "custom")
}

func TestJDBCType(t *testing.T) {
	d := Generic()

	tests := []struct {
		code      typecode.Code
		unbounded bool
		want      schema.SQLType
	}{
		{typecode.Boolean, false, schema.Bit},
		{typecode.Byte, false, schema.TinyInt},
		{typecode.ShortObj, false, schema.SmallInt},
		{typecode.Int, false, schema.Integer},
		{typecode.Long, false, schema.BigInt},
		{typecode.BigInteger, false, schema.BigInt},
		{typecode.Float, false, schema.Real},
		{typecode.Double, false, schema.Double},
		{typecode.BigDecimal, false, schema.Numeric},
		{typecode.String, false, schema.Varchar},
		{typecode.String, true, schema.Clob},
		{typecode.Locale, true, schema.Varchar},
		{typecode.Date, false, schema.Timestamp},
		{typecode.LocalDate, false, schema.Date},
		{typecode.InputStream, false, schema.Blob},
		{typecode.InputReader, false, schema.Clob},
		{typecode.PC, false, schema.Blob},
		{typecode.Object, false, schema.Blob},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, d.JDBCType(tt.code, tt.unbounded, 0, 0, false))
		})
	}

	assert.Equal(t, schema.SQLXML, d.JDBCType(typecode.String, false, 0, 0, true))
	assert.Equal(t, schema.Boolean, Postgres().JDBCType(typecode.Boolean, false, 0, 0, false))
}

func TestTypeName(t *testing.T) {
	pg := Postgres()

	tests := []struct {
		name string
		d    *Dictionary
		col  schema.Column
		want string
	}{
		{"varchar default size", Generic(), schema.Column{Type: schema.Varchar}, "VARCHAR(255)"},
		{"varchar sized", Generic(), schema.Column{Type: schema.Varchar, Size: 40}, "VARCHAR(40)"},
		{"numeric", Generic(), schema.Column{Type: schema.Numeric, Size: 10, DecimalDigits: 2}, "NUMERIC(10,2)"},
		{"explicit name", Generic(), schema.Column{Type: schema.Varchar, TypeName: "CITEXT"}, "CITEXT"},
		{"pg blob", pg, schema.Column{Type: schema.Blob}, "BYTEA"},
		{"pg bit", pg, schema.Column{Type: schema.Bit}, "BOOLEAN"},
		{"mssql clob", MSSQL(), schema.Column{Type: schema.Clob}, "VARCHAR(MAX)"},
		{"mysql timestamp", MySQL(), schema.Column{Type: schema.Timestamp}, "DATETIME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.TypeName(&tt.col))
		})
	}
}

func TestSQLType_ReverseLookup(t *testing.T) {
	assert.Equal(t, schema.Double, Postgres().SQLType("double precision"))
	assert.Equal(t, schema.Blob, Postgres().SQLType("bytea"))
	assert.Equal(t, schema.Blob, MSSQL().SQLType("varbinary(max)"))
	assert.Equal(t, schema.Varchar, SQLite().SQLType("VARCHAR(255)"))
	assert.Equal(t, schema.BigInt, Generic().SQLType("int8"))
	assert.Equal(t, schema.Timestamp, MySQL().SQLType("datetime"))
	assert.Equal(t, schema.Other, Generic().SQLType("geometry"))
}

func TestCapabilities(t *testing.T) {
	g := Generic()
	assert.True(t, g.SupportsDeleteAction(schema.ActionCascade))
	assert.True(t, g.SupportsUpdateAction(schema.ActionNone))
	assert.False(t, g.SupportsUpdateAction(schema.ActionCascade))
	assert.False(t, g.SupportsDeferredConstraints())
	assert.True(t, g.SupportsUniqueConstraints())

	assert.False(t, MySQL().SupportsDeleteAction(schema.ActionDefault))
	assert.False(t, MSSQL().SupportsDeleteAction(schema.ActionRestrict))
	assert.True(t, Postgres().SupportsDeferredConstraints())
}
