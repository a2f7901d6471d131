package introspect

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/schema"
)

const shopDDL = `
CREATE TABLE CUSTOMER (
	ID INTEGER PRIMARY KEY,
	NAME VARCHAR(80) NOT NULL,
	EMAIL VARCHAR(120)
);
CREATE UNIQUE INDEX UX_CUSTOMER_EMAIL ON CUSTOMER (EMAIL);
CREATE TABLE ORDERS (
	ID INTEGER PRIMARY KEY,
	CUSTOMER_ID INTEGER REFERENCES CUSTOMER ON DELETE CASCADE,
	TOTAL DECIMAL(10, 2) DEFAULT 0
);
CREATE INDEX IX_ORDERS_CUSTOMER ON ORDERS (CUSTOMER_ID);
CREATE TABLE LINE (
	ORDER_ID INTEGER NOT NULL REFERENCES ORDERS (ID),
	POS INTEGER NOT NULL,
	NOTE TEXT,
	PRIMARY KEY (ORDER_ID, POS)
);
`

func openShop(t *testing.T) *Introspector {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shop.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	_, err = db.Exec(shopDDL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	in, err := Open(context.Background(), "sqlite", path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = in.Close() })

	return in
}

func TestIntrospector_Load(t *testing.T) {
	in := openShop(t)
	g := schema.NewGroup()

	require.NoError(t, in.Load(context.Background(), g, ""))

	var names []string
	for _, tbl := range g.Tables() {
		names = append(names, tbl.Name)
	}

	assert.Equal(t, []string{"CUSTOMER", "LINE", "ORDERS"}, names)

	cust, err := g.FindTable("customer")
	require.NoError(t, err)
	require.NotNil(t, cust)

	id := cust.Column("ID")
	require.NotNil(t, id)
	assert.Equal(t, schema.Integer, id.Type)
	assert.True(t, id.AutoAssigned)
	assert.True(t, id.IsPrimaryKey())

	name := cust.Column("NAME")
	assert.Equal(t, schema.Varchar, name.Type)
	assert.Equal(t, 80, name.Size)
	assert.True(t, name.NotNull)

	require.Len(t, cust.Indexes(), 1)
	assert.Equal(t, "UX_CUSTOMER_EMAIL", cust.Indexes()[0].Name)
	assert.True(t, cust.Indexes()[0].Unique)

	orders, err := g.FindTable("ORDERS")
	require.NoError(t, err)

	total := orders.Column("TOTAL")
	assert.Equal(t, schema.Decimal, total.Type)
	assert.Equal(t, 10, total.Size)
	assert.Equal(t, 2, total.DecimalDigits)
	assert.Equal(t, "0", total.Default)

	require.Len(t, orders.ForeignKeys(), 1)
	fk := orders.ForeignKeys()[0]
	assert.Equal(t, schema.ActionCascade, fk.DeleteAction)
	assert.Same(t, cust, fk.PrimaryKeyTable())
	assert.Equal(t, []*schema.Column{orders.Column("CUSTOMER_ID")}, fk.Columns())
	assert.Equal(t, []*schema.Column{id}, fk.PrimaryKeyColumns())

	line, err := g.FindTable("LINE")
	require.NoError(t, err)

	pk := line.PrimaryKeyColumns()
	require.Len(t, pk, 2)
	assert.Equal(t, "ORDER_ID", pk[0].Name)
	assert.Equal(t, "POS", pk[1].Name)
	assert.False(t, pk[0].AutoAssigned)
	assert.Empty(t, line.Indexes())
	assert.Equal(t, schema.Clob, line.Column("NOTE").Type)
}

func TestIntrospector_LoadNamedTables(t *testing.T) {
	in := openShop(t)
	g := schema.NewGroup()

	require.NoError(t, in.Load(context.Background(), g, "", "customer", "orders"))

	assert.Len(t, g.Tables(), 2)

	orders, err := g.FindTable("ORDERS")
	require.NoError(t, err)
	assert.Len(t, orders.ForeignKeys(), 1)
}

func TestIntrospector_LoadMissingTable(t *testing.T) {
	in := openShop(t)

	err := in.Load(context.Background(), schema.NewGroup(), "", "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestIntrospector_Loader(t *testing.T) {
	in := openShop(t)

	g := schema.NewGroup()
	g.SetLoader(in.Loader(context.Background()))

	line, err := g.FindTable("line")
	require.NoError(t, err)
	require.NotNil(t, line)

	// LINE references ORDERS, which references CUSTOMER.
	assert.Len(t, g.Tables(), 3)

	require.Len(t, line.ForeignKeys(), 1)
	assert.Equal(t, "ORDERS", line.ForeignKeys()[0].PrimaryKeyTable().Name)
	assert.False(t, line.ForeignKeys()[0].IsLogical())

	missing, err := g.FindTable("MISSING")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOpenReader_Errors(t *testing.T) {
	_, err := OpenReader(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")

	_, err = OpenReader(context.Background(), "sqlite", " ")
	require.Error(t, err)
}

func TestDialects(t *testing.T) {
	assert.Equal(t, []string{"mssql", "mysql", "postgres", "sqlite"}, Dialects())
}

func TestSplitTypeSize(t *testing.T) {
	tests := []struct {
		decl     string
		name     string
		size     int
		decimals int
	}{
		{"INTEGER", "INTEGER", 0, 0},
		{"VARCHAR(80)", "VARCHAR", 80, 0},
		{"DECIMAL(10, 2)", "DECIMAL", 10, 2},
		{" numeric (5,1) ", "numeric", 5, 1},
		{"", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			name, size, decimals := splitTypeSize(tt.decl)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.size, size)
			assert.Equal(t, tt.decimals, decimals)
		})
	}
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, schema.ActionCascade, parseAction("c"))
	assert.Equal(t, schema.ActionNull, parseAction("n"))
	assert.Equal(t, schema.ActionRestrict, parseAction("a"))
	assert.Equal(t, schema.ActionNull, parseAction("SET_NULL"))
	assert.Equal(t, schema.ActionDefault, parseAction("SET DEFAULT"))
	assert.Equal(t, schema.ActionRestrict, parseAction("RESTRICT"))
	assert.Equal(t, schema.ActionRestrict, parseAction("NO_ACTION"))
	assert.Equal(t, schema.ActionRestrict, parseAction("bogus"))
}
