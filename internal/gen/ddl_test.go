package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/dict"
	"relmap/internal/schema"
)

func bigint(t *schema.Table, name string) *schema.Column {
	c := t.AddColumn(name)
	c.Type = schema.BigInt

	return c
}

// shopGroup declares ORDERS before the CUSTOMER table it references.
func shopGroup() *schema.Group {
	g := schema.NewGroup()
	s := g.AddSchema("")

	orders := s.AddTable("ORDERS")
	cust := s.AddTable("CUSTOMER")

	cid := bigint(cust, "ID")
	cid.AutoAssigned = true

	name := cust.AddColumn("NAME")
	name.Type = schema.Varchar
	name.Size = 80
	name.SetNotNull(true)

	cust.AddPrimaryKey("PK_CUSTOMER").AddColumn(cid)
	cust.AddIndex("I_CUSTOMER_NAME").AddColumn(name)

	oid := bigint(orders, "ID")
	orders.AddPrimaryKey("PK_ORDERS").AddColumn(oid)

	fk := orders.AddForeignKey("FK_ORDERS_CUSTOMER")
	fk.DeleteAction = schema.ActionCascade
	fk.Join(bigint(orders, "CUSTOMER_ID"), cid)

	orders.AddForeignKey("FK_ORDERS_NOTE").Join(bigint(orders, "NOTE_ID"), cid)

	return g
}

func TestGenerator_Generate(t *testing.T) {
	d, err := dict.New("postgres")
	require.NoError(t, err)

	script, err := NewGenerator(d, DefaultConfig()).Generate(shopGroup())
	require.NoError(t, err)

	want := `CREATE TABLE CUSTOMER (
    ID BIGINT NOT NULL GENERATED BY DEFAULT AS IDENTITY,
    NAME VARCHAR(80) NOT NULL,
    CONSTRAINT PK_CUSTOMER PRIMARY KEY (ID)
);

CREATE TABLE ORDERS (
    ID BIGINT NOT NULL,
    CUSTOMER_ID BIGINT,
    NOTE_ID BIGINT,
    CONSTRAINT PK_ORDERS PRIMARY KEY (ID),
    CONSTRAINT FK_ORDERS_CUSTOMER FOREIGN KEY (CUSTOMER_ID) REFERENCES CUSTOMER (ID) ON DELETE CASCADE
);

CREATE INDEX I_CUSTOMER_NAME ON CUSTOMER (NAME);
`
	assert.Equal(t, want, script.String())
	assert.Equal(t, "postgres", script.Dialect)
}

func TestGenerator_LogicalPrimaryKey(t *testing.T) {
	g := schema.NewGroup()
	tbl := g.AddSchema("").AddTable("AUDIT")
	pk := tbl.AddPrimaryKey("")
	pk.Logical = true
	pk.AddColumn(bigint(tbl, "ID"))

	script, err := NewGenerator(dict.Generic(), DefaultConfig()).Generate(g)
	require.NoError(t, err)
	require.Len(t, script.Statements, 1)
	assert.NotContains(t, script.Statements[0].SQL, "PRIMARY KEY")
	assert.Contains(t, script.Statements[0].SQL, "ID BIGINT NOT NULL")
}

func cyclicGroup() *schema.Group {
	g := schema.NewGroup()
	s := g.AddSchema("")

	a := s.AddTable("A")
	b := s.AddTable("B")

	aid := bigint(a, "ID")
	a.AddPrimaryKey("").AddColumn(aid)

	bid := bigint(b, "ID")
	b.AddPrimaryKey("").AddColumn(bid)

	ab := a.AddForeignKey("FK_A_B")
	ab.DeleteAction = schema.ActionRestrict
	ab.Join(bigint(a, "B_ID"), bid)

	ba := b.AddForeignKey("FK_B_A")
	ba.DeleteAction = schema.ActionRestrict
	ba.Join(bigint(b, "A_ID"), aid)

	return g
}

func TestGenerator_CycleDefersForeignKey(t *testing.T) {
	script, err := NewGenerator(dict.Postgres(), DefaultConfig()).Generate(cyclicGroup())
	require.NoError(t, err)
	require.Len(t, script.Statements, 3)

	assert.Equal(t, CreateTable, script.Statements[0].Kind)
	assert.Equal(t, "A", script.Statements[0].Table)
	assert.NotContains(t, script.Statements[0].SQL, "FOREIGN KEY")
	assert.Contains(t, script.Statements[1].SQL, "CONSTRAINT FK_B_A FOREIGN KEY (A_ID) REFERENCES A (ID) ON DELETE RESTRICT")

	assert.Equal(t, AddForeignKey, script.Statements[2].Kind)
	assert.Equal(t,
		"ALTER TABLE A ADD CONSTRAINT FK_A_B FOREIGN KEY (B_ID) REFERENCES B (ID) ON DELETE RESTRICT",
		script.Statements[2].SQL)
}

func TestGenerator_CycleInlineWithoutAlter(t *testing.T) {
	script, err := NewGenerator(dict.SQLite(), DefaultConfig()).Generate(cyclicGroup())
	require.NoError(t, err)
	require.Len(t, script.Statements, 2)

	for _, st := range script.Statements {
		assert.Equal(t, CreateTable, st.Kind)
		assert.Contains(t, st.SQL, "FOREIGN KEY")
	}
}

func TestGenerator_Config(t *testing.T) {
	cfg := Config{Terminator: ""}

	script, err := NewGenerator(dict.Postgres(), cfg).Generate(shopGroup())
	require.NoError(t, err)
	require.Len(t, script.Statements, 2)

	for _, st := range script.Statements {
		assert.NotContains(t, st.SQL, "FOREIGN KEY")
	}

	assert.NotContains(t, script.String(), ";")
}

func TestGenerator_UniquesAndIndexNames(t *testing.T) {
	g := schema.NewGroup()
	tbl := g.AddSchema("").AddTable("ITEM")
	sku := tbl.AddColumn("SKU")
	sku.Type = schema.Varchar

	u := tbl.AddUnique("U_ITEM_SKU")
	u.Deferred = true
	u.AddColumn(sku)

	tbl.AddIndex("").AddColumn(sku)

	script, err := NewGenerator(dict.Postgres(), DefaultConfig()).Generate(g)
	require.NoError(t, err)
	require.Len(t, script.Statements, 2)

	assert.Contains(t, script.Statements[0].SQL, "SKU VARCHAR(255)")
	assert.Contains(t, script.Statements[0].SQL, "CONSTRAINT U_ITEM_SKU UNIQUE (SKU) DEFERRABLE INITIALLY DEFERRED")
	assert.Equal(t, "CREATE INDEX i_item_sku ON ITEM (SKU)", script.Statements[1].SQL)
}

func TestGenerator_MySQLIdentity(t *testing.T) {
	script, err := NewGenerator(dict.MySQL(), DefaultConfig()).Generate(shopGroup())
	require.NoError(t, err)
	assert.Contains(t, script.Statements[0].SQL, "ID BIGINT NOT NULL AUTO_INCREMENT")
}

func TestWriteFile(t *testing.T) {
	script, err := NewGenerator(dict.Postgres(), DefaultConfig()).Generate(shopGroup())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "schema.sql")
	require.NoError(t, WriteFile(script, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, script.String(), string(data))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "create-table", CreateTable.String())
	assert.Equal(t, "create-index", CreateIndex.String())
	assert.Equal(t, "add-foreign-key", AddForeignKey.String())
}
