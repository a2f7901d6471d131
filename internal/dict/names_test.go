package dict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"relmap/internal/schema"
)

func TestValidTableName_Reserved(t *testing.T) {
	s := schema.NewGroup().AddSchema("")

	assert.Equal(t, "ORDER1", Generic().ValidTableName("Order", s))
	assert.Equal(t, "order1", Postgres().ValidTableName("Order", s))
	assert.Equal(t, "Order1", MSSQL().ValidTableName("Order", s))
	assert.Equal(t, "CUSTOMER", Generic().ValidTableName("Customer", s))
}

func TestValidTableName_Taken(t *testing.T) {
	s := schema.NewGroup().AddSchema("")
	s.AddTable("ORDER1")
	s.AddTable("ITEM")

	d := Generic()
	assert.Equal(t, "ORDER2", d.ValidTableName("Order", s))
	assert.Equal(t, "ITEM1", d.ValidTableName("item", s))
	assert.Equal(t, "SALES.ITEM1", d.ValidTableName("SALES.item", s))
	assert.Equal(t, "ITEM", d.ValidTableName("item", nil))
}

func TestValidColumnName(t *testing.T) {
	tbl := schema.NewGroup().AddSchema("").AddTable("T")
	tbl.AddColumn("NAME")

	d := Generic()
	assert.Equal(t, "NAME", d.ValidColumnName("name", tbl, false))
	assert.Equal(t, "NAME1", d.ValidColumnName("name", tbl, true))
	assert.Equal(t, "CAFE_AU_LAIT", d.ValidColumnName("café au-lait", tbl, true))
	assert.Equal(t, "N2FA", d.ValidColumnName("2fa", tbl, true))
	assert.Equal(t, "USER1", d.ValidColumnName("user", nil, false))
	assert.Empty(t, d.ValidColumnName("", tbl, true))
}

func TestValidName_Truncation(t *testing.T) {
	d := Generic()
	d.MaxColumnNameLength = 20

	a := d.ValidColumnName("CUSTOMER_SHIPPING_ADDRESS_LINE_ONE", nil, false)
	b := d.ValidColumnName("CUSTOMER_SHIPPING_ADDRESS_LINE_TWO", nil, false)

	assert.Len(t, a, 20)
	assert.Len(t, b, 20)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "CUSTOMER_SH_"))

	assert.Equal(t, a, d.ValidColumnName("CUSTOMER_SHIPPING_ADDRESS_LINE_ONE", nil, false), "truncation is stable")
}

func TestValidName_SuffixRespectsMaxLength(t *testing.T) {
	d := Generic()
	d.MaxColumnNameLength = 5

	tbl := schema.NewGroup().AddSchema("").AddTable("T")
	tbl.AddColumn("ABCDE")

	assert.Equal(t, "ABCD1", d.ValidColumnName("abcde", tbl, true))
}

func TestValidConstraintNames(t *testing.T) {
	s := schema.NewGroup().AddSchema("")
	tbl := s.AddTable("T")
	c := tbl.AddColumn("C")
	tbl.AddIndex("I_T_C").AddColumn(c)
	tbl.AddUnique("U_T_C").AddColumn(c)

	d := Generic()
	assert.Equal(t, "I_T_C1", d.ValidIndexName("I_T_C", tbl))
	assert.Equal(t, "U_T_C1", d.ValidUniqueName("u_t_c", tbl))
	assert.Equal(t, "FK_T", d.ValidForeignKeyName("fk_t", tbl))
	assert.Equal(t, "PK_T", d.ValidPrimaryKeyName("PK_T", tbl))
	assert.Empty(t, d.ValidForeignKeyName("", tbl))
}
