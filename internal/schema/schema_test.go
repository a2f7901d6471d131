package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/common"
	"relmap/internal/typecode"
)

func newShopGroup() (*Group, *Table, *Table) {
	g := NewGroup()
	s := g.AddSchema("")

	cust := s.AddTable("CUSTOMER")
	id := cust.AddColumn("ID")
	id.Type = BigInt
	cust.AddPrimaryKey("PK_CUSTOMER").AddColumn(id)

	ord := s.AddTable("ORDER1")
	oid := ord.AddColumn("ID")
	oid.Type = BigInt
	ord.AddPrimaryKey("").AddColumn(oid)

	ref := ord.AddColumn("CUSTOMER_ID")
	ref.Type = BigInt

	fk := ord.AddForeignKey("FK_ORDER_CUSTOMER")
	fk.DeleteAction = ActionCascade
	fk.Join(ref, id)

	return g, cust, ord
}

func TestTable_AddColumnIsIdempotent(t *testing.T) {
	g := NewGroup()
	tbl := g.AddSchema("").AddTable("T")

	a := tbl.AddColumn("NAME")
	b := tbl.AddColumn("name")

	assert.Same(t, a, b)
	assert.Len(t, tbl.Columns(), 1)
	assert.Same(t, tbl, a.Table())
	assert.Equal(t, "T.NAME", a.FullName())
}

func TestTable_RemoveColumnDetachesConstraints(t *testing.T) {
	_, _, ord := newShopGroup()
	ref := ord.Column("CUSTOMER_ID")

	idx := ord.AddIndex("I_ORDER_CUST")
	idx.AddColumn(ref)

	require.True(t, ord.RemoveColumn(ref))
	assert.Nil(t, ord.Column("CUSTOMER_ID"))
	assert.Empty(t, idx.Columns())
	assert.Empty(t, ord.ForeignKeys()[0].Columns())
	assert.Nil(t, ref.Table())
	assert.False(t, ord.RemoveColumn(ref))
}

func TestColumn_IsPrimaryKey(t *testing.T) {
	_, cust, ord := newShopGroup()

	assert.True(t, cust.Column("ID").IsPrimaryKey())
	assert.False(t, ord.Column("CUSTOMER_ID").IsPrimaryKey())
	assert.False(t, NewColumn("X", typecode.Int).IsPrimaryKey())
}

func TestColumn_IsCompatible(t *testing.T) {
	tests := []struct {
		name string
		have SQLType
		want SQLType
		ok   bool
	}{
		{"same", Integer, Integer, true},
		{"numeric family", Integer, BigInt, true},
		{"character family", Varchar, Clob, true},
		{"binary accepts blob", VarBinary, Blob, true},
		{"unset column", Other, Varchar, true},
		{"unset expected", Varchar, Other, true},
		{"number vs text", Integer, Varchar, false},
		{"temporal vs text", Timestamp, Varchar, false},
		{"struct", Integer, Struct, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Column{Name: "C", Type: tt.have}
			assert.Equal(t, tt.ok, c.IsCompatible(tt.want, "", 0, 0))
		})
	}
}

func TestColumn_NotNullExplicit(t *testing.T) {
	c := NewColumn("C", typecode.String)
	assert.False(t, c.NotNullExplicit)

	c.SetNotNull(false)
	assert.True(t, c.NotNullExplicit)
	assert.False(t, c.NotNull)

	c.SetFlag(FlagUnupdatable, true)
	assert.True(t, c.Flag(FlagUnupdatable))
	assert.False(t, c.Flag(FlagUninsertable))
	c.SetFlag(FlagUnupdatable, false)
	assert.Zero(t, c.Flags)
}

func TestColumnSet_ColumnsMatchIsOrderSensitive(t *testing.T) {
	tbl := NewGroup().AddSchema("").AddTable("T")
	a, b := tbl.AddColumn("A"), tbl.AddColumn("B")

	idx := tbl.AddIndex("I")
	idx.AddColumn(a)
	idx.AddColumn(b)
	idx.AddColumn(a)

	assert.Len(t, idx.Columns(), 2)
	assert.True(t, idx.ColumnsMatch([]*Column{a, b}))
	assert.False(t, idx.ColumnsMatch([]*Column{b, a}))
	assert.False(t, idx.ColumnsMatch([]*Column{a}))
}

func TestForeignKey_Joins(t *testing.T) {
	_, cust, ord := newShopGroup()
	fk := ord.ForeignKeys()[0]
	ref, id := ord.Column("CUSTOMER_ID"), cust.Column("ID")

	assert.Same(t, cust, fk.PrimaryKeyTable())
	assert.Same(t, id, fk.PrimaryKeyColumnFor(ref))
	assert.Same(t, ref, fk.ColumnFor(id))
	assert.True(t, fk.ColumnsMatch([]*Column{ref}, []*Column{id}))
	assert.False(t, fk.IsLogical())

	kind := ord.AddColumn("KIND")
	fk.JoinConstant(kind, "retail")
	assert.True(t, fk.ColumnsMatch([]*Column{ref}, []*Column{id}), "constants are ignored")

	v, ok := fk.ConstantFor(kind)
	require.True(t, ok)
	assert.Equal(t, "retail", v)

	fk.JoinConstantPK(Null, id)
	fk.JoinConstantPK(int64(1), id)
	assert.Equal(t, []any{int64(1)}, fk.PrimaryKeyConstants())

	// rejoining a local column replaces the previous pair
	other := cust.AddColumn("ALT")
	fk.Join(ref, other)
	assert.Len(t, fk.Columns(), 1)
	assert.Same(t, other, fk.PrimaryKeyColumnFor(ref))
}

func TestForeignKey_ColumnsMatchPairwise(t *testing.T) {
	tbl := NewGroup().AddSchema("").AddTable("T")
	a, b := tbl.AddColumn("A"), tbl.AddColumn("B")
	pa, pb := tbl.AddColumn("PA"), tbl.AddColumn("PB")

	fk := tbl.AddForeignKey("")
	fk.Join(a, pa)
	fk.Join(b, pb)

	assert.True(t, fk.ColumnsMatch([]*Column{b, a}, []*Column{pb, pa}))
	assert.False(t, fk.ColumnsMatch([]*Column{a, b}, []*Column{pb, pa}))
}

func TestSchema_NameTaken(t *testing.T) {
	g, _, ord := newShopGroup()
	s := g.Schema("")
	ord.AddIndex("I_ORDER_CUST")
	ord.AddUnique("U_ORDER")

	assert.True(t, s.TableNameTaken("order1"))
	assert.False(t, s.TableNameTaken("ORDER"))
	assert.True(t, s.IndexNameTaken("i_order_cust"))
	assert.True(t, s.ConstraintNameTaken("PK_CUSTOMER"))
	assert.True(t, s.ConstraintNameTaken("FK_ORDER_CUSTOMER"))
	assert.True(t, s.ConstraintNameTaken("U_ORDER"))
	assert.False(t, s.ConstraintNameTaken("I_ORDER_CUST"))
}

func TestGroup_FindTable(t *testing.T) {
	g, cust, _ := newShopGroup()
	sales := g.AddSchema("SALES")
	inv := sales.AddTable("INVOICE")

	found, err := g.FindTable("customer")
	require.NoError(t, err)
	assert.Same(t, cust, found)

	found, err = g.FindTable("INVOICE")
	require.NoError(t, err)
	assert.Same(t, inv, found)

	found, err = g.FindTable("SALES.INVOICE")
	require.NoError(t, err)
	assert.Same(t, inv, found)
	assert.Equal(t, "SALES.INVOICE", found.FullName())

	found, err = g.FindTable("OTHER.INVOICE")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGroup_FindTableUsesLoader(t *testing.T) {
	g := NewGroup()
	calls := 0

	g.SetLoader(LoaderFunc(func(g *Group, schemaName, tableName string) (*Table, error) {
		calls++
		if tableName != "PRODUCT" {
			return nil, nil
		}

		tbl := g.AddSchema(schemaName).AddTable(tableName)
		tbl.AddColumn("SKU")

		return tbl, nil
	}))

	tbl, err := g.FindTable("PRODUCT")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.NotNil(t, tbl.Column("sku"))

	_, err = g.FindTable("PRODUCT")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "loaded tables are found without the loader")

	for range 2 {
		tbl, err = g.FindTable("MISSING")
		require.NoError(t, err)
		assert.Nil(t, tbl)
	}

	assert.Equal(t, 2, calls, "misses are cached")
}

func TestGroup_FindTableLoaderError(t *testing.T) {
	g := NewGroup()
	boom := errors.New("connection refused")
	g.SetLoader(LoaderFunc(func(*Group, string, string) (*Table, error) {
		return nil, boom
	}))

	_, err := g.FindTable("X")
	require.ErrorIs(t, err, boom)
}

func TestGroup_CloneIsDeep(t *testing.T) {
	g, cust, ord := newShopGroup()
	ord.AddUnique("U_REF").AddColumn(ord.Column("CUSTOMER_ID"))

	cp := g.Clone()

	cord := cp.Schema("").Table("ORDER1")
	require.NotNil(t, cord)
	assert.NotSame(t, ord, cord)

	cref := cord.Column("CUSTOMER_ID")
	assert.NotSame(t, ord.Column("CUSTOMER_ID"), cref)
	assert.Same(t, cord, cref.Table())

	cfk := cord.ForeignKeys()[0]
	assert.Equal(t, ActionCascade, cfk.DeleteAction)
	assert.Same(t, cp.Schema("").Table("CUSTOMER").Column("ID"), cfk.PrimaryKeyColumnFor(cref))
	assert.NotSame(t, cust, cfk.PrimaryKeyTable())

	assert.Same(t, cref, cord.Uniques()[0].Columns()[0])
	assert.True(t, cp.Schema("").Table("CUSTOMER").Column("ID").IsPrimaryKey())

	cord.AddColumn("EXTRA")
	assert.Nil(t, ord.Column("EXTRA"))
}

func TestParseSQLTypeAndAction(t *testing.T) {
	typ, ok := ParseSQLType("varchar")
	require.True(t, ok)
	assert.Equal(t, Varchar, typ)

	_, ok = ParseSQLType("geometry")
	assert.False(t, ok)

	assert.Equal(t, common.UnknownStr, SQLType(-1).String())

	act, ok := ParseAction("SET NULL")
	require.True(t, ok)
	assert.Equal(t, ActionNull, act)
	assert.Equal(t, "SET NULL", act.SQL())
	assert.Empty(t, ActionNone.SQL())

	_, ok = ParseAction("explode")
	assert.False(t, ok)
}
