package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopPkg = "relmap/examples/shop"

func loadShop(t *testing.T) *TypeGraph {
	t.Helper()

	graph, err := NewAnalyzer().LoadPackages(shopPkg)
	require.NoError(t, err)
	require.NotNil(t, graph)

	return graph
}

func fieldByName(t *testing.T, info *TypeInfo, name string) FieldInfo {
	t.Helper()

	for _, f := range info.Fields {
		if f.Name == name {
			return f
		}
	}

	t.Fatalf("%s has no field %s", info.ID, name)

	return FieldInfo{}
}

func TestAnalyzer_LoadPackages(t *testing.T) {
	graph := loadShop(t)

	require.Contains(t, graph.Packages, shopPkg)
	assert.Equal(t, "shop", graph.Packages[shopPkg].Name)

	for _, name := range []string{"Order", "Customer", "Line", "Address", "Status"} {
		assert.Contains(t, graph.Types, TypeID{PkgPath: shopPkg, Name: name})
	}
}

func TestAnalyzer_UnexportedFieldsSkipped(t *testing.T) {
	analyzer := NewAnalyzer()
	_, err := analyzer.LoadPackages(shopPkg)
	require.NoError(t, err)

	customer, err := analyzer.GetStruct(shopPkg, "Customer")
	require.NoError(t, err)

	for _, f := range customer.Fields {
		assert.NotEqual(t, "loaded", f.Name)
	}

	_, err = analyzer.GetStruct(shopPkg, "Status")
	assert.Error(t, err)

	_, err = analyzer.GetStruct(shopPkg, "Missing")
	assert.Error(t, err)
}

func TestAnalyzer_FieldKinds(t *testing.T) {
	graph := loadShop(t)
	order := graph.GetType(TypeID{PkgPath: shopPkg, Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, TypeKindStruct, order.Kind)

	audit := fieldByName(t, order, "Audit")
	assert.True(t, audit.Embedded)

	customer := fieldByName(t, order, "Customer")
	assert.Equal(t, TypeKindPointer, customer.Type.Kind)
	assert.Equal(t, "Customer", customer.Type.ElemType.ID.Name)

	lines := fieldByName(t, order, "Lines")
	assert.Equal(t, TypeKindSlice, lines.Type.Kind)
	assert.Equal(t, "mappedby=Order,ordered", lines.GetTag(TagKey))

	attrs := fieldByName(t, order, "Attrs")
	require.Equal(t, TypeKindMap, attrs.Type.Kind)
	assert.Equal(t, TypeKindBasic, attrs.Type.KeyType.Kind)

	memo := fieldByName(t, order, "Memo")
	assert.Equal(t, TypeKindInterface, memo.Type.Kind)

	created := fieldByName(t, graph.GetType(TypeID{PkgPath: shopPkg, Name: "Audit"}), "CreatedAt")
	assert.Equal(t, TypeKindExternal, created.Type.Kind)
	assert.Equal(t, "time.Time", created.Type.ID.String())
}

func TestAnalyzer_EnumConstants(t *testing.T) {
	graph := loadShop(t)

	status := graph.GetType(TypeID{PkgPath: shopPkg, Name: "Status"})
	require.NotNil(t, status)
	assert.True(t, status.IsEnum())
	assert.Equal(t, []string{"StatusOpen", "StatusPaid", "StatusShipped"}, status.Constants)
	assert.Equal(t, []string{"OPEN", "PAID", "SHIPPED"}, status.ConstValues)

	priority := graph.GetType(TypeID{PkgPath: shopPkg, Name: "Priority"})
	require.NotNil(t, priority)
	assert.Equal(t, []string{"PriorityLow", "PriorityNormal", "PriorityHigh"}, priority.Constants)
	assert.Equal(t, []string{"0", "1", "2"}, priority.ConstValues)

	address := graph.GetType(TypeID{PkgPath: shopPkg, Name: "Address"})
	assert.False(t, address.IsEnum())
}

func TestTypeID_String(t *testing.T) {
	assert.Equal(t, "relmap/examples/shop.Order", TypeID{PkgPath: shopPkg, Name: "Order"}.String())
	assert.Equal(t, "int", TypeID{Name: "int"}.String())
}

func TestTypeKind_String(t *testing.T) {
	assert.Equal(t, "map", TypeKindMap.String())
	assert.Equal(t, "interface", TypeKindInterface.String())
	assert.Equal(t, "unknown", TypeKind(99).String())
}
