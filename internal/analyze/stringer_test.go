package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypePath(t *testing.T) {
	root := NewTypePath("shop.Order")
	assert.Equal(t, "shop.Order", root.String())

	lines := root.Field("Lines")
	assert.Equal(t, "shop.Order.Lines", lines.String())
	assert.Equal(t, "shop.Order.Lines[]", lines.Slice().String())
	assert.Equal(t, "shop.Order.Attrs[key]", root.Field("Attrs").Key().String())

	// Paths are immutable.
	assert.Equal(t, "shop.Order.Lines", lines.String())
}

func TestTypeStringer_TypeString(t *testing.T) {
	graph := loadShop(t)
	s := NewTypeStringer()

	order := graph.GetType(TypeID{PkgPath: shopPkg, Name: "Order"})

	tests := []struct {
		field string
		want  string
	}{
		{"Customer", "*shop.Customer"},
		{"Lines", "[]*shop.Line"},
		{"Attrs", "map[string]string"},
		{"Status", "shop.Status"},
		{"Memo", "any"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, s.TypeString(fieldByName(t, order, tt.field).Type))
		})
	}
}

func TestTypeStringer_WithoutGoType(t *testing.T) {
	s := NewTypeStringer()

	elem := &TypeInfo{ID: TypeID{PkgPath: shopPkg, Name: "Line"}, Kind: TypeKindStruct}
	ptr := &TypeInfo{Kind: TypeKindPointer, ElemType: elem}

	assert.Equal(t, "[]*shop.Line", s.TypeString(&TypeInfo{Kind: TypeKindSlice, ElemType: ptr}))
	assert.Equal(t, "<nil>", s.TypeString(nil))
}
