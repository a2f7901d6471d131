package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/diagnostic"
	"relmap/internal/meta"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

func shopModel(t *testing.T, repo *meta.Repository) {
	t.Helper()

	addr := meta.NewClassMapping("shop.Address")
	addr.Embeddable = true
	addr.Identity = meta.IdentityUnknown
	addr.AddField("Street", typecode.String)

	cust := meta.NewClassMapping("shop.Customer")
	cust.AddField("ID", typecode.Long).PrimaryKey = true
	cust.AddField("Name", typecode.String)
	cust.AddField("Address", typecode.PC).Value().SetRelated(addr)

	order := meta.NewClassMapping("shop.Order")
	order.AddField("OID", typecode.Long).PrimaryKey = true
	order.AddField("Customer", typecode.PC).Value().SetRelated(cust)
	order.AddField("Version", typecode.Int).VersionField = true

	for _, cm := range []*meta.ClassMapping{addr, cust, order} {
		require.NoError(t, repo.AddClass(cm))
	}
}

func newRepo(mode meta.Mode, g *schema.Group) *meta.Repository {
	return meta.NewRepository(meta.RepositoryConfig{Mode: mode, Group: g})
}

func TestApply_PopulatesInfos(t *testing.T) {
	yaml := `
classes:
  - class: Customer
    table: CLIENT
    fields:
      - field: Name
        value:
          columns: {name: FULL_NAME, size: 80}
          can-index: false
      - field: Address
        value:
          columns: ADDR_NULL
          embedded:
            - field: Street
              value:
                columns: STREET
  - class: shop.Order
    discriminator:
      value: "'O'"
    fields:
      - field: Customer
        value:
          columns: CLIENT_ID
          foreign-key: {delete: cascade}
`

	f, err := Parse([]byte(yaml))
	require.NoError(t, err)

	repo := newRepo(meta.Adapt, nil)
	shopModel(t, repo)

	res := Apply(f, repo)
	require.False(t, res.HasErrors(), res.Errors)

	cust := repo.Class("shop.Customer")
	assert.Equal(t, "CLIENT", cust.Info().TableName)

	name := cust.Field("Name").Value().Info()
	require.Len(t, name.Columns, 1)
	assert.Equal(t, "FULL_NAME", name.Columns[0].Name)
	assert.Equal(t, 80, name.Columns[0].Size)
	assert.Equal(t, meta.Denied, name.CanIndex)

	emb := cust.Field("Address").Value().EmbeddedMapping()
	require.NotNil(t, emb)
	assert.Equal(t, "STREET", emb.Field("Street").Value().Info().Columns[0].Name)
	assert.Empty(t, repo.Class("shop.Address").Field("Street").Value().Info().Columns)

	order := repo.Class("shop.Order")
	assert.Equal(t, "'O'", order.Discriminator().Info().Value)

	ref := order.Field("Customer").Value().Info()
	require.NotNil(t, ref.ForeignKey)
	assert.Equal(t, schema.ActionCascade, ref.ForeignKey.DeleteAction)

	require.NoError(t, repo.ResolveAll())

	tbl := cust.Table()
	assert.Equal(t, "CLIENT", tbl.Name)
	assert.NotNil(t, tbl.Column("FULL_NAME"))
	assert.NotNil(t, tbl.Column("STREET"))
	assert.NotNil(t, tbl.Column("ADDR_NULL"))

	fk := order.Field("Customer").Value().ForeignKey()
	require.NotNil(t, fk)
	assert.Equal(t, "CLIENT_ID", fk.Columns()[0].Name)
	assert.Equal(t, schema.ActionCascade, fk.DeleteAction)
}

func TestApply_UnknownNamesSuggest(t *testing.T) {
	f := &File{Classes: []ClassDirective{
		{Class: "shop.Custmer"},
		{Class: "shop.Order", Fields: []FieldDirective{{Field: "Custommer"}}},
		{Class: "shop.Customer", Fields: []FieldDirective{{Field: "Name", Key: &ValueDirective{}}}},
	}}

	repo := newRepo(meta.Adapt, nil)
	shopModel(t, repo)

	res := Apply(f, repo)
	require.True(t, res.HasErrors())
	require.Len(t, res.Errors, 3)

	byCode := make(map[string]diagnostic.Diagnostic)
	for _, d := range res.Errors {
		byCode[d.Code] = d
	}

	assert.Contains(t, byCode["unknown-class"].Suggestions, "shop.Customer")
	assert.Contains(t, byCode["unknown-field"].Suggestions, "Customer")
	assert.Contains(t, byCode, "no-such-value")
}

func TestApply_BadValues(t *testing.T) {
	tests := []struct {
		name string
		fd   FieldDirective
	}{
		{"sql type", FieldDirective{Field: "Name", Value: &ValueDirective{
			Components: Components{Columns: Columns{{Name: "N", Type: "VARCHARR"}}},
		}}},
		{"delete action", FieldDirective{Field: "Name", Value: &ValueDirective{
			Components: Components{ForeignKey: &ForeignKey{Delete: "explode"}},
		}}},
		{"join direction", FieldDirective{Field: "Name", Components: Components{JoinDirection: "sideways"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(meta.Adapt, nil)
			shopModel(t, repo)

			f := &File{Classes: []ClassDirective{{Class: "shop.Customer", Fields: []FieldDirective{tt.fd}}}}

			res := Apply(f, repo)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, "bad-directive", res.Errors[0].Code)
		})
	}
}

func TestExport_StrictRoundTrip(t *testing.T) {
	first := newRepo(meta.Adapt, nil)
	shopModel(t, first)

	require.NoError(t, first.ResolveAll())
	first.SyncAll()

	exported := Export(first)
	require.NotNil(t, exported.Class("shop.Order"))
	assert.Nil(t, exported.Class("shop.Address"), "embeddables travel with their embeddings")

	data, err := Marshal(exported)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)

	second := newRepo(meta.Strict, first.SchemaGroup().Clone())
	shopModel(t, second)

	res := Apply(parsed, second)
	require.False(t, res.HasErrors(), res.Errors)
	require.NoError(t, second.ResolveAll())

	for _, name := range []string{"shop.Customer", "shop.Order"} {
		a, b := first.Class(name), second.Class(name)
		assert.Equal(t, a.Table().FullName(), b.Table().FullName(), name)

		for _, fa := range a.DeclaredFields() {
			fb := b.Field(fa.Name)
			assert.Equal(t, names(fa.Columns()), names(fb.Columns()), fa.String())
		}
	}

	ea := first.Class("shop.Customer").Field("Address").Value().EmbeddedMapping()
	eb := second.Class("shop.Customer").Field("Address").Value().EmbeddedMapping()
	assert.Equal(t, names(ea.Field("Street").Columns()), names(eb.Field("Street").Columns()))

	va := first.Class("shop.Order").Version()
	vb := second.Class("shop.Order").Version()
	assert.Equal(t, va.Strategy().Alias(), vb.Strategy().Alias())
	assert.Equal(t, names(va.Columns()), names(vb.Columns()))
}

func names(cols []*schema.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}

	return out
}
