package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/analyze"
	"relmap/internal/directive"
	"relmap/internal/meta"
)

const shopPkg = "relmap/examples/shop"

func loadShop(t *testing.T) *analyze.TypeGraph {
	t.Helper()

	graph, err := analyze.NewAnalyzer().LoadPackages(shopPkg)
	require.NoError(t, err)

	return graph
}

func summaryOf(t *testing.T, p *ResolvedPlan, name string) ClassSummary {
	t.Helper()

	for _, s := range p.Summary() {
		if s.Name == name {
			return s
		}
	}

	t.Fatalf("no summary for %s", name)

	return ClassSummary{}
}

func fieldOf(s ClassSummary, name string) FieldSummary {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}

	return FieldSummary{}
}

func TestResolver_Resolve(t *testing.T) {
	p, err := NewResolver(loadShop(t), nil, DefaultConfig()).Resolve()
	require.NoError(t, err)
	require.False(t, p.Diagnostics.HasErrors(), p.Diagnostics.Errors)

	assert.Len(t, p.Classes, 6)

	cust := p.Class("shop.Customer")
	require.NotNil(t, cust)
	require.NotNil(t, cust.Table())
	assert.Equal(t, "CUSTOMER", cust.Table().Name)

	tbl, err := p.Schema.FindTable("CUSTOMER")
	require.NoError(t, err)
	assert.Same(t, cust.Table(), tbl)

	s := summaryOf(t, p, "shop.Customer")
	assert.Equal(t, "CUSTOMER", s.Table)
	assert.Equal(t, []string{"ID"}, s.PrimaryKey)
	assert.NotEmpty(t, s.Strategy)
	assert.Equal(t, "shop.Order", fieldOf(s, "Orders").Related)

	order := summaryOf(t, p, "shop.Order")
	assert.Equal(t, "shop.Customer", fieldOf(order, "Customer").Related)
	assert.NotEmpty(t, fieldOf(order, "Customer").Columns)

	digital := summaryOf(t, p, "shop.DigitalProduct")
	assert.Equal(t, "shop.Product", digital.Superclass)
}

func TestResolver_ConfigErrors(t *testing.T) {
	graph := loadShop(t)

	_, err := NewResolver(nil, nil, DefaultConfig()).Resolve()
	require.Error(t, err)

	cfg := DefaultConfig()
	cfg.Dialect = "oracle"
	_, err = NewResolver(graph, nil, cfg).Resolve()
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Preset = "hibernate"
	_, err = NewResolver(graph, nil, cfg).Resolve()
	require.ErrorContains(t, err, "hibernate")
}

func TestResolver_Directives(t *testing.T) {
	f, err := directive.Parse([]byte(`
classes:
  - class: shop.Customer
    table: CLIENT
    fields:
      - field: Name
        value:
          columns: {name: FULL_NAME, size: 80}
`))
	require.NoError(t, err)

	p, err := NewResolver(loadShop(t), f, DefaultConfig()).Resolve()
	require.NoError(t, err)
	require.False(t, p.Diagnostics.HasErrors(), p.Diagnostics.Errors)

	s := summaryOf(t, p, "shop.Customer")
	assert.Equal(t, "CLIENT", s.Table)
	assert.Equal(t, []string{"FULL_NAME"}, fieldOf(s, "Name").Columns)

	col := p.Class("shop.Customer").Table().Column("FULL_NAME")
	require.NotNil(t, col)
	assert.Equal(t, 80, col.Size)
}

func TestResolver_StrictMode(t *testing.T) {
	f, err := directive.Parse([]byte(`
classes:
  - class: shop.Custmer
    table: CLIENT
`))
	require.NoError(t, err)

	cfg := DefaultConfig()
	p, err := NewResolver(loadShop(t), f, cfg).Resolve()
	require.NoError(t, err)
	require.True(t, p.Diagnostics.HasCode("unknown-class"))

	cfg.StrictMode = true
	p, err = NewResolver(loadShop(t), f, cfg).Resolve()
	require.ErrorIs(t, err, ErrStrict)
	require.NotNil(t, p, "the plan is returned with its diagnostics")
	assert.Contains(t, p.Diagnostics.Errors[0].Suggestions, "shop.Customer")
}

func TestResolvedPlan_SyncRoundTrip(t *testing.T) {
	graph := loadShop(t)

	first, err := NewResolver(graph, nil, DefaultConfig()).Resolve()
	require.NoError(t, err)

	data, err := first.SyncYAML()
	require.NoError(t, err)

	synced, err := directive.Parse(data)
	require.NoError(t, err)
	require.NotNil(t, synced.Class("shop.Order"))

	cfg := DefaultConfig()
	cfg.Mode = meta.Fill

	r := NewResolver(graph, synced, cfg)
	r.SetSchema(first.Schema.Clone())

	second, err := r.Resolve()
	require.NoError(t, err)
	require.False(t, second.Diagnostics.HasErrors(), second.Diagnostics.Errors)

	if diff := cmp.Diff(first.Summary(), second.Summary()); diff != "" {
		t.Errorf("mapping changed after sync (-first +second):\n%s", diff)
	}
}
