package meta

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/schema"
)

type tableShape struct {
	Name    string
	Columns []string
	PK      []string
	FKs     []string
	Indexes []string
	Uniques []string
}

func shapeOf(g *schema.Group) []tableShape {
	var out []tableShape

	for _, t := range g.Tables() {
		ts := tableShape{Name: t.FullName(), PK: columnNames(t.PrimaryKeyColumns())}

		for _, c := range t.Columns() {
			ts.Columns = append(ts.Columns, fmt.Sprintf("%s %s(%d) notnull=%t", c.Name, c.Type, c.Size, c.NotNull))
		}

		for _, fk := range t.ForeignKeys() {
			ts.FKs = append(ts.FKs, fmt.Sprintf("%v -> %s%v logical=%t", columnNames(fk.Columns()),
				fk.PrimaryKeyTable().FullName(), columnNames(fk.PrimaryKeyColumns()), fk.IsLogical()))
		}

		for _, idx := range t.Indexes() {
			ts.Indexes = append(ts.Indexes, fmt.Sprintf("%v unique=%t", columnNames(idx.Columns()), idx.Unique))
		}

		for _, u := range t.Uniques() {
			ts.Uniques = append(ts.Uniques, fmt.Sprint(columnNames(u.Columns())))
		}

		slices.Sort(ts.FKs)
		slices.Sort(ts.Indexes)
		slices.Sort(ts.Uniques)
		out = append(out, ts)
	}

	slices.SortFunc(out, func(a, b tableShape) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})

	return out
}

func fieldColumns(cms ...*ClassMapping) map[string][]string {
	out := make(map[string][]string)

	var walk func(prefix string, cm *ClassMapping)
	walk = func(prefix string, cm *ClassMapping) {
		for _, f := range cm.DeclaredFields() {
			key := prefix + f.Name
			out[key] = columnNames(f.Columns())

			if emb := f.Value().EmbeddedMapping(); emb != nil {
				walk(key+".", emb)
			}
		}
	}

	for _, cm := range cms {
		walk(cm.Name+".", cm)
	}

	return out
}

// copyInfos moves the synced infos of src onto the fresh model dst.
func copyInfos(dst, src *ClassMapping) {
	dst.Info().Copy(src.Info())
	dst.Version().Info().Copy(src.Version().Info())
	dst.Discriminator().Info().Copy(src.Discriminator().Info())

	for _, sf := range src.DeclaredFields() {
		df := dst.Field(sf.Name)
		df.Info().Copy(sf.Info())

		pairs := [][2]*ValueMapping{
			{df.Value(), sf.Value()},
			{df.Key(), sf.Key()},
			{df.Element(), sf.Element()},
		}

		for _, p := range pairs {
			if p[0] == nil || p[1] == nil {
				continue
			}

			p[0].Info().Copy(p[1].Info())

			if se := p[1].EmbeddedMapping(); se != nil {
				copyInfos(p[0].EmbeddedMapping(), se)
			}
		}
	}
}

func TestSync_StrictRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, repo *Repository) []*ClassMapping
	}{
		{
			name: "relations and embedding",
			build: func(t *testing.T, repo *Repository) []*ClassMapping {
				s := buildShop(t, repo)
				return []*ClassMapping{s.address, s.customer, s.item, s.order, s.line}
			},
		},
		{
			name: "inheritance with version and secondary table",
			build: func(t *testing.T, repo *Repository) []*ClassMapping {
				return buildZoo(t, repo).classes()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := newRepo(Adapt)
			src := tt.build(t, first)

			require.NoError(t, first.ResolveAll())
			first.SyncAll()

			want := shapeOf(first.SchemaGroup())
			require.NotEmpty(t, want)

			g := first.SchemaGroup().Clone()
			require.Empty(t, cmp.Diff(want, shapeOf(g)))

			second := newRepo(Strict)
			second.SetSchemaGroup(g)
			dst := tt.build(t, second)

			for i := range src {
				copyInfos(dst[i], src[i])
			}

			require.NoError(t, second.ResolveAll())

			if diff := cmp.Diff(want, shapeOf(second.SchemaGroup())); diff != "" {
				t.Errorf("schema changed on strict reload (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(fieldColumns(src...), fieldColumns(dst...)); diff != "" {
				t.Errorf("field columns differ (-want +got):\n%s", diff)
			}

			for i, cm := range dst {
				assert.Equal(t, src[i].Strategy().Alias(), cm.Strategy().Alias(), cm.Name)
				assert.Equal(t, src[i].Version().Strategy().Alias(), cm.Version().Strategy().Alias(), cm.Name)
				assert.Equal(t, columnNames(src[i].Version().Columns()), columnNames(cm.Version().Columns()), cm.Name)
				assert.Equal(t, src[i].Discriminator().Strategy().Alias(), cm.Discriminator().Strategy().Alias(), cm.Name)
				assert.Equal(t, src[i].Discriminator().Value(), cm.Discriminator().Value(), cm.Name)
			}
		})
	}
}

func TestSync_InheritanceInfo(t *testing.T) {
	repo := newRepo(Adapt)
	z := buildZoo(t, repo)

	require.NoError(t, repo.ResolveAll())
	repo.SyncAll()

	assert.Equal(t, "DOG", z.dog.Info().TableName)
	assert.Equal(t, ClassVertical, z.dog.Info().Strategy)
	assert.Equal(t, ClassFlat, z.cat.Info().Strategy)

	join := z.dog.Info().Columns
	require.Len(t, join, 1)
	assert.Equal(t, "ID", join[0].Name)

	disc := z.animal.Discriminator().Info()
	require.Len(t, disc.Columns, 1)
	assert.Equal(t, "TYP", disc.Columns[0].Name)
	assert.False(t, z.dog.Discriminator().Info().HasSchemaComponents())

	version := z.animal.Version().Info()
	require.Len(t, version.Columns, 1)
	assert.Equal(t, "VERSN", version.Columns[0].Name)
	assert.False(t, z.cat.Version().Info().HasSchemaComponents())

	notes := z.animal.Field("Notes").Info()
	assert.Equal(t, "ANIMAL_NOTES", notes.TableName)
	require.Len(t, notes.Columns, 1)
	assert.Equal(t, "ANIMAL_ID", notes.Columns[0].Name)
}

func TestSync_MinimalInfo(t *testing.T) {
	repo := newRepo(Adapt)
	s := buildShop(t, repo)

	require.NoError(t, repo.ResolveAll())
	repo.SyncAll()

	assert.Equal(t, "ORDER1", s.order.Info().TableName)
	assert.Empty(t, s.order.Info().Strategy, "default class strategy is not written")

	cust := s.order.Field("Customer").Value().Info()
	require.Len(t, cust.Columns, 1)
	assert.Equal(t, "ID", cust.Columns[0].Name)
	assert.Equal(t, JoinForward, cust.JoinDirection)

	items := s.order.Field("Items").Info()
	assert.Equal(t, "ORDER1_ITEMS", items.TableName)

	// The mapped-by side owns nothing.
	lines := s.order.Field("Lines")
	assert.False(t, lines.Value().Info().HasSchemaComponents())

	// Embeddable classes keep no table of their own.
	assert.Empty(t, s.address.Info().TableName)
}
