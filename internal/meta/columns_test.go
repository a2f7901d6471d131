package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/diagnostic"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

func TestCreateColumns_CountMismatch(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		declared []*schema.Column
		tmpls    int
		want     []string
		code     string
		warned   bool
	}{
		{
			name:     "fill keeps declared columns and defaults the rest",
			mode:     Fill,
			declared: []*schema.Column{{Name: "FIRST"}},
			tmpls:    2,
			want:     []string{"FIRST", "B"},
			warned:   true,
		},
		{
			name:     "strict rejects a short list",
			mode:     Strict,
			declared: []*schema.Column{{Name: "FIRST"}},
			tmpls:    2,
			code:     "field-num-cols",
		},
		{
			name:     "columns qualified with this table",
			mode:     Fill,
			declared: []*schema.Column{{Name: "OTHER_COL", TableName: "OTHER"}, {Name: "FIRST", TableName: "CUSTOMER"}},
			tmpls:    1,
			want:     []string{"FIRST"},
		},
		{
			name:     "unqualified columns among qualified ones",
			mode:     Fill,
			declared: []*schema.Column{{Name: "OTHER_COL", TableName: "OTHER"}, {Name: "FIRST"}},
			tmpls:    1,
			want:     []string{"FIRST"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(Fill)
			cm := NewClassMapping("shop.Customer")
			cm.AddField("ID", typecode.Long).PrimaryKey = true
			name := cm.AddField("Name", typecode.String)
			require.NoError(t, repo.AddClass(cm))
			require.NoError(t, repo.ResolveAll())

			tmpls := []*schema.Column{
				{Name: "A", JavaType: typecode.String},
				{Name: "B", JavaType: typecode.Int},
			}[:tt.tmpls]

			vi := name.Value().Info()
			vi.Columns = tt.declared

			cols, err := vi.createColumns(name.Value(), "field", tmpls, cm.Table(), tt.mode)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, diagnostic.CodeOf(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, columnNames(cols))
			assert.Equal(t, tt.warned, repo.Diagnostics().HasCode("field-num-cols"))

			for _, c := range cols {
				assert.Same(t, cm.Table(), c.Table())
			}
		})
	}
}

func TestResolve_DeclaredColumnType(t *testing.T) {
	tests := []struct {
		name     string
		declared *schema.Column
		sqlType  schema.SQLType
		typeName string
		warned   bool
	}{
		{
			name:     "compatible type keeps the type name",
			declared: &schema.Column{Name: "VISITS_N", Type: schema.BigInt, TypeName: "INT8"},
			sqlType:  schema.BigInt,
			typeName: "INT8",
		},
		{
			name:     "size alone is compatible",
			declared: &schema.Column{Name: "VISITS_N", Size: 12},
			sqlType:  schema.Integer,
		},
		{
			name:     "incompatible type is reported",
			declared: &schema.Column{Name: "VISITS_N", Type: schema.Varchar},
			sqlType:  schema.Varchar,
			warned:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(Adapt)
			cm := NewClassMapping("shop.Customer")
			cm.AddField("ID", typecode.Long).PrimaryKey = true
			visits := cm.AddField("Visits", typecode.Int)
			visits.Value().Info().Columns = []*schema.Column{tt.declared}
			require.NoError(t, repo.AddClass(cm))

			require.NoError(t, repo.ResolveAll())

			require.Len(t, visits.Columns(), 1)
			col := visits.Columns()[0]
			assert.Equal(t, "VISITS_N", col.Name)
			assert.Equal(t, tt.sqlType, col.Type)
			assert.Equal(t, tt.typeName, col.TypeName)
			assert.Equal(t, tt.warned, repo.Diagnostics().HasCode("field-incompat-col"))
		})
	}
}

func TestResolve_SharedDefaultRelationColumn(t *testing.T) {
	tests := []struct {
		name     string
		declared []*schema.Column
		warned   bool
	}{
		{name: "default names collide", warned: true},
		{name: "declared shared column", declared: []*schema.Column{{Name: "ID"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(Adapt)
			customer := NewClassMapping("billing.Customer")
			customer.AddField("ID", typecode.Long).PrimaryKey = true

			letter := NewClassMapping("mail.Letter")
			letter.AddField("OID", typecode.Long).PrimaryKey = true
			sender := letter.AddField("Sender", typecode.PC)
			sender.Value().SetRelated(customer)
			receiver := letter.AddField("Receiver", typecode.PC)
			receiver.Value().SetRelated(customer)
			receiver.Value().Info().Columns = tt.declared

			require.NoError(t, repo.AddClass(customer))
			require.NoError(t, repo.AddClass(letter))
			require.NoError(t, repo.ResolveAll())

			require.Len(t, sender.Columns(), 1)
			require.Len(t, receiver.Columns(), 1)
			assert.Equal(t, "ID", sender.Columns()[0].Name)
			assert.Same(t, sender.Columns()[0], receiver.Columns()[0])
			assert.Equal(t, tt.warned, repo.Diagnostics().HasCode("field-dup-fk-col"))
		})
	}
}

func TestMappingInfo_Validate(t *testing.T) {
	tests := []struct {
		name string
		info MappingInfo
		code string
	}{
		{name: "empty"},
		{
			name: "index allowed",
			info: MappingInfo{CanIndex: Allowed, Index: schema.NewIndex("I_X", false)},
		},
		{
			name: "opt-outs without declarations",
			info: MappingInfo{CanIndex: Denied, CanUnique: Denied, CanForeignKey: Denied},
		},
		{
			name: "index declared but disabled",
			info: MappingInfo{CanIndex: Denied, Index: schema.NewIndex("I_X", false)},
			code: "index-conflict",
		},
		{
			name: "unique declared but disabled",
			info: MappingInfo{CanUnique: Denied, Unique: schema.NewUnique("U_X", false)},
			code: "unique-conflict",
		},
		{
			name: "foreign key declared but disabled",
			info: MappingInfo{CanForeignKey: Denied, ForeignKey: schema.NewForeignKey("FK_X", schema.ActionRestrict)},
			code: "fk-conflict",
		},
	}

	cm := NewClassMapping("shop.Customer")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate(cm)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.code, diagnostic.CodeOf(err))
		})
	}
}

func TestResolve_ValidateConflicts(t *testing.T) {
	t.Run("field", func(t *testing.T) {
		repo := newRepo(Adapt)
		cm := NewClassMapping("shop.Customer")
		cm.AddField("ID", typecode.Long).PrimaryKey = true
		name := cm.AddField("Name", typecode.String)
		name.Info().CanIndex = Denied
		name.Info().Index = schema.NewIndex("", false)
		require.NoError(t, repo.AddClass(cm))

		err := repo.ResolveAll()
		require.Error(t, err)
		assert.Equal(t, "index-conflict", diagnostic.CodeOf(err))
		assert.True(t, cm.IsResolved())
		assert.False(t, name.IsResolved())
		assert.True(t, cm.Field("ID").IsResolved())
	})

	t.Run("class", func(t *testing.T) {
		repo := newRepo(Adapt)
		z := newZoo()
		z.dog.Info().CanForeignKey = Denied
		z.dog.Info().ForeignKey = schema.NewForeignKey("", schema.ActionCascade)
		addZoo(t, repo, z)

		err := repo.ResolveAll()
		require.Error(t, err)
		assert.Equal(t, "fk-conflict", diagnostic.CodeOf(err))
		assert.False(t, z.dog.IsResolved())
		assert.True(t, z.animal.IsResolved())
		assert.True(t, z.cat.IsResolved())
	})
}
