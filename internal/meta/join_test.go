package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/diagnostic"
	"relmap/internal/dict"
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// newBilling returns invoices that reference a customer. Both classes use
// an ID primary key, so the default relation column is CUSTOMER_ID.
func newBilling() (customer, invoice *ClassMapping) {
	customer = NewClassMapping("billing.Customer")
	customer.AddField("ID", typecode.Long).PrimaryKey = true

	invoice = NewClassMapping("billing.Invoice")
	invoice.AddField("ID", typecode.Long).PrimaryKey = true
	invoice.AddField("Customer", typecode.PC).Value().SetRelated(customer)

	return customer, invoice
}

func addBilling(t *testing.T, repo *Repository, customer, invoice *ClassMapping) {
	t.Helper()

	require.NoError(t, repo.AddClass(customer))
	require.NoError(t, repo.AddClass(invoice))
}

// declareBilling names every table and column of the billing model, as
// Strict resolution requires.
func declareBilling(customer, invoice *ClassMapping) {
	customer.Info().TableName = "CUSTOMER"
	customer.Field("ID").Value().Info().Columns = []*schema.Column{{Name: "ID"}}

	invoice.Info().TableName = "INVOICE"
	invoice.Field("ID").Value().Info().Columns = []*schema.Column{{Name: "ID"}}
	invoice.Field("Customer").Value().Info().Columns = []*schema.Column{{Name: "CUSTOMER_ID"}}
}

// billingGroup holds the billing tables with an existing restrict key from
// INVOICE.CUSTOMER_ID to CUSTOMER.ID.
func billingGroup() *schema.Group {
	g := schema.NewGroup()
	s := g.AddSchema("")

	cust := s.AddTable("CUSTOMER")
	cid := cust.AddColumn("ID")
	cid.Type = schema.BigInt
	cust.AddPrimaryKey("PK_CUSTOMER").AddColumn(cid)

	inv := s.AddTable("INVOICE")
	iid := inv.AddColumn("ID")
	iid.Type = schema.BigInt
	inv.AddPrimaryKey("PK_INVOICE").AddColumn(iid)

	ref := inv.AddColumn("CUSTOMER_ID")
	ref.Type = schema.BigInt

	fk := inv.AddForeignKey("FK_OLD")
	fk.DeleteAction = schema.ActionRestrict
	fk.Join(ref, cid)

	return g
}

func assertNames(t *testing.T, want []string, cols []*schema.Column, msg string) {
	t.Helper()

	if len(want) == 0 {
		assert.Empty(t, cols, msg)
		return
	}

	assert.Equal(t, want, columnNames(cols), msg)
}

func TestResolve_RelationJoinColumns(t *testing.T) {
	tests := []struct {
		name      string
		cols      []*schema.Column
		dir       JoinDirection
		wantDir   JoinDirection
		fkTable   string
		pkTable   string
		fkCols    []string
		constCols []string
		consts    []any
		valueCols []string
		absent    string
	}{
		{
			name:      "default column",
			wantDir:   JoinForward,
			fkTable:   "INVOICE",
			pkTable:   "CUSTOMER",
			fkCols:    []string{"CUSTOMER_ID"},
			valueCols: []string{"CUSTOMER_ID"},
		},
		{
			name:      "explicit target",
			cols:      []*schema.Column{{Name: "CUST_REF", Target: "ID"}},
			wantDir:   JoinForward,
			fkTable:   "INVOICE",
			pkTable:   "CUSTOMER",
			fkCols:    []string{"CUST_REF"},
			valueCols: []string{"CUST_REF"},
			absent:    "CUSTOMER_ID",
		},
		{
			name:      "qualified column",
			cols:      []*schema.Column{{Name: "INVOICE.CUST_REF"}},
			wantDir:   JoinForward,
			fkTable:   "INVOICE",
			pkTable:   "CUSTOMER",
			fkCols:    []string{"CUST_REF"},
			valueCols: []string{"CUST_REF"},
			absent:    "CUSTOMER_ID",
		},
		{
			name:      "qualified target",
			cols:      []*schema.Column{{Name: "CUST_REF", Target: "CUSTOMER.ID"}},
			wantDir:   JoinForward,
			fkTable:   "INVOICE",
			pkTable:   "CUSTOMER",
			fkCols:    []string{"CUST_REF"},
			valueCols: []string{"CUST_REF"},
		},
		{
			name:      "target field",
			cols:      []*schema.Column{{Name: "CUST_REF", TargetField: "ID"}},
			wantDir:   JoinForward,
			fkTable:   "INVOICE",
			pkTable:   "CUSTOMER",
			fkCols:    []string{"CUST_REF"},
			valueCols: []string{"CUST_REF"},
		},
		{
			name: "constant joins",
			cols: []*schema.Column{
				{Name: "CUST_REF", Target: "ID"},
				{Name: "KIND", Target: "'retail'"},
				{Name: "REGION", Target: "7"},
			},
			wantDir:   JoinForward,
			fkTable:   "INVOICE",
			pkTable:   "CUSTOMER",
			fkCols:    []string{"CUST_REF"},
			constCols: []string{"KIND", "REGION"},
			consts:    []any{"retail", 7},
			valueCols: []string{"CUST_REF", "KIND", "REGION"},
		},
		{
			name:    "inverse by qualified column",
			cols:    []*schema.Column{{Name: "CUSTOMER.INVOICE_ID"}},
			wantDir: JoinInverse,
			fkTable: "CUSTOMER",
			pkTable: "INVOICE",
			fkCols:  []string{"INVOICE_ID"},
			absent:  "INVOICE_ID",
		},
		{
			name:    "inverse by declared direction",
			cols:    []*schema.Column{{Name: "INVOICE_ID"}},
			dir:     JoinInverse,
			wantDir: JoinInverse,
			fkTable: "CUSTOMER",
			pkTable: "INVOICE",
			fkCols:  []string{"INVOICE_ID"},
			absent:  "INVOICE_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(Adapt)
			customer, invoice := newBilling()

			rel := invoice.Field("Customer").Value()
			rel.Info().Columns = tt.cols
			rel.Info().JoinDirection = tt.dir
			addBilling(t, repo, customer, invoice)

			require.NoError(t, repo.ResolveAll())

			assert.Equal(t, tt.wantDir, rel.JoinDirection())

			fk := rel.ForeignKey()
			require.NotNil(t, fk)
			assert.Equal(t, tt.fkTable, fk.Table().Name)
			assert.Equal(t, tt.pkTable, fk.PrimaryKeyTable().Name)
			assert.Equal(t, tt.fkCols, columnNames(fk.Columns()))
			assert.Equal(t, []string{"ID"}, columnNames(fk.PrimaryKeyColumns()))
			assertNames(t, tt.constCols, fk.ConstantColumns(), "constant columns")
			assert.Equal(t, tt.consts, fk.Constants())
			assertNames(t, tt.valueCols, rel.Columns(), "value columns")

			for _, c := range fk.Columns() {
				assert.Same(t, fk.Table(), c.Table())
			}

			if tt.absent != "" {
				assert.Nil(t, invoice.Table().Column(tt.absent))
			}
		})
	}
}

func TestResolve_RelationJoinErrors(t *testing.T) {
	tests := []struct {
		name string
		cols []*schema.Column
		code string
	}{
		{
			name: "several columns without targets",
			cols: []*schema.Column{{Name: "A_REF"}, {Name: "B_REF"}},
			code: "field-no-fkcol-target",
		},
		{
			name: "unknown target column",
			cols: []*schema.Column{{Name: "CUST_REF", Target: "MISSING"}},
			code: "field-bad-fktarget",
		},
		{
			name: "malformed constant",
			cols: []*schema.Column{{Name: "CUST_REF", Target: "12x"}},
			code: "field-bad-fkconst",
		},
		{
			name: "column and target in one table",
			cols: []*schema.Column{{Name: "CUSTOMER.REF", Target: "CUSTOMER.ID"}},
			code: "field-bad-fktarget-inverse",
		},
		{
			name: "unknown table",
			cols: []*schema.Column{{Name: "NOWHERE.CUST_REF"}},
			code: "field-bad-table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(Adapt)
			customer, invoice := newBilling()

			rel := invoice.Field("Customer")
			rel.Value().Info().Columns = tt.cols
			addBilling(t, repo, customer, invoice)

			err := repo.ResolveAll()
			require.Error(t, err)
			assert.Equal(t, tt.code, diagnostic.CodeOf(err))
			assert.False(t, rel.IsResolved())
		})
	}
}

func TestResolve_SelfJoinCannotBeInverse(t *testing.T) {
	repo := newRepo(Adapt)
	node := NewClassMapping("tree.Node")
	node.AddField("ID", typecode.Long).PrimaryKey = true
	parent := node.AddField("Parent", typecode.PC)
	parent.Value().SetRelated(node)
	parent.Value().Info().Columns = []*schema.Column{{Name: "NODE.PARENT_ID", Flags: schema.FlagPKJoin}}
	require.NoError(t, repo.AddClass(node))

	err := repo.ResolveAll()
	require.Error(t, err)
	assert.Equal(t, "field-bad-fk-self-inverse", diagnostic.CodeOf(err))
	assert.False(t, parent.IsResolved())
}

func TestResolve_ExistingForeignKey(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		declared *schema.ForeignKey
		canFK    Allowance
		code     string
		fkName   string
		action   schema.Action
	}{
		{
			name:     "adapt merges declared name and action",
			mode:     Adapt,
			declared: schema.NewForeignKey("FK_INVOICE_CUSTOMER", schema.ActionCascade),
			fkName:   "FK_INVOICE_CUSTOMER",
			action:   schema.ActionCascade,
		},
		{
			name:     "fill keeps the existing key",
			mode:     Fill,
			declared: schema.NewForeignKey("FK_INVOICE_CUSTOMER", schema.ActionCascade),
			fkName:   "FK_OLD",
			action:   schema.ActionRestrict,
		},
		{
			name:   "strict reuses the existing key",
			mode:   Strict,
			fkName: "FK_OLD",
			action: schema.ActionRestrict,
		},
		{
			name:  "disabled key fails in strict",
			mode:  Strict,
			canFK: Denied,
			code:  "field-fk-exists",
		},
		{
			name:  "disabled key fails in fill",
			mode:  Fill,
			canFK: Denied,
			code:  "field-fk-exists",
		},
		{
			name:   "adapt turns a disabled key logical",
			mode:   Adapt,
			canFK:  Denied,
			fkName: "FK_OLD",
			action: schema.ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := billingGroup()
			exist := g.Schema("").Table("INVOICE").ForeignKeys()[0]

			repo := NewRepository(RepositoryConfig{Group: g, Mode: tt.mode})
			customer, invoice := newBilling()
			declareBilling(customer, invoice)

			rel := invoice.Field("Customer")
			rel.Value().Info().ForeignKey = tt.declared
			rel.Value().Info().CanForeignKey = tt.canFK
			addBilling(t, repo, customer, invoice)

			err := repo.ResolveAll()
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, diagnostic.CodeOf(err))
				assert.False(t, rel.IsResolved())
				assert.False(t, exist.IsLogical())

				return
			}

			require.NoError(t, err)

			fk := rel.Value().ForeignKey()
			assert.Same(t, exist, fk)
			assert.Len(t, invoice.Table().ForeignKeys(), 1)
			assert.Equal(t, tt.fkName, fk.Name)
			assert.Equal(t, tt.action, fk.DeleteAction)
			assert.Equal(t, tt.action == schema.ActionNone, fk.IsLogical())
		})
	}
}

func TestResolve_ForeignKeyActionSupport(t *testing.T) {
	withActions := func(del, upd schema.Action) *schema.ForeignKey {
		fk := schema.NewForeignKey("", del)
		fk.UpdateAction = upd

		return fk
	}

	tests := []struct {
		name     string
		dict     *dict.Dictionary
		declared *schema.ForeignKey
		del      schema.Action
		upd      schema.Action
		warned   bool
	}{
		{
			name: "generic default restrict",
			dict: dict.Generic(),
			del:  schema.ActionRestrict,
		},
		{
			name:     "generic delete cascade",
			dict:     dict.Generic(),
			declared: withActions(schema.ActionCascade, schema.ActionNone),
			del:      schema.ActionCascade,
		},
		{
			name:     "generic update cascade is unsupported",
			dict:     dict.Generic(),
			declared: withActions(schema.ActionNone, schema.ActionCascade),
			warned:   true,
		},
		{
			name:   "mssql default restrict is unsupported",
			dict:   dict.MSSQL(),
			warned: true,
		},
		{
			name:     "mssql delete cascade",
			dict:     dict.MSSQL(),
			declared: withActions(schema.ActionCascade, schema.ActionNone),
			del:      schema.ActionCascade,
		},
		{
			name:     "postgres cascades both ways",
			dict:     dict.Postgres(),
			declared: withActions(schema.ActionCascade, schema.ActionCascade),
			del:      schema.ActionCascade,
			upd:      schema.ActionCascade,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewRepository(RepositoryConfig{Dictionary: tt.dict, Defaults: NewDefaults(), Mode: Adapt})
			customer, invoice := newBilling()

			rel := invoice.Field("Customer").Value()
			rel.Info().ForeignKey = tt.declared
			addBilling(t, repo, customer, invoice)

			require.NoError(t, repo.ResolveAll())

			fk := rel.ForeignKey()
			require.NotNil(t, fk)
			assert.Equal(t, tt.del, fk.DeleteAction)
			assert.Equal(t, tt.upd, fk.UpdateAction)
			assert.Equal(t, tt.warned, fk.IsLogical())
			assert.Equal(t, tt.warned, repo.Diagnostics().HasCode("field-unsupported-fk-action"))

			// Logical keys get an index of their own.
			assert.Equal(t, tt.warned, rel.Index() != nil)
		})
	}
}

func TestResolve_ForeignKeyDisabled(t *testing.T) {
	for _, mode := range []Mode{Fill, Adapt} {
		t.Run(mode.String(), func(t *testing.T) {
			repo := newRepo(mode)
			customer, invoice := newBilling()

			rel := invoice.Field("Customer").Value()
			rel.Info().CanForeignKey = Denied
			addBilling(t, repo, customer, invoice)

			require.NoError(t, repo.ResolveAll())

			fk := rel.ForeignKey()
			require.NotNil(t, fk)
			assert.True(t, fk.IsLogical())
			assert.Equal(t, []string{"CUSTOMER_ID"}, columnNames(fk.Columns()))
			assert.False(t, repo.Diagnostics().HasCode("field-unsupported-fk-action"))

			require.NotNil(t, rel.Index())
			assert.Equal(t, []string{"CUSTOMER_ID"}, columnNames(rel.Index().Columns()))
		})
	}
}

// declaredCustomer maps shop.Customer onto an existing CUSTOMER table with
// one extra field mapped to column.
func declaredCustomer(t *testing.T, repo *Repository, field string, code typecode.Code, column string) (*ClassMapping, *FieldMapping) {
	t.Helper()

	cm := NewClassMapping("shop.Customer")
	cm.Info().TableName = "CUSTOMER"

	id := cm.AddField("ID", typecode.Long)
	id.PrimaryKey = true
	id.Value().Info().Columns = []*schema.Column{{Name: "ID"}}

	fm := cm.AddField(field, code)
	fm.Value().Info().Columns = []*schema.Column{{Name: column}}

	require.NoError(t, repo.AddClass(cm))

	return cm, fm
}

// customerGroup holds CUSTOMER(ID) plus one extra column of the given type.
func customerGroup(column string, typ schema.SQLType, unique bool) *schema.Group {
	g := schema.NewGroup()
	tbl := g.AddSchema("").AddTable("CUSTOMER")

	id := tbl.AddColumn("ID")
	id.Type = schema.BigInt
	tbl.AddPrimaryKey("PK_CUSTOMER").AddColumn(id)

	col := tbl.AddColumn(column)
	col.Type = typ
	if typ.IsCharacter() {
		col.Size = 255
	}

	if unique {
		tbl.AddUnique("U_CUSTOMER_" + column).AddColumn(col)
	}

	return g
}

func TestResolve_UniqueOptOut(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		existing bool
		canU     Allowance
		declared *schema.Unique
		code     string
		uniques  int
		mapped   bool
	}{
		{
			name:     "existing unique is picked up",
			mode:     Strict,
			existing: true,
			uniques:  1,
			mapped:   true,
		},
		{
			name:     "disabled unique fails in strict",
			mode:     Strict,
			existing: true,
			canU:     Denied,
			code:     "field-unique-exists",
			uniques:  1,
		},
		{
			name:     "adapt drops a disabled unique",
			mode:     Adapt,
			existing: true,
			canU:     Denied,
		},
		{
			name:     "adapt creates a declared unique",
			mode:     Adapt,
			declared: schema.NewUnique("", false),
			uniques:  1,
			mapped:   true,
		},
		{
			name:     "strict creates nothing undeclared",
			mode:     Strict,
			existing: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewRepository(RepositoryConfig{Group: customerGroup("EMAIL", schema.Varchar, tt.existing), Mode: tt.mode})
			cm, email := declaredCustomer(t, repo, "Email", typecode.String, "EMAIL")
			email.Value().Info().CanUnique = tt.canU
			email.Value().Info().Unique = tt.declared

			err := repo.ResolveAll()
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, diagnostic.CodeOf(err))
				assert.False(t, email.IsResolved())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mapped, email.Value().Unique() != nil)
			}

			uniques := cm.Table().Uniques()
			require.Len(t, uniques, tt.uniques)

			if tt.mapped {
				assert.Same(t, uniques[0], email.Value().Unique())
				assert.Equal(t, []string{"EMAIL"}, columnNames(uniques[0].Columns()))
			}
		})
	}
}

func TestResolve_IncompatibleExistingColumn(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		fail bool
	}{
		{name: "strict", mode: Strict, fail: true},
		{name: "fill", mode: Fill, fail: true},
		{name: "adapt", mode: Adapt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewRepository(RepositoryConfig{Group: customerGroup("NAME", schema.BigInt, false), Mode: tt.mode})
			cm, name := declaredCustomer(t, repo, "Name", typecode.String, "NAME")

			err := repo.ResolveAll()
			assert.True(t, repo.Diagnostics().HasCode("field-bad-col"))

			col := cm.Table().Column("NAME")
			require.NotNil(t, col)

			if tt.fail {
				require.Error(t, err)
				assert.Equal(t, "field-bad-col", diagnostic.CodeOf(err))
				assert.False(t, name.IsResolved())
				assert.Equal(t, schema.BigInt, col.Type)

				return
			}

			require.NoError(t, err)
			require.Len(t, name.Columns(), 1)
			assert.Same(t, col, name.Columns()[0])
			assert.Equal(t, schema.Varchar, col.Type)
			assert.Equal(t, 255, col.Size)
		})
	}
}
