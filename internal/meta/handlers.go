package meta

import (
	"fmt"
	"strings"

	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// valueTemplate is the column template for a value stored as code.
func valueTemplate(vm *ValueMapping, code typecode.Code) *schema.Column {
	col := &schema.Column{JavaType: code}

	if code.IsPrimitive() || vm.isIdentity() {
		col.NotNull, col.NotNullExplicit = true, true
	}

	if vm.role == RoleValue {
		col.AutoAssigned = vm.field.AutoAssign
	}

	return col
}

// immutableHandler stores a scalar value in one column of its own type.
type immutableHandler struct{}

func (immutableHandler) Alias() string { return HandlerImmutable }

func (immutableHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	return []*schema.Column{valueTemplate(vm, vm.Code)}, nil
}

// enumHandler stores enum constants by name, or by ordinal.
type enumHandler struct {
	ordinal bool
}

func newEnumHandler(arg string) (ValueHandler, error) {
	switch strings.ToLower(arg) {
	case "", "name", "string":
		return enumHandler{}, nil
	case "ordinal":
		return enumHandler{ordinal: true}, nil
	default:
		return nil, fmt.Errorf("enum storage %q is neither name nor ordinal", arg)
	}
}

func (h enumHandler) Alias() string {
	if h.ordinal {
		return HandlerEnum + "(ordinal)"
	}

	return HandlerEnum
}

func (h enumHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	if h.ordinal {
		return []*schema.Column{valueTemplate(vm, typecode.Int)}, nil
	}

	col := valueTemplate(vm, typecode.String)

	if vm.role == RoleValue {
		for _, v := range vm.field.EnumValues {
			col.Size = max(col.Size, len(v))
		}
	}

	return []*schema.Column{col}, nil
}

// blobHandler stores the value serialized in a binary large object.
type blobHandler struct{}

func (blobHandler) Alias() string { return HandlerBlob }

func (blobHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	return []*schema.Column{{JavaType: typecode.Object, Size: -1}}, nil
}

// clobHandler stores strings and rune slices in a character large object.
type clobHandler struct{}

func (clobHandler) Alias() string { return HandlerClob }

func (clobHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	return []*schema.Column{{JavaType: typecode.String, Size: -1}}, nil
}

type byteArrayHandler struct{}

func (byteArrayHandler) Alias() string { return HandlerByteArray }

func (byteArrayHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	return []*schema.Column{{JavaType: typecode.Array, Size: -1}}, nil
}

type charArrayHandler struct{}

func (charArrayHandler) Alias() string { return HandlerCharArray }

func (charArrayHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	return []*schema.Column{valueTemplate(vm, typecode.String)}, nil
}

// untypedPCHandler stores a reference of unknown class as "class:id".
type untypedPCHandler struct{}

func (untypedPCHandler) Alias() string { return HandlerUntypedPC }

func (untypedPCHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	return []*schema.Column{valueTemplate(vm, typecode.String)}, nil
}

// objectIDHandler stores an object id in its string form.
type objectIDHandler struct{}

func (objectIDHandler) Alias() string { return HandlerObjectID }

func (objectIDHandler) Map(vm *ValueMapping, _ string, _ *ColumnIO, _ Mode) ([]*schema.Column, error) {
	return []*schema.Column{valueTemplate(vm, typecode.String)}, nil
}

// noArg adapts a handler without arguments to a HandlerFactory.
func noArg(h ValueHandler) HandlerFactory {
	return func(arg string) (ValueHandler, error) {
		if arg != "" {
			return nil, fmt.Errorf("handler %s takes no argument, got %q", h.Alias(), arg)
		}

		return h, nil
	}
}

// ensureHandler installs the named or default handler when vm has none.
func ensureHandler(vm *ValueMapping) error {
	if vm.handler != nil {
		return nil
	}

	repo := vm.Repository()

	h, err := repo.NamedHandler(vm)
	if err != nil {
		return err
	}

	if h == nil {
		h = repo.DefaultHandler(vm)
	}

	if h == nil {
		return metaErr(vm, "no-handler", "no value handler can store values of type %s", typeLabel(vm))
	}

	vm.handler = h

	return nil
}

// mapHandler maps vm through its handler into columns of table.
func mapHandler(vm *ValueMapping, name string, table *schema.Table, mode Mode) error {
	var hio ColumnIO

	tmpls, err := vm.handler.Map(vm, name, &hio, mode)
	if err != nil {
		return err
	}

	return mapValueColumns(vm, name, tmpls, hio, table, mode)
}

// mapValueColumns resolves the value columns from templates, then the
// value's index and unique constraint. Columns hio marks unwritable stay
// unwritable whatever the declared columns say.
func mapValueColumns(vm *ValueMapping, name string, tmpls []*schema.Column, hio ColumnIO, table *schema.Table, mode Mode) error {
	if err := vm.info.AssertNoForeignKey(vm, !mode.Adapt()); err != nil {
		return err
	}

	if err := vm.info.AssertNoJoin(vm, !mode.Adapt()); err != nil {
		return err
	}

	cols, err := vm.info.GetColumns(vm, name, tmpls, table, mode)
	if err != nil {
		return err
	}

	vm.columns = cols
	vm.fk = nil
	vm.joinDir = JoinNone

	if err := vm.mapConstraints(name, mode); err != nil {
		return err
	}

	for i := range cols {
		if !hio.IsInsertable(i, false) {
			vm.io.SetInsertable(i, false)
		}

		if !hio.IsUpdatable(i, false) {
			vm.io.SetUpdatable(i, false)
		}
	}

	return nil
}
