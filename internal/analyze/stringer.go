package analyze

import (
	"go/types"
	"slices"
	"strings"
)

// TypePath builds a readable path string for a field being analyzed.
// Examples:
//   - "shop.Order" for a class
//   - "shop.Order.Lines" for one of its fields
//   - "shop.Order.Lines[]" for the elements of a slice field
//   - "shop.Order.Attrs[key]" for the keys of a map field
type TypePath struct {
	parts []string
}

// NewTypePath creates a new TypePath from a root type name.
func NewTypePath(root string) *TypePath {
	return &TypePath{
		parts: []string{root},
	}
}

// Field appends a field name to the path.
func (p *TypePath) Field(name string) *TypePath {
	return &TypePath{
		parts: append(slices.Clone(p.parts), name),
	}
}

// Slice appends a slice indicator "[]" to the path.
func (p *TypePath) Slice() *TypePath {
	return p.suffix("[]")
}

// Key appends a map key indicator "[key]" to the path.
func (p *TypePath) Key() *TypePath {
	return p.suffix("[key]")
}

func (p *TypePath) suffix(s string) *TypePath {
	if len(p.parts) == 0 {
		return &TypePath{parts: []string{s}}
	}

	newParts := slices.Clone(p.parts)
	newParts[len(newParts)-1] += s

	return &TypePath{parts: newParts}
}

// String returns the full path string.
func (p *TypePath) String() string {
	return strings.Join(p.parts, ".")
}

// TypeStringer renders types qualified by package name, the way they are
// written in source: "*shop.Customer", "map[string]time.Time".
type TypeStringer struct{}

// NewTypeStringer creates a new TypeStringer.
func NewTypeStringer() *TypeStringer {
	return &TypeStringer{}
}

// TypeString returns the source form of a TypeInfo.
func (s *TypeStringer) TypeString(t *TypeInfo) string {
	if t == nil {
		return "<nil>"
	}

	if t.GoType != nil {
		return types.TypeString(t.GoType, packageName)
	}

	switch t.Kind {
	case TypeKindPointer:
		return "*" + s.TypeString(t.ElemType)
	case TypeKindSlice:
		return "[]" + s.TypeString(t.ElemType)
	case TypeKindMap:
		return "map[" + s.TypeString(t.KeyType) + "]" + s.TypeString(t.ElemType)
	case TypeKindInterface:
		return "any"
	default:
		return s.QualifiedName(t.ID)
	}
}

// QualifiedName returns "pkg.Name" for a type id, using the last element
// of the import path as the package name.
func (s *TypeStringer) QualifiedName(id TypeID) string {
	if id.PkgPath == "" {
		return id.Name
	}

	return id.PkgPath[strings.LastIndex(id.PkgPath, "/")+1:] + "." + id.Name
}

func packageName(p *types.Package) string {
	return p.Name()
}
