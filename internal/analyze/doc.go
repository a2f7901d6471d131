// Package analyze loads Go packages and derives class mappings from their
// structs.
//
// It uses golang.org/x/tools/go/packages with go/types to build a
// type graph of the loaded packages, then ClassBuilder walks the graph and
// adds a meta.ClassMapping for every entity to a repository.
//
// Struct tags under the relmap key carry what Go types cannot say:
//
//	type Order struct {
//		Audit                                   // flattened
//		ID      int64    `relmap:"id,auto"`
//		Lines   []*Line  `relmap:"mappedby=Order,ordered"`
//		Memo    any      `relmap:"serialized"`
//		Scratch string   `relmap:"-"`
//	}
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: kind, element and key types, fields and enum constants
//   - FieldInfo: field name, type, tags and embedding
//   - Options: a parsed relmap tag
package analyze
