// Package dict describes SQL dialects to the mapping resolver.
//
// A Dictionary answers three kinds of questions:
//
//   - Types: which SQL type stores a given type code, and how that type is
//     spelled in DDL (JDBCType, PreferredType, TypeName).
//   - Names: how to turn an arbitrary identifier into one the database
//     accepts (ValidTableName, ValidColumnName and friends). Validation
//     strips diacritics, replaces invalid characters, applies the dialect's
//     identifier case, truncates long names behind a short content hash and
//     appends a numeric suffix to reserved or already-taken names.
//   - Capabilities: which referential actions, deferred constraints and
//     unique constraints the database supports.
//
// Dialects are registered by name. The built-ins are generic, postgres,
// sqlite, mssql and mysql:
//
//	d, err := dict.New("postgres")
//	if err != nil {
//	    return err
//	}
//	typ := d.JDBCType(typecode.String, false, 0, 0, false) // VARCHAR
package dict
