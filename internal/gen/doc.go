// Package gen renders a resolved schema group as DDL.
//
// Tables are created in foreign key dependency order, chosen by a
// deterministic topological sort. When tables reference each other the
// keys closing the cycle are added with ALTER TABLE once every table
// exists. Column types come from the dialect's dictionary; identity
// syntax and the ability to alter constraints come from a small per-dialect
// table.
//
// Statement kinds:
//   - CREATE TABLE with columns, primary key, uniques and inline foreign keys
//   - CREATE [UNIQUE] INDEX
//   - ALTER TABLE ... ADD CONSTRAINT ... FOREIGN KEY
package gen
