// Package schema is the in-memory structural model of a relational schema:
// groups of schemas holding tables, columns, primary keys, foreign keys,
// indexes and unique constraints.
//
// The model is passive. It is populated by reflecting a live database
// (internal/introspect) or by the mapping resolver, which finds or creates
// the objects it needs. Objects are mutated in place during resolution and
// treated as read-only afterwards. Only the loader miss cache is guarded.
//
// Name lookups are case-insensitive.
package schema
