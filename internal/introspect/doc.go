// Package introspect reflects tables of a live database into a
// schema.Group.
//
// Backends are registered per dialect: postgres (pgx), sqlite (modernc),
// mssql and mysql. Each Reader turns catalog rows into TableDefs, and an
// Introspector maps those onto schema objects using the dialect's
// dictionary. Load reads tables up front; Loader reads them on demand when
// the mapping resolver looks up a table the group does not hold yet.
package introspect
