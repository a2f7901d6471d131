package gen

// syntax holds the DDL details that differ between dialects beyond type
// names.
type syntax struct {
	// autoIncrement is appended to auto-assigned columns.
	autoIncrement string
	// alterForeignKey reports whether foreign keys can be added to an
	// existing table.
	alterForeignKey bool
}

var syntaxes = map[string]syntax{
	"generic":  {autoIncrement: "GENERATED BY DEFAULT AS IDENTITY", alterForeignKey: true},
	"postgres": {autoIncrement: "GENERATED BY DEFAULT AS IDENTITY", alterForeignKey: true},
	"mssql":    {autoIncrement: "IDENTITY(1,1)", alterForeignKey: true},
	"mysql":    {autoIncrement: "AUTO_INCREMENT", alterForeignKey: true},
	// An INTEGER PRIMARY KEY already aliases the rowid, and foreign keys
	// may name tables created later.
	"sqlite": {},
}

func syntaxFor(dialect string) syntax {
	if s, ok := syntaxes[dialect]; ok {
		return s
	}

	return syntaxes["generic"]
}
