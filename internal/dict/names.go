package dict

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"relmap/internal/common"
	"relmap/internal/schema"
)

// ValidTableName returns a valid, unused table name. A schema qualifier is
// kept as given; only the table part is validated.
func (d *Dictionary) ValidTableName(name string, s *schema.Schema) string {
	if name == "" {
		return ""
	}

	qualifier, local := common.SplitQualified(name)

	var taken func(string) bool
	if s != nil {
		taken = s.TableNameTaken
	}

	return common.Qualify(qualifier, d.makeNameValid(local, d.MaxTableNameLength, taken))
}

// ValidColumnName returns a valid column name. With checkUnique, names
// already used in t are avoided.
func (d *Dictionary) ValidColumnName(name string, t *schema.Table, checkUnique bool) string {
	if name == "" {
		return ""
	}

	var taken func(string) bool
	if checkUnique && t != nil {
		taken = t.ColumnNameTaken
	}

	return d.makeNameValid(name, d.MaxColumnNameLength, taken)
}

// ValidIndexName returns a valid index name unused in t's schema.
func (d *Dictionary) ValidIndexName(name string, t *schema.Table) string {
	if name == "" {
		return ""
	}

	var taken func(string) bool
	if t != nil && t.Schema() != nil {
		taken = t.Schema().IndexNameTaken
	}

	return d.makeNameValid(name, d.MaxIndexNameLength, taken)
}

// ValidUniqueName returns a valid constraint name unused in t's schema.
func (d *Dictionary) ValidUniqueName(name string, t *schema.Table) string {
	return d.validConstraintName(name, t)
}

// ValidForeignKeyName returns a valid constraint name unused in t's schema.
func (d *Dictionary) ValidForeignKeyName(name string, t *schema.Table) string {
	return d.validConstraintName(name, t)
}

// ValidPrimaryKeyName returns a valid constraint name unused in t's schema.
func (d *Dictionary) ValidPrimaryKeyName(name string, t *schema.Table) string {
	return d.validConstraintName(name, t)
}

func (d *Dictionary) validConstraintName(name string, t *schema.Table) string {
	if name == "" {
		return ""
	}

	var taken func(string) bool
	if t != nil && t.Schema() != nil {
		taken = t.Schema().ConstraintNameTaken
	}

	return d.makeNameValid(name, d.MaxConstraintNameLength, taken)
}

func (d *Dictionary) makeNameValid(name string, maxLen int, taken func(string) bool) string {
	s := d.applyCase(sanitize(name))
	if maxLen > 0 && len(s) > maxLen {
		s = d.truncate(s, maxLen)
	}

	free := func(n string) bool {
		return !d.IsReserved(n) && (taken == nil || !taken(n))
	}

	if free(s) {
		return s
	}

	for i := 1; ; i++ {
		suffix := strconv.Itoa(i)

		base := s
		if maxLen > 0 && len(base)+len(suffix) > maxLen {
			base = base[:maxLen-len(suffix)]
		}

		if cand := base + suffix; free(cand) {
			return cand
		}
	}
}

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// sanitize strips accents and replaces every character that is not an ASCII
// letter, digit or underscore. Names must not start with a digit.
func sanitize(name string) string {
	ascii, _, err := transform.String(stripMarks, name)
	if err != nil {
		ascii = name
	}

	var b strings.Builder
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" {
		return "N"
	}

	if out[0] >= '0' && out[0] <= '9' {
		out = "N" + out
	}

	return out
}

func (d *Dictionary) applyCase(s string) string {
	switch d.IdentifierCase {
	case CaseUpper:
		return strings.ToUpper(s)
	case CaseLower:
		return strings.ToLower(s)
	default:
		return s
	}
}

// truncate shortens s to maxLen keeping a hash of the full name, so two long
// names sharing a prefix stay distinct.
func (d *Dictionary) truncate(s string, maxLen int) string {
	hash := d.applyCase(fmt.Sprintf("%08X", uint32(xxh3.HashString(s))))

	keep := maxLen - len(hash) - 1
	if keep < 1 {
		return s[:maxLen]
	}

	return s[:keep] + "_" + hash
}
