package common

import "strings"

// UnknownStr is returned by String methods for out-of-range enum values.
const UnknownStr = "unknown"

// SplitQualified splits "a.b" at the last dot. Names without a dot return an
// empty qualifier.
func SplitQualified(name string) (qualifier, local string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}

	return name[:i], name[i+1:]
}

// UnqualifiedName strips everything up to the last dot of a type or column
// name, e.g. "shop.Order" -> "Order".
func UnqualifiedName(name string) string {
	_, local := SplitQualified(name)
	return local
}

// Qualify joins a qualifier and a local name with a dot, omitting the dot when
// the qualifier is empty.
func Qualify(qualifier, local string) string {
	if qualifier == "" {
		return local
	}

	return qualifier + "." + local
}
