package match

import (
	"strings"
	"unicode"
)

// strippedSuffixes are name tails that carry no meaning when comparing a
// field with a column, longest first.
var strippedSuffixes = []string{"timestamp", "ids", "utc", "id", "at"}

// Words splits an identifier at separators, lower-to-upper transitions and
// the end of an acronym: "getHTTPResponse" gives get, HTTP, Response.
func Words(s string) []string {
	var (
		words []string
		start = -1
	)

	runes := []rune(s)

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}

		start = -1
	}

	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' {
			flush(i)
			continue
		}

		if start >= 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			acronymEnd := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if !unicode.IsUpper(prev) || acronymEnd {
				flush(i)
			}
		}

		if start < 0 {
			start = i
		}
	}

	flush(len(runes))

	return words
}

// TokenizeIdent returns the lower-cased words of s.
func TokenizeIdent(s string) []string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}

	return words
}

// SnakeCase converts an identifier to lower snake case, so "OrderID"
// becomes "order_id".
func SnakeCase(s string) string {
	return strings.Join(TokenizeIdent(s), "_")
}

// NormalizeIdent folds case and drops separators: "Order_ID", "orderId"
// and "ORDERID" all give "orderid".
func NormalizeIdent(s string) string {
	return strings.Join(TokenizeIdent(s), "")
}

// NormalizeIdentWithSuffixStrip normalizes s and then removes one
// meaningless suffix such as "id" or "at", unless nothing would remain.
func NormalizeIdentWithSuffixStrip(s string) string {
	n := NormalizeIdent(s)

	for _, suffix := range strippedSuffixes {
		if len(n) > len(suffix) && strings.HasSuffix(n, suffix) {
			return strings.TrimSuffix(n, suffix)
		}
	}

	return n
}
