// Package dbstrings converts between Go identifiers and the names used for
// them in SQL and in generated code.
package dbstrings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts a Go identifier to snake_case, keeping initialisms
// together.
// Examples:
//
//	"UserID" -> "user_id"
//	"CreatedAt" -> "created_at"
//	"HTTPStatus" -> "http_status"
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || (nextLower && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToLowerCamel lower-cases the leading word of a PascalCase identifier. A
// leading initialism is lower-cased as a whole.
// Examples:
//
//	"PetQueries" -> "petQueries"
//	"SQLReports" -> "sqlReports"
//	"ID" -> "id"
func ToLowerCamel(s string) string {
	r := []rune(s)
	upper := 0
	for upper < len(r) && unicode.IsUpper(r[upper]) {
		upper++
	}
	switch {
	case upper == 0:
		return s
	case upper == len(r):
		return strings.ToLower(s)
	case upper > 1:
		upper--
	}
	for i := 0; i < upper; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// ToUpperFirst upper-cases the first letter: "petQueries" -> "PetQueries".
func ToUpperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
