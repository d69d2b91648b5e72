package compile

import (
	"strings"

	"github.com/shipq/queries/dburl"
)

// CountPlaceholders returns the number of bind parameters a query expects:
// the highest $N for postgres, and for mysql and sqlite the number of ?
// markers (sqlite ?NNN markers count by their highest index). Markers
// inside string literals, quoted identifiers and comments are ignored.
// It is a lexical scan, not a parse.
func CountPlaceholders(dialect, sql string) int {
	highest, next := 0, 0
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || (c == '`' && dialect == dburl.DialectMySQL):
			i = skipQuoted(sql, i, c)

		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := indexFrom(sql, i+2, "*/")
			if end < 0 {
				return highest
			}
			i = end + 1

		case c == '$' && dialect == dburl.DialectPostgres:
			n, width := digits(sql[i+1:])
			if width > 0 {
				highest = max(highest, n)
				i += width
				continue
			}
			// dollar-quoted string: $tag$ ... $tag$
			if tag := dollarTag(sql[i:]); tag != "" {
				end := indexFrom(sql, i+len(tag), tag)
				if end < 0 {
					return highest
				}
				i = end + len(tag) - 1
			}

		case c == '?' && dialect != dburl.DialectPostgres:
			n, width := digits(sql[i+1:])
			if width > 0 && dialect == dburl.DialectSQLite {
				next = n
				i += width
			} else {
				next++
			}
			highest = max(highest, next)
		}
	}
	return highest
}

// skipQuoted returns the index of the quote closing the literal opened at
// sql[start]. A doubled quote is an escaped quote.
func skipQuoted(sql string, start int, quote byte) int {
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != quote {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return len(sql)
}

func digits(s string) (n, width int) {
	for width < len(s) && s[width] >= '0' && s[width] <= '9' {
		n = n*10 + int(s[width]-'0')
		width++
	}
	return n, width
}

// dollarTag returns the opening tag of a dollar-quoted string at the start
// of s ("$$" or "$name$"), or "".
func dollarTag(s string) string {
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '$':
			return s[:i+1]
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || (i > 1 && c >= '0' && c <= '9'):
		default:
			return ""
		}
	}
	return ""
}

func indexFrom(s string, from int, sub string) int {
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}
