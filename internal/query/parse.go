// Package query parses the free-text search syntax into a structured query.
//
// A search string is a sequence of space-separated tokens. Tokens with a
// recognized prefix (path:, pathre:, symbol:, re:, text:, id:) set the
// corresponding field; the first unrecognized token begins the default
// free-text field, which consumes the rest of the string.
package query

import (
	"regexp"
	"strings"
)

// Query is the structured form of a search string. A field is present when
// it is non-empty. At most one of Symbol, Regex, ID, and Default drives the
// primary search; PathRegex is an orthogonal filter combinable with any of
// them.
type Query struct {
	// PathRegex is regex text filtering result paths (from path: or pathre:)
	PathRegex string

	// Symbol is a comma-separated symbol list, with . normalized to #
	Symbol string

	// Regex is literal regex text to search content for (from re:)
	Regex string

	// ID is an identifier or identifier prefix (from id:)
	ID string

	// Default is regex-escaped free text
	Default string
}

// escapeRegexRE matches exactly the regex metacharacters we escape. High
// bytes are deliberately left alone so UTF-8 encoded text is not mangled.
var escapeRegexRE = regexp.MustCompile(`[(){}\[\].*?|^$\\+-]`)

// EscapeRegex escapes regex metacharacters so the result matches s literally
func EscapeRegex(s string) string {
	return escapeRegexRE.ReplaceAllString(s, `\$0`)
}

var (
	globStarRE  = regexp.MustCompile(`\*\*|\*`)
	globGroupRE = regexp.MustCompile(`\{([^}]*)\}`)
)

// TranslateGlob converts a glob path filter into regex text. Supported
// forms: ** (match anything), * (match anything except /), ? (any single
// character), and {a,b,c} (alternation). ^ and $ pass through unescaped so
// filters may be anchored.
func TranslateGlob(glob string) string {
	s := glob
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, ".", `\.`)

	s = globStarRE.ReplaceAllStringFunc(s, func(m string) string {
		if m == "*" {
			return "[^/]*"
		}
		return ".*"
	})

	s = strings.ReplaceAll(s, "?", ".")

	s = globGroupRE.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[1 : len(m)-1]
		return "(" + strings.Join(strings.Split(inner, ","), "|") + ")"
	})

	return s
}

// ParseSearch parses a raw search string into a Query. re:, text:, symbol:,
// and the default field consume all remaining tokens; path:, pathre:, and
// id: take only their own token.
func ParseSearch(raw string) Query {
	var q Query

	pieces := strings.Split(raw, " ")
	for i := 0; i < len(pieces); i++ {
		piece := pieces[i]
		rest := func(prefix string) string {
			return strings.Join(pieces[i:], " ")[len(prefix):]
		}

		switch {
		case strings.HasPrefix(piece, "path:"):
			q.PathRegex = TranslateGlob(piece[len("path:"):])
		case strings.HasPrefix(piece, "pathre:"):
			q.PathRegex = piece[len("pathre:"):]
		case strings.HasPrefix(piece, "symbol:"):
			sym := strings.TrimSpace(rest("symbol:"))
			q.Symbol = strings.ReplaceAll(sym, ".", "#")
			return q
		case strings.HasPrefix(piece, "re:"):
			q.Regex = rest("re:")
			return q
		case strings.HasPrefix(piece, "text:"):
			q.Regex = EscapeRegex(rest("text:"))
			return q
		case strings.HasPrefix(piece, "id:"):
			q.ID = piece[len("id:"):]
		default:
			q.Default = EscapeRegex(strings.Join(pieces[i:], " "))
			return q
		}
	}

	return q
}

// IsTrivial reports whether a query is too broad to run: no symbol field and
// every present field shorter than 3 bytes. Such queries would overload the
// backends and are answered with an empty result instead.
func (q Query) IsTrivial() bool {
	if q.Symbol != "" {
		return false
	}
	for _, field := range []string{q.PathRegex, q.Regex, q.ID, q.Default} {
		if len(field) >= 3 {
			return false
		}
	}
	return true
}
