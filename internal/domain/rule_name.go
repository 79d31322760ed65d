package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeRuleName canonicalizes a grammar rule name so that the same rule
// arriving from different exercises maps to the same ledger key.
//
// The input is trimmed, runs of whitespace collapse to a single space, and
// every token is rewritten with its first letter upper-cased and the rest
// lower-cased. The function is total: blank or whitespace-only input yields
// the empty string, which callers must reject.
func NormalizeRuleName(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		first, size := utf8.DecodeRuneInString(tok)
		b.WriteRune(unicode.ToUpper(first))
		b.WriteString(strings.ToLower(tok[size:]))
	}
	return b.String()
}

// ParseRuleName normalizes name and rejects a blank result.
func ParseRuleName(name string) (string, error) {
	normalized := NormalizeRuleName(name)
	if normalized == "" {
		return "", ErrBlankRuleName
	}
	return normalized, nil
}
