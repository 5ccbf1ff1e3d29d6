// Package normalize implements the single normalization function used at
// both index time and query time: Unicode NFD decomposition, stripping of
// combining marks U+0300..U+036F, lowercasing, and whitespace collapse.
//
// Applying the same function on both sides is what makes accent folding
// (scenario 3 in SPEC_FULL.md §8) work without any per-script special-casing.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Name normalizes s for indexing or querying. It is idempotent: Name(Name(s)) == Name(s).
func Name(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if isCombiningMark(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// isCombiningMark reports whether r falls in the combining diacritical marks
// block U+0300..U+036F, matching the original's accent-folding range exactly.
func isCombiningMark(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
}

// Tokens splits a normalized string on whitespace.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
