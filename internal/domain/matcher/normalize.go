package matcher

import "strings"

// Normalize canonicalizes a free-text transaction description for
// comparison: every character that is not a letter or whitespace is
// stripped, whitespace runs collapse to single spaces, and the result is
// trimmed and lower-cased. Merchant codes, reference numbers and
// punctuation noise would otherwise depress similarity scores.
//
// Deterministic, ASCII-case folding only.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isLetter(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(b.String()), " "))
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
