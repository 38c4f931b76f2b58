package matcher

import "github.com/agnivade/levenshtein"

// Ratio computes a normalized edit-distance similarity between two strings:
// 1 - distance/maxLen, in [0,1]. Identical strings score 1.0; two empty
// strings are considered identical. Callers compare Normalize'd strings.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	r := 1 - float64(dist)/float64(maxLen)
	if r < 0 {
		return 0
	}
	return r
}
