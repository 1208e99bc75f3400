package resolver

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two normalized strings as 1 - distance/maxLen using
// Levenshtein distance over runes. Empty input scores 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	d := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-d) / float64(maxLen)
}
