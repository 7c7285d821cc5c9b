// Package fuzzy provides the similarity scores used by the field
// classifier on top of go-fuzzywuzzy. Scores are in [0, 100].
package fuzzy

import (
	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Ratio is the SequenceMatcher similarity of a and b. Two empty strings are
// equal, one empty string matches nothing.
func Ratio(a, b string) float64 {
	if score, ok := empty(a, b); ok {
		return score
	}
	return float64(fuzzywuzzy.Ratio(a, b))
}

// PartialRatio is the best Ratio between the shorter string and windows of
// the longer one. Windows that hang past either end of the longer string
// are scored too, so a needle cut off at a boundary still aligns.
func PartialRatio(a, b string) float64 {
	s, l := []rune(a), []rune(b)
	if len(s) > len(l) {
		s, l = l, s
	}
	if score, ok := empty(string(s), string(l)); ok {
		return score
	}

	needle := string(s)
	best := float64(fuzzywuzzy.PartialRatio(needle, string(l)))
	for n := 1; n < len(s) && best < 100; n++ {
		best = max(best,
			float64(fuzzywuzzy.Ratio(needle, string(l[:n]))),
			float64(fuzzywuzzy.Ratio(needle, string(l[len(l)-n:]))),
		)
	}
	return best
}

// TokenSetRatio compares the intersection and differences of the token
// sets of both strings.
func TokenSetRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return float64(fuzzywuzzy.TokenSetRatio(a, b))
}

// Best returns max(PartialRatio, TokenSetRatio).
func Best(pattern, text string) float64 {
	return max(PartialRatio(pattern, text), TokenSetRatio(pattern, text))
}

func empty(a, b string) (float64, bool) {
	switch {
	case a == "" && b == "":
		return 100, true
	case a == "" || b == "":
		return 0, true
	}
	return 0, false
}
