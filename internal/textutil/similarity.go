package textutil

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Score returns the length-penalized Jaccard similarity of two token
// sequences: Jaccard(set a, set b) * LengthRatio(len a, len b).
// The result is in [0,1], symmetric, and 0 when either input is empty.
func Score(a, b []string) float64 {
	return Jaccard(a, b) * LengthRatio(len(a), len(b))
}

// Jaccard computes |A ∩ B| / |A ∪ B| over the distinct tokens of a and b.
// Returns 0 when the union is empty.
func Jaccard(a, b []string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	union := len(setA)
	intersection := 0
	for token := range setB {
		if _, ok := setA[token]; ok {
			intersection++
			continue
		}
		union++
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// LengthRatio returns min(a,b)/max(a,b), or 0 when either length is 0.
func LengthRatio(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

// FuzzySimilarity returns the Jaro-Winkler similarity of the normalized forms
// of a and b. It is used for operator hints only, never for alignment.
func FuzzySimilarity(a, b string) float64 {
	left := strings.Join(Normalize(a), " ")
	right := strings.Join(Normalize(b), " ")
	if left == "" || right == "" {
		return 0
	}
	return matchr.JaroWinkler(left, right, false)
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
