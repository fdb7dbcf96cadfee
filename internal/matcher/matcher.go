package matcher

import "strings"

// Ratio scores the similarity of two strings in [0,1], case-insensitively.
// The score is the longest common subsequence length divided by the longer
// string's length, so equal strings score 1.0 and a short title buried in a
// long filename scores low.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return float64(lcsLength(ra, rb)) / float64(longest)
}

// Match is the best-scoring candidate for a title.
type Match struct {
	Candidate string
	Score     float64
}

// BestMatch scores the title against every candidate and returns the highest
// scorer. The first candidate in input order wins ties. Returns false when
// there are no candidates.
func BestMatch(title string, candidates []string) (Match, bool) {
	best := Match{Score: -1}
	for _, candidate := range candidates {
		score := Ratio(title, candidate)
		if score > best.Score {
			best = Match{Candidate: candidate, Score: score}
		}
	}
	if best.Score < 0 {
		return Match{}, false
	}
	return best, true
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
