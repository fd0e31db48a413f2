package search

import "strings"

// Weights for the combined match score
const (
	titleWeight  = 0.6
	artistWeight = 0.4

	// MatchThreshold is the minimum combined score for a candidate to be
	// accepted. Candidates at or below the threshold are rejected even if
	// no better candidate exists.
	MatchThreshold = 0.6
)

// Similarity returns the Sorensen-Dice bigram similarity of two strings
// in [0, 1]. Comparison is case-insensitive.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}

	matches := 0
	for i := 0; i < len(b)-1; i++ {
		bg := b[i : i+2]
		if bigrams[bg] > 0 {
			bigrams[bg]--
			matches++
		}
	}

	return 2.0 * float64(matches) / float64(len(a)-1+len(b)-1)
}

// CombinedScore weighs title and artist similarity into one match score
func CombinedScore(titleSim, artistSim float64) float64 {
	return titleSim*titleWeight + artistSim*artistWeight
}
