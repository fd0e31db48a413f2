package search

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"roygbiv", "roygbiv", 1},
		{"Roygbiv", "roygbiv", 1},
		{"", "", 0},
		{"a", "a", 1},
		{"a", "b", 0},
		{"abc", "xyz", 0},
		// "night" vs "nacht": bigrams {ni,ig,gh,ht} vs {na,ac,ch,ht},
		// one shared bigram of eight total
		{"night", "nacht", 0.25},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"boards of canada", "boards of canda"},
		{"music has the right", "the right to children"},
		{"daft punk", "punk daft"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q, %q) = %v, outside [0,1]", p[0], p[1], ab)
		}
	}
}

func TestCombinedScore(t *testing.T) {
	if got := CombinedScore(1, 1); math.Abs(got-1) > 1e-9 {
		t.Errorf("CombinedScore(1, 1) = %v, want 1", got)
	}
	if got := CombinedScore(1, 0); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("CombinedScore(1, 0) = %v, want 0.6", got)
	}
	if got := CombinedScore(0, 1); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("CombinedScore(0, 1) = %v, want 0.4", got)
	}
	// A perfect title with no artist agreement sits exactly at the
	// threshold and is rejected, not accepted
	if CombinedScore(1, 0) > MatchThreshold {
		t.Error("perfect title alone should not clear the threshold")
	}
	// Moderate similarity on both axes is not enough either
	if got := CombinedScore(0.5, 0.4); got > MatchThreshold {
		t.Errorf("CombinedScore(0.5, 0.4) = %v, should not clear %v", got, MatchThreshold)
	}
}
