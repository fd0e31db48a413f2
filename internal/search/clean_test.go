package search

import "testing"

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Roygbiv (2013 Remaster)", "Roygbiv"},
		{"Roygbiv - 2013 Remaster", "Roygbiv"},
		{"Echoes [Live 1974]", "Echoes"},
		{"Dayvan Cowboy (Instrumental)", "Dayvan Cowboy"},
		{"One More Time - Radio Edit", "One More Time"},
		{"Untitled", "Untitled"},
		// Parenthesized text without an annotation keyword is part of
		// the title and stays
		{"Lucy (In Disguise)", "Lucy (In Disguise)"},
		// Cleaning that would empty the term falls back to the original
		{"1984", "1984"},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanAlbum(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Music Has the Right to Children (Deluxe Edition)", "Music Has the Right to Children"},
		{"OK Computer OKNOTOK 1997 2017", "OK Computer OKNOTOK 1997"},
		{"Homework 1997", "Homework"},
		{"Geogaddi", "Geogaddi"},
	}
	for _, tt := range tests {
		if got := CleanAlbum(tt.in); got != tt.want {
			t.Errorf("CleanAlbum(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeArtist(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Beatles", "beatles"},
		{"Simon & Garfunkel", "simon and garfunkel"},
		{"  Boards   of Canada ", "boards of canada"},
		{"THE THE", "the"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeArtist(tt.in); got != tt.want {
			t.Errorf("NormalizeArtist(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
