package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Deterministic search-term cleaning. Local file tags carry edition and
// venue annotations that external catalogs index without, so titles and
// album names are stripped before querying.
var cleanPatterns = []*regexp.Regexp{
	// Parenthesized edition/version annotations:
	// (2013 Remaster), (Deluxe Edition), (Live at Wembley), (Bonus Track)
	regexp.MustCompile(`(?i)\s*\([^)]*?(remaster|remastered|deluxe|expanded|anniversary|edition|reissue|re-issue|live|bonus|mono|stereo|version|mix|edit|single|demo|session|instrumental|acoustic|explicit|clean)[^)]*?\)`),
	// Bracketed annotations, including venue/date tags: [Live 1972], [2011 Remaster]
	regexp.MustCompile(`(?i)\s*\[[^\]]*?(remaster|remastered|deluxe|expanded|anniversary|edition|reissue|re-issue|live|bonus|mono|stereo|version|mix|edit|single|demo|session|instrumental|acoustic|explicit|clean|\d{4})[^\]]*?\]`),
	// Trailing dash annotations: "Title - 2013 Remaster", "Title - Live"
	regexp.MustCompile(`(?i)\s+-\s+(\d{4}\s+)?(remaster(ed)?|live|mono|stereo|deluxe( edition)?|bonus track|single version|radio edit)\s*$`),
	// Trailing year suffix: "Album 2004", "Album (2004)"
	regexp.MustCompile(`\s+\(?\d{4}\)?\s*$`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanTitle strips edition, remaster, live and bracketed annotations from
// a track title before it is used as a search term
func CleanTitle(title string) string {
	return cleanTerm(title)
}

// CleanAlbum strips the same annotations from an album name
func CleanAlbum(album string) string {
	return cleanTerm(album)
}

func cleanTerm(s string) string {
	original := strings.TrimSpace(whitespaceRe.ReplaceAllString(norm.NFC.String(s), " "))
	s = original
	for _, re := range cleanPatterns {
		s = re.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	if s == "" {
		// Cleaning ate the whole string ("1984", "(Live)"); fall back to
		// the trimmed original rather than searching for nothing
		return original
	}
	return s
}

// NormalizeArtist normalizes an artist string for similarity comparison:
// lower-cased, leading "The" stripped, "&" folded to "and", whitespace
// collapsed
func NormalizeArtist(artist string) string {
	artist = norm.NFC.String(artist)
	artist = strings.ToLower(strings.TrimSpace(artist))
	artist = strings.TrimPrefix(artist, "the ")
	artist = strings.ReplaceAll(artist, "&", "and")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(artist, " "))
}
