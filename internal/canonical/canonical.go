// Package canonical normalizes free-text tags, credit roles and artist
// names into the single spelling they are stored under. All functions are
// pure and idempotent: applying one twice yields the same result as once.
package canonical

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// quoteFolder replaces typographic quotes and full-width punctuation with
// their plain ASCII equivalents
var quoteFolder = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", "\"",
	"”", "\"",
	"–", "-",
	"—", "-",
	"＆", "&",
)

// NormalizeTag returns the canonical form of a free-text tag or genre name.
// Known variants come from the lookup table; everything else gets smart
// title casing.
func NormalizeTag(s string) string {
	s = fold(s)
	if s == "" {
		return ""
	}
	if canonical, ok := tagTable[strings.ToLower(s)]; ok {
		return canonical
	}
	return TitleCase(s)
}

// NormalizeRole returns the canonical form of a credit-role string.
func NormalizeRole(s string) string {
	s = fold(s)
	if s == "" {
		return ""
	}
	if canonical, ok := roleTable[strings.ToLower(s)]; ok {
		return canonical
	}
	return TitleCase(s)
}

// NormalizeArtistName folds whitespace, typographic quotes and HTML
// ampersand escapes in an artist name without changing its casing.
func NormalizeArtistName(s string) string {
	s = fold(s)
	s = strings.ReplaceAll(s, "&amp;", "&")
	return collapseWhitespace(s)
}

// SortName derives the name an artist sorts under: a leading "The" or "A"
// article moves to a trailing ", The" / ", A" suffix.
// "The Beatles" -> "Beatles, The"; "A Tribe Called Quest" -> "Tribe Called Quest, A"
func SortName(name string) string {
	name = collapseWhitespace(fold(name))
	for _, article := range []string{"The ", "A ", "An "} {
		if strings.HasPrefix(name, article) && len(name) > len(article) {
			return name[len(article):] + ", " + strings.TrimSpace(article)
		}
	}
	return name
}

// TitleCase applies smart title casing: every word is capitalized except a
// fixed set of lowercase stopwords, which stay lowercase unless they are
// the first word. Already-canonical input is returned unchanged.
func TitleCase(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return strings.TrimSpace(s)
	}

	result := make([]string, len(words))
	for i, word := range words {
		lower := strings.ToLower(word)
		if i > 0 && lowercaseStopwords[lower] {
			result[i] = lower
			continue
		}
		result[i] = capitalizeWord(word)
	}
	return strings.Join(result, " ")
}

// capitalizeWord upper-cases the first letter of a word. All-lowercase and
// all-uppercase words are converted to title case; mixed-case words keep
// their interior casing (preserves "McCartney", "DeLorean").
func capitalizeWord(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}

	hasLower := false
	hasUpper := false
	for _, r := range runes {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				hasLower = true
			}
			if unicode.IsUpper(r) {
				hasUpper = true
			}
		}
	}

	if (hasUpper && !hasLower) || (hasLower && !hasUpper) {
		for i := range runes {
			if i == 0 {
				runes[i] = unicode.ToUpper(runes[i])
			} else {
				runes[i] = unicode.ToLower(runes[i])
			}
		}
	} else {
		runes[0] = unicode.ToUpper(runes[0])
	}

	return string(runes)
}

// fold applies Unicode NFC normalization, quote folding and trimming
func fold(s string) string {
	s = norm.NFC.String(s)
	s = quoteFolder.Replace(s)
	return strings.TrimSpace(s)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
