package musicbrainz

import "testing"

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		name string
		rel  Release
		want int
	}{
		{"full date", Release{Date: "1998-04-20"}, 1998},
		{"year only", Release{Date: "1998"}, 1998},
		{"empty date, group fallback", Release{ReleaseGroup: &ReleaseGroup{FirstRelease: "2002-10"}}, 2002},
		{"date wins over group", Release{Date: "2005", ReleaseGroup: &ReleaseGroup{FirstRelease: "2002"}}, 2005},
		{"garbage date, group fallback", Release{Date: "??", ReleaseGroup: &ReleaseGroup{FirstRelease: "2002"}}, 2002},
		{"nothing", Release{}, 0},
	}
	for _, tt := range tests {
		if got := tt.rel.Year(); got != tt.want {
			t.Errorf("%s: Year() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestWikipediaURL(t *testing.T) {
	wiki := Relation{Type: "wikipedia", URL: &URL{Resource: "https://en.wikipedia.org/wiki/Autechre"}}
	data := Relation{Type: "wikidata", URL: &URL{Resource: "https://www.wikidata.org/wiki/Q217307"}}
	other := Relation{Type: "official homepage", URL: &URL{Resource: "https://autechre.ws"}}
	noURL := Relation{Type: "wikipedia"}

	tests := []struct {
		name string
		rels []Relation
		want string
	}{
		{"wikipedia preferred", []Relation{data, wiki}, wiki.URL.Resource},
		{"wikidata fallback", []Relation{other, data}, data.URL.Resource},
		{"nil url skipped", []Relation{noURL, data}, data.URL.Resource},
		{"no link", []Relation{other}, ""},
	}
	for _, tt := range tests {
		a := Artist{Relations: tt.rels}
		if got := a.WikipediaURL(); got != tt.want {
			t.Errorf("%s: WikipediaURL() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEscapeLucene(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{"AC/DC", `AC\/DC`},
		{`say "yes"`, `say \"yes\"`},
		{"1 + 1 = 2?", `1 \+ 1 = 2\?`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeLucene(tt.in); got != tt.want {
			t.Errorf("EscapeLucene(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreditedArtist(t *testing.T) {
	credits := []ArtistCredit{
		{Name: "Boards of Canada", Artist: Artist{ID: "art-boc", Name: "Boards of Canada"}},
		{Name: "Múm", Artist: Artist{ID: "art-mum"}},
	}
	if got := CreditedArtist(credits); got != "Boards of Canada" {
		t.Errorf("CreditedArtist = %q", got)
	}
	if got := CreditedArtist(nil); got != "" {
		t.Errorf("CreditedArtist(nil) = %q", got)
	}
}
