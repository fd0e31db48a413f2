package musicbrainz

// JSON shapes of the MusicBrainz ws/2 resources this client consumes.
// Only the fields the enrichment pipeline reads are mapped.

// RecordingSearchResult represents a recording search response
type RecordingSearchResult struct {
	Recordings []Recording `json:"recordings"`
	Count      int         `json:"count"`
	Offset     int         `json:"offset"`
}

// ReleaseSearchResult represents a release search response
type ReleaseSearchResult struct {
	Releases []Release `json:"releases"`
	Count    int       `json:"count"`
	Offset   int       `json:"offset"`
}

// Recording represents a MusicBrainz recording
type Recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Length       int            `json:"length"` // milliseconds
	Score        int            `json:"score"`  // search relevance, 0-100
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Releases     []Release      `json:"releases"`
	Relations    []Relation     `json:"relations"`
	Tags         []Tag          `json:"tags"`
}

// ArtistCredit ties a credited name to an artist on a recording or release
type ArtistCredit struct {
	Name   string `json:"name"`
	Artist Artist `json:"artist"`
}

// Release represents a MusicBrainz release
type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date"`
	Country      string         `json:"country"`
	Score        int            `json:"score"`
	Annotation   string         `json:"annotation"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	ReleaseGroup *ReleaseGroup  `json:"release-group"`
	LabelInfo    []LabelInfo    `json:"label-info"`
	Tags         []Tag          `json:"tags"`
}

// ReleaseGroup represents the release-group a release belongs to
type ReleaseGroup struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	PrimaryType    string   `json:"primary-type"`
	SecondaryTypes []string `json:"secondary-types"`
	FirstRelease   string   `json:"first-release-date"`
}

// LabelInfo carries the label and catalog number of a release
type LabelInfo struct {
	CatalogNumber string `json:"catalog-number"`
	Label         *Label `json:"label"`
}

// Label represents a MusicBrainz label
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artist represents a MusicBrainz artist
type Artist struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	SortName       string     `json:"sort-name"`
	Type           string     `json:"type"`
	Country        string     `json:"country"`
	Disambiguation string     `json:"disambiguation"`
	Relations      []Relation `json:"relations"`
	Tags           []Tag      `json:"tags"`
}

// Relation represents a relationship attached to a recording or artist.
// Recording relations carry per-track credits (producer, remixer, vocals);
// artist URL relations carry wikidata/wikipedia links.
type Relation struct {
	Type      string  `json:"type"`
	Direction string  `json:"direction"`
	Artist    *Artist `json:"artist"`
	URL       *URL    `json:"url"`
}

// URL is the target of a url relation
type URL struct {
	Resource string `json:"resource"`
}

// Tag represents a folksonomy tag with its vote count
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Year parses the release year from the release date, falling back to
// the release-group's first release date. Returns 0 when neither parses.
func (r *Release) Year() int {
	if y := yearOf(r.Date); y != 0 {
		return y
	}
	if r.ReleaseGroup != nil {
		return yearOf(r.ReleaseGroup.FirstRelease)
	}
	return 0
}

// yearOf extracts the leading year of a MusicBrainz partial date
// ("2002", "2002-10", "2002-10-21")
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y := 0
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		y = y*10 + int(c-'0')
	}
	return y
}

// CreditedArtist returns the joined credited name of an artist-credit list
func CreditedArtist(credits []ArtistCredit) string {
	if len(credits) == 0 {
		return ""
	}
	return credits[0].Name
}
