package canonical

// tagTable maps lower-cased free-text genre/tag variants to their canonical
// spelling. Inputs not present here fall through to smart title casing.
var tagTable = map[string]string{
	"hiphop":           "Hip-Hop",
	"hip hop":          "Hip-Hop",
	"hip-hop":          "Hip-Hop",
	"rap":              "Hip-Hop",
	"rnb":              "R&B",
	"r&b":              "R&B",
	"r and b":          "R&B",
	"rhythm and blues": "R&B",
	"drum and bass":    "Drum & Bass",
	"drum n bass":      "Drum & Bass",
	"drum & bass":      "Drum & Bass",
	"dnb":              "Drum & Bass",
	"d&b":              "Drum & Bass",
	"idm":              "IDM",
	"edm":              "EDM",
	"uk garage":        "UK Garage",
	"ukg":              "UK Garage",
	"lofi":             "Lo-Fi",
	"lo-fi":            "Lo-Fi",
	"lo fi":            "Lo-Fi",
	"synthpop":         "Synth-Pop",
	"synth pop":        "Synth-Pop",
	"synth-pop":        "Synth-Pop",
	"triphop":          "Trip-Hop",
	"trip hop":         "Trip-Hop",
	"trip-hop":         "Trip-Hop",
	"postrock":         "Post-Rock",
	"post rock":        "Post-Rock",
	"post-rock":        "Post-Rock",
	"postpunk":         "Post-Punk",
	"post punk":        "Post-Punk",
	"post-punk":        "Post-Punk",
	"nu jazz":          "Nu-Jazz",
	"nu-jazz":          "Nu-Jazz",
	"electronica":      "Electronic",
	"electro":          "Electro",
	"alt rock":         "Alternative Rock",
	"alt-rock":         "Alternative Rock",
	"alternative":      "Alternative Rock",
	"indie":            "Indie Rock",
	"singer/songwriter": "Singer-Songwriter",
	"singer songwriter": "Singer-Songwriter",
	"ost":              "Soundtrack",
	"score":            "Soundtrack",
	"film score":       "Soundtrack",
	"classic rock":     "Classic Rock",
	"prog rock":        "Progressive Rock",
	"prog":             "Progressive Rock",
	"psych rock":       "Psychedelic Rock",
	"psychedelic":      "Psychedelic Rock",
	"world":            "World Music",
	"new age":          "New Age",
	"neo soul":         "Neo-Soul",
	"neo-soul":         "Neo-Soul",
	"krautrock":        "Krautrock",
	"shoegazing":       "Shoegaze",
	"shoegaze":         "Shoegaze",
	"chillout":         "Chill-Out",
	"chill out":        "Chill-Out",
	"downtempo":        "Downtempo",
	"down tempo":       "Downtempo",
	"breakbeat":        "Breakbeat",
	"breaks":           "Breakbeat",
	"jungle":           "Jungle",
	"2 step":           "2-Step",
	"2-step":           "2-Step",
	"two step":         "2-Step",
}

// roleTable maps lower-cased free-text credit roles to their canonical
// spelling. Source catalogs disagree on role names ("written-by" vs
// "composer", "mixed by" vs "mix"); this table picks one per role.
var roleTable = map[string]string{
	"vocal":              "Vocals",
	"vocals":             "Vocals",
	"lead vocals":        "Lead Vocals",
	"backing vocals":     "Backing Vocals",
	"background vocals":  "Backing Vocals",
	"feat":               "Featured Artist",
	"feat.":              "Featured Artist",
	"featuring":          "Featured Artist",
	"featured":           "Featured Artist",
	"guest":              "Featured Artist",
	"producer":           "Producer",
	"produced by":        "Producer",
	"production":         "Producer",
	"co-producer":        "Co-Producer",
	"coproducer":         "Co-Producer",
	"executive producer": "Executive Producer",
	"remix":              "Remixer",
	"remixer":            "Remixer",
	"remixed by":         "Remixer",
	"composer":           "Composer",
	"composed by":        "Composer",
	"music by":           "Composer",
	"writer":             "Writer",
	"written-by":         "Writer",
	"written by":         "Writer",
	"songwriter":         "Writer",
	"lyricist":           "Lyricist",
	"lyrics":             "Lyricist",
	"lyrics by":          "Lyricist",
	"words by":           "Lyricist",
	"arranger":           "Arranger",
	"arranged by":        "Arranger",
	"arrangement":        "Arranger",
	"conductor":          "Conductor",
	"conducted by":       "Conductor",
	"orchestra":          "Orchestra",
	"performer":          "Performer",
	"performed by":       "Performer",
	"instrument":         "Instrument",
	"guitar":             "Guitar",
	"guitars":            "Guitar",
	"bass":               "Bass",
	"bass guitar":        "Bass",
	"drums":              "Drums",
	"drums (drum set)":   "Drums",
	"percussion":         "Percussion",
	"keyboards":          "Keyboards",
	"keyboard":           "Keyboards",
	"piano":              "Piano",
	"synthesizer":        "Synthesizer",
	"synth":              "Synthesizer",
	"dj":                 "DJ",
	"turntables":         "DJ",
	"engineer":           "Engineer",
	"engineered by":      "Engineer",
	"recording engineer": "Recording Engineer",
	"recorded by":        "Recording Engineer",
	"mix":                "Mixing Engineer",
	"mixer":              "Mixing Engineer",
	"mixed by":           "Mixing Engineer",
	"mixing":             "Mixing Engineer",
	"master":             "Mastering Engineer",
	"mastered by":        "Mastering Engineer",
	"mastering":          "Mastering Engineer",
	"sampler":            "Sampler",
	"programming":        "Programming",
	"programmed by":      "Programming",
	"drum programming":   "Drum Programming",
	"artwork":            "Artwork",
	"design":             "Artwork",
	"photography":        "Photography",
	"photography by":     "Photography",
}

// lowercaseStopwords are words kept lowercase by smart title casing unless
// they are the first word.
var lowercaseStopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "but": true, "nor": true,
	"of": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "by": true, "with": true,
	"feat": true, "feat.": true, "ft": true, "ft.": true,
	"vs": true, "vs.": true,
}
