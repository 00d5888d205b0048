package mal

import "github.com/varoOP/shinkrolist/internal/normalize"

// genreIDs maps folded genre tokens to MyAnimeList genre and theme ids as
// accepted by the Jikan genres filter
var genreIDs = map[string]int{
	"action":          1,
	"adventure":       2,
	"avant garde":     5,
	"award winning":   46,
	"comedy":          4,
	"drama":           8,
	"ecchi":           9,
	"fantasy":         10,
	"gourmet":         47,
	"historical":      13,
	"horror":          14,
	"isekai":          62,
	"mahou shoujo":    66,
	"magical girl":    66,
	"martial arts":    17,
	"mecha":           18,
	"military":        38,
	"music":           19,
	"mystery":         7,
	"psychological":   40,
	"romance":         22,
	"school":          23,
	"sci fi":          24,
	"scifi":           24,
	"science fiction": 24,
	"slice of life":   36,
	"sports":          30,
	"super power":     31,
	"supernatural":    37,
	"suspense":        41,
	"thriller":        41,
}

// genreNames maps folded genre tokens to MyAnimeList genre names where they
// differ from plain title casing
var genreNames = map[string]string{
	"sci fi":          "Sci-Fi",
	"scifi":           "Sci-Fi",
	"science fiction": "Sci-Fi",
	"slice of life":   "Slice of Life",
	"magical girl":    "Mahou Shoujo",
	"thriller":        "Suspense",
}

// MapGenre translates a genre token into MyAnimeList's vocabulary. The id
// is zero for tokens with no known MyAnimeList genre.
func MapGenre(token string) (name string, id int) {
	key := normalize.GenreKey(token)
	name, ok := genreNames[key]
	if !ok {
		name = normalize.TitleCase(key)
	}
	return name, genreIDs[key]
}
