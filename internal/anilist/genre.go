package anilist

import "github.com/varoOP/shinkrolist/internal/normalize"

// genres maps folded genre tokens to AniList's genre vocabulary
var genres = map[string]string{
	"action":          "Action",
	"adventure":       "Adventure",
	"comedy":          "Comedy",
	"drama":           "Drama",
	"ecchi":           "Ecchi",
	"fantasy":         "Fantasy",
	"horror":          "Horror",
	"mahou shoujo":    "Mahou Shoujo",
	"magical girl":    "Mahou Shoujo",
	"mecha":           "Mecha",
	"music":           "Music",
	"mystery":         "Mystery",
	"psychological":   "Psychological",
	"romance":         "Romance",
	"sci fi":          "Sci-Fi",
	"scifi":           "Sci-Fi",
	"science fiction": "Sci-Fi",
	"slice of life":   "Slice of Life",
	"sports":          "Sports",
	"supernatural":    "Supernatural",
	"thriller":        "Thriller",
	"suspense":        "Thriller",
}

// MapGenre translates a genre token into AniList's vocabulary. Unknown
// tokens are title cased and passed through.
func MapGenre(token string) string {
	key := normalize.GenreKey(token)
	if g, ok := genres[key]; ok {
		return g
	}
	return normalize.TitleCase(key)
}
