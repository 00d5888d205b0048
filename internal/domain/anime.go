package domain

import "fmt"

// Source identifies where a canonical record came from
type Source string

const (
	SourceAniList Source = "anilist"
	SourceJikan   Source = "jikan"
	SourceSeed    Source = "seed"
)

const (
	UnknownTitle        = "Unknown Title"
	UnknownStudio       = "Unknown"
	PlaceholderSynopsis = "No synopsis available for this anime."
	PlaceholderImage    = "https://via.placeholder.com/300x400?text=No+Image"
)

// Anime is the canonical record every source payload is mapped into.
// Records are immutable once produced; a newer fetch replaces the old one.
type Anime struct {
	ID           int           `json:"id" yaml:"id"`
	AniListID    int           `json:"anilistId,omitempty" yaml:"anilistId,omitempty"`
	MALID        *int          `json:"malId,omitempty" yaml:"malId,omitempty"`
	Title        string        `json:"title" yaml:"title"`
	TitleEnglish string        `json:"titleEnglish,omitempty" yaml:"titleEnglish,omitempty"`
	TitleNative  string        `json:"titleNative,omitempty" yaml:"titleNative,omitempty"`
	Year         *int          `json:"year,omitempty" yaml:"year,omitempty"`
	Status       string        `json:"status" yaml:"status"`
	Episodes     int           `json:"episodes" yaml:"episodes"`
	Rating       string        `json:"rating" yaml:"rating"`
	Genres       []string      `json:"genres" yaml:"genres"`
	Score        float64       `json:"score" yaml:"score"`
	Rank         int           `json:"rank,omitempty" yaml:"rank,omitempty"`
	Popularity   int           `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	Studio       string        `json:"studio" yaml:"studio"`
	Synopsis     string        `json:"synopsis" yaml:"synopsis"`
	Image        string        `json:"image,omitempty" yaml:"image,omitempty"`
	Banner       string        `json:"banner,omitempty" yaml:"banner,omitempty"`
	TrailerID    *string       `json:"trailer,omitempty" yaml:"trailer,omitempty"`
	Characters   []Character   `json:"characters,omitempty" yaml:"characters,omitempty"`
	Related      []RelatedWork `json:"related,omitempty" yaml:"related,omitempty"`
	EpisodeList  []Episode     `json:"episodeList,omitempty" yaml:"episodeList,omitempty"`
	Source       Source        `json:"source" yaml:"source"`
}

type Character struct {
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role" yaml:"role"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

type RelatedWork struct {
	ID    int     `json:"id" yaml:"id"`
	Title string  `json:"title" yaml:"title"`
	Image string  `json:"image,omitempty" yaml:"image,omitempty"`
	Score float64 `json:"score" yaml:"score"`
	Year  *int    `json:"year,omitempty" yaml:"year,omitempty"`
}

type Episode struct {
	Number int     `json:"number" yaml:"number"`
	Title  string  `json:"title" yaml:"title"`
	Aired  string  `json:"aired,omitempty" yaml:"aired,omitempty"`
	Score  float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Filler bool    `json:"filler,omitempty" yaml:"filler,omitempty"`
}

// Recommendation is a title another source suggests alongside an anime
type Recommendation struct {
	Anime Anime `json:"anime"`
	Votes int   `json:"votes"`
}

// YearOrZero returns the year or zero when unknown
func (a Anime) YearOrZero() int {
	if a.Year == nil {
		return 0
	}
	return *a.Year
}

// Placeholder builds the minimal record shown for an id nothing is known about
func Placeholder(id int) Anime {
	return Anime{
		ID:       id,
		Title:    fmt.Sprintf("Anime ID: %d", id),
		Image:    PlaceholderImage,
		Status:   "Unknown",
		Studio:   UnknownStudio,
		Synopsis: PlaceholderSynopsis,
		Genres:   []string{},
	}
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v
func StringPtr(v string) *string {
	return &v
}
