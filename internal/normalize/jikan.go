package normalize

import (
	"fmt"
	"strconv"
	"time"

	"github.com/varoOP/shinkrolist/internal/domain"
)

// Payload types as returned by the Jikan v4 REST API

type JikanAnime struct {
	MalID         int          `json:"mal_id"`
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	TitleEnglish  string       `json:"title_english"`
	TitleJapanese string       `json:"title_japanese"`
	Images        JikanImages  `json:"images"`
	Trailer       JikanTrailer `json:"trailer"`
	Synopsis      string       `json:"synopsis"`
	Background    string       `json:"background"`
	Year          int          `json:"year"`
	Aired         struct {
		From string `json:"from"`
	} `json:"aired"`
	Status     string       `json:"status"`
	Rating     string       `json:"rating"`
	Episodes   int          `json:"episodes"`
	Score      float64      `json:"score"`
	Rank       int          `json:"rank"`
	Popularity int          `json:"popularity"`
	Genres     []JikanNamed `json:"genres"`
	Studios    []JikanNamed `json:"studios"`
}

type JikanImages struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

type JikanTrailer struct {
	YoutubeID string `json:"youtube_id"`
	URL       string `json:"url"`
	EmbedURL  string `json:"embed_url"`
}

type JikanNamed struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

type JikanPagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

type JikanCharacterRole struct {
	Character struct {
		MalID  int         `json:"mal_id"`
		Name   string      `json:"name"`
		Images JikanImages `json:"images"`
	} `json:"character"`
	Role string `json:"role"`
}

type JikanEpisode struct {
	MalID         int     `json:"mal_id"`
	Title         string  `json:"title"`
	TitleRomanji  string  `json:"title_romanji"`
	TitleJapanese string  `json:"title_japanese"`
	Aired         string  `json:"aired"`
	Score         float64 `json:"score"`
	Filler        bool    `json:"filler"`
}

type JikanRecommendation struct {
	Entry JikanAnime `json:"entry"`
	Votes int        `json:"votes"`
}

// FromJikan maps a Jikan anime payload to the canonical record. It returns
// nil when the payload carries neither an id nor any title.
func FromJikan(j *JikanAnime) *domain.Anime {
	if j == nil {
		return nil
	}
	if j.MalID == 0 && firstNonEmpty(j.Title, j.TitleEnglish, j.TitleJapanese) == "" {
		return nil
	}

	a := &domain.Anime{
		ID:           j.MalID,
		Title:        orDefault(firstNonEmpty(j.Title, j.TitleEnglish, j.TitleJapanese), domain.UnknownTitle),
		TitleEnglish: j.TitleEnglish,
		TitleNative:  j.TitleJapanese,
		Status:       orDefault(j.Status, "Unknown"),
		Episodes:     max(j.Episodes, 0),
		Rating:       orDefault(j.Rating, "Not Rated"),
		Genres:       make([]string, 0, len(j.Genres)),
		Score:        Score(j.Score, 10),
		Rank:         max(j.Rank, 0),
		Popularity:   max(j.Popularity, 0),
		Studio:       domain.UnknownStudio,
		Synopsis:     CleanSynopsis(firstNonEmpty(j.Synopsis, j.Background)),
		Image:        firstNonEmpty(j.Images.JPG.LargeImageURL, j.Images.JPG.ImageURL),
		Source:       domain.SourceJikan,
	}
	if j.MalID > 0 {
		a.MALID = domain.IntPtr(j.MalID)
	}

	if j.Year > 0 {
		a.Year = domain.IntPtr(j.Year)
	} else if y := yearFromDate(j.Aired.From); y > 0 {
		a.Year = domain.IntPtr(y)
	}

	for _, g := range j.Genres {
		a.Genres = append(a.Genres, g.Name)
	}
	if len(j.Studios) > 0 && j.Studios[0].Name != "" {
		a.Studio = j.Studios[0].Name
	}

	a.TrailerID = TrailerFromID(j.Trailer.YoutubeID)
	if a.TrailerID == nil {
		a.TrailerID = TrailerFromURL(j.Trailer.URL)
	}
	if a.TrailerID == nil {
		a.TrailerID = TrailerFromURL(j.Trailer.EmbedURL)
	}

	return a
}

// Characters maps the first ten entries of a characters response
func Characters(roles []JikanCharacterRole) []domain.Character {
	out := make([]domain.Character, 0, min(len(roles), maxCharacters))
	for _, r := range roles {
		if len(out) == maxCharacters {
			break
		}
		out = append(out, domain.Character{
			Name:  orDefault(r.Character.Name, "Unknown"),
			Role:  orDefault(r.Role, "Unknown"),
			Image: r.Character.Images.JPG.ImageURL,
		})
	}
	return out
}

// JikanEpisodesPerPage is the fixed page size of the episodes endpoint
const JikanEpisodesPerPage = 100

// Episodes maps one page of an episodes response. Numbers come from the
// episode id when present, else from the position within the page.
func Episodes(eps []JikanEpisode, page int) []domain.Episode {
	if page < 1 {
		page = 1
	}
	out := make([]domain.Episode, 0, len(eps))
	for i, e := range eps {
		n := e.MalID
		if n <= 0 {
			n = i + 1 + (page-1)*JikanEpisodesPerPage
		}
		aired := "TBA"
		if y := shortDate(e.Aired); y != "" {
			aired = y
		}
		out = append(out, domain.Episode{
			Number: n,
			Title:  orDefault(firstNonEmpty(e.Title, e.TitleRomanji, e.TitleJapanese), fmt.Sprintf("Episode %d", n)),
			Aired:  aired,
			Score:  e.Score,
			Filler: e.Filler,
		})
	}
	return out
}

// maxRecommendations caps a recommendations response
const maxRecommendations = 6

// Recommendations maps the first six usable entries of a recommendations response
func Recommendations(recs []JikanRecommendation) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, min(len(recs), maxRecommendations))
	for i := range recs {
		if len(out) == maxRecommendations {
			break
		}
		a := FromJikan(&recs[i].Entry)
		if a == nil {
			continue
		}
		out = append(out, domain.Recommendation{Anime: *a, Votes: recs[i].Votes})
	}
	return out
}

func yearFromDate(s string) int {
	if s == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Year()
	}
	if len(s) >= 4 {
		if y, err := strconv.Atoi(s[:4]); err == nil {
			return y
		}
	}
	return 0
}

func shortDate(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02")
	}
	return s
}
