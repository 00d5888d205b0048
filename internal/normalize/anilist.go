package normalize

import (
	"github.com/varoOP/shinkrolist/internal/domain"
)

// Payload types as returned by the AniList GraphQL API. Every field is
// optional on the wire; null decodes to the zero value.

type Media struct {
	ID           int                 `json:"id"`
	IDMal        int                 `json:"idMal"`
	Title        MediaTitle          `json:"title"`
	Description  string              `json:"description"`
	Episodes     int                 `json:"episodes"`
	Status       string              `json:"status"`
	Format       string              `json:"format"`
	StartDate    FuzzyDate           `json:"startDate"`
	Season       string              `json:"season"`
	SeasonYear   int                 `json:"seasonYear"`
	Genres       []string            `json:"genres"`
	AverageScore float64             `json:"averageScore"`
	Popularity   int                 `json:"popularity"`
	Rankings     []MediaRank         `json:"rankings"`
	Studios      StudioConnection    `json:"studios"`
	CoverImage   CoverImage          `json:"coverImage"`
	BannerImage  string              `json:"bannerImage"`
	Trailer      *MediaTrailer       `json:"trailer"`
	Characters   CharacterConnection `json:"characters"`
	Relations    RelationConnection  `json:"relations"`
}

type MediaTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type FuzzyDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type MediaRank struct {
	Rank    int    `json:"rank"`
	Type    string `json:"type"`
	AllTime bool   `json:"allTime"`
}

type StudioConnection struct {
	Nodes []struct {
		Name string `json:"name"`
	} `json:"nodes"`
}

type CoverImage struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
}

type MediaTrailer struct {
	ID        string `json:"id"`
	Site      string `json:"site"`
	Thumbnail string `json:"thumbnail"`
}

type CharacterConnection struct {
	Edges []struct {
		Role string `json:"role"`
		Node struct {
			Name struct {
				Full string `json:"full"`
			} `json:"name"`
			Image struct {
				Large string `json:"large"`
			} `json:"image"`
		} `json:"node"`
	} `json:"edges"`
}

type RelationConnection struct {
	Edges []struct {
		RelationType string `json:"relationType"`
		Node         struct {
			ID           int        `json:"id"`
			IDMal        int        `json:"idMal"`
			Title        MediaTitle `json:"title"`
			CoverImage   CoverImage `json:"coverImage"`
			AverageScore float64    `json:"averageScore"`
			StartDate    FuzzyDate  `json:"startDate"`
		} `json:"node"`
	} `json:"edges"`
}

const (
	maxCharacters = 10
	maxRelated    = 6
)

var relatedKinds = map[string]bool{
	"PREQUEL":    true,
	"SEQUEL":     true,
	"SIDE_STORY": true,
}

// FromAniList maps an AniList media payload to the canonical record. It
// returns nil when the payload carries neither an id nor any title.
func FromAniList(m *Media) *domain.Anime {
	if m == nil {
		return nil
	}
	if m.ID == 0 && m.IDMal == 0 && firstNonEmpty(m.Title.English, m.Title.Romaji, m.Title.Native) == "" {
		return nil
	}

	a := &domain.Anime{
		ID:           m.ID,
		AniListID:    m.ID,
		Title:        orDefault(firstNonEmpty(m.Title.English, m.Title.Romaji, m.Title.Native), domain.UnknownTitle),
		TitleEnglish: m.Title.English,
		TitleNative:  m.Title.Native,
		Status:       orDefault(m.Status, "UNKNOWN"),
		Episodes:     max(m.Episodes, 0),
		Rating:       orDefault(m.Format, "TV"),
		Genres:       append([]string{}, m.Genres...),
		Score:        Score(m.AverageScore, 100),
		Popularity:   max(m.Popularity, 0),
		Studio:       domain.UnknownStudio,
		Synopsis:     CleanSynopsis(m.Description),
		Image:        firstNonEmpty(m.CoverImage.Large, m.CoverImage.Medium),
		Banner:       m.BannerImage,
		Source:       domain.SourceAniList,
	}

	if m.IDMal > 0 {
		a.ID = m.IDMal
		a.MALID = domain.IntPtr(m.IDMal)
	}

	if m.StartDate.Year > 0 {
		a.Year = domain.IntPtr(m.StartDate.Year)
	} else if m.SeasonYear > 0 {
		a.Year = domain.IntPtr(m.SeasonYear)
	}

	if len(m.Studios.Nodes) > 0 && m.Studios.Nodes[0].Name != "" {
		a.Studio = m.Studios.Nodes[0].Name
	}

	for _, r := range m.Rankings {
		if r.Type == "RATED" {
			a.Rank = max(r.Rank, 0)
			break
		}
	}

	if t := m.Trailer; t != nil {
		if t.Site == "youtube" {
			a.TrailerID = TrailerFromID(t.ID)
		}
		if a.TrailerID == nil && t.Thumbnail != "" {
			a.TrailerID = TrailerFromThumbnail(t.Thumbnail)
		}
	}

	for _, e := range m.Characters.Edges {
		if len(a.Characters) == maxCharacters {
			break
		}
		a.Characters = append(a.Characters, domain.Character{
			Name:  orDefault(e.Node.Name.Full, "Unknown"),
			Role:  orDefault(e.Role, "Main"),
			Image: e.Node.Image.Large,
		})
	}

	for _, e := range m.Relations.Edges {
		if len(a.Related) == maxRelated {
			break
		}
		if !relatedKinds[e.RelationType] {
			continue
		}
		n := e.Node
		rel := domain.RelatedWork{
			ID:    n.ID,
			Title: orDefault(firstNonEmpty(n.Title.English, n.Title.Romaji), "Unknown"),
			Image: n.CoverImage.Large,
			Score: Score(n.AverageScore, 100),
		}
		if n.IDMal > 0 {
			rel.ID = n.IDMal
		}
		if n.StartDate.Year > 0 {
			rel.Year = domain.IntPtr(n.StartDate.Year)
		}
		a.Related = append(a.Related, rel)
	}

	return a
}
