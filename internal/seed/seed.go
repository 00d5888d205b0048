// Package seed serves the static catalog used when every remote source is
// unreachable.
package seed

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/normalize"
	"gopkg.in/yaml.v3"
)

//go:embed anime.yaml
var embedded []byte

const (
	trendingFromYear = 2020
	classicBefore    = 2010
	maxRecommended   = 12
)

// Dataset is an immutable in-memory catalog
type Dataset struct {
	records []domain.Anime
}

// Load parses the embedded dataset
func Load() (*Dataset, error) {
	return Parse(embedded)
}

// Parse builds a dataset from YAML
func Parse(data []byte) (*Dataset, error) {
	var records []domain.Anime
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal seed dataset")
	}
	for i := range records {
		records[i].Source = domain.SourceSeed
		if records[i].Genres == nil {
			records[i].Genres = []string{}
		}
	}
	return &Dataset{records: records}, nil
}

func (d *Dataset) All() []domain.Anime {
	return clone(d.records)
}

func (d *Dataset) ByID(id int) (domain.Anime, bool) {
	for _, a := range d.records {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Anime{}, false
}

// Search matches query case-insensitively against title, studio and genres
func (d *Dataset) Search(query string) []domain.Anime {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Anime{}
	}

	out := []domain.Anime{}
	for _, a := range d.records {
		if matches(a, q) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a domain.Anime, q string) bool {
	if strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.Studio), q) {
		return true
	}
	for _, g := range a.Genres {
		if strings.Contains(strings.ToLower(g), q) {
			return true
		}
	}
	return false
}

// ByGenre returns records carrying the genre, compared on folded keys
func (d *Dataset) ByGenre(genre string) []domain.Anime {
	key := normalize.GenreKey(genre)
	out := []domain.Anime{}
	for _, a := range d.records {
		if hasGenre(a, key) {
			out = append(out, a)
		}
	}
	return out
}

func hasGenre(a domain.Anime, key string) bool {
	for _, g := range a.Genres {
		if normalize.GenreKey(g) == key {
			return true
		}
	}
	return false
}

// Popular orders by popularity rank, most popular first
func (d *Dataset) Popular(n int) []domain.Anime {
	out := clone(d.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity < out[j].Popularity
	})
	return limit(out, n)
}

// Trending returns recent titles ordered by score
func (d *Dataset) Trending(n int) []domain.Anime {
	out := []domain.Anime{}
	for _, a := range d.records {
		if a.YearOrZero() >= trendingFromYear {
			out = append(out, a)
		}
	}
	byScore(out)
	return limit(out, n)
}

// Featured returns the top scored titles
func (d *Dataset) Featured(n int) []domain.Anime {
	out := clone(d.records)
	byScore(out)
	return limit(out, n)
}

// List answers an arbitrated list request from the dataset. Seasonal
// requests have no static answer.
func (d *Dataset) List(q domain.ListQuery, n int) []domain.Anime {
	switch q.Kind {
	case domain.ListPopular:
		return d.Popular(n)
	case domain.ListTrending:
		return d.Trending(n)
	case domain.ListGenre:
		return limit(d.ByGenre(q.Genre), n)
	case domain.ListSearch:
		return limit(d.Search(q.Search), n)
	}
	return []domain.Anime{}
}

type ScoreBand string

const (
	ScoreAny    ScoreBand = ""
	ScoreHigh   ScoreBand = "high"
	ScoreMedium ScoreBand = "medium"
)

type Era string

const (
	EraAny     Era = ""
	EraRecent  Era = "recent"
	EraClassic Era = "classic"
)

// Preferences narrows Recommend
type Preferences struct {
	Genres []string
	Score  ScoreBand
	Era    Era
}

// Recommend filters by genres, score band and era, then orders by score
func (d *Dataset) Recommend(p Preferences) []domain.Anime {
	keys := make([]string, 0, len(p.Genres))
	for _, g := range p.Genres {
		if k := normalize.GenreKey(g); k != "" {
			keys = append(keys, k)
		}
	}

	out := []domain.Anime{}
	for _, a := range d.records {
		if len(keys) > 0 && !anyGenre(a, keys) {
			continue
		}
		switch p.Score {
		case ScoreHigh:
			if a.Score < 8.0 {
				continue
			}
		case ScoreMedium:
			if a.Score < 6.0 || a.Score >= 8.0 {
				continue
			}
		}
		switch p.Era {
		case EraRecent:
			if a.YearOrZero() < trendingFromYear {
				continue
			}
		case EraClassic:
			if a.YearOrZero() >= classicBefore {
				continue
			}
		}
		out = append(out, a)
	}
	byScore(out)
	return limit(out, maxRecommended)
}

func anyGenre(a domain.Anime, keys []string) bool {
	for _, k := range keys {
		if hasGenre(a, k) {
			return true
		}
	}
	return false
}

// Similar returns titles sharing genres with id, most shared genres first
func (d *Dataset) Similar(id, n int) []domain.Anime {
	base, ok := d.ByID(id)
	if !ok {
		return []domain.Anime{}
	}
	return SharedGenres(base, d.records, n)
}

// SharedGenres ranks candidates by how many genres they share with base,
// skipping base itself and candidates with nothing in common
func SharedGenres(base domain.Anime, candidates []domain.Anime, n int) []domain.Anime {
	type scored struct {
		anime  domain.Anime
		common int
	}
	var ranked []scored
	for _, a := range candidates {
		if a.ID == base.ID {
			continue
		}
		c := 0
		for _, g := range a.Genres {
			if hasGenre(base, normalize.GenreKey(g)) {
				c++
			}
		}
		if c > 0 {
			ranked = append(ranked, scored{anime: a, common: c})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].common > ranked[j].common
	})

	out := make([]domain.Anime, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.anime)
	}
	return limit(out, n)
}

func byScore(a []domain.Anime) {
	sort.SliceStable(a, func(i, j int) bool {
		return a[i].Score > a[j].Score
	})
}

func limit(a []domain.Anime, n int) []domain.Anime {
	if n > 0 && len(a) > n {
		return a[:n]
	}
	return a
}

func clone(a []domain.Anime) []domain.Anime {
	out := make([]domain.Anime, len(a))
	copy(out, a)
	return out
}
