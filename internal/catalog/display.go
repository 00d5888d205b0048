package catalog

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/normalize"
)

// DefaultPageSize is the number of records shown per display page
const DefaultPageSize = 10

type SortMode string

const (
	SortSource     SortMode = "source"
	SortPopularity SortMode = "popularity"
	SortTitle      SortMode = "title"
	SortRating     SortMode = "rating"
	SortYear       SortMode = "year"
	SortRank       SortMode = "rank"
)

func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SortSource, nil
	case SortSource, SortPopularity, SortTitle, SortRating, SortYear, SortRank:
		return m, nil
	}
	return "", errors.Errorf("invalid sort mode: %q", s)
}

// Sort returns a sorted copy. Unranked and undated records go last; ties
// keep fetch order.
func Sort(records []domain.Anime, mode SortMode) []domain.Anime {
	out := make([]domain.Anime, len(records))
	copy(out, records)

	var less func(a, b domain.Anime) bool
	switch mode {
	case SortTitle:
		less = func(a, b domain.Anime) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortRating:
		less = func(a, b domain.Anime) bool { return a.Score > b.Score }
	case SortYear:
		less = func(a, b domain.Anime) bool { return a.YearOrZero() > b.YearOrZero() }
	case SortPopularity:
		less = func(a, b domain.Anime) bool { return rankedBefore(a.Popularity, b.Popularity) }
	case SortRank:
		less = func(a, b domain.Anime) bool { return rankedBefore(a.Rank, b.Rank) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func rankedBefore(a, b int) bool {
	switch {
	case a <= 0:
		return false
	case b <= 0:
		return true
	}
	return a < b
}

// Filter narrows a list for display. Zero fields match everything.
type Filter struct {
	Genre    string
	MinScore float64
	Year     int
}

func (f Filter) Apply(records []domain.Anime) []domain.Anime {
	key := normalize.GenreKey(f.Genre)
	out := make([]domain.Anime, 0, len(records))
	for _, a := range records {
		if f.MinScore > 0 && a.Score < f.MinScore {
			continue
		}
		if f.Year > 0 && a.YearOrZero() != f.Year {
			continue
		}
		if key != "" && !hasGenre(a, key) {
			continue
		}
		out = append(out, a)
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

// Page slices records into display pages. page is 1-based and clamped to
// the available range.
func Page(records []domain.Anime, page, size int) (items []domain.Anime, current, total int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	total = (len(records) + size - 1) / size
	if total == 0 {
		return []domain.Anime{}, 1, 0
	}

	current = page
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	start := (current - 1) * size
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], current, total
}
