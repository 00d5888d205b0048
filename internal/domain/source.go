package domain

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("operation not supported by source")
)

// IDKind tells a source which numbering an id belongs to
type IDKind int

const (
	IDKindMAL IDKind = iota
	IDKindAniList
)

func (k IDKind) String() string {
	switch k {
	case IDKindMAL:
		return "mal"
	case IDKindAniList:
		return "anilist"
	default:
		return "unknown"
	}
}

// Page is one page of normalized records as reported by a source
type Page struct {
	Items       []Anime
	Page        int
	HasNextPage bool
}

// ListKind selects what an arbitrated list operation fetches
type ListKind string

const (
	ListPopular  ListKind = "popular"
	ListTrending ListKind = "trending"
	ListGenre    ListKind = "genre"
	ListSearch   ListKind = "search"
	ListSeasonal ListKind = "seasonal"
)

func ParseListKind(s string) (ListKind, error) {
	switch k := ListKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ListPopular, ListTrending, ListGenre, ListSearch, ListSeasonal:
		return k, nil
	}
	return "", errors.Errorf("invalid list kind: %q", s)
}

// ListQuery describes a paginated list request
type ListQuery struct {
	Kind   ListKind
	Genre  string
	Search string
	Year   int
	Season Season
}

type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

func ParseSeason(s string) (Season, error) {
	switch v := Season(strings.ToLower(strings.TrimSpace(s))); v {
	case SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall:
		return v, nil
	case "autumn":
		return SeasonFall, nil
	}
	return "", errors.Errorf("invalid season: %q (must be winter, spring, summer or fall)", s)
}

// RecordSource is one external metadata API behind the uniform contract the
// arbiter and assembler consume. Implementations own their rate limiting.
type RecordSource interface {
	Name() Source
	// PageSize is the largest page the source serves
	PageSize() int
	List(ctx context.Context, q ListQuery, page, perPage int) (*Page, error)
	Lookup(ctx context.Context, id int, kind IDKind) (*Anime, error)
}

// DetailSource is implemented by sources that can enrich a record with
// characters, episodes and recommendations from dedicated endpoints.
type DetailSource interface {
	RecordSource
	Detail(ctx context.Context, id int) (*Anime, error)
	Recommendations(ctx context.Context, id int) ([]Recommendation, error)
}
