// Package catalog answers catalog queries from two interchangeable record
// sources. The primary source always goes first; the secondary is consulted
// only when the primary times out, fails or comes back empty, and the seed
// dataset is the last resort.
package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/seed"
)

// Service never reports source failures to the caller. The worst outcome
// is an empty slice or a nil record.
type Service interface {
	Popular(ctx context.Context, n int) []domain.Anime
	Trending(ctx context.Context, n int) []domain.Anime
	ByGenre(ctx context.Context, genre string, n int) []domain.Anime
	Search(ctx context.Context, query string, n int) []domain.Anime
	Seasonal(ctx context.Context, year int, season domain.Season, n int) []domain.Anime
	ByID(ctx context.Context, id int) *domain.Anime
	Detail(ctx context.Context, id int) *domain.Anime
	Recommendations(ctx context.Context, id, n int) []domain.Anime
	Assemble(ctx context.Context, q domain.ListQuery, target int) *Collection
}

var defaultTimeouts = domain.Timeouts{
	List:            10 * time.Second,
	Search:          15 * time.Second,
	DetailPrimary:   12 * time.Second,
	DetailSecondary: 10 * time.Second,
	Recommendations: 8 * time.Second,
	Enrich:          5 * time.Second,
}

// inter-page delays for background assembly
var defaultDelays = map[domain.Source]time.Duration{
	domain.SourceAniList: 200 * time.Millisecond,
	domain.SourceJikan:   400 * time.Millisecond,
}

type service struct {
	log       zerolog.Logger
	primary   domain.RecordSource
	secondary domain.RecordSource
	seed      *seed.Dataset
	cache     domain.RecordCache
	timeouts  domain.Timeouts
	delays    map[domain.Source]time.Duration
}

// NewService builds the arbiter. secondary, dataset and cache may be nil.
func NewService(log zerolog.Logger, cfg *domain.Config, primary, secondary domain.RecordSource, dataset *seed.Dataset, cache domain.RecordCache) Service {
	t := cfg.Timeouts
	if t.List <= 0 {
		t.List = defaultTimeouts.List
	}
	if t.Search <= 0 {
		t.Search = defaultTimeouts.Search
	}
	if t.DetailPrimary <= 0 {
		t.DetailPrimary = defaultTimeouts.DetailPrimary
	}
	if t.DetailSecondary <= 0 {
		t.DetailSecondary = defaultTimeouts.DetailSecondary
	}
	if t.Recommendations <= 0 {
		t.Recommendations = defaultTimeouts.Recommendations
	}
	if t.Enrich <= 0 {
		t.Enrich = defaultTimeouts.Enrich
	}

	delays := make(map[domain.Source]time.Duration, len(defaultDelays))
	for k, v := range defaultDelays {
		delays[k] = v
	}

	return &service{
		log:       log.With().Str("module", "catalog").Logger(),
		primary:   primary,
		secondary: secondary,
		seed:      dataset,
		cache:     cache,
		timeouts:  t,
		delays:    delays,
	}
}

func (s *service) sources() []domain.RecordSource {
	out := make([]domain.RecordSource, 0, 2)
	if s.primary != nil {
		out = append(out, s.primary)
	}
	if s.secondary != nil {
		out = append(out, s.secondary)
	}
	return out
}

func (s *service) budget(kind domain.ListKind) time.Duration {
	if kind == domain.ListSearch {
		return s.timeouts.Search
	}
	return s.timeouts.List
}

func (s *service) delay(src domain.Source) time.Duration {
	if d, ok := s.delays[src]; ok {
		return d
	}
	return 400 * time.Millisecond
}
