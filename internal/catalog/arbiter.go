package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/seed"
)

var (
	errTimeout   = errors.New("source timed out")
	errEmpty     = errors.New("source returned no records")
	errExhausted = errors.New("all sources failed")
)

type result[T any] struct {
	v   T
	err error
}

// race runs fn under budget. When the budget elapses first the attempt's
// context is cancelled and whatever it returns later is dropped.
func race[T any](ctx context.Context, budget time.Duration, fn func(context.Context) (T, error)) (T, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := fn(actx)
		ch <- result[T]{v: v, err: err}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	var zero T
	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		return zero, errors.Wrapf(errTimeout, "after %s", budget)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func perPage(src domain.RecordSource, n int) int {
	if n <= 0 || n > src.PageSize() {
		return src.PageSize()
	}
	return n
}

func (s *service) fetchPage(ctx context.Context, src domain.RecordSource, q domain.ListQuery, page, n int) (*domain.Page, error) {
	p, err := race(ctx, s.budget(q.Kind), func(ctx context.Context) (*domain.Page, error) {
		return src.List(ctx, q, page, perPage(src, n))
	})
	if err != nil {
		return nil, err
	}
	if p == nil || len(p.Items) == 0 {
		return nil, errEmpty
	}
	return p, nil
}

// arbitrate returns the first page any source answers with at least one
// record, along with the source that answered
func (s *service) arbitrate(ctx context.Context, q domain.ListQuery, n int) (*domain.Page, domain.RecordSource, error) {
	for _, src := range s.sources() {
		p, err := s.fetchPage(ctx, src, q, 1, n)
		if err == nil {
			s.log.Debug().Str("kind", string(q.Kind)).Str("source", string(src.Name())).Int("records", len(p.Items)).Msg("source answered")
			return p, src, nil
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		s.log.Warn().Err(err).Str("kind", string(q.Kind)).Str("source", string(src.Name())).Msg("source failed, trying next")
	}
	return nil, nil, errExhausted
}

func (s *service) list(ctx context.Context, q domain.ListQuery, n int) []domain.Anime {
	p, _, err := s.arbitrate(ctx, q, n)
	if err == nil {
		return limit(p.Items, n)
	}
	return s.fromSeed(q, n)
}

func (s *service) fromSeed(q domain.ListQuery, n int) []domain.Anime {
	if s.seed == nil {
		return []domain.Anime{}
	}
	items := s.seed.List(q, n)
	s.log.Warn().Str("kind", string(q.Kind)).Int("records", len(items)).Msg("serving seed dataset")
	return items
}

func (s *service) Popular(ctx context.Context, n int) []domain.Anime {
	return s.list(ctx, domain.ListQuery{Kind: domain.ListPopular}, n)
}

func (s *service) Trending(ctx context.Context, n int) []domain.Anime {
	return s.list(ctx, domain.ListQuery{Kind: domain.ListTrending}, n)
}

// ByGenre passes the token through untouched. Each source maps it to its
// own vocabulary.
func (s *service) ByGenre(ctx context.Context, genre string, n int) []domain.Anime {
	return s.list(ctx, domain.ListQuery{Kind: domain.ListGenre, Genre: genre}, n)
}

func (s *service) Search(ctx context.Context, query string, n int) []domain.Anime {
	return s.list(ctx, domain.ListQuery{Kind: domain.ListSearch, Search: query}, n)
}

func (s *service) Seasonal(ctx context.Context, year int, season domain.Season, n int) []domain.Anime {
	return s.list(ctx, domain.ListQuery{Kind: domain.ListSeasonal, Year: year, Season: season}, n)
}

// lookup resolves an id of unknown origin on one source. MyAnimeList
// numbering is tried before the source's own.
func lookup(ctx context.Context, src domain.RecordSource, id int, detailed bool) (*domain.Anime, error) {
	if ds, ok := src.(domain.DetailSource); ok && detailed {
		return ds.Detail(ctx, id)
	}

	a, err := src.Lookup(ctx, id, domain.IDKindMAL)
	if err == nil && a != nil {
		return a, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	a, err2 := src.Lookup(ctx, id, domain.IDKindAniList)
	if err2 == nil && a != nil {
		return a, nil
	}
	if errors.Is(err2, domain.ErrUnsupported) && err != nil {
		return nil, err
	}
	if err2 == nil {
		err2 = domain.ErrNotFound
	}
	return nil, err2
}

func (s *service) byID(ctx context.Context, id int, detailed bool) *domain.Anime {
	budgets := []time.Duration{s.timeouts.DetailPrimary, s.timeouts.DetailSecondary}

	for i, src := range s.sources() {
		a, err := race(ctx, budgets[i], func(ctx context.Context) (*domain.Anime, error) {
			return lookup(ctx, src, id, detailed)
		})
		if err == nil && a != nil && a.Title != "" {
			s.log.Debug().Int("id", id).Str("source", string(src.Name())).Msg("record resolved")
			s.remember(ctx, a)
			return a
		}
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn().Err(err).Int("id", id).Str("source", string(src.Name())).Msg("lookup failed, trying next")
	}

	if s.seed != nil {
		if a, ok := s.seed.ByID(id); ok {
			s.log.Warn().Int("id", id).Msg("serving seed record")
			return &a
		}
	}
	return nil
}

// ByID resolves a single record. Remote results are written to the cache.
func (s *service) ByID(ctx context.Context, id int) *domain.Anime {
	return s.byID(ctx, id, false)
}

// Detail resolves a record including characters and episodes where the
// answering source provides them
func (s *service) Detail(ctx context.Context, id int) *domain.Anime {
	return s.byID(ctx, id, true)
}

func (s *service) remember(ctx context.Context, a *domain.Anime) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, *a); err != nil {
		s.log.Warn().Err(err).Int("id", a.ID).Msg("failed to cache record")
	}
}

// Recommendations asks the sources that expose recommendations, then falls
// back to seed titles sharing the most genres with the record
func (s *service) Recommendations(ctx context.Context, id, n int) []domain.Anime {
	for _, src := range []domain.RecordSource{s.secondary, s.primary} {
		ds, ok := src.(domain.DetailSource)
		if !ok {
			continue
		}
		recs, err := race(ctx, s.timeouts.Recommendations, func(ctx context.Context) ([]domain.Recommendation, error) {
			return ds.Recommendations(ctx, id)
		})
		if err == nil && len(recs) > 0 {
			out := make([]domain.Anime, 0, len(recs))
			for _, r := range recs {
				out = append(out, r.Anime)
			}
			return limit(out, n)
		}
		if ctx.Err() != nil {
			return []domain.Anime{}
		}
		s.log.Warn().Err(err).Int("id", id).Str("source", string(ds.Name())).Msg("recommendations failed")
	}

	if s.seed == nil {
		return []domain.Anime{}
	}

	base, ok := domain.Anime{}, false
	if s.cache != nil {
		base, ok = s.cache.Get(ctx, id)
	}
	if !ok {
		base, ok = s.seed.ByID(id)
	}
	if !ok {
		return []domain.Anime{}
	}
	return seed.SharedGenres(base, s.seed.All(), n)
}

func limit(a []domain.Anime, n int) []domain.Anime {
	if n > 0 && len(a) > n {
		return a[:n]
	}
	return a
}
