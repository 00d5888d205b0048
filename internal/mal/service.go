package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/normalize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://api.jikan.moe/v4"
	MaxPerPage         = 25
	DefaultMinInterval = 350 * time.Millisecond
)

// Service is the MyAnimeList record source, served through the Jikan API
type Service interface {
	domain.DetailSource
	Characters(ctx context.Context, id int) ([]domain.Character, error)
	Episodes(ctx context.Context, id, page int) ([]domain.Episode, error)
}

type service struct {
	log     zerolog.Logger
	client  *resty.Client
	limiter *rate.Limiter
	enrich  time.Duration
}

type listResponse struct {
	Data       []normalize.JikanAnime    `json:"data"`
	Pagination normalize.JikanPagination `json:"pagination"`
}

type itemResponse struct {
	Data *normalize.JikanAnime `json:"data"`
}

type charactersResponse struct {
	Data []normalize.JikanCharacterRole `json:"data"`
}

type episodesResponse struct {
	Data       []normalize.JikanEpisode  `json:"data"`
	Pagination normalize.JikanPagination `json:"pagination"`
}

type recommendationsResponse struct {
	Data []normalize.JikanRecommendation `json:"data"`
}

// NewService creates the Jikan backed source. Every request made through it
// passes one shared minimum-interval gate.
func NewService(log zerolog.Logger, cfg *domain.Config) Service {
	baseURL := cfg.JikanURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	interval := cfg.JikanMinInterval
	if interval <= 0 {
		interval = DefaultMinInterval
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	enrich := cfg.Timeouts.Enrich
	if enrich <= 0 {
		enrich = 5 * time.Second
	}

	c := resty.New()
	c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")

	return &service{
		log:     log.With().Str("module", "mal").Logger(),
		client:  c,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		enrich:  enrich,
	}
}

func (s *service) Name() domain.Source {
	return domain.SourceJikan
}

func (s *service) PageSize() int {
	return MaxPerPage
}

func (s *service) List(ctx context.Context, q domain.ListQuery, page, perPage int) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	params := map[string]string{
		"limit": strconv.Itoa(perPage),
		"page":  strconv.Itoa(page),
	}

	var (
		path        string
		genreFilter string
	)

	switch q.Kind {
	case domain.ListPopular:
		path = "/top/anime"
		params["filter"] = "bypopularity"
	case domain.ListTrending:
		path = "/top/anime"
		params["filter"] = "airing"
	case domain.ListGenre:
		name, id := MapGenre(q.Genre)
		if id > 0 {
			path = "/anime"
			params["genres"] = strconv.Itoa(id)
			params["order_by"] = "popularity"
			params["sort"] = "asc"
		} else {
			// no known id: filter the popularity ranking by genre name
			path = "/top/anime"
			params["filter"] = "bypopularity"
			genreFilter = name
		}
	case domain.ListSearch:
		if strings.TrimSpace(q.Search) == "" {
			return &domain.Page{Page: page}, nil
		}
		path = "/anime"
		params["q"] = q.Search
	case domain.ListSeasonal:
		path = fmt.Sprintf("/seasons/%d/%s", q.Year, q.Season)
	default:
		return nil, errors.Wrapf(domain.ErrUnsupported, "jikan list kind %q", q.Kind)
	}

	s.log.Debug().Str("kind", string(q.Kind)).Str("path", path).Int("page", page).Msg("fetching page")

	var resp listResponse
	if err := s.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	items := normalize.JikanPage(resp.Data)
	if genreFilter != "" {
		items = filterGenre(items, genreFilter)
	}

	return &domain.Page{
		Items:       items,
		Page:        page,
		HasNextPage: resp.Pagination.HasNextPage,
	}, nil
}

// Lookup fetches one title. Jikan only knows MyAnimeList numbering.
func (s *service) Lookup(ctx context.Context, id int, kind domain.IDKind) (*domain.Anime, error) {
	if kind != domain.IDKindMAL {
		return nil, errors.Wrapf(domain.ErrUnsupported, "jikan id kind %s", kind)
	}

	var resp itemResponse
	if err := s.get(ctx, fmt.Sprintf("/anime/%d", id), nil, &resp); err != nil {
		return nil, err
	}

	a := normalize.FromJikan(resp.Data)
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// Detail looks up a title and enriches it with characters and the first
// episode page, fetched side by side. Enrichment failures leave the
// corresponding list empty.
func (s *service) Detail(ctx context.Context, id int) (*domain.Anime, error) {
	a, err := s.Lookup(ctx, id, domain.IDKindMAL)
	if err != nil {
		return nil, err
	}

	var (
		characters []domain.Character
		episodes   []domain.Episode
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.enrich)
		defer cancel()
		c, err := s.Characters(cctx, id)
		if err != nil {
			s.log.Warn().Err(err).Int("id", id).Msg("failed to load characters")
			return nil
		}
		characters = c
		return nil
	})
	g.Go(func() error {
		ectx, cancel := context.WithTimeout(gctx, s.enrich)
		defer cancel()
		e, err := s.Episodes(ectx, id, 1)
		if err != nil {
			s.log.Warn().Err(err).Int("id", id).Msg("failed to load episodes")
			return nil
		}
		episodes = e
		return nil
	})
	_ = g.Wait()

	a.Characters = characters
	a.EpisodeList = episodes
	return a, nil
}

func (s *service) Characters(ctx context.Context, id int) ([]domain.Character, error) {
	var resp charactersResponse
	if err := s.get(ctx, fmt.Sprintf("/anime/%d/characters", id), nil, &resp); err != nil {
		return nil, err
	}
	return normalize.Characters(resp.Data), nil
}

func (s *service) Episodes(ctx context.Context, id, page int) ([]domain.Episode, error) {
	if page < 1 {
		page = 1
	}
	var resp episodesResponse
	params := map[string]string{"page": strconv.Itoa(page)}
	if err := s.get(ctx, fmt.Sprintf("/anime/%d/episodes", id), params, &resp); err != nil {
		return nil, err
	}
	return normalize.Episodes(resp.Data, page), nil
}

func (s *service) Recommendations(ctx context.Context, id int) ([]domain.Recommendation, error) {
	var resp recommendationsResponse
	if err := s.get(ctx, fmt.Sprintf("/anime/%d/recommendations", id), nil, &resp); err != nil {
		return nil, err
	}
	return normalize.Recommendations(resp.Data), nil
}

// get waits on the shared gate, performs one GET and decodes the body
func (s *service) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "jikan rate gate")
	}

	req := s.client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return errors.Wrapf(err, "jikan request %s failed", path)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code == http.StatusTooManyRequests:
		s.log.Warn().Str("path", path).Msg("jikan rate limit reached")
		return errors.Errorf("jikan returned status %d for %s", code, path)
	case resp.IsError():
		return errors.Errorf("jikan returned status %d for %s", code, path)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "failed to unmarshal jikan response for %s", path)
	}

	return nil
}

func filterGenre(items []domain.Anime, genre string) []domain.Anime {
	out := make([]domain.Anime, 0, len(items))
	for _, a := range items {
		for _, g := range a.Genres {
			if strings.EqualFold(g, genre) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
