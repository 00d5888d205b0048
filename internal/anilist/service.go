package anilist

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/normalize"
)

const (
	DefaultEndpoint = "https://graphql.anilist.co"
	MaxPerPage      = 50
)

type service struct {
	log      zerolog.Logger
	client   *resty.Client
	endpoint string
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type pageResponse struct {
	Data struct {
		Page struct {
			PageInfo struct {
				CurrentPage int  `json:"currentPage"`
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Media []normalize.Media `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type mediaResponse struct {
	Data struct {
		Media *normalize.Media `json:"Media"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// NewService creates the AniList record source
func NewService(log zerolog.Logger, cfg *domain.Config) domain.RecordSource {
	endpoint := cfg.AniListURL
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := resty.New()
	c.SetTimeout(timeout)
	c.SetHeader("Content-Type", "application/json")
	c.SetHeader("Accept", "application/json")

	return &service{
		log:      log.With().Str("module", "anilist").Logger(),
		client:   c,
		endpoint: endpoint,
	}
}

func (s *service) Name() domain.Source {
	return domain.SourceAniList
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

	vars := map[string]any{
		"page":    page,
		"perPage": perPage,
	}

	switch q.Kind {
	case domain.ListPopular:
		vars["sort"] = []string{"POPULARITY_DESC"}
	case domain.ListTrending:
		vars["sort"] = []string{"TRENDING_DESC", "POPULARITY_DESC"}
	case domain.ListGenre:
		vars["genre"] = []string{MapGenre(q.Genre)}
		vars["sort"] = []string{"POPULARITY_DESC"}
	case domain.ListSearch:
		if strings.TrimSpace(q.Search) == "" {
			return &domain.Page{Page: page}, nil
		}
		vars["search"] = q.Search
		vars["sort"] = []string{"SEARCH_MATCH"}
	case domain.ListSeasonal:
		vars["season"] = strings.ToUpper(string(q.Season))
		vars["seasonYear"] = q.Year
		vars["sort"] = []string{"POPULARITY_DESC"}
	default:
		return nil, errors.Wrapf(domain.ErrUnsupported, "anilist list kind %q", q.Kind)
	}

	s.log.Debug().Str("kind", string(q.Kind)).Int("page", page).Int("per_page", perPage).Msg("fetching page")

	var resp pageResponse
	if err := s.query(ctx, pageQuery, vars, &resp, &resp.Errors); err != nil {
		return nil, err
	}

	p := resp.Data.Page
	return &domain.Page{
		Items:       normalize.AniListPage(p.Media),
		Page:        page,
		HasNextPage: p.PageInfo.HasNextPage,
	}, nil
}

// Lookup fetches one title by its MAL id or its AniList id
func (s *service) Lookup(ctx context.Context, id int, kind domain.IDKind) (*domain.Anime, error) {
	vars := map[string]any{}
	switch kind {
	case domain.IDKindMAL:
		vars["idMal"] = id
	case domain.IDKindAniList:
		vars["id"] = id
	default:
		return nil, errors.Wrapf(domain.ErrUnsupported, "anilist id kind %s", kind)
	}

	s.log.Debug().Int("id", id).Str("kind", kind.String()).Msg("fetching media")

	var resp mediaResponse
	if err := s.query(ctx, mediaQuery, vars, &resp, &resp.Errors); err != nil {
		return nil, err
	}

	a := normalize.FromAniList(resp.Data.Media)
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// query posts one GraphQL request. AniList reports failures through the
// errors array, sometimes alongside a non-2xx status, so the body is decoded
// before the status is considered.
func (s *service) query(ctx context.Context, query string, vars map[string]any, out any, errs *[]graphQLError) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(graphQLRequest{Query: query, Variables: vars}).
		Post(s.endpoint)
	if err != nil {
		return errors.Wrap(err, "anilist request failed")
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		if resp.IsError() {
			return errors.Errorf("anilist returned status %d", resp.StatusCode())
		}
		return errors.Wrap(err, "failed to unmarshal anilist response")
	}

	if len(*errs) > 0 {
		e := (*errs)[0]
		if e.Status == http.StatusNotFound {
			return domain.ErrNotFound
		}
		if e.Status == http.StatusTooManyRequests {
			s.log.Warn().Msg("anilist rate limit reached")
		}
		return errors.Errorf("anilist error: %s", e.Message)
	}

	if resp.IsError() {
		return errors.Errorf("anilist returned status %d", resp.StatusCode())
	}

	return nil
}
