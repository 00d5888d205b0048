// Package supabase implements the remote account store against a Supabase
// project: GoTrue for authentication and PostgREST for the watchlist table.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

const watchlistTable = "/rest/v1/watchlist"

type service struct {
	log     zerolog.Logger
	client  *resty.Client
	anonKey string
	store   domain.DeviceStore

	mu      sync.Mutex
	session *domain.Session
	loaded  bool
}

// NewService returns the remote store, or nil when no project is configured
func NewService(log zerolog.Logger, cfg *domain.Config, store domain.DeviceStore) domain.AccountStore {
	if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
		return nil
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := resty.New()
	c.SetBaseURL(strings.TrimRight(cfg.SupabaseURL, "/"))
	c.SetTimeout(timeout)
	c.SetHeader("apikey", cfg.SupabaseAnonKey)
	c.SetHeader("Accept", "application/json")

	return &service{
		log:     log.With().Str("module", "supabase").Logger(),
		client:  c,
		anonKey: cfg.SupabaseAnonKey,
		store:   store,
	}
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *user  `json:"user"`

	// sign-up without a session answers with the bare user
	ID    string `json:"id"`
	Email string `json:"email"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// apiError covers both GoTrue and PostgREST error bodies
type apiError struct {
	Message     string `json:"message"`
	Msg         string `json:"msg"`
	Err         string `json:"error"`
	Description string `json:"error_description"`
	Code        any    `json:"code"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.Description, e.Msg, e.Message, e.Err} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (s *service) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp authResponse
	if err := s.auth(ctx, "/auth/v1/signup", nil, credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, errors.Wrap(err, "sign up failed")
	}

	if resp.AccessToken == "" {
		// email confirmation pending, nothing to persist yet
		s.log.Info().Str("email", email).Msg("sign up requires confirmation")
		return nil, nil
	}

	return s.adopt(ctx, &resp)
}

func (s *service) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp authResponse
	params := map[string]string{"grant_type": "password"}
	if err := s.auth(ctx, "/auth/v1/token", params, credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, errors.Wrap(err, "sign in failed")
	}
	return s.adopt(ctx, &resp)
}

// SignOut always forgets the local session, even when the server call fails
func (s *service) SignOut(ctx context.Context) error {
	sess, err := s.Session(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil
		}
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(sess.AccessToken).
		Post("/auth/v1/logout")
	if err != nil {
		s.log.Warn().Err(err).Msg("logout request failed")
	} else if resp.IsError() {
		s.log.Warn().Int("status", resp.StatusCode()).Msg("logout rejected")
	}

	s.mu.Lock()
	s.session = nil
	s.loaded = true
	s.mu.Unlock()

	return errors.Wrap(s.store.Remove(ctx, domain.KeySession), "failed to forget session")
}

// Session returns the persisted session, refreshing it once when expired.
// A session that cannot be refreshed counts as absent.
func (s *service) Session(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		sess, err := s.loadSession(ctx)
		if err != nil {
			return nil, err
		}
		s.session = sess
		s.loaded = true
	}

	if s.session == nil {
		return nil, domain.ErrNoSession
	}

	if !s.session.Expired(time.Now()) {
		return s.session, nil
	}

	if s.session.RefreshToken == "" {
		s.session = nil
		return nil, domain.ErrNoSession
	}

	var resp authResponse
	params := map[string]string{"grant_type": "refresh_token"}
	body := map[string]string{"refresh_token": s.session.RefreshToken}
	if err := s.auth(ctx, "/auth/v1/token", params, body, &resp); err != nil {
		s.log.Warn().Err(err).Msg("session refresh failed")
		s.session = nil
		return nil, domain.ErrNoSession
	}

	sess := toSession(&resp)
	if err := s.saveSession(ctx, sess); err != nil {
		return nil, err
	}
	s.session = sess
	return sess, nil
}

func (s *service) loadSession(ctx context.Context) (*domain.Session, error) {
	blob, err := s.store.Load(ctx, domain.KeySession)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	if len(blob) == 0 {
		return nil, nil
	}

	var sess domain.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable session")
		return nil, nil
	}
	return &sess, nil
}

func (s *service) saveSession(ctx context.Context, sess *domain.Session) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}
	return errors.Wrap(s.store.Save(ctx, domain.KeySession, blob), "failed to persist session")
}

func (s *service) adopt(ctx context.Context, resp *authResponse) (*domain.Session, error) {
	sess := toSession(resp)
	if err := s.saveSession(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.session = sess
	s.loaded = true
	s.mu.Unlock()

	s.log.Debug().Str("user", sess.UserID).Msg("session established")
	return sess, nil
}

func toSession(resp *authResponse) *domain.Session {
	sess := &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	switch {
	case resp.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		sess.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}
	if resp.User != nil {
		sess.UserID = resp.User.ID
		sess.Email = resp.User.Email
	}
	return sess
}

func (s *service) auth(ctx context.Context, path string, params map[string]string, body, out any) error {
	req := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.anonKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Post(path)
	if err != nil {
		return errors.Wrapf(err, "request %s failed", path)
	}
	if err := check(resp); err != nil {
		return err
	}

	return errors.Wrap(json.Unmarshal(resp.Body(), out), "failed to unmarshal auth response")
}

func check(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	var e apiError
	if err := json.Unmarshal(resp.Body(), &e); err == nil && e.text() != "" {
		return errors.Errorf("supabase returned status %d: %s", resp.StatusCode(), e.text())
	}
	return errors.Errorf("supabase returned status %d", resp.StatusCode())
}

type row struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	AnimeID     int        `json:"anime_id"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Rating      *int       `json:"rating"`
	Notes       string     `json:"notes"`
	CreatedDate *time.Time `json:"created_date,omitempty"`
	UpdatedDate time.Time  `json:"updated_date"`
}

func (r row) entry() domain.TrackingEntry {
	e := domain.TrackingEntry{
		AnimeID:   r.AnimeID,
		Status:    domain.Status(r.Status),
		Progress:  r.Progress,
		Rating:    r.Rating,
		Notes:     r.Notes,
		UpdatedAt: r.UpdatedDate,
		AddedAt:   r.UpdatedDate,
	}
	if r.CreatedDate != nil {
		e.AddedAt = *r.CreatedDate
	}
	return e
}

// rest prepares an authorised PostgREST request for the signed in user
func (s *service) rest(ctx context.Context) (*resty.Request, *domain.Session, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return nil, nil, err
	}
	req := s.client.R().
		SetContext(ctx).
		SetAuthToken(sess.AccessToken)
	return req, sess, nil
}

func (s *service) rows(ctx context.Context, filter map[string]string) ([]row, error) {
	req, sess, err := s.rest(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"select":  "*",
		"user_id": "eq." + sess.UserID,
		"order":   "updated_date.desc",
	}
	for k, v := range filter {
		params[k] = v
	}

	resp, err := req.SetQueryParams(params).Get(watchlistTable)
	if err != nil {
		return nil, errors.Wrap(err, "watchlist request failed")
	}
	if err := check(resp); err != nil {
		return nil, err
	}

	var out []row
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal watchlist rows")
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, animeID int) (*domain.TrackingEntry, error) {
	rows, err := s.rows(ctx, map[string]string{"anime_id": fmt.Sprintf("eq.%d", animeID)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	e := rows[0].entry()
	return &e, nil
}

func (s *service) List(ctx context.Context, status domain.Status) ([]domain.TrackingEntry, error) {
	rows, err := s.rows(ctx, map[string]string{"status": "eq." + string(status)})
	if err != nil {
		return nil, err
	}
	return entries(rows), nil
}

func (s *service) All(ctx context.Context) ([]domain.TrackingEntry, error) {
	rows, err := s.rows(ctx, nil)
	if err != nil {
		return nil, err
	}
	return entries(rows), nil
}

// Put upserts the single row for (user, anime). An existing row keeps its id.
func (s *service) Put(ctx context.Context, entry domain.TrackingEntry) error {
	existing, err := s.rows(ctx, map[string]string{
		"anime_id": fmt.Sprintf("eq.%d", entry.AnimeID),
		"select":   "id",
	})
	if err != nil {
		return err
	}

	req, sess, err := s.rest(ctx)
	if err != nil {
		return err
	}

	r := row{
		ID:          uuid.NewString(),
		UserID:      sess.UserID,
		AnimeID:     entry.AnimeID,
		Status:      string(entry.Status),
		Progress:    entry.Progress,
		Rating:      entry.Rating,
		Notes:       entry.Notes,
		UpdatedDate: entry.UpdatedAt.UTC(),
	}
	if len(existing) > 0 && existing[0].ID != "" {
		r.ID = existing[0].ID
	}
	if !entry.AddedAt.IsZero() {
		added := entry.AddedAt.UTC()
		r.CreatedDate = &added
	}

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "user_id,anime_id").
		SetBody([]row{r}).
		Post(watchlistTable)
	if err != nil {
		return errors.Wrap(err, "watchlist upsert failed")
	}
	if err := check(resp); err != nil {
		return err
	}

	s.log.Trace().Int("anime", entry.AnimeID).Str("status", r.Status).Msg("row upserted")
	return nil
}

func (s *service) Delete(ctx context.Context, animeID int) error {
	req, sess, err := s.rest(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetQueryParams(map[string]string{
			"user_id":  "eq." + sess.UserID,
			"anime_id": fmt.Sprintf("eq.%d", animeID),
		}).
		Delete(watchlistTable)
	if err != nil {
		return errors.Wrap(err, "watchlist delete failed")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	return check(resp)
}

func entries(rows []row) []domain.TrackingEntry {
	out := make([]domain.TrackingEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out
}
