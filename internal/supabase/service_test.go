package supabase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/supabase"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type wireRow struct {
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

// project fakes the slice of GoTrue and PostgREST the store talks to
type project struct {
	mu      sync.Mutex
	rows    map[int]wireRow
	logouts int
}

func (p *project) row(id int) (wireRow, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows[id], len(p.rows)
}

func (p *project) logoutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logouts
}

func eqValue(r *http.Request, key string) string {
	return strings.TrimPrefix(r.URL.Query().Get(key), "eq.")
}

func (p *project) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Header.Get("apikey") != "anon" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/auth/v1/token":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Query().Get("grant_type") {
		case "password":
			if body["password"] != "hunter2" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"tok","refresh_token":"ref","expires_in":3600,"user":{"id":"u1","email":"` + body["email"] + `"}}`))
		case "refresh_token":
			if body["refresh_token"] != "ref" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"tok2","refresh_token":"ref2","expires_in":3600,"user":{"id":"u1","email":"a@example.com"}}`))
		}
		return
	case "/auth/v1/signup":
		_, _ = w.Write([]byte(`{"id":"u2","email":"new@example.com"}`))
		return
	case "/auth/v1/logout":
		p.logouts++
		w.WriteHeader(http.StatusNoContent)
		return
	case "/rest/v1/watchlist":
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	auth := r.Header.Get("Authorization")
	if auth != "Bearer tok" && auth != "Bearer tok2" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT expired","code":"PGRST301"}`))
		return
	}

	switch r.Method {
	case http.MethodGet:
		out := []wireRow{}
		for _, row := range p.rows {
			if id := eqValue(r, "anime_id"); id != "" && id != strconv.Itoa(row.AnimeID) {
				continue
			}
			if st := eqValue(r, "status"); st != "" && st != row.Status {
				continue
			}
			out = append(out, row)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].UpdatedDate.After(out[j].UpdatedDate) })
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPost:
		var in []wireRow
		_ = json.NewDecoder(r.Body).Decode(&in)
		for _, row := range in {
			p.rows[row.AnimeID] = row
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		id, _ := strconv.Atoi(eqValue(r, "anime_id"))
		delete(p.rows, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func newStore(t *testing.T) (domain.AccountStore, *project, *memStore, *domain.Config) {
	t.Helper()
	p := &project{rows: map[int]wireRow{}}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	cfg := &domain.Config{SupabaseURL: srv.URL, SupabaseAnonKey: "anon", HTTPTimeout: 5 * time.Second}
	mem := &memStore{data: map[string][]byte{}}
	s := supabase.NewService(zerolog.Nop(), cfg, mem)
	require.NotNil(t, s)
	return s, p, mem, cfg
}

func TestNewService_Unconfigured(t *testing.T) {
	s := supabase.NewService(zerolog.Nop(), &domain.Config{}, &memStore{data: map[string][]byte{}})
	assert.Nil(t, s)
}

func TestSession_NoneUntilSignIn(t *testing.T) {
	s, _, mem, cfg := newStore(t)
	ctx := context.Background()

	_, err := s.Session(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = s.All(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = s.SignIn(ctx, "a@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")

	sess, err := s.SignIn(ctx, "a@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.NotEmpty(t, mem.data[domain.KeySession])

	// a fresh process picks the session up from the device store
	again := supabase.NewService(zerolog.Nop(), cfg, mem)
	restored, err := again.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", restored.AccessToken)
}

func TestSession_RefreshesExpired(t *testing.T) {
	s, _, mem, _ := newStore(t)
	ctx := context.Background()

	blob, err := json.Marshal(domain.Session{
		AccessToken:  "stale",
		RefreshToken: "ref",
		ExpiresAt:    time.Now().Add(-time.Minute),
		UserID:       "u1",
	})
	require.NoError(t, err)
	mem.data[domain.KeySession] = blob

	sess, err := s.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok2", sess.AccessToken)
	assert.Contains(t, string(mem.data[domain.KeySession]), "tok2")
}

func TestSignUp_PendingConfirmation(t *testing.T) {
	s, _, mem, _ := newStore(t)

	sess, err := s.SignUp(context.Background(), "new@example.com", "pw")
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Empty(t, mem.data[domain.KeySession])
}

func TestWatchlistRows(t *testing.T) {
	s, p, _, _ := newStore(t)
	ctx := context.Background()

	_, err := s.SignIn(ctx, "a@example.com", "hunter2")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Put(ctx, domain.TrackingEntry{AnimeID: 7, Status: domain.StatusWatching, AddedAt: now, UpdatedAt: now}))
	first, _ := p.row(7)
	require.NotEmpty(t, first.ID)

	rating := 5
	require.NoError(t, s.Put(ctx, domain.TrackingEntry{AnimeID: 7, Status: domain.StatusCompleted, Rating: &rating, AddedAt: now, UpdatedAt: now.Add(time.Second)}))
	require.NoError(t, s.Put(ctx, domain.TrackingEntry{AnimeID: 9, Status: domain.StatusCompleted, AddedAt: now, UpdatedAt: now.Add(2 * time.Second)}))

	updated, n := p.row(7)
	assert.Equal(t, 2, n)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "u1", updated.UserID)

	e, err := s.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, domain.StatusCompleted, e.Status)
	require.NotNil(t, e.Rating)
	assert.Equal(t, 5, *e.Rating)
	assert.True(t, now.Equal(e.AddedAt))

	completed, err := s.List(ctx, domain.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, 9, completed[0].AnimeID)

	watching, err := s.List(ctx, domain.StatusWatching)
	require.NoError(t, err)
	assert.Empty(t, watching)

	require.NoError(t, s.Delete(ctx, 7))
	e, err = s.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestSignOut(t *testing.T) {
	s, p, mem, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SignOut(ctx))
	assert.Zero(t, p.logoutCount())

	_, err := s.SignIn(ctx, "a@example.com", "hunter2")
	require.NoError(t, err)
	require.NoError(t, s.SignOut(ctx))

	assert.Equal(t, 1, p.logoutCount())
	assert.Empty(t, mem.data[domain.KeySession])
	_, err = s.Session(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}
