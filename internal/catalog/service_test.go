package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/seed"
)

// fakeSource serves numbered records and counts every request
type fakeSource struct {
	name     domain.Source
	pageSize int
	pages    int // pages reported before hasNextPage turns false, 0 = endless
	delay    time.Duration
	fail     error
	empty    bool
	lookup   map[domain.IDKind]map[int]string

	mu      sync.Mutex
	lists   int
	lookups []domain.IDKind
	late    chan struct{}
}

func (f *fakeSource) Name() domain.Source { return f.name }
func (f *fakeSource) PageSize() int       { return f.pageSize }

func (f *fakeSource) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeSource) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		if f.late != nil {
			close(f.late)
		}
		return ctx.Err()
	}
}

func (f *fakeSource) List(ctx context.Context, q domain.ListQuery, page, perPage int) (*domain.Page, error) {
	f.mu.Lock()
	f.lists++
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.fail != nil {
		return nil, f.fail
	}
	if f.empty {
		return &domain.Page{Page: page}, nil
	}

	items := make([]domain.Anime, 0, perPage)
	for i := 0; i < perPage; i++ {
		id := (page-1)*perPage + i + 1
		items = append(items, domain.Anime{ID: id, Title: fmt.Sprintf("%s %d", f.name, id), Source: f.name})
	}
	return &domain.Page{Items: items, Page: page, HasNextPage: f.pages == 0 || page < f.pages}, nil
}

func (f *fakeSource) Lookup(ctx context.Context, id int, kind domain.IDKind) (*domain.Anime, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, kind)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.fail != nil {
		return nil, f.fail
	}
	if title, ok := f.lookup[kind][id]; ok {
		return &domain.Anime{ID: id, Title: title, Source: f.name}, nil
	}
	return nil, domain.ErrNotFound
}

type fakeDetail struct {
	*fakeSource
	details int
	recs    []domain.Recommendation
}

func (f *fakeDetail) Detail(ctx context.Context, id int) (*domain.Anime, error) {
	f.details++
	a, err := f.Lookup(ctx, id, domain.IDKindMAL)
	if err != nil {
		return nil, err
	}
	a.Characters = []domain.Character{{Name: "Spike Spiegel", Role: "Main"}}
	return a, nil
}

func (f *fakeDetail) Recommendations(context.Context, int) ([]domain.Recommendation, error) {
	return f.recs, nil
}

type memCache struct {
	mu      sync.Mutex
	records map[int]domain.Anime
}

func (m *memCache) Put(_ context.Context, a domain.Anime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[a.ID] = a
	return nil
}

func (m *memCache) Get(_ context.Context, id int) (domain.Anime, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	return a, ok
}

func (m *memCache) Resolve(ctx context.Context, id int) domain.Anime {
	if a, ok := m.Get(ctx, id); ok {
		return a
	}
	return domain.Placeholder(id)
}

func (m *memCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func primarySource() *fakeSource {
	return &fakeSource{name: domain.SourceAniList, pageSize: 50}
}

func secondarySource() *fakeSource {
	return &fakeSource{name: domain.SourceJikan, pageSize: 25}
}

func newTestService(t *testing.T, primary, secondary domain.RecordSource, timeouts domain.Timeouts) (*service, *memCache) {
	t.Helper()
	ds, err := seed.Load()
	require.NoError(t, err)
	cache := &memCache{records: map[int]domain.Anime{}}
	s := NewService(zerolog.Nop(), &domain.Config{Timeouts: timeouts}, primary, secondary, ds, cache).(*service)
	s.delays = map[domain.Source]time.Duration{domain.SourceAniList: time.Millisecond, domain.SourceJikan: time.Millisecond}
	return s, cache
}

func TestPrimarySuccess_SecondaryNeverCalled(t *testing.T) {
	p, sec := primarySource(), secondarySource()
	s, _ := newTestService(t, p, sec, domain.Timeouts{})

	got := s.Popular(context.Background(), 10)
	require.Len(t, got, 10)
	assert.Equal(t, domain.SourceAniList, got[0].Source)
	assert.Equal(t, 1, p.listCalls())
	assert.Zero(t, sec.listCalls())
}

func TestPrimaryTimeout_SecondaryWins(t *testing.T) {
	p := primarySource()
	p.delay = time.Second
	p.late = make(chan struct{})
	sec := secondarySource()
	s, _ := newTestService(t, p, sec, domain.Timeouts{List: 50 * time.Millisecond})

	start := time.Now()
	got := s.Trending(context.Background(), 5)
	require.Len(t, got, 5)
	assert.Equal(t, domain.SourceJikan, got[0].Source)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, sec.listCalls())

	// the abandoned attempt is cancelled rather than left running
	select {
	case <-p.late:
	case <-time.After(time.Second):
		t.Fatal("primary attempt was not cancelled")
	}
}

func TestPrimaryEmptyOrError_FallsThrough(t *testing.T) {
	p := primarySource()
	p.empty = true
	sec := secondarySource()
	s, _ := newTestService(t, p, sec, domain.Timeouts{})

	got := s.ByGenre(context.Background(), "sci-fi", 3)
	require.Len(t, got, 3)
	assert.Equal(t, domain.SourceJikan, got[0].Source)

	p.empty = false
	p.fail = errors.New("connection refused")
	got = s.Search(context.Background(), "bebop", 3)
	require.Len(t, got, 3)
	assert.Equal(t, domain.SourceJikan, got[0].Source)
}

func TestBothDown_SeedSearch(t *testing.T) {
	p, sec := primarySource(), secondarySource()
	p.fail = errors.New("down")
	sec.fail = errors.New("down")
	s, _ := newTestService(t, p, sec, domain.Timeouts{})

	got := s.Search(context.Background(), "Naruto", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "Naruto", got[0].Title)
	assert.Equal(t, domain.SourceSeed, got[0].Source)

	assert.Empty(t, s.Seasonal(context.Background(), 2024, domain.SeasonFall, 10))
	assert.Len(t, s.Popular(context.Background(), 4), 4)
}

func TestBothDown_NoSeed(t *testing.T) {
	p := primarySource()
	p.fail = errors.New("down")
	s := NewService(zerolog.Nop(), &domain.Config{}, p, nil, nil, nil)

	got := s.Popular(context.Background(), 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Nil(t, s.ByID(context.Background(), 1))
}

func TestByID_TriesMALNumberingFirst(t *testing.T) {
	p := primarySource()
	p.lookup = map[domain.IDKind]map[int]string{domain.IDKindAniList: {1: "Cowboy Bebop"}}
	sec := secondarySource()
	s, cache := newTestService(t, p, sec, domain.Timeouts{})

	a := s.ByID(context.Background(), 1)
	require.NotNil(t, a)
	assert.Equal(t, "Cowboy Bebop", a.Title)
	assert.Equal(t, []domain.IDKind{domain.IDKindMAL, domain.IDKindAniList}, p.lookups)
	assert.Empty(t, sec.lookups)

	cached, ok := cache.Get(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "Cowboy Bebop", cached.Title)
}

func TestByID_SecondaryThenSeed(t *testing.T) {
	p := primarySource()
	sec := secondarySource()
	sec.lookup = map[domain.IDKind]map[int]string{domain.IDKindMAL: {20: "Naruto"}}
	s, cache := newTestService(t, p, sec, domain.Timeouts{})

	a := s.ByID(context.Background(), 20)
	require.NotNil(t, a)
	assert.Equal(t, domain.SourceJikan, a.Source)

	// seed ids resolve but are not cached
	a = s.ByID(context.Background(), 7)
	require.NotNil(t, a)
	assert.Equal(t, domain.SourceSeed, a.Source)
	_, ok := cache.Get(context.Background(), 7)
	assert.False(t, ok)

	assert.Nil(t, s.ByID(context.Background(), 99999))
}

func TestDetail_UsesDetailSource(t *testing.T) {
	p := primarySource()
	p.fail = errors.New("down")
	sec := &fakeDetail{fakeSource: secondarySource()}
	sec.lookup = map[domain.IDKind]map[int]string{domain.IDKindMAL: {1: "Cowboy Bebop"}}
	s, _ := newTestService(t, p, sec, domain.Timeouts{})

	a := s.Detail(context.Background(), 1)
	require.NotNil(t, a)
	assert.Equal(t, 1, sec.details)
	assert.Len(t, a.Characters, 1)
}

func TestRecommendations(t *testing.T) {
	sec := &fakeDetail{
		fakeSource: secondarySource(),
		recs: []domain.Recommendation{
			{Anime: domain.Anime{ID: 5, Title: "Trigun"}, Votes: 10},
			{Anime: domain.Anime{ID: 6, Title: "Outlaw Star"}, Votes: 4},
		},
	}
	s, _ := newTestService(t, primarySource(), sec, domain.Timeouts{})

	got := s.Recommendations(context.Background(), 1, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Trigun", got[0].Title)

	sec.recs = nil
	got = s.Recommendations(context.Background(), 6, 3)
	require.NotEmpty(t, got)
	for _, a := range got {
		assert.NotEqual(t, 6, a.ID)
	}
}

func TestAssemble_StopsAtTarget(t *testing.T) {
	p := primarySource()
	s, _ := newTestService(t, p, secondarySource(), domain.Timeouts{})

	c := s.Assemble(context.Background(), domain.ListQuery{Kind: domain.ListPopular}, 120)
	assert.GreaterOrEqual(t, c.Len(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	assert.Equal(t, 3, p.listCalls())
	assert.Equal(t, 120, c.Len())
	assert.NoError(t, c.Err())
	assert.Equal(t, domain.SourceAniList, c.Source())

	items := c.Snapshot()
	for i, a := range items {
		assert.Equal(t, i+1, a.ID)
	}
}

func TestAssemble_StopsWhenNoNextPage(t *testing.T) {
	p := primarySource()
	p.pages = 2
	s, _ := newTestService(t, p, secondarySource(), domain.Timeouts{})

	c := s.Assemble(context.Background(), domain.ListQuery{Kind: domain.ListPopular}, 500)
	<-c.Done()

	assert.Equal(t, 2, p.listCalls())
	assert.Equal(t, 100, c.Len())
	assert.Equal(t, 2, c.Pages())
}

func TestAssemble_StaysOnFirstSource(t *testing.T) {
	p := primarySource()
	p.fail = errors.New("down")
	sec := secondarySource()
	sec.pages = 3
	s, _ := newTestService(t, p, sec, domain.Timeouts{})

	c := s.Assemble(context.Background(), domain.ListQuery{Kind: domain.ListTrending}, 0)
	<-c.Done()

	assert.Equal(t, domain.SourceJikan, c.Source())
	assert.Equal(t, 1, p.listCalls())
	assert.Equal(t, 3, sec.listCalls())
	assert.Equal(t, 75, c.Len())
}

func TestAssemble_AllDownServesSeed(t *testing.T) {
	p, sec := primarySource(), secondarySource()
	p.fail = errors.New("down")
	sec.fail = errors.New("down")
	s, _ := newTestService(t, p, sec, domain.Timeouts{})

	c := s.Assemble(context.Background(), domain.ListQuery{Kind: domain.ListPopular}, 5)
	<-c.Done()
	assert.Equal(t, domain.SourceSeed, c.Source())
	assert.Equal(t, 5, c.Len())
	assert.ErrorIs(t, c.Err(), errExhausted)
}

func TestAssemble_CancelStops(t *testing.T) {
	p := primarySource()
	s, _ := newTestService(t, p, secondarySource(), domain.Timeouts{})
	s.delays[domain.SourceAniList] = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	c := s.Assemble(ctx, domain.ListQuery{Kind: domain.ListPopular}, 1000)
	cancel()
	<-c.Done()

	assert.ErrorIs(t, c.Err(), context.Canceled)
	assert.Equal(t, 50, c.Len())
}
