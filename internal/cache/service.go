package cache

import (
	"context"
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

const DefaultCapacity = 500

// Service is the bounded record cache. Every write persists the whole cache
// under domain.KeyCache so evicted records leave the device store too.
type Service interface {
	domain.RecordCache
	Remove(ctx context.Context, id int) error
}

type service struct {
	log   zerolog.Logger
	store domain.DeviceStore

	mu      sync.Mutex
	loaded  bool
	records *lru.Cache[int, domain.Anime]
}

func NewService(log zerolog.Logger, store domain.DeviceStore, capacity int) (Service, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := &service{
		log:   log.With().Str("module", "cache").Logger(),
		store: store,
	}

	records, err := lru.NewWithEvict(capacity, s.onEvict)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create record cache")
	}
	s.records = records

	return s, nil
}

func (s *service) onEvict(id int, _ domain.Anime) {
	s.log.Trace().Int("id", id).Msg("evicted")
}

// load restores the persisted cache. It must be called with s.mu held. A
// failed read is retried on the next call; until a restore succeeds the
// persisted blob must not be overwritten. A blob that does not decode is
// treated as an empty cache.
func (s *service) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	blob, err := s.store.Load(ctx, domain.KeyCache)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load record cache")
		return errors.Wrap(err, "failed to load record cache")
	}
	s.loaded = true

	if len(blob) == 0 {
		return nil
	}

	var persisted []domain.Anime
	if err := json.Unmarshal(blob, &persisted); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable record cache")
		return nil
	}

	// persisted oldest first, so replay keeps recency order
	for _, a := range persisted {
		if a.ID != 0 {
			s.records.Add(a.ID, a)
		}
	}

	s.log.Debug().Int("records", s.records.Len()).Msg("record cache restored")
	return nil
}

func (s *service) Put(ctx context.Context, anime domain.Anime) error {
	if anime.ID == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return err
	}

	s.records.Add(anime.ID, anime)
	return s.persist(ctx)
}

// Get reports a miss while the persisted cache cannot be read
func (s *service) Get(ctx context.Context, id int) (domain.Anime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return domain.Anime{}, false
	}
	return s.records.Get(id)
}

func (s *service) Resolve(ctx context.Context, id int) domain.Anime {
	if a, ok := s.Get(ctx, id); ok {
		return a
	}
	return domain.Placeholder(id)
}

func (s *service) Remove(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return err
	}

	if !s.records.Remove(id) {
		return nil
	}
	return s.persist(ctx)
}

// Len restores the persisted cache before counting
func (s *service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(context.Background()); err != nil {
		return 0
	}
	return s.records.Len()
}

func (s *service) persist(ctx context.Context) error {
	keys := s.records.Keys()
	out := make([]domain.Anime, 0, len(keys))
	for _, k := range keys {
		if a, ok := s.records.Peek(k); ok {
			out = append(out, a)
		}
	}

	blob, err := json.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record cache")
	}

	if err := s.store.Save(ctx, domain.KeyCache, blob); err != nil {
		return errors.Wrap(err, "failed to persist record cache")
	}
	return nil
}
