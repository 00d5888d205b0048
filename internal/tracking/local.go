package tracking

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

const detailKey = "tracking"

type detail struct {
	Progress    int        `json:"progress"`
	Rating      *int       `json:"rating"`
	Notes       string     `json:"notes"`
	AddedDate   time.Time  `json:"addedDate"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// state mirrors the animeTracking blob: one id array per bucket at the top
// level plus a detail map keyed by id
type state struct {
	buckets map[domain.Status][]int
	details map[int]detail
}

func newState() *state {
	return &state{
		buckets: map[domain.Status][]int{},
		details: map[int]detail{},
	}
}

func decodeState(blob []byte) (*state, error) {
	st := newState()
	if len(blob) == 0 {
		return st, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, err
	}

	for _, b := range domain.Buckets {
		msg, ok := raw[string(b)]
		if !ok {
			continue
		}
		var ids []int
		if err := json.Unmarshal(msg, &ids); err != nil {
			return nil, errors.Wrapf(err, "bucket %s", b)
		}
		st.buckets[b] = ids
	}

	if msg, ok := raw[detailKey]; ok {
		var details map[string]detail
		if err := json.Unmarshal(msg, &details); err != nil {
			return nil, errors.Wrap(err, "tracking details")
		}
		for k, d := range details {
			id, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			st.details[id] = d
		}
	}

	return st, nil
}

func (st *state) encode() ([]byte, error) {
	out := make(map[string]any, len(domain.Buckets)+1)
	for _, b := range domain.Buckets {
		ids := st.buckets[b]
		if ids == nil {
			ids = []int{}
		}
		out[string(b)] = ids
	}

	details := make(map[string]detail, len(st.details))
	for id, d := range st.details {
		details[strconv.Itoa(id)] = d
	}
	out[detailKey] = details

	return json.Marshal(out)
}

func (st *state) bucketOf(id int) (domain.Status, bool) {
	for _, b := range domain.Buckets {
		for _, v := range st.buckets[b] {
			if v == id {
				return b, true
			}
		}
	}
	return domain.StatusUnlisted, false
}

func (st *state) unlink(id int) {
	for b, ids := range st.buckets {
		kept := ids[:0]
		for _, v := range ids {
			if v != id {
				kept = append(kept, v)
			}
		}
		st.buckets[b] = kept
	}
}

func (st *state) entry(id int, status domain.Status) domain.TrackingEntry {
	d := st.details[id]
	e := domain.TrackingEntry{
		AnimeID:   id,
		Status:    status,
		Progress:  d.Progress,
		Rating:    d.Rating,
		Notes:     d.Notes,
		AddedAt:   d.AddedDate,
		UpdatedAt: d.AddedDate,
	}
	if d.LastUpdated != nil {
		e.UpdatedAt = *d.LastUpdated
	}
	return e
}

// LocalBackend keeps tracking entries in the device store under
// domain.KeyTracking
type LocalBackend struct {
	log   zerolog.Logger
	store domain.DeviceStore
	mu    sync.Mutex
}

func NewLocalBackend(log zerolog.Logger, store domain.DeviceStore) *LocalBackend {
	return &LocalBackend{
		log:   log.With().Str("module", "tracking-local").Logger(),
		store: store,
	}
}

// load reads the blob. Unreadable state is logged and treated as empty so
// the next write replaces it.
func (l *LocalBackend) load(ctx context.Context) (*state, error) {
	blob, err := l.store.Load(ctx, domain.KeyTracking)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tracking state")
	}

	st, err := decodeState(blob)
	if err != nil {
		l.log.Warn().Err(err).Msg("discarding unreadable tracking state")
		return newState(), nil
	}
	return st, nil
}

func (l *LocalBackend) save(ctx context.Context, st *state) error {
	blob, err := st.encode()
	if err != nil {
		return errors.Wrap(err, "failed to marshal tracking state")
	}
	return errors.Wrap(l.store.Save(ctx, domain.KeyTracking, blob), "failed to save tracking state")
}

func (l *LocalBackend) Get(ctx context.Context, animeID int) (*domain.TrackingEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	b, ok := st.bucketOf(animeID)
	if !ok {
		return nil, nil
	}
	e := st.entry(animeID, b)
	return &e, nil
}

func (l *LocalBackend) List(ctx context.Context, status domain.Status) ([]domain.TrackingEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	out := []domain.TrackingEntry{}
	seen := map[int]bool{}
	for _, id := range st.buckets[status] {
		if seen[id] {
			continue
		}
		seen[id] = true
		// an id duplicated across buckets belongs to the first one
		if b, _ := st.bucketOf(id); b != status {
			continue
		}
		out = append(out, st.entry(id, status))
	}
	newestFirst(out)
	return out, nil
}

func (l *LocalBackend) All(ctx context.Context) ([]domain.TrackingEntry, error) {
	var out []domain.TrackingEntry
	for _, b := range domain.Buckets {
		entries, err := l.List(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	newestFirst(out)
	return out, nil
}

// Put moves the id into exactly one bucket and stores its details
func (l *LocalBackend) Put(ctx context.Context, entry domain.TrackingEntry) error {
	if !entry.Status.IsBucket() {
		return errors.Wrapf(domain.ErrInvalidStatus, "%q", entry.Status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return err
	}

	st.unlink(entry.AnimeID)
	st.buckets[entry.Status] = append(st.buckets[entry.Status], entry.AnimeID)

	updated := entry.UpdatedAt
	st.details[entry.AnimeID] = detail{
		Progress:    entry.Progress,
		Rating:      entry.Rating,
		Notes:       entry.Notes,
		AddedDate:   entry.AddedAt,
		LastUpdated: &updated,
	}

	return l.save(ctx, st)
}

func (l *LocalBackend) Delete(ctx context.Context, animeID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return err
	}

	st.unlink(animeID)
	delete(st.details, animeID)
	return l.save(ctx, st)
}

func newestFirst(entries []domain.TrackingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
}
