package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shinkrolist/internal/domain"
)

func TestLocalBackend_BlobLayout(t *testing.T) {
	store := newMemStore()
	l := NewLocalBackend(zerolog.Nop(), store)
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, l.Put(ctx, domain.TrackingEntry{AnimeID: 7, Status: domain.StatusWatching, Progress: 3, AddedAt: at, UpdatedAt: at}))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(store.data[domain.KeyTracking], &raw))
	assert.JSONEq(t, `[7]`, string(raw["watching"]))
	assert.JSONEq(t, `[]`, string(raw["completed"]))
	assert.Contains(t, string(raw["tracking"]), `"7":{"progress":3`)
}

func TestLocalBackend_ReadsLegacyBlob(t *testing.T) {
	store := newMemStore()
	store.data[domain.KeyTracking] = []byte(`{
		"watchlist": [1, 2],
		"completed": [3],
		"tracking": {
			"1": {"progress": 0, "rating": null, "notes": "", "addedDate": "2024-01-01T00:00:00Z"},
			"3": {"progress": 24, "rating": 5, "notes": "great", "addedDate": "2024-01-02T00:00:00Z", "lastUpdated": "2024-02-02T00:00:00Z"}
		}
	}`)
	l := NewLocalBackend(zerolog.Nop(), store)
	ctx := context.Background()

	e, err := l.Get(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, domain.StatusCompleted, e.Status)
	assert.Equal(t, 24, e.Progress)
	assert.Equal(t, 2024, e.UpdatedAt.Year())
	assert.Equal(t, time.February, e.UpdatedAt.Month())

	// id 2 has no detail record
	e, err = l.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, domain.StatusWatchlist, e.Status)
	assert.Zero(t, e.Progress)

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalBackend_CorruptBlobIsEmpty(t *testing.T) {
	store := newMemStore()
	store.data[domain.KeyTracking] = []byte(`{"watching": "seven"}`)
	l := NewLocalBackend(zerolog.Nop(), store)
	ctx := context.Background()

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, l.Put(ctx, domain.TrackingEntry{AnimeID: 7, Status: domain.StatusDropped}))
	e, err := l.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, domain.StatusDropped, e.Status)
}

func TestLocalBackend_DuplicateIDBelongsToFirstBucket(t *testing.T) {
	store := newMemStore()
	store.data[domain.KeyTracking] = []byte(`{"watchlist": [4], "dropped": [4]}`)
	l := NewLocalBackend(zerolog.Nop(), store)
	ctx := context.Background()

	dropped, err := l.List(ctx, domain.StatusDropped)
	require.NoError(t, err)
	assert.Empty(t, dropped)

	require.NoError(t, l.Put(ctx, domain.TrackingEntry{AnimeID: 4, Status: domain.StatusCompleted}))
	for _, b := range []domain.Status{domain.StatusWatchlist, domain.StatusDropped} {
		entries, err := l.List(ctx, b)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}
