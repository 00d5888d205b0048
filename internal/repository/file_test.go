package repository

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shinkrolist/internal/domain"
)

func export() *domain.TrackingExport {
	at := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	return &domain.TrackingExport{
		ExportedAt: at,
		Backend:    "local",
		Entries: []domain.ExportedEntry{
			{
				TrackingEntry: domain.TrackingEntry{AnimeID: 7, Status: domain.StatusCompleted, Progress: 220, Rating: domain.IntPtr(4), AddedAt: at, UpdatedAt: at},
				Title:         "Naruto",
			},
			{
				TrackingEntry: domain.TrackingEntry{AnimeID: 12, Status: domain.StatusWatchLater, Notes: "rewatch with friends", AddedAt: at, UpdatedAt: at},
			},
		},
	}
}

func TestStoreAndGet(t *testing.T) {
	for _, name := range []string{"list.json", "list.yaml", "nested/dir/list.yml"} {
		t.Run(name, func(t *testing.T) {
			repo := NewFileRepository(zerolog.Nop())
			path := filepath.Join(t.TempDir(), name)
			want := export()

			require.NoError(t, repo.Store(context.Background(), path, want))

			got, err := repo.Get(context.Background(), path)
			require.NoError(t, err)
			assert.True(t, want.ExportedAt.Equal(got.ExportedAt))
			assert.Equal(t, "local", got.Backend)
			require.Len(t, got.Entries, 2)

			assert.Equal(t, 7, got.Entries[0].AnimeID)
			assert.Equal(t, "Naruto", got.Entries[0].Title)
			assert.Equal(t, domain.StatusCompleted, got.Entries[0].Status)
			require.NotNil(t, got.Entries[0].Rating)
			assert.Equal(t, 4, *got.Entries[0].Rating)

			assert.Nil(t, got.Entries[1].Rating)
			assert.Equal(t, "rewatch with friends", got.Entries[1].Notes)
			assert.True(t, want.Entries[1].UpdatedAt.Equal(got.Entries[1].UpdatedAt))
		})
	}
}

func TestCodecFollowsExtension(t *testing.T) {
	repo := NewFileRepository(zerolog.Nop())
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "list.json")
	yamlPath := filepath.Join(dir, "list.yaml")
	require.NoError(t, repo.Store(context.Background(), jsonPath, export()))
	require.NoError(t, repo.Store(context.Background(), yamlPath, export()))

	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"animeId": 7`)

	b, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "animeId: 7")
}

func TestGetErrors(t *testing.T) {
	repo := NewFileRepository(zerolog.Nop())
	dir := t.TempDir()

	_, err := repo.Get(context.Background(), filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = repo.Get(context.Background(), dir)
	assert.ErrorContains(t, err, "directory")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = repo.Get(context.Background(), bad)
	assert.ErrorContains(t, err, "unmarshal json")
}

func TestStoreNil(t *testing.T) {
	repo := NewFileRepository(zerolog.Nop())
	assert.Error(t, repo.Store(context.Background(), filepath.Join(t.TempDir(), "x.json"), nil))
}
