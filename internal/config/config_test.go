package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shinkrolist/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, domain.SourceAniList, cfg.PrimarySource)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 500, cfg.CacheCapacity)
	assert.Equal(t, 120, cfg.CatalogTarget)
	assert.True(t, cfg.SeedEnabled)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.List)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Search)
	assert.Equal(t, 12*time.Second, cfg.Timeouts.DetailPrimary)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.DetailSecondary)
	assert.Equal(t, 8*time.Second, cfg.Timeouts.Recommendations)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Enrich)
	assert.Empty(t, cfg.SupabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("primary_source", "jikan")
	v.Set("timeouts.list", "3s")
	v.Set("cache.capacity", 50)
	v.Set("seed.enabled", false)
	v.Set("supabase.url", "https://example.supabase.co")
	v.Set("supabase.anon_key", "anon")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceJikan, cfg.PrimarySource)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.List)
	assert.Equal(t, 50, cfg.CacheCapacity)
	assert.False(t, cfg.SeedEnabled)
	assert.Equal(t, "anon", cfg.SupabaseAnonKey)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"log level", "log_level", "loud", "log_level"},
		{"primary source", "primary_source", "kitsu", "primary_source"},
		{"cache capacity", "cache.capacity", 0, "cache.capacity"},
		{"timeout", "timeouts.search", "-1s", "timeouts.search"},
		{"half supabase", "supabase.url", "https://example.supabase.co", "supabase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := LoadFrom(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
