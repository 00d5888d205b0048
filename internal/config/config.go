package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/varoOP/shinkrolist/internal/domain"
)

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("primary_source", string(domain.SourceAniList))
	v.SetDefault("http_timeout", 15*time.Second)
	v.SetDefault("anilist.url", "https://graphql.anilist.co")
	v.SetDefault("jikan.url", "https://api.jikan.moe/v4")
	v.SetDefault("jikan.min_interval", 350*time.Millisecond)
	v.SetDefault("timeouts.list", 10*time.Second)
	v.SetDefault("timeouts.search", 15*time.Second)
	v.SetDefault("timeouts.detail_primary", 12*time.Second)
	v.SetDefault("timeouts.detail_secondary", 10*time.Second)
	v.SetDefault("timeouts.recommendations", 8*time.Second)
	v.SetDefault("timeouts.enrich", 5*time.Second)
	v.SetDefault("catalog.initial", 24)
	v.SetDefault("catalog.target", 120)
	v.SetDefault("cache.capacity", 500)
	v.SetDefault("seed.enabled", true)
}

// Load loads configuration from the global viper instance:
// 1. Config file (config.yaml or .shinkrolist.yaml, optional)
// 2. Environment variables (SHINKROLIST_*)
// 3. Command line flags bound by the CLI
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		DataDir:          v.GetString("data_dir"),
		LogLevel:         v.GetString("log_level"),
		PrimarySource:    domain.Source(v.GetString("primary_source")),
		HTTPTimeout:      v.GetDuration("http_timeout"),
		AniListURL:       v.GetString("anilist.url"),
		JikanURL:         v.GetString("jikan.url"),
		JikanMinInterval: v.GetDuration("jikan.min_interval"),
		Timeouts: domain.Timeouts{
			List:            v.GetDuration("timeouts.list"),
			Search:          v.GetDuration("timeouts.search"),
			DetailPrimary:   v.GetDuration("timeouts.detail_primary"),
			DetailSecondary: v.GetDuration("timeouts.detail_secondary"),
			Recommendations: v.GetDuration("timeouts.recommendations"),
			Enrich:          v.GetDuration("timeouts.enrich"),
		},
		CatalogInitial:    v.GetInt("catalog.initial"),
		CatalogTarget:     v.GetInt("catalog.target"),
		CacheCapacity:     v.GetInt("cache.capacity"),
		SeedEnabled:       v.GetBool("seed.enabled"),
		SupabaseURL:       v.GetString("supabase.url"),
		SupabaseAnonKey:   v.GetString("supabase.anon_key"),
		DiscordWebhookURL: v.GetString("discord_webhook_url"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *domain.Config) error {
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %s", cfg.LogLevel)
	}

	switch cfg.PrimarySource {
	case domain.SourceAniList, domain.SourceJikan:
	default:
		return fmt.Errorf("invalid primary_source: %s (must be 'anilist' or 'jikan')", cfg.PrimarySource)
	}

	if cfg.CacheCapacity <= 0 {
		return fmt.Errorf("cache.capacity must be greater than 0, got %d", cfg.CacheCapacity)
	}
	if cfg.CatalogTarget < 0 || cfg.CatalogInitial < 0 {
		return fmt.Errorf("catalog sizes must not be negative")
	}

	timeouts := map[string]time.Duration{
		"http_timeout":              cfg.HTTPTimeout,
		"jikan.min_interval":        cfg.JikanMinInterval,
		"timeouts.list":             cfg.Timeouts.List,
		"timeouts.search":           cfg.Timeouts.Search,
		"timeouts.detail_primary":   cfg.Timeouts.DetailPrimary,
		"timeouts.detail_secondary": cfg.Timeouts.DetailSecondary,
		"timeouts.recommendations":  cfg.Timeouts.Recommendations,
		"timeouts.enrich":           cfg.Timeouts.Enrich,
	}
	for key, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be greater than 0, got %s", key, d)
		}
	}

	if (cfg.SupabaseURL == "") != (cfg.SupabaseAnonKey == "") {
		return fmt.Errorf("supabase.url and supabase.anon_key must be set together")
	}

	return nil
}
