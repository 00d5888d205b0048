package domain

import "time"

// Timeouts are the per-operation budgets used by source arbitration
type Timeouts struct {
	List            time.Duration `mapstructure:"list"`
	Search          time.Duration `mapstructure:"search"`
	DetailPrimary   time.Duration `mapstructure:"detail_primary"`
	DetailSecondary time.Duration `mapstructure:"detail_secondary"`
	Recommendations time.Duration `mapstructure:"recommendations"`
	Enrich          time.Duration `mapstructure:"enrich"`
}

type Config struct {
	DataDir           string        `mapstructure:"data_dir"`
	LogLevel          string        `mapstructure:"log_level"`
	PrimarySource     Source        `mapstructure:"primary_source"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	AniListURL        string        `mapstructure:"anilist_url"`
	JikanURL          string        `mapstructure:"jikan_url"`
	JikanMinInterval  time.Duration `mapstructure:"jikan_min_interval"`
	Timeouts          Timeouts      `mapstructure:"timeouts"`
	CatalogInitial    int           `mapstructure:"catalog_initial"`
	CatalogTarget     int           `mapstructure:"catalog_target"`
	CacheCapacity     int           `mapstructure:"cache_capacity"`
	SeedEnabled       bool          `mapstructure:"seed_enabled"`
	SupabaseURL       string        `mapstructure:"supabase_url"`
	SupabaseAnonKey   string        `mapstructure:"supabase_anon_key"`
	DiscordWebhookURL string        `mapstructure:"discord_webhook_url"`
}
