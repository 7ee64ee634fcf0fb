package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	TileCacheDir  string        `mapstructure:"TILE_CACHE_DIR"`
	TileRPS       float64       `mapstructure:"TILE_RPS"`
	TileBurst     int           `mapstructure:"TILE_BURST"`
	TileTimeout   time.Duration `mapstructure:"TILE_TIMEOUT"`
	TileUserAgent string        `mapstructure:"TILE_USER_AGENT"`
	MapStyle      string        `mapstructure:"MAP_STYLE"`
	MapBrightness float64       `mapstructure:"MAP_BRIGHTNESS"`
	MapContrast   float64       `mapstructure:"MAP_CONTRAST"`

	MaxUploadBytes     int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	RateLimitPerMinute int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
}

// Load reads configuration from the environment over built-in defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("TILE_CACHE_DIR", "tiles")
	v.SetDefault("TILE_RPS", 20.0)
	v.SetDefault("TILE_BURST", 8)
	v.SetDefault("TILE_TIMEOUT", 10*time.Second)
	v.SetDefault("TILE_USER_AGENT", "GpxPosterGo/0.1 (+https://openstreetmap.org)")
	v.SetDefault("MAP_STYLE", "")
	v.SetDefault("MAP_BRIGHTNESS", 0.0)
	v.SetDefault("MAP_CONTRAST", 1.0)
	v.SetDefault("MAX_UPLOAD_BYTES", 10*1024*1024)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("SESSION_TTL", 2*time.Hour)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	if cfg.TileRPS <= 0 {
		return Config{}, fmt.Errorf("TILE_RPS must be positive, got %v", cfg.TileRPS)
	}
	if cfg.TileBurst < 1 {
		return Config{}, fmt.Errorf("TILE_BURST must be at least 1, got %d", cfg.TileBurst)
	}
	return cfg, nil
}
