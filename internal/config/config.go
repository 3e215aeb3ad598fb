// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs: the listen port, the two data
// stores, and one API key per upstream provider.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL    string `env:"REDIS_URL,required,notEmpty"`

	GeocodeAPIKey string `env:"GEOCODE_API_KEY,required,notEmpty"`
	WeatherAPIKey string `env:"WEATHER_API_KEY,required,notEmpty"`
	MovieAPIKey   string `env:"THEMOVIEDB_API_KEY,required,notEmpty"`
	YelpAPIKey    string `env:"YELP_API_KEY,required,notEmpty"`
	MeetupAPIKey  string `env:"MEETUP_API_KEY,required,notEmpty"`
	TrailAPIKey   string `env:"TRAIL_API_KEY,required,notEmpty"`

	// WeatherMaxAge is the staleness threshold for stored forecast
	// batches, evaluated at read time.
	WeatherMaxAge time.Duration `env:"WEATHER_MAX_AGE" envDefault:"30m"`

	// HotCacheTTL bounds how long resolved forecasts live in redis. It is
	// clamped to WeatherMaxAge so redis never outlives the store's
	// staleness policy.
	HotCacheTTL time.Duration `env:"HOT_CACHE_TTL" envDefault:"1h"`
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.WeatherMaxAge <= 0 {
		return nil, fmt.Errorf("WEATHER_MAX_AGE must be positive, got %s", cfg.WeatherMaxAge)
	}
	if cfg.HotCacheTTL > cfg.WeatherMaxAge {
		cfg.HotCacheTTL = cfg.WeatherMaxAge
	}

	return &cfg, nil
}
