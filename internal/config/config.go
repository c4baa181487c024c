package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment
type Config struct {
	Host     string `env:"RPS_HOST"`
	Port     int    `env:"RPS_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	BadgerPath  string `env:"BADGER_PATH" envDefault:"data/profiles"`

	ScoringPolicy string `env:"SCORING_POLICY" envDefault:"rating"`

	GracePeriod      time.Duration `env:"GRACE_PERIOD" envDefault:"10s"`
	FinishedTTL      time.Duration `env:"FINISHED_TTL" envDefault:"5s"`
	CountdownSeconds int           `env:"COUNTDOWN_SECONDS" envDefault:"3"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"30m"`
	RoomMaxAge       time.Duration `env:"ROOM_MAX_AGE" envDefault:"30m"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the current environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	switch c.StorageType {
	case "memory", "badger":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or badger", c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid RPS_PORT %d", c.Port)
	}
	if c.GracePeriod <= 0 || c.FinishedTTL <= 0 || c.SweepInterval <= 0 || c.RoomMaxAge <= 0 {
		return errors.New("durations must be positive")
	}
	if c.CountdownSeconds < 0 {
		return errors.New("COUNTDOWN_SECONDS must not be negative")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
