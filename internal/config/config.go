// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package config loads and validates the daemon configuration. Values are
// layered: struct defaults first, then an optional YAML file, then
// VITRINE_-prefixed environment variables with the highest priority.
package config

import (
	"time"
)

// Config is the complete daemon configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Store       StoreConfig       `koanf:"store"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Shelves     ShelvesConfig     `koanf:"shelves"`
	Fingerprint FingerprintConfig `koanf:"fingerprint"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`

	// CORSAllowedOrigins lists the origins the API accepts. Empty means
	// same-origin only.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimitPerMinute caps requests per client IP. 0 disables limiting.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute" validate:"min=0"`
}

// StoreConfig configures the persisted state store.
type StoreConfig struct {
	// Backend selects the store implementation.
	Backend string `koanf:"backend" validate:"oneof=badger memory"`

	// Path is the BadgerDB directory. Required for the badger backend.
	Path string `koanf:"path"`
}

// CatalogConfig configures the catalog client and its resilience wrapper.
type CatalogConfig struct {
	// SnapshotPath points at a local library snapshot file. The daemon
	// runs standalone against it.
	SnapshotPath string `koanf:"snapshot_path" validate:"required"`

	RatePerSecond           float64       `koanf:"rate_per_second" validate:"gt=0"`
	RateBurst               int           `koanf:"rate_burst" validate:"min=1"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold" validate:"min=1"`
	BreakerInterval         time.Duration `koanf:"breaker_interval" validate:"min=1s"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout" validate:"min=1s"`
}

// ShelvesConfig configures shelf sizing, probe bounds, and the refresh loop.
type ShelvesConfig struct {
	TopPicksSize        int `koanf:"top_picks_size" validate:"min=1"`
	GenreShelfSize      int `koanf:"genre_shelf_size" validate:"min=1"`
	MinGenreItems       int `koanf:"min_genre_items" validate:"min=1"`
	GenreProbeLimit     int `koanf:"genre_probe_limit" validate:"min=1,max=50"`
	SimilarShelfSize    int `koanf:"similar_shelf_size" validate:"min=1"`
	ShowcaseTileCount   int `koanf:"showcase_tile_count" validate:"min=1"`
	RecentlyPlayedLimit int `koanf:"recently_played_limit" validate:"min=1"`
	CandidatePoolSize   int `koanf:"candidate_pool_size" validate:"min=1"`

	// PlaylistWindow is the lookahead window of playlist ids ranked by
	// change recency.
	PlaylistWindow []string `koanf:"playlist_window"`

	// Timezone resolves the calendar day for daily selections. An IANA
	// zone name; empty means the process-local zone.
	Timezone string `koanf:"timezone"`

	// RefreshInterval is how often the refresh service checks for a day
	// rollover and re-warms the shelves.
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"min=10s"`
}

// FingerprintConfig configures collection change detection.
type FingerprintConfig struct {
	// SampleSize bounds the member sample entering a signature.
	SampleSize int `koanf:"sample_size" validate:"min=1"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the defaults applied before file and env layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8264,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			CORSAllowedOrigins: nil,
			RateLimitPerMinute: 300,
		},
		Store: StoreConfig{
			Backend: "badger",
			Path:    "/data/vitrine",
		},
		Catalog: CatalogConfig{
			SnapshotPath:            "/data/library.json",
			RatePerSecond:           25,
			RateBurst:               50,
			BreakerFailureThreshold: 5,
			BreakerInterval:         30 * time.Second,
			BreakerTimeout:          10 * time.Second,
		},
		Shelves: ShelvesConfig{
			TopPicksSize:        10,
			GenreShelfSize:      10,
			MinGenreItems:       5,
			GenreProbeLimit:     50,
			SimilarShelfSize:    12,
			ShowcaseTileCount:   8,
			RecentlyPlayedLimit: 20,
			CandidatePoolSize:   200,
			PlaylistWindow:      nil,
			Timezone:            "",
			RefreshInterval:     5 * time.Minute,
		},
		Fingerprint: FingerprintConfig{
			SampleSize: 25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
