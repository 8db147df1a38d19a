package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DocspanAPIKey string

	// Resource fetching
	FetchTimeout      time.Duration
	MaxFetchBytes     int64
	FetchWorkers      int
	FetchCacheEntries int

	// Document cache
	CacheMaxDocs int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		DocspanAPIKey: os.Getenv("DOCSPAN_API_KEY"),

		FetchTimeout:      envDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxFetchBytes:     envInt64("MAX_FETCH_BYTES", 20971520), // 20MB
		FetchWorkers:      envInt("FETCH_WORKERS", 4),
		FetchCacheEntries: envInt("FETCH_CACHE_ENTRIES", 64),

		CacheMaxDocs: envInt("CACHE_MAX_DOCS", 256),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxFetchBytes <= 0 {
		cfg.MaxFetchBytes = 20971520
	}
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = 4
	}
	if cfg.FetchCacheEntries <= 0 {
		cfg.FetchCacheEntries = 64
	}
	if cfg.CacheMaxDocs <= 0 {
		cfg.CacheMaxDocs = 256
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocspanAPIKey == "" {
		return fmt.Errorf("DOCSPAN_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
