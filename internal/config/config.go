package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Documentation output directory holding navtreedata.js
	DocsDir string

	// Auth for mutating routes
	APIKey string

	// Loading
	StrictRefs bool
	IndexChunk int

	// Link check
	CheckWorkers int

	// Pathstore publishing
	PathstoreURL         string
	PathstoreAPIKey      string
	PathstorePrefix      string
	MaxConcurrentPublish int

	ShutdownTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocsDir: envOr("DOCNAV_DOCS_DIR", "."),

		APIKey: os.Getenv("DOCNAV_API_KEY"),

		StrictRefs: envBool("DOCNAV_STRICT_REFS", false),
		IndexChunk: envInt("DOCNAV_INDEX_CHUNK", 250),

		CheckWorkers: envInt("DOCNAV_CHECK_WORKERS", 8),

		PathstoreURL:         os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey:      os.Getenv("PATHSTORE_API_KEY"),
		PathstorePrefix:      envOr("PATHSTORE_PREFIX", "docnav"),
		MaxConcurrentPublish: envInt("MAX_CONCURRENT_PUBLISH", 8),

		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if cfg.IndexChunk <= 0 {
		cfg.IndexChunk = 250
	}
	if cfg.CheckWorkers <= 0 {
		cfg.CheckWorkers = 8
	}
	if cfg.MaxConcurrentPublish <= 0 {
		cfg.MaxConcurrentPublish = 8
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	return cfg
}

// Validate checks the settings the server needs. Publishing settings are
// only required when PATHSTORE_URL points somewhere.
func (c Config) Validate() error {
	if c.DocsDir == "" {
		return fmt.Errorf("DOCNAV_DOCS_DIR is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCNAV_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
