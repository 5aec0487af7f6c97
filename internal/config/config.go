// Package config loads Ludwig's storage-core configuration from defaults,
// an optional YAML file, and environment variables, in that precedence
// order (same layering as the teacher's LoadWithKoanf).
package config

import (
	"fmt"
	"time"
)

// StoreConfig configures the embedded Badger store (§5 Concurrency &
// Resource Model).
type StoreConfig struct {
	// DataDir is the Badger data directory.
	DataDir string `koanf:"data_dir"`
	// SyncWrites forces an fsync on every commit; off by default, matching
	// the teacher's wal.Options.SyncWrites=false for throughput.
	SyncWrites bool `koanf:"sync_writes"`
	// Compression selects Badger's value-log compression codec ("snappy"
	// or "none").
	Compression string `koanf:"compression"`
	// ActiveCommentMaxAge bounds how far a fresh reply can push a thread's
	// effective_active_time forward (§4.5 "necro-proof" Active ranking).
	ActiveCommentMaxAge time.Duration `koanf:"active_comment_max_age"`
	// SessionCleanupEvery is the sampling rate N for opportunistic expired
	// session sweeps (§5 "every Nth session-creating write").
	SessionCleanupEvery uint64 `koanf:"session_cleanup_every"`
}

// FeedConfig configures default page sizes for the ranked feed streamer.
type FeedConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// AuthConfig carries a PBKDF2 iteration count. Validate enforces its lower
// bound; internal/auth does not read it and hashes with its own fixed
// iteration count.
type AuthConfig struct {
	PBKDF2Iterations int `koanf:"pbkdf2_iterations"`
}

// RateLimitConfig configures the per-key admission limiter (internal/ratelimit).
type RateLimitConfig struct {
	Burst      int           `koanf:"burst"`
	Window     time.Duration `koanf:"window"`
	IdleAfter  time.Duration `koanf:"idle_after"`
	SweepEvery time.Duration `koanf:"sweep_every"`
}

// LoggingConfig configures the zerolog-backed logger (internal/logging).
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}

// Config is the top-level configuration root, mirroring the teacher's
// Config aggregate of per-concern sub-configs.
type Config struct {
	Store     StoreConfig     `koanf:"store"`
	Feed      FeedConfig      `koanf:"feed"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// Validate checks required fields and value ranges (same shape as the
// teacher's Config.Validate, scoped to what Ludwig's core needs).
func (c *Config) Validate() error {
	if c.Store.DataDir == "" {
		return fmt.Errorf("config: store.data_dir is required")
	}
	if c.Store.Compression != "snappy" && c.Store.Compression != "none" {
		return fmt.Errorf("config: store.compression must be \"snappy\" or \"none\", got %q", c.Store.Compression)
	}
	if c.Store.SessionCleanupEvery == 0 {
		return fmt.Errorf("config: store.session_cleanup_every must be positive")
	}
	if c.Feed.DefaultPageSize <= 0 || c.Feed.DefaultPageSize > c.Feed.MaxPageSize {
		return fmt.Errorf("config: feed.default_page_size must be in (0, max_page_size]")
	}
	if c.Auth.PBKDF2Iterations < 100_000 {
		return fmt.Errorf("config: auth.pbkdf2_iterations is too low for production use")
	}
	return nil
}
