package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in priority order. The first one found wins.
var DefaultConfigPaths = []string{
	"ludwig.yaml",
	"ludwig.yml",
	"/etc/ludwig/ludwig.yaml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "LUDWIG_CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir:             "./data",
			SyncWrites:          false,
			Compression:         "snappy",
			ActiveCommentMaxAge: 2 * 24 * time.Hour,
			SessionCleanupEvery: 256,
		},
		Feed: FeedConfig{
			DefaultPageSize: 25,
			MaxPageSize:     100,
		},
		Auth: AuthConfig{
			PBKDF2Iterations: 600_000,
		},
		RateLimit: RateLimitConfig{
			Burst:      20,
			Window:     time.Minute,
			IdleAfter:  10 * time.Minute,
			SweepEvery: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads Config in the layering the teacher's LoadWithKoanf uses:
// struct defaults, then an optional YAML file, then environment
// variables, each layer overriding the last.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("LUDWIG_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKeyMappings maps an env var's lowercased, LUDWIG_-stripped name to its
// koanf dotted path, the same explicit-table approach the teacher's
// envTransformFunc uses rather than a blind underscore-to-dot rewrite
// (which would mangle multi-word leaf names like data_dir into data.dir).
var envKeyMappings = map[string]string{
	"store_data_dir":              "store.data_dir",
	"store_sync_writes":           "store.sync_writes",
	"store_compression":           "store.compression",
	"store_active_comment_max_age": "store.active_comment_max_age",
	"store_session_cleanup_every": "store.session_cleanup_every",
	"feed_default_page_size":      "feed.default_page_size",
	"feed_max_page_size":          "feed.max_page_size",
	"auth_pbkdf2_iterations":      "auth.pbkdf2_iterations",
	"ratelimit_burst":             "ratelimit.burst",
	"ratelimit_window":            "ratelimit.window",
	"ratelimit_idle_after":        "ratelimit.idle_after",
	"ratelimit_sweep_every":       "ratelimit.sweep_every",
	"logging_level":               "logging.level",
	"logging_format":              "logging.format",
}

// envTransformFunc maps LUDWIG_STORE_DATA_DIR -> store.data_dir via the
// explicit table above, falling back to a single first-underscore split
// for any key the table doesn't know about.
func envTransformFunc(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "LUDWIG_"))
	if mapped, ok := envKeyMappings[key]; ok {
		return mapped
	}
	if idx := strings.Index(key, "_"); idx > 0 {
		return key[:idx] + "." + key[idx+1:]
	}
	return key
}
