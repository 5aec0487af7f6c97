package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigPassesValidation(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.DataDir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadCompression(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.Compression = "zstd"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroSessionCleanup(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.SessionCleanupEvery = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsPageSizeOutOfRange(t *testing.T) {
	cfg := defaultConfig()
	cfg.Feed.DefaultPageSize = 200
	cfg.Feed.MaxPageSize = 100
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsLowPBKDF2Iterations(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.PBKDF2Iterations = 1000
	assert.Error(t, cfg.Validate())
}

func TestEnvTransformFuncKnownKeys(t *testing.T) {
	assert.Equal(t, "store.data_dir", envTransformFunc("LUDWIG_STORE_DATA_DIR"))
	assert.Equal(t, "ratelimit.idle_after", envTransformFunc("LUDWIG_RATELIMIT_IDLE_AFTER"))
	assert.Equal(t, "logging.level", envTransformFunc("LUDWIG_LOGGING_LEVEL"))
}

func TestEnvTransformFuncFallsBackOnUnknownKey(t *testing.T) {
	assert.Equal(t, "foo.bar", envTransformFunc("LUDWIG_FOO_BAR"))
}

func TestLoadAppliesDefaultsWithNoFileOrEnv(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, "snappy", cfg.Store.Compression)
	assert.Equal(t, 25, cfg.Feed.DefaultPageSize)
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("LUDWIG_STORE_DATA_DIR", "/tmp/ludwig-test-data")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ludwig-test-data", cfg.Store.DataDir)
}
