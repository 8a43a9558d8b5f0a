// file: internal/config/config_test.go
// version: 2.0.0
// guid: 4b9e2c17-8f3a-4d60-a5c1-93e7d0b2f856

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitConfigDefaults tests configuration initialization with defaults
func TestInitConfigDefaults(t *testing.T) {
	// Arrange
	viper.Reset()

	// Act
	InitConfig()

	// Assert
	assert.Equal(t, LegacyBackendPebble, AppConfig.LegacyBackend)
	assert.Equal(t, int64(5*1024*1024), AppConfig.LegacyQuotaBytes)
	assert.Equal(t, int64(50*1024*1024), AppConfig.ObjectStoreBudget)
	assert.Equal(t, 10000, AppConfig.ChunkSize)
	assert.Equal(t, 1000, AppConfig.LowStorageThreshold)
	assert.Equal(t, 30*time.Second, AppConfig.UsageCacheTTL)
	assert.Equal(t, 2, AppConfig.Workers)
	assert.Equal(t, filepath.Join(".speed-reader", "speedreader.db"), AppConfig.DatabasePath)
	assert.Equal(t, filepath.Join(".speed-reader", "legacy"), AppConfig.LegacyPath)
	assert.NoError(t, AppConfig.Validate())
}

func TestInitConfigNormalizesBackend(t *testing.T) {
	viper.Reset()
	viper.Set("legacy_backend", "  Redis ")

	InitConfig()

	assert.Equal(t, LegacyBackendRedis, AppConfig.LegacyBackend)
}

func TestValidate(t *testing.T) {
	viper.Reset()
	InitConfig()
	base := AppConfig

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.LegacyBackend = "localstorage" }},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"zero quota", func(c *Config) { c.LegacyQuotaBytes = 0 }},
		{"zero budget", func(c *Config) { c.ObjectStoreBudget = 0 }},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

// TestConfigFileRoundTrip saves the config and loads it back over a fresh default.
func TestConfigFileRoundTrip(t *testing.T) {
	// Arrange
	viper.Reset()
	dir := t.TempDir()
	viper.Set("data_dir", dir)
	InitConfig()
	AppConfig.LegacyBackend = LegacyBackendRedis
	AppConfig.ChunkSize = 2500
	AppConfig.UsageCacheTTL = 2 * time.Minute
	AppConfig.RedisPrefix = "test:"

	// Act
	require.NoError(t, SaveConfigToFile())
	viper.Reset()
	viper.Set("data_dir", dir)
	InitConfig()
	require.NoError(t, LoadConfigFromFile())

	// Assert
	assert.Equal(t, LegacyBackendRedis, AppConfig.LegacyBackend)
	assert.Equal(t, 2500, AppConfig.ChunkSize)
	assert.Equal(t, 2*time.Minute, AppConfig.UsageCacheTTL)
	assert.Equal(t, "test:", AppConfig.RedisPrefix)

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadConfigFromFileMissingIsNotError(t *testing.T) {
	viper.Reset()
	viper.Set("data_dir", t.TempDir())
	InitConfig()

	assert.NoError(t, LoadConfigFromFile())
}

func TestLoadConfigFromFileIgnoresGarbage(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	viper.Set("data_dir", dir)
	InitConfig()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("chunk_size: [oops"), 0o600))

	assert.NoError(t, LoadConfigFromFile())
	assert.Equal(t, 10000, AppConfig.ChunkSize)
}
