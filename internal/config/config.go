// file: internal/config/config.go
// version: 2.0.0
// guid: 6d4a1e83-2c9b-47f5-8a30-b7e5d1c64f92

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Legacy backend kinds
const (
	LegacyBackendMemory = "memory"
	LegacyBackendPebble = "pebble"
	LegacyBackendRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	DataDir      string
	DatabasePath string // SQLite object store file

	LegacyBackend    string // "pebble" (default), "redis" or "memory"
	LegacyPath       string // PebbleDB directory
	LegacyQuotaBytes int64
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisPrefix      string

	ChunkSize           int
	ObjectStoreBudget   int64
	LowStorageThreshold int
	UsageCacheTTL       time.Duration

	Workers   int
	QueueSize int

	LogLevel      string
	EnableMetrics bool
	ShowProgress  bool
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	viper.SetDefault("data_dir", ".speed-reader")
	viper.SetDefault("database_path", "")
	viper.SetDefault("legacy_backend", LegacyBackendPebble)
	viper.SetDefault("legacy_path", "")
	viper.SetDefault("legacy_quota_bytes", 5*1024*1024)
	viper.SetDefault("redis_addr", "localhost:6379")
	viper.SetDefault("redis_password", "")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("redis_prefix", "speedreader:")
	viper.SetDefault("chunk_size", 10000)
	viper.SetDefault("object_store_budget_bytes", 50*1024*1024)
	viper.SetDefault("low_storage_chunk_threshold", 1000)
	viper.SetDefault("usage_cache_ttl", "30s")
	viper.SetDefault("workers", 2)
	viper.SetDefault("queue_size", 100)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("enable_metrics", true)
	viper.SetDefault("show_progress", true)

	AppConfig = Config{
		DataDir:             viper.GetString("data_dir"),
		DatabasePath:        viper.GetString("database_path"),
		LegacyBackend:       viper.GetString("legacy_backend"),
		LegacyPath:          viper.GetString("legacy_path"),
		LegacyQuotaBytes:    viper.GetInt64("legacy_quota_bytes"),
		RedisAddr:           viper.GetString("redis_addr"),
		RedisPassword:       viper.GetString("redis_password"),
		RedisDB:             viper.GetInt("redis_db"),
		RedisPrefix:         viper.GetString("redis_prefix"),
		ChunkSize:           viper.GetInt("chunk_size"),
		ObjectStoreBudget:   viper.GetInt64("object_store_budget_bytes"),
		LowStorageThreshold: viper.GetInt("low_storage_chunk_threshold"),
		UsageCacheTTL:       viper.GetDuration("usage_cache_ttl"),
		Workers:             viper.GetInt("workers"),
		QueueSize:           viper.GetInt("queue_size"),
		LogLevel:            viper.GetString("log_level"),
		EnableMetrics:       viper.GetBool("enable_metrics"),
		ShowProgress:        viper.GetBool("show_progress"),
	}

	AppConfig.LegacyBackend = strings.ToLower(strings.TrimSpace(AppConfig.LegacyBackend))
	if AppConfig.LegacyBackend == "" {
		AppConfig.LegacyBackend = LegacyBackendPebble
	}
	if AppConfig.DatabasePath == "" {
		AppConfig.DatabasePath = filepath.Join(AppConfig.DataDir, "speedreader.db")
	}
	if AppConfig.LegacyPath == "" {
		AppConfig.LegacyPath = filepath.Join(AppConfig.DataDir, "legacy")
	}
}

// Validate reports the first setting that cannot be used to open the stores.
func (c Config) Validate() error {
	switch c.LegacyBackend {
	case LegacyBackendMemory, LegacyBackendPebble, LegacyBackendRedis:
	default:
		return fmt.Errorf("unknown legacy backend %q", c.LegacyBackend)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.LegacyQuotaBytes <= 0 {
		return fmt.Errorf("legacy_quota_bytes must be positive, got %d", c.LegacyQuotaBytes)
	}
	if c.ObjectStoreBudget <= 0 {
		return fmt.Errorf("object_store_budget_bytes must be positive, got %d", c.ObjectStoreBudget)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is empty")
	}
	return nil
}
