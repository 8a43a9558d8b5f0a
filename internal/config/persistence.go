// file: internal/config/persistence.go
// version: 2.0.0
// guid: e29b7f40-6a1d-4c83-95e2-0f4b8d3a17c6

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of config.yaml.
type fileConfig struct {
	DataDir             string `yaml:"data_dir,omitempty"`
	DatabasePath        string `yaml:"database_path,omitempty"`
	LegacyBackend       string `yaml:"legacy_backend,omitempty"`
	LegacyPath          string `yaml:"legacy_path,omitempty"`
	LegacyQuotaBytes    int64  `yaml:"legacy_quota_bytes,omitempty"`
	RedisAddr           string `yaml:"redis_addr,omitempty"`
	RedisPassword       string `yaml:"redis_password,omitempty"`
	RedisDB             int    `yaml:"redis_db,omitempty"`
	RedisPrefix         string `yaml:"redis_prefix,omitempty"`
	ChunkSize           int    `yaml:"chunk_size,omitempty"`
	ObjectStoreBudget   int64  `yaml:"object_store_budget_bytes,omitempty"`
	LowStorageThreshold int    `yaml:"low_storage_chunk_threshold,omitempty"`
	UsageCacheTTL       string `yaml:"usage_cache_ttl,omitempty"`
	Workers             int    `yaml:"workers,omitempty"`
	QueueSize           int    `yaml:"queue_size,omitempty"`
	LogLevel            string `yaml:"log_level,omitempty"`
}

// ConfigFilePath returns the path to the YAML config file inside the data dir.
func ConfigFilePath() string {
	if AppConfig.DataDir != "" {
		return filepath.Join(AppConfig.DataDir, "config.yaml")
	}
	if AppConfig.DatabasePath != "" {
		return filepath.Join(filepath.Dir(AppConfig.DatabasePath), "config.yaml")
	}
	return ""
}

// LoadConfigFromFile overlays non-zero values from the YAML config file onto
// AppConfig. A missing file is not an error.
func LoadConfigFromFile() error {
	path := ConfigFilePath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Printf("[WARN] Failed to parse config file %s: %v", path, err)
		return nil
	}

	applied := 0
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
			applied++
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
			applied++
		}
	}
	setInt64 := func(dst *int64, v int64) {
		if v != 0 {
			*dst = v
			applied++
		}
	}

	setString(&AppConfig.DatabasePath, fc.DatabasePath)
	setString(&AppConfig.LegacyBackend, fc.LegacyBackend)
	setString(&AppConfig.LegacyPath, fc.LegacyPath)
	setInt64(&AppConfig.LegacyQuotaBytes, fc.LegacyQuotaBytes)
	setString(&AppConfig.RedisAddr, fc.RedisAddr)
	setString(&AppConfig.RedisPassword, fc.RedisPassword)
	setInt(&AppConfig.RedisDB, fc.RedisDB)
	setString(&AppConfig.RedisPrefix, fc.RedisPrefix)
	setInt(&AppConfig.ChunkSize, fc.ChunkSize)
	setInt64(&AppConfig.ObjectStoreBudget, fc.ObjectStoreBudget)
	setInt(&AppConfig.LowStorageThreshold, fc.LowStorageThreshold)
	setInt(&AppConfig.Workers, fc.Workers)
	setInt(&AppConfig.QueueSize, fc.QueueSize)
	setString(&AppConfig.LogLevel, fc.LogLevel)

	if fc.UsageCacheTTL != "" {
		ttl, err := time.ParseDuration(fc.UsageCacheTTL)
		if err != nil {
			log.Printf("[WARN] Ignoring usage_cache_ttl %q in %s: %v", fc.UsageCacheTTL, path, err)
		} else {
			AppConfig.UsageCacheTTL = ttl
			applied++
		}
	}

	if applied > 0 {
		log.Printf("[INFO] Applied %d settings from config file %s", applied, path)
	}
	return nil
}

// SaveConfigToFile writes the current AppConfig to the YAML config file.
func SaveConfigToFile() error {
	path := ConfigFilePath()
	if path == "" {
		return fmt.Errorf("cannot determine config file path")
	}

	fc := fileConfig{
		DataDir:             AppConfig.DataDir,
		DatabasePath:        AppConfig.DatabasePath,
		LegacyBackend:       AppConfig.LegacyBackend,
		LegacyPath:          AppConfig.LegacyPath,
		LegacyQuotaBytes:    AppConfig.LegacyQuotaBytes,
		RedisAddr:           AppConfig.RedisAddr,
		RedisPassword:       AppConfig.RedisPassword,
		RedisDB:             AppConfig.RedisDB,
		RedisPrefix:         AppConfig.RedisPrefix,
		ChunkSize:           AppConfig.ChunkSize,
		ObjectStoreBudget:   AppConfig.ObjectStoreBudget,
		LowStorageThreshold: AppConfig.LowStorageThreshold,
		Workers:             AppConfig.Workers,
		QueueSize:           AppConfig.QueueSize,
		LogLevel:            AppConfig.LogLevel,
	}
	if AppConfig.UsageCacheTTL > 0 {
		fc.UsageCacheTTL = AppConfig.UsageCacheTTL.String()
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	// may contain the redis password
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Printf("[INFO] Configuration saved to file: %s", path)
	return nil
}
