package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
)

type Config struct {
	Server   ServerConfig
	Wiki     WikiConfig
	Pipeline PipelineConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host  string
	Port  int
	Debug bool
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type WikiConfig struct {
	HistoryURL string
	ArchiveURL string
	Timeout    time.Duration
	UserAgent  string
}

type PipelineConfig struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	LatestVersions int
	ParseWorkers   int
}

type CacheConfig struct {
	FreshnessWindow time.Duration
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	SnapshotKey string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:  getEnv("SERVER_HOST", "0.0.0.0"),
			Port:  getEnvInt("SERVER_PORT", 5000),
			Debug: getEnvBool("SERVER_DEBUG", false),
		},
		Wiki: WikiConfig{
			HistoryURL: getEnv("WIKI_HISTORY_URL", constants.WikiConfig.HistoryURL),
			ArchiveURL: getEnv("WIKI_ARCHIVE_URL", constants.WikiConfig.ArchiveURL),
			Timeout:    getEnvSeconds("WIKI_TIMEOUT_SECONDS", constants.WikiConfig.Timeout),
			UserAgent:  getEnv("WIKI_USER_AGENT", constants.WikiConfig.UserAgent),
		},
		Pipeline: PipelineConfig{
			MaxAttempts:    getEnvInt("PIPELINE_MAX_ATTEMPTS", constants.RetryConfig.MaxAttempts),
			RetryDelay:     getEnvSeconds("PIPELINE_RETRY_DELAY_SECONDS", constants.RetryConfig.Delay),
			LatestVersions: getEnvInt("PIPELINE_LATEST_VERSIONS", constants.AggregateConfig.LatestVersions),
			ParseWorkers:   getEnvInt("PIPELINE_PARSE_WORKERS", constants.AggregateConfig.ParseWorkers),
		},
		Cache: CacheConfig{
			FreshnessWindow: getEnvSeconds("CACHE_FRESHNESS_SECONDS", constants.CacheTTL.GachaResult),
		},
		Redis: RedisConfig{
			Enabled:     getEnvBool("REDIS_ENABLED", false),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnvInt("REDIS_PORT", 6379),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			SnapshotKey: getEnv("REDIS_SNAPSHOT_KEY", constants.RedisConfig.SnapshotKey),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.NewValidationError("SERVER_PORT must be between 1 and 65535", "SERVER_PORT", c.Server.Port)
	}
	if strings.TrimSpace(c.Wiki.HistoryURL) == "" {
		return errors.NewValidationError("WIKI_HISTORY_URL is required", "WIKI_HISTORY_URL", c.Wiki.HistoryURL)
	}
	if strings.TrimSpace(c.Wiki.ArchiveURL) == "" {
		return errors.NewValidationError("WIKI_ARCHIVE_URL is required", "WIKI_ARCHIVE_URL", c.Wiki.ArchiveURL)
	}
	if c.Wiki.Timeout <= 0 {
		return errors.NewValidationError("WIKI_TIMEOUT_SECONDS must be positive", "WIKI_TIMEOUT_SECONDS", c.Wiki.Timeout)
	}
	if c.Pipeline.MaxAttempts < 1 {
		return errors.NewValidationError("PIPELINE_MAX_ATTEMPTS must be at least 1", "PIPELINE_MAX_ATTEMPTS", c.Pipeline.MaxAttempts)
	}
	if c.Pipeline.RetryDelay < 0 {
		return errors.NewValidationError("PIPELINE_RETRY_DELAY_SECONDS must not be negative", "PIPELINE_RETRY_DELAY_SECONDS", c.Pipeline.RetryDelay)
	}
	if c.Pipeline.LatestVersions < 1 {
		return errors.NewValidationError("PIPELINE_LATEST_VERSIONS must be at least 1", "PIPELINE_LATEST_VERSIONS", c.Pipeline.LatestVersions)
	}
	if c.Cache.FreshnessWindow <= 0 {
		return errors.NewValidationError("CACHE_FRESHNESS_SECONDS must be positive", "CACHE_FRESHNESS_SECONDS", c.Cache.FreshnessWindow)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return errors.NewValidationError("REDIS_HOST is required when REDIS_ENABLED is set", "REDIS_HOST", c.Redis.Host)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}
