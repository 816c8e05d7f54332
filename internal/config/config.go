package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the dashboard binaries.
type Config struct {
	MetricsAPIURL    string        `yaml:"metrics_api_url"`
	PageSize         int           `yaml:"page_size"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	AbortSuperseded  bool          `yaml:"abort_superseded"`
	ExportDir        string        `yaml:"export_dir"`
	Port             string        `yaml:"port"`
	DatabaseURL      string        `yaml:"database_url"`
	SnapshotSQLite   string        `yaml:"snapshot_sqlite_path"`
	RedisURL         string        `yaml:"redis_url"`
	OverviewTTL      time.Duration `yaml:"overview_ttl"`
	LogLevel         string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		PageSize:         10,
		RequestTimeout:   15 * time.Second,
		RetryMaxAttempts: 3,
		AbortSuperseded:  true,
		ExportDir:        "exports",
		Port:             "8080",
		OverviewTTL:      60 * time.Second,
		LogLevel:         "info",
	}
}

// Load reads .env (optional), then the YAML file named by DASHBOARD_CONFIG
// (optional), then environment overrides, and validates the result.
// loadedDotenv reports whether a .env file was found.
func Load() (cfg Config, loadedDotenv bool, err error) {
	loadedDotenv = godotenv.Load() == nil

	cfg = Default()
	if path := strings.TrimSpace(os.Getenv("DASHBOARD_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, loadedDotenv, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, loadedDotenv, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, loadedDotenv, err
	}
	return cfg, loadedDotenv, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.MetricsAPIURL = Get("METRICS_API_URL", c.MetricsAPIURL)
	c.ExportDir = Get("EXPORT_DIR", c.ExportDir)
	c.Port = Get("PORT", c.Port)
	c.DatabaseURL = Get("DATABASE_URL", c.DatabaseURL)
	c.SnapshotSQLite = Get("SNAPSHOT_SQLITE_PATH", c.SnapshotSQLite)
	c.RedisURL = Get("REDIS_URL", c.RedisURL)
	c.LogLevel = Get("LOG_LEVEL", c.LogLevel)

	var err error
	if c.PageSize, err = getInt("PAGE_SIZE", c.PageSize); err != nil {
		return err
	}
	if c.RetryMaxAttempts, err = getInt("RETRY_MAX_ATTEMPTS", c.RetryMaxAttempts); err != nil {
		return err
	}
	if c.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.OverviewTTL, err = getDuration("OVERVIEW_TTL", c.OverviewTTL); err != nil {
		return err
	}
	if v := Get("ABORT_SUPERSEDED", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: ABORT_SUPERSEDED=%q: %w", v, err)
		}
		c.AbortSuperseded = b
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.MetricsAPIURL) == "" {
		errs = append(errs, errors.New("METRICS_API_URL is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.RetryMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return d, nil
}
