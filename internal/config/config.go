package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port     string
	LogLevel string

	// Auth
	APIKey string

	// Document storage. An empty StorePath keeps documents in memory.
	StorePath string

	// Optional remote pdfsplice server receiving outputs instead of the
	// local store.
	RemoteURL    string
	RemoteAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Rate limiting
	RatePerSecond float64
	RateBurst     int

	// Job state
	JobTTL time.Duration
}

// fileConfig mirrors the TOML layout of PDFSPLICE_CONFIG.
type fileConfig struct {
	Server struct {
		Port     string `toml:"port"`
		APIKey   string `toml:"api_key"`
		LogLevel string `toml:"log_level"`
	} `toml:"server"`
	Storage struct {
		Path         string `toml:"path"`
		RemoteURL    string `toml:"remote_url"`
		RemoteAPIKey string `toml:"remote_api_key"`
	} `toml:"storage"`
	Jobs struct {
		Workers   int    `toml:"workers"`
		QueueSize int    `toml:"queue_size"`
		TTL       string `toml:"ttl"`
	} `toml:"jobs"`
	Limits struct {
		MaxUploadBytes int64   `toml:"max_upload_bytes"`
		RatePerSecond  float64 `toml:"rate_per_second"`
		RateBurst      int     `toml:"rate_burst"`
	} `toml:"limits"`
}

func defaults() Config {
	return Config{
		Port:           "8090",
		LogLevel:       "info",
		StorePath:      "data/documents",
		WorkerCount:    4,
		MaxQueueSize:   100,
		MaxUploadBytes: 104857600, // 100MB
		RatePerSecond:  10,
		RateBurst:      20,
		JobTTL:         1 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// PDFSPLICE_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("PDFSPLICE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.applyFile(data); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.APIKey = envOr("PDFSPLICE_API_KEY", cfg.APIKey)
	cfg.StorePath = envOr("STORE_PATH", cfg.StorePath)
	cfg.RemoteURL = envOr("REMOTE_STORE_URL", cfg.RemoteURL)
	cfg.RemoteAPIKey = envOr("REMOTE_STORE_API_KEY", cfg.RemoteAPIKey)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.RatePerSecond = envFloat("RATE_PER_SECOND", cfg.RatePerSecond)
	cfg.RateBurst = envInt("RATE_BURST", cfg.RateBurst)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	d := defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = d.RateBurst
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = d.JobTTL
	}

	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return err
	}

	setString(&c.Port, f.Server.Port)
	setString(&c.APIKey, f.Server.APIKey)
	setString(&c.LogLevel, f.Server.LogLevel)
	setString(&c.StorePath, f.Storage.Path)
	setString(&c.RemoteURL, f.Storage.RemoteURL)
	setString(&c.RemoteAPIKey, f.Storage.RemoteAPIKey)
	if f.Jobs.Workers != 0 {
		c.WorkerCount = f.Jobs.Workers
	}
	if f.Jobs.QueueSize != 0 {
		c.MaxQueueSize = f.Jobs.QueueSize
	}
	if f.Jobs.TTL != "" {
		d, err := time.ParseDuration(f.Jobs.TTL)
		if err != nil {
			return fmt.Errorf("jobs.ttl: %w", err)
		}
		c.JobTTL = d
	}
	if f.Limits.MaxUploadBytes != 0 {
		c.MaxUploadBytes = f.Limits.MaxUploadBytes
	}
	if f.Limits.RatePerSecond != 0 {
		c.RatePerSecond = f.Limits.RatePerSecond
	}
	if f.Limits.RateBurst != 0 {
		c.RateBurst = f.Limits.RateBurst
	}
	return nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PDFSPLICE_API_KEY is required")
	}
	if c.RemoteURL != "" && c.RemoteAPIKey == "" {
		return fmt.Errorf("REMOTE_STORE_API_KEY is required when REMOTE_STORE_URL is set")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
