package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// EnvMaxFileBytes is the environment variable name for the file size limit.
	EnvMaxFileBytes = "CVTEXT_MAX_FILE_BYTES"
	// EnvAuditWorkers bounds how many documents an audit extracts at once.
	EnvAuditWorkers = "CVTEXT_AUDIT_WORKERS"
	// EnvHTTPTimeout limits fetching a document from an http(s) URI.
	EnvHTTPTimeout = "CVTEXT_HTTP_TIMEOUT"
	// EnvLogLevel is one of debug, info, warn, error.
	EnvLogLevel = "CVTEXT_LOG_LEVEL"

	// Tuning overrides for the glyph reconstruction and the classifier.
	EnvLineTolerance    = "CVTEXT_LINE_TOLERANCE"
	EnvSmallGap         = "CVTEXT_SMALL_GAP"
	EnvLargeGap         = "CVTEXT_LARGE_GAP"
	EnvDefaultThreshold = "CVTEXT_DEFAULT_THRESHOLD"
	EnvMatchFraction    = "CVTEXT_MATCH_FRACTION"

	// DefaultMaxFileBytes is the default maximum accepted file size (50 MiB).
	DefaultMaxFileBytes int64 = 50 << 20
	// DefaultAuditWorkers is the default audit fan-out.
	DefaultAuditWorkers = 4
	// DefaultHTTPTimeout is the default remote fetch timeout.
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds runtime configuration sourced from environment variables.
type Config struct {
	MaxFileSizeBytes int64
	AuditWorkers     int
	HTTPTimeout      time.Duration
	LogLevel         slog.Level

	// Overrides is keyed by the Env* tuning names above and only contains
	// variables that were set to a valid positive number.
	Overrides map[string]float64
}

// MaxFileSizeMB returns the configured limit in whole megabytes.
func (c *Config) MaxFileSizeMB() int64 {
	return c.MaxFileSizeBytes >> 20
}

// Override returns the tuning override for key, or def when none is set.
func (c *Config) Override(key string, def float64) float64 {
	if v, ok := c.Overrides[key]; ok {
		return v
	}
	return def
}

// Load reads Config from environment variables, falling back to defaults for
// missing or invalid values. A .env file in the working directory is loaded
// first when present; variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		MaxFileSizeBytes: DefaultMaxFileBytes,
		AuditWorkers:     DefaultAuditWorkers,
		HTTPTimeout:      DefaultHTTPTimeout,
		LogLevel:         slog.LevelInfo,
		Overrides:        map[string]float64{},
	}
	if v := os.Getenv(EnvMaxFileBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxFileSizeBytes = n
		}
	}
	if v := os.Getenv(EnvAuditWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuditWorkers = n
		}
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(v))); err == nil {
			cfg.LogLevel = lvl
		}
	}
	for _, key := range []string{
		EnvLineTolerance, EnvSmallGap, EnvLargeGap, EnvDefaultThreshold, EnvMatchFraction,
	} {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				cfg.Overrides[key] = f
			}
		}
	}
	return cfg
}
