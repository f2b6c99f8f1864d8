package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/RSKPixel/wealth/internal/amfi"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL           string
	HTTPPort              string
	AMFINAVURL            string
	AMFIArchivePath       string
	AMFITimeout           time.Duration
	AMFIRetryMax          int
	AMFIRetryBaseDelay    time.Duration
	AMFICacheTTL          time.Duration
	NAVWorkerInterval     time.Duration
	MaxUploadBytes        int64
	AdminAPIKey           string
	CORSOrigins           []string
	AcquisitionLabel      string
	DisposalLabel         string
	SchemeTypesPath       string
	GoogleSheetsID        string
	GoogleCredentialsJSON string
	LogLevel              string
	LogFormat             string
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:           envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AMFINAVURL:            envOrDefault("AMFI_NAV_URL", amfi.DefaultNAVURL),
		AMFIArchivePath:       envOrDefault("AMFI_ARCHIVE_PATH", "data/NAVOpen.txt"),
		AMFITimeout:           envOrDefaultDuration("AMFI_TIMEOUT", 30*time.Second),
		AMFIRetryMax:          envOrDefaultInt("AMFI_RETRY_MAX", 3),
		AMFIRetryBaseDelay:    envOrDefaultDuration("AMFI_RETRY_BASE_DELAY", 2*time.Second),
		AMFICacheTTL:          envOrDefaultDuration("AMFI_CACHE_TTL", 6*time.Hour),
		NAVWorkerInterval:     envOrDefaultDuration("NAV_WORKER_INTERVAL", 24*time.Hour),
		MaxUploadBytes:        envOrDefaultInt64("MAX_UPLOAD_BYTES", 20<<20),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		CORSOrigins:           envOrDefaultList("CORS_ORIGINS", []string{"*"}),
		AcquisitionLabel:      envOrDefault("TXN_LABEL_ACQUISITION", "buy"),
		DisposalLabel:         envOrDefault("TXN_LABEL_DISPOSAL", "sell"),
		SchemeTypesPath:       envOrDefault("SCHEME_TYPES_PATH", ""),
		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		LogLevel:              envOrDefault("LOG_LEVEL", "info"),
		LogFormat:             envOrDefault("LOG_FORMAT", "text"),
	}
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			slog.Warn("invalid count env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			slog.Warn("invalid size env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
