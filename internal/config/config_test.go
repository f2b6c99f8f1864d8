package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RSKPixel/wealth/internal/amfi"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{
		"DATABASE_URL", "HTTP_PORT", "AMFI_NAV_URL", "AMFI_RETRY_MAX", "AMFI_CACHE_TTL",
		"MAX_UPLOAD_BYTES", "CORS_ORIGINS", "TXN_LABEL_ACQUISITION", "TXN_LABEL_DISPOSAL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.AMFINAVURL != amfi.DefaultNAVURL {
		t.Errorf("AMFINAVURL = %q, want default", cfg.AMFINAVURL)
	}
	if cfg.AMFIRetryMax != 3 {
		t.Errorf("AMFIRetryMax = %d, want 3", cfg.AMFIRetryMax)
	}
	if cfg.AMFICacheTTL != 6*time.Hour {
		t.Errorf("AMFICacheTTL = %v, want 6h", cfg.AMFICacheTTL)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("MaxUploadBytes = %d, want 20MiB", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.AcquisitionLabel != "buy" || cfg.DisposalLabel != "sell" {
		t.Errorf("labels = %q/%q, want buy/sell", cfg.AcquisitionLabel, cfg.DisposalLabel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("AMFI_RETRY_MAX", "5")
	t.Setenv("AMFI_RETRY_BASE_DELAY", "5s")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("TXN_LABEL_ACQUISITION", "Purchase")
	t.Setenv("TXN_LABEL_DISPOSAL", "Redemption")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.AMFIRetryMax != 5 {
		t.Errorf("AMFIRetryMax = %d, want 5", cfg.AMFIRetryMax)
	}
	if cfg.AMFIRetryBaseDelay != 5*time.Second {
		t.Errorf("AMFIRetryBaseDelay = %v, want 5s", cfg.AMFIRetryBaseDelay)
	}
	if cfg.MaxUploadBytes != 1<<20 {
		t.Errorf("MaxUploadBytes = %d, want 1MiB", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.CORSOrigins)
	}
	if cfg.AcquisitionLabel != "Purchase" || cfg.DisposalLabel != "Redemption" {
		t.Errorf("labels = %q/%q, want override", cfg.AcquisitionLabel, cfg.DisposalLabel)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("AMFI_RETRY_MAX", "not-a-number")
	t.Setenv("AMFI_RETRY_BASE_DELAY", "invalid-duration")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	cfg := Load()

	if cfg.AMFIRetryMax != 3 {
		t.Errorf("AMFIRetryMax = %d, want default 3 on invalid input", cfg.AMFIRetryMax)
	}
	if cfg.AMFIRetryBaseDelay != 2*time.Second {
		t.Errorf("AMFIRetryBaseDelay = %v, want default 2s on invalid input", cfg.AMFIRetryBaseDelay)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("MaxUploadBytes = %d, want default on invalid input", cfg.MaxUploadBytes)
	}
}

func TestLoadNegativeRetryFallsBackToDefault(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"-1", 3},
		{"-100", 3},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("AMFI_RETRY_MAX", tt.value)
			if got := Load().AMFIRetryMax; got != tt.want {
				t.Errorf("AMFIRetryMax = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := (Config{LogLevel: tt.in}).SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WEALTH_TEST_DOTENV=from-file\nHTTP_PORT=7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WEALTH_TEST_DOTENV", "")
	os.Unsetenv("WEALTH_TEST_DOTENV")
	t.Setenv("HTTP_PORT", "9999")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := os.Getenv("WEALTH_TEST_DOTENV"); got != "from-file" {
		t.Errorf("WEALTH_TEST_DOTENV = %q, want from-file", got)
	}
	if got := os.Getenv("HTTP_PORT"); got != "9999" {
		t.Errorf("HTTP_PORT = %q, want existing value kept", got)
	}
}
