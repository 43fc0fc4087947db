package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gwerrors "zerodha-roast/internal/errors"
)

func TestLoadWritesTemplateAndUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Kite.BaseURL != "https://api.kite.trade" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Kite.Timeout != 10*time.Second || cfg.Instruments.SearchLimit != 20 || cfg.Instruments.MinQuery != 2 {
		t.Errorf("defaults = %+v", cfg)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("template not written: %v", err)
	}

	// The template itself must load cleanly.
	again, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(template) error = %v", err)
	}
	if again.Server.Addr != cfg.Server.Addr || again.Kite.Timeout != cfg.Kite.Timeout {
		t.Errorf("template config = %+v", again)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[server]
addr = "127.0.0.1:9000"

[kite]
base_url = "http://localhost:9999"
timeout = "3s"

[instruments]
strict = true

[security]
read_only_mode = true
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Kite.Timeout != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Instruments.Strict || !cfg.Security.ReadOnlyMode {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Instruments.SearchLimit != 20 {
		t.Errorf("unset keys should keep defaults, search_limit = %d", cfg.Instruments.SearchLimit)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ROAST_HTTP_ADDR", ":7070")
	t.Setenv("KITE_BASE_URL", "http://sandbox.local")
	t.Setenv("KITE_TIMEOUT", "250ms")
	t.Setenv("ROAST_READ_ONLY", "true")
	t.Setenv("ROAST_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7070" || cfg.Kite.BaseURL != "http://sandbox.local" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Kite.Timeout != 250*time.Millisecond || !cfg.Security.ReadOnlyMode || cfg.Log.Level != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("ROAST_READ_ONLY", "maybe")
	_, err := Load(t.TempDir())
	if !errors.Is(err, gwerrors.ErrConfigInvalid) {
		t.Errorf("Load() error = %v, want ErrConfigInvalid", err)
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ROAST_HTTP_ADDR=:6060\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets process env; make sure it is cleared after the test.
	t.Setenv("ROAST_HTTP_ADDR", "")
	os.Unsetenv("ROAST_HTTP_ADDR")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":6060" {
		t.Errorf("addr = %s, want :6060 from .env", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.Kite.BaseURL = "ftp://x" }},
		{"zero timeout", func(c *Config) { c.Kite.Timeout = 0 }},
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero search limit", func(c *Config) { c.Instruments.SearchLimit = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			if err := cfg.Validate(); err != nil {
				t.Fatalf("default config invalid: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, gwerrors.ErrConfigInvalid) {
				t.Errorf("Validate() = %v, want ErrConfigInvalid", err)
			}
		})
	}
}
