// Package config provides configuration management for the gateway.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	gwerrors "zerodha-roast/internal/errors"
)

// Config holds all gateway configuration. Broker credentials are not part of
// it: they travel with each request.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Kite        KiteConfig        `mapstructure:"kite"`
	Instruments InstrumentsConfig `mapstructure:"instruments"`
	Security    SecurityConfig    `mapstructure:"security"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"` // empty reflects the caller's origin
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
}

// KiteConfig holds upstream API configuration.
type KiteConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DefaultExchange string        `mapstructure:"default_exchange"`
}

// InstrumentsConfig holds instrument catalog configuration.
type InstrumentsConfig struct {
	Strict      bool `mapstructure:"strict"`
	SearchLimit int  `mapstructure:"search_limit"`
	MinQuery    int  `mapstructure:"min_query"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	ReadOnlyMode bool   `mapstructure:"read_only_mode"`
	AuditEnabled bool   `mapstructure:"audit_enabled"`
	AuditDir     string `mapstructure:"audit_dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/zerodha-roast"
	}
	return filepath.Join(home, ".config", "zerodha-roast")
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origin", "")
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("kite.base_url", "https://api.kite.trade")
	v.SetDefault("kite.timeout", "10s")
	v.SetDefault("kite.default_exchange", "NSE")

	v.SetDefault("instruments.strict", false)
	v.SetDefault("instruments.search_limit", 20)
	v.SetDefault("instruments.min_query", 2)

	v.SetDefault("security.read_only_mode", false)
	v.SetDefault("security.audit_enabled", true)
	v.SetDefault("security.audit_dir", filepath.Join(configDir, "audit"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", false)
	v.SetDefault("log.file_path", filepath.Join(configDir, "logs", "gateway.log"))
}

// Default returns the built-in configuration for configDir.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	v := viper.New()
	setDefaults(v, configDir)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and the defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	loadDotEnv(configDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Best effort; a read-only home must not stop the gateway.
		_, _ = WriteTemplate(configDir)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv reads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadDotEnv(configDir string) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ROAST_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("KITE_BASE_URL"); v != "" {
		cfg.Kite.BaseURL = v
	}
	if v := os.Getenv("KITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: KITE_TIMEOUT=%q: %v", gwerrors.ErrConfigInvalid, v, err)
		}
		cfg.Kite.Timeout = d
	}
	if v := os.Getenv("ROAST_READ_ONLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: ROAST_READ_ONLY=%q: %v", gwerrors.ErrConfigInvalid, v, err)
		}
		cfg.Security.ReadOnlyMode = b
	}
	if v := os.Getenv("ROAST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Kite.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: kite.base_url %q is not an http(s) URL", gwerrors.ErrConfigInvalid, c.Kite.BaseURL)
	}
	if c.Kite.Timeout <= 0 {
		return fmt.Errorf("%w: kite.timeout must be positive", gwerrors.ErrConfigInvalid)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", gwerrors.ErrConfigInvalid)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must not be negative", gwerrors.ErrConfigInvalid)
	}
	if c.Instruments.SearchLimit <= 0 {
		return fmt.Errorf("%w: instruments.search_limit must be positive", gwerrors.ErrConfigInvalid)
	}
	if c.Instruments.MinQuery < 1 {
		return fmt.Errorf("%w: instruments.min_query must be at least 1", gwerrors.ErrConfigInvalid)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", gwerrors.ErrConfigInvalid, c.Log.Level)
	}
	return nil
}
