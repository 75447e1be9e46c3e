// Package config loads infopane configuration from TOML files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "INFOPANE_"

// Config errors.
var (
	// ErrInvalidInterval indicates a non-positive duration setting.
	ErrInvalidInterval = errors.New("interval must be positive")
)

// Config holds all infopane settings.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Refresh RefreshConfig `toml:"refresh"`
	Verify  VerifyConfig  `toml:"verify"`
	Lua     LuaConfig     `toml:"lua"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// RefreshConfig configures the synchronization engine.
type RefreshConfig struct {
	// DebounceMs is the quiet period for coalescing server events.
	DebounceMs int `toml:"debounce_ms"`
	// QueryTimeoutMs bounds a single content query.
	QueryTimeoutMs int `toml:"query_timeout_ms"`
}

// VerifyConfig configures the verification oracle's bounded waits.
type VerifyConfig struct {
	// ChangeTimeoutMs bounds the wait for an expected content change.
	ChangeTimeoutMs int `toml:"change_timeout_ms"`
	// StableWindowMs is the observation window for expected stability.
	StableWindowMs int `toml:"stable_window_ms"`
}

// LuaConfig configures the optional formatting hook.
type LuaConfig struct {
	// FormatScript is the path to a script defining format(text).
	FormatScript string `toml:"format_script"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Refresh: RefreshConfig{DebounceMs: 150, QueryTimeoutMs: 5000},
		Verify:  VerifyConfig{ChangeTimeoutMs: 3000, StableWindowMs: 300},
	}
}

// Load reads configuration, layering defaults, the TOML file at path (if
// path is non-empty; the file must exist), and environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks interval settings.
func (c Config) Validate() error {
	checks := map[string]int{
		"refresh.debounce_ms":      c.Refresh.DebounceMs,
		"refresh.query_timeout_ms": c.Refresh.QueryTimeoutMs,
		"verify.change_timeout_ms": c.Verify.ChangeTimeoutMs,
		"verify.stable_window_ms":  c.Verify.StableWindowMs,
	}
	for name, v := range checks {
		if v <= 0 {
			return fmt.Errorf("%s = %d: %w", name, v, ErrInvalidInterval)
		}
	}
	return nil
}

// Debounce returns the refresh debounce interval as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Refresh.DebounceMs) * time.Millisecond
}

// QueryTimeout returns the content query timeout as a duration.
func (c Config) QueryTimeout() time.Duration {
	return time.Duration(c.Refresh.QueryTimeoutMs) * time.Millisecond
}

// ChangeTimeout returns the oracle's content-change wait bound.
func (c Config) ChangeTimeout() time.Duration {
	return time.Duration(c.Verify.ChangeTimeoutMs) * time.Millisecond
}

// StableWindow returns the oracle's stability observation window.
func (c Config) StableWindow() time.Duration {
	return time.Duration(c.Verify.StableWindowMs) * time.Millisecond
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookupInt(EnvPrefix + "DEBOUNCE_MS"); ok {
		cfg.Refresh.DebounceMs = v
	}
	if v, ok := lookupInt(EnvPrefix + "QUERY_TIMEOUT_MS"); ok {
		cfg.Refresh.QueryTimeoutMs = v
	}
	if v, ok := lookupInt(EnvPrefix + "CHANGE_TIMEOUT_MS"); ok {
		cfg.Verify.ChangeTimeoutMs = v
	}
	if v, ok := lookupInt(EnvPrefix + "STABLE_WINDOW_MS"); ok {
		cfg.Verify.StableWindowMs = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "FORMAT_SCRIPT"); ok {
		cfg.Lua.FormatScript = v
	}
}

func lookupInt(key string) (int, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
