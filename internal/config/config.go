// Package config handles the udicti configuration file (<config dir>/config.toml).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// AppName names the per-user configuration directory.
const AppName = "udicti-cli"

// Environment overrides.
const (
	EnvConfigDir  = "UDICTI_CONFIG_DIR"
	EnvAPIBase    = "UDICTI_API_BASE"
	EnvTelemetry  = "UDICTI_TELEMETRY"
	EnvDoNotTrack = "DO_NOT_TRACK"
)

// DefaultAPIBase is the hosted UDICTI backend.
const DefaultAPIBase = "https://udicti-cli.onrender.com/api"

const (
	defaultAPITimeout       = 10 * time.Second
	defaultTelemetryTimeout = 3 * time.Second
)

// Config holds udicti settings.
type Config struct {
	// APIBase is the directory/telemetry API root, e.g. https://host/api.
	APIBase string `toml:"api_base"`

	// Telemetry enables anonymous usage events.
	Telemetry bool `toml:"telemetry"`

	// APITimeout bounds directory calls ("10s").
	APITimeout string `toml:"api_timeout"`

	// TelemetryTimeout bounds a single event post ("3s").
	TelemetryTimeout string `toml:"telemetry_timeout"`

	// FoldEmail compares registry emails trimmed and case-insensitively.
	FoldEmail bool `toml:"fold_email"`

	// RegistryPath overrides the location of users.json.
	RegistryPath string `toml:"registry_path,omitempty"`
}

// Default returns a config with the built-in defaults.
func Default() *Config {
	return &Config{
		APIBase:          DefaultAPIBase,
		Telemetry:        true,
		APITimeout:       defaultAPITimeout.String(),
		TelemetryTimeout: defaultTelemetryTimeout.String(),
	}
}

// validKeys lists the allowed configuration keys.
var validKeys = map[string]bool{
	"api_base":          true,
	"telemetry":         true,
	"api_timeout":       true,
	"telemetry_timeout": true,
	"fold_email":        true,
	"registry_path":     true,
}

// ValidKeys returns the sorted list of valid configuration keys.
func ValidKeys() []string {
	return []string{"api_base", "api_timeout", "fold_email", "registry_path", "telemetry", "telemetry_timeout"}
}

// Dir returns the per-user configuration directory. UDICTI_CONFIG_DIR wins;
// otherwise it is udicti-cli under the OS config directory.
func Dir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+AppName)
	}
	return filepath.Join(base, AppName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// RegistryFile returns where the developer registry lives for this config.
func (c *Config) RegistryFile() string {
	if c.RegistryPath != "" {
		return c.RegistryPath
	}
	return filepath.Join(Dir(), "users.json")
}

// Load reads the config from the default path and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := LoadFrom(Path())
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFrom reads the config from a specific path. Missing keys keep their
// defaults; a missing file yields Default().
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv(EnvTelemetry); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Telemetry = on
		}
	}
	if v := os.Getenv(EnvDoNotTrack); v != "" && v != "0" {
		c.Telemetry = false
	}
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to a specific path, creating parent directories as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// APITimeoutDuration returns the directory timeout, falling back to 10s.
func (c *Config) APITimeoutDuration() time.Duration {
	return parseDuration(c.APITimeout, defaultAPITimeout)
}

// TelemetryTimeoutDuration returns the telemetry timeout, capped at 3s.
func (c *Config) TelemetryTimeoutDuration() time.Duration {
	d := parseDuration(c.TelemetryTimeout, defaultTelemetryTimeout)
	if d > defaultTelemetryTimeout {
		return defaultTelemetryTimeout
	}
	return d
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Get returns the string value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "api_base":
		return c.APIBase, nil
	case "telemetry":
		return strconv.FormatBool(c.Telemetry), nil
	case "api_timeout":
		return c.APITimeout, nil
	case "telemetry_timeout":
		return c.TelemetryTimeout, nil
	case "fold_email":
		return strconv.FormatBool(c.FoldEmail), nil
	case "registry_path":
		return c.RegistryPath, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a value to a configuration key.
func (c *Config) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "api_base":
		if value != "" && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("api_base must be an http(s) URL, got %q", value)
		}
		c.APIBase = strings.TrimRight(value, "/")
	case "telemetry", "fold_email":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		if key == "telemetry" {
			c.Telemetry = b
		} else {
			c.FoldEmail = b
		}
	case "api_timeout", "telemetry_timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration like 10s, got %q", key, value)
		}
		if key == "api_timeout" {
			c.APITimeout = value
		} else {
			c.TelemetryTimeout = value
		}
	case "registry_path":
		c.RegistryPath = value
	}
	return nil
}
