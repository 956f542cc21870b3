// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultDataPath is the local knowledge base copy used as fallback and as validator input.
	DefaultDataPath = "data/knowledge_apcs_python.json"
	// DefaultSchemaPath is the JSON Schema the knowledge base is checked against.
	DefaultSchemaPath = "data/schema.json"
	// DefaultFetchTimeout bounds the remote knowledge base request.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultPort is the port the dashboard API listens on.
	DefaultPort = 8080
)

// Environment variables read by FromEnv.
const (
	EnvSourceURL    = "KB_SOURCE_URL"
	EnvDataPath     = "KB_DATA_PATH"
	EnvSchemaPath   = "KB_SCHEMA_PATH"
	EnvFetchTimeout = "KB_FETCH_TIMEOUT"
	EnvPort         = "KB_PORT"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults.
type Config struct {
	SourceURL    string   `json:"source_url,omitempty" validate:"omitempty,url"` // Remote knowledge base URL
	DataPath     string   `json:"data_path,omitempty" validate:"required"`       // Local knowledge base file
	SchemaPath   string   `json:"schema_path,omitempty" validate:"required"`     // JSON Schema file
	FetchTimeout Duration `json:"fetch_timeout,omitempty" validate:"gte=0"`      // e.g. "10s"
	Port         int      `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
}

// Duration is a time.Duration that unmarshals from a Go duration string.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string ("10s") or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds")
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		DataPath:     DefaultDataPath,
		SchemaPath:   DefaultSchemaPath,
		FetchTimeout: Duration(DefaultFetchTimeout),
		Port:         DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv overlays values set in the environment onto a copy of c.
func (c Config) FromEnv() (Config, error) {
	if v := os.Getenv(EnvSourceURL); v != "" {
		c.SourceURL = v
	}
	if v := os.Getenv(EnvDataPath); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv(EnvSchemaPath); v != "" {
		c.SchemaPath = v
	}
	if v := os.Getenv(EnvFetchTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("invalid %s: %w", EnvFetchTimeout, err)
		}
		c.FetchTimeout = Duration(d)
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Port = port
	}
	return c, nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.SourceURL == "" {
		result.SourceURL = defaults.SourceURL
	}
	if result.DataPath == "" {
		result.DataPath = defaults.DataPath
	}
	if result.SchemaPath == "" {
		result.SchemaPath = defaults.SchemaPath
	}
	if result.FetchTimeout == 0 {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// Timeout returns the fetch timeout as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeout)
}

// Resolve loads the optional config file at path, overlays the environment
// and fills defaults. An empty path skips the file.
func Resolve(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	withEnv, err := cfg.FromEnv()
	if err != nil {
		return nil, err
	}

	merged := withEnv.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
