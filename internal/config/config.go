package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppName is the application name used for the config directory
const AppName = "outline"

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "OUTLINE_CONFIG"

// Config holds CLI configuration
type Config struct {
	OutputFormat string  `yaml:"output_format,omitempty"` // text, json, ndjson, yaml, table
	Strict       *bool   `yaml:"strict,omitempty"`
	MaxDepth     int     `yaml:"max_depth,omitempty"`
	IndentUnit   float64 `yaml:"indent_unit,omitempty"`
	ListenAddr   string  `yaml:"listen_addr,omitempty"`

	// Roam Research
	GraphName      string `yaml:"graph_name,omitempty"`
	RoamBaseURL    string `yaml:"roam_base_url,omitempty"`
	KeyringBackend string `yaml:"keyring_backend,omitempty"` // auto, keychain, secret-service, file, ...
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns $OUTLINE_CONFIG, or config.yaml in ConfigDir.
func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load loads config from the given path. A missing file is an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	if c.IndentUnit < 0 {
		return fmt.Errorf("indent_unit must not be negative")
	}
	return nil
}

// Save saves config to the given path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Keys lists the settable config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(*Config, string) error{
	"output_format": func(c *Config, v string) error {
		c.OutputFormat = v
		return nil
	},
	"strict": func(c *Config, v string) error {
		if v == "" {
			c.Strict = nil
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("strict: expected true or false")
		}
		c.Strict = &b
		return nil
	},
	"max_depth": func(c *Config, v string) error {
		if v == "" {
			c.MaxDepth = 0
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("max_depth: expected a non-negative integer")
		}
		c.MaxDepth = n
		return nil
	},
	"indent_unit": func(c *Config, v string) error {
		if v == "" {
			c.IndentUnit = 0
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("indent_unit: expected a non-negative number")
		}
		c.IndentUnit = f
		return nil
	},
	"listen_addr": func(c *Config, v string) error {
		c.ListenAddr = v
		return nil
	},
	"graph_name": func(c *Config, v string) error {
		c.GraphName = v
		return nil
	},
	"roam_base_url": func(c *Config, v string) error {
		if v != "" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("roam_base_url: expected an http(s) URL")
		}
		c.RoamBaseURL = v
		return nil
	},
	"keyring_backend": func(c *Config, v string) error {
		c.KeyringBackend = strings.ToLower(v)
		return nil
	},
}

// Set parses value into the named key.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return set(c, value)
}

// Unset clears the named key.
func (c *Config) Unset(key string) error {
	return c.Set(key, "")
}

// Values returns every key with its current value for display.
func (c *Config) Values() map[string]interface{} {
	strict := interface{}(nil)
	if c.Strict != nil {
		strict = *c.Strict
	}
	return map[string]interface{}{
		"output_format":   c.OutputFormat,
		"strict":          strict,
		"max_depth":       c.MaxDepth,
		"indent_unit":     c.IndentUnit,
		"listen_addr":     c.ListenAddr,
		"graph_name":      c.GraphName,
		"roam_base_url":   c.RoamBaseURL,
		"keyring_backend": c.KeyringBackend,
	}
}
