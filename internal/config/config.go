package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fgactx/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "fgactx" // application name used for config directory

// Supported transports for the MCP server.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Environment variables that override file-based configuration. None of
// these affect matching semantics, only deployment wiring.
const (
	EnvDocsDir   = "FGACTX_DOCS_DIR"
	EnvTransport = "FGACTX_TRANSPORT"
	EnvHTTPAddr  = "FGACTX_HTTP_ADDR"
	EnvRulesFile = "FGACTX_RULES_FILE"
)

// Config holds deployment configuration for fgactx.
type Config struct {
	// DocsDir is the directory holding the knowledge documents served by
	// the matcher. Read-only at runtime.
	DocsDir string `yaml:"docs_dir"`
	// RulesFile optionally points at an external rules.yaml that replaces
	// the built-in rule catalog.
	RulesFile string `yaml:"rules_file,omitempty"`
	// Transport selects stdio (local) or http (production) serving.
	Transport string `yaml:"transport"`
	// HTTPAddr is the listen address when Transport is "http".
	HTTPAddr string `yaml:"http_addr"`
	Version  string `yaml:"version"`
	InitTime int64  `yaml:"init_time"` // Unix timestamp of first save
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location, falling back to
// defaults when no config file exists, and applies environment overrides
// in both cases.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath, "exists", exists)

	if !exists {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return &cfg, nil
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if err := ValidateTransport(cfg.Transport); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	return primary, false
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DocsDir:   "docs",
		Transport: TransportStdio,
		HTTPAddr:  ":8080",
		Version:   "1.0",
		InitTime:  0, // set during first save
	}
}

// ValidateTransport checks that a transport name is one we can serve.
func ValidateTransport(transport string) error {
	switch transport {
	case TransportStdio, TransportHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport %q (want %q or %q)", transport, TransportStdio, TransportHTTP)
	}
}

// applyEnvOverrides layers environment variables over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDocsDir); v != "" {
		c.DocsDir = v
	}
	if v := os.Getenv(EnvRulesFile); v != "" {
		c.RulesFile = v
	}
	if v := os.Getenv(EnvTransport); v != "" {
		c.Transport = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		c.HTTPAddr = v
	}
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions (600), same policy as the config dir contents
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
