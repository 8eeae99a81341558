package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidOption is wrapped by every validation failure so callers can
// distinguish bad user input from I/O problems.
var ErrInvalidOption = errors.New("invalid option")

// ValidRegions are the Insight platform regions an account can live in.
var ValidRegions = []string{"us", "eu", "ca", "ap", "au"}

// ValidOutputs are the accepted output formats.
var ValidOutputs = []string{"simple", "table", "json"}

// Config is the persisted local configuration. One writer at a time,
// last write wins.
type Config struct {
	Region         string `yaml:"region"`
	DefaultOutput  string `yaml:"default_output"`
	MaxResultPages int    `yaml:"max_result_pages"`
	QueryTimeout   int    `yaml:"query_timeout"`
	CacheEnabled   bool   `yaml:"cache_enabled"`
	CacheTTL       int    `yaml:"cache_ttl"`
	Verbose        bool   `yaml:"verbose"`
	MaxChars       int    `yaml:"max_chars"`

	SmartColumnsEnabled bool `yaml:"smart_columns_enabled"`
	SmartColumnsMax     int  `yaml:"smart_columns_max"`

	OrganizationID string `yaml:"organization_id,omitempty"`
	GeminiAPIKey   string `yaml:"gemini_api_key,omitempty"`

	VMConsoleURL   string `yaml:"vm_console_url,omitempty"`
	VMUsername     string `yaml:"vm_username,omitempty"`
	VMVerifySSL    bool   `yaml:"vm_verify_ssl"`
	VMTenantPrefix string `yaml:"vm_tenant_prefix,omitempty"`

	// Keychain fallback storage. Only populated on platforms without a
	// usable secret store.
	APIKey       string `yaml:"api_key,omitempty"`
	APIKeySource string `yaml:"api_key_source,omitempty"`

	path string
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Region:              "au",
		DefaultOutput:       "table",
		MaxResultPages:      3,
		QueryTimeout:        300,
		CacheEnabled:        true,
		CacheTTL:            3600,
		MaxChars:            500,
		SmartColumnsEnabled: true,
		SmartColumnsMax:     4,
		VMVerifySSL:         true,
	}
}

// Path returns the config file location, creating the directory if needed.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".r7")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file, merging it over defaults. A missing or empty
// file yields defaults; a corrupt file is an error rather than a silent reset.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config back to where it was loaded from.
// 0600: the fallback api_key may live in here.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return err
		}
		c.path = path
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Map renders the config as a plain map keyed by the on-disk field
// names, for display.
func (c *Config) Map() (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset restores defaults, keeping the load path.
func (c *Config) Reset() {
	path := c.path
	*c = *Default()
	c.path = path
}

// Validate checks enum and range constraints.
func (c *Config) Validate() error {
	if !contains(ValidRegions, c.Region) {
		return fmt.Errorf("%w: region %q, must be one of %v", ErrInvalidOption, c.Region, ValidRegions)
	}
	if !contains(ValidOutputs, c.DefaultOutput) {
		return fmt.Errorf("%w: default_output %q, must be one of %v", ErrInvalidOption, c.DefaultOutput, ValidOutputs)
	}
	if c.MaxResultPages < 1 {
		return fmt.Errorf("%w: max_result_pages must be a positive integer", ErrInvalidOption)
	}
	if c.QueryTimeout < 30 {
		return fmt.Errorf("%w: query_timeout must be at least 30 seconds", ErrInvalidOption)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl must be a non-negative integer", ErrInvalidOption)
	}
	if c.MaxChars < 0 {
		return fmt.Errorf("%w: max_chars must be a non-negative integer", ErrInvalidOption)
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
