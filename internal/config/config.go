// Package config manages azpim application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Placeholder values written by `azpim configure` when the operator skips a
// field. IsPlaceholder treats them as unconfigured.
const (
	PlaceholderTenantID       = "YOUR_TENANT_ID"
	PlaceholderSubscriptionID = "YOUR_SUBSCRIPTION_ID"
)

const (
	// DefaultDirectoryRole is the directory role activated by default.
	DefaultDirectoryRole = "Global Administrator"
	// DefaultSubscriptionRole is the subscription RBAC role activated by default.
	DefaultSubscriptionRole = "Owner"
	// DefaultMaxHours caps activation duration when the config does not.
	DefaultMaxHours = 8
)

// DefaultCacheTTL is the default eligibility cache TTL.
const DefaultCacheTTL = 4 * time.Hour

// Config holds the azpim application configuration.
type Config struct {
	TenantID         string `yaml:"tenant_id"`
	SubscriptionID   string `yaml:"subscription_id"`
	ClientID         string `yaml:"client_id,omitempty"`
	DirectoryRole    string `yaml:"directory_role"`
	SubscriptionRole string `yaml:"subscription_role"`
	MaxHours         int    `yaml:"max_hours"`
	CacheTTL         string `yaml:"cache_ttl,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		TenantID:         PlaceholderTenantID,
		SubscriptionID:   PlaceholderSubscriptionID,
		DirectoryRole:    DefaultDirectoryRole,
		SubscriptionRole: DefaultSubscriptionRole,
		MaxHours:         DefaultMaxHours,
	}
}

// IsPlaceholder reports whether a config value is unset or still carries a
// placeholder from a generated config file.
func IsPlaceholder(v string) bool {
	return v == "" || strings.HasPrefix(v, "YOUR_")
}

// TenantConfigured reports whether a real tenant ID is set.
func (c *Config) TenantConfigured() bool {
	return !IsPlaceholder(c.TenantID)
}

// SubscriptionConfigured reports whether a real subscription ID is set.
func (c *Config) SubscriptionConfigured() bool {
	return !IsPlaceholder(c.SubscriptionID)
}

// Load reads a config file from the given path. If the file does not exist,
// it returns the default config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.DirectoryRole == "" {
		cfg.DirectoryRole = DefaultDirectoryRole
	}
	if cfg.SubscriptionRole == "" {
		cfg.SubscriptionRole = DefaultSubscriptionRole
	}
	if cfg.MaxHours <= 0 {
		cfg.MaxHours = DefaultMaxHours
	}

	return cfg, nil
}

// Save writes a config to the given path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// LoadDefaultWithPath resolves the config path via ConfigPath() and loads the config.
// Returns the config, the resolved path, and any error.
func LoadDefaultWithPath() (*Config, string, error) {
	cfgPath, err := ConfigPath()
	if err != nil {
		return nil, "", fmt.Errorf("failed to determine config path: %w", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, cfgPath, nil
}

// ConfigDir returns the default config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".azpim"), nil
}

// ParseCacheTTL returns the configured cache TTL duration.
// Falls back to DefaultCacheTTL if the config value is empty or unparseable.
func ParseCacheTTL(cfg *Config) time.Duration {
	if cfg.CacheTTL == "" {
		return DefaultCacheTTL
	}
	d, err := time.ParseDuration(cfg.CacheTTL)
	if err != nil {
		return DefaultCacheTTL
	}
	return d
}

// ConfigPath returns the config file path, respecting the AZPIM_CONFIG env var.
func ConfigPath() (string, error) {
	if p := os.Getenv("AZPIM_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
