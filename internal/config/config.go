// Package config provides configuration management for the discovery
// server.
//
// Config file locations (priority order):
//  1. $COCKPIT_CONFIG
//  2. ./cockpit.yaml
//  3. ~/.config/cockpit/config.yaml
//  4. /etc/cockpit/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{
		Version:  1,
		Server:   ServerConfig{Addr: ":3000"},
		Database: DatabaseConfig{Path: "./cockpit.db"},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./cockpit.db"
	}
	if c.Scan.MinPrefixLen == 0 {
		c.Scan.MinPrefixLen = 22
	}
	if c.Scan.MaxConcurrent == 0 {
		c.Scan.MaxConcurrent = 10
	}
	if c.Scan.RetentionHours == 0 {
		c.Scan.RetentionHours = 24
	}
	if c.Scan.Prober == "" {
		c.Scan.Prober = "ping"
	}
	if c.Scan.ProbeTimeoutMS == 0 {
		c.Scan.ProbeTimeoutMS = 1500
	}
	if c.Scan.ProbeRatePerSecond == 0 {
		c.Scan.ProbeRatePerSecond = 100
	}
	if len(c.Scan.FallbackPorts) == 0 {
		c.Scan.FallbackPorts = []int{22, 23, 443}
	}
	if c.Scan.ConnectTimeoutSec == 0 {
		c.Scan.ConnectTimeoutSec = 5
	}
	if c.Scan.CredentialAttempts == 0 {
		c.Scan.CredentialAttempts = 3
	}
	if c.Scan.SSHPort == 0 {
		c.Scan.SSHPort = 22
	}
	if c.Registration.TimeoutSec == 0 {
		c.Registration.TimeoutSec = 30
	}
	if c.Inventory.Subdir == "" {
		c.Inventory.Subdir = "inventories"
	}
	if len(c.Secrets.MountedPaths) == 0 {
		c.Secrets.MountedPaths = []string{"/secrets", "/run/secrets"}
	}
}

// validate rejects configurations that cannot work
func (c *Config) validate() error {
	if c.Scan.Prober != "ping" && c.Scan.Prober != "nmap" {
		return fmt.Errorf("invalid prober %q (want ping or nmap)", c.Scan.Prober)
	}
	if c.Scan.MinPrefixLen < 8 || c.Scan.MinPrefixLen > 32 {
		return fmt.Errorf("min_prefix_len %d out of range", c.Scan.MinPrefixLen)
	}
	seen := make(map[string]bool)
	for _, tmpl := range c.Templates {
		if tmpl.Name == "" {
			return fmt.Errorf("parse template without a name")
		}
		if seen[tmpl.Name] {
			return fmt.Errorf("duplicate parse template %q", tmpl.Name)
		}
		seen[tmpl.Name] = true
	}
	return nil
}
