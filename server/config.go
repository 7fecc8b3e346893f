package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML with environment
// overrides for the deployment-specific values.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`
	Assets      struct {
		BaseURL string `yaml:"base_url"`
		Delay   string `yaml:"delay"`
	} `yaml:"assets"`
}

// ListenAddr returns the configured listen address, defaulting to :3000.
func (c *Config) ListenAddr() string {
	if c.Addr == "" {
		return ":3000"
	}
	return c.Addr
}

// AssetDelay returns the stub producer delay, defaulting to 2s.
func (c *Config) AssetDelay() (time.Duration, error) {
	if c.Assets.Delay == "" {
		return 2 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Assets.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid assets.delay: %w", err)
	}
	return d, nil
}

// LoadConfig reads the YAML file at path (skipped when path is empty) and
// applies STORYFLOW_ADDR and DATABASE_URL overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if addr := os.Getenv("STORYFLOW_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	return &cfg, nil
}
