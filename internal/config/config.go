// Package config loads service configuration from a YAML file with
// environment overrides applied by the caller.
//
// Config file locations (priority order):
//  1. $TRACENET_CONFIG
//  2. ./tracenet.yaml
//  3. /etc/tracenet/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	LogLevel    string `yaml:"log_level"`
	DatabaseURL string `yaml:"database_url"`

	Trace TraceConfig `yaml:"trace"`
	Feed  FeedConfig  `yaml:"feed"`
	SNMP  SNMPConfig  `yaml:"snmp"`
	DNS   DNSConfig   `yaml:"dns"`
}

type TraceConfig struct {
	ServiceURL string   `yaml:"service_url"`
	Timeout    Duration `yaml:"timeout"`
}

type FeedConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	QueryTimeout Duration `yaml:"query_timeout"`
}

type SNMPConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Community string   `yaml:"community"`
	Port      uint16   `yaml:"port"`
	Timeout   Duration `yaml:"timeout"`
	Retries   int      `yaml:"retries"`
}

type DNSConfig struct {
	Server  string   `yaml:"server"`
	Timeout Duration `yaml:"timeout"`
}

// Load finds and loads the config file, or returns defaults if none found.
func Load() (*Config, string, error) {
	path := findConfigPath()
	if path == "" {
		return Default(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
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
	return &cfg, path, nil
}

// Default returns sensible defaults for a new installation.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8082"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Trace.Timeout <= 0 {
		c.Trace.Timeout = Duration(5 * time.Second)
	}
	if c.Feed.PollInterval <= 0 {
		c.Feed.PollInterval = Duration(5 * time.Second)
	}
	if c.Feed.QueryTimeout <= 0 {
		c.Feed.QueryTimeout = Duration(3 * time.Second)
	}
	if c.SNMP.Community == "" {
		c.SNMP.Community = "public"
	}
	if c.SNMP.Port == 0 {
		c.SNMP.Port = 161
	}
	if c.SNMP.Timeout <= 0 {
		c.SNMP.Timeout = Duration(900 * time.Millisecond)
	}
	if c.DNS.Timeout <= 0 {
		c.DNS.Timeout = Duration(2 * time.Second)
	}
}

func findConfigPath() string {
	if p := os.Getenv("TRACENET_CONFIG"); p != "" {
		return p
	}
	for _, p := range []string{"./tracenet.yaml", "/etc/tracenet/config.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
