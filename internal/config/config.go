package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Stream  StreamConfig  `yaml:"stream"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	Host          string `yaml:"host"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type StreamConfig struct {
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          8080,
			Host:          "0.0.0.0",
			AllowedOrigin: "http://localhost:5173",
		},
		Session: SessionConfig{
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Stream: StreamConfig{
			KeepaliveInterval: 30 * time.Second,
		},
	}
}

// Load reads YAML from path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv applies environment overrides: PORT and ALLOWED_ORIGIN.
func (c *Config) FromEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if origin := strings.TrimSpace(os.Getenv("ALLOWED_ORIGIN")); origin != "" {
		c.Server.AllowedOrigin = origin
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
