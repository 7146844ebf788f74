// Package config loads the YAML configuration for the Pente session
// coordinator.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the connection loop and its
// collaborators.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Connection admission control
	MaxConnections      int `yaml:"max_connections"`        // hard cap, default 10
	MaxConnectionsPerIP int `yaml:"max_connections_per_ip"` // default 3

	// Reactor poll interval, in milliseconds. Loaded and defaulted only:
	// the goroutine-per-connection server has no polling wait and does
	// not read this field.
	PollIntervalMillis int `yaml:"poll_interval_millis"` // default 1

	// Idle-session reaper TTL, in minutes. 0 disables the reaper.
	IdleSessionTTLMinutes int `yaml:"idle_session_ttl_minutes"` // default 30
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns a Server config with the documented defaults (§6: port
// 55555, 10-connection cap).
func Default() Server {
	return Server{
		BindAddress:           "0.0.0.0",
		Port:                  55555,
		LogLevel:              "info",
		MaxConnections:        10,
		MaxConnectionsPerIP:   3,
		PollIntervalMillis:    1,
		IdleSessionTTLMinutes: 30,
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "pente",
			Password: "pente",
			DBName:  "pente",
			SSLMode: "disable",
		},
	}
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file omits. A missing file is not an error — it simply
// yields the defaults, matching LoadLoginServer's behavior in the
// reference login server.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %q: %w", path, err)
	}

	return cfg, nil
}
