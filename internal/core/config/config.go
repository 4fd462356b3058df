package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides
const (
	EnvInput    = "MYCIMPORT_INPUT"
	EnvDatabase = "MYCIMPORT_DB"
	EnvStrategy = "MYCIMPORT_STRATEGY"
	EnvLogMode  = "MYCIMPORT_LOG"
)

// Config is everything a run needs. It is built once by Load and passed
// down; nothing below the CLI reads globals.
type Config struct {
	Input            string   `toml:"input"`
	Database         string   `toml:"database"`
	Strategy         string   `toml:"strategy"`
	ExcludeIDs       []string `toml:"exclude_ids"`
	NameFilter       string   `toml:"name_filter"`
	Since            string   `toml:"since"` // Natural language or a date
	Shuffle          bool     `toml:"shuffle"`
	Seed             int64    `toml:"seed"`
	MaxItems         int      `toml:"max_items"`
	BatchSize        int      `toml:"batch_size"`
	OuterRadius      float64  `toml:"outer_radius"`
	InnerRadius      float64  `toml:"inner_radius"`
	ContainerContent string   `toml:"container_content"` // Mustache template
	LogMode          string   `toml:"log_mode"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Input:            filepath.Join("data", "conversations.json"),
		Database:         DefaultDatabasePath(),
		Strategy:         "exchanges",
		BatchSize:        50,
		OuterRadius:      300,
		InnerRadius:      80,
		ContainerContent: "{{exchange_count}} exchanges",
		LogMode:          "dev",
	}
}

// DefaultDatabasePath is where the Mycelica desktop app keeps its database
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, ".local", "share", "com.mycelica.app", "mycelica.db")
}

// DefaultConfigPath returns ~/.config/mycimport/config.toml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mycimport", "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path, a .env
// file in the working directory and the process environment, in that order.
// A missing config file is fine when path is the default; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if explicit {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	cfg.Database = expandHome(cfg.Database)
	cfg.Input = expandHome(cfg.Input)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvInput); v != "" {
		c.Input = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvStrategy); v != "" {
		c.Strategy = v
	}
	if v := os.Getenv(EnvLogMode); v != "" {
		c.LogMode = v
	}
}

// Validate checks the numeric settings
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max_items must not be negative, got %d", c.MaxItems)
	}
	if c.OuterRadius <= 0 || c.InnerRadius <= 0 {
		return fmt.Errorf("radii must be positive, got outer=%v inner=%v", c.OuterRadius, c.InnerRadius)
	}
	if c.Database == "" {
		return errors.New("database path is required")
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
