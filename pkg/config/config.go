// Package config loads server settings from an optional YAML file overlaid with
// MOODLENS_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // LoadLocation must not depend on the host zoneinfo

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	DBPath          string        `yaml:"db_path"`
	Timezone        string        `yaml:"timezone"`
	LookbackDays    int           `yaml:"lookback_days"`
	RefreshEvery    time.Duration `yaml:"refresh_every"`
	DirtyBufferSize int           `yaml:"dirty_buffer_size"`
	DirtyBufferTTL  time.Duration `yaml:"dirty_buffer_ttl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		DBPath:          "moodlens.db",
		Timezone:        "UTC",
		LookbackDays:    30,
		RefreshEvery:    15 * time.Minute,
		DirtyBufferSize: 256,
		DirtyBufferTTL:  24 * time.Hour,
	}
}

// Load starts from Default, merges the YAML file at path when path is non-empty,
// then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = getenv("MOODLENS_LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = getenv("MOODLENS_DB_PATH", cfg.DBPath)
	cfg.Timezone = getenv("MOODLENS_TIMEZONE", cfg.Timezone)
	cfg.LookbackDays = getenvInt("MOODLENS_LOOKBACK_DAYS", cfg.LookbackDays)
	cfg.RefreshEvery = getenvDuration("MOODLENS_REFRESH_EVERY", cfg.RefreshEvery)
	cfg.DirtyBufferSize = getenvInt("MOODLENS_DIRTY_BUFFER_SIZE", cfg.DirtyBufferSize)
	cfg.DirtyBufferTTL = getenvDuration("MOODLENS_DIRTY_BUFFER_TTL", cfg.DirtyBufferTTL)
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive, got %d", c.LookbackDays)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
