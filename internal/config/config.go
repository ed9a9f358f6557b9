// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultAddr      = ":8080"
	DefaultDBPath    = "data/todo.db"
	DefaultStaticDir = "web/dist"
	DefaultLogLevel  = "info"
)

// MemoryDBPath selects the in-memory store instead of SQLite. Nothing is
// persisted in that mode.
const MemoryDBPath = "memory:"

// Config holds the runtime settings for the todo service.
type Config struct {
	Addr      string `toml:"addr"`
	DBPath    string `toml:"db_path"`
	StaticDir string `toml:"static_dir"`
	LogLevel  string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:      DefaultAddr,
		DBPath:    DefaultDBPath,
		StaticDir: DefaultStaticDir,
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads a TOML config file and merges it over the defaults. A
// missing file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return cfg, nil
}

// SlogLevel maps the configured level name to a slog level. Unknown
// names fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
