package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/factory"
)

const defaultConfigPath = "opsdash.toml"

// Config is the process configuration read from TOML.
type Config struct {
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`

	// Settings uses the same keys as the JSON settings object.
	Settings map[string]any `toml:"settings"`
}

type ServerConfig struct {
	Port          int    `toml:"port"`
	DB            string `toml:"db"`
	SweepInterval string `toml:"sweep_interval"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: 8080, DB: "opsdash.db", SweepInterval: "15m"},
		Log:    LogConfig{Level: "info"},
	}
}

// loadConfig reads path over the defaults. A missing file is only an
// error when the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// BaselineSettings decodes [settings] leniently over the defaults.
func (c Config) BaselineSettings() (core.Settings, error) {
	if len(c.Settings) == 0 {
		return core.DefaultSettings(), nil
	}
	data, err := json.Marshal(c.Settings)
	if err != nil {
		return core.Settings{}, fmt.Errorf("encode [settings]: %w", err)
	}
	return factory.DecodeSettings(data)
}

func (c Config) sweepInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SweepInterval)
	if err != nil {
		return 0, fmt.Errorf("server.sweep_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.sweep_interval must be positive, got %s", d)
	}
	return d, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
