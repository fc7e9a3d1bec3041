// Package daemon holds the process-level configuration shared by the CLI
// and the HTTP server.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata" // game.timezone must resolve on hosts without zoneinfo

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment override, e.g. NOCTURNA_API_PORT.
const EnvPrefix = "NOCTURNA"

// ConfigFileName is the config file inside the nocturna home directory.
const ConfigFileName = "config.toml"

// Config is the full nocturna configuration as written in config.toml.
type Config struct {
	API     APIConfig     `toml:"api" envconfig:"API"`
	Storage StorageConfig `toml:"storage" envconfig:"STORAGE"`
	Game    GameConfig    `toml:"game" envconfig:"GAME"`
	Log     LogConfig     `toml:"log" envconfig:"LOG"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host" envconfig:"HOST"`
	Port    int    `toml:"port" envconfig:"PORT"`
	Metrics bool   `toml:"metrics" envconfig:"METRICS"` // expose /metrics
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Dir string `toml:"dir" envconfig:"DIR"`
}

// GameConfig holds engine-facing settings.
type GameConfig struct {
	// Timezone whose calendar decides "today" and "this week" for quests
	// and "this month" for the monthly leaderboard.
	Timezone string `toml:"timezone" envconfig:"TIMEZONE"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level string `toml:"level" envconfig:"LEVEL"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8710,
			Metrics: true,
		},
		Storage: StorageConfig{Dir: Home()},
		Game:    GameConfig{Timezone: "UTC"},
		Log:     LogConfig{Level: "info"},
	}
}

// Home returns the nocturna home directory (~/.nocturna).
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nocturna"
	}
	return filepath.Join(home, ".nocturna")
}

// DefaultPath returns ~/.nocturna/config.toml.
func DefaultPath() string {
	return filepath.Join(Home(), ConfigFileName)
}

// Load reads path over the defaults, then applies NOCTURNA_* environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at startup.
func (c Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Storage.Dir == "" {
		return errors.New("storage.dir is empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Addr returns the host:port the API listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

// Location resolves game.timezone. An empty value means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Game.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Game.Timezone)
	if err != nil {
		return nil, fmt.Errorf("game.timezone: %w", err)
	}
	return loc, nil
}
