// Package config loads and saves finapp settings from a TOML file under the
// XDG config directory, with environment overrides applied on top.
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

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Config holds all finapp configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
}

// GeneralConfig holds storage and display preferences.
type GeneralConfig struct {
	Backend   string `toml:"backend"`
	StatePath string `toml:"state_path,omitempty"`
	Currency  string `toml:"currency"`
	LogLevel  string `toml:"log_level,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds settings for `finapp serve`.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	PollIntervalSec int    `toml:"poll_interval_sec"`
	EventsBuffer    int    `toml:"events_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Backend:  BackendFile,
			Currency: "zł",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8788",
			PollIntervalSec: 5,
			EventsBuffer:    200,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finapp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finapp")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the state file.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "finapp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "finapp")
}

// Load reads the config file, returning defaults if it doesn't exist, and
// applies environment overrides. A .env file in the working directory is
// read first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// LoadFile reads only the config file on top of the defaults, without
// environment overrides or validation.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overlays FINAPP_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("FINAPP_BACKEND"); v != "" {
		c.General.Backend = v
	}
	if v := getenv("FINAPP_STATE_PATH"); v != "" {
		c.General.StatePath = v
	}
	if v := getenv("FINAPP_LOG_LEVEL"); v != "" {
		c.General.LogLevel = v
	}
	if v := getenv("FINAPP_THEME"); v != "" {
		c.Appearance.Theme = v
	}
	if v := getenv("FINAPP_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate normalizes the backend name and fills zero server settings.
func (c *Config) Validate() error {
	c.General.Backend = strings.ToLower(strings.TrimSpace(c.General.Backend))
	switch c.General.Backend {
	case "":
		c.General.Backend = BackendFile
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("%w %q (want %s or %s)", ErrUnknownBackend, c.General.Backend, BackendFile, BackendSQLite)
	}

	def := DefaultConfig()
	if c.Server.PollIntervalSec <= 0 {
		c.Server.PollIntervalSec = def.Server.PollIntervalSec
	}
	if c.Server.EventsBuffer <= 0 {
		c.Server.EventsBuffer = def.Server.EventsBuffer
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	return nil
}

// StatePath returns where the record snapshot lives for the configured
// backend.
func (c Config) StatePath() string {
	if c.General.StatePath != "" {
		return c.General.StatePath
	}
	name := "state.json"
	if c.General.Backend == BackendSQLite {
		name = "state.db"
	}
	return filepath.Join(DataDir(), name)
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
