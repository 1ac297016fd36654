// Package config handles configuration file loading and the per-user
// directories radioss writes to.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const appDirName = "radioss"

// Default configuration values.
const (
	DefaultIPCTimeout      = "5s"
	DefaultMaxTags         = 3
	DefaultTagSeparator    = " • "
	DefaultAPIBaseURL      = "https://de1.api.radio-browser.info/json"
	DefaultUserAgent       = "Radioss/1.0"
	DefaultStationLimit    = 100
	DefaultVolume          = 50
	DefaultMPDAddress      = "localhost:6600"
	DefaultMPDNetwork      = "tcp"
	DefaultMPDPollInterval = "2s"
)

// Config represents the radioss configuration.
type Config struct {
	LogLevel string         `toml:"log_level"`
	Presence PresenceConfig `toml:"presence"`
	Radio    RadioConfig    `toml:"radio"`
	Player   PlayerConfig   `toml:"player"`
	MPD      MPDConfig      `toml:"mpd"`
}

// PresenceConfig controls Discord Rich Presence.
type PresenceConfig struct {
	Enabled      bool   `toml:"enabled"`
	IPCTimeout   string `toml:"ipc_timeout"`
	MaxTags      int    `toml:"max_tags"`      // Tags shown on the state line
	TagSeparator string `toml:"tag_separator"`
}

// RadioConfig holds station directory settings.
type RadioConfig struct {
	APIBaseURL     string `toml:"api_base_url"`
	UserAgent      string `toml:"user_agent"`
	DefaultCountry string `toml:"default_country"` // Empty = top voted stations
	Limit          int    `toml:"limit"`
}

// PlayerConfig holds playback settings.
type PlayerConfig struct {
	Volume int `toml:"volume"` // 0-100
}

// MPDConfig configures the MPD presence bridge.
type MPDConfig struct {
	Address      string `toml:"address"`
	Network      string `toml:"network"` // tcp or unix
	Password     string `toml:"password"`
	PollInterval string `toml:"poll_interval"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Presence: PresenceConfig{
			Enabled:      true,
			IPCTimeout:   DefaultIPCTimeout,
			MaxTags:      DefaultMaxTags,
			TagSeparator: DefaultTagSeparator,
		},
		Radio: RadioConfig{
			APIBaseURL: DefaultAPIBaseURL,
			UserAgent:  DefaultUserAgent,
			Limit:      DefaultStationLimit,
		},
		Player: PlayerConfig{
			Volume: DefaultVolume,
		},
		MPD: MPDConfig{
			Address:      DefaultMPDAddress,
			Network:      DefaultMPDNetwork,
			PollInterval: DefaultMPDPollInterval,
		},
	}
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Presence.IPCTimeout); err != nil {
		return fmt.Errorf("invalid presence.ipc_timeout %q: %w", c.Presence.IPCTimeout, err)
	}
	if _, err := time.ParseDuration(c.MPD.PollInterval); err != nil {
		return fmt.Errorf("invalid mpd.poll_interval %q: %w", c.MPD.PollInterval, err)
	}
	if c.Player.Volume < 0 || c.Player.Volume > 100 {
		return fmt.Errorf("invalid player.volume %d: must be between 0 and 100", c.Player.Volume)
	}
	if c.Presence.MaxTags < 0 {
		return fmt.Errorf("invalid presence.max_tags %d", c.Presence.MaxTags)
	}
	if _, ok := ParseLogLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// IPCTimeout returns the parsed presence IPC timeout.
func (c *Config) IPCTimeout() time.Duration {
	d, err := time.ParseDuration(c.Presence.IPCTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultIPCTimeout)
	}
	return d
}

// MPDPollInterval returns the parsed MPD poll interval.
func (c *Config) MPDPollInterval() time.Duration {
	d, err := time.ParseDuration(c.MPD.PollInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultMPDPollInterval)
	}
	return d
}

// ParseLogLevel maps a config log level name to a slog level. An empty name
// maps to warn.
func ParseLogLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "":
		return slog.LevelWarn, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appDirName, "config.toml")
}

// DataPath returns the directory for persisted user data.
// On Linux: $XDG_DATA_HOME/radioss or ~/.local/share/radioss
// On macOS: ~/Library/Application Support/radioss
func DataPath() string {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, "Library", "Application Support", appDirName)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appDirName)
}

// StatePath returns the directory for logs and other runtime state.
func StatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, appDirName)
}

// CachePath returns the directory for cached station lists.
func CachePath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cacheDir, appDirName)
}

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return errors.New("unable to determine directory")
	}
	return os.MkdirAll(dir, 0755)
}
