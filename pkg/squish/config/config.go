package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ConvertConfig holds the default conversion settings offered by the UI.
type ConvertConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Format  string `mapstructure:"format"`
}

// HistoryConfig configures the transform history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty means DefaultDBPath
}

// SessionsConfig configures batch session summaries.
type SessionsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"` // empty means DefaultSessionsDir
	RetentionDays int    `mapstructure:"retention_days"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	SettleMS int `mapstructure:"settle_ms"`
}

// Config represents the application configuration.
type Config struct {
	Window     types.WindowState `mapstructure:"window"`
	DarkMode   bool              `mapstructure:"dark_mode"`
	Overwrite  bool              `mapstructure:"overwrite"`
	Convert    ConvertConfig     `mapstructure:"convert"`
	Jobs       int               `mapstructure:"jobs"`
	ScratchDir string            `mapstructure:"scratch_dir"` // empty means system temp
	History    HistoryConfig     `mapstructure:"history"`
	Sessions   SessionsConfig    `mapstructure:"sessions"`
	Logging    LoggingConfig     `mapstructure:"logging"`
	Watch      WatchConfig       `mapstructure:"watch"`
}

// Default returns a Config populated with every default, bypassing the
// filesystem entirely. It is the fallback when loading fails.
func Default() *Config {
	return &Config{
		Window: types.WindowState{
			X:      DefaultWindowX,
			Y:      DefaultWindowY,
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
		},
		DarkMode:  false,
		Overwrite: true,
		Convert: ConvertConfig{
			Enabled: false,
			Format:  DefaultConvertFormat,
		},
		Jobs:       DefaultJobs,
		ScratchDir: "",
		History: HistoryConfig{
			Enabled: true,
			Path:    "",
		},
		Sessions: SessionsConfig{
			Enabled:       true,
			Path:          "",
			RetentionDays: DefaultRetentionDays,
		},
		Logging: LoggingConfig{
			Level: "info",
			Path:  "",
			Rotation: RotationConfig{
				MaxSize:    "10MB",
				MaxAge:     14,
				MaxBackups: 3,
				Daily:      true,
			},
			Components: defaultComponentLevels(),
		},
		Watch: WatchConfig{
			SettleMS: DefaultSettleMS,
		},
	}
}

func defaultComponentLevels() map[string]string {
	return map[string]string{
		"pipeline": "info",
		"scanner":  "info",
		"watcher":  "warn",
		"history":  "info",
	}
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/squish/config.yaml
//   - $HOME/.config/squish/config.yaml
//
// Environment variables are prefixed with SQUISH_ (e.g., SQUISH_OVERWRITE).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "squish"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: resolving home directory: %w", types.ErrConfig, err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "squish"))

	v.SetEnvPrefix("SQUISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// A missing config file is fine; every field has a default.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %w", types.ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling config: %w", types.ErrConfig, err)
	}

	for _, p := range []*string{&cfg.ScratchDir, &cfg.History.Path, &cfg.Sessions.Path, &cfg.Logging.Path} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// LoadOrDefault loads the configuration and falls back to Default() when
// loading fails. Configuration is best-effort, never fatal.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("window.x", DefaultWindowX)
	v.SetDefault("window.y", DefaultWindowY)
	v.SetDefault("window.width", DefaultWindowWidth)
	v.SetDefault("window.height", DefaultWindowHeight)

	v.SetDefault("dark_mode", false)
	v.SetDefault("overwrite", true)
	v.SetDefault("convert.enabled", false)
	v.SetDefault("convert.format", DefaultConvertFormat)
	v.SetDefault("jobs", DefaultJobs)
	v.SetDefault("scratch_dir", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("sessions.enabled", true)
	v.SetDefault("sessions.path", "")
	v.SetDefault("sessions.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 14)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", defaultComponentLevels())

	v.SetDefault("watch.settle_ms", DefaultSettleMS)
}

// Save writes cfg to the config file, creating the directory as needed.
// It writes the full record; fields the user never touched are persisted
// at their current (defaulted) values.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("window.x", cfg.Window.X)
	v.Set("window.y", cfg.Window.Y)
	v.Set("window.width", cfg.Window.Width)
	v.Set("window.height", cfg.Window.Height)

	v.Set("dark_mode", cfg.DarkMode)
	v.Set("overwrite", cfg.Overwrite)
	v.Set("convert.enabled", cfg.Convert.Enabled)
	v.Set("convert.format", cfg.Convert.Format)
	v.Set("jobs", cfg.Jobs)
	v.Set("scratch_dir", cfg.ScratchDir)

	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)
	v.Set("sessions.enabled", cfg.Sessions.Enabled)
	v.Set("sessions.path", cfg.Sessions.Path)
	v.Set("sessions.retention_days", cfg.Sessions.RetentionDays)

	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.path", cfg.Logging.Path)
	v.Set("logging.rotation.max_size", cfg.Logging.Rotation.MaxSize)
	v.Set("logging.rotation.max_age", cfg.Logging.Rotation.MaxAge)
	v.Set("logging.rotation.max_backups", cfg.Logging.Rotation.MaxBackups)
	v.Set("logging.rotation.daily", cfg.Logging.Rotation.Daily)
	v.Set("logging.components", cfg.Logging.Components)

	v.Set("watch.settle_ms", cfg.Watch.SettleMS)

	path := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("%w: writing config file: %w", types.ErrConfig, err)
	}
	return nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "squish"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolving home directory: %w", types.ErrConfig, err)
	}

	return filepath.Join(homeDir, ".config", "squish"), nil
}

// ConfigPath returns the config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating config directory: %w", types.ErrConfig, err)
	}

	return nil
}

// WriteDefault writes a commented default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: checking config file: %w", types.ErrConfig, err)
	}

	defaultConfig := fmt.Sprintf(`# Squish Image Optimizer Configuration

# Window geometry, maintained automatically as the window moves.
window:
  x: %d
  y: %d
  width: %d
  height: %d

# UI theme.
dark_mode: false

# Replace originals with optimized results by default.
overwrite: true

# Default conversion settings.
convert:
  enabled: false
  format: %s

# Concurrent transform workers for batch runs (0 = automatic).
jobs: %d

# Scratch directory for staged writes (empty = system temp).
scratch_dir: ""

# Transform history database.
history:
  enabled: true
  path: ""

# Batch session summaries.
sessions:
  enabled: true
  path: ""
  retention_days: %d

# Logging configuration.
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/squish/squish.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 14       # days
    max_backups: 3
    daily: true
  # Per-component log levels
  components:
    pipeline: info
    scanner: info
    watcher: warn
    history: info

# Directory watcher.
watch:
  # Quiet period after the last write before a file is processed.
  settle_ms: %d
`, DefaultWindowX, DefaultWindowY, DefaultWindowWidth, DefaultWindowHeight,
		DefaultConvertFormat, DefaultJobs, DefaultRetentionDays, DefaultSettleMS)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("%w: writing default config: %w", types.ErrConfig, err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolving home directory: %w", types.ErrConfig, err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/squish/ for the history database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "squish")
}

// StateDir returns $XDG_STATE_HOME/squish/ for log files and sessions.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "squish")
}

// DefaultDBPath returns the default history database path.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "history.db")
}

// DefaultSessionsDir returns the default directory for session summaries.
func DefaultSessionsDir() string {
	return filepath.Join(StateDir(), "sessions")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "squish.log")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("%w: creating data directory: %w", types.ErrConfig, err)
	}
	return nil
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("%w: creating state directory: %w", types.ErrConfig, err)
	}
	return nil
}
