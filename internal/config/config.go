// Package config loads the Name Server's static configuration from built-in
// defaults, a YAML file, and environment variables, in that ascending
// order of precedence, and validates the result before the server starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the Name Server's static configuration.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (NMD_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Server controls the TCP listener clients and Storage Servers connect to.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Liveness controls the heartbeat/eviction scanner.
	Liveness LivenessConfig `mapstructure:"liveness" yaml:"liveness"`

	// Roster configures the durable username roster.
	Roster RosterConfig `mapstructure:"roster" yaml:"roster"`

	// LookupCache configures the recent file->SS lookup cache.
	LookupCache LookupCacheConfig `mapstructure:"lookup_cache" yaml:"lookup_cache"`

	// Metrics controls the Prometheus metrics/health HTTP server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig controls the NM's TCP listener.
type ServerConfig struct {
	// ListenAddr is the TCP address the Name Server accepts clients and
	// Storage Servers on. Default: ":8080".
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`

	// ShutdownTimeout is loaded and validated (it must be positive), but
	// the server does not read it: shutdown is not bounded by it.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior, matching internal/logger.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// LivenessConfig controls the heartbeat/eviction scanner, overriding
// internal/liveness's package defaults.
type LivenessConfig struct {
	ScanInterval      time.Duration `mapstructure:"scan_interval" validate:"required,gt=0" yaml:"scan_interval"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" validate:"required,gt=0" yaml:"connection_timeout"`
}

// RosterConfig configures the durable user roster file.
type RosterConfig struct {
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// LookupCacheConfig configures the recent-lookup LRU cache.
type LookupCacheConfig struct {
	Size int `mapstructure:"size" validate:"required,gt=0" yaml:"size"`
}

// MetricsConfig configures the Prometheus metrics/health HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" validate:"omitempty" yaml:"addr"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Liveness: LivenessConfig{
			ScanInterval:      5 * time.Second,
			ConnectionTimeout: 60 * time.Second,
		},
		Roster: RosterConfig{
			Path: defaultRosterPath(),
		},
		LookupCache: LookupCacheConfig{
			Size: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

func defaultRosterPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "state")
		} else {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, "nmd", "roster.txt")
}

// Load reads configuration from configPath (if non-empty and it exists) on
// top of the defaults, layers environment variable overrides (NMD_*) over
// both, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	applyEnvOverrides(cfg, v)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides re-applies viper's AutomaticEnv bindings after
// Unmarshal, since viper.Unmarshal does not itself walk every struct field
// looking for environment keys unless BindEnv was called for it. The Name
// Server's config surface is small enough to bind explicitly.
func applyEnvOverrides(cfg *Config, v *viper.Viper) {
	if s := v.GetString("server.listen_addr"); s != "" {
		cfg.Server.ListenAddr = s
	}
	if s := v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = strings.ToUpper(s)
	}
	if s := v.GetString("logging.format"); s != "" {
		cfg.Logging.Format = s
	}
	if s := v.GetString("roster.path"); s != "" {
		cfg.Roster.Path = s
	}
}

// MustLoad loads configuration, returning a user-actionable error if
// configPath was explicitly given but does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create it first:\n  nmd init --config %s", configPath, configPath)
		}
	}
	return Load(configPath)
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "nmd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nmd")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}
