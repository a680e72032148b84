// Package config loads Aura's YAML configuration file, adapted from the
// teacher's internal/config/config.go (same Load/LoadOrDefault/XDG-path
// shape, trimmed to Aura's socket/rollout/registry settings).
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is Aura's daemon configuration.
type Config struct {
	Socket   SocketConfig   `yaml:"socket"`
	Registry RegistryConfig `yaml:"registry"`
	Rollout  RolloutConfig  `yaml:"rollout"`
	Log      LogConfig      `yaml:"log"`
}

// SocketConfig controls the IPC listener.
type SocketConfig struct {
	// Path is the Unix domain socket path. Empty means
	// <tempdir>/aura.sock, per SPEC_FULL.md §6.
	Path string `yaml:"path"`
}

// RegistryConfig controls session decay.
type RegistryConfig struct {
	StaleTimeout time.Duration `yaml:"stale_timeout"`
}

// RolloutConfig holds rollout file discovery settings. They are parsed
// and defaulted here, but the rollout watcher does not read them: it
// uses its own package constants and the CODEX_HOME environment
// variable.
type RolloutConfig struct {
	RescanInterval     time.Duration `yaml:"rescan_interval"`
	VisibilityWindow   time.Duration `yaml:"visibility_window"`
	BootstrapReplayMax int           `yaml:"bootstrap_replay_max"`
	CodexHomeOverride  string        `yaml:"codex_home"`
}

// LogConfig holds a log level name. It is parsed and defaulted here but
// not applied: the log level comes from AURA_LOG and -v/-vv/-vvv only.
type LogConfig struct {
	Level string `yaml:"level"`
}

func defaultConfig() *Config {
	return &Config{
		Socket: SocketConfig{
			Path: filepath.Join(os.TempDir(), "aura.sock"),
		},
		Registry: RegistryConfig{
			StaleTimeout: 10 * time.Minute,
		},
		Rollout: RolloutConfig{
			RescanInterval:     2 * time.Second,
			VisibilityWindow:   10 * time.Minute,
			BootstrapReplayMax: 4,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads and parses the YAML config at path, starting from
// defaults so unset fields keep their default value.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Socket.Path == "" {
		cfg.Socket.Path = filepath.Join(os.TempDir(), "aura.sock")
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default
// configuration if path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return Load(path)
}

func defaultConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// DefaultConfigPath returns the default XDG-compliant config file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "aura", "config.yaml")
}
