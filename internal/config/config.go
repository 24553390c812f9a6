// Package config loads hunkr settings from defaults, an optional config
// file, HUNKR_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sprite-ai/hunkr/internal/logger"
)

// Config is the resolved configuration.
type Config struct {
	StateDir     string           `mapstructure:"state_dir"`
	Store        string           `mapstructure:"store"`
	ContextLines int              `mapstructure:"context_lines"`
	Log          logger.Config    `mapstructure:"log"`
	Trust        TrustConfig      `mapstructure:"trust"`
	Classifier   ClassifierConfig `mapstructure:"classifier"`
	Freshness    FreshnessConfig  `mapstructure:"freshness"`
	Server       ServerConfig     `mapstructure:"server"`
}

// TrustConfig seeds the trust settings of new reviews.
type TrustConfig struct {
	Default           []string `mapstructure:"default"`
	AutoApproveStaged bool     `mapstructure:"auto_approve_staged"`
}

// ClassifierConfig selects the classification service. An empty URL uses
// the built-in rules.
type ClassifierConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FreshnessConfig tunes freshness checks.
type FreshnessConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ServerConfig is the listen address of `hunkr serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Port int    `mapstructure:"port"`
}

// Address joins Addr and Port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

// EnvPrefix is the prefix of environment overrides, e.g. HUNKR_LOG_LEVEL.
const EnvPrefix = "HUNKR"

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("store", "file")
	v.SetDefault("context_lines", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("trust.default", []string{})
	v.SetDefault("trust.auto_approve_staged", false)
	v.SetDefault("classifier.url", "")
	v.SetDefault("classifier.timeout", 60*time.Second)
	v.SetDefault("freshness.concurrency", 4)
	v.SetDefault("server.addr", "127.0.0.1")
	v.SetDefault("server.port", 6880)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds flags to config keys. keys maps a config key to a flag
// name; flags that do not exist are an error.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("no flag %q for config key %q", name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads configFile, or config.toml in DefaultDir when configFile is
// empty and that file exists, and returns the validated configuration.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store must be file or sqlite, got %q", c.Store)
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines must not be negative, got %d", c.ContextLines)
	}
	if c.StateDir == "" {
		return errors.New("state_dir must be set")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// DefaultDir is the directory searched for config.toml.
func DefaultDir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "hunkr")
	}
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "hunkr")
	}
	return ".hunkr"
}

func defaultStateDir() string {
	if d := os.Getenv("XDG_STATE_HOME"); d != "" {
		return filepath.Join(d, "hunkr")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "hunkr")
	}
	return ".hunkr"
}
