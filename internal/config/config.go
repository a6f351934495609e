// Package config loads tablesync CLI settings from a YAML file, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

const (
	configName      = ".tablesync"
	configType      = "yaml"
	envPrefix       = "TABLESYNC"
	envKeySeparator = "_"
)

// Defaults.
const (
	DefaultDBPath    = ""
	DefaultDBTimeout = 10 * time.Second
	DefaultMmapSize  = "0"
	DefaultColor     = true
	DefaultVerbose   = false
	DefaultMetrics   = false
)

// Config is the top-level configuration of the tablesync CLI.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	DB     DBConfig     `mapstructure:"db"`
	Output OutputConfig `mapstructure:"output"`
}

// DBConfig selects the database replay runs against. An empty Path means an
// in-memory database.
type DBConfig struct {
	Path     string        `mapstructure:"path"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MmapSize string        `mapstructure:"mmap_size"`
}

// OutputConfig holds presentation settings.
type OutputConfig struct {
	Color   bool `mapstructure:"color"`
	Verbose bool `mapstructure:"verbose"`
	Metrics bool `mapstructure:"metrics"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidTimeout indicates a negative db.timeout.
	ErrInvalidTimeout = errors.New("db.timeout must be non-negative")
	// ErrInvalidMmapSize indicates a db.mmap_size that is not a byte size.
	ErrInvalidMmapSize = errors.New("db.mmap_size must be a byte size like 64MB")
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("db.path", DefaultDBPath)
	viperCfg.SetDefault("db.timeout", DefaultDBTimeout)
	viperCfg.SetDefault("db.mmap_size", DefaultMmapSize)

	viperCfg.SetDefault("output.color", DefaultColor)
	viperCfg.SetDefault("output.verbose", DefaultVerbose)
	viperCfg.SetDefault("output.metrics", DefaultMetrics)
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.DB.Timeout < 0 {
		return ErrInvalidTimeout
	}

	_, err := c.MmapBytes()

	return err
}

// MmapBytes returns db.mmap_size in bytes. An empty value means zero.
func (c *Config) MmapBytes() (int, error) {
	if c.DB.MmapSize == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(c.DB.MmapSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMmapSize, c.DB.MmapSize)
	}

	return int(n), nil
}
