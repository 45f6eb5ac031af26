// Package config loads errprop settings with viper.
//
// Precedence, lowest to highest: defaults, errprop.toml (in $HOME/.errprop,
// then the working directory, or an explicit file), ERRPROP_* environment
// variables, then any flags the caller binds.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// ERRPROP_SERVER_ADDR.
const EnvPrefix = "ERRPROP"

// ErrInvalid marks configuration that fails Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full errprop configuration.
type Config struct {
	Format FormatConfig `mapstructure:"format"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
}

// FormatConfig controls rendered output.
type FormatConfig struct {
	Precision int `mapstructure:"precision"` // decimals of the result line
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `mapstructure:"burst"`
	CacheSize int     `mapstructure:"cache_size"` // engines kept in the LRU cache
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("format.precision", 6)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.burst", 100)
	v.SetDefault("server.cache_size", 128)
}

// New returns a viper instance with defaults and environment binding. When
// configFile is empty the standard locations are searched; a missing file
// there is not an error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	v.SetConfigType("toml")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", configFile)
		}
		return v, nil
	}

	v.SetConfigName("errprop")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".errprop"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// LoadWithViper unmarshals and validates the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is New followed by LoadWithViper.
func Load(configFile string) (*Config, error) {
	v, err := New(configFile)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// Validate rejects negative limits and an empty listen address.
func (c *Config) Validate() error {
	switch {
	case c.Format.Precision < 0:
		return errors.Wrapf(ErrInvalid, "format.precision must be >= 0, got %d", c.Format.Precision)
	case c.Server.Addr == "":
		return errors.Wrap(ErrInvalid, "server.addr must not be empty")
	case c.Server.RateLimit < 0:
		return errors.Wrapf(ErrInvalid, "server.rate_limit must be >= 0, got %g", c.Server.RateLimit)
	case c.Server.Burst < 0:
		return errors.Wrapf(ErrInvalid, "server.burst must be >= 0, got %d", c.Server.Burst)
	case c.Server.CacheSize <= 0:
		return errors.Wrapf(ErrInvalid, "server.cache_size must be > 0, got %d", c.Server.CacheSize)
	}
	return nil
}
