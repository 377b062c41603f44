// Package config loads the exchange's runtime configuration: the exchange
// name to boot, the directory its durable store lives in, and the log
// level. It follows the wider pack's convention of a typed struct populated
// via viper, validated once at boot, and cached behind a package-level
// accessor that panics on misconfiguration.
package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the exchange's process-wide configuration.
type Config struct {
	ExchangeName string `mapstructure:"exchange_name" validate:"required"`
	DataDir      string `mapstructure:"data_dir" validate:"required"`
	LogLevel     string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// Load reads configuration from environment variables (prefix BETEX_) with
// defaults, validates it, and returns it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BETEX")
	v.AutomaticEnv()
	v.SetDefault("exchange_name", "default")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("log_level", "info")

	cfg := &Config{
		ExchangeName: v.GetString("exchange_name"),
		DataDir:      v.GetString("data_dir"),
		LogLevel:     v.GetString("log_level"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration once per process, panicking on failure, and
// returns the cached instance on subsequent calls.
func MustLoad() *Config {
	once.Do(func() {
		instance, loadErr = Load()
		if loadErr != nil {
			panic(fmt.Sprintf("config: %v", loadErr))
		}
	})
	return instance
}

// Get returns the previously loaded configuration, or nil if MustLoad has
// not been called yet.
func Get() *Config {
	return instance
}
