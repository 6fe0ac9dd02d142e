// Package config loads server configuration from config.yaml and the
// environment. Every key has a default so the server runs with no file
// at all, backed by the in-memory store.
package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Risk     RiskConfig     `mapstructure:"risk"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
}

type DatabaseConfig struct {
	// URL is a pgx connection string. Empty selects the in-memory store.
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	// URL is a redis connection string. Empty disables the cache layer.
	URL string `mapstructure:"url"`

	// CacheTTLSeconds bounds staleness of cached reads.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

type RiskConfig struct {
	// MaxStakePerMatch caps a single match's stake in base units.
	// Zero disables the check.
	MaxStakePerMatch uint64 `mapstructure:"max_stake_per_match"`

	// MaxOpenExposure caps the sum of a player's stakes across
	// unresolved matches. Zero disables the check.
	MaxOpenExposure uint64 `mapstructure:"max_open_exposure"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("database.url", "")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.cache_ttl_seconds", 30)
	viper.SetDefault("risk.max_stake_per_match", 0)
	viper.SetDefault("risk.max_open_exposure", 0)

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
