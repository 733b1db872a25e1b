// Package config loads service configuration with viper from an optional
// app.env file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config stores all configuration of the application.
type Config struct {
	AppName        string        `mapstructure:"APP_NAME"`
	HTTPPort       string        `mapstructure:"HTTP_PORT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"` // debug, info, warn, error
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	AllowedOrigins string        `mapstructure:"ALLOWED_ORIGINS"` // comma separated, empty allows any

	StoreDriver string `mapstructure:"STORE_DRIVER"` // memory or postgres

	// PostgreSQL, used when StoreDriver is postgres.
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSL_MODE"`

	// Redis vendor cache; empty address disables it.
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	VendorCacheTTL time.Duration `mapstructure:"VENDOR_CACHE_TTL"`

	// Kafka lifecycle events; no brokers means events are only logged.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	SeedSampleData bool `mapstructure:"SEED_SAMPLE_DATA"`
}

// LoadConfig reads configuration from path/app.env, if present, overlaid by
// environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "vendor-exchange")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", 15*time.Second)
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("STORE_DRIVER", DriverMemory)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vendorexchange")
	v.SetDefault("DB_SSL_MODE", "disable")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("VENDOR_CACHE_TTL", 10*time.Minute)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "marketplace.lifecycle")

	v.SetDefault("SEED_SAMPLE_DATA", false)

	if err := v.ReadInConfig(); err == nil {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("using config file")
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverMemory, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// Brokers splits KafkaBrokers into addresses.
func (c Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// Origins splits AllowedOrigins into origins.
func (c Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
