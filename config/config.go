package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StoreConfig describes one integrated store.
type StoreConfig struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	DeliveryFee int64  `mapstructure:"delivery_fee"` // minor currency units
	Quality     bool   `mapstructure:"quality"`
	BaseURL     string `mapstructure:"base_url"` // empty = mock integration
}

// CatalogConfig holds the store catalog configuration.
// When DatabaseURL is set the catalog is loaded from Postgres instead of
// the static store list.
type CatalogConfig struct {
	Stores             []StoreConfig `mapstructure:"stores"`
	DefaultDeliveryFee int64         `mapstructure:"default_delivery_fee"`
	DatabaseURL        string        `mapstructure:"database_url"`
}

// PricingConfig holds price fan-out configuration
type PricingConfig struct {
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
	Concurrency   int           `mapstructure:"concurrency"`
	StoreRPS      float64       `mapstructure:"store_rps"`
	StoreBurst    int           `mapstructure:"store_burst"`
}

// OptimizerConfig holds optimization engine configuration
type OptimizerConfig struct {
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	DefaultMaxStores  int           `mapstructure:"default_max_stores"`
	MaxStoresLimit    int           `mapstructure:"max_stores_limit"`
	MaxCartItems      int           `mapstructure:"max_cart_items"`
	QualityStores     []string      `mapstructure:"quality_stores"`
	QualityCategories []string      `mapstructure:"quality_categories"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Backend  string `mapstructure:"backend"` // "memory" or "redis"
	RedisURL string `mapstructure:"redis_url"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CART_OPTIMIZER")

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads a .env file by parsing KEY=VALUE lines and setting them
// as environment variables
func loadEnvFile() error {
	envPaths := []string{".", "./config"}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("catalog.database_url", "DATABASE_URL")
	v.BindEnv("cache.redis_url", "REDIS_URL")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	v.BindEnv("logging.level", "LOG_LEVEL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Catalog defaults: the four launch stores, overridable per deployment
	v.SetDefault("catalog.default_delivery_fee", 499)
	v.SetDefault("catalog.stores", []map[string]any{
		{"id": "kroger", "name": "Kroger", "delivery_fee": 399, "quality": false},
		{"id": "safeway", "name": "Safeway", "delivery_fee": 499, "quality": false},
		{"id": "walmart", "name": "Walmart", "delivery_fee": 299, "quality": false},
		{"id": "whole-foods", "name": "Whole Foods", "delivery_fee": 599, "quality": true},
	})

	// Pricing defaults
	v.SetDefault("pricing.lookup_timeout", 5*time.Second)
	v.SetDefault("pricing.concurrency", 16)
	v.SetDefault("pricing.store_rps", 10.0)
	v.SetDefault("pricing.store_burst", 20)

	// Optimizer defaults
	v.SetDefault("optimizer.cache_ttl", 600*time.Second)
	v.SetDefault("optimizer.default_max_stores", 1)
	v.SetDefault("optimizer.max_stores_limit", 10)
	v.SetDefault("optimizer.max_cart_items", 100)
	v.SetDefault("optimizer.quality_categories", []string{"organic", "produce"})

	// Cache defaults
	v.SetDefault("cache.backend", "memory")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst_size", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
