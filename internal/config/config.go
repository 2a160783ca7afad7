package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nocturne-ai/aria/internal/capability"
)

// ProviderConfig is the fully resolved configuration for one provider.
// Weight is the provider-level selection weight; Models maps a capability
// name to its weighted model list.
type ProviderConfig struct {
	Name    string  `mapstructure:"name" yaml:"name" validate:"required"`
	Type    string  `mapstructure:"type" yaml:"type" validate:"required"`
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	Weight  float64 `mapstructure:"weight" yaml:"weight" validate:"gte=0"`
	APIKey  string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string  `mapstructure:"base_url" yaml:"base_url"`

	Models map[string][]capability.ModelSpec `mapstructure:"models" yaml:"models" validate:"dive,dive"`

	// Vendor-specific extras (API version headers, organization IDs).
	Extra map[string]string `mapstructure:"extra" yaml:"extra"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`

	// Static gateway keys accepted by the auth middleware.
	APIKeys []string `mapstructure:"api_keys"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type LokiConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Labels  map[string]string `mapstructure:"labels"`
}

type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type RouterConfig struct {
	// Upper bound on a single provider invocation.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
}

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Router    RouterConfig     `mapstructure:"router"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Loki      LokiConfig       `mapstructure:"loki"`
	Store     StoreConfig      `mapstructure:"store"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// CONFIG_FILE pins an exact file, bypassing the search path.
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("router.provider_timeout", "60s")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("loki.enabled", false)
	v.SetDefault("loki.url", "http://localhost:3100")
	v.SetDefault("store.dsn", "file:aria.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Resolve API key references of the form ENV:VAR_NAME.
	for i, p := range cfg.Providers {
		cfg.Providers[i].APIKey = resolveSecret(v, p.APIKey)
	}

	validate := validator.New()
	for _, p := range cfg.Providers {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("invalid provider config %q: %w", p.Name, err)
		}
	}

	return &cfg, nil
}

func resolveSecret(v *viper.Viper, value string) string {
	if !strings.HasPrefix(value, "ENV:") {
		return value
	}

	envVar := strings.TrimPrefix(value, "ENV:")

	// Process environment wins over viper sources.
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return v.GetString(envVar)
}
