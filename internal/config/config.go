package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/calder-ai/uniproxy/pkg/api"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Redis     RedisConfig      `mapstructure:"redis"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	Env       string `mapstructure:"env"`
	MasterKey string `mapstructure:"master_key"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	Enabled bool   `mapstructure:"enabled"`
}

// ProviderConfig describes one backend. Type selects the adapter ("openai" or
// "azure"); Config carries adapter-specific settings such as api_version,
// deployment, organization or use_identity.
type ProviderConfig struct {
	ID      string            `mapstructure:"id" validate:"required"`
	Type    string            `mapstructure:"type" validate:"required"`
	Name    string            `mapstructure:"name"`
	APIKey  string            `mapstructure:"api_key"`
	BaseURL string            `mapstructure:"base_url"`
	Enabled bool              `mapstructure:"enabled"`
	Config  map[string]string `mapstructure:"config"`

	// Static model catalog advertised on /models for this backend.
	Models []api.Model `mapstructure:"models"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	if f := os.Getenv("CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Default Values
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.master_key", "sk-1234")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.dsn", "file:uniproxy.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	// Environment Variables
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

	if mk := os.Getenv("MASTER_KEY"); mk != "" {
		cfg.Server.MasterKey = mk
	}

	// Resolve ENV: references in provider secrets
	for i, p := range cfg.Providers {
		cfg.Providers[i].APIKey = resolveEnvRef(v, p.APIKey)
		cfg.Providers[i].BaseURL = resolveEnvRef(v, p.BaseURL)
	}

	return &cfg, nil
}

func resolveEnvRef(v *viper.Viper, value string) string {
	if !strings.HasPrefix(value, "ENV:") {
		return value
	}
	envVar := strings.TrimPrefix(value, "ENV:")
	// Check process environment first (explicit override)
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	// Then check viper (which might have it from other sources)
	return v.GetString(envVar)
}
