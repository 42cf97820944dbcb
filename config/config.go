package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	USDA      USDAConfig
	OpenAI    OpenAIConfig
	QStash    QStashConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Locale    LocaleConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// PublicURL is the externally reachable base URL job deliveries are sent back to.
	PublicURL string `mapstructure:"public_url"`
}

// USDAConfig holds USDA API configuration
type USDAConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
}

// OpenAIConfig holds generative estimator and translator configuration
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// QStashConfig holds job transport configuration
type QStashConfig struct {
	URL               string `mapstructure:"url"`
	Token             string `mapstructure:"token"`
	CurrentSigningKey string `mapstructure:"current_signing_key"`
	NextSigningKey    string `mapstructure:"next_signing_key"`
}

// DatabaseConfig holds content store configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LocaleConfig holds the canonical locale and the translation targets
type LocaleConfig struct {
	Default string   `mapstructure:"default"`
	Targets []string `mapstructure:"targets"`
}

// RateLimitConfig holds outbound rate limiting configuration
type RateLimitConfig struct {
	USDA int `mapstructure:"usda"` // requests per hour
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/recipesync/")

	v.SetEnvPrefix("RECIPESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default so
// AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.public_url", "http://localhost:8080")

	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("usda.page_size", 5)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "60s")

	v.SetDefault("qstash.url", "https://qstash.upstash.io")
	v.SetDefault("qstash.token", "")
	v.SetDefault("qstash.current_signing_key", "")
	v.SetDefault("qstash.next_signing_key", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "recipesync.db")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "720h") // 30 days

	v.SetDefault("locale.default", "en")
	v.SetDefault("locale.targets", []string{"de"})

	v.SetDefault("ratelimit.usda", 1000)
}

// validate rejects structurally invalid configuration. Missing credentials are
// not fatal here: the component that needs them fails its job with a configuration error.
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return fmt.Errorf("database driver must be 'postgres' or 'sqlite', got: %s", config.Database.Driver)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set RECIPESYNC_DATABASE_DSN)")
	}

	if config.USDA.PageSize <= 0 {
		return fmt.Errorf("usda page size must be positive, got: %d", config.USDA.PageSize)
	}

	if _, err := language.Parse(config.Locale.Default); err != nil {
		return fmt.Errorf("invalid default locale %q: %w", config.Locale.Default, err)
	}
	for _, target := range config.Locale.Targets {
		if _, err := language.Parse(target); err != nil {
			return fmt.Errorf("invalid target locale %q: %w", target, err)
		}
		if target == config.Locale.Default {
			return fmt.Errorf("target locale %q equals the default locale", target)
		}
	}

	return nil
}

// loadEnvFile exports KEY=VALUE lines from ./.env without overriding variables
// already present in the environment. A missing file is not an error.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
