// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Chat       ChatConfig       `mapstructure:"chat"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// MongoConfig contains document store configuration
type MongoConfig struct {
	URI            string            `mapstructure:"uri"`
	Database       string            `mapstructure:"database"`
	ConnectTimeout time.Duration     `mapstructure:"connect_timeout"`
	Collections    CollectionsConfig `mapstructure:"collections"`
}

// CollectionsConfig names the collections the service reads and writes.
// The first four follow the session adapter's layout and are overridable.
type CollectionsConfig struct {
	Users              string `mapstructure:"users"`
	Accounts           string `mapstructure:"accounts"`
	Sessions           string `mapstructure:"sessions"`
	VerificationTokens string `mapstructure:"verification_tokens"`
	Recipes            string `mapstructure:"recipes"`
}

// DefaultCollections returns the stock collection names.
func DefaultCollections() CollectionsConfig {
	return CollectionsConfig{
		Users:              "users",
		Accounts:           "accounts",
		Sessions:           "sessions",
		VerificationTokens: "verification_tokens",
		Recipes:            "recipes",
	}
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// Addr returns the host:port pair for the Redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	BCryptCost int           `mapstructure:"bcrypt_cost"`
}

// ChatConfig describes the upstream recipe-suggestion backend
type ChatConfig struct {
	BackendURL    string        `mapstructure:"backend_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxImageBytes int           `mapstructure:"max_image_bytes"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min"`
	BurstSize      int  `mapstructure:"burst_size"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	TraceSampleRate float64 `mapstructure:"trace_sample_rate"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fridgechef")
	}

	v.SetEnvPrefix("FRIDGECHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "FridgeChef")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s") // chat responses stream
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	defaults := DefaultCollections()
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "fridgechef")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.collections.users", defaults.Users)
	v.SetDefault("mongo.collections.accounts", defaults.Accounts)
	v.SetDefault("mongo.collections.sessions", defaults.Sessions)
	v.SetDefault("mongo.collections.verification_tokens", defaults.VerificationTokens)
	v.SetDefault("mongo.collections.recipes", defaults.Recipes)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)

	v.SetDefault("auth.session_ttl", "24h")
	v.SetDefault("auth.cookie_name", "fridgechef_session")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("chat.backend_url", "http://localhost:8000")
	v.SetDefault("chat.timeout", "5m")
	v.SetDefault("chat.max_image_bytes", 10<<20) // 10MB

	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 120)
	v.SetDefault("rate_limit.burst_size", 20)

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.enable_tracing", true)
	v.SetDefault("monitoring.trace_sample_rate", 1.0)
	v.SetDefault("monitoring.otlp_endpoint", "")
	v.SetDefault("monitoring.otlp_insecure", true)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}

	if c.Auth.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	cols := map[string]string{
		"users":               c.Mongo.Collections.Users,
		"accounts":            c.Mongo.Collections.Accounts,
		"sessions":            c.Mongo.Collections.Sessions,
		"verification_tokens": c.Mongo.Collections.VerificationTokens,
		"recipes":             c.Mongo.Collections.Recipes,
	}
	for key, name := range cols {
		if name == "" {
			return fmt.Errorf("mongo.collections.%s must not be empty", key)
		}
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
