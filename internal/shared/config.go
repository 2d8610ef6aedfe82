package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file and overlaid with environment variables.
type Config struct {
	Discogs    DiscogsConfig    `toml:"discogs"`
	Gateway    GatewayConfig    `toml:"gateway"`
	OAuth      OAuthConfig      `toml:"oauth"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
	Collection CollectionConfig `toml:"collection"`
	Redis      RedisConfig      `toml:"redis"`
	Log        LogConfig        `toml:"log"`
}

// DiscogsConfig contains the application's consumer credentials and Discogs endpoints.
type DiscogsConfig struct {
	ConsumerKey    string `toml:"consumer_key" env:"DISCOGS_CONSUMER_KEY"`
	ConsumerSecret string `toml:"consumer_secret" env:"DISCOGS_CONSUMER_SECRET"`
	UserAgent      string `toml:"user_agent" env:"CDX_USER_AGENT"`
	APIURL         string `toml:"api_url" env:"CDX_DISCOGS_API_URL"`
	AuthorizeURL   string `toml:"authorize_url" env:"CDX_DISCOGS_AUTHORIZE_URL"`
	CallbackURL    string `toml:"callback_url" env:"CDX_CALLBACK_URL"`
}

// GatewayConfig contains LLM gateway settings.
type GatewayConfig struct {
	APIKey string `toml:"api_key" env:"CDX_GATEWAY_API_KEY"`
	URL    string `toml:"url" env:"CDX_GATEWAY_URL"`
	Model  string `toml:"model" env:"CDX_GATEWAY_MODEL"`
}

// OAuthConfig controls how long a temporary credential survives between redirect and callback.
type OAuthConfig struct {
	PendingTTL time.Duration `toml:"pending_ttl" env:"CDX_PENDING_TTL"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"CDX_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"CDX_HOST"`
	Port int    `toml:"port" env:"CDX_PORT"`
}

// CollectionConfig contains the caller-side paging policy for collection fetches.
type CollectionConfig struct {
	PerPage   int           `toml:"per_page"`
	MaxPages  int           `toml:"max_pages"`
	PageDelay time.Duration `toml:"page_delay"`
}

// RedisConfig selects the Redis backend for pending credentials. An empty URL keeps them in memory.
type RedisConfig struct {
	URL string `toml:"url" env:"CDX_REDIS_URL"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"CDX_LOG_LEVEL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Load reads path when it exists (defaults otherwise) and applies the environment overlay.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv loads a .env file if present, then overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: parsing environment: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports [ErrMissingCredentials] when the Discogs consumer key or secret is absent.
func (c *Config) Validate() error {
	if c.Discogs.ConsumerKey == "" || c.Discogs.ConsumerSecret == "" {
		return fmt.Errorf("%w: discogs consumer_key and consumer_secret must be set", ErrMissingCredentials)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
