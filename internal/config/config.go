package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logger   LoggerConfig   `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	SQLiteDSN       string `yaml:"sqlite_dsn"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"name"`
	MaxConnections  int    `yaml:"max_connections"`
	MinConnections  int    `yaml:"min_connections"`
	MaxConnLifetime int    `yaml:"max_conn_lifetime"` // seconds
	Seed            bool   `yaml:"seed"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds authentication configuration. An empty key disables auth.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// CacheConfig holds the Redis product cache configuration.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"` // seconds
}

// Default returns the configuration used when nothing is overridden: an
// in-memory SQLite store seeded on start.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			SQLiteDSN:       "file:catalog?mode=memory&cache=shared",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "catalog",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
			Seed:            true,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  60,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence. A .env file in
// the working directory is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	base := Default()
	if path != "" {
		if err := loadFile(path, base); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", base.Server.Host),
			Port: getEnvAsInt("SERVER_PORT", base.Server.Port),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", base.Database.Driver),
			SQLiteDSN:       getEnv("DB_SQLITE_DSN", base.Database.SQLiteDSN),
			Host:            getEnv("DB_HOST", base.Database.Host),
			Port:            getEnvAsInt("DB_PORT", base.Database.Port),
			User:            getEnv("DB_USER", base.Database.User),
			Password:        getEnv("DB_PASSWORD", base.Database.Password),
			Database:        getEnv("DB_NAME", base.Database.Database),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", base.Database.MaxConnections),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", base.Database.MinConnections),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", base.Database.MaxConnLifetime),
			Seed:            getEnvAsBool("DB_SEED", base.Database.Seed),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", base.Logger.Level),
			Format: getEnv("LOG_FORMAT", base.Logger.Format),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", base.Auth.APIKey),
		},
		Cache: CacheConfig{
			Enabled:  getEnvAsBool("CACHE_ENABLED", base.Cache.Enabled),
			Addr:     getEnv("REDIS_ADDR", base.Cache.Addr),
			Password: getEnv("REDIS_PASSWORD", base.Cache.Password),
			DB:       getEnvAsInt("REDIS_DB", base.Cache.DB),
			TTL:      getEnvAsInt("CACHE_TTL", base.Cache.TTL),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLiteDSN == "" {
			return fmt.Errorf("sqlite DSN is required")
		}
	case DriverPostgres:
		if err := c.Database.validatePostgres(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return fmt.Errorf("redis address is required when cache is enabled")
		}
		if c.Cache.TTL < 1 {
			return fmt.Errorf("cache TTL must be at least 1 second")
		}
	}

	return nil
}

func (c *DatabaseConfig) validatePostgres() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TTLDuration returns the cache TTL as a duration.
func (c *CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
