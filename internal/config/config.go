package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration.
// Values come from an optional YAML file, then environment variables override them.
type Config struct {
	// Server configuration
	Port string `yaml:"port" env:"PORT" env-default:"3000"`
	Env  string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`

	// Database configuration
	DBType            string `yaml:"db_type" env:"DB_TYPE" env-default:"postgres"` // postgres, mysql, mariadb, sqlite, sqlite-pure, sqlserver
	DBHost            string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort            string `yaml:"db_port" env:"DB_PORT" env-default:"5432"`
	DBDatabase        string `yaml:"db_database" env:"DB_DATABASE"`
	DBUser            string `yaml:"db_user" env:"DB_USER"`
	DBPassword        string `yaml:"-" env:"DB_PASSWORD"`
	DBConnectionLimit int    `yaml:"db_connection_limit" env:"DB_CONNECTION_LIMIT" env-default:"5"`
	DBDebug           bool   `yaml:"db_debug" env:"DB_DEBUG" env-default:"false"`

	// Logging
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from the YAML file at path (if non-empty and present) and the environment.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if !c.IsSQLite() && c.DBUser == "" {
		return fmt.Errorf("DB_USER is required for %s", c.DBType)
	}
	if c.DBConnectionLimit < 1 {
		return fmt.Errorf("DB_CONNECTION_LIMIT must be positive, got %d", c.DBConnectionLimit)
	}
	return nil
}

// IsSQLite reports whether the configured database is a SQLite file.
func (c *Config) IsSQLite() bool {
	return c.DBType == "sqlite" || c.DBType == "sqlite-pure"
}
