// Package config loads service configuration from an optional YAML file
// overlaid by ECODRIVE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "ecodrive"

type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Log         LogConfig      `yaml:"log"`
	RateLimit   RateLimit      `yaml:"rateLimit"   split_words:"true"`
	Scheduler   Scheduler      `yaml:"scheduler"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	AllowOrigins    []string      `yaml:"allowOrigins"    split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
}

type DatabaseConfig struct {
	Driver        string        `yaml:"driver"`
	DSN           string        `yaml:"dsn"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port"`
	Name          string        `yaml:"name"`
	SlowThreshold time.Duration `yaml:"slowThreshold" split_words:"true"`
	Seed          bool          `yaml:"seed"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Disabled bool   `yaml:"disabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// RateLimit is the per-client request budget
type RateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Scheduler controls the background jobs. A zero interval disables a job.
type Scheduler struct {
	AlertInterval time.Duration `yaml:"alertInterval" split_words:"true"`
	SweepInterval time.Duration `yaml:"sweepInterval" split_words:"true"`
	AlertLimit    int           `yaml:"alertLimit"    split_words:"true"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:            "8080",
			AllowOrigins:    []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        DriverMySQL,
			User:          "ecodrive",
			Password:      "ecodrive",
			Host:          "mysql",
			Port:          "3306",
			Name:          "ecodrive",
			SlowThreshold: time.Second,
			Seed:          true,
		},
		Redis: RedisConfig{
			Addr: "redis:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimit{
			Requests: 20,
			Window:   time.Second,
		},
		Scheduler: Scheduler{
			AlertInterval: 6 * time.Hour,
			SweepInterval: time.Minute,
			AlertLimit:    100,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty) over the
// defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("invalid database driver: %q (must be 'mysql' or 'sqlite')", c.Database.Driver)
	}
	if c.Server.Port == "" {
		return errors.New("server port must be set")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit requests and window must be positive")
	}
	if c.Scheduler.AlertInterval < 0 || c.Scheduler.SweepInterval < 0 {
		return errors.New("scheduler intervals must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// MySQLDSN builds a DSN from the individual connection settings unless a
// full DSN was configured.
func (d DatabaseConfig) MySQLDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}
