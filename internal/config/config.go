// Package config loads distributor configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeout is the default HTTP read timeout
	DefaultReadTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default HTTP write timeout
	DefaultWriteTimeout = 30 * time.Second
	// DefaultGeneratorTimeout is the default content generation timeout
	DefaultGeneratorTimeout = 120 * time.Second
	// DefaultWriteRateRPS is the default per-second cap on destination writes
	DefaultWriteRateRPS = 5
	// DefaultPublishCron fires the scheduled-publish sweep once a minute
	DefaultPublishCron = "* * * * *"
)

// Config is the root configuration for the distributor service.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Generator GeneratorConfig `yaml:"generator"`
	Injection InjectionConfig `yaml:"injection"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// DatabaseConfig holds the admin registry database settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds Redis settings for the discovery cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig holds the default shared object-storage bucket. Sites with
// their own credentials override this per upload.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	PublicURL string `yaml:"public_url"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// GeneratorConfig holds the external content generator endpoint.
type GeneratorConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// InjectionConfig holds injection orchestration settings.
type InjectionConfig struct {
	WriteRateRPS int `yaml:"write_rate_rps"`
}

// SchedulerConfig holds the scheduled-publish trigger settings.
type SchedulerConfig struct {
	Disabled bool   `yaml:"disabled"`
	CronSpec string `yaml:"cron_spec"`
}

// Validate checks the server configuration and applies defaults.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		c.Address = ":8090"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return nil
}

// Validate checks the configuration and returns an error if required values
// are missing.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Generator.URL == "" {
		return errors.New("generator.url is required")
	}
	if c.Injection.WriteRateRPS < 0 {
		return fmt.Errorf("injection.write_rate_rps must not be negative, got %d", c.Injection.WriteRateRPS)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Generator.Timeout <= 0 {
		cfg.Generator.Timeout = DefaultGeneratorTimeout
	}
	if cfg.Injection.WriteRateRPS == 0 {
		cfg.Injection.WriteRateRPS = DefaultWriteRateRPS
	}
	if cfg.Scheduler.CronSpec == "" {
		cfg.Scheduler.CronSpec = DefaultPublishCron
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "distributor-assets"
	}
}

func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv("DISTRIBUTOR_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("POSTGRES_ADMIN_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_ADMIN_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("POSTGRES_ADMIN_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSTGRES_ADMIN_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_ADMIN_DB"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_PUBLIC_URL"); v != "" {
		cfg.Storage.PublicURL = v
	}
	if v := os.Getenv("STORAGE_USE_SSL"); v != "" {
		cfg.Storage.UseSSL = parseBool(v)
	}
	if v := os.Getenv("GENERATOR_URL"); v != "" {
		cfg.Generator.URL = v
	}
	if v := os.Getenv("GENERATOR_TOKEN"); v != "" {
		cfg.Generator.Token = v
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// Load reads configuration from the YAML file at path, applies defaults, and
// overrides with environment variables. A .env file in the working directory
// is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best effort; absence is fine

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("server config validation: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
