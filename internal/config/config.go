package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken     string  `env:"TELEGRAM_TOKEN,required" validate:"required"`
	TelegramDebug     bool    `env:"TELEGRAM_DEBUG"`
	AdminIDs          []int64 `env:"ADMIN_IDS" envSeparator:"," validate:"min=1,dive,gt=0"`
	LogLevel          string  `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	DefaultLanguage   string  `env:"DEFAULT_LANGUAGE" envDefault:"uk" validate:"required"`
	PageSize          int     `env:"PAGE_SIZE" envDefault:"5" validate:"min=1,max=20"`
	Workers           int     `env:"WORKERS" envDefault:"4" validate:"min=1,max=64"`
	LanguageCacheSize int     `env:"LANGUAGE_CACHE_SIZE" envDefault:"10000" validate:"min=1"`

	Database DatabaseConfig `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Session  SessionConfig  `envPrefix:"SESSION_"`
	CRM      CRMConfig      `envPrefix:"CRM_"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DRIVER" envDefault:"sqlite" validate:"oneof=sqlite postgres"`
	Path            string        `env:"PATH" envDefault:"orders.db"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME" envDefault:"orders"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"2m"`
}

type RedisConfig struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TTL      time.Duration `env:"TTL" envDefault:"24h"`
}

type SessionConfig struct {
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT" envDefault:"0"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
}

type CRMConfig struct {
	BaseURL string        `env:"BASE_URL" validate:"omitempty,url"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file, parses the environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Database.Driver == "postgres" && (c.Database.User == "" || c.Database.Name == "") {
		return fmt.Errorf("invalid config: DB_USER and DB_NAME are required for postgres")
	}

	return nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.Database.Driver == "postgres" {
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.Name,
		)
	}

	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite", c.Database.Path)
}
