package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrEmptyCredential = errors.New("variable not specified or contains an empty string")

type Config struct {
	Env      string `validate:"oneof=local development production"` // Env is the current environment: local, dev, prod.
	HTTPPort int    `validate:"min=1,max=65535"`
	Postgres Postgres
	WB       Wildberries
}

type Postgres struct {
	Host            string `validate:"required"`
	Port            int    `validate:"min=1,max=65535"`
	User            string `validate:"required"`
	Password        string `validate:"required"`
	Database        string `validate:"required"`
	ConnectAttempts int    `validate:"min=1"` // ConnectAttempts is the readiness gate retry ceiling.
	ConnectBackoff  time.Duration
}

type Wildberries struct {
	SearchURL string        `validate:"required,url"`
	Timeout   time.Duration // Timeout is the upstream search client timeout.
}

// DSN builds the connection string. The database lives on the compose-internal
// network, so TLS is off.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
// It panics on a missing or invalid value, so misconfiguration surfaces at startup
// instead of on first use.
func MustLoad() *Config {
	// A local .env file is optional; deployments inject variables directly.
	_ = godotenv.Load()

	// Automatically binds environment variables to config keys
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("HTTP_PORT", 8000)
	viper.SetDefault("POSTGRES_HOST", "db")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("DB_CONNECT_ATTEMPTS", 10)
	viper.SetDefault("DB_CONNECT_BACKOFF", "1s")
	viper.SetDefault("WB_SEARCH_URL", "https://search.wb.ru/exactmatch/ru/common/v4/search")
	viper.SetDefault("WB_TIMEOUT", "30s")

	for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB"} {
		if viper.GetString(key) == "" {
			panic(fmt.Errorf("error getting %s: %w", key, ErrEmptyCredential))
		}
	}

	cfg := &Config{
		Env:      viper.GetString("ENV"),
		HTTPPort: viper.GetInt("HTTP_PORT"),
		Postgres: Postgres{
			Host:            viper.GetString("POSTGRES_HOST"),
			Port:            viper.GetInt("POSTGRES_PORT"),
			User:            viper.GetString("POSTGRES_USER"),
			Password:        viper.GetString("POSTGRES_PASSWORD"),
			Database:        viper.GetString("POSTGRES_DB"),
			ConnectAttempts: viper.GetInt("DB_CONNECT_ATTEMPTS"),
			ConnectBackoff:  viper.GetDuration("DB_CONNECT_BACKOFF"),
		},
		WB: Wildberries{
			SearchURL: viper.GetString("WB_SEARCH_URL"),
			Timeout:   viper.GetDuration("WB_TIMEOUT"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		panic(fmt.Errorf("config validation failed: %w", err))
	}

	return cfg
}
