package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings. Values come from RELAY_* environment
// variables with working defaults for local development.
type Config struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	DBDriver       string        `envconfig:"DB_DRIVER" default:"sqlite3" validate:"oneof=sqlite3 postgres"`
	DBSource       string        `envconfig:"DB_SOURCE" default:"relay.db" validate:"required"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"change-me-in-production" validate:"min=8"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h" validate:"gt=0"`
	SendBuffer     int           `envconfig:"SEND_BUFFER" default:"256" validate:"gt=0"`
	MaxMessageSize int64         `envconfig:"MAX_MESSAGE_SIZE" default:"4096" validate:"gt=0"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("relay", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
