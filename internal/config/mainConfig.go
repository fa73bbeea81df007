// Package config main config
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v7"
)

// MainConfig with init data
type MainConfig struct {
	PostgresPort     string `env:"POSTGRES_PORT,notEmpty" envDefault:"5432"`
	PostgresHost     string `env:"POSTGRES_HOST,notEmpty" envDefault:"localhost"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,notEmpty" envDefault:"postgres"`
	PostgresUser     string `env:"POSTGRES_USER,notEmpty" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB,notEmpty" envDefault:"postgres"`
	Port             string `env:"PORT,notEmpty" envDefault:"5000"`
	Host             string `env:"HOST,notEmpty" envDefault:"localhost"`

	RedisAddr     string `env:"REDIS_ADDR,notEmpty" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`

	UserServiceURL string `env:"USER_SERVICE_URL,notEmpty" envDefault:"http://localhost:8000/api/user"`
	UserToken      string `env:"USER_TOKEN" envDefault:""`

	QuoteServiceURL string `env:"QUOTE_SERVICE_URL,notEmpty" envDefault:"https://api.binance.com/api/v3"`

	DefaultPair       string        `env:"DEFAULT_PAIR,notEmpty" envDefault:"BTCUSDT"`
	PricePollInterval time.Duration `env:"PRICE_POLL_INTERVAL" envDefault:"5s"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1s"`
}

// NewMainConfig parsing config from environment
func NewMainConfig() (*MainConfig, error) {
	mainConfig := &MainConfig{}

	err := env.Parse(mainConfig)
	if err != nil {
		return nil, fmt.Errorf("config - NewMainConfig - Parse:%w", err)
	}

	return mainConfig, nil
}
