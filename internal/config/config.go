package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port          int    `envconfig:"PORT" default:"8080"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	Version       string `envconfig:"VERSION" default:"dev"`
	SweepInterval int    `envconfig:"SWEEP_INTERVAL" default:"10"`
	SweepBatch    int    `envconfig:"SWEEP_BATCH" default:"100"`
}

// Load reads configuration from the environment into a Config struct.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
