// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken    string `env:"DISCORD_TOKEN"`
	CommandPrefix   string `env:"COMMAND_PREFIX" envDefault:"!"`
	StoragePath     string `env:"STORAGE_PATH" envDefault:"data/console.json"`
	PermissionsPath string `env:"PERMISSIONS_PATH" envDefault:"permissions.yaml"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON       bool   `env:"LOG_JSON" envDefault:"false"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"64"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`

	RateLimit    float64       `env:"RATE_LIMIT" envDefault:"2"`
	RateBurst    int           `env:"RATE_BURST" envDefault:"5"`
	JobTimeout   time.Duration `env:"JOB_TIMEOUT" envDefault:"5m"`
	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"50"`
	MaxNesting   int           `env:"MAX_NESTING" envDefault:"10"`
}

var ErrInvalidConfig = errors.New("invalid config")

// Load reads envFile (if it exists) into the process environment and parses
// the result. An empty envFile means ".env". A missing file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.CommandPrefix == "":
		return fmt.Errorf("%w: COMMAND_PREFIX is empty", ErrInvalidConfig)
	case c.StoragePath == "":
		return fmt.Errorf("%w: STORAGE_PATH is empty", ErrInvalidConfig)
	case c.RateLimit <= 0:
		return fmt.Errorf("%w: RATE_LIMIT must be positive, got %v", ErrInvalidConfig, c.RateLimit)
	case c.RateBurst <= 0:
		return fmt.Errorf("%w: RATE_BURST must be positive, got %d", ErrInvalidConfig, c.RateBurst)
	case c.JobTimeout <= 0:
		return fmt.Errorf("%w: JOB_TIMEOUT must be positive, got %s", ErrInvalidConfig, c.JobTimeout)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("%w: HISTORY_LIMIT must be positive, got %d", ErrInvalidConfig, c.HistoryLimit)
	case c.MaxNesting <= 0:
		return fmt.Errorf("%w: MAX_NESTING must be positive, got %d", ErrInvalidConfig, c.MaxNesting)
	}
	return nil
}

// RequireDiscord reports whether the Discord adapter can start.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("%w: DISCORD_TOKEN is not set", ErrInvalidConfig)
	}
	return nil
}
