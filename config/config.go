// Package config loads the settings shared by the finescale programs from a
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvDatabaseConnectionString = "DATABASE_CONNECTION_STRING"
	EnvCachePath                = "FINESCALE_CACHE_PATH"
)

var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

type CatalogueConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// CachePath is the page cache directory. Empty keeps pages in memory.
	CachePath       string        `yaml:"cache_path"`
	RequestInterval time.Duration `yaml:"request_interval" validate:"gte=0"`
	Burst           int           `yaml:"burst" validate:"min=1"`
	Concurrency     int           `yaml:"concurrency" validate:"min=1,max=64"`
}

type DatabaseConfig struct {
	ConnectionString string `yaml:"connection_string"`
}

type ScheduleConfig struct {
	Capacity int `yaml:"capacity" validate:"min=1,max=10"`
}

type Config struct {
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Database  DatabaseConfig  `yaml:"database"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

func Default() Config {
	return Config{
		Catalogue: CatalogueConfig{
			BaseURL:         "https://apps.ualberta.ca",
			CachePath:       "cache",
			RequestInterval: 15 * time.Second,
			Burst:           1,
			Concurrency:     4,
		},
		Schedule: ScheduleConfig{
			Capacity: 5,
		},
	}
}

// Load reads the file at path over the defaults, then applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvDatabaseConnectionString); v != "" {
		cfg.Database.ConnectionString = v
	}
	if v, ok := os.LookupEnv(EnvCachePath); ok {
		cfg.Catalogue.CachePath = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	var problems []string
	for _, e := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
