package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageS3    = "s3"
	StorageLocal = "local"

	maxImportWorkers = 10
)

type ImportOptions struct {
	BatchSize            int           `env:"IMPORT_BATCH_SIZE" envDefault:"500"`
	ProgressInterval     time.Duration `env:"IMPORT_PROGRESS_INTERVAL" envDefault:"5s"`
	RepositoryTenantSlug string        `env:"IMPORT_REPOSITORY_TENANT_SLUG"`
}

type WorkerOptions struct {
	Enabled      bool          `env:"IMPORT_WORKER_ENABLED" envDefault:"true"`
	Workers      int           `env:"IMPORT_WORKERS" envDefault:"4"`
	PollInterval time.Duration `env:"IMPORT_POLL_INTERVAL" envDefault:"2s"`
	StaleAfter   time.Duration `env:"IMPORT_STALE_AFTER" envDefault:"30m"`
}

type StorageOptions struct {
	Backend         string `env:"STORAGE_BACKEND" envDefault:"s3"`
	Bucket          string `env:"STORAGE_BUCKET" envDefault:"imports"`
	Endpoint        string `env:"STORAGE_ENDPOINT"`
	Region          string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"STORAGE_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"STORAGE_USE_PATH_STYLE" envDefault:"false"`
	LocalDir        string `env:"STORAGE_LOCAL_DIR" envDefault:"."`
}

type Config struct {
	DatabaseURL        string   `env:"DATABASE_URL,required"`
	Port               int      `env:"PORT" envDefault:"8080"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	Import  ImportOptions
	Worker  WorkerOptions
	Storage StorageOptions
}

// Load reads the optional env files that exist, then the process environment.
// Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	return parse(env.Options{})
}

// FromMap builds a configuration from an explicit set of variables.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.Import.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", c.Import.BatchSize))
	}
	if c.Import.ProgressInterval <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_PROGRESS_INTERVAL must be positive, got %s", c.Import.ProgressInterval))
	}
	if c.Worker.Workers < 1 || c.Worker.Workers > maxImportWorkers {
		errs = append(errs, fmt.Errorf("IMPORT_WORKERS must be between 1 and %d, got %d", maxImportWorkers, c.Worker.Workers))
	}
	if c.Worker.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_POLL_INTERVAL must be positive, got %s", c.Worker.PollInterval))
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case StorageS3:
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET is required for the s3 backend"))
		}
	case StorageLocal:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageS3, StorageLocal, c.Storage.Backend))
	}

	return errors.Join(errs...)
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
