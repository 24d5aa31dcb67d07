// Package config loads runtime settings from code defaults, an optional .env file,
// an optional YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverNeo4j    = "neo4j"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config contains runtime settings for the sync service
type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	HTTP struct {
		Host          string `yaml:"host" env:"HTTP_HOST"`
		Port          string `yaml:"port" env:"PORT" validate:"required,numeric"`
		OperatorToken string `yaml:"operator_token" env:"OPERATOR_TOKEN"`
	} `yaml:"http"`

	Sync struct {
		Interval     time.Duration `yaml:"interval" env:"SYNC_INTERVAL" validate:"min=1s"`
		MaxRecords   int           `yaml:"max_records" env:"SYNC_MAX_RECORDS" validate:"gt=0"`
		PageSize     int           `yaml:"page_size" env:"SYNC_PAGE_SIZE" validate:"gt=0,lte=100"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" env:"SYNC_FETCH_TIMEOUT" validate:"min=1s"`
		HookTimeout  time.Duration `yaml:"hook_timeout" env:"SYNC_HOOK_TIMEOUT" validate:"min=1s"`
		RunOnStart   bool          `yaml:"run_on_start" env:"SYNC_RUN_ON_START"`
	} `yaml:"sync"`

	Store struct {
		Driver    string `yaml:"driver" env:"STORE_DRIVER" validate:"oneof=neo4j postgres memory"`
		BatchSize int    `yaml:"batch_size" env:"STORE_BATCH_SIZE" validate:"gt=0"`
	} `yaml:"store"`

	Neo4j struct {
		URI      string `yaml:"uri" env:"NEO4J_URI"`
		Username string `yaml:"username" env:"NEO4J_USERNAME"`
		Password string `yaml:"password" env:"NEO4J_PASSWORD"`
		Database string `yaml:"database" env:"NEO4J_DATABASE"`
	} `yaml:"neo4j"`

	Postgres struct {
		URL string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"postgres"`

	Lock struct {
		RedisURL string        `yaml:"redis_url" env:"LOCK_REDIS_URL"`
		TTL      time.Duration `yaml:"ttl" env:"LOCK_TTL" validate:"min=1s"`
	} `yaml:"lock"`

	Adzuna struct {
		AppID         string `yaml:"app_id" env:"ADZUNA_APP_ID"`
		AppKey        string `yaml:"app_key" env:"ADZUNA_APP_KEY"`
		Country       string `yaml:"country" env:"ADZUNA_COUNTRY" validate:"len=2"`
		BaseURL       string `yaml:"base_url" env:"ADZUNA_BASE_URL" validate:"omitempty,url"`
		Keyword       string `yaml:"keyword" env:"ADZUNA_KEYWORD"`
		Location      string `yaml:"location" env:"ADZUNA_LOCATION"`
		RatePerMinute int    `yaml:"rate_per_minute" env:"ADZUNA_RATE_PER_MINUTE" validate:"gte=0"`
	} `yaml:"adzuna"`

	Arbeitsagentur struct {
		APIKey        string `yaml:"api_key" env:"ARBEITSAGENTUR_API_KEY"`
		BaseURL       string `yaml:"base_url" env:"ARBEITSAGENTUR_BASE_URL" validate:"omitempty,url"`
		Keyword       string `yaml:"keyword" env:"ARBEITSAGENTUR_KEYWORD"`
		Location      string `yaml:"location" env:"ARBEITSAGENTUR_LOCATION"`
		RatePerMinute int    `yaml:"rate_per_minute" env:"ARBEITSAGENTUR_RATE_PER_MINUTE" validate:"gte=0"`
	} `yaml:"arbeitsagentur"`

	Tracing struct {
		Endpoint string `yaml:"endpoint" env:"TRACING_ENDPOINT" validate:"omitempty,url"`
	} `yaml:"tracing"`

	Sheets struct {
		CredentialsPath string `yaml:"credentials_path" env:"SHEETS_CREDENTIALS_PATH"`
		SpreadsheetID   string `yaml:"spreadsheet_id" env:"SHEETS_SPREADSHEET_ID"`
		Tab             string `yaml:"tab" env:"SHEETS_TAB"`
	} `yaml:"sheets"`
}

// Default returns the built-in settings
func Default() Config {
	var cfg Config
	cfg.LogLevel = "info"
	cfg.HTTP.Host = "0.0.0.0"
	cfg.HTTP.Port = "8080"
	cfg.Sync.Interval = 24 * time.Hour
	cfg.Sync.MaxRecords = 200
	cfg.Sync.PageSize = 50
	cfg.Sync.FetchTimeout = 20 * time.Second
	cfg.Sync.HookTimeout = 2 * time.Minute
	cfg.Sync.RunOnStart = true
	cfg.Store.Driver = DriverNeo4j
	cfg.Store.BatchSize = 500
	cfg.Lock.TTL = 30 * time.Minute
	cfg.Adzuna.Country = "de"
	cfg.Adzuna.RatePerMinute = 25
	cfg.Arbeitsagentur.RatePerMinute = 60
	cfg.Sheets.Tab = "jobs"
	return cfg
}

// Load layers .env, the optional YAML file at path and the environment over Default
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("config: load .env: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints and the settings the chosen store driver needs
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var missing []string
	switch c.Store.Driver {
	case DriverNeo4j:
		if c.Neo4j.URI == "" {
			missing = append(missing, "NEO4J_URI")
		}
		if c.Neo4j.Username == "" {
			missing = append(missing, "NEO4J_USERNAME")
		}
		if c.Neo4j.Password == "" {
			missing = append(missing, "NEO4J_PASSWORD")
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings for store driver %q: %v", c.Store.Driver, missing)
	}
	return nil
}

// AdzunaEnabled reports whether Adzuna credentials are present
func (c Config) AdzunaEnabled() bool {
	return c.Adzuna.AppID != "" && c.Adzuna.AppKey != ""
}

// SheetsEnabled reports whether the after-pass spreadsheet export is configured
func (c Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}
