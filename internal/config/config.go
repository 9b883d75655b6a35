// Package config defines the global configuration structure for the
// snowtracker services. Configuration is loaded once at process startup and is
// immutable thereafter, following 12-Factor principles: all values come from
// the environment, with an optional .env file for local development.
//
// Any missing required value or invalid format fails the process immediately
// on startup.
package config

import (
	"time"

	"snowtracker/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// config subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"snowtracker"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Database DatabaseConfig
	NWS      NWSConfig
	Geocoder GeocoderConfig
	Fetch    FetchConfig
	Detect   DetectConfig
	Webhook  WebhookConfig

	// Build metadata injected via ldflags, not env.
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// NWSConfig holds National Weather Service API settings. The NWS asks clients
// to identify themselves via the User-Agent header.
type NWSConfig struct {
	BaseURL   string        `envconfig:"NWS_BASE_URL" default:"https://api.weather.gov" validate:"url"`
	UserAgent string        `envconfig:"NWS_USER_AGENT" default:"snowtracker (ops@snowtracker.io)"`
	Timeout   time.Duration `envconfig:"NWS_TIMEOUT" default:"15s"`
}

// GeocoderConfig holds the zip-code geocoding service settings.
type GeocoderConfig struct {
	BaseURL string        `envconfig:"GEOCODER_BASE_URL" default:"https://api.zippopotam.us" validate:"url"`
	Timeout time.Duration `envconfig:"GEOCODER_TIMEOUT" default:"10s"`
}

// FetchConfig holds the forecast fetch scheduler settings.
type FetchConfig struct {
	Interval    time.Duration `envconfig:"FETCH_INTERVAL" default:"1h"`
	Concurrency int           `envconfig:"FETCH_CONCURRENCY" default:"4" validate:"min=1,max=32"`
}

// DetectConfig holds the detection engine noise floors. Defaults match the
// engine's built-in thresholds; override only for tuning experiments.
type DetectConfig struct {
	QualifyingDayInches float64 `envconfig:"DETECT_QUALIFYING_DAY_INCHES" default:"0.5"`
	DiscardBestInches   float64 `envconfig:"DETECT_DISCARD_BEST_INCHES" default:"0.5"`
	DiscardHighInches   float64 `envconfig:"DETECT_DISCARD_HIGH_INCHES" default:"1.0"`
	TrendNoiseInches    float64 `envconfig:"DETECT_TREND_NOISE_INCHES" default:"1.0"`
	LookbackDays        int     `envconfig:"DETECT_LOOKBACK_DAYS" default:"7" validate:"min=1"`
}

// WebhookConfig holds settings for outbound alert webhook delivery.
type WebhookConfig struct {
	// URL is the alert destination. Empty disables webhook delivery.
	URL           string        `envconfig:"WEBHOOK_URL" validate:"omitempty,url"`
	Format        string        `envconfig:"WEBHOOK_FORMAT" default:"generic" validate:"oneof=generic slack"`
	SigningSecret SecretString  `envconfig:"WEBHOOK_SIGNING_SECRET"`
	UserAgent     string        `envconfig:"WEBHOOK_USER_AGENT" default:"SnowTracker-Webhook/1.0"`
	Timeout       time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
}

// BuildInfo holds build-time metadata injected via ldflags. These values are
// not populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure parsing environment variable values into
	// their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
