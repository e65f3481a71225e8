// Package config loads locgrid settings from the environment.
// Every field has a default except the optional integrations (database,
// translation API key, input and output directories), so an empty
// environment yields a working editor that downloads its output.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Translate TranslateConfig
	Session   SessionConfig
	Output    OutputConfig
	Database  DatabaseConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Languages LanguagesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout stays 0 so progress streams are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout applies to every route except progress streams.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig bounds how files are loaded into a session.
type UploadConfig struct {
	// MaxFileSize is the per-file ceiling in bytes (default: 10 MiB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxFiles is the most files accepted in one selection
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"50"`

	// MaxConcurrent is the number of load operations running at once
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a load waits for a slot before failing
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// ReadConcurrency is the number of files read in parallel per load
	ReadConcurrency int `env:"UPLOAD_READ_CONCURRENCY" default:"8"`

	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`

	// InputDir is the root of server-side folders that can be opened by
	// name. Empty disables folder loading.
	InputDir string `env:"INPUT_DIR"`
}

// TranslateConfig configures the machine-translation API and pacing.
type TranslateConfig struct {
	Endpoint string `env:"TRANSLATE_API_ENDPOINT" default:"https://translation.googleapis.com/language/translate/v2"`
	APIKey   string `env:"TRANSLATE_API_KEY" envAlt:"GOOGLE_TRANSLATE_API_KEY"`

	// SourceLanguage is the language of the keys being translated
	SourceLanguage string `env:"TRANSLATE_SOURCE_LANG" default:"en"`

	Timeout time.Duration `env:"TRANSLATE_TIMEOUT" default:"20s"`

	// BatchSize and BatchDelay pace whole-table translation
	BatchSize  int           `env:"TRANSLATE_BATCH_SIZE" default:"10"`
	BatchDelay time.Duration `env:"TRANSLATE_BATCH_DELAY" default:"1s"`

	// MaxConcurrent and QueueDelay pace every request through the queue
	MaxConcurrent int           `env:"TRANSLATE_MAX_CONCURRENT" default:"5"`
	QueueDelay    time.Duration `env:"TRANSLATE_QUEUE_DELAY" default:"500ms"`

	JobTimeout time.Duration `env:"TRANSLATE_JOB_TIMEOUT" default:"30m"`

	// Per-cell status display durations returned to the editor
	CellSuccessRevert time.Duration `env:"TRANSLATE_CELL_SUCCESS_REVERT" default:"1500ms"`
	CellErrorRevert   time.Duration `env:"TRANSLATE_CELL_ERROR_REVERT" default:"3s"`
}

// SessionConfig controls editor session lifetime.
type SessionConfig struct {
	IdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"2h"`
	JanitorInterval time.Duration `env:"SESSION_JANITOR_INTERVAL" default:"10m"`

	// JobRetention is how long finished translation jobs stay queryable
	JobRetention time.Duration `env:"SESSION_JOB_RETENTION" default:"5m"`
}

// OutputConfig controls where saved files go.
type OutputConfig struct {
	// Dir is the server-side save root. Empty means saves fall back to
	// browser downloads.
	Dir string `env:"OUTPUT_DIR"`

	// Label names the save folder when the files did not come from a folder
	Label string `env:"OUTPUT_LABEL" default:"translations"`
}

// DatabaseConfig holds the optional save-history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty disables save history.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"5"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// TranslateLimit is requests per minute for translation endpoints
	TranslateLimit int `env:"RATE_LIMIT_TRANSLATE" default:"30"`

	// UploadLimit is requests per minute for file loading endpoints
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// AccessTokens, when set, are required on every /api request
	AccessTokens []string `env:"ACCESS_TOKENS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json
	Format string `env:"LOG_FORMAT" default:"text"`
}

// LanguagesConfig points at an optional alias override file.
type LanguagesConfig struct {
	AliasFile string `env:"LANG_ALIAS_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
