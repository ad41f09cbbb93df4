// Package config loads the command-line tool's settings from environment variables.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Export   ExportConfig
	Import   ImportConfig
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ExportConfig holds workbook output settings.
type ExportConfig struct {
	// PageSize is the number of records fetched per page (default: 100)
	PageSize int `env:"EXPORT_PAGE_SIZE" default:"100"`

	// MaxRowsPerSheet caps the rows of a sheet, header included (default: worksheet limit)
	MaxRowsPerSheet int `env:"EXPORT_MAX_ROWS_PER_SHEET" default:"1048576"`

	// SheetName is the base of generated sheet names (default: Sheet)
	SheetName string `env:"EXPORT_SHEET_NAME" default:"Sheet"`

	// StyleFile is an optional YAML sheet style
	StyleFile string `env:"EXPORT_STYLE_FILE"`
}

// ImportConfig holds workbook input settings.
type ImportConfig struct {
	// StartRow is the first row decoded (default: 2, below the header)
	StartRow int `env:"IMPORT_START_ROW" default:"2"`

	// PageSize flushes decoded records in pages when positive (default: 0, no paging)
	PageSize int `env:"IMPORT_PAGE_SIZE" default:"0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout bounds reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// ShutdownTimeout is the grace period for in-flight downloads (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// MaxExportRows caps the rows query parameter of /export (default: 100000)
	MaxExportRows int `env:"SERVER_MAX_EXPORT_ROWS" default:"100000"`
}

// DatabaseConfig holds the optional PostgreSQL page source.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; exports use sample data when empty
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Query selects the exported rows and should be ordered
	Query string `env:"EXPORT_QUERY" default:"SELECT id, name, mobile, age, vip, joined, balance FROM customers ORDER BY joined, id"`

	// MaxConns is the maximum number of pooled connections (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
