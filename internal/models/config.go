// Package models contains the data structures used throughout pgtransfer.
package models

import "time"

// ServiceConfig holds the complete configuration for the transfer service.
type ServiceConfig struct {
	Database    DatabaseConfig
	Directories DirectoryConfig
	Export      ExportSettings
	Tools       ToolSettings
	Server      ServerConfig
	S3          *S3Config       // nil if not configured
	Telegram    *TelegramConfig // nil if not configured
}

// DatabaseConfig holds the connection to the database being exported or imported.
type DatabaseConfig struct {
	URL           string // empty means not configured
	MaintenanceDB string // always-present administrative database, "postgres" by default
}

// DirectoryConfig holds the artifact directories. Both are created on first use.
type DirectoryConfig struct {
	Exports string
	Imports string
}

// ExportSettings holds export naming settings.
type ExportSettings struct {
	Prefix string
}

// ToolSettings holds extra tool discovery settings.
type ToolSettings struct {
	SearchPaths []string // probed before the platform defaults
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen             string
	BasePath           string
	MaxUploadBytes     int64
	RateLimitPerMinute int // 0 disables rate limiting
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
}

// S3Config holds the optional bucket completed exports are mirrored to.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // optional, for S3-compatible stores
	AccessKey string // optional, default credential chain otherwise
	SecretKey string
	PathStyle bool
}
