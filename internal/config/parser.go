// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PGTRANSFER_SERVER_LISTEN.
const EnvPrefix = "PGTRANSFER"

// Defaults.
const (
	DefaultListen          = ":8080"
	DefaultBasePath        = "/"
	DefaultMaxUploadBytes  = 512 << 20
	DefaultRateLimit       = 10
	DefaultReadTimeout     = 5 * time.Minute
	DefaultWriteTimeout    = 60 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second
	DefaultExportPrefix    = "backup"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	dataDir := filepath.Join(os.TempDir(), "pgtransfer")
	v.SetDefault("database.maintenance_db", connstr.DefaultMaintenanceDB)
	v.SetDefault("directories.exports", filepath.Join(dataDir, "exports"))
	v.SetDefault("directories.imports", filepath.Join(dataDir, "imports"))
	v.SetDefault("export.prefix", DefaultExportPrefix)
	v.SetDefault("server.listen", DefaultListen)
	v.SetDefault("server.base_path", DefaultBasePath)
	v.SetDefault("server.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("server.rate_limit_per_minute", DefaultRateLimit)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.ServiceConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.ServiceConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// LoadEnv builds the configuration from defaults and environment variables only.
func (p *Parser) LoadEnv() (*models.ServiceConfig, error) {
	return p.parse()
}

func (p *Parser) parse() (*models.ServiceConfig, error) {
	cfg := &models.ServiceConfig{
		Database: models.DatabaseConfig{
			URL:           p.expandEnv(p.v.GetString("database.url")),
			MaintenanceDB: p.v.GetString("database.maintenance_db"),
		},
		Directories: models.DirectoryConfig{
			Exports: p.expandEnv(p.v.GetString("directories.exports")),
			Imports: p.expandEnv(p.v.GetString("directories.imports")),
		},
		Export: models.ExportSettings{
			Prefix: p.v.GetString("export.prefix"),
		},
		Tools: models.ToolSettings{
			SearchPaths: p.expandAll(p.v.GetStringSlice("tools.search_paths")),
		},
		Server: models.ServerConfig{
			Listen:             p.v.GetString("server.listen"),
			BasePath:           p.v.GetString("server.base_path"),
			MaxUploadBytes:     p.v.GetInt64("server.max_upload_bytes"),
			RateLimitPerMinute: p.v.GetInt("server.rate_limit_per_minute"),
			ReadTimeout:        p.v.GetDuration("server.read_timeout"),
			WriteTimeout:       p.v.GetDuration("server.write_timeout"),
			ShutdownTimeout:    p.v.GetDuration("server.shutdown_timeout"),
		},
	}

	// Optional S3 mirror, enabled by a bucket.
	if bucket := p.expandEnv(p.v.GetString("s3.bucket")); bucket != "" {
		cfg.S3 = &models.S3Config{
			Bucket:    bucket,
			Prefix:    p.expandEnv(p.v.GetString("s3.prefix")),
			Region:    p.expandEnv(p.v.GetString("s3.region")),
			Endpoint:  p.expandEnv(p.v.GetString("s3.endpoint")),
			AccessKey: p.expandEnv(p.v.GetString("s3.access_key")),
			SecretKey: p.expandEnv(p.v.GetString("s3.secret_key")),
			PathStyle: p.v.GetBool("s3.path_style"),
		}
	}

	// Optional Telegram config.
	if p.v.IsSet("telegram") || p.v.GetString("telegram.bot_token") != "" {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

func (p *Parser) expandAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, p.expandEnv(s))
	}
	return out
}

// Validate performs validation on the loaded configuration. An empty
// database.url is allowed; operations then report the connection as not configured.
func Validate(cfg *models.ServiceConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Database.URL != "" {
		if _, err := connstr.Parse(cfg.Database.URL); err != nil {
			return fmt.Errorf("database.url: %w", err)
		}
	}

	if cfg.Directories.Exports == "" {
		return fmt.Errorf("directories.exports is required")
	}
	if cfg.Directories.Imports == "" {
		return fmt.Errorf("directories.imports is required")
	}

	if strings.ContainsAny(cfg.Export.Prefix, `/\`) {
		return fmt.Errorf("export.prefix must not contain path separators")
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes must not be negative")
	}
	if cfg.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}

	if cfg.Telegram != nil {
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return nil
}
