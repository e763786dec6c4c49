package main

import (
	"fmt"

	"github.com/fgeck/pgtransfer/internal/config"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the configuration without running any export or import.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Summary:")
	if cfg.Database.URL == "" {
		fmt.Println("  Database: (not configured)")
	} else {
		fmt.Printf("  Database: %s\n", connstr.Redact(cfg.Database.URL))
		fmt.Printf("  Target: %s\n", connstr.Identity(cfg.Database.URL))
	}
	fmt.Printf("  Maintenance DB: %s\n", cfg.Database.MaintenanceDB)
	fmt.Printf("  Exports: %s\n", cfg.Directories.Exports)
	fmt.Printf("  Imports: %s\n", cfg.Directories.Imports)
	fmt.Printf("  Export prefix: %s\n", cfg.Export.Prefix)
	if len(cfg.Tools.SearchPaths) > 0 {
		fmt.Printf("  Tool search paths: %v\n", cfg.Tools.SearchPaths)
	}
	fmt.Println()
	fmt.Println("Server:")
	fmt.Printf("  Listen: %s\n", cfg.Server.Listen)
	fmt.Printf("  Base path: %s\n", cfg.Server.BasePath)
	fmt.Printf("  Max upload: %d bytes\n", cfg.Server.MaxUploadBytes)
	fmt.Printf("  Rate limit: %d/min\n", cfg.Server.RateLimitPerMinute)
	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  S3 mirror: %v\n", cfg.S3 != nil)
	fmt.Printf("  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.S3 != nil {
		fmt.Println()
		fmt.Println("S3 Configuration:")
		fmt.Printf("  Bucket: %s\n", cfg.S3.Bucket)
		fmt.Printf("  Prefix: %s\n", cfg.S3.Prefix)
		if cfg.S3.Endpoint != "" {
			fmt.Printf("  Endpoint: %s\n", cfg.S3.Endpoint)
		}
	}

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	return nil
}
