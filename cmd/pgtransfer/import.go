package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	importFormat string
	importClean  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an archive into the configured database",
	Long: `Restore a local archive into the configured database.
The database is created first when it does not exist. With --clean existing
objects are dropped, and an archive carrying a DATABASE entry recreates the database.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFormat, "format", "f", string(models.FormatCustom), "sql, custom or tar")
	importCmd.Flags().BoolVar(&importClean, "clean", false, "drop existing objects before restoring")
}

func runImport(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		log.Error().Err(err).Str("file", args[0]).Msg("failed to read archive")
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runnerSvc, err := runner.New(ctx, log.Logger, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		return err
	}

	result, err := runnerSvc.Import(ctx, models.ImportRequest{
		Content:  content,
		FileName: filepath.Base(args[0]),
		Format:   models.ExportFormat(importFormat),
		Clean:    importClean,
	})
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		return err
	}

	if !result.Success {
		fmt.Fprintln(os.Stderr, result.Stderr)
		log.Error().Str("error_code", string(result.ErrorCode)).Msg(result.Message)
		return fmt.Errorf("import failed with %s", result.ErrorCode)
	}

	log.Info().
		Bool("created_database", result.CreatedDatabase).
		Bool("recreated_database", result.RecreatedDatabase).
		Dur("duration", result.Duration).
		Msg(result.Message)
	return nil
}
