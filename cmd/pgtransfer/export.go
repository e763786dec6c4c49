package main

import (
	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	exportFormat     string
	exportSchemaOnly bool
	exportDataOnly   bool
	exportNoData     bool
	exportNoCompress bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the configured database once",
	Long:  `Run pg_dump against the configured database and print the manifest of the produced artifact.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(models.FormatCustom), "sql, custom, tar or directory")
	exportCmd.Flags().BoolVar(&exportSchemaOnly, "schema-only", false, "export the schema only")
	exportCmd.Flags().BoolVar(&exportDataOnly, "data-only", false, "export the data only")
	exportCmd.Flags().BoolVar(&exportNoData, "no-data", false, "exclude data (same as --schema-only)")
	exportCmd.Flags().BoolVar(&exportNoCompress, "no-compress", false, "disable compression")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	manifest, err := runnerSvc.Export(ctx, models.ExportRequest{
		Format:      models.ExportFormat(exportFormat),
		IncludeData: !exportNoData,
		SchemaOnly:  exportSchemaOnly,
		DataOnly:    exportDataOnly,
		Compress:    !exportNoCompress,
	})
	if err != nil {
		log.Error().Err(err).Msg("export failed")
		return err
	}

	return printJSON(manifest)
}
