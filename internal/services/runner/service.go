// Package runner orchestrates export and import operations.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fgeck/pgtransfer/internal/metrics"
	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/fgeck/pgtransfer/internal/services/dblock"
	"github.com/fgeck/pgtransfer/internal/services/dbprobe"
	"github.com/fgeck/pgtransfer/internal/services/executor"
	"github.com/fgeck/pgtransfer/internal/services/exporter"
	"github.com/fgeck/pgtransfer/internal/services/importer"
	"github.com/fgeck/pgtransfer/internal/services/objectstore"
	"github.com/fgeck/pgtransfer/internal/services/telegram"
	"github.com/fgeck/pgtransfer/internal/services/tools"
	"github.com/rs/zerolog"
)

// Service defines the interface for the transfer runner.
type Service interface {
	Export(ctx context.Context, req models.ExportRequest) (*models.ExportManifest, error)
	Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error)
	Tools(ctx context.Context) models.ToolInventory
	List(ctx context.Context) []models.ExportEntry
	Ready(ctx context.Context) error
}

// Services bundles the collaborators of the runner.
type Services struct {
	Exporter exporter.Service
	Importer importer.Service
	Tools    tools.Service
	Probe    dbprobe.Service
	Mirror   objectstore.Service // nil disables mirroring
	Telegram telegram.Service
}

// Impl implements the runner Service interface.
type Impl struct {
	svc         Services
	locker      *dblock.Locker
	logger      zerolog.Logger
	lockKey     string
	database    string
	telegramCfg *models.TelegramConfig
}

// New creates a runner with the default services built from cfg.
func New(ctx context.Context, logger zerolog.Logger, cfg *models.ServiceConfig) (*Impl, error) {
	exec := executor.NewLogging(logger, executor.New())
	toolsSvc := tools.New(logger, exec, cfg.Tools.SearchPaths)

	svc := Services{
		Exporter: exporter.New(logger, exec, toolsSvc, exporter.Settings{
			ConnectionString: cfg.Database.URL,
			Dir:              cfg.Directories.Exports,
			Prefix:           cfg.Export.Prefix,
		}),
		Importer: importer.New(logger, exec, toolsSvc, importer.Settings{
			ConnectionString: cfg.Database.URL,
			Dir:              cfg.Directories.Imports,
			MaintenanceDB:    cfg.Database.MaintenanceDB,
		}),
		Tools:    toolsSvc,
		Probe:    dbprobe.New(logger, cfg.Database.URL),
		Telegram: telegram.New(logger),
	}

	if cfg.S3 != nil {
		store, err := objectstore.NewS3(ctx, logger, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to set up S3 mirror: %w", err)
		}
		svc.Mirror = store
	}

	return NewWithServices(logger, svc, cfg.Database.URL, cfg.Telegram), nil
}

// NewWithServices creates a runner with custom services (for testing).
func NewWithServices(logger zerolog.Logger, svc Services, connString string, telegramCfg *models.TelegramConfig) *Impl {
	database, _ := connstr.DatabaseName(connString)
	return &Impl{
		svc:         svc,
		locker:      dblock.New(),
		logger:      logger,
		lockKey:     connstr.Identity(connString),
		database:    database,
		telegramCfg: telegramCfg,
	}
}

// Export runs one export while holding the database lock. A configured mirror
// receives the artifact afterwards; mirroring failures are only logged.
func (s *Impl) Export(ctx context.Context, req models.ExportRequest) (*models.ExportManifest, error) {
	startTime := time.Now()

	// Requests that can never run are rejected without waiting for the lock.
	if _, err := models.ParseExportFormat(string(req.Format)); err != nil {
		metrics.RecordExport(req.Format, metrics.ResultInvalid, 0, 0)
		return nil, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		metrics.RecordExport(req.Format, metrics.ResultBusy, 0, 0)
		return nil, err
	}
	defer unlock()

	manifest, err := s.svc.Exporter.Export(ctx, req)
	duration := time.Since(startTime)

	if err != nil {
		result := resultLabel(err)
		metrics.RecordExport(req.Format, result, duration, 0)
		if result == metrics.ResultFailure {
			s.notify(ctx, models.TelegramMessage{
				Operation:    "export",
				Format:       req.Format,
				StartTime:    startTime,
				Duration:     duration,
				ErrorMessage: err.Error(),
			})
		}
		return nil, err
	}

	metrics.RecordExport(manifest.Format, metrics.ResultSuccess, duration, manifest.SizeBytes)

	if s.svc.Mirror != nil {
		keys, mirrorErr := s.svc.Mirror.Mirror(ctx, manifest)
		metrics.RecordMirror(mirrorErr)
		if mirrorErr != nil {
			s.logger.Warn().Err(mirrorErr).Str("file", manifest.FileName).Msg("failed to mirror export")
		} else {
			manifest.Mirrored = true
			s.logger.Info().Strs("keys", keys).Msg("export mirrored")
		}
	}

	s.notify(ctx, models.TelegramMessage{
		Operation: "export",
		Success:   true,
		Format:    manifest.Format,
		StartTime: startTime,
		Duration:  time.Since(startTime),
		FileName:  manifest.FileName,
		SizeBytes: manifest.SizeBytes,
	})

	return manifest, nil
}

// Import runs one import while holding the database lock.
func (s *Impl) Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	startTime := time.Now()

	if _, err := importer.ValidateRequest(req); err != nil {
		metrics.RecordImport(req.Format, metrics.ResultInvalid, models.ErrorCodeNone, 0)
		return nil, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		metrics.RecordImport(req.Format, metrics.ResultBusy, models.ErrorCodeNone, 0)
		return nil, err
	}
	defer unlock()

	result, err := s.svc.Importer.Import(ctx, req)
	duration := time.Since(startTime)

	msg := models.TelegramMessage{
		Operation: "import",
		Format:    req.Format,
		StartTime: startTime,
		Duration:  duration,
		FileName:  req.FileName,
		SizeBytes: int64(len(req.Content)),
	}

	if err != nil {
		label := resultLabel(err)
		metrics.RecordImport(req.Format, label, models.ErrorCodeNone, duration)
		if label == metrics.ResultFailure {
			msg.ErrorMessage = err.Error()
			s.notify(ctx, msg)
		}
		return nil, err
	}

	if result.Success {
		metrics.RecordImport(req.Format, metrics.ResultSuccess, models.ErrorCodeNone, duration)
	} else {
		metrics.RecordImport(req.Format, metrics.ResultFailure, result.ErrorCode, duration)
		msg.ErrorCode = string(result.ErrorCode)
		msg.ErrorMessage = result.Stderr
	}
	msg.Success = result.Success
	s.notify(ctx, msg)

	return result, nil
}

// Tools returns the current tool inventory and publishes it as metrics.
func (s *Impl) Tools(ctx context.Context) models.ToolInventory {
	inv := s.svc.Tools.Detect(ctx)
	metrics.UpdateToolGauges(inv)
	return inv
}

// List returns the exports on disk.
func (s *Impl) List(ctx context.Context) []models.ExportEntry {
	return s.svc.Exporter.List(ctx)
}

// Ready pings the configured database.
func (s *Impl) Ready(ctx context.Context) error {
	return s.svc.Probe.Ping(ctx)
}

func (s *Impl) lock(ctx context.Context) (func(), error) {
	waitStart := time.Now()
	unlock, err := s.locker.Lock(ctx, s.lockKey)
	metrics.LockWaitDuration.Observe(time.Since(waitStart).Seconds())
	if err != nil {
		s.logger.Warn().Err(err).Str("database", s.lockKey).Msg("gave up waiting for database lock")
		return nil, err
	}
	return unlock, nil
}

func (s *Impl) notify(ctx context.Context, msg models.TelegramMessage) {
	if s.telegramCfg == nil || s.svc.Telegram == nil {
		return
	}
	msg.Database = s.database

	result, err := s.svc.Telegram.SendNotification(ctx, *s.telegramCfg, msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("failed to send Telegram notification")
		return
	}

	s.logger.Info().Msg("Telegram notification sent")
}

// resultLabel separates rejected requests from failed operations.
func resultLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidFormat),
		errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, models.ErrConnectionNotConfigured):
		return metrics.ResultInvalid
	case errors.Is(err, dblock.ErrBusy):
		return metrics.ResultBusy
	default:
		return metrics.ResultFailure
	}
}
