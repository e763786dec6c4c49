// Package importer restores uploaded archives into the configured database.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/executor"
	"github.com/fgeck/pgtransfer/internal/services/tools"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service defines the interface for import operations.
type Service interface {
	Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error)
}

// Settings configures the importer.
type Settings struct {
	ConnectionString string
	Dir              string
	MaintenanceDB    string
}

// Impl implements the importer Service interface.
type Impl struct {
	executor executor.CommandExecutor
	tools    tools.Service
	logger   zerolog.Logger
	settings Settings
	newID    func() string
}

// New creates a new import service.
func New(logger zerolog.Logger, exec executor.CommandExecutor, toolsSvc tools.Service, settings Settings) *Impl {
	return &Impl{
		executor: exec,
		tools:    toolsSvc,
		logger:   logger,
		settings: settings,
		newID:    func() string { return uuid.New().String() },
	}
}

// RestoreOptions selects the pg_restore flags that vary per import.
type RestoreOptions struct {
	Clean  bool
	Create bool
}

// Import restores req into the configured database.
//
// Errors are returned for invalid requests and for failures before the restore
// tool runs. A failed restore is reported in the result with its error code
// and raw stderr. The uploaded file is removed on every path.
func (s *Impl) Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	format, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}
	if s.settings.ConnectionString == "" {
		return nil, models.ErrConnectionNotConfigured
	}

	start := time.Now()
	inv := s.tools.Detect(ctx)

	prep, err := s.Prepare(ctx, s.settings.ConnectionString, inv)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("database", prep.Database).
		Str("file", req.FileName).
		Str("format", string(format)).
		Bool("clean", req.Clean).
		Bool("created", prep.Created).
		Msg("starting import")

	uploadPath, err := s.persistUpload(req)
	if err != nil {
		return nil, err
	}
	defer s.removeQuietly(uploadPath)

	result := &models.ImportResult{CreatedDatabase: prep.Created}

	var toolPath string
	var args []string
	if format == models.FormatSQL {
		psql := inv.InteractiveSQL
		result.Tool = psql.Name
		toolPath = psql.Path
		args = BuildSQLArgs(prep.TargetConn, uploadPath)
	} else {
		restore := inv.Restore
		result.Tool = restore.Name
		if !restore.Available {
			return nil, fmt.Errorf("%w: %s", models.ErrToolUnavailable, restore.Name)
		}
		toolPath = restore.Path

		conn := prep.TargetConn
		opts := RestoreOptions{Clean: req.Clean}
		if req.Clean && s.ArchiveHasCreateDatabase(ctx, restore.Path, uploadPath) {
			// pg_restore cannot recreate the database it is connected to.
			opts.Create = true
			conn = prep.MaintenanceConn
			result.UsedMaintenanceConnection = true
			result.RecreatedDatabase = true
		}
		args = BuildRestoreArgs(opts, conn, uploadPath)
	}

	execResult := s.executor.Execute(ctx, toolPath, args, executor.Options{})
	result.Duration = time.Since(start)

	if !execResult.Success {
		result.ErrorCode = ClassifyFailure(execResult.Output(), req.Clean)
		result.Stderr = execResult.Output()
		result.Message = "import failed"
		if result.ErrorCode == models.ErrorCodeConflict {
			result.Message = "import failed: objects already exist in the target database; retry with clean enabled"
		}
		result.Error = &models.ExecutionError{Tool: result.Tool, Stderr: strings.TrimSpace(result.Stderr)}

		s.logger.Warn().
			Str("database", prep.Database).
			Str("error_code", string(result.ErrorCode)).
			Dur("duration", result.Duration).
			Msg("import failed")
		return result, nil
	}

	result.Success = true
	result.RequireReauth = true
	result.Message = "import completed"

	s.logger.Info().
		Str("database", prep.Database).
		Bool("recreated", result.RecreatedDatabase).
		Dur("duration", result.Duration).
		Msg("import completed")

	return result, nil
}

// ValidateRequest checks req without touching the filesystem or the database
// and returns its parsed format.
func ValidateRequest(req models.ImportRequest) (models.ExportFormat, error) {
	if len(req.Content) == 0 || strings.TrimSpace(req.FileName) == "" {
		return "", fmt.Errorf("%w: file content and file name are required", models.ErrInvalidRequest)
	}
	format, err := models.ParseExportFormat(string(req.Format))
	if err != nil {
		return "", err
	}
	if format == models.FormatDirectory {
		return "", fmt.Errorf("%w: directory archives cannot be uploaded as a single file", models.ErrInvalidFormat)
	}
	return format, nil
}

// ArchiveHasCreateDatabase inspects the archive's table of contents for a
// DATABASE entry. A listing failure counts as no entry.
func (s *Impl) ArchiveHasCreateDatabase(ctx context.Context, restorePath, archive string) bool {
	result := s.executor.Execute(ctx, restorePath, []string{"--list", archive}, executor.Options{})
	if !result.Success {
		s.logger.Warn().Str("archive", archive).Msg("could not list archive contents")
		return false
	}
	return HasCreateDatabaseEntry(result.Stdout)
}

// BuildRestoreArgs returns the pg_restore arguments, ending with the connection and the archive.
func BuildRestoreArgs(opts RestoreOptions, conn, archive string) []string {
	var args []string
	if opts.Clean {
		args = append(args, "--clean", "--if-exists")
	}
	if opts.Create {
		args = append(args, "--create")
	} else {
		// pg_restore rejects --single-transaction together with --create.
		args = append(args, "--single-transaction")
	}
	args = append(args,
		"--no-owner",
		"--no-privileges",
		"--exit-on-error",
		"--dbname="+conn,
		archive,
	)
	return args
}

// BuildSQLArgs returns the psql arguments for replaying a plain SQL dump.
func BuildSQLArgs(conn, script string) []string {
	return []string{
		"-X",
		"-v", "ON_ERROR_STOP=1",
		"--single-transaction",
		"-f", script,
		"--dbname=" + conn,
	}
}

func (s *Impl) persistUpload(req models.ImportRequest) (string, error) {
	if err := os.MkdirAll(s.settings.Dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create import directory: %w", err)
	}

	base := filepath.Base(filepath.Clean("/" + req.FileName))
	path := filepath.Join(s.settings.Dir, s.newID()+"-"+base)
	if err := os.WriteFile(path, req.Content, 0o600); err != nil {
		s.removeQuietly(path)
		return "", fmt.Errorf("failed to persist upload: %w", err)
	}
	return path, nil
}
