// Package exporter produces pg_dump exports and lists the ones already on disk.
package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/fgeck/pgtransfer/internal/services/executor"
	"github.com/fgeck/pgtransfer/internal/services/tools"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultPrefix is used for export file names when none is configured.
const DefaultPrefix = "backup"

// Service defines the interface for export operations.
type Service interface {
	Export(ctx context.Context, req models.ExportRequest) (*models.ExportManifest, error)
	List(ctx context.Context) []models.ExportEntry
}

// Settings configures the exporter.
type Settings struct {
	ConnectionString string
	Dir              string
	Prefix           string
}

// Impl implements the exporter Service interface.
type Impl struct {
	executor executor.CommandExecutor
	tools    tools.Service
	logger   zerolog.Logger
	settings Settings
	now      func() time.Time
	newID    func() string
}

// New creates a new export service.
func New(logger zerolog.Logger, exec executor.CommandExecutor, toolsSvc tools.Service, settings Settings) *Impl {
	if settings.Prefix == "" {
		settings.Prefix = DefaultPrefix
	}
	return &Impl{
		executor: exec,
		tools:    toolsSvc,
		logger:   logger,
		settings: settings,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Export runs pg_dump for req and returns the manifest of the produced artifact.
// Validation failures return before any process is started. A failed dump
// leaves any partial artifact in place.
func (s *Impl) Export(ctx context.Context, req models.ExportRequest) (*models.ExportManifest, error) {
	format, err := models.ParseExportFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	req.Format = format

	if s.settings.ConnectionString == "" {
		return nil, models.ErrConnectionNotConfigured
	}

	inv := s.tools.Detect(ctx)
	if !inv.Dump.Available {
		return nil, fmt.Errorf("%w: %s", models.ErrToolUnavailable, inv.Dump.Name)
	}

	if err := os.MkdirAll(s.settings.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	createdAt := s.now().UTC()
	exportID := s.newID()
	fileName := FileName(s.settings.Prefix, createdAt, exportID, format)
	outputPath := filepath.Join(s.settings.Dir, fileName)

	s.logger.Info().
		Str("export_id", exportID).
		Str("format", string(format)).
		Str("scope", DataScopeFlag(req)).
		Str("output", outputPath).
		Msg("starting export")

	args := BuildArgs(req, outputPath, connstr.Sanitize(s.settings.ConnectionString))
	result := s.executor.Execute(ctx, inv.Dump.Path, args, executor.Options{})
	if !result.Success {
		return nil, &models.ExecutionError{Tool: inv.Dump.Name, Stderr: strings.TrimSpace(result.Output())}
	}

	manifest := &models.ExportManifest{
		ExportID:  exportID,
		FileName:  fileName,
		FilePath:  outputPath,
		Format:    format,
		CreatedAt: createdAt,
	}

	// For directory exports this is the size of the directory entry itself.
	if info, err := os.Stat(outputPath); err == nil {
		manifest.SizeBytes = info.Size()
	}

	s.logger.Info().
		Str("export_id", exportID).
		Str("file", fileName).
		Int64("size_bytes", manifest.SizeBytes).
		Msg("export completed")

	return manifest, nil
}

// BuildArgs returns the pg_dump arguments for req. The connection string is always last.
func BuildArgs(req models.ExportRequest, outputPath, conn string) []string {
	args := []string{"--format=" + req.Format.PgDumpFlag()}

	if scope := DataScopeFlag(req); scope != "" {
		args = append(args, scope)
	}

	if req.Compress && req.Format.SupportsCompression() {
		args = append(args, "--compress=9")
	}

	args = append(args,
		"--file="+outputPath,
		"--verbose",
		"--dbname="+conn,
	)

	return args
}

// DataScopeFlag returns the pg_dump data scope flag for req, or "" for a full dump.
// SchemaOnly wins over DataOnly, and an explicit DataOnly wins over !IncludeData.
func DataScopeFlag(req models.ExportRequest) string {
	switch {
	case req.SchemaOnly:
		return "--schema-only"
	case req.DataOnly:
		return "--data-only"
	case !req.IncludeData:
		return "--schema-only"
	default:
		return ""
	}
}

// FileName returns <prefix>-<timestamp>-<id><ext> with ':' and '.' in the
// timestamp replaced so the name is portable.
func FileName(prefix string, createdAt time.Time, id string, format models.ExportFormat) string {
	ts := createdAt.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return fmt.Sprintf("%s-%s-%s%s", prefix, ts, id, format.Extension())
}

// List returns the exports on disk, newest first. An unreadable directory yields no entries.
func (s *Impl) List(ctx context.Context) []models.ExportEntry {
	entries, err := os.ReadDir(s.settings.Dir)
	if err != nil {
		s.logger.Debug().Err(err).Str("dir", s.settings.Dir).Msg("could not read export directory")
		return []models.ExportEntry{}
	}

	result := make([]models.ExportEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}

		isExportDir := info.IsDir() && strings.HasPrefix(info.Name(), s.settings.Prefix+"-")
		if !info.Mode().IsRegular() && !isExportDir {
			continue
		}

		result = append(result, models.ExportEntry{
			FileName:  info.Name(),
			FilePath:  filepath.Join(s.settings.Dir, info.Name()),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
			IsDir:     info.IsDir(),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}
