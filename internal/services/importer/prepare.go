package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/fgeck/pgtransfer/internal/services/executor"
)

// PreparationState tracks the import preparation protocol.
type PreparationState int

// Preparation states.
const (
	StateUnknown PreparationState = iota
	StateMissing
	StateExisting
	StatePrepared
)

func (s PreparationState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateExisting:
		return "existing"
	case StatePrepared:
		return "prepared"
	default:
		return "unknown"
	}
}

// Preparation is the outcome of Prepare.
type Preparation struct {
	State           PreparationState
	Database        string
	TargetConn      string
	MaintenanceConn string
	Created         bool
}

// Prepare makes sure the target database exists. It never cleans an existing
// database; that is left to the restore tool.
func (s *Impl) Prepare(ctx context.Context, conn string, inv models.ToolInventory) (*Preparation, error) {
	psql := inv.InteractiveSQL
	if !psql.Available {
		return nil, fmt.Errorf("%w: %s", models.ErrToolUnavailable, psql.Name)
	}

	target := connstr.Sanitize(conn)
	dbName, ok := connstr.DatabaseName(target)
	if !ok {
		return nil, fmt.Errorf("%w: no database name in connection string", models.ErrConnectionMalformed)
	}

	maintenance, err := connstr.Maintenance(target, s.settings.MaintenanceDB)
	if err != nil {
		return nil, err
	}

	prep := &Preparation{
		State:           StateUnknown,
		Database:        dbName,
		TargetConn:      target,
		MaintenanceConn: maintenance,
	}

	exists, err := s.databaseExists(ctx, psql.Path, maintenance, dbName)
	if err != nil {
		return nil, err
	}

	if exists {
		prep.State = StateExisting
		s.logger.Debug().Str("database", dbName).Msg("target database exists")
	} else {
		prep.State = StateMissing
		s.logger.Info().Str("database", dbName).Msg("target database missing, creating it")

		stmt := fmt.Sprintf("CREATE DATABASE %s;\n", quoteIdent(dbName))
		result := s.runScript(ctx, psql.Path, maintenance, stmt)
		if !result.Success {
			return nil, fmt.Errorf("%w: create database %s: %s", models.ErrPreparationFailed, dbName, strings.TrimSpace(result.Output()))
		}
		prep.Created = true
	}

	prep.State = StatePrepared
	return prep, nil
}

func (s *Impl) databaseExists(ctx context.Context, psqlPath, maintenance, dbName string) (bool, error) {
	stmt := fmt.Sprintf("SELECT 1 FROM pg_database WHERE datname = %s;\n", quoteLiteral(dbName))
	result := s.runScript(ctx, psqlPath, maintenance, stmt)
	if !result.Success {
		return false, fmt.Errorf("%w: existence check for %s: %s", models.ErrPreparationFailed, dbName, strings.TrimSpace(result.Output()))
	}
	return strings.TrimSpace(result.Stdout) == "1", nil
}

// runScript writes sql to a temporary file and runs it through psql. The file
// is removed before returning on every path.
func (s *Impl) runScript(ctx context.Context, psqlPath, conn, sql string) models.ProcessResult {
	if err := os.MkdirAll(s.settings.Dir, 0o750); err != nil {
		return models.ProcessResult{ExitCode: -1, Error: fmt.Sprintf("failed to create import directory: %v", err)}
	}

	scriptPath := filepath.Join(s.settings.Dir, s.newID()+".sql")
	if err := os.WriteFile(scriptPath, []byte(sql), 0o600); err != nil {
		s.removeQuietly(scriptPath)
		return models.ProcessResult{ExitCode: -1, Error: fmt.Sprintf("failed to write sql script: %v", err)}
	}
	defer s.removeQuietly(scriptPath)

	args := []string{"-X", "-q", "-t", "-A", "-v", "ON_ERROR_STOP=1", "-f", scriptPath, "--dbname=" + conn}
	return s.executor.Execute(ctx, psqlPath, args, executor.Options{})
}

// removeQuietly deletes path and demotes any failure to a warning.
func (s *Impl) removeQuietly(path string) {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("path", path).Msg("failed to remove temporary file")
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
