// Package tools discovers the PostgreSQL client executables.
package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/executor"
	"github.com/rs/zerolog"
)

// Service defines the interface for tool discovery.
type Service interface {
	Detect(ctx context.Context) models.ToolInventory
}

// Impl implements the tools Service interface.
type Impl struct {
	executor    executor.CommandExecutor
	logger      zerolog.Logger
	goos        string
	searchPaths []string
}

// New creates a new tool discovery service for the running platform.
func New(logger zerolog.Logger, exec executor.CommandExecutor, searchPaths []string) *Impl {
	return &Impl{
		executor:    exec,
		logger:      logger,
		goos:        runtime.GOOS,
		searchPaths: searchPaths,
	}
}

// NewForPlatform creates a tool discovery service probing the directories of goos (for testing).
func NewForPlatform(logger zerolog.Logger, exec executor.CommandExecutor, goos string, searchPaths []string) *Impl {
	return &Impl{
		executor:    exec,
		logger:      logger,
		goos:        goos,
		searchPaths: searchPaths,
	}
}

// Detect probes for pg_dump, pg_restore and psql. Missing tools are reported
// as unavailable, never as an error. Nothing is cached.
func (s *Impl) Detect(ctx context.Context) models.ToolInventory {
	var inv models.ToolInventory
	for _, kind := range models.AllToolKinds {
		inv.Set(kind, s.detect(ctx, kind))
	}

	s.logger.Debug().
		Bool("pg_dump", inv.Dump.Available).
		Bool("pg_restore", inv.Restore.Available).
		Bool("psql", inv.InteractiveSQL.Available).
		Msg("tool inventory detected")

	return inv
}

func (s *Impl) detect(ctx context.Context, kind models.ToolKind) models.ToolDescriptor {
	exe := kind.Executable(s.goos)
	desc := models.ToolDescriptor{Name: kind.Name()}

	dirs := append(append([]string{}, s.searchPaths...), CandidateDirs(s.goos)...)
	for _, dir := range dirs {
		path := joinPath(s.goos, dir, exe)
		result := s.executor.Execute(ctx, path, []string{"--version"}, executor.Options{Silent: true})
		if result.Success {
			desc.Available = true
			desc.Path = path
			desc.Version = strings.TrimSpace(result.Stdout)
			return desc
		}
	}

	// Fall back to the inherited search path.
	result := s.executor.Execute(ctx, exe, []string{"--version"}, executor.Options{Shell: true, Silent: true})
	if result.Success {
		desc.Available = true
		desc.Path = exe
		desc.Version = strings.TrimSpace(result.Stdout)
		return desc
	}

	s.logger.Debug().Str("tool", kind.Name()).Msg("tool not found")
	return desc
}

// supportedMajors lists PostgreSQL major versions probed newest first.
var supportedMajors = []int{17, 16, 15, 14, 13, 12}

// CandidateDirs returns the install directories probed on goos, in order.
func CandidateDirs(goos string) []string {
	var dirs []string

	switch goos {
	case "windows":
		for _, v := range supportedMajors {
			dirs = append(dirs, fmt.Sprintf(`C:\Program Files\PostgreSQL\%d\bin`, v))
		}
		for _, v := range supportedMajors {
			dirs = append(dirs, fmt.Sprintf(`C:\Program Files (x86)\PostgreSQL\%d\bin`, v))
		}
	case "darwin":
		dirs = append(dirs, "/opt/homebrew/bin")
		for _, v := range supportedMajors {
			if v < 14 {
				continue
			}
			dirs = append(dirs, fmt.Sprintf("/opt/homebrew/opt/postgresql@%d/bin", v))
		}
		for _, v := range supportedMajors {
			if v < 14 {
				continue
			}
			dirs = append(dirs, fmt.Sprintf("/usr/local/opt/postgresql@%d/bin", v))
		}
		dirs = append(dirs, "/Applications/Postgres.app/Contents/Versions/latest/bin")
		for _, v := range supportedMajors {
			dirs = append(dirs, fmt.Sprintf("/Library/PostgreSQL/%d/bin", v))
		}
		dirs = append(dirs, "/usr/local/bin")
	default:
		for _, v := range supportedMajors {
			dirs = append(dirs, fmt.Sprintf("/usr/lib/postgresql/%d/bin", v))
		}
		for _, v := range supportedMajors {
			dirs = append(dirs, fmt.Sprintf("/usr/pgsql-%d/bin", v))
		}
		dirs = append(dirs, "/usr/local/pgsql/bin", "/usr/local/bin", "/usr/bin")
	}

	return dirs
}

func joinPath(goos, dir, exe string) string {
	if goos == "windows" {
		return strings.TrimRight(dir, `\`) + `\` + exe
	}
	if goos == runtime.GOOS {
		return filepath.Join(dir, exe)
	}
	return strings.TrimRight(dir, "/") + "/" + exe
}
