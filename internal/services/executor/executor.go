// Package executor runs external executables and reports their outcome as data.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fgeck/pgtransfer/internal/models"
)

// Options control how a command is started.
type Options struct {
	// Shell runs the command through the platform shell so the inherited
	// search path is used for resolution.
	Shell bool
	// Silent suppresses failure logging in the Logging decorator.
	Silent bool
	// Env is appended to the process environment.
	Env []string
}

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args []string, opts Options) models.ProcessResult
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct {
	goos string
}

// New returns an executor for the running platform.
func New() *DefaultExecutor {
	return &DefaultExecutor{goos: runtime.GOOS}
}

// Execute runs name with args and captures stdout and stderr separately.
func (e *DefaultExecutor) Execute(ctx context.Context, name string, args []string, opts Options) models.ProcessResult {
	var cmd *exec.Cmd
	if opts.Shell {
		shell, flag := ShellFor(e.platform())
		cmd = exec.CommandContext(ctx, shell, flag, ShellLine(name, args))
	} else {
		cmd = exec.CommandContext(ctx, name, args...)
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := models.ProcessResult{
		Success:  err == nil,
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err == nil {
		return result
	}

	result.Error = err.Error()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = -1
	}
	return result
}

func (e *DefaultExecutor) platform() string {
	if e.goos == "" {
		return runtime.GOOS
	}
	return e.goos
}

// ShellFor returns the shell binary and its command flag for goos.
func ShellFor(goos string) (string, string) {
	if goos == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}

// ShellLine joins a command and its arguments for shell execution.
// Callers quote arguments that contain spaces.
func ShellLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
