package executor

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestDefaultExecutor_Success(t *testing.T) {
	skipOnWindows(t)

	result := New().Execute(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, Options{})

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Empty(t, result.Error)
}

func TestDefaultExecutor_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	result := New().Execute(context.Background(), "sh", []string{"-c", "echo 'error message' >&2; exit 3"}, Options{})

	assert.False(t, result.Success)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Stderr, "error message")
	assert.NotEmpty(t, result.Error)
}

func TestDefaultExecutor_SpawnFailure(t *testing.T) {
	result := New().Execute(context.Background(), "definitely-not-a-real-binary-4711", []string{"--version"}, Options{})

	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ExitCode)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, result.Error, result.Output())
}

func TestDefaultExecutor_Shell(t *testing.T) {
	skipOnWindows(t)

	result := New().Execute(context.Background(), "echo", []string{"hello", "world"}, Options{Shell: true})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "hello world\n", result.Stdout)
}

func TestDefaultExecutor_ArgumentsAreNotInterpolated(t *testing.T) {
	skipOnWindows(t)

	result := New().Execute(context.Background(), "echo", []string{"$HOME", "; exit 1"}, Options{})

	require.True(t, result.Success)
	assert.Equal(t, "$HOME ; exit 1\n", result.Stdout)
}

func TestDefaultExecutor_Env(t *testing.T) {
	skipOnWindows(t)

	result := New().Execute(context.Background(), "sh", []string{"-c", "echo $PGTRANSFER_TEST"}, Options{Env: []string{"PGTRANSFER_TEST=42"}})

	require.True(t, result.Success)
	assert.Equal(t, "42\n", result.Stdout)
}

func TestShellFor(t *testing.T) {
	shell, flag := ShellFor("windows")
	assert.Equal(t, "cmd", shell)
	assert.Equal(t, "/C", flag)

	shell, flag = ShellFor("linux")
	assert.Equal(t, "sh", shell)
	assert.Equal(t, "-c", flag)
}

type stubExecutor struct {
	result models.ProcessResult
}

func (s *stubExecutor) Execute(ctx context.Context, name string, args []string, opts Options) models.ProcessResult {
	return s.result
}

func TestLogging_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	exec := NewLogging(logger, &stubExecutor{result: models.ProcessResult{ExitCode: 1, Stderr: "boom"}})
	result := exec.Execute(context.Background(), "pg_dump", []string{"--dbname=postgres://admin:hunter2@db:5432/gis"}, Options{})

	assert.False(t, result.Success)
	assert.Contains(t, buf.String(), "command failed")
	assert.Contains(t, buf.String(), "boom")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestLogging_SilentSuppressesFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	exec := NewLogging(logger, &stubExecutor{result: models.ProcessResult{ExitCode: 1, Stderr: "not found"}})
	result := exec.Execute(context.Background(), "/usr/bin/pg_dump", []string{"--version"}, Options{Silent: true})

	assert.False(t, result.Success)
	assert.Empty(t, buf.String())
}

func TestLogging_PassesResultThrough(t *testing.T) {
	want := models.ProcessResult{Success: true, Stdout: "pg_dump (PostgreSQL) 16.2"}
	exec := NewLogging(zerolog.Nop(), &stubExecutor{result: want})

	got := exec.Execute(context.Background(), "pg_dump", []string{"--version"}, Options{})

	assert.Equal(t, want, got)
}
