package executor

import (
	"context"
	"strings"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/rs/zerolog"
)

// Logging wraps a CommandExecutor and logs each invocation.
// Connection strings in arguments are logged with their password masked.
type Logging struct {
	next   CommandExecutor
	logger zerolog.Logger
}

// NewLogging wraps next with diagnostic logging.
func NewLogging(logger zerolog.Logger, next CommandExecutor) *Logging {
	return &Logging{next: next, logger: logger}
}

// Execute delegates to the wrapped executor and logs the outcome.
func (l *Logging) Execute(ctx context.Context, name string, args []string, opts Options) models.ProcessResult {
	line := redactedLine(name, args)
	l.logger.Debug().Str("command", line).Bool("shell", opts.Shell).Msg("executing command")

	result := l.next.Execute(ctx, name, args, opts)

	if result.Success {
		l.logger.Debug().Str("command", line).Int("exit_code", result.ExitCode).Msg("command succeeded")
		return result
	}
	if opts.Silent {
		return result
	}

	l.logger.Warn().
		Str("command", line).
		Int("exit_code", result.ExitCode).
		Str("stdout", strings.TrimSpace(result.Stdout)).
		Str("stderr", strings.TrimSpace(result.Stderr)).
		Str("error", result.Error).
		Msg("command failed")

	return result
}

func redactedLine(name string, args []string) string {
	redacted := make([]string, len(args))
	for i, a := range args {
		redacted[i] = connstr.RedactArg(a)
	}
	return ShellLine(name, redacted)
}
