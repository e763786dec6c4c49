package models

import "errors"

// Errors returned by the export and import workflows. Wrapped errors carry details;
// compare with errors.Is.
var (
	ErrInvalidFormat           = errors.New("invalid format")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrToolUnavailable         = errors.New("tool unavailable")
	ErrConnectionNotConfigured = errors.New("database connection not configured")
	ErrConnectionMalformed     = errors.New("database connection string malformed")
	ErrPreparationFailed       = errors.New("import preparation failed")
	ErrExecutionFailed         = errors.New("execution failed")
)

// ExecutionError carries the raw output of a failed tool run.
type ExecutionError struct {
	Tool   string
	Stderr string
}

func (e *ExecutionError) Error() string {
	return e.Tool + " failed: " + e.Stderr
}

// Unwrap lets errors.Is match ErrExecutionFailed.
func (e *ExecutionError) Unwrap() error {
	return ErrExecutionFailed
}
