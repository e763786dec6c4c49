package models

import "time"

// ErrorCode classifies a failed import.
type ErrorCode string

// Import error codes.
const (
	ErrorCodeNone     ErrorCode = ""
	ErrorCodeConflict ErrorCode = "CONFLICT"
	ErrorCodeGeneric  ErrorCode = "GENERIC"
)

// ImportRequest describes an uploaded archive to restore.
type ImportRequest struct {
	Content  []byte
	FileName string
	Format   ExportFormat
	Clean    bool
}

// ImportResult holds the outcome of an import.
type ImportResult struct {
	Success       bool
	Message       string
	ErrorCode     ErrorCode
	Stderr        string
	RequireReauth bool // database contents, including session tables, may have changed

	Tool                      string
	CreatedDatabase           bool
	RecreatedDatabase         bool
	UsedMaintenanceConnection bool
	Duration                  time.Duration
	Error                     error
}
