package models

import (
	"fmt"
	"time"
)

// ExportFormat is a pg_dump archive format.
type ExportFormat string

// Supported export formats.
const (
	FormatSQL       ExportFormat = "sql"
	FormatCustom    ExportFormat = "custom"
	FormatTar       ExportFormat = "tar"
	FormatDirectory ExportFormat = "directory"
)

// AllExportFormats lists every supported format.
var AllExportFormats = []ExportFormat{FormatSQL, FormatCustom, FormatTar, FormatDirectory}

// ParseExportFormat returns the format named by s.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case FormatSQL, FormatCustom, FormatTar, FormatDirectory:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (expected one of sql, custom, tar, directory)", ErrInvalidFormat, s)
	}
}

// PgDumpFlag returns the --format value understood by pg_dump.
func (f ExportFormat) PgDumpFlag() string {
	switch f {
	case FormatSQL:
		return "p"
	case FormatTar:
		return "t"
	case FormatDirectory:
		return "d"
	default:
		return "c"
	}
}

// Extension returns the file extension for exports in this format.
// Directory exports have none.
func (f ExportFormat) Extension() string {
	switch f {
	case FormatSQL:
		return ".sql"
	case FormatTar:
		return ".tar"
	case FormatDirectory:
		return ""
	default:
		return ".dump"
	}
}

// SupportsCompression reports whether a compression flag may be passed for this format.
func (f ExportFormat) SupportsCompression() bool {
	return f != FormatDirectory
}

// ExportRequest describes a requested dump.
type ExportRequest struct {
	Format      ExportFormat
	IncludeData bool
	SchemaOnly  bool
	DataOnly    bool
	Compress    bool
}

// DefaultExportRequest returns the request used when the caller omits every field.
func DefaultExportRequest() ExportRequest {
	return ExportRequest{
		Format:      FormatCustom,
		IncludeData: true,
		Compress:    true,
	}
}

// ExportManifest describes a completed export.
type ExportManifest struct {
	ExportID  string       `json:"exportId"`
	FileName  string       `json:"fileName"`
	FilePath  string       `json:"filePath"`
	SizeBytes int64        `json:"sizeBytes"`
	Format    ExportFormat `json:"format"`
	CreatedAt time.Time    `json:"createdAt"`
	Mirrored  bool         `json:"mirrored,omitempty"`
}

// ExportEntry is one artifact found in the export directory.
type ExportEntry struct {
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
	IsDir     bool      `json:"isDir,omitempty"`
}
