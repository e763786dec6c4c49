package importer

import (
	"regexp"
	"strings"

	"github.com/fgeck/pgtransfer/internal/models"
)

// conflictPatterns are matched case-insensitively against restore stderr. The
// Swedish entries cover servers running with a Swedish lc_messages.
var conflictPatterns = []string{
	"already exists",
	"duplicate",
	"already present",
	"finns redan",
	"dubblett",
	"duplicerat",
}

// ClassifyFailure returns CONFLICT when a non-clean import failed because
// objects already existed. It is a best-effort text heuristic; callers keep the
// raw stderr alongside it.
func ClassifyFailure(stderr string, clean bool) models.ErrorCode {
	if clean {
		return models.ErrorCodeGeneric
	}
	lower := strings.ToLower(stderr)
	for _, p := range conflictPatterns {
		if strings.Contains(lower, p) {
			return models.ErrorCodeConflict
		}
	}
	return models.ErrorCodeGeneric
}

// createDatabaseEntry matches a table-of-contents line such as
// "3375; 1262 16384 DATABASE - gisdata postgres". Comment lines start with ';'
// and never match, even though entries carry a ';' after their dump ID.
var createDatabaseEntry = regexp.MustCompile(`(?m)^[ \t]*[^;\s][^\n]*\bDATABASE - \S+`)

// HasCreateDatabaseEntry reports whether a pg_restore --list listing contains a DATABASE entry.
func HasCreateDatabaseEntry(listing string) bool {
	return createDatabaseEntry.MatchString(listing)
}
