package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/dblock"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Error codes returned in the response envelope.
const (
	CodeInvalidFormat           = "INVALID_FORMAT"
	CodeBadRequest              = "BAD_REQUEST"
	CodePayloadTooLarge         = "PAYLOAD_TOO_LARGE"
	CodeToolUnavailable         = "TOOL_UNAVAILABLE"
	CodeConnectionNotConfigured = "CONNECTION_NOT_CONFIGURED"
	CodeConnectionMalformed     = "CONNECTION_MALFORMED"
	CodePreparationFailed       = "PREPARATION_FAILED"
	CodeExportFailed            = "EXPORT_FAILED"
	CodeBusy                    = "BUSY"
	CodeNotReady                = "NOT_READY"
	CodeRateLimited             = "RATE_LIMITED"
	CodeInternal                = "INTERNAL_ERROR"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stderr  string `json:"stderr,omitempty"`
}

// Meta carries response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, logger zerolog.Logger, status int, resp *Response) {
	resp.Meta.Timestamp = time.Now().UTC()

	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Debug().Err(err).Msg("failed to write JSON response")
	}
}

func respondOK(w http.ResponseWriter, logger zerolog.Logger, data interface{}) {
	respondJSON(w, logger, http.StatusOK, &Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, logger zerolog.Logger, status int, apiErr *APIError) {
	respondJSON(w, logger, status, &Response{Error: apiErr})
}

// classifyError maps a workflow error to an HTTP status and envelope error.
// fallback is the code used for tool execution failures.
func classifyError(err error, fallback string) (int, *APIError) {
	apiErr := &APIError{Message: err.Error()}

	var execErr *models.ExecutionError
	switch {
	case errors.Is(err, models.ErrInvalidFormat):
		apiErr.Code = CodeInvalidFormat
		return http.StatusBadRequest, apiErr
	case errors.Is(err, models.ErrInvalidRequest):
		apiErr.Code = CodeBadRequest
		return http.StatusBadRequest, apiErr
	case errors.Is(err, models.ErrToolUnavailable):
		apiErr.Code = CodeToolUnavailable
		return http.StatusServiceUnavailable, apiErr
	case errors.Is(err, models.ErrConnectionNotConfigured):
		apiErr.Code = CodeConnectionNotConfigured
		return http.StatusServiceUnavailable, apiErr
	case errors.Is(err, models.ErrConnectionMalformed):
		apiErr.Code = CodeConnectionMalformed
		return http.StatusInternalServerError, apiErr
	case errors.Is(err, models.ErrPreparationFailed):
		apiErr.Code = CodePreparationFailed
		return http.StatusInternalServerError, apiErr
	case errors.Is(err, dblock.ErrBusy):
		apiErr.Code = CodeBusy
		return http.StatusServiceUnavailable, apiErr
	case errors.As(err, &execErr):
		apiErr.Code = fallback
		apiErr.Message = execErr.Tool + " failed"
		apiErr.Stderr = execErr.Stderr
		return http.StatusInternalServerError, apiErr
	default:
		apiErr.Code = CodeInternal
		return http.StatusInternalServerError, apiErr
	}
}
