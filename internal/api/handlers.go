// Package api exposes the export and import workflows over HTTP.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/runner"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Handler serves the transfer endpoints.
type Handler struct {
	runner         runner.Service
	logger         zerolog.Logger
	maxUploadBytes int64
}

// NewHandler creates a Handler. maxUploadBytes of 0 leaves import bodies unbounded.
func NewHandler(logger zerolog.Logger, r runner.Service, maxUploadBytes int64) *Handler {
	return &Handler{runner: r, logger: logger, maxUploadBytes: maxUploadBytes}
}

// ImportData is returned for every import that reached the restore tool.
type ImportData struct {
	Message                   string `json:"message"`
	RequireReauth             bool   `json:"requireReauth"`
	Tool                      string `json:"tool"`
	CreatedDatabase           bool   `json:"createdDatabase"`
	RecreatedDatabase         bool   `json:"recreatedDatabase"`
	UsedMaintenanceConnection bool   `json:"usedMaintenanceConnection"`
	DurationMS                int64  `json:"durationMs"`
}

// StatusData is the body of GET /status.
type StatusData struct {
	Exports []models.ExportEntry `json:"exports"`
	Tools   models.ToolInventory `json:"tools"`
}

// Export handles POST /export. An empty body exports with the defaults.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var body ExportBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, h.logger, http.StatusBadRequest, &APIError{Code: CodeBadRequest, Message: "invalid JSON body"})
			return
		}
	}
	if err := validateBody(&body); err != nil {
		status, apiErr := classifyError(err, CodeExportFailed)
		respondError(w, h.logger, status, apiErr)
		return
	}

	manifest, err := h.runner.Export(r.Context(), body.ToRequest())
	if err != nil {
		status, apiErr := classifyError(err, CodeExportFailed)
		respondError(w, h.logger, status, apiErr)
		return
	}

	respondOK(w, h.logger, manifest)
}

// Import handles POST /import.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, h.logger, http.StatusRequestEntityTooLarge, &APIError{Code: CodePayloadTooLarge, Message: "upload exceeds the configured limit"})
			return
		}
		respondError(w, h.logger, http.StatusBadRequest, &APIError{Code: CodeBadRequest, Message: "failed to read request body"})
		return
	}

	var body ImportBody
	if err := json.Unmarshal(raw, &body); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, &APIError{Code: CodeBadRequest, Message: "invalid JSON body"})
		return
	}
	if err := validateBody(&body); err != nil {
		status, apiErr := classifyError(err, string(models.ErrorCodeGeneric))
		respondError(w, h.logger, status, apiErr)
		return
	}

	req, err := body.ToRequest()
	if err != nil {
		status, apiErr := classifyError(err, string(models.ErrorCodeGeneric))
		respondError(w, h.logger, status, apiErr)
		return
	}

	result, err := h.runner.Import(r.Context(), req)
	if err != nil {
		status, apiErr := classifyError(err, string(models.ErrorCodeGeneric))
		respondError(w, h.logger, status, apiErr)
		return
	}

	data := ImportData{
		Message:                   result.Message,
		RequireReauth:             result.RequireReauth,
		Tool:                      result.Tool,
		CreatedDatabase:           result.CreatedDatabase,
		RecreatedDatabase:         result.RecreatedDatabase,
		UsedMaintenanceConnection: result.UsedMaintenanceConnection,
		DurationMS:                result.Duration.Milliseconds(),
	}

	if result.Success {
		respondOK(w, h.logger, data)
		return
	}

	status := http.StatusInternalServerError
	if result.ErrorCode == models.ErrorCodeConflict {
		status = http.StatusConflict
	}
	respondJSON(w, h.logger, status, &Response{
		Data: data,
		Error: &APIError{
			Code:    string(result.ErrorCode),
			Message: result.Message,
			Stderr:  result.Stderr,
		},
	})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.logger, StatusData{
		Exports: h.runner.List(r.Context()),
		Tools:   h.runner.Tools(r.Context()),
	})
}

// Tools handles GET /tools.
func (h *Handler) Tools(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.logger, h.runner.Tools(r.Context()))
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.logger, map[string]string{"status": "ok"})
}

// Ready handles GET /ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Ready(r.Context()); err != nil {
		status, apiErr := classifyError(err, CodeNotReady)
		if apiErr.Code == CodeInternal {
			status, apiErr.Code = http.StatusServiceUnavailable, CodeNotReady
		}
		respondError(w, h.logger, status, apiErr)
		return
	}
	respondOK(w, h.logger, map[string]string{"status": "ready"})
}
