// Package metrics holds the Prometheus collectors for export and import operations.
package metrics

import (
	"time"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultInvalid = "invalid"
	ResultBusy    = "busy"
)

// FormatUnknown labels requests whose format is not supported.
const FormatUnknown = "unknown"

var (
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgtransfer_exports_total",
			Help: "Total number of export attempts",
		},
		[]string{"format", "result"},
	)

	ExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pgtransfer_export_duration_seconds",
			Help:    "Duration of exports in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"format"},
	)

	ExportBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pgtransfer_export_bytes_total",
			Help: "Total size of produced export artifacts in bytes",
		},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgtransfer_imports_total",
			Help: "Total number of import attempts",
		},
		[]string{"format", "result", "error_code"},
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pgtransfer_import_duration_seconds",
			Help:    "Duration of imports in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"format"},
	)

	MirrorUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgtransfer_mirror_uploads_total",
			Help: "Total number of export mirror attempts",
		},
		[]string{"result"},
	)

	ToolAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pgtransfer_tool_available",
			Help: "Whether a PostgreSQL client tool was found (1) or not (0)",
		},
		[]string{"tool"},
	)

	LockWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pgtransfer_lock_wait_seconds",
			Help:    "Time spent waiting for the per-database lock",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// FormatLabel returns the label value for format. Unsupported values collapse
// into FormatUnknown so callers cannot grow the series set.
func FormatLabel(format models.ExportFormat) string {
	f, err := models.ParseExportFormat(string(format))
	if err != nil {
		return FormatUnknown
	}
	return string(f)
}

// RecordExport records one export attempt.
func RecordExport(format models.ExportFormat, result string, duration time.Duration, sizeBytes int64) {
	label := FormatLabel(format)
	ExportsTotal.WithLabelValues(label, result).Inc()
	if result == ResultSuccess || result == ResultFailure {
		ExportDuration.WithLabelValues(label).Observe(duration.Seconds())
	}
	if sizeBytes > 0 {
		ExportBytes.Add(float64(sizeBytes))
	}
}

// RecordImport records one import attempt.
func RecordImport(format models.ExportFormat, result string, code models.ErrorCode, duration time.Duration) {
	label := FormatLabel(format)
	ImportsTotal.WithLabelValues(label, result, string(code)).Inc()
	if result == ResultSuccess || result == ResultFailure {
		ImportDuration.WithLabelValues(label).Observe(duration.Seconds())
	}
}

// RecordMirror records one mirror attempt.
func RecordMirror(err error) {
	if err != nil {
		MirrorUploadsTotal.WithLabelValues(ResultFailure).Inc()
		return
	}
	MirrorUploadsTotal.WithLabelValues(ResultSuccess).Inc()
}

// UpdateToolGauges publishes availability for every tool in inv.
func UpdateToolGauges(inv models.ToolInventory) {
	for _, kind := range models.AllToolKinds {
		d := inv.Get(kind)
		v := 0.0
		if d.Available {
			v = 1
		}
		ToolAvailable.WithLabelValues(kind.Name()).Set(v)
	}
}
