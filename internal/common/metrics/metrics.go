// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SectionsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_sections_saved_total",
			Help: "Total number of application sections persisted",
		},
		[]string{"section"},
	)

	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_applications_submitted_total",
			Help: "Total number of applications saved with status submitted",
		},
	)

	DocumentCopies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_document_copies_total",
			Help: "Total number of document copies into managed storage",
		},
		[]string{"result"},
	)

	RecordDecodeWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_record_decode_warnings_total",
			Help: "Total number of defaulted or skipped fields while decoding records",
		},
	)

	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_status_updates_total",
			Help: "Total number of lender status transitions",
		},
		[]string{"status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "loan_store_operation_duration_seconds",
			Help: "Duration of record store operations in seconds",
		},
		[]string{"operation"},
	)
)

// WriteTextfile dumps the default registry in the node-exporter textfile
// format. Console sessions are short lived, so counters are flushed on exit
// instead of being scraped.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
