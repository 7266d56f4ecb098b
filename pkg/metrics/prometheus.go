// Package metrics provides Prometheus metrics for rollcall ingestion runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric naming and latency buckets shared by every manager.
const (
	namespace = "rollcall"
	subsystem = "ingest"
)

var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for one process.
type Manager struct {
	registry *prometheus.Registry

	// Fetch metrics - remote API traffic
	fetchRequests *prometheus.CounterVec
	fetchRetries  *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	pagesFetched  *prometheus.CounterVec
	duplicates    prometheus.Counter

	// Store metrics - vote record bookkeeping
	recordsUpserted  prometheus.Counter
	recordsSkipped   prometheus.Counter
	offenders        prometheus.Counter
	voteRecordsTotal prometheus.Gauge
	membersTotal     prometheus.Gauge
	snapshotWrites   *prometheus.CounterVec

	// Queue and worker metrics
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	workItems               *prometheus.CounterVec
	workerProcessingLatency prometheus.Histogram

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Initialize global metrics on a private registry.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a new metrics manager on its own registry.
func NewManager() *Manager {
	m := &Manager{registry: prometheus.NewRegistry()}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.fetchRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fetch_requests_total",
		Help:      "Total remote requests by source and status code",
	}, []string{"source", "status_code"})

	m.fetchRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fetch_retries_total",
		Help:      "Total retries after transient failures",
	}, []string{"source"})

	m.fetchLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fetch_latency_milliseconds",
		Help:      "Latency of single remote requests in milliseconds",
		Buckets:   latencyBuckets,
	}, []string{"source"})

	m.pagesFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pages_fetched_total",
		Help:      "Total paginated responses consumed",
	}, []string{"source"})

	m.duplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "duplicates_dropped_total",
		Help:      "Items dropped because an earlier page already returned them",
	})

	m.recordsUpserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_upserted_total",
		Help:      "Vote records created or merged",
	})

	m.recordsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_skipped_total",
		Help:      "Hand-curated vote records skipped during recomputation",
	})

	m.offenders = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "offenders_recorded_total",
		Help:      "Offender entries written to vote records",
	})

	m.voteRecordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "vote_records",
		Help:      "Vote records in the store after the last save",
	})

	m.membersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "members",
		Help:      "Members in the last roster written or read",
	})

	m.snapshotWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_writes_total",
		Help:      "Snapshot files written",
	}, []string{"file"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "queue_size",
		Help:      "Current number of queued work items",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "queue_capacity",
		Help:      "Capacity of the work queue",
	})

	m.workItems = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "work_items_total",
		Help:      "Work items processed by result",
	}, []string{"pool", "result"})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time spent on one work item in milliseconds",
		Buckets:   latencyBuckets,
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// WriteTextfile writes the current metric values in the Prometheus text
// format, suitable for node_exporter's textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}

// RecordFetch counts one remote request and its latency.
func RecordFetch(source string, statusCode int, latencyMs float64) {
	globalManager.fetchRequests.WithLabelValues(source, fmt.Sprint(statusCode)).Inc()
	globalManager.fetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordRetry counts a retry after a transient failure.
func RecordRetry(source string) {
	globalManager.fetchRetries.WithLabelValues(source).Inc()
}

// RecordPage counts one consumed page.
func RecordPage(source string) {
	globalManager.pagesFetched.WithLabelValues(source).Inc()
}

// RecordDuplicates counts dropped duplicates.
func RecordDuplicates(n int) {
	if n > 0 {
		globalManager.duplicates.Add(float64(n))
	}
}

// RecordUpsert counts a created or merged vote record.
func RecordUpsert() {
	globalManager.recordsUpserted.Inc()
}

// RecordSkipped counts a hand-curated record skipped during recomputation.
func RecordSkipped() {
	globalManager.recordsSkipped.Inc()
}

// RecordOffenders counts offender entries written.
func RecordOffenders(n int) {
	if n > 0 {
		globalManager.offenders.Add(float64(n))
	}
}

// UpdateVoteRecords sets the vote record gauge.
func UpdateVoteRecords(n int) {
	globalManager.voteRecordsTotal.Set(float64(n))
}

// UpdateMembers sets the member gauge.
func UpdateMembers(n int) {
	globalManager.membersTotal.Set(float64(n))
}

// RecordSnapshotWrite counts a written snapshot file.
func RecordSnapshotWrite(file string) {
	globalManager.snapshotWrites.WithLabelValues(file).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordWorkItem counts a processed work item; result is "ok" or "failed".
func RecordWorkItem(pool, result string) {
	globalManager.workItems.WithLabelValues(pool, result).Inc()
}

// RecordWorkerProcessingLatency observes the time spent on one work item.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// WriteTextfile dumps the global registry to path.
func WriteTextfile(path string) error {
	return globalManager.WriteTextfile(path)
}
