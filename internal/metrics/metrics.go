// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 5c2f8e91-4a7d-4b36-8d0e-1f9a6b3c7e24

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "speed_reader"

var (
	registerOnce sync.Once

	storageOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_operations_total",
		Help:      "Storage operations by backend, operation and result",
	}, []string{"backend", "op", "result"})

	taskStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_started_total",
		Help:      "Background tasks started by type",
	}, []string{"type"})
	taskCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Background tasks completed successfully by type",
	}, []string{"type"})
	taskFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_failed_total",
		Help:      "Background tasks failed by type",
	}, []string{"type"})
	taskDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_dropped_total",
		Help:      "Background tasks dropped because the queue was full or closed",
	}, []string{"type"})
	taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Histogram of background task durations in seconds by type",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"type"})

	migratedItems = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migrated_items_total",
		Help:      "Items copied from the legacy store into the object store by kind",
	}, []string{"kind"})
	orphansRemoved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphan_chunks_removed_total",
		Help:      "Orphaned word entries removed by backend",
	}, []string{"backend"})

	usedBytesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "storage_used_bytes",
		Help:      "Estimated bytes used by the active storage budget",
	})
	usedPercentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "storage_used_percent",
		Help:      "Estimated percentage of the storage budget in use",
	})
	booksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "books_total",
		Help:      "Current number of books in the object store",
	})
	chunksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "word_chunks_total",
		Help:      "Current number of word chunks in the object store",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(storageOps,
			taskStarted, taskCompleted, taskFailed, taskDropped, taskDuration,
			migratedItems, orphansRemoved,
			usedBytesGauge, usedPercentGauge, booksGauge, chunksGauge)
	})
}

// ObserveStorageOp counts one storage call. err == nil is recorded as "ok".
func ObserveStorageOp(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storageOps.WithLabelValues(backend, op, result).Inc()
}

// Task lifecycle helpers
func IncTaskStarted(taskType string)   { taskStarted.WithLabelValues(taskType).Inc() }
func IncTaskCompleted(taskType string) { taskCompleted.WithLabelValues(taskType).Inc() }
func IncTaskFailed(taskType string)    { taskFailed.WithLabelValues(taskType).Inc() }
func IncTaskDropped(taskType string)   { taskDropped.WithLabelValues(taskType).Inc() }
func ObserveTaskDuration(taskType string, d time.Duration) {
	taskDuration.WithLabelValues(taskType).Observe(d.Seconds())
}

// Migration and maintenance counters
func AddMigrated(kind string, n int) {
	if n > 0 {
		migratedItems.WithLabelValues(kind).Add(float64(n))
	}
}
func AddOrphansRemoved(backend string, n int) {
	if n > 0 {
		orphansRemoved.WithLabelValues(backend).Add(float64(n))
	}
}

// Gauges
func SetUsage(usedBytes int64, percent int) {
	usedBytesGauge.Set(float64(usedBytes))
	usedPercentGauge.Set(float64(percent))
}
func SetBooks(n int)  { booksGauge.Set(float64(n)) }
func SetChunks(n int) { chunksGauge.Set(float64(n)) }
