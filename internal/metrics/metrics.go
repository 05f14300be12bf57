// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumonew_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lumonew_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	AuditQueryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_query_failures_total",
		Help: "Audit store reads that failed and were replaced by an empty result",
	}, []string{"operation"})

	AuditFeedRefresh = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_feed_refresh_total",
		Help: "Recent activity feed refreshes by result",
	}, []string{"result"})

	AuditFeedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audit_feed_records",
		Help: "Records currently held by the recent activity feed",
	})

	AuditRecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_records_written_total",
		Help: "Audit records written by operation",
	}, []string{"operation"})

	AuditRecordWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_record_write_failures_total",
		Help: "Audit records that could not be written",
	})
)

// Feed refresh results.
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultDiscarded = "discarded"
)

// RecordQueryFailure counts a failed store read.
func RecordQueryFailure(operation string) {
	AuditQueryFailures.WithLabelValues(label(operation)).Inc()
}

// RecordFeedRefresh counts a feed refresh outcome.
func RecordFeedRefresh(result string) {
	AuditFeedRefresh.WithLabelValues(label(result)).Inc()
}

// SetFeedRecords sets the feed size gauge.
func SetFeedRecords(n int) {
	if n < 0 {
		n = 0
	}
	AuditFeedRecords.Set(float64(n))
}

// RecordWrite counts a written audit record.
func RecordWrite(operation string) {
	AuditRecordsWritten.WithLabelValues(label(operation)).Inc()
}

func label(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
