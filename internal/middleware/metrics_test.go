package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"lumonew/internal/metrics"
)

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/audit-logs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/audit-logs/:id", "200")
	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before, beforeUnmatched := testutil.ToFloat64(counter), testutil.ToFloat64(unmatched)

	for _, path := range []string{"/audit-logs/a", "/audit-logs/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("expected 2 requests on route template, got %v", got)
	}
	if got := testutil.ToFloat64(unmatched) - beforeUnmatched; got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
}
