package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetricsCountsQueriesByStatus(t *testing.T) {
	m := NewPipelineMetrics(prometheus.NewRegistry())

	m.ObserveQuery(domain.VariantRationale, 4, nil)
	m.ObserveQuery(domain.VariantRationale, 0, errors.New("boom"))
	m.ObserveQuery(domain.VariantSimple, 2, nil)

	if got := testutil.ToFloat64(m.queriesTotal.WithLabelValues("rationale", "success")); got != 1 {
		t.Fatalf("expected 1 rationale success, got %v", got)
	}
	if got := testutil.ToFloat64(m.queriesTotal.WithLabelValues("rationale", "error")); got != 1 {
		t.Fatalf("expected 1 rationale error, got %v", got)
	}
	if got := testutil.CollectAndCount(m.contextChunks); got != 2 {
		t.Fatalf("expected context histograms for 2 variants, got %d", got)
	}
}

func TestPipelineMetricsRecordsFallbacks(t *testing.T) {
	m := NewPipelineMetrics(prometheus.NewRegistry())

	m.RecordFallback("reranker", "service_error")
	m.RecordFallback("reranker", "service_error")
	m.RecordFallback("", "")

	if got := testutil.ToFloat64(m.fallbackTotal.WithLabelValues("reranker", "service_error")); got != 2 {
		t.Fatalf("expected 2 reranker fallbacks, got %v", got)
	}
	if got := testutil.ToFloat64(m.fallbackTotal.WithLabelValues("unknown", "unknown")); got != 1 {
		t.Fatalf("expected blank labels to map to unknown, got %v", got)
	}
}

func TestPipelineMetricsObservesStages(t *testing.T) {
	m := NewPipelineMetrics(prometheus.NewRegistry())
	m.ObserveStage(domain.VariantRationale, domain.StateDecomposed, 20*time.Millisecond)
	m.ObserveStage(domain.VariantRationale, domain.StateRetrieved, 30*time.Millisecond)

	if got := testutil.CollectAndCount(m.stageDuration); got != 2 {
		t.Fatalf("expected 2 stage series, got %d", got)
	}
}

func TestReindexMetricsTracksInFlight(t *testing.T) {
	m := NewReindexMetrics("rdrag", prometheus.NewRegistry())

	m.StartReindex()
	if got := testutil.ToFloat64(m.runsInFlight); got != 1 {
		t.Fatalf("expected 1 in flight, got %v", got)
	}
	m.FinishReindex(time.Second, nil)
	m.StartReindex()
	m.FinishReindex(time.Second, errors.New("failed"))

	if got := testutil.ToFloat64(m.runsInFlight); got != 0 {
		t.Fatalf("expected 0 in flight, got %v", got)
	}
	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("rdrag", "error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}

func TestHTTPServerMetricsMiddlewareAndHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewHTTPServerMetrics("rdrag", registry)
	NewPipelineMetrics(registry)

	handler := m.Middleware("rdrag", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/query", nil))

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("rdrag", http.MethodPost, "/v1/query", "418")); got != 1 {
		t.Fatalf("expected one recorded request, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "rdrag_http_requests_total") {
		t.Fatalf("expected http counter in exposition, got %s", body)
	}
}

func TestRouteLabelFoldsUnknownPaths(t *testing.T) {
	if routeLabel("/v1/query") != "/v1/query" || routeLabel("/v1/documents/abc") != "other" {
		t.Fatalf("unexpected route labels")
	}
}
