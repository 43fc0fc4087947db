package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpstream(t *testing.T) {
	c := New()
	c.ObserveUpstream("GET", "/portfolio/holdings", 200, "success", 20*time.Millisecond)
	c.ObserveUpstream("GET", "/portfolio/holdings", 403, "rejected", 10*time.Millisecond)
	c.ObserveUpstream("GET", "/portfolio/holdings", 403, "rejected", 10*time.Millisecond)

	if got := testutil.ToFloat64(c.upstreamCalls.WithLabelValues("GET", "/portfolio/holdings", "rejected")); got != 2 {
		t.Errorf("rejected calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.upstreamCalls.WithLabelValues("GET", "/portfolio/holdings", "success")); got != 1 {
		t.Errorf("success calls = %v, want 1", got)
	}
}

func TestObserveOperationDefaultsToOK(t *testing.T) {
	c := New()
	c.ObserveOperation("holdings", "")
	c.ObserveOperation("holdings", "MISSING_CREDENTIALS")

	if got := testutil.ToFloat64(c.operations.WithLabelValues("holdings", "OK")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	c := New()
	c.ObserveHTTP("POST", "/api/holdings", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `roast_http_requests_total{method="POST",route="/api/holdings",status="200"} 1`) {
		t.Errorf("metrics output missing http counter:\n%s", body)
	}
}
