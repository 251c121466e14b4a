package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"":                                  "/",
		"/":                                 "/",
		"/api/v1/applications/citation/42":  "/api/v1/applications/citation/{id}",
		"/api/v1/clarifications/7/":         "/api/v1/clarifications/{id}",
		"/api/v1/applications/subordinates": "/api/v1/applications/subordinates",
	}
	for in, want := range tests {
		if got := CanonicalPath(in); got != want {
			t.Errorf("CanonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInstrumentHandler(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := value(t, httpRequests.WithLabelValues("GET", "/things/{id}", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/5", nil))
	after := value(t, httpRequests.WithLabelValues("GET", "/things/{id}", "418"))

	if after-before != 1 {
		t.Errorf("expected one recorded request, got %v", after-before)
	}
}

func TestRecordTransition(t *testing.T) {
	RecordTransition("citation", "in_review", "approved")
	if got := value(t, statusTransitions.WithLabelValues("citation", "in_review", "approved")); got < 1 {
		t.Errorf("transition counter = %v", got)
	}

	SetClarificationBacklog(4, 1)
	if got := value(t, pendingClarifications); got != 4 {
		t.Errorf("pending gauge = %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordAction("marks_approved", "brigade")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "award_review_workflow_actions_total") {
		t.Errorf("metrics output missing workflow actions")
	}
}
