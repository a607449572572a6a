package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/groups/"+id, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/groups/{id}", "418"))
	if got != 2 {
		t.Fatalf("expected 2 requests under the pattern, got %v", got)
	}
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.SharedExpenseCreated()
	m.SharedExpenseCreated()
	m.SharedExpenseDeleted()
	m.Webhook(WebhookApplied)

	if got := testutil.ToFloat64(m.sharedExpenses.WithLabelValues("created")); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `finance_app_payment_webhooks_total{outcome="applied"} 1`) {
		t.Fatalf("expected webhook counter in exposition, got:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SharedExpenseCreated()
	m.Webhook(WebhookFailed)

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatalf("expected next handler to run")
	}
}
