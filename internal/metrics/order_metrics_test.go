package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOrderServiceMetrics(t *testing.T) {
	m := NewOrderServiceMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordOrderCreated(10 * time.Millisecond)
	m.RecordOrderFailed()
	m.RecordOrderRejected()
	m.RecordReplay()
	m.RecordConflict()
	m.RecordNewsletter("created")
	m.RecordNewsletter("existing")
	m.RecordEventPublished("order.placed", nil)
	m.RecordEventPublished("order.placed", errors.New("broker down"))
	m.RecordIdempotencyPurged(3)
	m.RecordIdempotencyPurged(0)

	checks := map[string]float64{
		"created":  testutil.ToFloat64(m.ordersCreated),
		"failed":   testutil.ToFloat64(m.ordersFailed),
		"rejected": testutil.ToFloat64(m.ordersRejected),
		"replays":  testutil.ToFloat64(m.replays),
		"conflict": testutil.ToFloat64(m.conflicts),
		"existing": testutil.ToFloat64(m.newsletter.WithLabelValues("existing")),
		"event ok": testutil.ToFloat64(m.eventsPublished.WithLabelValues("order.placed", "ok")),
		"event er": testutil.ToFloat64(m.eventsPublished.WithLabelValues("order.placed", "error")),
	}
	for name, got := range checks {
		if got != 1 {
			t.Errorf("%s: expected 1, got %f", name, got)
		}
	}
	if got := testutil.ToFloat64(m.idempotencyPurged); got != 3 {
		t.Errorf("expected 3 purged keys, got %f", got)
	}
}

func TestOrderServiceMetrics_Outbox(t *testing.T) {
	m := NewOrderServiceMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordOutboxAttempt("retry_error")
	m.RecordOutboxAttempt("sent")
	m.RecordOutboxAttempt("sent")
	m.SetOutboxBacklog(4, 90*time.Second)

	if got := testutil.ToFloat64(m.outboxAttempts.WithLabelValues("sent")); got != 2 {
		t.Errorf("expected 2 sent attempts, got %f", got)
	}
	if got := testutil.ToFloat64(m.outboxPending); got != 4 {
		t.Errorf("expected 4 pending records, got %f", got)
	}
	if got := testutil.ToFloat64(m.outboxOldestAge); got != 90 {
		t.Errorf("expected oldest age 90s, got %f", got)
	}

	m.SetOutboxBacklog(0, -time.Second)
	if got := testutil.ToFloat64(m.outboxOldestAge); got != 0 {
		t.Errorf("negative age should be clamped to 0, got %f", got)
	}
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry(), "test")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/products/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, slug := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+slug, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("/api/products/{slug}", http.MethodGet, "404"))
	if got != 2 {
		t.Errorf("expected 2 requests on route pattern, got %f", got)
	}
}
