package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderServiceMetrics содержит метрики сервиса заказов.
type OrderServiceMetrics struct {
	ordersCreated     prometheus.Counter
	ordersFailed      prometheus.Counter
	ordersRejected    prometheus.Counter
	replays           prometheus.Counter
	conflicts         prometheus.Counter
	createDuration    prometheus.Histogram
	newsletter        *prometheus.CounterVec
	eventsPublished   *prometheus.CounterVec
	idempotencyPurged prometheus.Counter
	cleanupRuns       *prometheus.CounterVec
	outboxAttempts    *prometheus.CounterVec
	outboxPending     prometheus.Gauge
	outboxOldestAge   prometheus.Gauge
}

// NewOrderServiceMetrics регистрирует метрики в DefaultRegisterer.
func NewOrderServiceMetrics() *OrderServiceMetrics {
	return NewOrderServiceMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderServiceMetricsWithRegisterer регистрирует метрики в указанном реестре.
func NewOrderServiceMetricsWithRegisterer(registerer prometheus.Registerer) *OrderServiceMetrics {
	registerer = orDefault(registerer)

	return &OrderServiceMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_failed_total",
			Help: "Total number of orders that failed to persist",
		}),
		ordersRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of order requests rejected as invalid",
		}),
		replays: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_idempotent_replays_total",
			Help: "Total number of order requests answered from the idempotency store",
		}),
		conflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_idempotency_conflicts_total",
			Help: "Total number of idempotency key conflicts",
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		newsletter: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "newsletter_subscriptions_total",
			Help: "Total number of newsletter subscription requests by result",
		}, []string{"result"}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_events_published_total",
			Help: "Total number of domain events published by result",
		}, []string{"event", "result"}),
		idempotencyPurged: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_idempotency_keys_purged_total",
			Help: "Total number of expired idempotency keys removed",
		}),
		cleanupRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result",
		}, []string{"result"}),
		outboxAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"}),
		outboxPending: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orders_outbox_pending_records",
			Help: "Current number of pending records in the event outbox",
		}),
		outboxOldestAge: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orders_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record",
		}),
	}
}

// RecordOrderCreated учитывает созданный заказ и время его создания.
func (m *OrderServiceMetrics) RecordOrderCreated(duration time.Duration) {
	m.ordersCreated.Inc()
	m.createDuration.Observe(duration.Seconds())
}

// RecordOrderFailed увеличивает счётчик неудачных заказов.
func (m *OrderServiceMetrics) RecordOrderFailed() {
	m.ordersFailed.Inc()
}

// RecordOrderRejected увеличивает счётчик невалидных запросов.
func (m *OrderServiceMetrics) RecordOrderRejected() {
	m.ordersRejected.Inc()
}

// RecordReplay увеличивает счётчик повторов по ключу идемпотентности.
func (m *OrderServiceMetrics) RecordReplay() {
	m.replays.Inc()
}

// RecordConflict увеличивает счётчик конфликтов ключа идемпотентности.
func (m *OrderServiceMetrics) RecordConflict() {
	m.conflicts.Inc()
}

// RecordNewsletter учитывает запрос подписки: created, existing или failed.
func (m *OrderServiceMetrics) RecordNewsletter(result string) {
	m.newsletter.WithLabelValues(result).Inc()
}

// RecordEventPublished учитывает публикацию события.
func (m *OrderServiceMetrics) RecordEventPublished(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(event, result).Inc()
}

// RecordIdempotencyPurged учитывает удалённые просроченные ключи.
func (m *OrderServiceMetrics) RecordIdempotencyPurged(n int64) {
	if n > 0 {
		m.idempotencyPurged.Add(float64(n))
	}
}

// RecordCleanupRun учитывает цикл очистки ключей идемпотентности.
func (m *OrderServiceMetrics) RecordCleanupRun(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cleanupRuns.WithLabelValues(result).Inc()
}

// RecordOutboxAttempt учитывает попытку публикации из outbox:
// sent, retry_error, failed или dlq_failed.
func (m *OrderServiceMetrics) RecordOutboxAttempt(result string) {
	m.outboxAttempts.WithLabelValues(result).Inc()
}

// SetOutboxBacklog выставляет размер очереди outbox и возраст старейшей записи.
func (m *OrderServiceMetrics) SetOutboxBacklog(pending int, oldestAge time.Duration) {
	m.outboxPending.Set(float64(pending))
	if oldestAge < 0 {
		oldestAge = 0
	}
	m.outboxOldestAge.Set(oldestAge.Seconds())
}
