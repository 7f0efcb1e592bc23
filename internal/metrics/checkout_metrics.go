package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/storefront/internal/checkout"
)

// CheckoutMetrics содержит метрики корзины и оформления заказа.
type CheckoutMetrics struct {
	// Счётчики шагов и отказов валидации
	stepsEntered       *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	invalidFields      prometheus.Counter

	// Отправка заказа
	submissions        *prometheus.CounterVec
	submissionDuration prometheus.Histogram
	inFlight           prometheus.Gauge

	cartOperations *prometheus.CounterVec
	promoAttempts  *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

var _ checkout.Observer = (*CheckoutMetrics)(nil)

// NewCheckoutMetrics регистрирует метрики в DefaultRegisterer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer регистрирует метрики в указанном реестре.
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	registerer = orDefault(registerer)

	return &CheckoutMetrics{
		stepsEntered: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_steps_entered_total",
			Help: "Total number of checkout steps entered",
		}, []string{"step"}),
		validationFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_validation_failures_total",
			Help: "Total number of rejected step transitions",
		}, []string{"step"}),
		invalidFields: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_invalid_fields_total",
			Help: "Total number of fields reported invalid on step transitions",
		}),
		submissions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_submissions_total",
			Help: "Total number of order submissions by result",
		}, []string{"result"}),
		submissionDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_submission_duration_seconds",
			Help:    "Duration of order submissions in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),
		inFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_order_submissions_in_flight",
			Help: "Number of order submissions awaiting a response",
		}),
		cartOperations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Total number of cart mutations by operation",
		}, []string{"operation"}),
		promoAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_promo_attempts_total",
			Help: "Total number of promo code attempts by result",
		}, []string{"result"}),
		activeSessions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_active_sessions",
			Help: "Number of shopper sessions held in memory",
		}),
	}
}

// StepEntered увеличивает счётчик входов в шаг.
func (m *CheckoutMetrics) StepEntered(step checkout.Step) {
	m.stepsEntered.WithLabelValues(step.String()).Inc()
}

// ValidationFailed учитывает отклонённый переход и число ошибочных полей.
func (m *CheckoutMetrics) ValidationFailed(step checkout.Step, fields int) {
	m.validationFailures.WithLabelValues(step.String()).Inc()
	m.invalidFields.Add(float64(fields))
}

// SubmissionFinished учитывает результат и длительность отправки заказа.
func (m *CheckoutMetrics) SubmissionFinished(success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	m.submissions.WithLabelValues(result).Inc()
	m.submissionDuration.Observe(duration.Seconds())
}

// RecordSubmissionStarted увеличивает число отправок в полёте.
func (m *CheckoutMetrics) RecordSubmissionStarted() {
	m.inFlight.Inc()
}

// RecordSubmissionDone уменьшает число отправок в полёте.
func (m *CheckoutMetrics) RecordSubmissionDone() {
	m.inFlight.Dec()
}

// RecordCartOperation увеличивает счётчик изменений корзины.
func (m *CheckoutMetrics) RecordCartOperation(operation string) {
	m.cartOperations.WithLabelValues(operation).Inc()
}

// RecordPromoAttempt учитывает попытку применить промокод.
func (m *CheckoutMetrics) RecordPromoAttempt(result string) {
	m.promoAttempts.WithLabelValues(result).Inc()
}

// SetActiveSessions выставляет число сессий покупателей.
func (m *CheckoutMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}
