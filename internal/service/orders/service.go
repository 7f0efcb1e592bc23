// Package orders — эталонный сервис заказов: принимает заказы и подписки витрины.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	orderIDPrefix    = "LX"
	orderIDHexLength = 8
	maxIDAttempts    = 3
)

// Service создаёт заказы и подписки. Суммы заказа сохраняются как прислал клиент.
type Service struct {
	orders     domain.OrderRepository
	newsletter domain.NewsletterRepository
	events     *kafka.Publisher
	metrics    *metrics.OrderServiceMetrics
	logger     *log.Entry
	newID      func() string
	now        func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher подключает публикацию событий в Kafka.
func WithPublisher(p *kafka.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithMetrics подключает метрики сервиса.
func WithMetrics(m *metrics.OrderServiceMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator подменяет генератор номеров заказов.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService создаёт сервис заказов.
func NewService(orders domain.OrderRepository, newsletter domain.NewsletterRepository, opts ...Option) *Service {
	s := &Service{
		orders:     orders,
		newsletter: newsletter,
		logger:     log.WithField("component", "orders-service"),
		newID:      NewOrderID,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOrderID возвращает номер вида LX + 8 шестнадцатеричных символов в верхнем регистре.
func NewOrderID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return orderIDPrefix + strings.ToUpper(raw[:orderIDHexLength])
}

// ValidationError перечисляет нарушенные требования к телу заказа.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + strings.Join(e.Problems, "; ")
}

// PlaceOrder проверяет и сохраняет заказ, затем публикует order.placed.
// Ошибка публикации не отменяет созданный заказ.
func (s *Service) PlaceOrder(ctx context.Context, req domain.OrderRequest, idempotencyKey string) (domain.Order, error) {
	if errs := req.ValidateInvariants(); len(errs) > 0 {
		problems := make([]string, 0, len(errs))
		for _, err := range errs {
			problems = append(problems, err.Error())
		}
		if s.metrics != nil {
			s.metrics.RecordOrderRejected()
		}
		return domain.Order{}, &ValidationError{Problems: problems}
	}

	start := time.Now()
	order := domain.Order{
		Request:        req,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		CreatedAt:      s.now(),
	}

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
		order.ID = s.newID()
		err = s.orders.Create(order)
		if !errors.Is(err, domain.ErrOrderExists) {
			break
		}
		s.logger.WithField("order_id", order.ID).Warn("order id collision, regenerating")
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordOrderFailed()
		}
		s.logger.WithError(err).Error("failed to create order")
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(time.Since(start))
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"items":    len(order.Request.Items),
		"total":    order.Request.Total,
	}).Info("order placed")

	s.publish(string(kafka.EventTypeOrderPlaced), func() error { return s.events.OrderPlaced(order) })
	return order, nil
}

// GetOrder возвращает заказ по номеру.
func (s *Service) GetOrder(id string) (domain.Order, error) {
	return s.orders.Get(strings.TrimSpace(id))
}

// Subscribe подписывает email. created=false означает, что подписка уже была.
func (s *Service) Subscribe(email string) (bool, error) {
	sub := domain.NewsletterSubscription{Email: strings.TrimSpace(email), CreatedAt: s.now()}
	created, err := s.newsletter.Subscribe(sub)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordNewsletter("failed")
		}
		return false, err
	}
	if s.metrics != nil {
		result := "existing"
		if created {
			result = "created"
		}
		s.metrics.RecordNewsletter(result)
	}
	if created {
		s.publish(string(kafka.EventTypeNewsletterSubscribed), func() error { return s.events.NewsletterSubscribed(sub) })
	}
	return created, nil
}

func (s *Service) publish(event string, send func() error) {
	if !s.events.Enabled() {
		return
	}
	err := send()
	if s.metrics != nil {
		s.metrics.RecordEventPublished(event, err)
	}
	if err != nil {
		s.logger.WithError(err).WithField("event", event).Warn("failed to publish event")
	}
}
