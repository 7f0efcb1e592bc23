package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeOrderPlaced          EventType = "order.placed"
	EventTypeNewsletterSubscribed EventType = "newsletter.subscribed"
)

// Topics для Kafka
const (
	TopicOrderEvents      = "storefront.orders.events"
	TopicNewsletterEvents = "storefront.newsletter.events"
	TopicDeadLetter       = "storefront.events.dlq"
)

// OrderPlacedEvent публикуется после сохранения заказа.
type OrderPlacedEvent struct {
	EventType EventType          `json:"event_type"`
	OrderID   string             `json:"order_id"`
	Email     string             `json:"email"`
	Country   string             `json:"country"`
	ItemCount int                `json:"item_count"`
	Items     []domain.OrderItem `json:"items"`
	Subtotal  float64            `json:"subtotal"`
	Total     float64            `json:"total"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewsletterEvent публикуется при новой подписке.
type NewsletterEvent struct {
	EventType EventType `json:"event_type"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// Type возвращает тип события.
func (e *OrderPlacedEvent) Type() EventType { return e.EventType }

// Type возвращает тип события.
func (e *NewsletterEvent) Type() EventType { return e.EventType }

// NewOrderPlacedEvent создает событие по сохранённому заказу
func NewOrderPlacedEvent(order domain.Order) *OrderPlacedEvent {
	count := 0
	for _, item := range order.Request.Items {
		count += item.Quantity
	}
	ts := order.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &OrderPlacedEvent{
		EventType: EventTypeOrderPlaced,
		OrderID:   order.ID,
		Email:     order.Request.ShippingInfo.Email,
		Country:   order.Request.ShippingInfo.Country,
		ItemCount: count,
		Items:     order.Request.Items,
		Subtotal:  order.Request.Subtotal,
		Total:     order.Request.Total,
		Timestamp: ts,
	}
}

// NewNewsletterEvent создает событие подписки
func NewNewsletterEvent(sub domain.NewsletterSubscription) *NewsletterEvent {
	ts := sub.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &NewsletterEvent{
		EventType: EventTypeNewsletterSubscribed,
		Email:     sub.Email,
		Timestamp: ts,
	}
}
