package kafka

import (
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Publisher публикует доменные события сервиса заказов в свои topics.
// С nil EventPublisher события молча пропускаются: Kafka необязательна.
type Publisher struct {
	events          domain.EventPublisher
	orderTopic      string
	newsletterTopic string
}

// NewPublisher создаёт паблишер. Пустые topics заменяются значениями по умолчанию.
func NewPublisher(events domain.EventPublisher, orderTopic, newsletterTopic string) *Publisher {
	if orderTopic == "" {
		orderTopic = TopicOrderEvents
	}
	if newsletterTopic == "" {
		newsletterTopic = TopicNewsletterEvents
	}
	return &Publisher{
		events:          events,
		orderTopic:      orderTopic,
		newsletterTopic: newsletterTopic,
	}
}

// Enabled сообщает, подключён ли брокер.
func (p *Publisher) Enabled() bool {
	return p != nil && p.events != nil
}

// OrderPlaced публикует order.placed с ключом по номеру заказа.
func (p *Publisher) OrderPlaced(order domain.Order) error {
	if !p.Enabled() {
		return nil
	}
	return p.events.PublishEvent(p.orderTopic, order.ID, NewOrderPlacedEvent(order))
}

// NewsletterSubscribed публикует newsletter.subscribed с ключом по email.
func (p *Publisher) NewsletterSubscribed(sub domain.NewsletterSubscription) error {
	if !p.Enabled() {
		return nil
	}
	return p.events.PublishEvent(p.newsletterTopic, sub.Email, NewNewsletterEvent(sub))
}
