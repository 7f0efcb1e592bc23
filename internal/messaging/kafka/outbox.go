package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// typedEvent реализуют события, знающие свой тип.
type typedEvent interface {
	Type() EventType
}

// OutboxWriter сохраняет события в outbox вместо прямой отправки в брокер.
// Подставляется в Publisher на место Producer; в Kafka события доставляет outbox worker.
type OutboxWriter struct {
	repo domain.OutboxRepository
}

var _ domain.EventPublisher = (*OutboxWriter)(nil)

// NewOutboxWriter создаёт writer поверх repo.
func NewOutboxWriter(repo domain.OutboxRepository) *OutboxWriter {
	return &OutboxWriter{repo: repo}
}

// PublishEvent сериализует событие и ставит его в outbox.
func (w *OutboxWriter) PublishEvent(topic string, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := domain.OutboxMessage{Topic: topic, Key: key, Payload: payload}
	if typed, ok := event.(typedEvent); ok {
		msg.EventType = string(typed.Type())
	}
	if _, err := w.repo.Enqueue(msg); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

// OutboxRelay публикует записи outbox через EventPublisher как есть, без повторной сериализации.
type OutboxRelay struct {
	events domain.EventPublisher
}

var _ domain.OutboxPublisher = (*OutboxRelay)(nil)

// NewOutboxRelay создаёт relay поверх producer.
func NewOutboxRelay(events domain.EventPublisher) *OutboxRelay {
	return &OutboxRelay{events: events}
}

// Publish отправляет запись в её topic.
func (r *OutboxRelay) Publish(msg domain.OutboxMessage) error {
	return r.events.PublishEvent(msg.Topic, msg.Key, json.RawMessage(msg.Payload))
}

// DeadLetter — конверт записи, которую не удалось опубликовать.
type DeadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	Topic          string          `json:"topic"`
	Key            string          `json:"key"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error"`
	DeadLetteredAt time.Time       `json:"dlq_published_at"`
}

// DLQPublisher отправляет неопубликованные записи в общий dead-letter topic.
type DLQPublisher struct {
	events domain.EventPublisher
	topic  string
	now    func() time.Time
}

// NewDLQPublisher создаёт DLQ publisher. Пустой topic заменяется TopicDeadLetter.
func NewDLQPublisher(events domain.EventPublisher, topic string) *DLQPublisher {
	if topic == "" {
		topic = TopicDeadLetter
	}
	return &DLQPublisher{events: events, topic: topic, now: func() time.Time { return time.Now().UTC() }}
}

// PublishDeadLetter публикует конверт с исходной записью и причиной отказа.
func (p *DLQPublisher) PublishDeadLetter(msg domain.OutboxMessage, publishErr error) error {
	letter := DeadLetter{
		OutboxID:       msg.ID,
		Topic:          msg.Topic,
		Key:            msg.Key,
		EventType:      msg.EventType,
		Payload:        json.RawMessage(msg.Payload),
		DeadLetteredAt: p.now(),
	}
	if publishErr != nil {
		letter.PublishError = publishErr.Error()
	}
	return p.events.PublishEvent(p.topic, msg.ID, letter)
}
