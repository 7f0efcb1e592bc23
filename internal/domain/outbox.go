package domain

import "time"

// OutboxStatus — состояние записи в outbox.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage — событие, ожидающее публикации в брокер.
// Payload хранится уже сериализованным, чтобы публикация не зависела от типов событий.
type OutboxMessage struct {
	ID        string
	Topic     string
	Key       string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxStats описывает текущий backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
