package domain

import (
	"context"
	"time"
)

// CartRepository хранит именованные снимки корзины. Запись однопоточная: побеждает последняя.
type CartRepository interface {
	// Load возвращает снимок или ErrSnapshotNotFound.
	Load(ctx context.Context, name string) (CartSnapshot, error)
	// Save перезаписывает снимок целиком.
	Save(ctx context.Context, name string, snapshot CartSnapshot) error
}

// OrderSubmitter отправляет заказ во внешний сервис заказов.
type OrderSubmitter interface {
	// SubmitOrder выполняет один запрос. Ошибка оборачивает ErrTransport или ErrServerRejected.
	SubmitOrder(ctx context.Context, req OrderRequest, idempotencyKey string) (OrderReceipt, error)
}

// NewsletterSubscriber оформляет подписку на рассылку.
type NewsletterSubscriber interface {
	Subscribe(ctx context.Context, email string) error
}

// OrderRepository описывает требования к хранилищу сервиса заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderExists, если ID уже занят.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
}

// NewsletterRepository хранит подписчиков рассылки.
type NewsletterRepository interface {
	// Subscribe возвращает created=false, если email уже подписан.
	Subscribe(sub NewsletterSubscription) (created bool, err error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// EventPublisher публикует доменные события во внешний брокер.
type EventPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}

// OutboxRepository копит события до публикации в брокер.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending возвращает до limit pending-записей, старые первыми.
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher доставляет запись outbox в брокер.
type OutboxPublisher interface {
	Publish(msg OutboxMessage) error
}
