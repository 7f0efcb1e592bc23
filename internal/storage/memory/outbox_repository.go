package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultOutboxPullLimit = 100

// outboxRecord хранит сообщение и служебные поля.
type outboxRecord struct {
	msg        domain.OutboxMessage
	status     domain.OutboxStatus
	attemptCnt int
	updatedAt  time.Time
}

// OutboxRepository — in-memory outbox событий сервиса заказов.
type OutboxRepository struct {
	mu      sync.RWMutex
	records map[string]*outboxRecord
	now     func() time.Time
}

// NewOutboxRepository создаёт in-memory реализацию outbox.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		records: make(map[string]*outboxRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue сохраняет событие со статусом pending.
func (r *OutboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if strings.TrimSpace(msg.Topic) == "" {
		return domain.OutboxMessage{}, domain.ErrOutboxTopicRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := r.now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.Payload = append([]byte(nil), msg.Payload...)
	r.records[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    domain.OutboxStatusPending,
		updatedAt: now,
	}
	return msg, nil
}

// PullPending возвращает до limit pending-сообщений в порядке создания.
func (r *OutboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultOutboxPullLimit
	}

	r.mu.RLock()
	pending := make([]domain.OutboxMessage, 0, len(r.records))
	for _, rec := range r.records {
		if rec.status == domain.OutboxStatusPending {
			pending = append(pending, rec.msg)
		}
	}
	r.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// Stats возвращает число pending-записей и время создания самой старой.
func (r *OutboxRepository) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, rec := range r.records {
		if rec.status != domain.OutboxStatusPending {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.msg.CreatedAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.msg.CreatedAt
		}
	}
	return stats, nil
}

// MarkSent помечает событие опубликованным.
func (r *OutboxRepository) MarkSent(id string) error {
	return r.mark(id, domain.OutboxStatusSent)
}

// MarkFailed фиксирует, что событие не удалось опубликовать.
func (r *OutboxRepository) MarkFailed(id string) error {
	return r.mark(id, domain.OutboxStatusFailed)
}

func (r *OutboxRepository) mark(id string, status domain.OutboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.ErrOutboxMessageNotFound
	}
	record.status = status
	record.attemptCnt++
	record.updatedAt = r.now()
	return nil
}

// Status возвращает статус записи; используется в тестах.
func (r *OutboxRepository) Status(id string) (domain.OutboxStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return "", false
	}
	return record.status, true
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
