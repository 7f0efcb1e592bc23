package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// defaultIdempotencyTTL — срок жизни ключа, если вызывающий код его не задал.
const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyRepository хранит ключи повторной отправки заказов в памяти.
type IdempotencyRepository struct {
	mu      sync.RWMutex
	records map[string]domain.IdempotencyRecord
	now     func() time.Time
}

// NewIdempotencyRepository создаёт in-memory реализацию IdempotencyRepository.
func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{
		records: make(map[string]domain.IdempotencyRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateProcessing резервирует ключ под запрос с данным хешем.
// Повтор того же ключа возвращает существующую запись вместе с ошибкой конфликта,
// кроме ключа в статусе failed с тем же хешем.
func (r *IdempotencyRepository) CreateProcessing(key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	key, requestHash = strings.TrimSpace(key), strings.TrimSpace(requestHash)
	switch {
	case key == "":
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	case requestHash == "":
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	now := r.now()
	if ttlAt.IsZero() {
		ttlAt = now.Add(defaultIdempotencyTTL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[key]; ok {
		if existing.RequestHash != requestHash {
			return existing.Clone(), domain.ErrIdempotencyHashMismatch
		}
		// Ключ с ошибочной обработкой можно занять заново тем же телом запроса.
		if existing.Status != domain.IdempotencyStatusFailed {
			return existing.Clone(), domain.ErrIdempotencyKeyAlreadyExists
		}
	}

	record := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.records[key] = record
	return record.Clone(), nil
}

// Get возвращает запись по ключу.
func (r *IdempotencyRepository) Get(key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[key]
	if !ok {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	return record.Clone(), nil
}

// MarkDone сохраняет успешный ответ для повторной выдачи.
func (r *IdempotencyRepository) MarkDone(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

// MarkFailed фиксирует неуспешный ответ.
func (r *IdempotencyRepository) MarkFailed(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

// DeleteExpired удаляет не более limit записей с TTL не позже before (limit <= 0 снимает ограничение).
func (r *IdempotencyRepository) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, record := range r.records {
		if limit > 0 && removed >= limit {
			break
		}
		if record.TTLAt.After(before) {
			continue
		}
		delete(r.records, key)
		removed++
	}
	return removed, nil
}

func (r *IdempotencyRepository) finish(key string, status domain.IdempotencyStatus, body []byte, httpStatus int) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[key]
	if !ok {
		return domain.ErrIdempotencyKeyNotFound
	}
	record.Status = status
	record.ResponseBody = append([]byte(nil), body...)
	record.HTTPStatus = httpStatus
	record.UpdatedAt = r.now()
	r.records[key] = record
	return nil
}

var _ domain.IdempotencyRepository = (*IdempotencyRepository)(nil)
