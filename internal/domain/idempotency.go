package domain

import "time"

// IdempotencyStatus описывает жизненный цикл ключа повторной отправки заказа.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing — заказ принят и ещё сохраняется.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone — заказ создан, ответ сохранён для повтора.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed — создание заказа завершилось ошибкой; ключ можно использовать снова.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// IdempotencyRecord хранит ответ сервиса заказов на запрос с Idempotency-Key.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// Replayable сообщает, можно ли отдать сохранённый ответ вместо повторной обработки.
func (r IdempotencyRecord) Replayable() bool {
	return r.Status == IdempotencyStatusDone && len(r.ResponseBody) > 0
}

// Clone возвращает копию записи без общего буфера ответа.
func (r IdempotencyRecord) Clone() IdempotencyRecord {
	out := r
	out.ResponseBody = append([]byte(nil), r.ResponseBody...)
	return out
}
