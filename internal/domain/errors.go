package domain

import "errors"

var (
	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidVariant — размер или цвет не входит в оси товара.
	ErrInvalidVariant = errors.New("size or color is not offered for product")
	// ErrSnapshotNotFound возвращается, если снимка корзины с таким именем нет.
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
	// ErrSnapshotNameRequired возвращается для пустого имени снимка.
	ErrSnapshotNameRequired = errors.New("cart snapshot name is required")
	// ErrEmptyCart — оформление нельзя начать с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrValidation — поля текущего шага не прошли проверку.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition — переход недопустим из текущего шага.
	ErrInvalidTransition = errors.New("invalid checkout transition")
	// ErrUnknownField: в форме пришло поле, которого нет у шага.
	ErrUnknownField = errors.New("unknown form field")
	// ErrSubmissionInFlight — заказ уже отправляется.
	ErrSubmissionInFlight = errors.New("order submission already in flight")
	// ErrTransport — запрос не дошёл до сервиса; можно повторить.
	ErrTransport = errors.New("order service unreachable")
	// ErrServerRejected — сервис ответил ошибкой; можно повторить.
	ErrServerRejected = errors.New("order service rejected request")
	// ErrPromoInvalid возвращается для нераспознанного промокода.
	ErrPromoInvalid = errors.New("promo code is not valid")
	// Промокод уже применён к корзине.
	ErrPromoAlreadyApplied = errors.New("promo code already applied")
	// ErrNegativeAmount — сумма не может быть отрицательной.
	ErrNegativeAmount = errors.New("amount must be non-negative")
	// ErrShippingInfoIncomplete — в адресе доставки пропущены поля.
	ErrShippingInfoIncomplete = errors.New("shipping info is incomplete")
	// ErrPaymentInfoIncomplete — нет имени владельца карты или последних цифр.
	ErrPaymentInfoIncomplete = errors.New("payment info is incomplete")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// Заказ с таким ID уже сохранён.
	ErrOrderExists = errors.New("order already exists")
	// ErrEmailRequired возвращается для подписки без email.
	ErrEmailRequired = errors.New("email is required")
	// Пустой Idempotency-Key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// Ключ нельзя сохранить без хеша тела запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже использован с тем же телом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ повторно использован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound возвращается, если ключа нет.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrOutboxMessageNotFound возвращается из MarkSent/MarkFailed для неизвестного ID.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
	// ErrOutboxTopicRequired — событие без topic некуда публиковать.
	ErrOutboxTopicRequired = errors.New("outbox message topic is required")
)

// IsRetryable сообщает, можно ли повторить отправку заказа: сеть или отказ сервиса.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrServerRejected)
}

// IsIdempotencyConflict проверяет, связана ли ошибка с повторным использованием ключа.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
