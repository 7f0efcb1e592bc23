// Package checkout ведёт покупателя по шагам Shipping → Payment → Review → Complete.
package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
)

// Cart — то, что машине нужно от корзины.
type Cart interface {
	Items() []domain.LineItem
	Subtotal() int64
	IsEmpty() bool
	Clear(ctx context.Context) error
}

// Observer получает события машины, например для метрик.
type Observer interface {
	StepEntered(step Step)
	ValidationFailed(step Step, fields int)
	SubmissionFinished(success bool, duration time.Duration)
}

// Option настраивает Machine.
type Option func(*Machine)

// WithLogger задаёт logger машины.
func WithLogger(logger *log.Entry) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver подключает наблюдателя.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		m.observer = o
	}
}

// WithPromoCode учитывает применённый в корзине промокод в итогах.
func WithPromoCode(code string) Option {
	return func(m *Machine) {
		m.promoCode = code
	}
}

// WithShippingInfo предзаполняет адрес, например из прошлого заказа.
func WithShippingInfo(info domain.ShippingInfo) Option {
	return func(m *Machine) {
		m.shipping = info
	}
}

// PlacedOrder — подтверждённый заказ и суммы на момент отправки.
type PlacedOrder struct {
	OrderID string
	Request domain.OrderRequest
	Totals  domain.Totals
}

// Submission — подготовленная отправка заказа, ещё не переданная сервису.
type Submission struct {
	Request        domain.OrderRequest
	IdempotencyKey string
	Totals         domain.Totals
	startedAt      time.Time
}

// Machine хранит черновик оформления и текущий шаг.
//
// Machine не потокобезопасна; вызывающий код сериализует обращения вместе с корзиной.
type Machine struct {
	cart      Cart
	pricing   *pricing.Engine
	submitter domain.OrderSubmitter
	logger    *log.Entry
	observer  Observer
	promoCode string

	step       Step
	shipping   domain.ShippingInfo
	payment    domain.PaymentInfo
	errors     map[string]string
	submitting bool
	lastErr    error
	placed     *PlacedOrder
	idemKey    string
	// sentHash — отпечаток тела последней отправки; ключ меняется вместе с телом.
	sentHash string
}

// New начинает оформление. С пустой корзиной возвращает ErrEmptyCart:
// покупателя нужно вернуть в корзину.
func New(cart Cart, engine *pricing.Engine, submitter domain.OrderSubmitter, opts ...Option) (*Machine, error) {
	if cart == nil || engine == nil || submitter == nil {
		return nil, fmt.Errorf("checkout: cart, pricing engine and submitter are required")
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	m := &Machine{
		cart:      cart,
		pricing:   engine,
		submitter: submitter,
		logger:    log.New().WithField("component", "checkout"),
		step:      StepShipping,
		errors:    make(map[string]string),
		idemKey:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.shipping.Country == "" {
		m.shipping.Country = domain.DefaultCountry
	}
	m.notifyStep()
	return m, nil
}

// Step возвращает текущий шаг.
func (m *Machine) Step() Step { return m.step }

// Shipping возвращает адрес доставки из черновика.
func (m *Machine) Shipping() domain.ShippingInfo { return m.shipping }

// Payment возвращает платёжные данные из черновика.
func (m *Machine) Payment() domain.PaymentInfo { return m.payment }

// Submitting сообщает, что заказ сейчас отправляется (кнопка должна быть неактивна).
func (m *Machine) Submitting() bool { return m.submitting }

// LastError возвращает ошибку последней отправки заказа.
func (m *Machine) LastError() error { return m.lastErr }

// IdempotencyKey возвращает ключ текущей попытки. Повтор с тем же телом заказа
// идёт с тем же ключом; после правки черновика или корзины ключ новый.
func (m *Machine) IdempotencyKey() string { return m.idemKey }

// Placed возвращает подтверждённый заказ после перехода в Complete.
func (m *Machine) Placed() (PlacedOrder, bool) {
	if m.placed == nil {
		return PlacedOrder{}, false
	}
	return *m.placed, true
}

// OrderID возвращает номер заказа или пустую строку до завершения.
func (m *Machine) OrderID() string {
	if m.placed == nil {
		return ""
	}
	return m.placed.OrderID
}

// Errors возвращает копию карты ошибок текущего шага.
func (m *Machine) Errors() map[string]string {
	out := make(map[string]string, len(m.errors))
	for k, v := range m.errors {
		out[k] = v
	}
	return out
}

// Totals возвращает суммы оформления. После завершения это суммы отправленного заказа.
func (m *Machine) Totals() domain.Totals {
	if m.placed != nil {
		return m.placed.Totals
	}
	return m.pricing.CheckoutSummary(m.cart.Subtotal(), m.promoCode)
}

// SetShippingField записывает поле адреса и снимает ошибку по нему.
func (m *Machine) SetShippingField(field, value string) error {
	if err := m.editable(); err != nil {
		return err
	}
	s := &m.shipping
	switch field {
	case FieldFirstName:
		s.FirstName = value
	case FieldLastName:
		s.LastName = value
	case FieldEmail:
		s.Email = value
	case FieldPhone:
		s.Phone = value
	case FieldAddress:
		s.Address = value
	case FieldCity:
		s.City = value
	case FieldState:
		s.State = value
	case FieldZip:
		s.Zip = value
	case FieldCountry:
		s.Country = value
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}
	delete(m.errors, field)
	return nil
}

// SetPaymentField записывает платёжное поле, применяя правила форматирования ввода.
func (m *Machine) SetPaymentField(field, value string) error {
	if err := m.editable(); err != nil {
		return err
	}
	p := &m.payment
	switch field {
	case FieldCardNumber:
		p.CardNumber = FormatCardNumber(value)
	case FieldCardName:
		p.CardName = value
	case FieldExpiry:
		p.Expiry = FormatExpiry(value)
	case FieldCVV:
		p.CVV = FormatCVV(value)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}
	delete(m.errors, field)
	return nil
}

// SetShippingFields записывает несколько полей адреса. Если хотя бы одно имя
// неизвестно, черновик не меняется.
func (m *Machine) SetShippingFields(fields map[string]string) error {
	return m.setFields(fields, shippingFields, m.SetShippingField)
}

// SetPaymentFields — то же для платёжных полей.
func (m *Machine) SetPaymentFields(fields map[string]string) error {
	return m.setFields(fields, paymentFields, m.SetPaymentField)
}

func (m *Machine) setFields(fields map[string]string, known map[string]bool, set func(string, string) error) error {
	if err := m.editable(); err != nil {
		return err
	}
	var unknown []string
	for name := range fields {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, strings.Join(unknown, ", "))
	}
	for name, value := range fields {
		if err := set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Next переходит на следующий шаг, если поля текущего шага валидны.
func (m *Machine) Next() error {
	var fields map[string]string
	switch m.step {
	case StepShipping:
		fields = ValidateShipping(m.shipping)
	case StepPayment:
		fields = ValidatePayment(m.payment)
	default:
		return fmt.Errorf("%w: next from %s", domain.ErrInvalidTransition, m.step)
	}

	m.errors = fields
	if len(fields) > 0 {
		if m.observer != nil {
			m.observer.ValidationFailed(m.step, len(fields))
		}
		m.logger.WithFields(log.Fields{
			"step":   m.step.String(),
			"fields": len(fields),
		}).Debug("checkout step rejected")
		return &ValidationError{Step: m.step, Fields: m.Errors()}
	}

	m.step++
	m.notifyStep()
	return nil
}

// Back возвращает на предыдущий шаг без проверки; введённые данные сохраняются.
func (m *Machine) Back() error {
	if m.submitting {
		return domain.ErrSubmissionInFlight
	}
	switch m.step {
	case StepPayment, StepReview:
		m.step--
		m.errors = make(map[string]string)
		m.notifyStep()
		return nil
	default:
		return fmt.Errorf("%w: back from %s", domain.ErrInvalidTransition, m.step)
	}
}

// PlaceOrder отправляет заказ и ждёт ответа. Успех очищает корзину и завершает оформление,
// ошибка оставляет машину на Review с нетронутым черновиком.
func (m *Machine) PlaceOrder(ctx context.Context) (PlacedOrder, error) {
	sub, err := m.BeginSubmission()
	if err != nil {
		return PlacedOrder{}, err
	}
	receipt, err := m.submitter.SubmitOrder(ctx, sub.Request, sub.IdempotencyKey)
	return m.FinishSubmission(ctx, sub, receipt, err)
}

// BeginSubmission переводит машину в состояние отправки и собирает запрос.
// Пока отправка не завершена, повторный вызов возвращает ErrSubmissionInFlight.
func (m *Machine) BeginSubmission() (Submission, error) {
	if m.step != StepReview {
		return Submission{}, fmt.Errorf("%w: place order from %s", domain.ErrInvalidTransition, m.step)
	}
	if m.submitting {
		return Submission{}, domain.ErrSubmissionInFlight
	}
	if m.cart.IsEmpty() {
		return Submission{}, domain.ErrEmptyCart
	}

	totals := m.Totals()
	req := domain.NewOrderRequest(m.shipping, m.payment, m.cart.Items(), totals)
	m.rotateKeyIfChanged(req)
	m.submitting = true
	m.lastErr = nil
	return Submission{
		Request:        req,
		IdempotencyKey: m.idemKey,
		Totals:         totals,
		startedAt:      time.Now(),
	}, nil
}

// Submitter возвращает клиент сервиса заказов.
func (m *Machine) Submitter() domain.OrderSubmitter { return m.submitter }

// FinishSubmission применяет ответ сервиса заказов к машине и корзине.
func (m *Machine) FinishSubmission(ctx context.Context, sub Submission, receipt domain.OrderReceipt, submitErr error) (PlacedOrder, error) {
	m.submitting = false
	logger := m.logger.WithField("idempotency_key", sub.IdempotencyKey)

	if submitErr != nil {
		m.lastErr = submitErr
		m.notifySubmission(false, sub)
		logger.WithError(submitErr).Warn("order submission failed, staying on review")
		return PlacedOrder{}, submitErr
	}

	placed := PlacedOrder{OrderID: receipt.OrderID, Request: sub.Request, Totals: sub.Totals}
	m.placed = &placed
	m.step = StepComplete
	m.errors = make(map[string]string)
	m.notifySubmission(true, sub)
	m.notifyStep()
	logger.WithField("order_id", receipt.OrderID).Info("order placed")

	if err := m.cart.Clear(ctx); err != nil {
		// Заказ уже создан; ошибка сохранения пустой корзины не отменяет завершение.
		logger.WithError(err).Warn("failed to persist cleared cart after order")
	}
	return placed, nil
}

// rotateKeyIfChanged выдаёт новый ключ, если тело заказа отличается от прошлой попытки:
// сервис заказов отвечает конфликтом на ключ с другим телом.
func (m *Machine) rotateKeyIfChanged(req domain.OrderRequest) {
	hash := requestFingerprint(req)
	if m.sentHash != "" && (hash == "" || hash != m.sentHash) {
		previous := m.idemKey
		m.idemKey = uuid.NewString()
		m.logger.WithFields(log.Fields{
			"previous_key":    previous,
			"idempotency_key": m.idemKey,
		}).Info("order draft changed since last attempt, using new idempotency key")
	}
	m.sentHash = hash
}

func requestFingerprint(req domain.OrderRequest) string {
	payload, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (m *Machine) editable() error {
	switch {
	case m.submitting:
		return domain.ErrSubmissionInFlight
	case m.step == StepComplete:
		return fmt.Errorf("%w: checkout is complete", domain.ErrInvalidTransition)
	}
	return nil
}

func (m *Machine) notifyStep() {
	if m.observer != nil {
		m.observer.StepEntered(m.step)
	}
	m.logger.WithField("step", m.step.String()).Debug("checkout step entered")
}

func (m *Machine) notifySubmission(success bool, sub Submission) {
	if m.observer == nil {
		return
	}
	var elapsed time.Duration
	if !sub.startedAt.IsZero() {
		elapsed = time.Since(sub.startedAt)
	}
	m.observer.SubmissionFinished(success, elapsed)
}
