// Package pricing рассчитывает подытог, доставку, налог, скидку и итог.
//
// Расчёт носит справочный характер: авторитетной цены на клиенте нет,
// сервер заказов принимает суммы как есть.
package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Rules задаёт параметры расчёта. Все суммы в минимальных единицах.
type Rules struct {
	// FreeShippingThresholdMinor — подытог, начиная с которого доставка бесплатна.
	FreeShippingThresholdMinor int64
	// FlatShippingMinor — фиксированная стоимость доставки ниже порога.
	FlatShippingMinor int64
	// TaxPercent — ставка налога в процентах от подытога.
	TaxPercent int64
	// PromoCodes сопоставляет код (в верхнем регистре) с процентом скидки.
	PromoCodes map[string]int64
}

// DefaultRules возвращает правила витрины: бесплатная доставка от 500,
// иначе 25; налог 8%; код LUXE10 даёт 10%.
func DefaultRules() Rules {
	return Rules{
		FreeShippingThresholdMinor: domain.MajorToMinor(500),
		FlatShippingMinor:          domain.MajorToMinor(25),
		TaxPercent:                 8,
		PromoCodes:                 map[string]int64{"LUXE10": 10},
	}
}

// Validate проверяет, что правила не дают отрицательных сумм.
func (r Rules) Validate() error {
	if r.FreeShippingThresholdMinor < 0 || r.FlatShippingMinor < 0 || r.TaxPercent < 0 {
		return domain.ErrNegativeAmount
	}
	for code, pct := range r.PromoCodes {
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("pricing: empty promo code")
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("pricing: promo %s percent %d out of range", code, pct)
		}
	}
	return nil
}

// Engine — чистый расчётный слой без собственного состояния.
type Engine struct {
	rules Rules
}

// NewEngine создаёт движок. Коды промо нормализуются к верхнему регистру.
func NewEngine(rules Rules) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	codes := make(map[string]int64, len(rules.PromoCodes))
	for code, pct := range rules.PromoCodes {
		codes[normalizeCode(code)] = pct
	}
	rules.PromoCodes = codes
	return &Engine{rules: rules}, nil
}

// MustDefault возвращает движок с DefaultRules.
func MustDefault() *Engine {
	e, err := NewEngine(DefaultRules())
	if err != nil {
		panic(err)
	}
	return e
}

// Rules возвращает копию действующих правил.
func (e *Engine) Rules() Rules {
	out := e.rules
	out.PromoCodes = make(map[string]int64, len(e.rules.PromoCodes))
	for k, v := range e.rules.PromoCodes {
		out.PromoCodes[k] = v
	}
	return out
}

// ShippingFee возвращает 0, если subtotal ≥ порога, иначе фиксированный тариф.
func (e *Engine) ShippingFee(subtotal int64) int64 {
	if subtotal >= e.rules.FreeShippingThresholdMinor {
		return 0
	}
	return e.rules.FlatShippingMinor
}

// FreeShippingRemaining возвращает, сколько не хватает до бесплатной доставки.
func (e *Engine) FreeShippingRemaining(subtotal int64) int64 {
	if subtotal >= e.rules.FreeShippingThresholdMinor {
		return 0
	}
	return e.rules.FreeShippingThresholdMinor - subtotal
}

// Tax возвращает налог от подытога с округлением до цента.
func (e *Engine) Tax(subtotal int64) int64 {
	return percentOf(subtotal, e.rules.TaxPercent)
}

// Discount возвращает скидку по коду или 0, если код не распознан.
func (e *Engine) Discount(subtotal int64, code string) int64 {
	pct, ok := e.LookupPromo(code)
	if !ok {
		return 0
	}
	return percentOf(subtotal, pct)
}

// LookupPromo ищет код без учёта регистра и пробелов по краям.
func (e *Engine) LookupPromo(code string) (int64, bool) {
	c := normalizeCode(code)
	if c == "" {
		return 0, false
	}
	pct, ok := e.rules.PromoCodes[c]
	return pct, ok
}

// PromoCodes возвращает известные коды в алфавитном порядке.
func (e *Engine) PromoCodes() []string {
	out := make([]string, 0, len(e.rules.PromoCodes))
	for code := range e.rules.PromoCodes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Total = subtotal + shipping + tax − discount.
func Total(subtotal, shipping, tax, discount int64) int64 {
	return subtotal + shipping + tax - discount
}

// CartSummary — суммы для корзины: без налога, со скидкой по применённому коду.
func (e *Engine) CartSummary(subtotal int64, appliedCode string) domain.Totals {
	shipping := e.ShippingFee(subtotal)
	discount := e.Discount(subtotal, appliedCode)
	return domain.Totals{
		SubtotalMinor: subtotal,
		ShippingMinor: shipping,
		DiscountMinor: discount,
		TotalMinor:    Total(subtotal, shipping, 0, discount),
	}
}

// CheckoutSummary — суммы для оформления: доставка, налог и скидка по применённому коду.
func (e *Engine) CheckoutSummary(subtotal int64, appliedCode string) domain.Totals {
	shipping := e.ShippingFee(subtotal)
	tax := e.Tax(subtotal)
	discount := e.Discount(subtotal, appliedCode)
	return domain.Totals{
		SubtotalMinor: subtotal,
		ShippingMinor: shipping,
		TaxMinor:      tax,
		DiscountMinor: discount,
		TotalMinor:    Total(subtotal, shipping, tax, discount),
	}
}

// ValidateSubtotal отклоняет отрицательный подытог.
func ValidateSubtotal(subtotal int64) error {
	if subtotal < 0 {
		return domain.ErrNegativeAmount
	}
	return nil
}

// percentOf считает amount × pct / 100 с округлением половины вверх.
func percentOf(amount, pct int64) int64 {
	if amount <= 0 || pct <= 0 {
		return 0
	}
	return (amount*pct + 50) / 100
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
