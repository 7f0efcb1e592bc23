package pricing

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// Promo — флаг применённого промокода. Повторное применение не удваивает скидку:
// движок считает скидку от подытога, а не накапливает её.
type Promo struct {
	code string
}

// Apply применяет код один раз.
func (p *Promo) Apply(engine *Engine, code string) error {
	if p.code != "" {
		return domain.ErrPromoAlreadyApplied
	}
	if _, ok := engine.LookupPromo(code); !ok {
		return domain.ErrPromoInvalid
	}
	p.code = normalizeCode(code)
	return nil
}

// Code возвращает применённый код или пустую строку.
func (p *Promo) Code() string {
	return p.code
}

// Applied сообщает, применён ли код.
func (p *Promo) Applied() bool {
	return p.code != ""
}

// Reset снимает код, например после оформления заказа.
func (p *Promo) Reset() {
	p.code = ""
}
