package storefront

import (
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
)

type productView struct {
	ID            string   `json:"id"`
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Stock         int      `json:"stock"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Images        []string `json:"images"`
}

func buildProduct(p domain.Product) productView {
	view := productView{
		ID:       p.ID,
		Slug:     p.Slug,
		Name:     p.Name,
		Category: p.Category,
		Price:    domain.MinorToMajor(p.PriceMinor()),
		Stock:    p.Stock,
		Sizes:    p.Sizes,
		Colors:   p.Colors,
		Images:   p.Images,
	}
	if p.OriginalPrice != nil {
		original := float64(*p.OriginalPrice)
		view.OriginalPrice = &original
	}
	return view
}

func buildProducts(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, buildProduct(p))
	}
	return out
}

type lineItemView struct {
	CartID        string  `json:"cartId,omitempty"`
	ProductID     string  `json:"id"`
	Slug          string  `json:"slug,omitempty"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Image         string  `json:"image,omitempty"`
	SelectedSize  string  `json:"selectedSize"`
	SelectedColor string  `json:"selectedColor"`
	Quantity      int     `json:"quantity"`
	LineTotal     float64 `json:"lineTotal"`
}

func buildLineItems(items []domain.LineItem) []lineItemView {
	out := make([]lineItemView, 0, len(items))
	for _, item := range items {
		out = append(out, lineItemView{
			CartID:        item.CartID,
			ProductID:     item.ProductID,
			Slug:          item.Slug,
			Name:          item.Name,
			Price:         domain.MinorToMajor(item.UnitPriceMinor),
			Image:         item.PrimaryImage(),
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
			Quantity:      item.Quantity,
			LineTotal:     domain.MinorToMajor(item.LineTotalMinor()),
		})
	}
	return out
}

// buildOrderItems показывает позиции отправленного заказа: корзина к этому моменту уже пуста.
func buildOrderItems(items []domain.OrderItem) []lineItemView {
	out := make([]lineItemView, 0, len(items))
	for _, item := range items {
		price := domain.ParseMajor(item.Price)
		out = append(out, lineItemView{
			ProductID:     item.ID,
			Name:          item.Name,
			Price:         item.Price,
			Image:         item.Image,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
			Quantity:      item.Quantity,
			LineTotal:     domain.MinorToMajor(price * int64(item.Quantity)),
		})
	}
	return out
}

type totalsView struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

func buildTotals(t domain.Totals) totalsView {
	return totalsView{
		Subtotal: domain.MinorToMajor(t.SubtotalMinor),
		Shipping: domain.MinorToMajor(t.ShippingMinor),
		Tax:      domain.MinorToMajor(t.TaxMinor),
		Discount: domain.MinorToMajor(t.DiscountMinor),
		Total:    domain.MinorToMajor(t.TotalMinor),
	}
}

type cartView struct {
	SessionID             string         `json:"session_id"`
	Items                 []lineItemView `json:"items"`
	ItemCount             int            `json:"item_count"`
	Subtotal              float64        `json:"subtotal"`
	Shipping              float64        `json:"shipping"`
	Discount              float64        `json:"discount"`
	Total                 float64        `json:"total"`
	FreeShippingRemaining float64        `json:"free_shipping_remaining"`
	PromoCode             string         `json:"promo_code,omitempty"`
	IsOpen                bool           `json:"is_open"`
}

func buildCart(sess *Session, engine *pricing.Engine) cartView {
	subtotal := sess.cart.Subtotal()
	totals := engine.CartSummary(subtotal, sess.promo.Code())
	return cartView{
		SessionID:             sess.id,
		Items:                 buildLineItems(sess.cart.Items()),
		ItemCount:             sess.cart.ItemCount(),
		Subtotal:              domain.MinorToMajor(totals.SubtotalMinor),
		Shipping:              domain.MinorToMajor(totals.ShippingMinor),
		Discount:              domain.MinorToMajor(totals.DiscountMinor),
		Total:                 domain.MinorToMajor(totals.TotalMinor),
		FreeShippingRemaining: domain.MinorToMajor(engine.FreeShippingRemaining(subtotal)),
		PromoCode:             sess.promo.Code(),
		IsOpen:                sess.cart.IsOpen(),
	}
}

// paymentView не возвращает CVV: после ввода он нужен только для отправки формы.
type paymentView struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	Expiry     string `json:"expiry"`
	CVVSet     bool   `json:"cvvSet"`
}

type checkoutView struct {
	SessionID  string              `json:"session_id"`
	Step       checkout.Step       `json:"step"`
	Shipping   domain.ShippingInfo `json:"shipping"`
	Payment    paymentView         `json:"payment"`
	Errors     map[string]string   `json:"errors"`
	Items      []lineItemView      `json:"items"`
	Totals     totalsView          `json:"totals"`
	Submitting bool                `json:"submitting"`
	LastError  string              `json:"last_error,omitempty"`
	OrderID    string              `json:"order_id,omitempty"`
}

func buildCheckout(sess *Session) checkoutView {
	m := sess.checkout
	payment := m.Payment()
	view := checkoutView{
		SessionID: sess.id,
		Step:      m.Step(),
		Shipping:  m.Shipping(),
		Payment: paymentView{
			CardNumber: payment.CardNumber,
			CardName:   payment.CardName,
			Expiry:     payment.Expiry,
			CVVSet:     payment.CVV != "",
		},
		Errors:     m.Errors(),
		Totals:     buildTotals(m.Totals()),
		Submitting: m.Submitting(),
		OrderID:    m.OrderID(),
	}
	if placed, ok := m.Placed(); ok {
		view.Items = buildOrderItems(placed.Request.Items)
	} else {
		view.Items = buildLineItems(sess.cart.Items())
	}
	if err := m.LastError(); err != nil {
		view.LastError = submissionMessage(err)
	}
	return view
}
