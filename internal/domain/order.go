package domain

import (
	"strings"
	"time"
)

// OrderItem — позиция заказа в формате сервиса заказов.
type OrderItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	SelectedSize  string  `json:"selectedSize,omitempty"`
	SelectedColor string  `json:"selectedColor,omitempty"`
	Image         string  `json:"image,omitempty"`
}

// OrderRequest — тело запроса на создание заказа.
// Суммы передаются в денежных единицах, как их ожидает сервис заказов.
type OrderRequest struct {
	ShippingInfo ShippingInfo   `json:"shipping_info"`
	PaymentInfo  PaymentSummary `json:"payment_info"`
	Items        []OrderItem    `json:"items"`
	Subtotal     float64        `json:"subtotal"`
	ShippingCost float64        `json:"shipping_cost"`
	Tax          float64        `json:"tax"`
	Total        float64        `json:"total"`
}

// NewOrderRequest собирает запрос из позиций корзины и рассчитанных сумм.
func NewOrderRequest(shipping ShippingInfo, payment PaymentInfo, items []LineItem, totals Totals) OrderRequest {
	orderItems := make([]OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, OrderItem{
			ID:            item.ProductID,
			Name:          item.Name,
			Price:         MinorToMajor(item.UnitPriceMinor),
			Quantity:      item.Quantity,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
			Image:         item.PrimaryImage(),
		})
	}
	return OrderRequest{
		ShippingInfo: shipping,
		PaymentInfo:  payment.Summary(),
		Items:        orderItems,
		Subtotal:     MinorToMajor(totals.SubtotalMinor),
		ShippingCost: MinorToMajor(totals.ShippingMinor),
		Tax:          MinorToMajor(totals.TaxMinor),
		Total:        MinorToMajor(totals.TotalMinor),
	}
}

// ValidateInvariants проверяет обязательные поля запроса и возвращает список замечаний.
func (r OrderRequest) ValidateInvariants() []error {
	var errs []error

	s := r.ShippingInfo
	for _, v := range []string{s.FirstName, s.LastName, s.Email, s.Phone, s.Address, s.City, s.State, s.Zip, s.Country} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, ErrShippingInfoIncomplete)
			break
		}
	}
	if strings.TrimSpace(r.PaymentInfo.CardName) == "" || strings.TrimSpace(r.PaymentInfo.Last4) == "" {
		errs = append(errs, ErrPaymentInfoIncomplete)
	}
	if len(r.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range r.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}
	if r.Subtotal < 0 || r.ShippingCost < 0 || r.Tax < 0 || r.Total < 0 {
		errs = append(errs, ErrNegativeAmount)
	}

	return errs
}

// OrderReceipt — подтверждение сервиса заказов; единственное доказательство завершения оформления.
type OrderReceipt struct {
	OrderID string `json:"order_id"`
	Message string `json:"message,omitempty"`
}

// Order — заказ, сохранённый сервисом заказов.
// Суммы хранятся как пришли от клиента и не являются авторитетными.
type Order struct {
	ID             string
	Request        OrderRequest
	IdempotencyKey string
	CreatedAt      time.Time
}

// SubtotalMinor возвращает подытог заказа в минимальных единицах.
func (o Order) SubtotalMinor() int64 {
	return ParseMajor(o.Request.Subtotal)
}

// TotalMinor возвращает итог заказа в минимальных единицах.
func (o Order) TotalMinor() int64 {
	return ParseMajor(o.Request.Total)
}
