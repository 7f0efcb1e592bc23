package domain

import "strings"

// DefaultCountry подставляется в новый черновик доставки.
const DefaultCountry = "United States"

// ShippingInfo — адрес и контакты покупателя.
type ShippingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

// PaymentInfo — данные карты в том виде, в каком их ввёл покупатель.
// Полный номер и CVV никогда не покидают клиента.
type PaymentInfo struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// PaymentSummary — единственная часть платёжных данных, которая уходит на сервер.
type PaymentSummary struct {
	CardName string `json:"cardName"`
	Last4    string `json:"last4"`
}

// Summary сокращает платёжные данные до имени и последних четырёх цифр.
func (p PaymentInfo) Summary() PaymentSummary {
	digits := strings.Join(strings.Fields(p.CardNumber), "")
	last4 := digits
	if len(digits) > 4 {
		last4 = digits[len(digits)-4:]
	}
	if last4 == "" {
		last4 = "0000"
	}
	return PaymentSummary{CardName: p.CardName, Last4: last4}
}

// Totals — рассчитанные суммы корзины или оформления в минимальных единицах.
type Totals struct {
	SubtotalMinor int64 `json:"subtotalMinor"`
	ShippingMinor int64 `json:"shippingMinor"`
	TaxMinor      int64 `json:"taxMinor"`
	DiscountMinor int64 `json:"discountMinor"`
	TotalMinor    int64 `json:"totalMinor"`
}
