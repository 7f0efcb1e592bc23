package domain_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// helper для создания валидного запроса с одной позицией.
func makeRequest() domain.OrderRequest {
	return domain.NewOrderRequest(
		domain.ShippingInfo{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "+1 555-123-4567",
			Address:   "12 St James's Square",
			City:      "London",
			State:     "LDN",
			Zip:       "SW1Y",
			Country:   domain.DefaultCountry,
		},
		domain.PaymentInfo{CardNumber: "4242 4242 4242 1234", CardName: "Ada Lovelace", Expiry: "12/29", CVV: "123"},
		[]domain.LineItem{{
			CartID:         "1-M-black-1",
			ProductID:      "1",
			Name:           "Cashmere Overcoat",
			UnitPriceMinor: 245000,
			Images:         []string{"front.jpg", "back.jpg"},
			SelectedSize:   "M",
			SelectedColor:  "black",
			Quantity:       1,
		}},
		domain.Totals{SubtotalMinor: 245000, TaxMinor: 19600, TotalMinor: 264600},
	)
}

func TestNewOrderRequest_MapsItemsAndTotals(t *testing.T) {
	req := makeRequest()

	if len(req.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(req.Items))
	}
	item := req.Items[0]
	if item.ID != "1" || item.Price != 2450 || item.Image != "front.jpg" {
		t.Fatalf("unexpected item mapping: %+v", item)
	}
	if req.Subtotal != 2450 || req.Tax != 196 || req.Total != 2646 || req.ShippingCost != 0 {
		t.Fatalf("unexpected totals: %+v", req)
	}
	if req.PaymentInfo.Last4 != "1234" || req.PaymentInfo.CardName != "Ada Lovelace" {
		t.Fatalf("unexpected payment summary: %+v", req.PaymentInfo)
	}
}

func TestOrderRequestValidateInvariants_Ok(t *testing.T) {
	req := makeRequest()
	if errs := req.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderRequestValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(r *domain.OrderRequest)
		want error
	}{
		{
			name: "missing city",
			mut:  func(r *domain.OrderRequest) { r.ShippingInfo.City = "" },
			want: domain.ErrShippingInfoIncomplete,
		},
		{
			name: "missing card name",
			mut:  func(r *domain.OrderRequest) { r.PaymentInfo.CardName = " " },
			want: domain.ErrPaymentInfoIncomplete,
		},
		{
			name: "no items",
			mut:  func(r *domain.OrderRequest) { r.Items = nil },
			want: domain.ErrItemsRequired,
		},
		{
			name: "zero quantity",
			mut:  func(r *domain.OrderRequest) { r.Items[0].Quantity = 0 },
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "negative total",
			mut:  func(r *domain.OrderRequest) { r.Total = -1 },
			want: domain.ErrNegativeAmount,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := makeRequest()
			tc.mut(&req)
			errs := req.ValidateInvariants()
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v in %v", tc.want, errs)
			}
		})
	}
}

func TestPaymentSummary(t *testing.T) {
	cases := []struct {
		number string
		want   string
	}{
		{number: "4242 4242 4242 9876", want: "9876"},
		{number: "", want: "0000"},
		{number: "12", want: "12"},
	}
	for _, tc := range cases {
		if got := (domain.PaymentInfo{CardNumber: tc.number}).Summary().Last4; got != tc.want {
			t.Errorf("Summary(%q).Last4 = %q, want %q", tc.number, got, tc.want)
		}
	}
}

func TestMoneyConversions(t *testing.T) {
	if got := domain.MajorToMinor(2450); got != 245000 {
		t.Fatalf("MajorToMinor = %d", got)
	}
	if got := domain.MinorToMajor(27360); got != 273.6 {
		t.Fatalf("MinorToMajor = %v", got)
	}
	if got := domain.ParseMajor(3693.6); got != 369360 {
		t.Fatalf("ParseMajor = %d", got)
	}
}
