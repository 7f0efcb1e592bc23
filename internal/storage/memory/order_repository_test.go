package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newOrder() domain.Order {
	return domain.Order{
		ID: "LX0A1B2C3D",
		Request: domain.OrderRequest{
			ShippingInfo: domain.ShippingInfo{FirstName: "Ada", Email: "ada@example.com"},
			PaymentInfo:  domain.PaymentSummary{CardName: "Ada Lovelace", Last4: "4242"},
			Items: []domain.OrderItem{
				{ID: "3", Name: "Merino Wool Turtleneck", Price: 485, Quantity: 2},
			},
			Subtotal:     970,
			ShippingCost: 0,
			Tax:          77.6,
			Total:        1047.6,
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder()

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != order.ID {
		t.Fatalf("expected id %s, got %s", order.ID, stored.ID)
	}
	if stored.TotalMinor() != 104760 {
		t.Fatalf("expected total 104760, got %d", stored.TotalMinor())
	}
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder()
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.Create(order); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repo := memory.NewOrderRepository()
	if _, err := repo.Get("nope"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_StoresCopy(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder()
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order.Request.Items[0].Quantity = 99

	stored, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Request.Items[0].Quantity != 2 {
		t.Fatalf("repository must keep its own copy, got qty %d", stored.Request.Items[0].Quantity)
	}
}
