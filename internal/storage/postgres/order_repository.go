package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("create order: id is required")
	}
	shipping, err := json.Marshal(order.Request.ShippingInfo)
	if err != nil {
		return fmt.Errorf("encode shipping info: %w", err)
	}
	payment, err := json.Marshal(order.Request.PaymentInfo)
	if err != nil {
		return fmt.Errorf("encode payment info: %w", err)
	}
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req := order.Request
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, idempotency_key, email, shipping_info, payment_info,
			subtotal_minor, shipping_minor, tax_minor, total_minor, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		order.ID,
		nullString(order.IdempotencyKey),
		req.ShippingInfo.Email,
		shipping,
		payment,
		domain.ParseMajor(req.Subtotal),
		domain.ParseMajor(req.ShippingCost),
		domain.ParseMajor(req.Tax),
		domain.ParseMajor(req.Total),
		createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range req.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, position, product_id, name, price_minor, quantity,
				selected_size, selected_color, image
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
			order.ID, i, item.ID, item.Name, domain.ParseMajor(item.Price), item.Quantity,
			item.SelectedSize, item.SelectedColor, item.Image,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		order                      domain.Order
		idemKey                    sql.NullString
		shipping, payment          []byte
		subtotal, ship, tax, total int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, idempotency_key, shipping_info, payment_info,
		       subtotal_minor, shipping_minor, tax_minor, total_minor, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &idemKey, &shipping, &payment, &subtotal, &ship, &tax, &total, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	if err := json.Unmarshal(shipping, &order.Request.ShippingInfo); err != nil {
		return domain.Order{}, fmt.Errorf("decode shipping info: %w", err)
	}
	if err := json.Unmarshal(payment, &order.Request.PaymentInfo); err != nil {
		return domain.Order{}, fmt.Errorf("decode payment info: %w", err)
	}
	order.IdempotencyKey = idemKey.String
	order.Request.Subtotal = domain.MinorToMajor(subtotal)
	order.Request.ShippingCost = domain.MinorToMajor(ship)
	order.Request.Tax = domain.MinorToMajor(tax)
	order.Request.Total = domain.MinorToMajor(total)

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Request.Items = items
	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, price_minor, quantity, selected_size, selected_color, image
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var (
			item  domain.OrderItem
			price int64
		)
		if err := rows.Scan(&item.ID, &item.Name, &price, &item.Quantity, &item.SelectedSize, &item.SelectedColor, &item.Image); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.Price = domain.MinorToMajor(price)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

var _ domain.OrderRepository = (*orderRepository)(nil)
