// Package cart — единственный владелец содержимого корзины и флага её видимости.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultSnapshotName — имя снимка корзины по умолчанию.
const DefaultSnapshotName = "luxe-cart"

// Store хранит позиции корзины в порядке добавления.
//
// Store не потокобезопасен: все мутации выполняются последовательно,
// сериализацию обеспечивает вызывающий код.
type Store struct {
	name   string
	repo   domain.CartRepository
	logger *log.Entry

	items []domain.LineItem
	open  bool
	seq   uint64
}

// NewStore создаёт пустую корзину, сохраняемую в repo под именем name.
func NewStore(name string, repo domain.CartRepository, logger *log.Entry) *Store {
	if name == "" {
		name = DefaultSnapshotName
	}
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	return &Store{
		name:   name,
		repo:   repo,
		logger: logger.WithField("cart", name),
	}
}

// Name возвращает имя снимка.
func (s *Store) Name() string {
	return s.name
}

// Load восстанавливает позиции из репозитория. Отсутствие снимка даёт пустую корзину.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snapshot, err := s.repo.Load(ctx, s.name)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			s.items = nil
			return nil
		}
		return fmt.Errorf("cart: load snapshot: %w", err)
	}
	s.items = snapshot.Clone().Items
	for _, item := range s.items {
		if n := cartIDSeq(item.CartID); n > s.seq {
			s.seq = n
		}
	}
	s.logger.WithField("items", len(s.items)).Debug("cart restored")
	return nil
}

// AddItem добавляет вариант товара. Пустые size/color заменяются первыми значениями осей,
// qty <= 0 трактуется как 1. Повторное добавление той же тройки увеличивает количество.
// Успешное добавление всегда открывает корзину.
func (s *Store) AddItem(ctx context.Context, product domain.Product, size, color string, qty int) (domain.LineItem, error) {
	defSize, defColor := product.DefaultVariant()
	if size == "" {
		size = defSize
	}
	if color == "" {
		color = defColor
	}
	if qty <= 0 {
		qty = 1
	}
	if !product.HasSize(size) || !product.HasColor(color) {
		return domain.LineItem{}, fmt.Errorf("%w: %s size=%q color=%q", domain.ErrInvalidVariant, product.ID, size, color)
	}

	idx := s.indexOfVariant(product.ID, size, color)
	if idx >= 0 {
		s.items[idx].Quantity += qty
	} else {
		s.items = append(s.items, domain.LineItem{
			CartID:         s.nextCartID(product.ID, size, color),
			ProductID:      product.ID,
			Slug:           product.Slug,
			Name:           product.Name,
			UnitPriceMinor: product.PriceMinor(),
			Images:         append([]string(nil), product.Images...),
			SelectedSize:   size,
			SelectedColor:  color,
			Quantity:       qty,
		})
		idx = len(s.items) - 1
	}
	s.open = true

	item := s.items[idx]
	s.logger.WithFields(log.Fields{
		"cart_id":  item.CartID,
		"quantity": item.Quantity,
	}).Debug("item added")

	return item, s.persist(ctx)
}

// RemoveItem удаляет позицию. Неизвестный cartID не считается ошибкой.
func (s *Store) RemoveItem(ctx context.Context, cartID string) error {
	idx := s.indexOf(cartID)
	if idx < 0 {
		return nil
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return s.persist(ctx)
}

// UpdateQuantity задаёт количество; qty <= 0 эквивалентно RemoveItem.
func (s *Store) UpdateQuantity(ctx context.Context, cartID string, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, cartID)
	}
	idx := s.indexOf(cartID)
	if idx < 0 {
		return nil
	}
	s.items[idx].Quantity = qty
	return s.persist(ctx)
}

// Clear очищает позиции, флаг видимости не меняется.
func (s *Store) Clear(ctx context.Context) error {
	s.items = nil
	return s.persist(ctx)
}

// Items возвращает копию позиций в порядке добавления.
func (s *Store) Items() []domain.LineItem {
	return s.Snapshot().Items
}

// Snapshot возвращает сохраняемое представление корзины.
func (s *Store) Snapshot() domain.CartSnapshot {
	return domain.CartSnapshot{Items: s.items}.Clone()
}

// Subtotal возвращает Σ unitPrice × quantity в минимальных единицах.
func (s *Store) Subtotal() int64 {
	var total int64
	for _, item := range s.items {
		total += item.LineTotalMinor()
	}
	return total
}

// ItemCount возвращает Σ quantity.
func (s *Store) ItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// IsEmpty сообщает, пуста ли корзина.
func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

// Open показывает корзину.
func (s *Store) Open() { s.open = true }

// Close скрывает корзину.
func (s *Store) Close() { s.open = false }

// Toggle переключает видимость.
func (s *Store) Toggle() { s.open = !s.open }

// IsOpen возвращает флаг видимости. Флаг не сохраняется между запусками.
func (s *Store) IsOpen() bool { return s.open }

func (s *Store) persist(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, s.name, s.Snapshot()); err != nil {
		s.logger.WithError(err).Warn("failed to persist cart snapshot")
		return fmt.Errorf("cart: persist snapshot: %w", err)
	}
	return nil
}

func (s *Store) indexOf(cartID string) int {
	for i, item := range s.items {
		if item.CartID == cartID {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfVariant(productID, size, color string) int {
	for i, item := range s.items {
		if item.SameVariant(productID, size, color) {
			return i
		}
	}
	return -1
}

// nextCartID собирает productID-size-color-N, где N монотонно растёт в пределах корзины.
func (s *Store) nextCartID(productID, size, color string) string {
	s.seq++
	return fmt.Sprintf("%s-%s-%s-%d", productID, size, color, s.seq)
}

func cartIDSeq(cartID string) uint64 {
	i := strings.LastIndexByte(cartID, '-')
	if i < 0 {
		return 0
	}
	n, err := strconv.ParseUint(cartID[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
