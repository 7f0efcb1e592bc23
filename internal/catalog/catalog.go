// Package catalog содержит статический справочник товаров витрины.
// Ядро корзины и оформления только читает его.
package catalog

import (
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Category — раздел каталога.
type Category struct {
	ID    string
	Name  string
	Image string
}

// Color — цвет варианта товара.
type Color struct {
	ID   string
	Name string
	Hex  string
}

// Catalog — неизменяемый набор товаров с индексами по ID и slug.
type Catalog struct {
	products   []domain.Product
	byID       map[string]int
	bySlug     map[string]int
	categories []Category
	colors     []Color
}

// New строит каталог из переданных записей.
func New(products []domain.Product, categories []Category, colors []Color) *Catalog {
	c := &Catalog{
		products:   make([]domain.Product, 0, len(products)),
		byID:       make(map[string]int, len(products)),
		bySlug:     make(map[string]int, len(products)),
		categories: append([]Category(nil), categories...),
		colors:     append([]Color(nil), colors...),
	}
	for _, p := range products {
		c.byID[p.ID] = len(c.products)
		c.bySlug[p.Slug] = len(c.products)
		c.products = append(c.products, p.Clone())
	}
	return c
}

// Default возвращает каталог витрины LUXE.
func Default() *Catalog {
	return New(defaultProducts(), defaultCategories, defaultColors)
}

// Products возвращает копии всех товаров в порядке каталога.
func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

// ByID возвращает товар по идентификатору.
func (c *Catalog) ByID(id string) (domain.Product, error) {
	idx, ok := c.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return c.products[idx].Clone(), nil
}

// BySlug возвращает товар по slug.
func (c *Catalog) BySlug(slug string) (domain.Product, error) {
	idx, ok := c.bySlug[slug]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return c.products[idx].Clone(), nil
}

// Search ищет подстроку в названии или категории без учёта регистра.
// Пустой запрос ничего не находит.
func (c *Catalog) Search(query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []domain.Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Categories возвращает разделы каталога.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Colors возвращает палитру цветов.
func (c *Catalog) Colors() []Color {
	return append([]Color(nil), c.colors...)
}

// ByCategory возвращает товары раздела.
func (c *Catalog) ByCategory(categoryID string) []domain.Product {
	var out []domain.Product
	for _, p := range c.products {
		if p.Category == categoryID {
			out = append(out, p.Clone())
		}
	}
	return out
}
