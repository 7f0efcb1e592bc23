package domain

// LineItem — позиция корзины: товар плюс выбранный вариант и количество.
type LineItem struct {
	// CartID уникален в пределах жизни корзины.
	CartID         string   `json:"cartId"`
	ProductID      string   `json:"id"`
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	UnitPriceMinor int64    `json:"unitPriceMinor"`
	Images         []string `json:"images,omitempty"`
	SelectedSize   string   `json:"selectedSize"`
	SelectedColor  string   `json:"selectedColor"`
	Quantity       int      `json:"quantity"`
}

// LineTotalMinor возвращает unitPrice × quantity.
func (li LineItem) LineTotalMinor() int64 {
	return li.UnitPriceMinor * int64(li.Quantity)
}

// PrimaryImage возвращает первое изображение или пустую строку.
func (li LineItem) PrimaryImage() string {
	if len(li.Images) == 0 {
		return ""
	}
	return li.Images[0]
}

// SameVariant сообщает, описывает ли позиция тройку (productID, size, color).
func (li LineItem) SameVariant(productID, size, color string) bool {
	return li.ProductID == productID && li.SelectedSize == size && li.SelectedColor == color
}

// CartSnapshot — сохраняемое состояние корзины. Флаг видимости сюда не входит.
type CartSnapshot struct {
	Items []LineItem `json:"items"`
}

// Clone возвращает копию снимка без общих слайсов.
func (s CartSnapshot) Clone() CartSnapshot {
	items := make([]LineItem, len(s.Items))
	for i, item := range s.Items {
		item.Images = append([]string(nil), item.Images...)
		items[i] = item
	}
	return CartSnapshot{Items: items}
}
