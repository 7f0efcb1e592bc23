package domain

// Product — запись каталога. Ядро корзины читает её, но никогда не изменяет.
type Product struct {
	ID            string
	Slug          string
	Name          string
	Category      string
	Price         int64
	OriginalPrice *int64
	Stock         int
	Sizes         []string
	Colors        []string
	Images        []string
}

// PriceMinor возвращает цену за единицу в минимальных единицах.
func (p Product) PriceMinor() int64 {
	return MajorToMinor(p.Price)
}

// HasSize сообщает, входит ли размер в ось размеров товара.
func (p Product) HasSize(size string) bool {
	return contains(p.Sizes, size)
}

// HasColor сообщает, входит ли цвет в ось цветов товара.
func (p Product) HasColor(color string) bool {
	return contains(p.Colors, color)
}

// DefaultVariant возвращает первые значения осей размера и цвета.
func (p Product) DefaultVariant() (size, color string) {
	if len(p.Sizes) > 0 {
		size = p.Sizes[0]
	}
	if len(p.Colors) > 0 {
		color = p.Colors[0]
	}
	return size, color
}

// Clone возвращает глубокую копию, чтобы вызывающий код не мог изменить каталог.
func (p Product) Clone() Product {
	out := p
	out.Sizes = append([]string(nil), p.Sizes...)
	out.Colors = append([]string(nil), p.Colors...)
	out.Images = append([]string(nil), p.Images...)
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		out.OriginalPrice = &v
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
