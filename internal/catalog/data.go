package catalog

import "github.com/vladislavdragonenkov/storefront/internal/domain"

const imageBase = "https://images.unsplash.com/"

var defaultCategories = []Category{
	{ID: "outerwear", Name: "Outerwear", Image: imageBase + "photo-1591047139829-d91aecb6caea?w=800&q=80"},
	{ID: "tops", Name: "Tops", Image: imageBase + "photo-1596755094514-f87e34085b2c?w=800&q=80"},
	{ID: "bottoms", Name: "Bottoms", Image: imageBase + "photo-1624378439575-d8705ad7ae80?w=800&q=80"},
	{ID: "accessories", Name: "Accessories", Image: imageBase + "photo-1523170335258-f5ed11844a49?w=800&q=80"},
}

var defaultColors = []Color{
	{ID: "black", Name: "Black", Hex: "#0a0a0a"},
	{ID: "white", Name: "White", Hex: "#fafafa"},
	{ID: "navy", Name: "Navy", Hex: "#1e3a5f"},
	{ID: "camel", Name: "Camel", Hex: "#c4a77d"},
	{ID: "burgundy", Name: "Burgundy", Hex: "#722f37"},
}

func price(v int64) *int64 { return &v }

func img(ids ...string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = imageBase + id + "?w=800&q=80"
	}
	return out
}

func defaultProducts() []domain.Product {
	return []domain.Product{
		{
			ID: "1", Slug: "cashmere-overcoat", Name: "Cashmere Overcoat", Category: "outerwear",
			Price: 2450, OriginalPrice: price(2800), Stock: 15,
			Sizes:  []string{"S", "M", "L", "XL"},
			Colors: []string{"black", "camel", "navy"},
			Images: img("photo-1544923246-77307dd628b8", "photo-1591047139829-d91aecb6caea", "photo-1507003211169-0a1dd7228f2d"),
		},
		{
			ID: "2", Slug: "silk-blend-blazer", Name: "Silk Blend Blazer", Category: "tops",
			Price: 1890, Stock: 23,
			Sizes:  []string{"XS", "S", "M", "L", "XL"},
			Colors: []string{"black", "navy"},
			Images: img("photo-1594938298603-c8148c4dae35", "photo-1593030761757-71fae45fa0e7"),
		},
		{
			ID: "3", Slug: "merino-turtleneck", Name: "Merino Wool Turtleneck", Category: "tops",
			Price: 485, Stock: 45,
			Sizes:  []string{"XS", "S", "M", "L", "XL", "XXL"},
			Colors: []string{"black", "white", "camel", "burgundy"},
			Images: img("photo-1576566588028-4147f3842f27", "photo-1434389677669-e08b4cac3105"),
		},
		{
			ID: "4", Slug: "tailored-wool-trousers", Name: "Tailored Wool Trousers", Category: "bottoms",
			Price: 695, Stock: 32,
			Sizes:  []string{"28", "30", "32", "34", "36", "38"},
			Colors: []string{"black", "navy", "camel"},
			Images: img("photo-1624378439575-d8705ad7ae80", "photo-1473966968600-fa801b869a1a"),
		},
		{
			ID: "5", Slug: "leather-tote-bag", Name: "Full-Grain Leather Tote", Category: "accessories",
			Price: 1250, Stock: 18,
			Sizes:  []string{"One Size"},
			Colors: []string{"black", "camel", "burgundy"},
			Images: img("photo-1548036328-c9fa89d128fa", "photo-1553062407-98eeb64c6a62"),
		},
		{
			ID: "6", Slug: "swiss-automatic-watch", Name: "Swiss Automatic Timepiece", Category: "accessories",
			Price: 4850, Stock: 8,
			Sizes:  []string{"40mm", "42mm"},
			Colors: []string{"black", "white"},
			Images: img("photo-1523170335258-f5ed11844a49", "photo-1522312346375-d1a52e2b99b3"),
		},
		{
			ID: "7", Slug: "suede-chelsea-boots", Name: "Italian Suede Chelsea Boots", Category: "accessories",
			Price: 890, Stock: 26,
			Sizes:  []string{"39", "40", "41", "42", "43", "44", "45"},
			Colors: []string{"black", "camel", "navy"},
			Images: img("photo-1638247025967-b4e38f787b76", "photo-1608256246200-53e635b5b65f"),
		},
		{
			ID: "8", Slug: "linen-summer-shirt", Name: "Belgian Linen Summer Shirt", Category: "tops",
			Price: 395, Stock: 38,
			Sizes:  []string{"XS", "S", "M", "L", "XL"},
			Colors: []string{"white", "navy", "camel"},
			Images: img("photo-1596755094514-f87e34085b2c"),
		},
	}
}
