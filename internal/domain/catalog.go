package domain

// ColorOption carries the dealer price and remaining stock for one color of
// a variant. Price and stock are keyed per (variant,color); color is not a
// separate entity.
type ColorOption struct {
	Name        string  `json:"colorName"`
	DealerPrice float64 `json:"dealerPrice"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// CatalogEntry is one model+trim combination with its color options.
type CatalogEntry struct {
	ModelName   string        `json:"modelName"`
	VariantName string        `json:"variantName"`
	Colors      []ColorOption `json:"colors"`
}

type Catalog []CatalogEntry

// Find returns the color option for a (model, variant, color) key.
func (c Catalog) Find(model, variant, color string) (ColorOption, bool) {
	for i := range c {
		if c[i].ModelName != model || c[i].VariantName != variant {
			continue
		}
		for _, opt := range c[i].Colors {
			if opt.Name == color {
				return opt, true
			}
		}
	}
	return ColorOption{}, false
}
