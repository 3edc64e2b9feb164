package catalog

import "github.com/fjod/printshop/internal/domain"

// Storefront defaults for the price slider.
const (
	DefaultPriceMin int64 = 0
	DefaultPriceMax int64 = 5000
)

// Filter selects catalog products. All conditions must hold; an empty Category matches every category.
type Filter struct {
	Category         domain.Category
	PriceMin         int64
	PriceMax         int64
	CustomizableOnly bool
}

func DefaultFilter() Filter {
	return Filter{PriceMin: DefaultPriceMin, PriceMax: DefaultPriceMax}
}

func (f Filter) Matches(p domain.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if p.Price < f.PriceMin || p.Price > f.PriceMax {
		return false
	}
	return !f.CustomizableOnly || p.IsCustomizable
}

// Filter returns the matching products in catalog order. No match yields an empty slice.
func (i *Index) Filter(f Filter) []domain.Product {
	matched := []domain.Product{}
	for _, p := range i.products {
		if f.Matches(p) {
			matched = append(matched, p)
		}
	}
	return matched
}
