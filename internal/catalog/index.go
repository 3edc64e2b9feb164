// Package catalog holds the immutable product catalog and answers lookups over it.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/printshop/internal/domain"
)

var ErrInvalidProduct = errors.New("invalid catalog product")

// ProductSource loads the seeded catalog, in catalog order.
type ProductSource interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
}

// Index is read-only after construction and safe for concurrent use.
type Index struct {
	products []domain.Product
	byID     map[string]int
}

func NewIndex(products []domain.Product) (*Index, error) {
	idx := &Index{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: empty id", ErrInvalidProduct)
		}
		if _, exists := idx.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidProduct, p.ID)
		}
		if !p.Category.Valid() {
			return nil, fmt.Errorf("%w: product %q has unknown category %q", ErrInvalidProduct, p.ID, p.Category)
		}
		if len(p.Images) == 0 {
			return nil, fmt.Errorf("%w: product %q has no images", ErrInvalidProduct, p.ID)
		}
		p.Images = append([]string(nil), p.Images...)
		idx.byID[p.ID] = len(idx.products)
		idx.products = append(idx.products, p)
	}

	return idx, nil
}

// Load builds the index from the catalog repository.
func Load(ctx context.Context, src ProductSource) (*Index, error) {
	rows, err := src.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, p := range rows {
		products = append(products, *p)
	}
	return NewIndex(products)
}

// GetByID reports false for an unknown id.
func (i *Index) GetByID(id string) (domain.Product, bool) {
	pos, ok := i.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return i.products[pos], true
}

func (i *Index) All() []domain.Product {
	return append([]domain.Product(nil), i.products...)
}

func (i *Index) Len() int {
	return len(i.products)
}

// RelatedTo returns up to limit products of the same category as id, excluding id itself.
// An unknown id has no related products.
func (i *Index) RelatedTo(id string, limit int) []domain.Product {
	related := []domain.Product{}
	product, ok := i.GetByID(id)
	if !ok || limit <= 0 {
		return related
	}

	for _, p := range i.products {
		if len(related) == limit {
			break
		}
		if p.Category == product.Category && p.ID != id {
			related = append(related, p)
		}
	}
	return related
}

func (i *Index) Categories() []domain.CategoryInfo {
	return append([]domain.CategoryInfo(nil), domain.Categories...)
}

// PriceRange returns the cheapest and most expensive catalog prices.
func (i *Index) PriceRange() (lo, hi int64) {
	for n, p := range i.products {
		if n == 0 || p.Price < lo {
			lo = p.Price
		}
		if n == 0 || p.Price > hi {
			hi = p.Price
		}
	}
	return lo, hi
}
