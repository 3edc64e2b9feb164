package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fjod/printshop/internal/domain"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, category, description, price, images, is_customizable, weight, width, height, depth, material`

// GetAllProducts returns the catalog in storefront order.
func (r *ProductRepository) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func scanProduct(rows *sql.Rows) (*domain.Product, error) {
	p := &domain.Product{}
	var images string
	err := rows.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Description,
		&p.Price,
		&images,
		&p.IsCustomizable,
		&p.Weight,
		&p.Dimensions.Width,
		&p.Dimensions.Height,
		&p.Dimensions.Depth,
		&p.Material,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images of product %s: %w", p.ID, err)
	}
	return p, nil
}
