package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/woox/commerce-relay-go/internal/model"
)

type ProductRepository interface {
	// FindAvailableByMerchantID returns only sellable products, joined with
	// their category name for catalog grouping.
	FindAvailableByMerchantID(ctx context.Context, merchantID string, limit int) ([]model.Product, error)
}

type productRepo struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) FindAvailableByMerchantID(ctx context.Context, merchantID string, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.merchant_id = $1 AND p.is_available = true
		ORDER BY c.display_order NULLS LAST, p.name
		LIMIT $2
	`, merchantID, limit)
	return products, err
}
