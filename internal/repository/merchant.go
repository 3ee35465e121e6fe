package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/woox/commerce-relay-go/internal/model"
)

type MerchantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Merchant, error)
	FindByCode(ctx context.Context, code string) (*model.Merchant, error)
	FindRemarketingEnabled(ctx context.Context) ([]model.Merchant, error)
}

type merchantRepo struct {
	db *sqlx.DB
}

func NewMerchantRepository(db *sqlx.DB) MerchantRepository {
	return &merchantRepo{db: db}
}

func (r *merchantRepo) FindByID(ctx context.Context, id string) (*model.Merchant, error) {
	var m model.Merchant
	err := r.db.GetContext(ctx, &m, `
		SELECT * FROM merchants WHERE id = $1
	`, id)
	return HandleNotFound(&m, err)
}

func (r *merchantRepo) FindByCode(ctx context.Context, code string) (*model.Merchant, error) {
	var m model.Merchant
	err := r.db.GetContext(ctx, &m, `
		SELECT * FROM merchants WHERE merchant_code = $1
	`, code)
	return HandleNotFound(&m, err)
}

func (r *merchantRepo) FindRemarketingEnabled(ctx context.Context) ([]model.Merchant, error) {
	var merchants []model.Merchant
	err := r.db.SelectContext(ctx, &merchants, `
		SELECT * FROM merchants
		WHERE is_active = true AND remarketing_enabled = true
	`)
	return merchants, err
}
