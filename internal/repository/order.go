package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/woox/commerce-relay-go/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, params model.CreateOrderParams) (*model.Order, error)
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByMerchantID(ctx context.Context, merchantID string, limit, offset int) ([]model.Order, error)
	CountByMerchantID(ctx context.Context, merchantID string) (int, error)
}

type orderRepo struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, params model.CreateOrderParams) (*model.Order, error) {
	var order model.Order
	err := r.db.GetContext(ctx, &order, `
		INSERT INTO orders
			(merchant_id, customer_id, conversation_id, status, total, delivery_address, channel, closing_agent_type)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7)
		RETURNING *
	`, params.MerchantID, params.CustomerID, params.ConversationID,
		params.Total, params.DeliveryAddress, params.Channel, params.ClosingAgentType)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id)
	return HandleNotFound(&order, err)
}

func (r *orderRepo) FindByMerchantID(ctx context.Context, merchantID string, limit, offset int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, merchantID, limit, offset)
	return orders, err
}

func (r *orderRepo) CountByMerchantID(ctx context.Context, merchantID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM orders WHERE merchant_id = $1
	`, merchantID)
	return count, err
}
