package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/woox/commerce-relay-go/internal/model"
)

type ConversationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindActive(ctx context.Context, merchantID, customerID string) (*model.Conversation, error)
	FindByMerchantID(ctx context.Context, merchantID string, limit, offset int) ([]model.Conversation, error)
	CountByMerchantID(ctx context.Context, merchantID string) (int, error)
	Upsert(ctx context.Context, params model.UpsertConversationParams) (*model.Conversation, error)
	TouchLastMessage(ctx context.Context, id, content string, incrementUnread bool) error
	FindIdleSince(ctx context.Context, merchantID string, idleBefore time.Time) ([]model.Conversation, error)
	MarkRemarketed(ctx context.Context, id string) error
}

type conversationRepo struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = $1`, id)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) FindActive(ctx context.Context, merchantID, customerID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations
		WHERE merchant_id = $1 AND customer_id = $2 AND status = 'active'
	`, merchantID, customerID)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) FindByMerchantID(ctx context.Context, merchantID string, limit, offset int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE merchant_id = $1
		ORDER BY last_message_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, merchantID, limit, offset)
	return convs, err
}

func (r *conversationRepo) CountByMerchantID(ctx context.Context, merchantID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM conversations WHERE merchant_id = $1
	`, merchantID)
	return count, err
}

// Upsert creates the active conversation for a (merchant, customer) pair if
// absent. A partial unique index on (merchant_id, customer_id) WHERE
// status = 'active' makes concurrent first contacts converge on one row.
func (r *conversationRepo) Upsert(ctx context.Context, params model.UpsertConversationParams) (*model.Conversation, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (merchant_id, customer_id, channel, status, ai_active)
		VALUES ($1, $2, $3, 'active', true)
		ON CONFLICT (merchant_id, customer_id) WHERE status = 'active' DO NOTHING
	`, params.MerchantID, params.CustomerID, params.Channel)
	if err != nil {
		return nil, err
	}
	return r.FindActive(ctx, params.MerchantID, params.CustomerID)
}

func (r *conversationRepo) TouchLastMessage(ctx context.Context, id, content string, incrementUnread bool) error {
	increment := 0
	if incrementUnread {
		increment = 1
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			last_message = $2,
			last_message_at = NOW(),
			unread_count = unread_count + $3
		WHERE id = $1
	`, id, content, increment)
	return err
}

func (r *conversationRepo) FindIdleSince(ctx context.Context, merchantID string, idleBefore time.Time) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE merchant_id = $1
		  AND status = 'active'
		  AND last_message_at IS NOT NULL
		  AND last_message_at < $2
		  AND (remarketed_at IS NULL OR remarketed_at < last_message_at)
	`, merchantID, idleBefore)
	return convs, err
}

func (r *conversationRepo) MarkRemarketed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET remarketed_at = NOW() WHERE id = $1
	`, id)
	return err
}
