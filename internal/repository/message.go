package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/woox/commerce-relay-go/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	// CreateDeduplicated inserts the message unless one with the same
	// provider message id already exists in the conversation. The second
	// return value reports whether a row was actually inserted.
	CreateDeduplicated(ctx context.Context, params model.CreateMessageParams) (*model.Message, bool, error)
	ExistsByProviderMessageID(ctx context.Context, conversationID, providerMessageID string) (bool, error)
	FindRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	FindByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
	CountByConversationID(ctx context.Context, conversationID string) (int, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (conversation_id, sender_type, content, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ConversationID, params.SenderType, params.Content, params.MetadataJSON())
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) CreateDeduplicated(ctx context.Context, params model.CreateMessageParams) (*model.Message, bool, error) {
	// Insert-first: the partial unique index on
	// (conversation_id, (metadata->>'provider_message_id')) absorbs the
	// race between two deliveries of the same provider event.
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (conversation_id, sender_type, content, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (conversation_id, (metadata->>'provider_message_id')) DO NOTHING
		RETURNING *
	`, params.ConversationID, params.SenderType, params.Content, params.MetadataJSON())
	if created, convErr := HandleNotFound(&msg, err); convErr != nil {
		return nil, false, convErr
	} else if created == nil {
		return nil, false, nil
	}
	return &msg, true, nil
}

func (r *messageRepo) ExistsByProviderMessageID(ctx context.Context, conversationID, providerMessageID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM messages
			WHERE conversation_id = $1 AND metadata->>'provider_message_id' = $2
		)
	`, conversationID, providerMessageID)
	return exists, err
}

// FindRecentByConversationID returns up to limit messages, newest first.
func (r *messageRepo) FindRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, conversationID, limit)
	return msgs, err
}

func (r *messageRepo) FindByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	return msgs, err
}

func (r *messageRepo) CountByConversationID(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages WHERE conversation_id = $1
	`, conversationID)
	return count, err
}
