package model

import "time"

// Conversation is the active thread between a merchant and one customer.
// At most one row per (merchant, customer) holds status='active'.
type Conversation struct {
	ID              string             `db:"id" json:"id"`
	MerchantID      string             `db:"merchant_id" json:"merchantId"`
	CustomerID      string             `db:"customer_id" json:"customerId"`
	Channel         Channel            `db:"channel" json:"channel"`
	Status          ConversationStatus `db:"status" json:"status"`
	AIActive        bool               `db:"ai_active" json:"aiActive"`
	UnreadCount     int                `db:"unread_count" json:"unreadCount"`
	LastMessage     *string            `db:"last_message" json:"lastMessage,omitempty"`
	LastMessageAt   *time.Time         `db:"last_message_at" json:"lastMessageAt,omitempty"`
	AssignedAgentID *string            `db:"assigned_agent_id" json:"assignedAgentId,omitempty"`
	RemarketedAt    *time.Time         `db:"remarketed_at" json:"-"`
	CreatedAt       time.Time          `db:"created_at" json:"createdAt"`
}

type UpsertConversationParams struct {
	MerchantID string
	CustomerID string
	Channel    Channel
}
