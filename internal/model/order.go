package model

import (
	"strings"
	"time"
)

// Order is created once per confirmed checkout; later transitions happen in
// the order-management surface, not in the pipeline.
type Order struct {
	ID               string      `db:"id" json:"id"`
	MerchantID       string      `db:"merchant_id" json:"merchantId"`
	CustomerID       string      `db:"customer_id" json:"customerId"`
	ConversationID   *string     `db:"conversation_id" json:"conversationId,omitempty"`
	Status           OrderStatus `db:"status" json:"status"`
	Total            float64     `db:"total" json:"total"`
	DeliveryAddress  *string     `db:"delivery_address" json:"deliveryAddress,omitempty"`
	Notes            *string     `db:"notes" json:"notes,omitempty"`
	ClosingAgentType *string     `db:"closing_agent_type" json:"closingAgentType,omitempty"`
	Channel          Channel     `db:"channel" json:"channel"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
}

// Reference is the short human-readable order id shown to customers:
// the first UUID segment, uppercased.
func (o *Order) Reference() string {
	seg, _, _ := strings.Cut(o.ID, "-")
	return strings.ToUpper(seg)
}

type CreateOrderParams struct {
	MerchantID       string
	CustomerID       string
	ConversationID   string
	Total            float64
	DeliveryAddress  string
	Channel          Channel
	ClosingAgentType string
}
