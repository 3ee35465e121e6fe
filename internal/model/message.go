package model

import (
	"encoding/json"
	"time"
)

// Message is one append-only entry in a conversation's log. Metadata holds
// the provider-native message id used for webhook deduplication.
type Message struct {
	ID             string          `db:"id" json:"id"`
	ConversationID string          `db:"conversation_id" json:"conversationId"`
	SenderType     SenderType      `db:"sender_type" json:"senderType"`
	Content        string          `db:"content" json:"content"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

type CreateMessageParams struct {
	ConversationID string
	SenderType     SenderType
	Content        string
	// ProviderMessageID is stored in metadata and enforced unique per
	// conversation; empty for outbound messages.
	ProviderMessageID string
}

// Metadata serializes the dedup key the way the message table stores it.
func (p CreateMessageParams) MetadataJSON() json.RawMessage {
	if p.ProviderMessageID == "" {
		return json.RawMessage(`{}`)
	}
	data, _ := json.Marshal(map[string]string{"provider_message_id": p.ProviderMessageID})
	return data
}
