package service

import (
	"context"
	"errors"

	"github.com/woox/commerce-relay-go/internal/channel"
	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/model"
	"github.com/woox/commerce-relay-go/internal/repository"
)

var errMissingRow = errors.New("row missing after upsert")

// IdentityService maps a channel identity onto the merchant's customer and
// active conversation, creating both on first contact.
type IdentityService struct {
	customers     repository.CustomerRepository
	conversations repository.ConversationRepository
}

func NewIdentityService(customers repository.CustomerRepository, conversations repository.ConversationRepository) *IdentityService {
	return &IdentityService{customers: customers, conversations: conversations}
}

// Resolve upserts the customer and the active conversation. Both upserts
// are conflict-tolerant, so two near-simultaneous first-contact webhooks
// converge on the same rows.
func (s *IdentityService) Resolve(ctx context.Context, merchantID string, in *channel.InboundMessage) (*model.Customer, *model.Conversation, error) {
	customer, err := s.customers.Upsert(ctx, model.UpsertCustomerParams{
		MerchantID:  merchantID,
		Channel:     in.Channel,
		ExternalID:  in.ExternalID,
		DisplayName: in.DisplayName,
		ChatID:      in.ChatID,
	})
	if err != nil {
		return nil, nil, apperrors.Persistence("upsert customer", err)
	}
	if customer == nil {
		return nil, nil, apperrors.Persistence("upsert customer", errMissingRow)
	}

	conversation, err := s.conversations.Upsert(ctx, model.UpsertConversationParams{
		MerchantID: merchantID,
		CustomerID: customer.ID,
		Channel:    in.Channel,
	})
	if err != nil {
		return nil, nil, apperrors.Persistence("upsert conversation", err)
	}
	if conversation == nil {
		return nil, nil, apperrors.Persistence("upsert conversation", errMissingRow)
	}

	return customer, conversation, nil
}
