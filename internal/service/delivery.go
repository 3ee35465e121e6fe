package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/woox/commerce-relay-go/internal/channel"
	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/model"
	"github.com/woox/commerce-relay-go/internal/repository"
	"github.com/woox/commerce-relay-go/internal/sse"
)

// Dispatcher sends outbound text through the conversation's channel,
// persists it, and fans it out to live dashboard listeners.
type Dispatcher struct {
	registry      *channel.Registry
	merchants     *MerchantService
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	broker        *sse.Broker
}

func NewDispatcher(
	registry *channel.Registry,
	merchants *MerchantService,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	broker *sse.Broker,
) *Dispatcher {
	return &Dispatcher{
		registry:      registry,
		merchants:     merchants,
		messages:      messages,
		conversations: conversations,
		broker:        broker,
	}
}

// Send sanitizes and delivers text, then records it. The delivery error is
// returned so callers choose their boundary policy: the webhook path logs
// and swallows, the dashboard path propagates to the agent.
func (d *Dispatcher) Send(
	ctx context.Context,
	merchant *model.Merchant,
	conversation *model.Conversation,
	customer *model.Customer,
	text string,
	sender model.SenderType,
) error {
	adapter, err := d.registry.Get(conversation.Channel)
	if err != nil {
		return apperrors.Config(err.Error())
	}

	creds, err := d.merchants.Credentials(merchant, conversation.Channel)
	if err != nil {
		return err
	}

	destination := customer.Destination(conversation.Channel)
	if destination == "" {
		return apperrors.Config("customer has no delivery destination for channel")
	}

	clean := adapter.Sanitize(text)
	if clean == "" {
		log.Debug().
			Str("conversationId", conversation.ID).
			Msg("nothing left to deliver after sanitization")
		return nil
	}

	if _, err := adapter.Deliver(ctx, creds, destination, clean); err != nil {
		return err
	}

	msg, persistErr := d.messages.Create(ctx, model.CreateMessageParams{
		ConversationID: conversation.ID,
		SenderType:     sender,
		Content:        clean,
	})
	if persistErr != nil {
		// The provider accepted the send; losing the log entry must not
		// turn a delivered message into a user-facing failure.
		log.Error().Err(persistErr).
			Str("conversationId", conversation.ID).
			Msg("failed to persist outbound message")
		return nil
	}

	if err := d.conversations.TouchLastMessage(ctx, conversation.ID, clean, false); err != nil {
		log.Error().Err(err).
			Str("conversationId", conversation.ID).
			Msg("failed to update conversation after send")
	}

	d.publish(ctx, merchant.ID, msg)
	return nil
}

// PublishInbound fans a persisted customer message out to dashboard
// listeners.
func (d *Dispatcher) PublishInbound(ctx context.Context, merchantID string, msg *model.Message) {
	d.publish(ctx, merchantID, msg)
}

func (d *Dispatcher) publish(ctx context.Context, merchantID string, msg *model.Message) {
	if d.broker == nil || msg == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := d.broker.Publish(ctx, merchantID, sse.Event{Type: "message", Data: data}); err != nil {
		log.Warn().Err(err).Str("merchantId", merchantID).Msg("sse publish failed")
	}
}
