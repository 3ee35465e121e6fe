package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woox/commerce-relay-go/internal/channel"
	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/interpret"
	"github.com/woox/commerce-relay-go/internal/llm"
	"github.com/woox/commerce-relay-go/internal/model"
	"github.com/woox/commerce-relay-go/internal/repository"
)

const defaultModel = "gemini-1.5-flash"

// Completer abstracts the LLM gateway for the pipeline.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

type cartStore interface {
	Get(ctx context.Context, conversationID string) interpret.Cart
	Put(ctx context.Context, conversationID string, cart interpret.Cart)
	Clear(ctx context.Context, conversationID string)
}

type sender interface {
	Send(ctx context.Context, merchant *model.Merchant, conversation *model.Conversation, customer *model.Customer, text string, senderType model.SenderType) error
	PublishInbound(ctx context.Context, merchantID string, msg *model.Message)
}

// PipelineDeps wires the pipeline's collaborators.
type PipelineDeps struct {
	Registry      *channel.Registry
	Merchants     *MerchantService
	Identity      *IdentityService
	Prompts       *PromptBuilder
	Gateway       Completer
	Dispatcher    sender
	Carts         cartStore
	Customers     repository.CustomerRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Orders        repository.OrderRepository

	// ScheduleFallback and Apology are the default replies for the
	// out-of-hours gate and for provider failures.
	ScheduleFallback string
	Apology          string

	// Now is the pipeline clock; nil means time.Now.
	Now func() time.Time
}

// Pipeline runs the full inbound-message flow: parse, resolve identity,
// persist, assemble context, complete, interpret, deliver.
type Pipeline struct {
	deps PipelineDeps
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{deps: deps}
}

// HandleInbound processes one webhook delivery. Callers at the webhook
// boundary log the returned error and still acknowledge the provider with
// success, so a failure here never triggers a provider retry storm.
func (p *Pipeline) HandleInbound(ctx context.Context, merchantRef string, ch model.Channel, payload []byte) error {
	adapter, err := p.deps.Registry.Get(ch)
	if err != nil {
		return apperrors.Config(err.Error())
	}

	in, err := adapter.ParseInbound(payload)
	if err != nil {
		return err
	}
	if in == nil {
		// Non-text events, echoes, and status callbacks are dropped
		// without touching the database.
		return nil
	}

	merchant, err := p.deps.Merchants.Resolve(ctx, merchantRef)
	if err != nil {
		return err
	}

	customer, conversation, err := p.deps.Identity.Resolve(ctx, merchant.ID, in)
	if err != nil {
		return err
	}

	persisted, inserted, err := p.deps.Messages.CreateDeduplicated(ctx, model.CreateMessageParams{
		ConversationID:    conversation.ID,
		SenderType:        model.SenderCustomer,
		Content:           in.Text,
		ProviderMessageID: in.ProviderMessageID,
	})
	if err != nil {
		return apperrors.Persistence("persist inbound message", err)
	}
	if !inserted {
		log.Debug().
			Str("conversationId", conversation.ID).
			Str("providerMessageId", in.ProviderMessageID).
			Msg("duplicate webhook delivery, skipping")
		return nil
	}

	if err := p.deps.Conversations.TouchLastMessage(ctx, conversation.ID, in.Text, true); err != nil {
		log.Error().Err(err).Str("conversationId", conversation.ID).Msg("failed to update conversation")
	}
	p.deps.Dispatcher.PublishInbound(ctx, merchant.ID, persisted)

	if !merchant.AIEnabled || !conversation.AIActive {
		log.Debug().
			Str("conversationId", conversation.ID).
			Bool("merchantAiEnabled", merchant.AIEnabled).
			Bool("conversationAiActive", conversation.AIActive).
			Msg("assistant muted, message persisted only")
		return nil
	}

	if !WithinSchedule(merchant, p.deps.Now()) {
		p.reply(ctx, merchant, conversation, customer, ScheduleMessage(merchant, p.deps.ScheduleFallback))
		return nil
	}

	promptCtx, err := p.deps.Prompts.Build(ctx, merchant, conversation.ID)
	if err != nil {
		return err
	}

	apiKey := p.deps.Merchants.APIKey(merchant)
	if apiKey == "" {
		return apperrors.Config("merchant has no model api key")
	}

	modelName := merchant.AIModel
	if modelName == "" {
		modelName = defaultModel
	}

	raw, err := p.deps.Gateway.Complete(ctx, llm.Request{
		Model:        modelName,
		APIKey:       apiKey,
		SystemPrompt: promptCtx.SystemPrompt,
		Turns:        promptCtx.Turns,
	})
	if err != nil {
		log.Error().Err(err).
			Str("merchantId", merchant.ID).
			Str("model", modelName).
			Msg("completion failed, sending apology")
		p.reply(ctx, merchant, conversation, customer, p.deps.Apology)
		return nil
	}

	text, err := p.applySideEffects(ctx, merchant, conversation, customer, raw, promptCtx.CatalogBlock)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	p.reply(ctx, merchant, conversation, customer, text)
	return nil
}

// applySideEffects interprets the raw model output, mutates the cart, and
// registers a confirmed order when present. It returns the final display
// text.
func (p *Pipeline) applySideEffects(
	ctx context.Context,
	merchant *model.Merchant,
	conversation *model.Conversation,
	customer *model.Customer,
	raw, catalogBlock string,
) (string, error) {
	cart := p.deps.Carts.Get(ctx, conversation.ID)
	result := interpret.Interpret(raw, cart, catalogBlock)
	text := result.DisplayText

	if result.Order == nil {
		p.deps.Carts.Put(ctx, conversation.ID, result.Cart)
		return text, nil
	}

	update := model.ContactUpdate{}
	if result.Order.CustomerName != "" {
		update.FullName = &result.Order.CustomerName
	}
	if result.Order.Phone != "" {
		update.Phone = &result.Order.Phone
	}
	if err := p.deps.Customers.UpdateContact(ctx, customer.ID, update); err != nil {
		log.Error().Err(err).Str("customerId", customer.ID).Msg("failed to update customer contact")
	}

	order, err := p.deps.Orders.Create(ctx, model.CreateOrderParams{
		MerchantID:       merchant.ID,
		CustomerID:       customer.ID,
		ConversationID:   conversation.ID,
		Total:            result.Order.Total,
		DeliveryAddress:  result.Order.Address,
		Channel:          conversation.Channel,
		ClosingAgentType: "ai",
	})
	if err != nil {
		return "", apperrors.Persistence("create order", err)
	}

	log.Info().
		Str("orderId", order.ID).
		Str("merchantId", merchant.ID).
		Str("conversationId", conversation.ID).
		Float64("total", order.Total).
		Msg("order registered")

	p.deps.Carts.Clear(ctx, conversation.ID)
	return text + fmt.Sprintf("\n\n🚀 *¡Pedido registrado!*\n🆔 *Orden #%s*", order.Reference()), nil
}

// reply delivers assistant text, swallowing delivery failures per the
// webhook boundary policy.
func (p *Pipeline) reply(ctx context.Context, merchant *model.Merchant, conversation *model.Conversation, customer *model.Customer, text string) {
	if text == "" {
		return
	}
	if err := p.deps.Dispatcher.Send(ctx, merchant, conversation, customer, text, model.SenderAI); err != nil {
		log.Error().Err(err).
			Str("conversationId", conversation.ID).
			Str("channel", conversation.Channel.String()).
			Msg("outbound delivery failed")
	}
}

// SendManual is the dashboard send path: a human agent pushes text into a
// conversation. Unlike the webhook path, delivery errors propagate so the
// UI can surface expired tokens and similar failures.
func (p *Pipeline) SendManual(ctx context.Context, conversationID, text string) (*model.Conversation, error) {
	conversation, err := p.deps.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation")
	}

	merchant, err := p.deps.Merchants.Resolve(ctx, conversation.MerchantID)
	if err != nil {
		return nil, err
	}

	customer, err := p.deps.Customers.FindByID(ctx, conversation.CustomerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if customer == nil {
		return nil, apperrors.NotFound("customer")
	}

	if err := p.deps.Dispatcher.Send(ctx, merchant, conversation, customer, text, model.SenderHumanAgent); err != nil {
		return nil, err
	}
	return conversation, nil
}
