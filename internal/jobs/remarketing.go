// Package jobs holds the background loops that run beside the webhook
// server.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woox/commerce-relay-go/internal/model"
	"github.com/woox/commerce-relay-go/internal/repository"
)

type remarketingSender interface {
	Send(ctx context.Context, merchant *model.Merchant, conversation *model.Conversation, customer *model.Customer, text string, senderType model.SenderType) error
}

const defaultRemarketingMessage = "¡Hola de nuevo! 👋 Vimos que dejaste tu pedido a medias. ¿Te gustaría retomarlo? Estamos aquí para ayudarte."

// RemarketingJob periodically nudges conversations that went quiet before
// checkout, for merchants that enabled it.
type RemarketingJob struct {
	merchants     repository.MerchantRepository
	conversations repository.ConversationRepository
	customers     repository.CustomerRepository
	dispatcher    remarketingSender
	interval      time.Duration
	done          chan struct{}
}

func NewRemarketingJob(
	merchants repository.MerchantRepository,
	conversations repository.ConversationRepository,
	customers repository.CustomerRepository,
	dispatcher remarketingSender,
	interval time.Duration,
) *RemarketingJob {
	return &RemarketingJob{
		merchants:     merchants,
		conversations: conversations,
		customers:     customers,
		dispatcher:    dispatcher,
		interval:      interval,
		done:          make(chan struct{}),
	}
}

func (j *RemarketingJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("remarketing job started")
}

func (j *RemarketingJob) Stop() {
	close(j.done)
	log.Info().Msg("remarketing job stopped")
}

func (j *RemarketingJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.scan()
		}
	}
}

func (j *RemarketingJob) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	merchants, err := j.merchants.FindRemarketingEnabled(ctx)
	if err != nil {
		log.Error().Err(err).Msg("remarketing merchant scan failed")
		return
	}

	for i := range merchants {
		j.scanMerchant(ctx, &merchants[i])
	}
}

func (j *RemarketingJob) scanMerchant(ctx context.Context, merchant *model.Merchant) {
	delay := time.Duration(merchant.RemarketingDelayMinutes) * time.Minute
	if delay <= 0 {
		return
	}

	idle, err := j.conversations.FindIdleSince(ctx, merchant.ID, time.Now().Add(-delay))
	if err != nil {
		log.Error().Err(err).Str("merchantId", merchant.ID).Msg("remarketing conversation scan failed")
		return
	}

	message := defaultRemarketingMessage
	if merchant.RemarketingMessage != nil && *merchant.RemarketingMessage != "" {
		message = *merchant.RemarketingMessage
	}

	for i := range idle {
		conversation := &idle[i]
		customer, err := j.customers.FindByID(ctx, conversation.CustomerID)
		if err != nil || customer == nil {
			log.Error().Err(err).Str("conversationId", conversation.ID).Msg("remarketing customer lookup failed")
			continue
		}

		if err := j.dispatcher.Send(ctx, merchant, conversation, customer, message, model.SenderAI); err != nil {
			log.Warn().Err(err).
				Str("conversationId", conversation.ID).
				Str("channel", conversation.Channel.String()).
				Msg("remarketing send failed")
			continue
		}

		if err := j.conversations.MarkRemarketed(ctx, conversation.ID); err != nil {
			log.Error().Err(err).Str("conversationId", conversation.ID).Msg("failed to mark conversation remarketed")
		}
	}
}
