package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/woox/commerce-relay-go/internal/model"
	"github.com/woox/commerce-relay-go/internal/service"
	"github.com/woox/commerce-relay-go/internal/util"
)

// WebhookHandler receives provider deliveries. The POST path acknowledges
// every request with 200 "ok" no matter what happened inside the pipeline;
// anything else makes the provider retry and duplicates traffic.
type WebhookHandler struct {
	pipeline  *service.Pipeline
	merchants *service.MerchantService
}

func NewWebhookHandler(pipeline *service.Pipeline, merchants *service.MerchantService) *WebhookHandler {
	return &WebhookHandler{pipeline: pipeline, merchants: merchants}
}

// Verify answers the Meta GET handshake: echo hub.challenge when the
// merchant's verify token matches, 403 otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	merchantRef := r.URL.Query().Get("merchant_id")
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token == "" || merchantRef == "" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	merchant, err := h.merchants.Resolve(r.Context(), merchantRef)
	if err != nil || merchant == nil {
		log.Warn().Str("merchant", merchantRef).Msg("webhook handshake for unknown merchant")
		http.Error(w, "Merchant Not Found", http.StatusNotFound)
		return
	}

	expected := h.merchants.VerifyToken(merchant)
	if expected == "" || !util.ConstantTimeEqual(expected, token) {
		log.Warn().Str("merchantId", merchant.ID).Msg("webhook handshake token mismatch")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	log.Info().Str("merchantId", merchant.ID).Msg("webhook handshake verified")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// Receive handles a provider POST. Pipeline errors are logged, never
// surfaced.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ch := model.Channel(chi.URLParam(r, "channel"))
	merchantRef := r.URL.Query().Get("merchant_id")

	defer func() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}()

	if !ch.Valid() {
		log.Warn().Str("channel", ch.String()).Msg("webhook for unknown channel")
		return
	}
	if merchantRef == "" {
		log.Warn().Str("channel", ch.String()).Msg("webhook without merchant_id")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error().Err(err).Str("channel", ch.String()).Msg("failed to read webhook body")
		return
	}

	if err := h.pipeline.HandleInbound(r.Context(), merchantRef, ch, payload); err != nil {
		log.Error().Err(err).
			Str("channel", ch.String()).
			Str("merchant", merchantRef).
			Msg("webhook processing failed")
	}
}
