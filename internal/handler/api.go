package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/repository"
	"github.com/woox/commerce-relay-go/internal/service"
)

// APIHandler is the dashboard read surface plus the manual send path.
type APIHandler struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	orders        repository.OrderRepository
	pipeline      *service.Pipeline
}

func NewAPIHandler(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	orders repository.OrderRepository,
	pipeline *service.Pipeline,
) *APIHandler {
	return &APIHandler{
		conversations: conversations,
		messages:      messages,
		orders:        orders,
		pipeline:      pipeline,
	}
}

func (h *APIHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	p := ParsePagination(r)

	conversations, err := h.conversations.FindByMerchantID(r.Context(), merchantID, p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Str("merchantId", merchantID).Msg("failed to list conversations")
		writeError(w, apperrors.Database(err))
		return
	}

	total, err := h.conversations.CountByMerchantID(r.Context(), merchantID)
	if err != nil {
		log.Error().Err(err).Str("merchantId", merchantID).Msg("failed to count conversations")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": conversations,
		"total": total,
	})
}

func (h *APIHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	p := ParsePagination(r)

	messages, err := h.messages.FindByConversationID(r.Context(), conversationID, p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Str("conversationId", conversationID).Msg("failed to list messages")
		writeError(w, apperrors.Database(err))
		return
	}

	total, err := h.messages.CountByConversationID(r.Context(), conversationID)
	if err != nil {
		log.Error().Err(err).Str("conversationId", conversationID).Msg("failed to count messages")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": messages,
		"total": total,
	})
}

func (h *APIHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	p := ParsePagination(r)

	orders, err := h.orders.FindByMerchantID(r.Context(), merchantID, p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Str("merchantId", merchantID).Msg("failed to list orders")
		writeError(w, apperrors.Database(err))
		return
	}

	total, err := h.orders.CountByMerchantID(r.Context(), merchantID)
	if err != nil {
		log.Error().Err(err).Str("merchantId", merchantID).Msg("failed to count orders")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": orders,
		"total": total,
	})
}

// Deliver pushes an agent-typed message into a conversation. Unlike the
// webhook path, provider failures here come back to the caller so the
// dashboard can show them.
func (h *APIHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, apperrors.MissingRequired("text"))
		return
	}

	conversation, err := h.pipeline.SendManual(r.Context(), conversationID, req.Text)
	if err != nil {
		log.Error().Err(err).Str("conversationId", conversationID).Msg("manual delivery failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"delivered":      true,
		"conversationId": conversation.ID,
		"channel":        conversation.Channel,
	})
}
