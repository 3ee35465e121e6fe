package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/woox/commerce-relay-go/internal/interpret"
	redisclient "github.com/woox/commerce-relay-go/internal/redis"
)

const cartTTL = 24 * time.Hour

// CartStore keeps each conversation's order-in-progress between webhook
// invocations. Carts are short-lived working state, so they live in redis
// rather than the database.
type CartStore struct {
	redis *redisclient.Client
}

func NewCartStore(client *redisclient.Client) *CartStore {
	return &CartStore{redis: client}
}

func cartKey(conversationID string) string {
	return fmt.Sprintf("cart:%s", conversationID)
}

// Get returns the conversation's cart, or an empty one. Redis failures
// degrade to an empty cart so the pipeline keeps answering.
func (s *CartStore) Get(ctx context.Context, conversationID string) interpret.Cart {
	data, err := s.redis.Get(ctx, cartKey(conversationID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Warn().Err(err).Str("conversationId", conversationID).Msg("cart read failed")
		}
		return nil
	}

	var cart interpret.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		log.Warn().Err(err).Str("conversationId", conversationID).Msg("discarding corrupt cart")
		return nil
	}
	return cart
}

func (s *CartStore) Put(ctx context.Context, conversationID string, cart interpret.Cart) {
	if len(cart) == 0 {
		s.Clear(ctx, conversationID)
		return
	}
	data, err := json.Marshal(cart)
	if err != nil {
		log.Warn().Err(err).Str("conversationId", conversationID).Msg("cart marshal failed")
		return
	}
	if err := s.redis.Set(ctx, cartKey(conversationID), data, cartTTL).Err(); err != nil {
		log.Warn().Err(err).Str("conversationId", conversationID).Msg("cart write failed")
	}
}

// Clear drops the cart, called after order confirmation.
func (s *CartStore) Clear(ctx context.Context, conversationID string) {
	if err := s.redis.Del(ctx, cartKey(conversationID)).Err(); err != nil {
		log.Warn().Err(err).Str("conversationId", conversationID).Msg("cart delete failed")
	}
}
