// Package channel normalizes the three messaging provider integrations
// (WhatsApp Cloud API, Telegram Bot API, Messenger Send API) behind one
// adapter interface: inbound payload parsing, outbound delivery, and the
// provider's markup dialect.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/woox/commerce-relay-go/internal/model"
)

const deliveryTimeout = 10 * time.Second

// InboundMessage is the normalized shape of a provider webhook event.
type InboundMessage struct {
	Channel model.Channel
	// ExternalID is the channel-specific customer identifier (phone number,
	// Telegram user id, Messenger sender id).
	ExternalID string
	// ChatID is the delivery destination. Equal to ExternalID except on
	// Telegram, where the chat id differs from the user id.
	ChatID            string
	DisplayName       string
	Text              string
	ProviderMessageID string
}

// Credentials carries the merchant's secrets for one channel.
type Credentials struct {
	Token string
	// PhoneNumberID is the WhatsApp Cloud API sender id; unused elsewhere.
	PhoneNumberID string
}

// DeliveryResult normalizes provider send responses so callers never see
// provider-specific error shapes.
type DeliveryResult struct {
	OK       bool            `json:"ok"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Adapter is implemented once per provider.
type Adapter interface {
	Type() model.Channel
	// ParseInbound extracts the normalized message from a raw webhook body.
	// It returns (nil, nil) for events the pipeline must ignore: non-text,
	// echoes of our own sends, or unrecognized payloads.
	ParseInbound(payload []byte) (*InboundMessage, error)
	// Deliver sends text to the destination through the provider API.
	Deliver(ctx context.Context, creds Credentials, destination, text string) (*DeliveryResult, error)
	// Sanitize strips internal markers and repairs the provider's markup
	// dialect before transmission.
	Sanitize(text string) string
}

// Registry resolves adapters by channel.
type Registry struct {
	adapters map[model.Channel]Adapter
}

// NewRegistry builds the default three-provider registry sharing one
// HTTP client.
func NewRegistry() *Registry {
	client := &http.Client{Timeout: deliveryTimeout}
	return NewRegistryWith(
		NewWhatsAppAdapter(client),
		NewTelegramAdapter(client),
		NewMessengerAdapter(client),
	)
}

func NewRegistryWith(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[model.Channel]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Type()] = a
	}
	return r
}

func (r *Registry) Get(channel model.Channel) (Adapter, error) {
	a, ok := r.adapters[channel]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for channel %q", channel)
	}
	return a, nil
}
