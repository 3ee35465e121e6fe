package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/model"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v22.0"

// WhatsApp Cloud API webhook payload.

type whatsAppWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type whatsAppSendRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type WhatsAppAdapter struct {
	client  *http.Client
	baseURL string
}

func NewWhatsAppAdapter(client *http.Client) *WhatsAppAdapter {
	return &WhatsAppAdapter{client: client, baseURL: defaultGraphBaseURL}
}

// NewWhatsAppAdapterWithBaseURL is used by tests to point at a stub server.
func NewWhatsAppAdapterWithBaseURL(client *http.Client, baseURL string) *WhatsAppAdapter {
	return &WhatsAppAdapter{client: client, baseURL: baseURL}
}

func (a *WhatsAppAdapter) Type() model.Channel {
	return model.ChannelWhatsApp
}

func (a *WhatsAppAdapter) ParseInbound(payload []byte) (*InboundMessage, error) {
	var body whatsAppWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, apperrors.Parse("whatsapp: malformed webhook body").WithCause(err)
	}

	if len(body.Entry) == 0 || len(body.Entry[0].Changes) == 0 {
		return nil, nil
	}
	value := body.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		// Status updates (delivered/read receipts) arrive on the same hook.
		return nil, nil
	}

	msg := value.Messages[0]
	if msg.Type != "text" || msg.Text.Body == "" {
		return nil, nil
	}

	name := "Cliente WhatsApp"
	if len(value.Contacts) > 0 && value.Contacts[0].Profile.Name != "" {
		name = value.Contacts[0].Profile.Name
	}

	return &InboundMessage{
		Channel:           model.ChannelWhatsApp,
		ExternalID:        msg.From,
		ChatID:            msg.From,
		DisplayName:       name,
		Text:              msg.Text.Body,
		ProviderMessageID: msg.ID,
	}, nil
}

func (a *WhatsAppAdapter) Deliver(ctx context.Context, creds Credentials, destination, text string) (*DeliveryResult, error) {
	if creds.Token == "" || creds.PhoneNumberID == "" {
		return nil, apperrors.Config("whatsapp: missing token or phone number id")
	}

	payload := whatsAppSendRequest{MessagingProduct: "whatsapp", To: destination}
	payload.Text.Body = text
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", a.baseURL, creds.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperrors.Provider("whatsapp", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("whatsapp send failed")
		return &DeliveryResult{OK: false, Response: json.RawMessage(respBody)},
			apperrors.Provider("whatsapp", fmt.Errorf("status %d", resp.StatusCode))
	}

	return &DeliveryResult{OK: true, Response: json.RawMessage(respBody)}, nil
}

// Sanitize strips internal markers. WhatsApp accepts single-asterisk bold
// and single-underscore italics, so no markup repair is needed.
func (a *WhatsAppAdapter) Sanitize(text string) string {
	return stripInternalMarkers(text)
}
