package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/model"
)

type messengerWebhook struct {
	Entry []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Message *struct {
				MID    string `json:"mid"`
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
			Postback *struct {
				Payload string `json:"payload"`
			} `json:"postback"`
		} `json:"messaging"`
	} `json:"entry"`
}

type messengerSendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type MessengerAdapter struct {
	client  *http.Client
	baseURL string
}

func NewMessengerAdapter(client *http.Client) *MessengerAdapter {
	return &MessengerAdapter{client: client, baseURL: defaultGraphBaseURL}
}

func NewMessengerAdapterWithBaseURL(client *http.Client, baseURL string) *MessengerAdapter {
	return &MessengerAdapter{client: client, baseURL: baseURL}
}

func (a *MessengerAdapter) Type() model.Channel {
	return model.ChannelMessenger
}

func (a *MessengerAdapter) ParseInbound(payload []byte) (*InboundMessage, error) {
	var body messengerWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, apperrors.Parse("messenger: malformed webhook body").WithCause(err)
	}

	if len(body.Entry) == 0 || len(body.Entry[0].Messaging) == 0 {
		return nil, nil
	}
	messaging := body.Entry[0].Messaging[0]

	// Echo events are our own page sends reflected back.
	if messaging.Message != nil && messaging.Message.IsEcho {
		return nil, nil
	}

	var text, providerID string
	switch {
	case messaging.Message != nil && messaging.Message.Text != "":
		text = messaging.Message.Text
		providerID = messaging.Message.MID
	case messaging.Postback != nil && messaging.Postback.Payload != "":
		text = messaging.Postback.Payload
		providerID = fmt.Sprintf("pb_%d", time.Now().UnixMilli())
	default:
		return nil, nil
	}

	return &InboundMessage{
		Channel:           model.ChannelMessenger,
		ExternalID:        messaging.Sender.ID,
		ChatID:            messaging.Sender.ID,
		DisplayName:       "Usuario Messenger",
		Text:              text,
		ProviderMessageID: providerID,
	}, nil
}

func (a *MessengerAdapter) Deliver(ctx context.Context, creds Credentials, destination, text string) (*DeliveryResult, error) {
	if creds.Token == "" {
		return nil, apperrors.Config("messenger: missing page token")
	}

	var payload messengerSendRequest
	payload.Recipient.ID = destination
	payload.Message.Text = text
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal messenger payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", a.baseURL, url.QueryEscape(creds.Token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create messenger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperrors.Provider("messenger", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Msg("messenger send failed")
		return &DeliveryResult{OK: false, Response: json.RawMessage(respBody)},
			apperrors.Provider("messenger", fmt.Errorf("status %d", resp.StatusCode))
	}

	return &DeliveryResult{OK: true, Response: json.RawMessage(respBody)}, nil
}

func (a *MessengerAdapter) Sanitize(text string) string {
	return stripInternalMarkers(text)
}
