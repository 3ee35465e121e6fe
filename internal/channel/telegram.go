package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/model"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

type telegramUpdate struct {
	Message       *telegramMessage `json:"message"`
	EditedMessage *telegramMessage `json:"edited_message"`
}

type telegramMessage struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	From struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	} `json:"from"`
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type TelegramAdapter struct {
	client  *http.Client
	baseURL string
}

func NewTelegramAdapter(client *http.Client) *TelegramAdapter {
	return &TelegramAdapter{client: client, baseURL: defaultTelegramBaseURL}
}

func NewTelegramAdapterWithBaseURL(client *http.Client, baseURL string) *TelegramAdapter {
	return &TelegramAdapter{client: client, baseURL: baseURL}
}

func (a *TelegramAdapter) Type() model.Channel {
	return model.ChannelTelegram
}

func (a *TelegramAdapter) ParseInbound(payload []byte) (*InboundMessage, error) {
	var update telegramUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return nil, apperrors.Parse("telegram: malformed update").WithCause(err)
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Text == "" {
		return nil, nil
	}

	name := msg.From.Username
	if name == "" {
		name = msg.From.FirstName
	}
	if name == "" {
		name = "Cliente"
	}

	return &InboundMessage{
		Channel:           model.ChannelTelegram,
		ExternalID:        strconv.FormatInt(msg.From.ID, 10),
		ChatID:            strconv.FormatInt(msg.Chat.ID, 10),
		DisplayName:       name,
		Text:              msg.Text,
		ProviderMessageID: strconv.FormatInt(msg.MessageID, 10),
	}, nil
}

// Deliver sends via Bot API sendMessage with Markdown. Telegram rejects the
// whole message when entities are unbalanced, so a parse failure is retried
// once as plain text.
func (a *TelegramAdapter) Deliver(ctx context.Context, creds Credentials, destination, text string) (*DeliveryResult, error) {
	if creds.Token == "" {
		return nil, apperrors.Config("telegram: missing bot token")
	}

	result, retryPlain, err := a.send(ctx, creds.Token, telegramSendRequest{
		ChatID:    destination,
		Text:      text,
		ParseMode: "Markdown",
	})
	if retryPlain {
		log.Debug().Msg("telegram rejected markdown entities, resending as plain text")
		result, _, err = a.send(ctx, creds.Token, telegramSendRequest{
			ChatID: destination,
			Text:   text,
		})
	}
	return result, err
}

// send performs one sendMessage call. The middle return reports Telegram's
// entity-parse rejection, which callers recover from by dropping Markdown.
func (a *TelegramAdapter) send(ctx context.Context, token string, payload telegramSendRequest) (*DeliveryResult, bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", a.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false, apperrors.Provider("telegram", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var parsed telegramSendResponse
	_ = json.Unmarshal(respBody, &parsed)

	if !parsed.OK {
		if strings.Contains(parsed.Description, "can't parse entities") {
			return &DeliveryResult{OK: false, Response: json.RawMessage(respBody)}, true, nil
		}
		log.Error().
			Int("status", resp.StatusCode).
			Str("description", parsed.Description).
			Msg("telegram send failed")
		return &DeliveryResult{OK: false, Response: json.RawMessage(respBody)}, false,
			apperrors.Provider("telegram", fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Description))
	}

	return &DeliveryResult{OK: true, Response: json.RawMessage(respBody)}, false, nil
}

// Sanitize strips internal markers and balances Markdown delimiters, since
// Telegram rejects messages with unpaired entities.
func (a *TelegramAdapter) Sanitize(text string) string {
	return strings.TrimSpace(balanceMarkdown(stripInternalMarkers(text)))
}
