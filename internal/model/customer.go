package model

import "time"

// Customer is one end-user of one merchant, keyed by whichever channel
// identifier they first arrived on. Identities are never merged across
// channels: the same person on WhatsApp and Telegram is two rows.
type Customer struct {
	ID             string    `db:"id" json:"id"`
	MerchantID     string    `db:"merchant_id" json:"merchantId"`
	FullName       string    `db:"full_name" json:"fullName"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Email          *string   `db:"email" json:"email,omitempty"`
	Address        *string   `db:"address" json:"address,omitempty"`
	TelegramUserID *string   `db:"telegram_user_id" json:"telegramUserId,omitempty"`
	TelegramChatID *string   `db:"telegram_chat_id" json:"telegramChatId,omitempty"`
	WhatsAppPhone  *string   `db:"whatsapp_phone" json:"whatsappPhone,omitempty"`
	FacebookUserID *string   `db:"facebook_user_id" json:"facebookUserId,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Destination is the delivery target for outbound sends on a channel:
// the chat id for Telegram, the channel identifier elsewhere.
func (c *Customer) Destination(channel Channel) string {
	switch channel {
	case ChannelWhatsApp:
		if c.WhatsAppPhone != nil {
			return *c.WhatsAppPhone
		}
	case ChannelTelegram:
		if c.TelegramChatID != nil {
			return *c.TelegramChatID
		}
	case ChannelMessenger:
		if c.FacebookUserID != nil {
			return *c.FacebookUserID
		}
	}
	return ""
}

type UpsertCustomerParams struct {
	MerchantID  string
	Channel     Channel
	ExternalID  string
	DisplayName string
	// ChatID is the Telegram chat id, which differs from the user id and is
	// the delivery destination for that channel.
	ChatID string
}

// ContactUpdate carries the fields an order confirmation may backfill.
type ContactUpdate struct {
	FullName *string
	Phone    *string
	Address  *string
}

func (u ContactUpdate) Empty() bool {
	return u.FullName == nil && u.Phone == nil && u.Address == nil
}
