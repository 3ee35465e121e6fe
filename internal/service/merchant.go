// Package service holds the pipeline that turns an inbound channel webhook
// into a model-generated reply: merchant resolution, identity resolution,
// prompt assembly, completion, interpretation, and delivery.
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/woox/commerce-relay-go/internal/channel"
	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/model"
	"github.com/woox/commerce-relay-go/internal/repository"
	"github.com/woox/commerce-relay-go/internal/util"
)

// MerchantService resolves tenants and unwraps their channel credentials.
type MerchantService struct {
	merchants     repository.MerchantRepository
	encryptionKey string
}

func NewMerchantService(merchants repository.MerchantRepository, encryptionKey string) *MerchantService {
	return &MerchantService{merchants: merchants, encryptionKey: encryptionKey}
}

// Resolve accepts either the merchant UUID or the short merchant code that
// webhook URLs may carry.
func (s *MerchantService) Resolve(ctx context.Context, idOrCode string) (*model.Merchant, error) {
	var (
		m   *model.Merchant
		err error
	)
	if util.IsValidUUID(idOrCode) {
		m, err = s.merchants.FindByID(ctx, idOrCode)
	} else {
		m, err = s.merchants.FindByCode(ctx, idOrCode)
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if m == nil {
		return nil, apperrors.NotFound("merchant")
	}
	return m, nil
}

// Credentials returns the decrypted channel secrets for one merchant.
func (s *MerchantService) Credentials(m *model.Merchant, ch model.Channel) (channel.Credentials, error) {
	switch ch {
	case model.ChannelWhatsApp:
		if m.WhatsAppToken == nil || m.WhatsAppPhoneNumberID == nil {
			return channel.Credentials{}, apperrors.Config("merchant has no whatsapp credentials")
		}
		return channel.Credentials{
			Token:         s.reveal(*m.WhatsAppToken),
			PhoneNumberID: *m.WhatsAppPhoneNumberID,
		}, nil
	case model.ChannelTelegram:
		if m.TelegramBotToken == nil {
			return channel.Credentials{}, apperrors.Config("merchant has no telegram bot token")
		}
		return channel.Credentials{Token: s.reveal(*m.TelegramBotToken)}, nil
	case model.ChannelMessenger:
		if m.FacebookPageToken == nil {
			return channel.Credentials{}, apperrors.Config("merchant has no facebook page token")
		}
		return channel.Credentials{Token: s.reveal(*m.FacebookPageToken)}, nil
	}
	return channel.Credentials{}, apperrors.Config("unsupported channel")
}

// APIKey returns the merchant's model provider key, decrypted when stored
// encrypted.
func (s *MerchantService) APIKey(m *model.Merchant) string {
	if m.AIAPIKey == nil {
		return ""
	}
	return s.reveal(*m.AIAPIKey)
}

// VerifyToken returns the merchant's Meta webhook handshake token.
func (s *MerchantService) VerifyToken(m *model.Merchant) string {
	if m.WhatsAppVerifyToken == nil {
		return ""
	}
	return *m.WhatsAppVerifyToken
}

// reveal decrypts a stored secret. Rows written before encryption was
// enabled hold plaintext, so decryption failure falls back to the stored
// value.
func (s *MerchantService) reveal(stored string) string {
	if s.encryptionKey == "" || stored == "" {
		return stored
	}
	plain, err := util.Decrypt(s.encryptionKey, stored)
	if err != nil {
		log.Debug().Str("value", util.MaskCode(stored)).Msg("stored credential is not encrypted, using as-is")
		return stored
	}
	return plain
}
