package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/woox/commerce-relay-go/internal/model"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByChannelID(ctx context.Context, merchantID string, channel model.Channel, externalID string) (*model.Customer, error)
	Upsert(ctx context.Context, params model.UpsertCustomerParams) (*model.Customer, error)
	UpdateContact(ctx context.Context, id string, update model.ContactUpdate) error
}

type customerRepo struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, `SELECT * FROM customers WHERE id = $1`, id)
	return HandleNotFound(&c, err)
}

func (r *customerRepo) FindByChannelID(ctx context.Context, merchantID string, channel model.Channel, externalID string) (*model.Customer, error) {
	column, err := channelIdentifierColumn(channel)
	if err != nil {
		return nil, err
	}

	var c model.Customer
	err = r.db.GetContext(ctx, &c, fmt.Sprintf(`
		SELECT * FROM customers
		WHERE merchant_id = $1 AND %s = $2
	`, column), merchantID, externalID)
	return HandleNotFound(&c, err)
}

// Upsert atomically creates the customer for a channel identifier if absent.
// Concurrent first-contact webhooks race on the same identifier, so the
// insert is ON CONFLICT DO NOTHING against the per-channel unique index and
// the winner (either invocation) is re-selected afterwards.
func (r *customerRepo) Upsert(ctx context.Context, params model.UpsertCustomerParams) (*model.Customer, error) {
	switch params.Channel {
	case model.ChannelWhatsApp:
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO customers (merchant_id, full_name, phone, whatsapp_phone)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (merchant_id, whatsapp_phone) DO NOTHING
		`, params.MerchantID, params.DisplayName, params.ExternalID)
		if err != nil {
			return nil, err
		}
	case model.ChannelTelegram:
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO customers (merchant_id, full_name, telegram_user_id, telegram_chat_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (merchant_id, telegram_user_id) DO NOTHING
		`, params.MerchantID, params.DisplayName, params.ExternalID, params.ChatID)
		if err != nil {
			return nil, err
		}
	case model.ChannelMessenger:
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO customers (merchant_id, full_name, facebook_user_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (merchant_id, facebook_user_id) DO NOTHING
		`, params.MerchantID, params.DisplayName, params.ExternalID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported channel %q", params.Channel)
	}

	return r.FindByChannelID(ctx, params.MerchantID, params.Channel, params.ExternalID)
}

func (r *customerRepo) UpdateContact(ctx context.Context, id string, update model.ContactUpdate) error {
	if update.Empty() {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE customers SET
			full_name = COALESCE($2, full_name),
			phone = COALESCE($3, phone),
			address = COALESCE($4, address)
		WHERE id = $1
	`, id, update.FullName, update.Phone, update.Address)
	return err
}

func channelIdentifierColumn(channel model.Channel) (string, error) {
	switch channel {
	case model.ChannelWhatsApp:
		return "whatsapp_phone", nil
	case model.ChannelTelegram:
		return "telegram_user_id", nil
	case model.ChannelMessenger:
		return "facebook_user_id", nil
	}
	return "", fmt.Errorf("unsupported channel %q", channel)
}
