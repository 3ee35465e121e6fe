package model

import (
	"time"
)

// Merchant is a tenant's full configuration row. The pipeline treats it as
// read-only; mutation happens through the admin surface.
type Merchant struct {
	ID           string `db:"id" json:"id"`
	MerchantCode *string `db:"merchant_code" json:"merchantCode,omitempty"`
	Name         string `db:"name" json:"name"`
	Slug         string `db:"slug" json:"slug"`
	IsActive     bool   `db:"is_active" json:"isActive"`

	AIEnabled        bool    `db:"ai_enabled" json:"aiEnabled"`
	AIProvider       string  `db:"ai_provider" json:"aiProvider"`
	AIModel          string  `db:"ai_model" json:"aiModel"`
	AIAPIKey         *string `db:"ai_api_key" json:"-"`
	AIPersonality    *string `db:"ai_personality" json:"aiPersonality,omitempty"`
	AISystemPrompt   *string `db:"ai_system_prompt" json:"aiSystemPrompt,omitempty"`
	AIWelcomeMessage *string `db:"ai_welcome_message" json:"aiWelcomeMessage,omitempty"`
	AIRestrictions   *string `db:"ai_restrictions" json:"aiRestrictions,omitempty"`
	AIUseCatalog     bool    `db:"ai_use_catalog" json:"aiUseCatalog"`

	AIScheduleEnabled bool    `db:"ai_schedule_enabled" json:"aiScheduleEnabled"`
	AIScheduleStart   string  `db:"ai_schedule_start" json:"aiScheduleStart"`
	AIScheduleEnd     string  `db:"ai_schedule_end" json:"aiScheduleEnd"`
	AIScheduleMessage *string `db:"ai_schedule_message" json:"aiScheduleMessage,omitempty"`
	Timezone          *string `db:"timezone" json:"timezone,omitempty"`

	WhatsAppToken         *string `db:"whatsapp_token" json:"-"`
	WhatsAppPhoneNumberID *string `db:"whatsapp_phone_number_id" json:"whatsappPhoneNumberId,omitempty"`
	WhatsAppVerifyToken   *string `db:"whatsapp_verify_token" json:"-"`
	TelegramBotToken      *string `db:"telegram_bot_token" json:"-"`
	FacebookPageToken     *string `db:"facebook_page_token" json:"-"`

	RemarketingEnabled      bool    `db:"remarketing_enabled" json:"remarketingEnabled"`
	RemarketingDelayMinutes int     `db:"remarketing_delay_minutes" json:"remarketingDelayMinutes"`
	RemarketingMessage      *string `db:"remarketing_message" json:"remarketingMessage,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Location resolves the merchant's schedule timezone, falling back to the
// server's local zone when unset or invalid.
func (m *Merchant) Location() *time.Location {
	if m.Timezone == nil || *m.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(*m.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
