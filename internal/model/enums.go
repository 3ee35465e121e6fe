package model

// Channel identifies the messaging provider a conversation lives on.
type Channel string

const (
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelTelegram  Channel = "telegram"
	ChannelMessenger Channel = "facebook"
)

func (c Channel) String() string {
	return string(c)
}

func (c Channel) Valid() bool {
	switch c {
	case ChannelWhatsApp, ChannelTelegram, ChannelMessenger:
		return true
	}
	return false
}

// SenderType distinguishes who authored a persisted message.
type SenderType string

const (
	SenderCustomer   SenderType = "customer"
	SenderAI         SenderType = "ai"
	SenderHumanAgent SenderType = "human_agent"
)

type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)
