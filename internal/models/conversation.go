package models

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies a messaging provider. The set is closed: adding a
// provider means adding a constant here and an adapter implementation,
// never threading string comparisons through the hub.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelWazzup   Channel = "wazzup"
)

// ParseChannel resolves a channel name from external input. "whatsapp" is
// accepted as an alias for the Wazzup bridge since that is what operators
// call it.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "telegram":
		return ChannelTelegram, nil
	case "wazzup", "whatsapp":
		return ChannelWazzup, nil
	default:
		return "", fmt.Errorf("unknown channel: %q", s)
	}
}

// AllChannels returns the closed set of supported channels in a stable order.
func AllChannels() []Channel {
	return []Channel{ChannelTelegram, ChannelWazzup}
}

type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)

// Conversation is the canonical thread abstraction uniting all messages
// exchanged on one external chat for one channel. The pair
// (Channel, ExternalChatID) is unique: repeated webhooks for the same
// provider thread always resolve to the same conversation.
type Conversation struct {
	ID             string             `json:"id"`
	LeadID         string             `json:"lead_id,omitempty"`
	Channel        Channel            `json:"channel"`
	ExternalChatID string             `json:"external_chat_id"`
	CustomerName   string             `json:"customer_name"`
	CustomerPhone  string             `json:"customer_phone,omitempty"`
	Status         ConversationStatus `json:"status"`
	LastMessageAt  time.Time          `json:"last_message_at"`
	CreatedAt      time.Time          `json:"created_at"`
	Metadata       map[string]string  `json:"metadata,omitempty"`
}
