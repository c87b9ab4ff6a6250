package models

import "time"

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderAgent    SenderType = "agent"
	SenderSystem   SenderType = "system"
)

type MessageType string

const (
	MessageText     MessageType = "text"
	MessagePhoto    MessageType = "photo"
	MessageDocument MessageType = "document"
	MessageVoice    MessageType = "voice"
	MessageLocation MessageType = "location"
)

type MessageStatus string

const (
	MessageReceived MessageStatus = "received"
	MessageSent     MessageStatus = "sent"
	MessageRead     MessageStatus = "read"
	MessageFailed   MessageStatus = "failed"
)

// Message is one inbound or outbound event on a conversation. Records are
// immutable after creation except for Status and ReadAt transitions.
// Ordering within a conversation is by CreatedAt, ties broken by insertion
// order.
type Message struct {
	ID                string            `json:"id"`
	ConversationID    string            `json:"conversation_id"`
	Channel           Channel           `json:"channel"`
	ExternalMessageID string            `json:"external_message_id,omitempty"`
	Direction         Direction         `json:"direction"`
	SenderType        SenderType        `json:"sender_type"`
	SenderID          string            `json:"sender_id,omitempty"`
	SenderName        string            `json:"sender_name,omitempty"`
	MessageType       MessageType       `json:"message_type"`
	Content           string            `json:"content"`
	MediaURL          string            `json:"media_url,omitempty"`
	MediaType         string            `json:"media_type,omitempty"`
	Status            MessageStatus     `json:"status"`
	ReadAt            *time.Time        `json:"read_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}
