package models

import "fmt"

// CanonicalInbound is the channel-independent representation of one inbound
// message, produced by the normalizer before anything touches the store.
type CanonicalInbound struct {
	ExternalMessageID string
	ExternalChatID    string
	SenderID          string
	SenderName        string
	SenderPhone       string
	Content           string
	MessageType       MessageType
	MediaURL          string
	MediaType         string
	Metadata          map[string]string
}

// CanonicalInboundParams enumerates every field of the canonical shape.
// Optional fields resolve to defined defaults here, in one place, rather
// than at each normalization call site.
type CanonicalInboundParams struct {
	ExternalMessageID string
	ExternalChatID    string
	SenderID          string
	SenderName        string
	SenderPhone       string
	Content           string
	MessageType       MessageType
	MediaURL          string
	MediaType         string
	Metadata          map[string]string
}

// NewCanonicalInbound builds a canonical inbound message. ExternalChatID is
// the only required field; everything else defaults:
//   - MessageType defaults to text
//   - SenderID defaults to the chat id
//   - SenderName falls back to the sender id, then the chat id
//   - Metadata defaults to an empty map
func NewCanonicalInbound(p CanonicalInboundParams) (*CanonicalInbound, error) {
	if p.ExternalChatID == "" {
		return nil, fmt.Errorf("external chat id is required")
	}

	msgType := p.MessageType
	if msgType == "" {
		msgType = MessageText
	}

	senderID := p.SenderID
	if senderID == "" {
		senderID = p.ExternalChatID
	}

	senderName := p.SenderName
	if senderName == "" {
		senderName = senderID
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return &CanonicalInbound{
		ExternalMessageID: p.ExternalMessageID,
		ExternalChatID:    p.ExternalChatID,
		SenderID:          senderID,
		SenderName:        senderName,
		SenderPhone:       p.SenderPhone,
		Content:           p.Content,
		MessageType:       msgType,
		MediaURL:          p.MediaURL,
		MediaType:         p.MediaType,
		Metadata:          metadata,
	}, nil
}
