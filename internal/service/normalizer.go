package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tripdesk/internal/models"
)

// Normalize maps one raw inbound webhook payload to the canonical inbound
// shape. It is a pure function: no I/O, no store access. Malformed payloads
// are the only error; missing optional fields resolve to the defaults
// declared in models.NewCanonicalInbound. A (nil, nil) return means the
// payload was a routine non-message event (delivery statuses, echoes of our
// own sends) that needs acknowledging but carries nothing to persist.
func Normalize(channel models.Channel, raw json.RawMessage) (*models.CanonicalInbound, error) {
	switch channel {
	case models.ChannelTelegram:
		return normalizeTelegram(raw)
	case models.ChannelWazzup:
		return normalizeWazzup(raw)
	default:
		return nil, fmt.Errorf("no normalizer for channel: %s", channel)
	}
}

func normalizeTelegram(raw json.RawMessage) (*models.CanonicalInbound, error) {
	var update models.TelegramUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, fmt.Errorf("failed to parse telegram update: %w", err)
	}
	if update.Message == nil {
		return nil, fmt.Errorf("telegram update %d carries no message", update.UpdateID)
	}

	msg := update.Message
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	var senderID, senderName string
	if msg.From != nil {
		senderID = strconv.FormatInt(msg.From.ID, 10)
		senderName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		if senderName == "" {
			senderName = msg.From.Username
		}
	}

	content := msg.Text
	messageType := models.MessageText
	var mediaURL string
	switch {
	case len(msg.Photo) > 0:
		messageType = models.MessagePhoto
		content = msg.Caption
		mediaURL = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil:
		messageType = models.MessageDocument
		content = msg.Caption
		mediaURL = msg.Document.FileID
	case msg.Voice != nil:
		messageType = models.MessageVoice
		mediaURL = msg.Voice.FileID
	}

	metadata := map[string]string{
		"telegram_update_id": strconv.FormatInt(update.UpdateID, 10),
	}
	if msg.From != nil && msg.From.Username != "" {
		metadata["telegram_username"] = msg.From.Username
	}
	if mediaURL != "" {
		metadata["telegram_file_id"] = mediaURL
	}

	return models.NewCanonicalInbound(models.CanonicalInboundParams{
		ExternalMessageID: strconv.FormatInt(msg.MessageID, 10),
		ExternalChatID:    chatID,
		SenderID:          senderID,
		SenderName:        senderName,
		Content:           content,
		MessageType:       messageType,
		MediaURL:          mediaURL,
		Metadata:          metadata,
	})
}

func normalizeWazzup(raw json.RawMessage) (*models.CanonicalInbound, error) {
	var payload models.WazzupWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse wazzup payload: %w", err)
	}

	// Echoes of our own sends come back through the same webhook; skip them.
	var inbound *models.WazzupInboundMessage
	for i := range payload.Messages {
		if payload.Messages[i].IsEcho || payload.Messages[i].FromMe {
			continue
		}
		inbound = &payload.Messages[i]
		break
	}
	if inbound == nil {
		if len(payload.Messages) == 0 && len(payload.Statuses) == 0 {
			return nil, fmt.Errorf("wazzup payload carries no events")
		}
		// Delivery-status callbacks and echo-only batches are routine; the
		// bridge re-delivers anything not acknowledged.
		return nil, nil
	}

	var senderName, senderPhone string
	if inbound.Contact != nil {
		senderName = inbound.Contact.Name
		senderPhone = inbound.Contact.Phone
	}

	messageType := models.MessageText
	switch inbound.Type {
	case "image":
		messageType = models.MessagePhoto
	case "document":
		messageType = models.MessageDocument
	case "audio", "voice":
		messageType = models.MessageVoice
	}

	metadata := map[string]string{
		"wazzup_channel_id": inbound.ChannelID,
	}
	if inbound.ChatType != "" {
		metadata["wazzup_chat_type"] = inbound.ChatType
	}

	return models.NewCanonicalInbound(models.CanonicalInboundParams{
		ExternalMessageID: inbound.MessageID,
		ExternalChatID:    inbound.ChatID,
		SenderID:          inbound.ChatID,
		SenderName:        senderName,
		SenderPhone:       senderPhone,
		Content:           inbound.Text,
		MessageType:       messageType,
		MediaURL:          inbound.ContentURI,
		Metadata:          metadata,
	})
}
