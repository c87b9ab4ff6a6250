package models

// Telegram bot API webhook update. Only the fields the normalizer reads are
// declared; everything else in the update is ignored.
type TelegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		From      *struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID        int64  `json:"id"`
			Type      string `json:"type"`
			Title     string `json:"title"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"chat"`
		Date    int64  `json:"date"`
		Text    string `json:"text"`
		Caption string `json:"caption"`
		Photo   []struct {
			FileID string `json:"file_id"`
		} `json:"photo"`
		Document *struct {
			FileID   string `json:"file_id"`
			FileName string `json:"file_name"`
			MimeType string `json:"mime_type"`
		} `json:"document"`
		Voice *struct {
			FileID   string `json:"file_id"`
			MimeType string `json:"mime_type"`
		} `json:"voice"`
	} `json:"message"`
}

// Wazzup v3 webhook body. The bridge batches events, so inbound messages
// arrive as an array.
type WazzupWebhookPayload struct {
	Messages []WazzupInboundMessage `json:"messages"`
	Statuses []struct {
		MessageID string `json:"messageId"`
		Status    string `json:"status"`
	} `json:"statuses,omitempty"`
}

type WazzupInboundMessage struct {
	MessageID  string `json:"messageId"`
	ChannelID  string `json:"channelId"`
	ChatType   string `json:"chatType"`
	ChatID     string `json:"chatId"`
	DateTime   string `json:"dateTime"`
	Type       string `json:"type"`
	Text       string `json:"text"`
	ContentURI string `json:"contentUri,omitempty"`
	Contact    *struct {
		Name      string `json:"name"`
		Phone     string `json:"phone"`
		AvatarURI string `json:"avatarUri"`
	} `json:"contact"`
	IsEcho bool `json:"isEcho"`
	FromMe bool `json:"fromMe"`
}
