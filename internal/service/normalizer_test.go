package service

import (
	"encoding/json"
	"testing"

	"tripdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTelegramText(t *testing.T) {
	raw := json.RawMessage(`{
		"update_id": 9001,
		"message": {
			"message_id": 77,
			"from": {"id": 12345, "first_name": "Ann", "last_name": "Traveler", "username": "ann_t"},
			"chat": {"id": 555},
			"text": "Do you have tours to Lisbon?"
		}
	}`)

	inbound, err := Normalize(models.ChannelTelegram, raw)
	require.NoError(t, err)

	assert.Equal(t, "77", inbound.ExternalMessageID)
	assert.Equal(t, "555", inbound.ExternalChatID)
	assert.Equal(t, "12345", inbound.SenderID)
	assert.Equal(t, "Ann Traveler", inbound.SenderName)
	assert.Equal(t, "Do you have tours to Lisbon?", inbound.Content)
	assert.Equal(t, models.MessageText, inbound.MessageType)
	assert.Equal(t, "9001", inbound.Metadata["telegram_update_id"])
	assert.Equal(t, "ann_t", inbound.Metadata["telegram_username"])
}

func TestNormalizeTelegramUsernameFallback(t *testing.T) {
	raw := json.RawMessage(`{
		"update_id": 1,
		"message": {
			"message_id": 2,
			"from": {"id": 3, "username": "no_name"},
			"chat": {"id": 4},
			"text": "hi"
		}
	}`)

	inbound, err := Normalize(models.ChannelTelegram, raw)
	require.NoError(t, err)
	assert.Equal(t, "no_name", inbound.SenderName)
}

func TestNormalizeTelegramPhoto(t *testing.T) {
	raw := json.RawMessage(`{
		"update_id": 2,
		"message": {
			"message_id": 10,
			"from": {"id": 3, "first_name": "Ann"},
			"chat": {"id": 4},
			"caption": "our passports",
			"photo": [{"file_id": "small"}, {"file_id": "large"}]
		}
	}`)

	inbound, err := Normalize(models.ChannelTelegram, raw)
	require.NoError(t, err)

	assert.Equal(t, models.MessagePhoto, inbound.MessageType)
	assert.Equal(t, "our passports", inbound.Content)
	assert.Equal(t, "large", inbound.MediaURL, "largest photo size wins")
	assert.Equal(t, "large", inbound.Metadata["telegram_file_id"])
}

func TestNormalizeTelegramNoMessage(t *testing.T) {
	_, err := Normalize(models.ChannelTelegram, json.RawMessage(`{"update_id": 3}`))
	assert.Error(t, err)

	_, err = Normalize(models.ChannelTelegram, json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestNormalizeWazzupMessage(t *testing.T) {
	raw := json.RawMessage(`{
		"messages": [{
			"messageId": "wz-msg-1",
			"channelId": "ch-9",
			"chatType": "whatsapp",
			"chatId": "79998887766",
			"type": "text",
			"text": "Планируем отпуск в сентябре",
			"contact": {"name": "Ivan", "phone": "+79998887766"}
		}]
	}`)

	inbound, err := Normalize(models.ChannelWazzup, raw)
	require.NoError(t, err)

	assert.Equal(t, "wz-msg-1", inbound.ExternalMessageID)
	assert.Equal(t, "79998887766", inbound.ExternalChatID)
	assert.Equal(t, "Ivan", inbound.SenderName)
	assert.Equal(t, "+79998887766", inbound.SenderPhone)
	assert.Equal(t, models.MessageText, inbound.MessageType)
	assert.Equal(t, "ch-9", inbound.Metadata["wazzup_channel_id"])
	assert.Equal(t, "whatsapp", inbound.Metadata["wazzup_chat_type"])
}

func TestNormalizeWazzupSkipsEchoes(t *testing.T) {
	raw := json.RawMessage(`{
		"messages": [
			{"messageId": "echo", "chatId": "111", "isEcho": true, "text": "our own send"},
			{"messageId": "mine", "chatId": "111", "fromMe": true, "text": "also ours"},
			{"messageId": "real", "chatId": "111", "type": "text", "text": "customer reply"}
		]
	}`)

	inbound, err := Normalize(models.ChannelWazzup, raw)
	require.NoError(t, err)
	assert.Equal(t, "real", inbound.ExternalMessageID)
	assert.Equal(t, "customer reply", inbound.Content)
}

func TestNormalizeWazzupMediaTypes(t *testing.T) {
	tests := []struct {
		wireType string
		want     models.MessageType
	}{
		{"image", models.MessagePhoto},
		{"document", models.MessageDocument},
		{"audio", models.MessageVoice},
		{"voice", models.MessageVoice},
		{"text", models.MessageText},
	}

	for _, tt := range tests {
		t.Run(tt.wireType, func(t *testing.T) {
			raw := json.RawMessage(`{
				"messages": [{
					"messageId": "m",
					"chatId": "222",
					"type": "` + tt.wireType + `",
					"contentUri": "https://cdn.example.com/file"
				}]
			}`)

			inbound, err := Normalize(models.ChannelWazzup, raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, inbound.MessageType)
			assert.Equal(t, "https://cdn.example.com/file", inbound.MediaURL)
		})
	}
}

func TestNormalizeWazzupNoInbound(t *testing.T) {
	_, err := Normalize(models.ChannelWazzup, json.RawMessage(`{"messages": []}`))
	assert.Error(t, err, "a payload with no events at all is malformed")

	inbound, err := Normalize(models.ChannelWazzup, json.RawMessage(`{
		"messages": [{"messageId": "echo", "chatId": "111", "isEcho": true}]
	}`))
	require.NoError(t, err, "echo-only batches are routine deliveries")
	assert.Nil(t, inbound)

	inbound, err = Normalize(models.ChannelWazzup, json.RawMessage(`{"statuses": [{"messageId": "x", "status": "delivered"}]}`))
	require.NoError(t, err, "status callbacks are routine deliveries")
	assert.Nil(t, inbound)
}

func TestNormalizeUnknownChannel(t *testing.T) {
	_, err := Normalize(models.Channel("smoke-signals"), json.RawMessage(`{}`))
	assert.Error(t, err)
}
