package database

import (
	"context"
	"path/filepath"
	"testing"

	"tripdesk/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enableTestEncryption(t *testing.T) {
	t.Helper()
	t.Setenv("TRIPDESK_ENABLE_ENCRYPTION", "true")
	t.Setenv("TRIPDESK_ENCRYPTION_SECRET", "a-test-secret-of-sufficient-length")
}

func TestEncryptorDisabledPassthrough(t *testing.T) {
	t.Setenv("TRIPDESK_ENABLE_ENCRYPTION", "false")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	out, err := enc.EncryptIfEnabled("plain value")
	require.NoError(t, err)
	assert.Equal(t, "plain value", out)

	back, err := enc.DecryptIfEnabled("plain value")
	require.NoError(t, err)
	assert.Equal(t, "plain value", back)
}

func TestEncryptorRoundTrip(t *testing.T) {
	enableTestEncryption(t)

	enc, err := NewEncryptor()
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("Do you have tours to Lisbon?")
	require.NoError(t, err)
	assert.NotEqual(t, "Do you have tours to Lisbon?", ciphertext)

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "Do you have tours to Lisbon?", plaintext)
}

func TestEncryptorRandomizedNonce(t *testing.T) {
	enableTestEncryption(t)

	enc, err := NewEncryptor()
	require.NoError(t, err)

	first, err := enc.Encrypt("same input")
	require.NoError(t, err)
	second, err := enc.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEncryptForLookupDeterministic(t *testing.T) {
	enableTestEncryption(t)

	enc, err := NewEncryptor()
	require.NoError(t, err)

	first, err := enc.EncryptForLookup("chat-42")
	require.NoError(t, err)
	second, err := enc.EncryptForLookup("chat-42")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := enc.EncryptForLookup("chat-43")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	plaintext, err := enc.Decrypt(first)
	require.NoError(t, err)
	assert.Equal(t, "chat-42", plaintext)
}

func TestEncryptorEmptyString(t *testing.T) {
	enableTestEncryption(t)

	enc, err := NewEncryptor()
	require.NoError(t, err)

	out, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestEncryptorSecretValidation(t *testing.T) {
	t.Setenv("TRIPDESK_ENABLE_ENCRYPTION", "true")

	t.Setenv("TRIPDESK_ENCRYPTION_SECRET", "")
	_, err := NewEncryptor()
	assert.Error(t, err)

	t.Setenv("TRIPDESK_ENCRYPTION_SECRET", "too-short")
	_, err = NewEncryptor()
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	enableTestEncryption(t)

	enc, err := NewEncryptor()
	require.NoError(t, err)

	_, err = enc.Decrypt("not-base64!!!")
	assert.Error(t, err)

	_, err = enc.Decrypt("YQ==") // valid base64, shorter than a nonce
	assert.Error(t, err)
}

func TestEncryptedStoreLookup(t *testing.T) {
	enableTestEncryption(t)

	dbPath := filepath.Join(t.TempDir(), "encrypted.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	created, err := db.CreateConversation(ctx, &models.Conversation{
		Channel:        models.ChannelTelegram,
		ExternalChatID: "chat-enc",
		CustomerName:   "Ann Traveler",
		CustomerPhone:  "+15550001234",
	})
	require.NoError(t, err)

	// Deterministic lookup encryption must keep find-by-thread working.
	found, err := db.FindConversation(ctx, models.ChannelTelegram, "chat-enc")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Ann Traveler", found.CustomerName)
	assert.Equal(t, "+15550001234", found.CustomerPhone)

	msg, err := db.CreateMessage(ctx, &models.Message{
		ConversationID: created.ID,
		Channel:        models.ChannelTelegram,
		Direction:      models.DirectionIn,
		SenderType:     models.SenderCustomer,
		SenderName:     "Ann Traveler",
		Content:        "secret itinerary question",
	})
	require.NoError(t, err)

	messages, err := db.ListMessages(ctx, created.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.Content, messages[0].Content)
	assert.Equal(t, "Ann Traveler", messages[0].SenderName)
}
