package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tripdesk/internal/models"

	"github.com/google/uuid"
)

func marshalMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalMetadata(raw sql.NullString) (map[string]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw.String), &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// CreateConversation allocates an id, stamps creation times and persists
// the record. The caller's struct is filled in place and also returned.
func (d *Database) CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	now := time.Now().UTC()
	conv.ID = uuid.New().String()
	conv.CreatedAt = now
	conv.LastMessageAt = now
	if conv.Status == "" {
		conv.Status = models.ConversationActive
	}

	encryptedChatID, err := d.encryptor.EncryptForLookupIfEnabled(conv.ExternalChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt chat ID: %w", err)
	}
	encryptedName, err := d.encryptor.EncryptIfEnabled(conv.CustomerName)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt customer name: %w", err)
	}
	encryptedPhone, err := d.encryptor.EncryptIfEnabled(conv.CustomerPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt customer phone: %w", err)
	}
	metadata, err := marshalMetadata(conv.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO conversations (
			id, lead_id, channel, external_chat_id, customer_name,
			customer_phone, status, last_message_at, created_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = d.db.ExecContext(ctx, query,
		conv.ID,
		conv.LeadID,
		string(conv.Channel),
		encryptedChatID,
		encryptedName,
		encryptedPhone,
		string(conv.Status),
		conv.LastMessageAt,
		conv.CreatedAt,
		metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conv, nil
}

const conversationColumns = `
	id, lead_id, channel, external_chat_id, customer_name, customer_phone,
	status, last_message_at, created_at, metadata
`

func (d *Database) scanConversation(row interface{ Scan(...interface{}) error }) (*models.Conversation, error) {
	conv := &models.Conversation{}
	var leadID, encryptedName, encryptedPhone sql.NullString
	var encryptedChatID, channel, status string
	var metadata sql.NullString

	err := row.Scan(
		&conv.ID,
		&leadID,
		&channel,
		&encryptedChatID,
		&encryptedName,
		&encryptedPhone,
		&status,
		&conv.LastMessageAt,
		&conv.CreatedAt,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	conv.LeadID = leadID.String
	conv.Channel = models.Channel(channel)
	conv.Status = models.ConversationStatus(status)

	conv.ExternalChatID, err = d.encryptor.DecryptIfEnabled(encryptedChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt chat ID: %w", err)
	}
	conv.CustomerName, err = d.encryptor.DecryptIfEnabled(encryptedName.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt customer name: %w", err)
	}
	conv.CustomerPhone, err = d.encryptor.DecryptIfEnabled(encryptedPhone.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt customer phone: %w", err)
	}
	conv.Metadata, err = unmarshalMetadata(metadata)
	if err != nil {
		return nil, err
	}

	return conv, nil
}

// FindConversation is an exact match on the unique (channel, external chat
// id) pair. A miss returns (nil, nil).
func (d *Database) FindConversation(ctx context.Context, channel models.Channel, externalChatID string) (*models.Conversation, error) {
	encryptedChatID, err := d.encryptor.EncryptForLookupIfEnabled(externalChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt chat ID: %w", err)
	}

	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE channel = ? AND external_chat_id = ?
	`

	conv, err := d.scanConversation(d.db.QueryRowContext(ctx, query, string(channel), encryptedChatID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return conv, nil
}

func (d *Database) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE id = ?
	`

	conv, err := d.scanConversation(d.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns conversations newest-activity-first. An empty
// channel means all channels.
func (d *Database) ListConversations(ctx context.Context, channel models.Channel, limit int) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
	`
	args := []interface{}{}
	if channel != "" {
		query += ` WHERE channel = ?`
		args = append(args, string(channel))
	}
	query += ` ORDER BY last_message_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var conversations []*models.Conversation
	for rows.Next() {
		conv, err := d.scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return conversations, nil
}

// CountConversations counts conversations, optionally per channel.
func (d *Database) CountConversations(ctx context.Context, channel models.Channel) (int, error) {
	query := `SELECT COUNT(*) FROM conversations`
	args := []interface{}{}
	if channel != "" {
		query += ` WHERE channel = ?`
		args = append(args, string(channel))
	}

	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// CreateMessage allocates an id, stamps the creation time, persists the
// message and advances the parent conversation's last_message_at to the
// same timestamp. Both writes happen in one transaction; writes for the
// same conversation are serialized.
func (d *Database) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	lock := d.conversationLock(msg.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC()
	if msg.MessageType == "" {
		msg.MessageType = models.MessageText
	}
	if msg.Status == "" {
		if msg.Direction == models.DirectionIn {
			msg.Status = models.MessageReceived
		} else {
			msg.Status = models.MessageSent
		}
	}

	encryptedContent, err := d.encryptor.EncryptIfEnabled(msg.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt content: %w", err)
	}
	encryptedSenderName, err := d.encryptor.EncryptIfEnabled(msg.SenderName)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt sender name: %w", err)
	}
	metadata, err := marshalMetadata(msg.Metadata)
	if err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO messages (
			id, conversation_id, channel, external_message_id, direction,
			sender_type, sender_id, sender_name, message_type, content,
			media_url, media_type, status, read_at, created_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, insert,
		msg.ID,
		msg.ConversationID,
		string(msg.Channel),
		msg.ExternalMessageID,
		string(msg.Direction),
		string(msg.SenderType),
		msg.SenderID,
		encryptedSenderName,
		string(msg.MessageType),
		encryptedContent,
		msg.MediaURL,
		msg.MediaType,
		string(msg.Status),
		msg.ReadAt,
		msg.CreatedAt,
		metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = ? WHERE id = ?`,
		msg.CreatedAt, msg.ConversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation activity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("no conversation found with ID: %s", msg.ConversationID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return msg, nil
}

const messageColumns = `
	id, conversation_id, channel, external_message_id, direction,
	sender_type, sender_id, sender_name, message_type, content,
	media_url, media_type, status, read_at, created_at, metadata
`

func (d *Database) scanMessage(row interface{ Scan(...interface{}) error }) (*models.Message, error) {
	msg := &models.Message{}
	var externalMessageID, senderID, encryptedSenderName sql.NullString
	var encryptedContent, mediaURL, mediaType sql.NullString
	var channel, direction, senderType, messageType, status string
	var readAt sql.NullTime
	var metadata sql.NullString

	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&channel,
		&externalMessageID,
		&direction,
		&senderType,
		&senderID,
		&encryptedSenderName,
		&messageType,
		&encryptedContent,
		&mediaURL,
		&mediaType,
		&status,
		&readAt,
		&msg.CreatedAt,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	msg.Channel = models.Channel(channel)
	msg.ExternalMessageID = externalMessageID.String
	msg.Direction = models.Direction(direction)
	msg.SenderType = models.SenderType(senderType)
	msg.SenderID = senderID.String
	msg.MessageType = models.MessageType(messageType)
	msg.MediaURL = mediaURL.String
	msg.MediaType = mediaType.String
	msg.Status = models.MessageStatus(status)
	if readAt.Valid {
		t := readAt.Time
		msg.ReadAt = &t
	}

	msg.SenderName, err = d.encryptor.DecryptIfEnabled(encryptedSenderName.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt sender name: %w", err)
	}
	msg.Content, err = d.encryptor.DecryptIfEnabled(encryptedContent.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt content: %w", err)
	}
	msg.Metadata, err = unmarshalMetadata(metadata)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// ListMessages returns a conversation's messages newest-first. Equal
// timestamps fall back to insertion order via rowid.
func (d *Database) ListMessages(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*models.Message
	for rows.Next() {
		msg, err := d.scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// UnreadCount counts inbound messages that have not been marked read.
func (d *Database) UnreadCount(ctx context.Context, channel models.Channel) (int, error) {
	query := `
		SELECT COUNT(*) FROM messages
		WHERE direction = ? AND read_at IS NULL
	`
	args := []interface{}{string(models.DirectionIn)}
	if channel != "" {
		query += ` AND channel = ?`
		args = append(args, string(channel))
	}

	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkConversationRead stamps read_at on every unread inbound message of a
// conversation and returns how many were affected.
func (d *Database) MarkConversationRead(ctx context.Context, conversationID string) (int64, error) {
	lock := d.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	result, err := d.db.ExecContext(ctx, `
		UPDATE messages
		SET read_at = ?, status = ?
		WHERE conversation_id = ? AND direction = ? AND read_at IS NULL
	`, time.Now().UTC(), string(models.MessageRead), conversationID, string(models.DirectionIn))
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// CloseConversation marks a conversation closed. Conversations are never
// deleted.
func (d *Database) CloseConversation(ctx context.Context, conversationID string) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE conversations SET status = ? WHERE id = ?`,
		string(models.ConversationClosed), conversationID,
	)
	if err != nil {
		return fmt.Errorf("failed to close conversation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no conversation found with ID: %s", conversationID)
	}
	return nil
}
