package store

import (
	"context"
	"time"

	"tripdesk/internal/constants"
	"tripdesk/internal/database"
	"tripdesk/internal/errors"
	"tripdesk/internal/models"
	"tripdesk/internal/retry"

	"github.com/sirupsen/logrus"
)

// ConversationStore is the durable (or in-memory fallback) mapping of
// conversations and messages, keyed by channel + external chat id.
//
// Implementations serialize operations on the same conversation id and
// return (nil, nil) for lookups that find nothing.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	FindConversation(ctx context.Context, channel models.Channel, externalChatID string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, channel models.Channel, limit int) ([]*models.Conversation, error)
	CountConversations(ctx context.Context, channel models.Channel) (int, error)
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
	UnreadCount(ctx context.Context, channel models.Channel) (int, error)
	MarkConversationRead(ctx context.Context, conversationID string) (int64, error)
	CloseConversation(ctx context.Context, conversationID string) error
	Close() error
}

// New opens the durable SQLite store, retrying with backoff, and falls back
// to the volatile in-memory store when the backend stays unreachable or no
// path is configured. The fallback downgrades durability, never the request.
func New(ctx context.Context, cfg models.DatabaseConfig, retryCfg models.RetryConfig, logger *logrus.Logger) ConversationStore {
	if cfg.Path == "" {
		logger.Warn("No database path configured, using in-memory conversation store")
		return NewMemoryStore()
	}

	attempts := retryCfg.MaxAttempts
	if attempts <= 0 {
		attempts = constants.DefaultStoreRetryAttempts
	}
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Duration(retryCfg.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(retryCfg.MaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  attempts,
		Jitter:       true,
	})

	var db *database.Database
	err := backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Path)
		if initErr != nil {
			logger.Warnf("Failed to open conversation store: %v", initErr)
			return errors.WrapRetryable(initErr, errors.ErrCodeStoreConnection, "failed to open conversation store")
		}
		return nil
	})
	if err != nil {
		logger.WithField("path", cfg.Path).Warnf("Durable store unavailable, falling back to in-memory: %v", err)
		return NewMemoryStore()
	}

	logger.WithField("path", cfg.Path).Info("Conversation store opened")
	return db
}

// ClampLimit bounds list sizes; zero or negative limits get the default.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultListLimit
	}
	if limit > constants.MaxListLimit {
		return constants.MaxListLimit
	}
	return limit
}
