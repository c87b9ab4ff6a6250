package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tripdesk/internal/models"

	"github.com/google/uuid"
)

type threadKey struct {
	channel models.Channel
	chatID  string
}

// MemoryStore is the volatile fallback used when no durable backend is
// reachable. A single lock serializes all writes, which trivially satisfies
// the per-conversation ordering requirement.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	byThread      map[threadKey]string
	messages      map[string][]*models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*models.Conversation),
		byThread:      make(map[threadKey]string),
		messages:      make(map[string][]*models.Message),
	}
}

func copyConversation(conv *models.Conversation) *models.Conversation {
	clone := *conv
	return &clone
}

func copyMessage(msg *models.Message) *models.Message {
	clone := *msg
	return &clone
}

func (s *MemoryStore) CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := threadKey{channel: conv.Channel, chatID: conv.ExternalChatID}
	if existingID, ok := s.byThread[key]; ok {
		return nil, fmt.Errorf("conversation already exists for %s/%s: %s", conv.Channel, conv.ExternalChatID, existingID)
	}

	now := time.Now().UTC()
	conv.ID = uuid.New().String()
	conv.CreatedAt = now
	conv.LastMessageAt = now
	if conv.Status == "" {
		conv.Status = models.ConversationActive
	}

	s.conversations[conv.ID] = copyConversation(conv)
	s.byThread[key] = conv.ID
	return conv, nil
}

func (s *MemoryStore) FindConversation(ctx context.Context, channel models.Channel, externalChatID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byThread[threadKey{channel: channel, chatID: externalChatID}]
	if !ok {
		return nil, nil
	}
	return copyConversation(s.conversations[id]), nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return copyConversation(conv), nil
}

func (s *MemoryStore) ListConversations(ctx context.Context, channel models.Channel, limit int) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conversations []*models.Conversation
	for _, conv := range s.conversations {
		if channel != "" && conv.Channel != channel {
			continue
		}
		conversations = append(conversations, copyConversation(conv))
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})

	if len(conversations) > limit {
		conversations = conversations[:limit]
	}
	return conversations, nil
}

func (s *MemoryStore) CountConversations(ctx context.Context, channel models.Channel) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if channel == "" {
		return len(s.conversations), nil
	}
	count := 0
	for _, conv := range s.conversations {
		if conv.Channel == channel {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return nil, fmt.Errorf("no conversation found with ID: %s", msg.ConversationID)
	}

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

	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], copyMessage(msg))
	conv.LastMessageAt = msg.CreatedAt
	return msg, nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[conversationID]
	// Newest first; the slice is already in insertion order.
	messages := make([]*models.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0 && len(messages) < limit; i-- {
		messages = append(messages, copyMessage(stored[i]))
	}
	return messages, nil
}

func (s *MemoryStore) UnreadCount(ctx context.Context, channel models.Channel) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, msgs := range s.messages {
		for _, msg := range msgs {
			if msg.Direction != models.DirectionIn || msg.ReadAt != nil {
				continue
			}
			if channel != "" && msg.Channel != channel {
				continue
			}
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MarkConversationRead(ctx context.Context, conversationID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var marked int64
	for _, msg := range s.messages[conversationID] {
		if msg.Direction == models.DirectionIn && msg.ReadAt == nil {
			readAt := now
			msg.ReadAt = &readAt
			msg.Status = models.MessageRead
			marked++
		}
	}
	return marked, nil
}

func (s *MemoryStore) CloseConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("no conversation found with ID: %s", conversationID)
	}
	conv.Status = models.ConversationClosed
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
