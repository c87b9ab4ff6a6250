package service

import (
	"context"
	"fmt"
	"sync"

	"tripdesk/internal/ai"
	"tripdesk/internal/models"
	"tripdesk/internal/store"
)

type mockAdapter struct {
	mu            sync.Mutex
	channel       models.Channel
	connectResult models.ConnectResult
	sendResult    models.SendResult
	sentChatIDs   []string
	sentTexts     []string
	sentOpts      []models.SendOptions
	connectCalls  int
}

func newMockAdapter(channel models.Channel) *mockAdapter {
	return &mockAdapter{
		channel:       channel,
		connectResult: models.ConnectResult{Success: true, Details: "mock connected"},
		sendResult:    models.SendResult{Success: true, ExternalMessageID: "ext-1"},
	}
}

func (m *mockAdapter) Channel() models.Channel {
	return m.channel
}

func (m *mockAdapter) Connect(ctx context.Context) models.ConnectResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	return m.connectResult
}

func (m *mockAdapter) Send(ctx context.Context, externalChatID, text string, opts models.SendOptions) models.SendResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentChatIDs = append(m.sentChatIDs, externalChatID)
	m.sentTexts = append(m.sentTexts, text)
	m.sentOpts = append(m.sentOpts, opts)
	return m.sendResult
}

func (m *mockAdapter) Status() models.AdapterStatus {
	return models.AdapterStatus{
		Channel:    m.channel,
		Connected:  m.connectResult.Success,
		Configured: true,
	}
}

func (m *mockAdapter) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sentTexts)
}

type mockGenerator struct {
	mu       sync.Mutex
	result   *ai.GenerateResult
	err      error
	requests []ai.GenerateRequest
}

func newMockGenerator(response string) *mockGenerator {
	return &mockGenerator{
		result: &ai.GenerateResult{
			Success:  true,
			Response: response,
			AgentID:  "travel-assistant",
			Model:    "mock-model",
		},
	}
}

func (m *mockGenerator) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

var errMockGenerator = fmt.Errorf("generator unavailable")

// conflictingStore simulates a concurrent writer winning the unique index:
// CreateConversation inserts the row through the wrapped store but reports a
// constraint violation, so callers have to re-read to recover.
type conflictingStore struct {
	store.ConversationStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictingStore) CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ConversationStore.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	s.conflicts++
	return nil, fmt.Errorf("UNIQUE constraint failed: conversations.channel, conversations.external_chat_id")
}

func (s *conflictingStore) conflictCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflicts
}
