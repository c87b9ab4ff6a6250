package service

import (
	"context"
	"sync"
	"time"

	"tripdesk/internal/errors"
	"tripdesk/internal/models"
)

// AutomationPolicy is the per-conversation mode registry deciding whether
// replies are written by a human, generated autonomously, or drafted for a
// human to approve. It is swappable for a durable implementation since it
// governs customer-facing automatic replies.
type AutomationPolicy interface {
	SetMode(ctx context.Context, conversationID string, mode models.AutomationMode, agentID string) (*models.AutomationRecord, error)
	GetMode(ctx context.Context, conversationID string) (*models.AutomationRecord, error)
	IsAutoMode(ctx context.Context, conversationID string) (bool, error)
	Count() int
}

// automationRegistry is the in-memory policy. State lives for the process
// lifetime; last write wins.
type automationRegistry struct {
	mu             sync.RWMutex
	records        map[string]*models.AutomationRecord
	defaultAgentID string
}

func NewAutomationRegistry(defaultAgentID string) AutomationPolicy {
	return &automationRegistry{
		records:        make(map[string]*models.AutomationRecord),
		defaultAgentID: defaultAgentID,
	}
}

func (r *automationRegistry) SetMode(ctx context.Context, conversationID string, mode models.AutomationMode, agentID string) (*models.AutomationRecord, error) {
	if conversationID == "" {
		return nil, errors.NewValidationError("conversation_id", conversationID, "conversation id is required")
	}
	if _, err := models.ParseAutomationMode(string(mode)); err != nil {
		return nil, err
	}

	// Auto mode without an explicit persona gets the default agent.
	if agentID == "" && mode == models.ModeAuto {
		agentID = r.defaultAgentID
	}

	record := &models.AutomationRecord{
		ConversationID: conversationID,
		Mode:           mode,
		AgentID:        agentID,
		UpdatedAt:      time.Now().UTC(),
	}

	r.mu.Lock()
	r.records[conversationID] = record
	r.mu.Unlock()

	clone := *record
	return &clone, nil
}

// GetMode returns the manual/no-agent default when no record exists; it
// never errors on absence.
func (r *automationRegistry) GetMode(ctx context.Context, conversationID string) (*models.AutomationRecord, error) {
	r.mu.RLock()
	record, ok := r.records[conversationID]
	r.mu.RUnlock()

	if !ok {
		return &models.AutomationRecord{
			ConversationID: conversationID,
			Mode:           models.ModeManual,
		}, nil
	}

	clone := *record
	return &clone, nil
}

func (r *automationRegistry) IsAutoMode(ctx context.Context, conversationID string) (bool, error) {
	record, err := r.GetMode(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return record.Mode == models.ModeAuto, nil
}

func (r *automationRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}
