package models

import (
	"fmt"
	"time"
)

// AutomationMode governs who answers a conversation: a human (manual), the
// AI agent autonomously (auto), or the AI drafting suggestions a human
// approves (assisted).
type AutomationMode string

const (
	ModeManual   AutomationMode = "manual"
	ModeAuto     AutomationMode = "auto"
	ModeAssisted AutomationMode = "assisted"
)

func ParseAutomationMode(s string) (AutomationMode, error) {
	switch AutomationMode(s) {
	case ModeManual, ModeAuto, ModeAssisted:
		return AutomationMode(s), nil
	default:
		return "", fmt.Errorf("unknown automation mode: %q", s)
	}
}

// AutomationRecord is the per-conversation automation setting. Last write
// wins; records are never versioned.
type AutomationRecord struct {
	ConversationID string         `json:"conversation_id"`
	Mode           AutomationMode `json:"mode"`
	AgentID        string         `json:"agent_id,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
