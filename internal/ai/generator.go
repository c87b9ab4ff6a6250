package ai

import (
	"context"

	"tripdesk/internal/models"
)

// HistoryEntry is one turn of the conversation window handed to the
// generator. Direction tells the generator which side spoke.
type HistoryEntry struct {
	Direction models.Direction `json:"direction"`
	Content   string           `json:"content"`
}

// GenerateContext is the non-history context bundle the generator receives.
type GenerateContext struct {
	Channel      string `json:"channel"`
	CustomerName string `json:"customer_name"`
}

// GenerateRequest asks an AI persona for a reply to a conversation window.
type GenerateRequest struct {
	AgentID string          `json:"agent_id"`
	History []HistoryEntry  `json:"history"`
	Context GenerateContext `json:"context"`
}

// GenerateResult is the generator's structured outcome. Success=false with
// an Error string is the normal failure shape; a non-nil Go error is
// reserved for transport problems.
type GenerateResult struct {
	Success    bool   `json:"success"`
	Response   string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
	AgentID    string `json:"agent_id,omitempty"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// Generator produces an automatic reply from conversation history. The hub
// treats it as opaque: history in, text out, success or failure.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}
