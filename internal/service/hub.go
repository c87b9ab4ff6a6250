package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"tripdesk/internal/ai"
	"tripdesk/internal/constants"
	"tripdesk/internal/errors"
	"tripdesk/internal/models"
	"tripdesk/internal/store"

	"github.com/sirupsen/logrus"
)

// HubStatus is the hub's introspection snapshot.
type HubStatus struct {
	Initialized          bool                                    `json:"initialized"`
	Connectors           map[models.Channel]models.AdapterStatus `json:"connectors"`
	AutomationRulesCount int                                     `json:"automation_rules_count"`
}

// ChannelStats aggregates per-channel store and adapter state.
type ChannelStats struct {
	TotalConversations int                  `json:"total_conversations"`
	UnreadMessages     int                  `json:"unread_messages"`
	Status             models.AdapterStatus `json:"status"`
}

// HandleOptions controls one inbound handling cycle. AutoReply is the
// caller's opt-in: the hub never forces automation on its own.
type HandleOptions struct {
	AutoReply bool
}

// HandleResult is the outcome of one inbound handling cycle. A failed
// auto-reply downgrades the result (Error set, AutoResponded false); the
// inbound message stays persisted either way.
type HandleResult struct {
	Success        bool                 `json:"success"`
	Conversation   *models.Conversation `json:"conversation,omitempty"`
	Message        *models.Message      `json:"message,omitempty"`
	Reply          *models.Message      `json:"reply,omitempty"`
	AutoResponded  bool                 `json:"auto_responded"`
	SuggestedReply string               `json:"suggested_reply,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// SendOutcome is the result of an operator-initiated send. On adapter
// failure no message record is created.
type SendOutcome struct {
	Success           bool            `json:"success"`
	Message           *models.Message `json:"message,omitempty"`
	ExternalMessageID string          `json:"external_message_id,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// Hub is the messaging hub's public contract, consumed by the route layer.
type Hub interface {
	Initialize(ctx context.Context) map[models.Channel]models.ConnectResult
	Status(ctx context.Context) *HubStatus
	HandleIncoming(ctx context.Context, channel models.Channel, raw json.RawMessage, opts HandleOptions) (*HandleResult, error)
	Send(ctx context.Context, channel models.Channel, externalChatID, text string, opts models.SendOptions) *SendOutcome
	Conversations(ctx context.Context, channel models.Channel, limit int) ([]*models.Conversation, error)
	Messages(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
	UnreadCount(ctx context.Context, channel models.Channel) (int, error)
	MarkConversationRead(ctx context.Context, conversationID string) (int64, error)
	CloseConversation(ctx context.Context, conversationID string) error
	ChannelStats(ctx context.Context) (map[models.Channel]*ChannelStats, error)
	SetMode(ctx context.Context, conversationID string, mode models.AutomationMode, agentID string) (*models.AutomationRecord, error)
	GetMode(ctx context.Context, conversationID string) (*models.AutomationRecord, error)
}

// MessagingHub orchestrates store, adapters, policy and generator. It holds
// no conversation state of its own; every invocation is independent, so the
// hub is safe under concurrent webhook deliveries and operator sends.
type MessagingHub struct {
	store       store.ConversationStore
	registry    *ChannelRegistry
	policy      AutomationPolicy
	generator   ai.Generator
	automation  models.AutomationConfig
	agentID     string
	logger      *logrus.Logger
	initialized atomic.Bool
}

func NewMessagingHub(
	convStore store.ConversationStore,
	registry *ChannelRegistry,
	policy AutomationPolicy,
	generator ai.Generator,
	automation models.AutomationConfig,
	defaultAgentID string,
	logger *logrus.Logger,
) *MessagingHub {
	return &MessagingHub{
		store:      convStore,
		registry:   registry,
		policy:     policy,
		generator:  generator,
		automation: automation,
		agentID:    defaultAgentID,
		logger:     logger,
	}
}

// Initialize attempts to connect every registered adapter. Per-channel
// failure is reported in the result map, not fatal to the call.
func (h *MessagingHub) Initialize(ctx context.Context) map[models.Channel]models.ConnectResult {
	results := make(map[models.Channel]models.ConnectResult)
	for _, channel := range h.registry.Channels() {
		adapter, err := h.registry.Get(channel)
		if err != nil {
			results[channel] = models.ConnectResult{Success: false, Error: err.Error()}
			continue
		}
		result := adapter.Connect(ctx)
		if result.Success {
			h.logger.WithField(LogFieldChannel, channel).Info("Channel adapter connected")
		} else {
			h.logger.WithFields(logrus.Fields{
				LogFieldChannel: channel,
				"error":         result.Error,
			}).Warn("Channel adapter failed to connect")
		}
		results[channel] = result
	}
	h.initialized.Store(true)
	return results
}

func (h *MessagingHub) Status(ctx context.Context) *HubStatus {
	connectors := make(map[models.Channel]models.AdapterStatus)
	for _, channel := range h.registry.Channels() {
		if adapter, err := h.registry.Get(channel); err == nil {
			connectors[channel] = adapter.Status()
		}
	}
	return &HubStatus{
		Initialized:          h.initialized.Load(),
		Connectors:           connectors,
		AutomationRulesCount: h.policy.Count(),
	}
}

// findOrCreateConversation resolves the unique (channel, external chat id)
// thread, creating it on first contact. Races between concurrent webhooks
// for a brand-new thread are settled by re-reading after a failed insert.
func (h *MessagingHub) findOrCreateConversation(ctx context.Context, channel models.Channel, inbound *models.CanonicalInbound) (*models.Conversation, error) {
	conv, err := h.store.FindConversation(ctx, channel, inbound.ExternalChatID)
	if err != nil {
		return nil, errors.NewStoreError("find conversation", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv, err = h.store.CreateConversation(ctx, &models.Conversation{
		Channel:        channel,
		ExternalChatID: inbound.ExternalChatID,
		CustomerName:   inbound.SenderName,
		CustomerPhone:  inbound.SenderPhone,
		Metadata:       inbound.Metadata,
	})
	if err != nil {
		// The unique index may have been hit by a concurrent delivery.
		existing, findErr := h.store.FindConversation(ctx, channel, inbound.ExternalChatID)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, errors.NewStoreError("create conversation", err)
	}

	h.logger.WithFields(logrus.Fields{
		LogFieldChannel:        channel,
		LogFieldConversationID: conv.ID,
		LogFieldExternalChatID: SanitizeChatID(conv.ExternalChatID),
	}).Info("Conversation created")
	return conv, nil
}

// HandleIncoming runs one inbound cycle:
// Received → Normalized → Persisted → PolicyChecked → (AutoReplied |
// AwaitingAgent) → Done. The only hard failure is unnormalizable input;
// everything after persistence downgrades the result instead of erroring.
func (h *MessagingHub) HandleIncoming(ctx context.Context, channel models.Channel, raw json.RawMessage, opts HandleOptions) (*HandleResult, error) {
	inbound, err := Normalize(channel, raw)
	if err != nil {
		return nil, errors.NewNormalizationError(string(channel), err)
	}
	if inbound == nil {
		// Non-message events (delivery statuses, echoes) are acknowledged
		// so the provider does not re-deliver them.
		return &HandleResult{Success: true}, nil
	}

	conv, err := h.findOrCreateConversation(ctx, channel, inbound)
	if err != nil {
		return nil, err
	}

	msg, err := h.store.CreateMessage(ctx, &models.Message{
		ConversationID:    conv.ID,
		Channel:           channel,
		ExternalMessageID: inbound.ExternalMessageID,
		Direction:         models.DirectionIn,
		SenderType:        models.SenderCustomer,
		SenderID:          inbound.SenderID,
		SenderName:        inbound.SenderName,
		MessageType:       inbound.MessageType,
		Content:           inbound.Content,
		MediaURL:          inbound.MediaURL,
		MediaType:         inbound.MediaType,
		Metadata:          inbound.Metadata,
	})
	if err != nil {
		return nil, errors.NewStoreError("create message", err)
	}
	conv.LastMessageAt = msg.CreatedAt

	h.logger.WithFields(logrus.Fields{
		LogFieldChannel:        channel,
		LogFieldConversationID: conv.ID,
		LogFieldMessageID:      msg.ID,
		LogFieldDirection:      models.DirectionIn,
	}).Info("Inbound message persisted")

	result := &HandleResult{
		Success:      true,
		Conversation: conv,
		Message:      msg,
	}

	if !opts.AutoReply {
		return result, nil
	}

	mode, agentID := h.effectiveMode(ctx, conv.ID)
	switch {
	case mode == models.ModeManual:
		return result, nil
	case !eligibleForAutoReply(inbound):
		return result, nil
	}

	generated, genErr := h.generator.Generate(ctx, ai.GenerateRequest{
		AgentID: agentID,
		History: []ai.HistoryEntry{{Direction: models.DirectionIn, Content: inbound.Content}},
		Context: ai.GenerateContext{
			Channel:      string(channel),
			CustomerName: conv.CustomerName,
		},
	})
	if genErr != nil || generated == nil || !generated.Success {
		cause := genErr
		if cause == nil {
			msg := "generator reported failure"
			if generated != nil && generated.Error != "" {
				msg = generated.Error
			}
			cause = fmt.Errorf("%s", msg)
		}
		failure := errors.NewGenerationError(agentID, cause)
		h.logger.WithFields(logrus.Fields{
			LogFieldConversationID: conv.ID,
			LogFieldAgentID:        agentID,
			"error":                cause.Error(),
			"retryable":            errors.IsRetryable(genErr),
		}).Warn("Auto-reply generation failed, awaiting agent")
		result.Error = failure.Error()
		return result, nil
	}

	if mode == models.ModeAssisted {
		result.SuggestedReply = generated.Response
		return result, nil
	}

	outcome := h.Send(ctx, channel, inbound.ExternalChatID, generated.Response, models.SendOptions{
		SenderType:  models.SenderAgent,
		SenderID:    agentID,
		SenderName:  generated.AgentID,
		AIGenerated: true,
	})
	if !outcome.Success {
		result.Error = outcome.Error
		return result, nil
	}

	result.Reply = outcome.Message
	result.AutoResponded = true
	return result, nil
}

// effectiveMode resolves the automation mode for a conversation: explicit
// record first, config default for threads never toggled. The default agent
// fills in when the record names none.
func (h *MessagingHub) effectiveMode(ctx context.Context, conversationID string) (models.AutomationMode, string) {
	record, err := h.policy.GetMode(ctx, conversationID)
	if err != nil || record == nil {
		return h.automation.DefaultMode, h.agentID
	}

	// A zero UpdatedAt marks the implicit default record, meaning no one
	// ever set a mode for this thread.
	if record.UpdatedAt.IsZero() {
		return h.automation.DefaultMode, h.agentID
	}

	agentID := record.AgentID
	if agentID == "" {
		agentID = h.agentID
	}
	return record.Mode, agentID
}

// eligibleForAutoReply excludes bot commands and non-text content from
// automatic replies.
func eligibleForAutoReply(inbound *models.CanonicalInbound) bool {
	content := strings.TrimSpace(inbound.Content)
	if content == "" {
		return false
	}
	if strings.HasPrefix(content, constants.CommandMarker) {
		return false
	}
	return inbound.MessageType == models.MessageText
}

// Send dispatches one outbound text through the channel's adapter and, on
// success, find-or-creates the conversation (first-contact outbound) and
// appends the outbound record. Adapter failure is returned verbatim with no
// state change and no retry.
func (h *MessagingHub) Send(ctx context.Context, channel models.Channel, externalChatID, text string, opts models.SendOptions) *SendOutcome {
	adapter, err := h.registry.Get(channel)
	if err != nil {
		return &SendOutcome{Success: false, Error: err.Error()}
	}

	sendResult := adapter.Send(ctx, externalChatID, text, opts)
	if !sendResult.Success {
		h.logger.WithFields(logrus.Fields{
			LogFieldChannel:        channel,
			LogFieldExternalChatID: SanitizeChatID(externalChatID),
			"error":                sendResult.Error,
		}).Warn("Outbound send failed")
		return &SendOutcome{Success: false, Error: sendResult.Error}
	}

	conv, err := h.store.FindConversation(ctx, channel, externalChatID)
	if err == nil && conv == nil {
		conv, err = h.store.CreateConversation(ctx, &models.Conversation{
			Channel:        channel,
			ExternalChatID: externalChatID,
			CustomerName:   externalChatID,
		})
		if err != nil {
			// A concurrent webhook may have claimed the unique index first.
			if existing, findErr := h.store.FindConversation(ctx, channel, externalChatID); findErr == nil && existing != nil {
				conv, err = existing, nil
			}
		}
	}
	if err != nil {
		// The provider accepted the message; report delivery but flag the
		// bookkeeping failure.
		h.logger.WithFields(logrus.Fields{
			LogFieldChannel: channel,
			"error":         err,
		}).Error("Failed to resolve conversation for outbound message")
		return &SendOutcome{
			Success:           true,
			ExternalMessageID: sendResult.ExternalMessageID,
			Error:             fmt.Sprintf("sent, but conversation bookkeeping failed: %v", err),
		}
	}

	senderType := opts.SenderType
	if senderType == "" {
		senderType = models.SenderAgent
	}
	var metadata map[string]string
	if opts.AIGenerated {
		metadata = map[string]string{"ai_generated": "true"}
	}

	msg, err := h.store.CreateMessage(ctx, &models.Message{
		ConversationID:    conv.ID,
		Channel:           channel,
		ExternalMessageID: sendResult.ExternalMessageID,
		Direction:         models.DirectionOut,
		SenderType:        senderType,
		SenderID:          opts.SenderID,
		SenderName:        opts.SenderName,
		MessageType:       models.MessageText,
		Content:           text,
		Status:            models.MessageSent,
		Metadata:          metadata,
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			LogFieldConversationID: conv.ID,
			"error":                err,
		}).Error("Failed to persist outbound message")
		return &SendOutcome{
			Success:           true,
			ExternalMessageID: sendResult.ExternalMessageID,
			Error:             fmt.Sprintf("sent, but message persistence failed: %v", err),
		}
	}

	h.logger.WithFields(logrus.Fields{
		LogFieldChannel:        channel,
		LogFieldConversationID: conv.ID,
		LogFieldMessageID:      msg.ID,
		LogFieldDirection:      models.DirectionOut,
	}).Info("Outbound message sent")

	return &SendOutcome{
		Success:           true,
		Message:           msg,
		ExternalMessageID: sendResult.ExternalMessageID,
	}
}

func (h *MessagingHub) Conversations(ctx context.Context, channel models.Channel, limit int) ([]*models.Conversation, error) {
	return h.store.ListConversations(ctx, channel, store.ClampLimit(limit))
}

func (h *MessagingHub) Messages(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	if err := h.requireConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return h.store.ListMessages(ctx, conversationID, store.ClampLimit(limit))
}

func (h *MessagingHub) UnreadCount(ctx context.Context, channel models.Channel) (int, error) {
	return h.store.UnreadCount(ctx, channel)
}

func (h *MessagingHub) MarkConversationRead(ctx context.Context, conversationID string) (int64, error) {
	if err := h.requireConversation(ctx, conversationID); err != nil {
		return 0, err
	}
	return h.store.MarkConversationRead(ctx, conversationID)
}

func (h *MessagingHub) CloseConversation(ctx context.Context, conversationID string) error {
	if err := h.requireConversation(ctx, conversationID); err != nil {
		return err
	}
	return h.store.CloseConversation(ctx, conversationID)
}

// requireConversation rejects operations on unknown conversation ids so the
// route layer can answer 404 instead of silently succeeding on nothing.
func (h *MessagingHub) requireConversation(ctx context.Context, conversationID string) error {
	conv, err := h.store.GetConversation(ctx, conversationID)
	if err != nil {
		return errors.NewStoreError("get conversation", err)
	}
	if conv == nil {
		return errors.NewNotFoundError("conversation", conversationID)
	}
	return nil
}

func (h *MessagingHub) ChannelStats(ctx context.Context) (map[models.Channel]*ChannelStats, error) {
	stats := make(map[models.Channel]*ChannelStats)
	for _, channel := range h.registry.Channels() {
		adapter, err := h.registry.Get(channel)
		if err != nil {
			continue
		}
		total, err := h.store.CountConversations(ctx, channel)
		if err != nil {
			return nil, errors.NewStoreError("count conversations", err)
		}
		unread, err := h.store.UnreadCount(ctx, channel)
		if err != nil {
			return nil, errors.NewStoreError("count unread", err)
		}
		stats[channel] = &ChannelStats{
			TotalConversations: total,
			UnreadMessages:     unread,
			Status:             adapter.Status(),
		}
	}
	return stats, nil
}

func (h *MessagingHub) SetMode(ctx context.Context, conversationID string, mode models.AutomationMode, agentID string) (*models.AutomationRecord, error) {
	return h.policy.SetMode(ctx, conversationID, mode, agentID)
}

func (h *MessagingHub) GetMode(ctx context.Context, conversationID string) (*models.AutomationRecord, error) {
	return h.policy.GetMode(ctx, conversationID)
}
