package service

// Standard structured log field names. Use these exact names so log lines
// stay queryable across components.
const (
	LogFieldChannel        = "channel"
	LogFieldConversationID = "conversation_id"
	LogFieldMessageID      = "message_id"
	LogFieldExternalChatID = "external_chat_id"
	LogFieldAgentID        = "agent_id"
	LogFieldDirection      = "direction"
	LogFieldMode           = "mode"
	LogFieldOperation      = "operation"
	LogFieldRequestID      = "request_id"
	LogFieldTraceID        = "trace_id"
	LogFieldMethod         = "method"
	LogFieldURL            = "url"
	LogFieldStatusCode     = "status_code"
	LogFieldRemoteIP       = "remote_ip"
	LogFieldUserAgent      = "user_agent"
	LogFieldDuration       = "duration_ms"
)

// SanitizeChatID masks a provider chat id for log output, keeping only the
// trailing digits so threads stay distinguishable without exposing the full
// identifier.
func SanitizeChatID(chatID string) string {
	const visible = 4
	if len(chatID) <= visible {
		return chatID
	}
	return "***" + chatID[len(chatID)-visible:]
}
