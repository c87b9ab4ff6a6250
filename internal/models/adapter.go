package models

// Structured results returned across the adapter boundary. Adapters never
// raise provider failures to the caller; they fill the Error field instead.

// ConnectResult reports the outcome of a credential/reachability check.
type ConnectResult struct {
	Success bool   `json:"success"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendResult reports the outcome of a single outbound delivery.
type SendResult struct {
	Success           bool   `json:"success"`
	ExternalMessageID string `json:"external_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// SendOptions carries formatting and routing hints that are meaningful to
// some providers and ignored by the rest.
type SendOptions struct {
	// ParseMode selects provider-side text formatting (Telegram).
	ParseMode string
	// ProviderChannelID routes through a specific bridge instance (Wazzup).
	ProviderChannelID string
	// Sender attribution for the persisted outbound record.
	SenderType SenderType
	SenderID   string
	SenderName string
	// AIGenerated marks replies produced by the generator.
	AIGenerated bool
}

// AdapterStatus is introspection only; computing it has no side effects.
type AdapterStatus struct {
	Channel    Channel `json:"channel"`
	Connected  bool    `json:"connected"`
	Configured bool    `json:"configured"`
	Details    string  `json:"details,omitempty"`
}
