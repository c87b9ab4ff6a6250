package wazzup

// BridgeChannel is one provider-side channel/instance of the Wazzup bridge.
// Sends must name a channel id; the listing is what Connect verifies.
type BridgeChannel struct {
	ChannelID string `json:"channelId"`
	Transport string `json:"transport"`
	Plan      string `json:"plan,omitempty"`
	State     string `json:"state"`
	Name      string `json:"name,omitempty"`
}

type channelsResponse struct {
	Channels []BridgeChannel `json:"channels"`
}

type sendMessageRequest struct {
	ChannelID string `json:"channelId"`
	ChatType  string `json:"chatType"`
	ChatID    string `json:"chatId"`
	Text      string `json:"text"`
}

type sendMessageResponse struct {
	MessageID string `json:"messageId"`
	Error     *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}
