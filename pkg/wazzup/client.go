// Package wazzup adapts the hub's canonical send/connect/status contract to
// the Wazzup v3 bridge: a multi-tenant provider where every send must name
// a bridge channel (instance) id in addition to the chat id.
package wazzup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"tripdesk/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

const channelListCacheKey = "channels"

type Client struct {
	baseURL          string
	apiKey           string
	defaultChannelID string
	client           *http.Client
	channelCache     *gocache.Cache
	connected        atomic.Bool
}

func NewClient(cfg models.WazzupConfig) *Client {
	ttl := time.Duration(cfg.ChannelCacheSec) * time.Second
	return &Client{
		baseURL:          cfg.APIBaseURL,
		apiKey:           cfg.APIKey,
		defaultChannelID: cfg.DefaultChannelID,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		channelCache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Client) Channel() models.Channel {
	return models.ChannelWazzup
}

func (c *Client) configured() bool {
	return c.apiKey != ""
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Channels returns the provider-side channel listing, cached with a short
// TTL so routine sends don't hit the listing endpoint.
func (c *Client) Channels(ctx context.Context) ([]BridgeChannel, error) {
	if cached, ok := c.channelCache.Get(channelListCacheKey); ok {
		return cached.([]BridgeChannel), nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/channels", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("channels request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channels request failed with status %d", resp.StatusCode)
	}

	var result channelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode channels response: %w", err)
	}

	c.channelCache.SetDefault(channelListCacheKey, result.Channels)
	return result.Channels, nil
}

// resolveChannelID picks the bridge channel for a send: explicit option
// first, then the configured default, then the first active channel from
// the provider listing.
func (c *Client) resolveChannelID(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if c.defaultChannelID != "" {
		return c.defaultChannelID, nil
	}

	channels, err := c.Channels(ctx)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.State == "active" {
			return ch.ChannelID, nil
		}
	}
	if len(channels) > 0 {
		return channels[0].ChannelID, nil
	}
	return "", fmt.Errorf("no bridge channels available")
}

// Connect verifies the API key by listing bridge channels.
func (c *Client) Connect(ctx context.Context) models.ConnectResult {
	if !c.configured() {
		return models.ConnectResult{Success: false, Error: "wazzup API key not configured"}
	}

	channels, err := c.Channels(ctx)
	if err != nil {
		return models.ConnectResult{Success: false, Error: err.Error()}
	}

	c.connected.Store(true)
	return models.ConnectResult{
		Success: true,
		Details: fmt.Sprintf("%d bridge channels available", len(channels)),
	}
}

// Send delivers one text message through the bridge.
func (c *Client) Send(ctx context.Context, externalChatID, text string, opts models.SendOptions) models.SendResult {
	if !c.configured() {
		return models.SendResult{Success: false, Error: "wazzup API key not configured"}
	}

	channelID, err := c.resolveChannelID(ctx, opts.ProviderChannelID)
	if err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("failed to resolve bridge channel: %v", err)}
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChannelID: channelID,
		ChatType:  "whatsapp",
		ChatID:    externalChatID,
		Text:      text,
	})
	if err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("failed to marshal payload: %v", err)}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/message", payload)
	if err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("failed to create request: %v", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("message request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("failed to decode message response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("message failed with status %d", resp.StatusCode)
		if result.Error != nil {
			errMsg = fmt.Sprintf("%s: %s", errMsg, result.Error.Description)
		}
		return models.SendResult{Success: false, Error: errMsg}
	}

	return models.SendResult{
		Success:           true,
		ExternalMessageID: result.MessageID,
	}
}

// Status is introspection only.
func (c *Client) Status() models.AdapterStatus {
	return models.AdapterStatus{
		Channel:    models.ChannelWazzup,
		Connected:  c.connected.Load(),
		Configured: c.configured(),
	}
}
