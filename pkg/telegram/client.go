// Package telegram adapts the hub's canonical send/connect/status contract
// to the Telegram Bot API: a bot-token provider with a single fixed
// endpoint, messages addressed by chat id.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"tripdesk/internal/models"
)

type Client struct {
	baseURL   string
	token     string
	parseMode string
	client    *http.Client
	connected atomic.Bool
}

func NewClient(cfg models.TelegramConfig) *Client {
	return &Client{
		baseURL:   cfg.APIBaseURL,
		token:     cfg.BotToken,
		parseMode: cfg.ParseMode,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

func (c *Client) Channel() models.Channel {
	return models.ChannelTelegram
}

func (c *Client) configured() bool {
	return c.token != ""
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// Connect verifies the bot token against getMe. Failures are reported in
// the result, never raised.
func (c *Client) Connect(ctx context.Context) models.ConnectResult {
	if !c.configured() {
		return models.ConnectResult{Success: false, Error: "telegram bot token not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getMe"), nil)
	if err != nil {
		return models.ConnectResult{Success: false, Error: fmt.Sprintf("failed to create request: %v", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.ConnectResult{Success: false, Error: fmt.Sprintf("getMe request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var result getMeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.ConnectResult{Success: false, Error: fmt.Sprintf("failed to decode getMe response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK || !result.OK {
		return models.ConnectResult{
			Success: false,
			Error:   fmt.Sprintf("getMe failed with status %d: %s", resp.StatusCode, result.Description),
		}
	}

	c.connected.Store(true)
	return models.ConnectResult{
		Success: true,
		Details: fmt.Sprintf("connected as @%s", result.Result.Username),
	}
}

// Send delivers one text message to a chat id. Provider rejections come
// back as SendResult{Success:false}.
func (c *Client) Send(ctx context.Context, externalChatID, text string, opts models.SendOptions) models.SendResult {
	if !c.configured() {
		return models.SendResult{Success: false, Error: "telegram bot token not configured"}
	}

	parseMode := opts.ParseMode
	if parseMode == "" {
		parseMode = c.parseMode
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    externalChatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("failed to marshal payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(payload))
	if err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("sendMessage request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.SendResult{Success: false, Error: fmt.Sprintf("failed to decode sendMessage response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK || !result.OK {
		return models.SendResult{
			Success: false,
			Error:   fmt.Sprintf("sendMessage failed with status %d: %s", resp.StatusCode, result.Description),
		}
	}

	return models.SendResult{
		Success:           true,
		ExternalMessageID: strconv.FormatInt(result.Result.MessageID, 10),
	}
}

// Status is introspection only.
func (c *Client) Status() models.AdapterStatus {
	return models.AdapterStatus{
		Channel:    models.ChannelTelegram,
		Connected:  c.connected.Load(),
		Configured: c.configured(),
	}
}
