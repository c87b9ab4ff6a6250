package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"tripdesk/internal/constants"
	"tripdesk/internal/errors"
	"tripdesk/internal/models"
	"tripdesk/internal/security"
)

var (
	ErrMissingAIURL       = errors.NewConfigError("ai.base_url", "missing AI generator base URL")
	ErrInvalidDefaultMode = errors.NewConfigError("automation.default_mode", "invalid automation default mode")
)

// LoadConfig reads, validates and defaults the application configuration.
// Secrets (bot token, API keys, encryption secret) are never read from the
// file; applyEnvironmentOverrides pulls them from the environment.
func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	return &config, nil
}

func validate(c *models.Config) error {
	if c.AI.BaseURL == "" {
		return ErrMissingAIURL
	}

	if c.Automation.DefaultMode == "" {
		c.Automation.DefaultMode = models.ModeAuto
	} else if _, err := models.ParseAutomationMode(string(c.Automation.DefaultMode)); err != nil {
		return ErrInvalidDefaultMode
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}

	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = constants.DefaultTelegramAPIBaseURL
	}
	if c.Telegram.TimeoutSec <= 0 {
		c.Telegram.TimeoutSec = constants.DefaultAdapterTimeoutSec
	}

	if c.Wazzup.APIBaseURL == "" {
		c.Wazzup.APIBaseURL = constants.DefaultWazzupAPIBaseURL
	}
	if c.Wazzup.TimeoutSec <= 0 {
		c.Wazzup.TimeoutSec = constants.DefaultAdapterTimeoutSec
	}
	if c.Wazzup.ChannelCacheSec <= 0 {
		c.Wazzup.ChannelCacheSec = constants.DefaultWazzupChannelCacheSec
	}

	if c.AI.DefaultAgentID == "" {
		c.AI.DefaultAgentID = constants.DefaultAgentID
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = constants.DefaultGeneratorTimeoutSec
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultBackoffInitialMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultBackoffMaxMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultStoreRetryAttempts
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Wazzup.APIKey = os.Getenv("WAZZUP_API_KEY")
	c.AI.APIKey = os.Getenv("AI_API_KEY")

	if url := os.Getenv("TRIPDESK_AI_BASE_URL"); url != "" {
		c.AI.BaseURL = url
	}
	if path := os.Getenv("TRIPDESK_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if port := os.Getenv("TRIPDESK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("TRIPDESK_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}
