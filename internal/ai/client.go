package ai

import (
	"context"
	"fmt"
	"time"

	"tripdesk/internal/errors"
	"tripdesk/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Client calls the external response-generation service over HTTP. The
// service owns prompting, model choice and its own timeouts; this client
// only shuttles the history window and returns the structured result.
type Client struct {
	http   *resty.Client
	logger *logrus.Logger
}

func NewClient(cfg models.AIConfig, logger *logrus.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second)
	if cfg.APIKey != "" {
		http.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http:   http,
		logger: logger,
	}
}

// Generate requests a reply for the given history window. Non-2xx responses
// and transport failures come back as GenerateResult{Success:false} plus an
// error so callers can log the cause without branching on transport details.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var result GenerateResult

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/generate")
	if err != nil {
		// Transport failures are worth retrying on the next inbound message.
		return &GenerateResult{Success: false, Error: err.Error()},
			errors.WrapRetryable(err, errors.ErrCodeGeneration, "generator request failed")
	}

	if resp.IsError() {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode(),
			"agent_id":    req.AgentID,
		}).Warn("Generator returned an error response")
		if result.Error == "" {
			result.Error = fmt.Sprintf("generator returned status %d", resp.StatusCode())
		}
		result.Success = false
		return &result, errors.NewProviderError("generator", "/generate", resp.StatusCode(),
			fmt.Errorf("generator returned status %d", resp.StatusCode()))
	}

	return &result, nil
}
