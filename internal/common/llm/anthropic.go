// internal/common/llm/anthropic.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"disaster-eye-workers/internal/common/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig holds settings for the Anthropic Messages API.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// AnthropicClient is the alternate completion backend.
type AnthropicClient struct {
	client anthropic.Client
	config AnthropicConfig
	logger logger.Logger
}

func NewAnthropicClient(cfg AnthropicConfig, log logger.Logger) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicClient{
		client: client,
		config: cfg,
		logger: log.With(map[string]interface{}{
			"provider": "anthropic",
			"model":    cfg.Model,
		}),
	}
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Complete sends the request and returns the concatenated text blocks, trimmed.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", c.mapError(err)
	}

	var parts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

func (c *AnthropicClient) mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
