// internal/common/llm/groq.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"disaster-eye-workers/internal/common/logger"
)

const groqChatCompletionsPath = "/openai/v1/chat/completions"

// GroqConfig holds settings for the Groq chat completions API.
type GroqConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

// GroqClient calls Groq's OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	config GroqConfig
	client *http.Client
	logger logger.Logger
}

func NewGroqClient(cfg GroqConfig, log logger.Logger) *GroqClient {
	return &GroqClient{
		config: cfg,
		client: &http.Client{
			// No client timeout, rely on context deadlines
		},
		logger: log.With(map[string]interface{}{
			"provider": "groq",
			"model":    cfg.Model,
		}),
	}
}

func (c *GroqClient) Name() string {
	return "groq"
}

type groqChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model       string            `json:"model"`
	Messages    []groqChatMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type groqChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the request and returns the assistant text, trimmed.
func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]groqChatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, groqChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, groqChatMessage{Role: "user", Content: req.Prompt})

	body, _ := json.Marshal(groqChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})

	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Apply exponential backoff
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
		}

		text, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if !retryable {
			return "", err
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
	}

	return "", lastErr
}

// doRequest performs one HTTP attempt. The second return reports whether
// the failure is worth retrying.
func (c *GroqClient) doRequest(ctx context.Context, body []byte) (string, bool, error) {
	url := strings.TrimSuffix(c.config.BaseURL, "/") + groqChatCompletionsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, fmt.Errorf("%w: status %d", ErrQuotaExceeded, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", false, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(detail))
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", true, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", false, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(detail))
	}

	var chatResp groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", false, fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}

	if len(chatResp.Choices) == 0 {
		return "", false, ErrEmptyResponse
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", false, ErrEmptyResponse
	}

	return text, false, nil
}
