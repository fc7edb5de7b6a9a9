// Package llm provides chat completion providers for the conversational agent.
package llm

import (
	"context"
	"errors"
)

var (
	ErrUnavailable   = errors.New("LLM_UNAVAILABLE")
	ErrQuotaExceeded = errors.New("LLM_QUOTA_EXCEEDED")
	ErrEmptyResponse = errors.New("LLM_RESPONSE_EMPTY")
)

// Request is a single-turn completion call.
type Request struct {
	System string
	Prompt string
}

// Provider produces a completion for one request. Implementations must be
// safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}
