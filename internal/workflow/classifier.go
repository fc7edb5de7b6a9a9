// internal/workflow/classifier.go
package workflow

import (
	"context"
	"fmt"
	"strings"

	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/models"
)

const intentPromptTemplate = `Classify this input:
If the user is chatting normally, output 'normal'.
If they want a geospatial query (maps, location, analysis), output 'query'.

Input: %s`

// LLMClassifier labels utterances with a completion provider.
type LLMClassifier struct {
	provider llm.Provider
	logger   logger.Logger
}

// NewLLMClassifier creates an intent classifier backed by the given provider.
func NewLLMClassifier(provider llm.Provider, log logger.Logger) *LLMClassifier {
	return &LLMClassifier{
		provider: provider,
		logger:   log.With(map[string]interface{}{"component": "intent-classifier"}),
	}
}

// Classify asks the model for an intent label. Provider failures propagate;
// there is no retry at this level.
func (c *LLMClassifier) Classify(ctx context.Context, input string) (models.Intent, error) {
	reply, err := c.provider.Complete(ctx, llm.Request{
		Prompt: fmt.Sprintf(intentPromptTemplate, input),
	})
	if err != nil {
		return models.IntentUnknown, fmt.Errorf("intent completion: %w", err)
	}

	intent := ParseIntent(reply)
	c.logger.Debug("Classified intent", map[string]interface{}{
		"reply":  reply,
		"intent": string(intent),
	})
	return intent, nil
}

// ParseIntent normalizes a model reply to an intent. Anything that is not
// exactly "normal" or "query" after trimming and lowercasing is unknown,
// and callers route unknown the same way as query.
func ParseIntent(reply string) models.Intent {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "normal":
		return models.IntentNormal
	case "query":
		return models.IntentQuery
	default:
		return models.IntentUnknown
	}
}
