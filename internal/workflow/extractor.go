// internal/workflow/extractor.go
package workflow

import (
	"context"
	"fmt"
	"strings"

	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/logger"
)

const geoPromptTemplate = `Extract:
- Location: the place/city/region
- Analysis: flood vulnerability, site suitability, etc.

If location is missing, reply with 'ASK_LOCATION'.
If analysis is missing, reply with 'ASK_ANALYSIS'.
If both present, reply with 'OK'.

User: %s`

const (
	askLocationSentinel = "ASK_LOCATION"
	askAnalysisSentinel = "ASK_ANALYSIS"
)

// LLMExtractor pulls a location and analysis type out of utterances with a
// completion provider.
type LLMExtractor struct {
	provider llm.Provider
	logger   logger.Logger
}

// NewLLMExtractor creates a query extractor backed by the given provider.
func NewLLMExtractor(provider llm.Provider, log logger.Logger) *LLMExtractor {
	return &LLMExtractor{
		provider: provider,
		logger:   log.With(map[string]interface{}{"component": "query-extractor"}),
	}
}

// Extract asks the model for the location and analysis fields. Provider
// failures propagate.
func (e *LLMExtractor) Extract(ctx context.Context, input string) (Extraction, error) {
	reply, err := e.provider.Complete(ctx, llm.Request{
		Prompt: fmt.Sprintf(geoPromptTemplate, input),
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("extraction completion: %w", err)
	}

	ext := ParseExtraction(reply)
	e.logger.Debug("Extracted query fields", map[string]interface{}{
		"location": ext.Location,
		"analysis": ext.Analysis,
		"ask":      string(ext.Ask),
	})
	return ext, nil
}

// ParseExtraction applies permissive line scanning to a model reply. A
// sentinel anywhere in the reply wins over any labeled lines, so a verbose
// model answer that embeds ASK_LOCATION still yields a clarification.
func ParseExtraction(reply string) Extraction {
	if strings.Contains(reply, askLocationSentinel) {
		return Extraction{Ask: ClarifyLocation}
	}
	if strings.Contains(reply, askAnalysisSentinel) {
		return Extraction{Ask: ClarifyAnalysis}
	}

	var ext Extraction
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "location:"):
			ext.Location = strings.TrimSpace(line[len("location:"):])
		case strings.HasPrefix(lower, "analysis:"):
			ext.Analysis = strings.TrimSpace(line[len("analysis:"):])
		case ext.Location == "" && line != "" &&
			!strings.Contains(lower, "analysis:") && !strings.Contains(lower, "reply:"):
			// A bare line is taken as the location when none was labeled.
			ext.Location = line
		}
	}
	return ext
}
