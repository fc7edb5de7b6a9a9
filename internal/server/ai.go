// internal/server/ai.go
package server

import (
	"context"
	"time"

	"disaster-eye-workers/internal/common/llm"
)

const aiSystemPrompt = "You are a helpful assistant that provides geospatial analysis and disaster management insights. Be concise and focus on the key information."

const (
	aiConfidence       = 0.9
	fallbackConfidence = 0.7
)

// aiAnalysis is the AI section of query responses. Intent always comes from
// the keyword classifier; the response text and confidence depend on whether
// the completion provider answered.
type aiAnalysis struct {
	Intent           string   `json:"intent"`
	AIResponse       string   `json:"ai_response"`
	Confidence       float64  `json:"confidence"`
	SuggestedActions []string `json:"suggested_actions"`
}

// analyzeQuery answers a free-text query. Provider failures degrade to the
// canned keyword response instead of surfacing an error.
func (s *Server) analyzeQuery(ctx context.Context, query string) aiAnalysis {
	intent := llm.ExtractAnalysisIntent(query)
	analysis := aiAnalysis{
		Intent:           string(intent),
		SuggestedActions: llm.SuggestedActions(intent),
	}

	if s.provider != nil {
		start := time.Now()
		text, err := s.provider.Complete(ctx, llm.Request{System: aiSystemPrompt, Prompt: query})
		if err == nil && text != "" {
			s.recordProviderCall(ctx, "success", time.Since(start))
			analysis.AIResponse = text
			analysis.Confidence = aiConfidence
			return analysis
		}
		s.recordProviderCall(ctx, "error", time.Since(start))
		if err != nil {
			s.logger.Warn("Provider unavailable for query analysis, using fallback", map[string]interface{}{
				"provider": s.provider.Name(),
				"error":    err.Error(),
			})
		}
	}

	analysis.AIResponse = llm.FallbackResponse(intent)
	analysis.Confidence = fallbackConfidence
	return analysis
}

func (s *Server) recordProviderCall(ctx context.Context, status string, duration time.Duration) {
	if s.obs == nil || s.provider == nil {
		return
	}
	s.obs.RecordProviderCall(ctx, s.provider.Name(), status, duration)
}

func (s *Server) recordTurn(ctx context.Context, status string, duration time.Duration) {
	if s.obs == nil {
		return
	}
	s.obs.RecordTurnProcessed(ctx, status)
	s.obs.RecordTurnDuration(ctx, duration, status)
}

func (s *Server) recordPlatformRequest(ctx context.Context, operation string, err error) {
	if s.obs == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.obs.RecordPlatformRequest(ctx, operation, status)
}
