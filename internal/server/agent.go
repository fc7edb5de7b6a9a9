// internal/server/agent.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/mapdata"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/report"
	"disaster-eye-workers/internal/workflow"

	archiveanalysis "disaster-eye-workers/internal/workers/analysis/archive-analysis"
)

const (
	agentErrorMessage = "Error processing your request. Please try again."
	defaultAgentText  = "Analysis completed"
	unknownLocation   = "Unknown Location"

	// agentErrorZoom is the wider view served with degraded error payloads.
	agentErrorZoom = 10

	archiveTimeout = 30 * time.Second
)

type agentLocation struct {
	Name string   `json:"name,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

type agentRequest struct {
	Input    string         `json:"input"`
	Location *agentLocation `json:"location,omitempty"`
}

type agentResponseLocation struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

type agentResponse struct {
	Status   string                `json:"status"`
	Text     string                `json:"text"`
	Analysis string                `json:"analysis,omitempty"`
	Location agentResponseLocation `json:"location"`
	MapData  models.MapPayload     `json:"map_data"`
}

// handleAgent runs one conversation turn and renders its outcome. Flood
// turns are archived off the request path.
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state := models.TurnState{Input: req.Input}
	if req.Location != nil {
		state.Location = req.Location.Name
		if req.Location.Lat != nil {
			state.Latitude = models.Float64(*req.Location.Lat)
		}
		if req.Location.Lng != nil {
			state.Longitude = models.Float64(*req.Location.Lng)
		}
	}

	s.logger.Info("Agent request received", map[string]interface{}{
		"input":    req.Input,
		"location": state.Location,
	})

	ctx := r.Context()
	start := time.Now()

	result, err := s.workflow.Run(ctx, state)
	if err != nil {
		s.recordTurn(ctx, "error", time.Since(start))
		s.logger.Error("Agent processing failed", map[string]interface{}{
			"input": req.Input,
			"error": err.Error(),
		})
		respondJSON(w, http.StatusInternalServerError, s.agentErrorBody(req, err))
		return
	}
	s.recordTurn(ctx, "success", time.Since(start))

	if s.shouldArchive(result) {
		go s.archiveTurn(result.State)
	}

	respondJSON(w, http.StatusOK, s.buildAgentResponse(result))
}

func (s *Server) buildAgentResponse(result workflow.Result) agentResponse {
	st := result.State

	text := st.ResultSummary
	if result.Clarification != workflow.ClarifyNone {
		text = result.Clarification.Prompt()
	}
	if text == "" {
		text = defaultAgentText
	}

	name := st.Location
	if name == "" {
		name = unknownLocation
	}

	return agentResponse{
		Status:   "success",
		Text:     text,
		Analysis: st.Analysis,
		Location: agentResponseLocation{Name: name, Lat: st.Latitude, Lng: st.Longitude},
		MapData:  s.agentPayload(st),
	}
}

// agentPayload returns the turn's map payload, or a default view centered on
// whatever coordinates the turn resolved.
func (s *Server) agentPayload(st models.TurnState) models.MapPayload {
	if st.MapPayload != nil {
		payload := *st.MapPayload
		if s.config.Server.ValidatePayloads && payload.Error == "" {
			if err := mapdata.Validate(payload); err != nil {
				s.logger.Error("Map payload failed validation", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
		return payload
	}

	center := models.Coordinates{Lat: s.config.Defaults.Lat, Lng: s.config.Defaults.Lng}
	if st.HasCoordinates() {
		center = models.Coordinates{Lat: *st.Latitude, Lng: *st.Longitude}
	}
	return mapdata.DefaultMap(center)
}

// agentErrorBody is the degraded 500 response. Provider outages still carry
// usable text through the keyword fallback.
func (s *Server) agentErrorBody(req agentRequest, err error) map[string]interface{} {
	center := models.Coordinates{Lat: s.config.Defaults.Lat, Lng: s.config.Defaults.Lng}
	if req.Location != nil && req.Location.Lat != nil && req.Location.Lng != nil {
		center = models.Coordinates{Lat: *req.Location.Lat, Lng: *req.Location.Lng}
	}

	body := map[string]interface{}{
		"status":  "error",
		"message": agentErrorMessage,
		"map_data": models.MapPayload{
			Center: center,
			Zoom:   agentErrorZoom,
		},
	}

	if errors.Is(err, llm.ErrUnavailable) || errors.Is(err, llm.ErrQuotaExceeded) || errors.Is(err, llm.ErrEmptyResponse) {
		intent := llm.ExtractAnalysisIntent(req.Input)
		body["text"] = llm.FallbackResponse(intent)
	}
	return body
}

// shouldArchive reports whether the turn produced a flood analysis worth
// persisting.
func (s *Server) shouldArchive(result workflow.Result) bool {
	st := result.State
	return s.archiver != nil &&
		result.Clarification == workflow.ClarifyNone &&
		st.HasCoordinates() &&
		st.MapPayload != nil &&
		st.MapPayload.Analysis == mapdata.AnalysisFloodVulnerability &&
		st.MapPayload.Error == ""
}

// archiveTurn persists one finished assessment. The HTTP response never
// waits on storage; failures are logged and dropped.
func (s *Server) archiveTurn(st models.TurnState) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	risk, depth := report.ParseAssessment(st.ResultSummary)
	input := &archiveanalysis.Input{
		Location:  st.Location,
		Lat:       *st.Latitude,
		Lon:       *st.Longitude,
		RiskLevel: string(risk),
		Summary:   st.ResultSummary,
		Analysis:  st.Analysis,
	}
	if depth != nil {
		input.DepthIndex = *depth
	}

	if _, err := s.archiver.Execute(ctx, input); err != nil {
		s.logger.Warn("Background archive failed", map[string]interface{}{
			"location": st.Location,
			"error":    err.Error(),
		})
	}
}
