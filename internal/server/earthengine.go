// internal/server/earthengine.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/mapdata"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/report"

	scorevulnerability "disaster-eye-workers/internal/workers/analysis/score-vulnerability"
)

const (
	// comprehensiveQuery drives the AI section of analyze-location requests.
	comprehensiveQuery = "Comprehensive disaster vulnerability analysis"

	errPlatformNotInitialized = "Earth Engine not initialized"

	mapLayersZoom = 10
)

type queryRequest struct {
	Query       string              `json:"query"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
}

type queryResponse struct {
	Timestamp   string             `json:"timestamp"`
	Status      string             `json:"status"`
	AIAnalysis  aiAnalysis         `json:"ai_analysis"`
	Coordinates models.Coordinates `json:"coordinates"`
}

type locationAnalysisRequest struct {
	Coordinates models.Coordinates `json:"coordinates"`
	IncludeAI   bool               `json:"include_ai,omitempty"`
}

type locationAnalysisResponse struct {
	Timestamp        string                   `json:"timestamp"`
	Status           string                   `json:"status"`
	Coordinates      models.Coordinates       `json:"coordinates"`
	FloodAnalysis    *models.SARFloodAnalysis `json:"flood_analysis,omitempty"`
	BuildingAnalysis *models.BuildingAnalysis `json:"building_analysis,omitempty"`
	AIAnalysis       *aiAnalysis              `json:"ai_analysis,omitempty"`
	Report           string                   `json:"report"`
}

type regionalAnalysisRequest struct {
	Bounds       models.Bounds `json:"bounds"`
	AnalysisType string        `json:"analysis_type,omitempty"`
}

type regionalAnalysisResponse struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	models.RegionalAnalysis
}

type mapLayersResponse struct {
	Timestamp string                         `json:"timestamp"`
	Status    string                         `json:"status"`
	Center    models.Coordinates             `json:"center"`
	Zoom      int                            `json:"zoom"`
	Layers    map[string]*earthengine.MapRef `json:"layers"`
}

type testMapResponse struct {
	Status string `json:"status"`
	models.MapPayload
	Timestamp string `json:"timestamp"`
}

// handleQuery answers a natural-language query. With coordinates it runs the
// full location analysis; without, it serves the AI response alone over the
// default coordinates.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()

	if req.Coordinates != nil {
		respondJSON(w, http.StatusOK, s.locationAnalysis(ctx, req.Coordinates.Lat, req.Coordinates.Lng, req.Query))
		return
	}

	respondJSON(w, http.StatusOK, queryResponse{
		Timestamp:   now(),
		Status:      "completed",
		AIAnalysis:  s.analyzeQuery(ctx, req.Query),
		Coordinates: models.Coordinates{Lat: s.config.Defaults.Lat, Lng: s.config.Defaults.Lng},
	})
}

func (s *Server) handleAnalyzeLocation(w http.ResponseWriter, r *http.Request) {
	var req locationAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query := ""
	if req.IncludeAI {
		query = comprehensiveQuery
	}

	respondJSON(w, http.StatusOK, s.locationAnalysis(r.Context(), req.Coordinates.Lat, req.Coordinates.Lng, query))
}

// locationAnalysis composes the flood and building analyses with an optional
// AI section. Platform failures degrade to missing sections rather than
// failing the request.
func (s *Server) locationAnalysis(ctx context.Context, lat, lng float64, query string) locationAnalysisResponse {
	resp := locationAnalysisResponse{
		Timestamp:   now(),
		Status:      "completed",
		Coordinates: models.Coordinates{Lat: lat, Lng: lng},
	}

	if s.platformInitialized() {
		flood, err := s.geo.FloodAnalysis(ctx, lat, lng, 0)
		s.recordPlatformRequest(ctx, "flood_analysis", err)
		if err != nil {
			s.logger.Warn("Flood analysis unavailable for location query", map[string]interface{}{
				"lat":   lat,
				"lng":   lng,
				"error": err.Error(),
			})
		} else {
			resp.FloodAnalysis = flood
		}

		building, err := s.geo.BuildingAnalysis(ctx, lat, lng, 0)
		s.recordPlatformRequest(ctx, "building_analysis", err)
		if err != nil {
			s.logger.Warn("Building analysis unavailable for location query", map[string]interface{}{
				"lat":   lat,
				"lng":   lng,
				"error": err.Error(),
			})
		} else {
			resp.BuildingAnalysis = building
		}
	} else {
		s.logger.Warn("Platform not initialized, serving degraded location analysis", map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
	}

	if query != "" {
		analysis := s.analyzeQuery(ctx, query)
		resp.AIAnalysis = &analysis
	}

	resp.Report = report.Combined(report.AnalysisData{
		Flood:       resp.FloodAnalysis,
		Building:    resp.BuildingAnalysis,
		Coordinates: &resp.Coordinates,
		Timestamp:   resp.Timestamp,
	})
	return resp
}

func (s *Server) handleMapLayers(w http.ResponseWriter, r *http.Request) {
	lat, _, err := queryFloat(r, "lat", s.config.Defaults.Lat)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	lng, _, err := queryFloat(r, "lng", s.config.Defaults.Lng)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	zoom, err := queryInt(r, "zoom", mapLayersZoom)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.platformInitialized() {
		respondError(w, http.StatusServiceUnavailable, errPlatformNotInitialized)
		return
	}

	ctx := r.Context()
	layers, err := s.geo.SatelliteLayers(ctx, lat, lng)
	s.recordPlatformRequest(ctx, "satellite_layers", err)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get map layers: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, mapLayersResponse{
		Timestamp: now(),
		Status:    "completed",
		Center:    models.Coordinates{Lat: lat, Lng: lng},
		Zoom:      zoom,
		Layers:    layers,
	})
}

func (s *Server) handleRegionalAnalysis(w http.ResponseWriter, r *http.Request) {
	var req regionalAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.scorer == nil {
		respondError(w, http.StatusServiceUnavailable, "regional analysis unavailable")
		return
	}

	out, err := s.scorer.Execute(r.Context(), &scorevulnerability.Input{
		Bounds:       req.Bounds,
		AnalysisType: req.AnalysisType,
	})
	if err != nil {
		if errors.Is(err, scorevulnerability.ErrInvalidBounds) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Regional analysis failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, regionalAnalysisResponse{
		Timestamp:        now(),
		Status:           "completed",
		RegionalAnalysis: out.Result,
	})
}

func (s *Server) handleFloodAnalysis(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := requireCoordinates(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// radius 0 lets the service apply its own default.
	radius, _, err := queryFloat(r, "radius", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.platformInitialized() {
		respondError(w, http.StatusServiceUnavailable, errPlatformNotInitialized)
		return
	}

	ctx := r.Context()
	result, err := s.geo.FloodAnalysis(ctx, lat, lng, radius)
	s.recordPlatformRequest(ctx, "flood_analysis", err)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Flood analysis failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBuildingAnalysis(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := requireCoordinates(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, _, err := queryFloat(r, "radius", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.platformInitialized() {
		respondError(w, http.StatusServiceUnavailable, errPlatformNotInitialized)
		return
	}

	ctx := r.Context()
	result, err := s.geo.BuildingAnalysis(ctx, lat, lng, radius)
	s.recordPlatformRequest(ctx, "building_analysis", err)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Building analysis failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleLiveLayers(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := requireCoordinates(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	zoom, err := queryInt(r, "zoom", mapdata.DefaultZoom)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.platformInitialized() {
		respondError(w, http.StatusServiceUnavailable, errPlatformNotInitialized)
		return
	}

	ctx := r.Context()
	data, err := s.geo.LiveLayers(ctx, lat, lng)
	s.recordPlatformRequest(ctx, "live_layers", err)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get live layers: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, mapdata.BuildLiveLayersMap(lat, lng, zoom, data.Flood.TileURL, data.Elevation.TileURL))
}

// handleTestMap serves the connectivity test payload. Failures respond 200
// with an error body so the map client can render the outcome either way.
func (s *Server) handleTestMap(w http.ResponseWriter, r *http.Request) {
	if s.geo == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "error",
			"message":   "Error in test map: " + errPlatformNotInitialized,
			"timestamp": now(),
		})
		return
	}

	ctx := r.Context()

	ref, err := s.geo.TestMapLayer(ctx)
	s.recordPlatformRequest(ctx, "test_map", err)
	if err != nil {
		s.logger.Error("Test map render failed", map[string]interface{}{
			"error": err.Error(),
		})
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "error",
			"message":   fmt.Sprintf("Error in test map: %v", err),
			"timestamp": now(),
		})
		return
	}

	respondJSON(w, http.StatusOK, testMapResponse{
		Status:     "success",
		MapPayload: mapdata.BuildTestMap(ref.TileURL),
		Timestamp:  now(),
	})
}
