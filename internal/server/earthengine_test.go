// internal/server/earthengine_test.go
package server

import (
	"net/http"
	"testing"

	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/models"
	scorevulnerability "disaster-eye-workers/internal/workers/analysis/score-vulnerability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlood() *models.SARFloodAnalysis {
	return &models.SARFloodAnalysis{
		FloodPercentage:  45.2,
		AverageElevation: 5.1,
		RiskLevel:        models.RiskHigh,
		Coordinates:      models.Coordinates{Lat: 13.0827, Lng: 80.2707},
		AnalysisRadius:   5000,
	}
}

func sampleBuilding() *models.BuildingAnalysis {
	return &models.BuildingAnalysis{
		TotalBuildings:    500,
		DamagedBuildings:  75,
		BuiltUpPercentage: 32.5,
		DamagePercentage:  15.0,
		Coordinates:       models.Coordinates{Lat: 13.0827, Lng: 80.2707},
	}
}

// ==========================
// Query
// ==========================

func TestHandleQuery_WithoutCoordinates(t *testing.T) {
	provider := &stubProvider{text: "Flood risk around Chennai is elevated this week."}
	s := testServer(t, Deps{Provider: provider})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/query", map[string]interface{}{
		"query": "What is the flood risk in Chennai?",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "completed", body["status"])
	assert.NotEmpty(t, body["timestamp"])

	analysis := body["ai_analysis"].(map[string]interface{})
	assert.Equal(t, string(llm.IntentFloodAnalysis), analysis["intent"])
	assert.Equal(t, provider.text, analysis["ai_response"])
	assert.InDelta(t, 0.9, analysis["confidence"].(float64), 1e-9)
	assert.NotEmpty(t, analysis["suggested_actions"])

	coords := body["coordinates"].(map[string]interface{})
	assert.InDelta(t, 11.0168, coords["lat"].(float64), 1e-9)
	assert.InDelta(t, 76.9558, coords["lng"].(float64), 1e-9)

	assert.Equal(t, aiSystemPrompt, provider.gotSystem)
	assert.Equal(t, "What is the flood risk in Chennai?", provider.gotPrompt)
}

func TestHandleQuery_ProviderDownFallsBack(t *testing.T) {
	provider := &stubProvider{err: llm.ErrUnavailable}
	s := testServer(t, Deps{Provider: provider})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/query", map[string]interface{}{
		"query": "Show me flood zones",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	analysis := decodeBody(t, rec)["ai_analysis"].(map[string]interface{})

	assert.Equal(t, llm.FallbackResponse(llm.IntentFloodAnalysis), analysis["ai_response"])
	assert.InDelta(t, 0.7, analysis["confidence"].(float64), 1e-9)
}

func TestHandleQuery_NoProviderUsesFallback(t *testing.T) {
	s := testServer(t, Deps{})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/query", map[string]interface{}{
		"query": "Show me flood zones",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	analysis := decodeBody(t, rec)["ai_analysis"].(map[string]interface{})

	assert.Equal(t, llm.FallbackResponse(llm.IntentFloodAnalysis), analysis["ai_response"])
	assert.InDelta(t, 0.7, analysis["confidence"].(float64), 1e-9)
}

func TestHandleQuery_WithCoordinatesRunsLocationAnalysis(t *testing.T) {
	geo := &stubGeo{initialized: true, flood: sampleFlood(), building: sampleBuilding()}
	provider := &stubProvider{text: "Elevated risk."}
	s := testServer(t, Deps{Geo: geo, Provider: provider})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/query", map[string]interface{}{
		"query":       "Analyze this point",
		"coordinates": map[string]float64{"lat": 13.0827, "lng": 80.2707},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "completed", body["status"])

	flood := body["flood_analysis"].(map[string]interface{})
	assert.InDelta(t, 45.2, flood["flood_percentage"].(float64), 1e-9)
	assert.Equal(t, "High", flood["risk_level"])

	building := body["building_analysis"].(map[string]interface{})
	assert.EqualValues(t, 500, building["total_buildings"])

	report := body["report"].(string)
	assert.Contains(t, report, "**Flood Risk Assessment:**")
	assert.Contains(t, report, "**Building Damage Assessment:**")
	assert.Contains(t, report, "**Analysis Location:**")

	analysis := body["ai_analysis"].(map[string]interface{})
	assert.Equal(t, "Elevated risk.", analysis["ai_response"])
}

func TestHandleQuery_PlatformDownDegrades(t *testing.T) {
	geo := &stubGeo{initialized: false}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/query", map[string]interface{}{
		"coordinates": map[string]float64{"lat": 13.0827, "lng": 80.2707},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "completed", body["status"])
	_, hasFlood := body["flood_analysis"]
	assert.False(t, hasFlood)
	_, hasBuilding := body["building_analysis"]
	assert.False(t, hasBuilding)

	// The report still carries the location section.
	report := body["report"].(string)
	assert.Contains(t, report, "**Analysis Location:**")
	assert.NotContains(t, report, "**Flood Risk Assessment:**")
}

func TestHandleQuery_AnalysisFailureDropsSection(t *testing.T) {
	geo := &stubGeo{
		initialized: true,
		floodErr:    assert.AnError,
		building:    sampleBuilding(),
	}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/query", map[string]interface{}{
		"coordinates": map[string]float64{"lat": 13.0827, "lng": 80.2707},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	_, hasFlood := body["flood_analysis"]
	assert.False(t, hasFlood)
	assert.Contains(t, body["report"].(string), "**Building Damage Assessment:**")
}

// ==========================
// Analyze location
// ==========================

func TestHandleAnalyzeLocation_IncludeAI(t *testing.T) {
	geo := &stubGeo{initialized: true, flood: sampleFlood(), building: sampleBuilding()}
	provider := &stubProvider{text: "Comprehensive view follows."}
	s := testServer(t, Deps{Geo: geo, Provider: provider})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/analyze-location", map[string]interface{}{
		"coordinates": map[string]float64{"lat": 13.0827, "lng": 80.2707},
		"include_ai":  true,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	analysis := body["ai_analysis"].(map[string]interface{})
	assert.Equal(t, "Comprehensive view follows.", analysis["ai_response"])
	assert.Equal(t, "Comprehensive disaster vulnerability analysis", provider.gotPrompt)
}

func TestHandleAnalyzeLocation_WithoutAI(t *testing.T) {
	geo := &stubGeo{initialized: true, flood: sampleFlood(), building: sampleBuilding()}
	provider := &stubProvider{text: "should not be called"}
	s := testServer(t, Deps{Geo: geo, Provider: provider})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/analyze-location", map[string]interface{}{
		"coordinates": map[string]float64{"lat": 13.0827, "lng": 80.2707},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	_, hasAI := body["ai_analysis"]
	assert.False(t, hasAI)
	assert.Empty(t, provider.gotPrompt)
}

// ==========================
// Map layers
// ==========================

func TestHandleMapLayers_Defaults(t *testing.T) {
	geo := &stubGeo{
		initialized: true,
		layers: map[string]*earthengine.MapRef{
			"satellite": {MapID: "sat-1", TileURL: "https://tiles.test/sat/{z}/{x}/{y}"},
			"elevation": {MapID: "elev-1", TileURL: "https://tiles.test/elev/{z}/{x}/{y}"},
		},
	}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/map-layers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "completed", body["status"])
	assert.EqualValues(t, 10, body["zoom"])

	center := body["center"].(map[string]interface{})
	assert.InDelta(t, 11.0168, center["lat"].(float64), 1e-9)
	assert.InDelta(t, 11.0168, geo.lastLayersLat, 1e-9)
	assert.InDelta(t, 76.9558, geo.lastLayersLng, 1e-9)

	layers := body["layers"].(map[string]interface{})
	sat := layers["satellite"].(map[string]interface{})
	assert.Equal(t, "https://tiles.test/sat/{z}/{x}/{y}", sat["tile_url"])
}

func TestHandleMapLayers_ExplicitPoint(t *testing.T) {
	geo := &stubGeo{initialized: true, layers: map[string]*earthengine.MapRef{}}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/map-layers?lat=13.0827&lng=80.2707&zoom=14", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.EqualValues(t, 14, body["zoom"])
	assert.InDelta(t, 13.0827, geo.lastLayersLat, 1e-9)
	assert.InDelta(t, 80.2707, geo.lastLayersLng, 1e-9)
}

func TestHandleMapLayers_PlatformDown(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: false}})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/map-layers", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Earth Engine not initialized", body["message"])
}

func TestHandleMapLayers_RenderFailure(t *testing.T) {
	geo := &stubGeo{initialized: true, layersErr: assert.AnError}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/map-layers", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "Failed to get map layers")
}

func TestHandleMapLayers_MalformedCoordinate(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: true}})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/map-layers?lat=north", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Regional analysis
// ==========================

func TestHandleRegionalAnalysis(t *testing.T) {
	bounds := models.Bounds{North: 13.2, South: 12.9, East: 80.4, West: 80.1}
	scorer := &stubScorer{out: &scorevulnerability.Output{Result: models.RegionalAnalysis{
		Bounds:       bounds,
		AnalysisType: "comprehensive",
		Score:        62.8,
		Tier:         models.RiskMedium,
		Flood:        sampleFlood(),
	}}}
	s := testServer(t, Deps{Scorer: scorer})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/regional-analysis", map[string]interface{}{
		"bounds": map[string]float64{"north": 13.2, "south": 12.9, "east": 80.4, "west": 80.1},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "completed", body["status"])
	assert.InDelta(t, 62.8, body["score"].(float64), 1e-9)
	assert.Equal(t, "Medium", body["tier"])
	assert.NotNil(t, body["flood_analysis"])

	require.NotNil(t, scorer.got)
	assert.Equal(t, bounds, scorer.got.Bounds)
}

func TestHandleRegionalAnalysis_InvalidBounds(t *testing.T) {
	scorer := &stubScorer{err: scorevulnerability.ErrInvalidBounds}
	s := testServer(t, Deps{Scorer: scorer})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/regional-analysis", map[string]interface{}{
		"bounds": map[string]float64{"north": 12.0, "south": 13.0, "east": 80.0, "west": 81.0},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
}

func TestHandleRegionalAnalysis_ExecutionFailure(t *testing.T) {
	scorer := &stubScorer{err: assert.AnError}
	s := testServer(t, Deps{Scorer: scorer})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/regional-analysis", map[string]interface{}{
		"bounds": map[string]float64{"north": 13.2, "south": 12.9, "east": 80.4, "west": 80.1},
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "Regional analysis failed")
}

func TestHandleRegionalAnalysis_NoScorer(t *testing.T) {
	s := testServer(t, Deps{})

	rec := doRequest(t, s, http.MethodPost, "/api/earth-engine/regional-analysis", map[string]interface{}{
		"bounds": map[string]float64{"north": 13.2, "south": 12.9, "east": 80.4, "west": 80.1},
	})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ==========================
// Point analyses
// ==========================

func TestHandleFloodAnalysis(t *testing.T) {
	geo := &stubGeo{initialized: true, flood: sampleFlood()}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/flood-analysis?lat=13.0827&lng=80.2707&radius=3000", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.InDelta(t, 45.2, body["flood_percentage"].(float64), 1e-9)
	assert.Equal(t, "High", body["risk_level"])
	assert.InDelta(t, 3000, geo.lastFloodRadius, 1e-9)
}

func TestHandleFloodAnalysis_RadiusDefaultsToService(t *testing.T) {
	geo := &stubGeo{initialized: true, flood: sampleFlood()}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/flood-analysis?lat=13.0827&lng=80.2707", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, geo.lastFloodRadius)
}

func TestHandleFloodAnalysis_MissingCoordinates(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: true}})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/flood-analysis", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "lat and lng are required", decodeBody(t, rec)["message"])
}

func TestHandleFloodAnalysis_PlatformDown(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: false}})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/flood-analysis?lat=13.0827&lng=80.2707", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Earth Engine not initialized", decodeBody(t, rec)["message"])
}

func TestHandleFloodAnalysis_Failure(t *testing.T) {
	geo := &stubGeo{initialized: true, floodErr: assert.AnError}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/flood-analysis?lat=13.0827&lng=80.2707", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "Flood analysis failed")
}

func TestHandleBuildingAnalysis(t *testing.T) {
	geo := &stubGeo{initialized: true, building: sampleBuilding()}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/building-analysis?lat=13.0827&lng=80.2707&radius=1500", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.EqualValues(t, 500, body["total_buildings"])
	assert.EqualValues(t, 75, body["damaged_buildings"])
	assert.InDelta(t, 1500, geo.lastBuildingRadius, 1e-9)
}

func TestHandleBuildingAnalysis_PlatformDown(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: false}})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/building-analysis?lat=13.0827&lng=80.2707", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ==========================
// Live layers
// ==========================

func TestHandleLiveLayers(t *testing.T) {
	geo := &stubGeo{
		initialized: true,
		live: &earthengine.LiveLayerData{
			Flood:     &earthengine.MapRef{TileURL: "https://tiles.test/flood/{z}/{x}/{y}"},
			Elevation: &earthengine.MapRef{TileURL: "https://tiles.test/elev/{z}/{x}/{y}"},
		},
	}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/live-layers?lat=13.0827&lng=80.2707", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload models.MapPayload
	require.NoError(t, decodePayload(rec, &payload))

	assert.InDelta(t, 13.0827, payload.Center.Lat, 1e-9)
	assert.Equal(t, 12, payload.Zoom)
	require.Len(t, payload.Layers, 2)
	assert.Equal(t, "Flood Hazard (0-1m depth)", payload.Layers[0].Name)
	assert.Equal(t, "https://tiles.test/flood/{z}/{x}/{y}", payload.Layers[0].URL)
	assert.Equal(t, "Elevation (m)", payload.Layers[1].Name)
	require.Len(t, payload.Markers, 1)
	assert.Equal(t, "Selected Location", payload.Markers[0].Popup)
}

func TestHandleLiveLayers_ZoomOverride(t *testing.T) {
	geo := &stubGeo{
		initialized: true,
		live: &earthengine.LiveLayerData{
			Flood:     &earthengine.MapRef{TileURL: "f"},
			Elevation: &earthengine.MapRef{TileURL: "e"},
		},
	}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/live-layers?lat=13.0827&lng=80.2707&zoom=15", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload models.MapPayload
	require.NoError(t, decodePayload(rec, &payload))
	assert.Equal(t, 15, payload.Zoom)
}

func TestHandleLiveLayers_MissingCoordinates(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: true}})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/live-layers", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLiveLayers_PlatformDown(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: false}})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/live-layers?lat=13.0827&lng=80.2707", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ==========================
// Test map
// ==========================

func TestHandleTestMap(t *testing.T) {
	geo := &stubGeo{
		initialized: true,
		testRef:     &earthengine.MapRef{TileURL: "https://tiles.test/water/{z}/{x}/{y}"},
	}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/test-map", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "success", body["status"])

	center := body["center"].(map[string]interface{})
	assert.InDelta(t, 20.5937, center["lat"].(float64), 1e-9)
	assert.EqualValues(t, 5, body["zoom"])

	layers := body["layers"].([]interface{})
	require.Len(t, layers, 1)
	layer := layers[0].(map[string]interface{})
	assert.Equal(t, "Water Occurrence", layer["name"])
	assert.Equal(t, "https://tiles.test/water/{z}/{x}/{y}", layer["url"])

	markers := body["markers"].([]interface{})
	require.Len(t, markers, 1)
	assert.Equal(t, "Default Location", markers[0].(map[string]interface{})["popup"])
}

func TestHandleTestMap_RenderFailure(t *testing.T) {
	geo := &stubGeo{initialized: true, testErr: assert.AnError}
	s := testServer(t, Deps{Geo: geo})

	rec := doRequest(t, s, http.MethodGet, "/api/earth-engine/test-map", nil)

	// The test endpoint reports failures in the body, not the status code.
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "Error in test map")
	assert.NotEmpty(t, body["timestamp"])
}
