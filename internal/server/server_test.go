// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"disaster-eye-workers/internal/common/config"
	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/workflow"

	archiveanalysis "disaster-eye-workers/internal/workers/analysis/archive-analysis"
	queryhistory "disaster-eye-workers/internal/workers/analysis/query-history"
	scorevulnerability "disaster-eye-workers/internal/workers/analysis/score-vulnerability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Stubs
// ==========================

type stubWorkflow struct {
	result   workflow.Result
	err      error
	gotState models.TurnState
}

func (s *stubWorkflow) Run(ctx context.Context, state models.TurnState) (workflow.Result, error) {
	s.gotState = state
	if s.err != nil {
		return workflow.Result{State: state}, s.err
	}
	return s.result, nil
}

type stubGeo struct {
	initialized bool

	flood           *models.SARFloodAnalysis
	floodErr        error
	lastFloodRadius float64

	building           *models.BuildingAnalysis
	buildingErr        error
	lastBuildingRadius float64

	layers        map[string]*earthengine.MapRef
	layersErr     error
	lastLayersLat float64
	lastLayersLng float64

	live    *earthengine.LiveLayerData
	liveErr error

	testRef *earthengine.MapRef
	testErr error
}

func (s *stubGeo) Initialized() bool { return s.initialized }

func (s *stubGeo) FloodAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.SARFloodAnalysis, error) {
	s.lastFloodRadius = radiusMeters
	return s.flood, s.floodErr
}

func (s *stubGeo) BuildingAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.BuildingAnalysis, error) {
	s.lastBuildingRadius = radiusMeters
	return s.building, s.buildingErr
}

func (s *stubGeo) SatelliteLayers(ctx context.Context, lat, lng float64) (map[string]*earthengine.MapRef, error) {
	s.lastLayersLat, s.lastLayersLng = lat, lng
	return s.layers, s.layersErr
}

func (s *stubGeo) LiveLayers(ctx context.Context, lat, lng float64) (*earthengine.LiveLayerData, error) {
	return s.live, s.liveErr
}

func (s *stubGeo) TestMapLayer(ctx context.Context) (*earthengine.MapRef, error) {
	return s.testRef, s.testErr
}

type stubProvider struct {
	text      string
	err       error
	gotSystem string
	gotPrompt string
}

func (s *stubProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.gotSystem = req.System
	s.gotPrompt = req.Prompt
	return s.text, s.err
}

func (s *stubProvider) Name() string { return "stub" }

type stubHistory struct {
	out *queryhistory.Output
	err error
	got *queryhistory.Input
}

func (s *stubHistory) Execute(ctx context.Context, input *queryhistory.Input) (*queryhistory.Output, error) {
	s.got = input
	return s.out, s.err
}

type stubScorer struct {
	out *scorevulnerability.Output
	err error
	got *scorevulnerability.Input
}

func (s *stubScorer) Execute(ctx context.Context, input *scorevulnerability.Input) (*scorevulnerability.Output, error) {
	s.got = input
	return s.out, s.err
}

type stubArchiver struct {
	mu   sync.Mutex
	got  []*archiveanalysis.Input
	done chan struct{}
}

func newStubArchiver() *stubArchiver {
	return &stubArchiver{done: make(chan struct{}, 1)}
}

func (s *stubArchiver) Execute(ctx context.Context, input *archiveanalysis.Input) (*archiveanalysis.Output, error) {
	s.mu.Lock()
	s.got = append(s.got, input)
	s.mu.Unlock()

	select {
	case s.done <- struct{}{}:
	default:
	}
	return &archiveanalysis.Output{Archived: true}, nil
}

func (s *stubArchiver) inputs() []*archiveanalysis.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*archiveanalysis.Input, len(s.got))
	copy(out, s.got)
	return out
}

// ==========================
// Helpers
// ==========================

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Server.RequestTimeout = 5000
	cfg.Defaults.Lat = 11.0168
	cfg.Defaults.Lng = 76.9558
	cfg.Defaults.Zoom = 10
	return cfg
}

func testServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	return New(testConfig(), deps, logger.NewTestLogger(t))
}

func doRequest(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodePayload(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

// ==========================
// Service endpoints
// ==========================

func TestHandleRoot(t *testing.T) {
	s := testServer(t, Deps{Geo: &stubGeo{initialized: true}})

	rec := doRequest(t, s, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Disaster Eye Earth Engine API", body["message"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, true, body["earth_engine_status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHandleHealth(t *testing.T) {
	t.Run("all services up", func(t *testing.T) {
		s := testServer(t, Deps{
			Geo:      &stubGeo{initialized: true},
			Provider: &stubProvider{text: "ok"},
		})

		rec := doRequest(t, s, http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "healthy", body["api_status"])
		assert.Equal(t, true, body["earth_engine_initialized"])
		assert.Equal(t, true, body["ai_service_available"])
	})

	t.Run("degraded services reported", func(t *testing.T) {
		s := testServer(t, Deps{Geo: &stubGeo{initialized: false}})

		rec := doRequest(t, s, http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "healthy", body["api_status"])
		assert.Equal(t, false, body["earth_engine_initialized"])
		assert.Equal(t, false, body["ai_service_available"])
	})
}

func TestHandleReady(t *testing.T) {
	s := testServer(t, Deps{})

	rec := doRequest(t, s, http.MethodGet, "/ready", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ready", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t, Deps{})

	rec := doRequest(t, s, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

// ==========================
// CORS
// ==========================

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	s := testServer(t, Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/agent", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSUnknownOriginGetsNoAllowHeader(t *testing.T) {
	s := testServer(t, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSStampsAllowedOriginOnActualRequest(t *testing.T) {
	s := testServer(t, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}
