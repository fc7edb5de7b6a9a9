// internal/workers/conversation/flood-vulnerability/handler_test.go
package floodvulnerability

import (
	"context"
	"errors"
	"testing"
	"time"

	"disaster-eye-workers/internal/common/database"
	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/mapdata"
	"disaster-eye-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

// ==========================
// Test Helper Functions
// ==========================

type stubAnalyzer struct {
	data       *earthengine.FloodHazardData
	err        error
	layersErr  error
	calls      int
	layerCalls int
}

func (s *stubAnalyzer) FloodHazard(ctx context.Context, lat, lng float64) (*earthengine.FloodHazardData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func (s *stubAnalyzer) FloodLayers(ctx context.Context, lat, lng float64) (*earthengine.FloodLayerSet, error) {
	s.layerCalls++
	if s.layersErr != nil {
		return nil, s.layersErr
	}
	return &earthengine.FloodLayerSet{
		Flood:     s.data.Flood,
		Water:     s.data.Water,
		Elevation: s.data.Elevation,
	}, nil
}

func createTestConfig() *Config {
	return &Config{Timeout: 10 * time.Second}
}

func hazardData(depth float64) *earthengine.FloodHazardData {
	return &earthengine.FloodHazardData{
		DepthIndex: depth,
		Flood:      &earthengine.MapRef{MapID: "f", TileURL: "https://tiles.test/flood/{z}/{x}/{y}"},
		Water:      &earthengine.MapRef{MapID: "w", TileURL: "https://tiles.test/water/{z}/{x}/{y}"},
		Elevation:  &earthengine.MapRef{MapID: "e", TileURL: "https://tiles.test/elev/{z}/{x}/{y}"},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	analyzer := &stubAnalyzer{data: hazardData(0.65)}
	handler := NewHandler(createTestConfig(), analyzer, nil, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{
		Location: "Chennai",
		Lat:      models.Float64(13.0827),
		Lon:      models.Float64(80.2707),
	})

	assert.Contains(t, output.ResultSummary, "## Flood Hazard Assessment for Chennai")
	assert.Contains(t, output.ResultSummary, "**Flood Risk Level:** High")
	assert.Equal(t, "High", output.RiskLevel)
	require.NotNil(t, output.DepthIndex)
	assert.InDelta(t, 0.65, *output.DepthIndex, 1e-9)

	payload := output.MapPayload
	assert.Len(t, payload.Layers, 4)
	for _, name := range []string{
		mapdata.LayerSatellite,
		mapdata.LayerFloodRisk,
		mapdata.LayerWaterOccurrence,
		mapdata.LayerElevation,
	} {
		_, ok := payload.Layer(name)
		assert.True(t, ok, "missing layer %q", name)
	}
	require.Len(t, payload.Markers, 1)
	assert.Equal(t, "Chennai", payload.Markers[0].Popup)
	assert.Equal(t, "red", payload.Markers[0].Color)
	assert.Equal(t, 12, payload.Zoom)
	assert.Equal(t, "flood_vulnerability", payload.Analysis)
}

func TestHandler_Execute_RiskTiers(t *testing.T) {
	tests := []struct {
		depth float64
		want  string
	}{
		{0.6, "High"},
		{0.5, "Moderate"}, // boundary: strict inequality
		{0.3, "Moderate"},
		{0.2, "Low"}, // boundary: strict inequality
		{0.05, "Low"},
	}

	for _, tt := range tests {
		analyzer := &stubAnalyzer{data: hazardData(tt.depth)}
		handler := NewHandler(createTestConfig(), analyzer, nil, NewTestLogger(t))

		output := handler.Execute(context.Background(), &Input{
			Lat: models.Float64(11.0),
			Lon: models.Float64(76.0),
		})
		assert.Equal(t, tt.want, output.RiskLevel, "depth %v", tt.depth)
	}
}

func TestHandler_Execute_MissingCoordinates(t *testing.T) {
	analyzer := &stubAnalyzer{data: hazardData(0.9)}
	handler := NewHandler(createTestConfig(), analyzer, nil, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{Location: "Nowhere"})

	assert.Equal(t, "Missing coordinates for flood analysis", output.ResultSummary)
	assert.Zero(t, analyzer.calls, "analyzer must not run without coordinates")

	payload := output.MapPayload
	assert.Equal(t, mapdata.DefaultCenter, payload.Center)
	assert.Equal(t, 12, payload.Zoom)
	assert.Empty(t, payload.Layers)
	assert.Empty(t, payload.Markers)
	assert.Equal(t, "Missing coordinates for flood analysis", payload.Error)
}

func TestHandler_Execute_PlatformFailureDegrades(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("compute quota exhausted")}
	handler := NewHandler(createTestConfig(), analyzer, nil, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{
		Location: "Kochi",
		Lat:      models.Float64(9.9312),
		Lon:      models.Float64(76.2673),
	})

	assert.Contains(t, output.ResultSummary, "Basic map for (9.9312, 76.2673)")
	assert.Contains(t, output.ResultSummary, "Error in flood analysis: compute quota exhausted")
	assert.Empty(t, output.RiskLevel)

	payload := output.MapPayload
	assert.Empty(t, payload.Layers)
	require.Len(t, payload.Markers, 1)
	assert.Equal(t, "Kochi", payload.Markers[0].Popup)
	assert.Equal(t, mapdata.ErrLoadLayersMessage, payload.Error)
}

func TestHandler_Execute_DefaultLabel(t *testing.T) {
	analyzer := &stubAnalyzer{data: hazardData(0.1)}
	handler := NewHandler(createTestConfig(), analyzer, nil, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{
		Lat: models.Float64(11.0168),
		Lon: models.Float64(76.9558),
	})

	assert.Contains(t, output.ResultSummary, "## Flood Hazard Assessment for Selected Location")
	require.Len(t, output.MapPayload.Markers, 1)
	assert.Equal(t, "Selected Location", output.MapPayload.Markers[0].Popup)
}

// ==========================
// Assessment Cache Tests
// ==========================

func testCache(t *testing.T) *database.RedisClient {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &database.RedisClient{Client: client}
}

func TestHandler_Execute_CacheHitSkipsDepthAnalysis(t *testing.T) {
	cache := testCache(t)
	require.NoError(t, cache.SetJSON(context.Background(),
		models.AssessmentCacheKey(13.0827, 80.2707),
		models.FloodAssessment{
			ID:         "cached-1",
			Location:   "Chennai",
			Lat:        13.0827,
			Lng:        80.2707,
			RiskLevel:  models.RiskHigh,
			DepthIndex: 0.65,
		}, time.Minute))

	analyzer := &stubAnalyzer{data: hazardData(0.65)}
	handler := NewHandler(createTestConfig(), analyzer, cache, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{
		Location: "T. Nagar",
		Lat:      models.Float64(13.0827),
		Lon:      models.Float64(80.2707),
	})

	assert.Zero(t, analyzer.calls, "cached depth must skip the zonal analysis")
	assert.Equal(t, 1, analyzer.layerCalls, "tile layers are rendered fresh on a hit")
	assert.Equal(t, "High", output.RiskLevel)
	require.NotNil(t, output.DepthIndex)
	assert.InDelta(t, 0.65, *output.DepthIndex, 1e-9)
	// Summary is rebuilt for the current request, not replayed from the record.
	assert.Contains(t, output.ResultSummary, "## Flood Hazard Assessment for T. Nagar")
	assert.Len(t, output.MapPayload.Layers, 4)
	require.Len(t, output.MapPayload.Markers, 1)
	assert.Equal(t, "T. Nagar", output.MapPayload.Markers[0].Popup)
}

func TestHandler_Execute_CacheMissRunsFullAnalysis(t *testing.T) {
	cache := testCache(t)
	analyzer := &stubAnalyzer{data: hazardData(0.3)}
	handler := NewHandler(createTestConfig(), analyzer, cache, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{
		Lat: models.Float64(11.0),
		Lon: models.Float64(76.0),
	})

	assert.Equal(t, 1, analyzer.calls)
	assert.Zero(t, analyzer.layerCalls, "miss must not render layers separately")
	assert.Equal(t, "Moderate", output.RiskLevel)
}

func TestHandler_Execute_CacheHitLayerFailureFallsBack(t *testing.T) {
	cache := testCache(t)
	require.NoError(t, cache.SetJSON(context.Background(),
		models.AssessmentCacheKey(9.9312, 76.2673),
		models.FloodAssessment{Location: "Kochi", Lat: 9.9312, Lng: 76.2673, RiskLevel: models.RiskHigh, DepthIndex: 0.9},
		time.Minute))

	analyzer := &stubAnalyzer{data: hazardData(0.9), layersErr: errors.New("mapid expired")}
	handler := NewHandler(createTestConfig(), analyzer, cache, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{
		Location: "Kochi",
		Lat:      models.Float64(9.9312),
		Lon:      models.Float64(76.2673),
	})

	assert.Equal(t, 1, analyzer.layerCalls)
	assert.Equal(t, 1, analyzer.calls, "render failure on the cache path must fall back to the full analysis")
	assert.Equal(t, "High", output.RiskLevel)
	assert.Len(t, output.MapPayload.Layers, 4)
}

func TestHandler_Execute_CacheOutageRunsFullAnalysis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	mr.Close()

	analyzer := &stubAnalyzer{data: hazardData(0.65)}
	handler := NewHandler(createTestConfig(), analyzer, cache, NewTestLogger(t))

	output := handler.Execute(context.Background(), &Input{
		Location: "Chennai",
		Lat:      models.Float64(13.0827),
		Lon:      models.Float64(80.2707),
	})

	assert.Equal(t, 1, analyzer.calls, "a cache outage must not block the analysis")
	assert.Equal(t, "High", output.RiskLevel)
}
