// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"disaster-eye-workers/internal/common/config"
	"disaster-eye-workers/internal/common/database"
	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/geocode"
	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/workflow"

	// Import all worker packages
	classifyintent "disaster-eye-workers/internal/workers/conversation/classify-intent"
	extractquery "disaster-eye-workers/internal/workers/conversation/extract-query"
	floodvulnerability "disaster-eye-workers/internal/workers/conversation/flood-vulnerability"
	resolvelocation "disaster-eye-workers/internal/workers/conversation/resolve-location"

	archiveanalysis "disaster-eye-workers/internal/workers/analysis/archive-analysis"
	notifyhighrisk "disaster-eye-workers/internal/workers/analysis/notify-high-risk"
	queryhistory "disaster-eye-workers/internal/workers/analysis/query-history"
	scorevulnerability "disaster-eye-workers/internal/workers/analysis/score-vulnerability"
)

var (
	zeebeClient zbc.Client
	zapLog      *zap.Logger
)

// Logger adapters to bridge logger.Logger to worker-specific Logger interfaces
type classifyIntentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyIntentLoggerAdapter) With(fields map[string]interface{}) classifyintent.Logger {
	return &classifyIntentLoggerAdapter{a.Logger.With(fields)}
}

type extractQueryLoggerAdapter struct {
	logger.Logger
}

func (a *extractQueryLoggerAdapter) With(fields map[string]interface{}) extractquery.Logger {
	return &extractQueryLoggerAdapter{a.Logger.With(fields)}
}

type resolveLocationLoggerAdapter struct {
	logger.Logger
}

func (a *resolveLocationLoggerAdapter) With(fields map[string]interface{}) resolvelocation.Logger {
	return &resolveLocationLoggerAdapter{a.Logger.With(fields)}
}

type floodVulnerabilityLoggerAdapter struct {
	logger.Logger
}

func (a *floodVulnerabilityLoggerAdapter) With(fields map[string]interface{}) floodvulnerability.Logger {
	return &floodVulnerabilityLoggerAdapter{a.Logger.With(fields)}
}

func TestMain(m *testing.M) {
	var err error

	// Initialize Zeebe client with real connection
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Zeebe: %v", err))
	}

	// Initialize logger
	zapLog, _ = zap.NewProduction()

	// Run tests
	code := m.Run()

	// Cleanup
	zeebeClient.Close()
	os.Exit(code)
}

func TestFullE2E(t *testing.T) {
	_, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Log("🚀 Starting FULL E2E Test with real services...")

	// 1. Check all external services are available
	assertAllServicesConnectivity(t, cfg)

	// 2. Migrate the assessment schema and insert seed assessments
	setupAssessmentData(t, cfg)

	// 3. Deploy all BPMN files
	deployAllBPMN(t, cfg, zapLog)

	// 4. Test all 8 workers with real execution
	testAllWorkers(t, cfg, zapLog)

	t.Log("✅ ALL TESTS PASSED — Full E2E workflow successful!")
}

func assertAllServicesConnectivity(t *testing.T, cfg *config.Config) {
	t.Log("🔍 Checking service connectivity...")

	// 🔧 FORCE LOCALHOST FOR E2E TESTS
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"

	// --- PostgreSQL ---
	db, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	assert.NoError(t, db.Ping(context.Background()), "❌ PostgreSQL ping failed")
	db.Close()
	t.Log("✅ PostgreSQL connected")

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	assert.NoError(t, rdb.Ping(context.Background()), "❌ Redis ping failed")
	t.Log("✅ Redis connected")

	// --- Elasticsearch ---
	esURL := cfg.Database.Elasticsearch.GetURL()
	t.Logf("🔗 Elasticsearch URL: %s", esURL)

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	require.NoError(t, err, "❌ Elasticsearch client creation failed")

	res, err := es.Info()
	require.NoError(t, err, "❌ Elasticsearch info request failed")
	assert.False(t, res.IsError(), "❌ Elasticsearch returned error")
	res.Body.Close()
	t.Log("✅ Elasticsearch connected")

	// --- Zeebe ---
	_, err = zeebeClient.NewTopologyCommand().Send(context.Background())
	assert.NoError(t, err, "❌ Zeebe topology request failed")
	t.Log("✅ Zeebe connected")
}

// ==========================
// 2. Assessment Schema + Seed Data
// ==========================
func setupAssessmentData(t *testing.T, cfg *config.Config) {
	t.Log("🔧 Migrating assessment schema and inserting seed data...")

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	require.NoError(t, dbClient.EnsureAssessmentSchema(context.Background()),
		"❌ flood_assessments migration failed")

	db := dbClient.GetDB()

	// Seed assessments the history worker can find near Coimbatore
	seedData := []string{
		`INSERT INTO flood_assessments (id, location, lat, lng, risk_level, depth_index, summary, analysis, created_at)
		 VALUES ('e2e-seed-001', 'Coimbatore', 11.0168, 76.9558, 'High', 0.82,
		         'Flood vulnerability assessment for Coimbatore', 'flood_analysis', NOW())
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO flood_assessments (id, location, lat, lng, risk_level, depth_index, summary, analysis, created_at)
		 VALUES ('e2e-seed-002', 'Chennai', 13.0827, 80.2707, 'Medium', 0.41,
		         'Flood vulnerability assessment for Chennai', 'flood_analysis', NOW())
		 ON CONFLICT (id) DO NOTHING`,
	}

	for _, query := range seedData {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			t.Logf("Warning: Failed to insert seed assessment: %v", err)
		}
	}

	t.Log("✅ Assessment schema ready")
}

func deployAllBPMN(t *testing.T, _ *config.Config, _ *zap.Logger) {
	t.Log("🏗️ Deploying BPMN files...")

	client := zeebeClient

	// Try multiple possible paths for BPMN directory
	possiblePaths := []string{
		"bpmn",
		"../bpmn",
		"../../bpmn",
		"./bpmn",
	}

	var bpmnDir string
	var files []os.DirEntry
	var err error

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			files, err = os.ReadDir(path)
			if err == nil {
				bpmnDir = path
				t.Logf("📁 Found BPMN directory: %s", bpmnDir)
				break
			}
		}
	}

	if bpmnDir == "" {
		t.Log("⚠️ BPMN directory not found in any expected location, skipping deployment")
		return
	}

	require.NoError(t, err, "❌ Cannot read BPMN directory")

	bpmnCount := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		// Better file extension check
		if !strings.HasSuffix(strings.ToLower(f.Name()), ".bpmn") {
			continue
		}

		path := fmt.Sprintf("%s/%s", bpmnDir, f.Name())
		t.Logf("📄 Deploying BPMN: %s", path)

		_, err := client.NewDeployResourceCommand().AddResourceFile(path).Send(context.Background())
		if err != nil {
			t.Logf("⚠️ Failed to deploy BPMN %s: %v", f.Name(), err)
			// Continue with other files instead of failing
		} else {
			t.Logf("✅ Deployed: %s", f.Name())
			bpmnCount++
		}
	}

	if bpmnCount == 0 {
		t.Log("ℹ️ No BPMN files were successfully deployed")
	} else {
		t.Logf("✅ Successfully deployed %d BPMN files", bpmnCount)
	}
}

// ==========================
// 4. Test All 8 Workers
// ==========================
func testAllWorkers(t *testing.T, cfg *config.Config, log *zap.Logger) {
	t.Log("🧪 Testing all 8 workers with real execution...")

	// Get clients for all services
	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	db := dbClient.GetDB()

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)

	rdbClient, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdbClient.Close()

	// Worker test cases
	testCases := []struct {
		name   string
		testFn func(*testing.T, *config.Config, *zap.Logger, *sql.DB, *database.ElasticsearchClient, *database.RedisClient)
	}{
		{"classify-intent", testClassifyIntent},
		{"extract-query", testExtractQuery},
		{"resolve-location", testResolveLocation},
		{"flood-vulnerability", testFloodVulnerability},
		{"score-vulnerability", testScoreVulnerability},
		{"query-history", testQueryHistory},
		{"notify-high-risk", testNotifyHighRisk},
		{"archive-analysis", testArchiveAnalysis},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.testFn(t, cfg, log, db, esClient, rdbClient)
		})
	}
}

// mockProvider builds a Groq client aimed at an endpoint that does not
// answer completions, so the LLM workers exercise their failure paths
// without a live API key.
func mockProvider(log *zap.Logger) llm.Provider {
	return llm.NewGroqClient(llm.GroqConfig{
		BaseURL:     "http://localhost:8080/mock",
		APIKey:      "mock",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.2,
		MaxTokens:   512,
		MaxRetries:  1,
	}, logger.NewZapAdapter(log))
}

// realProvider builds a Groq client from the environment when a key is
// present, so the conversation workers can run against the live API.
func realProvider(cfg *config.Config, log *zap.Logger) (llm.Provider, bool) {
	if cfg.LLM.Groq.APIKey == "" {
		return nil, false
	}
	return llm.NewGroqClient(llm.GroqConfig{
		BaseURL:     cfg.LLM.Groq.BaseURL,
		APIKey:      cfg.LLM.Groq.APIKey,
		Model:       cfg.LLM.Groq.Model,
		Temperature: cfg.LLM.Groq.Temperature,
		MaxTokens:   cfg.LLM.Groq.MaxTokens,
		MaxRetries:  1,
	}, logger.NewZapAdapter(log)), true
}

// ==========================
// Worker Test Functions
// ==========================

func testClassifyIntent(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	logAdapter := &classifyIntentLoggerAdapter{logger.NewZapAdapter(log)}

	if provider, ok := realProvider(cfg, log); ok {
		handler := classifyintent.NewHandler(classifyintent.LoadConfig(),
			workflow.NewLLMClassifier(provider, logger.NewZapAdapter(log)), logAdapter)

		out, err := handler.Execute(context.Background(),
			&classifyintent.Input{Input: "Analyze flood vulnerability in Coimbatore"})
		require.NoError(t, err)
		assert.Equal(t, "query", out.Route)
		return
	}

	// No API key: the worker must surface the provider failure
	handler := classifyintent.NewHandler(classifyintent.LoadConfig(),
		workflow.NewLLMClassifier(mockProvider(log), logger.NewZapAdapter(log)), logAdapter)

	_, err := handler.Execute(context.Background(),
		&classifyintent.Input{Input: "Analyze flood vulnerability in Coimbatore"})
	assert.Error(t, err)
}

func testExtractQuery(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	logAdapter := &extractQueryLoggerAdapter{logger.NewZapAdapter(log)}

	if provider, ok := realProvider(cfg, log); ok {
		handler := extractquery.NewHandler(extractquery.LoadConfig(),
			workflow.NewLLMExtractor(provider, logger.NewZapAdapter(log)), logAdapter)

		out, err := handler.Execute(context.Background(),
			&extractquery.Input{Input: "Show flood analysis for Coimbatore"})
		require.NoError(t, err)
		assert.NotEmpty(t, out.Location)
		return
	}

	handler := extractquery.NewHandler(extractquery.LoadConfig(),
		workflow.NewLLMExtractor(mockProvider(log), logger.NewZapAdapter(log)), logAdapter)

	_, err := handler.Execute(context.Background(),
		&extractquery.Input{Input: "Show flood analysis for Coimbatore"})
	assert.Error(t, err)
}

func testResolveLocation(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	logAdapter := &resolveLocationLoggerAdapter{logger.NewZapAdapter(log)}

	// Live Nominatim with the Redis cache in front, as production wires it
	nominatim := geocode.NewNominatimClient(geocode.Config{
		BaseURL:       cfg.Geocoding.BaseURL,
		UserAgent:     cfg.Geocoding.UserAgent,
		CountrySuffix: cfg.Geocoding.CountrySuffix,
		Timeout:       10 * time.Second,
	}, logger.NewZapAdapter(log))
	geocoder := geocode.NewCachedGeocoder(nominatim, rdb, time.Hour, logger.NewZapAdapter(log))

	handler := resolvelocation.NewHandler(resolvelocation.LoadConfig(),
		workflow.NewGeocodeResolver(geocoder, logger.NewZapAdapter(log)), logAdapter)

	out := handler.Execute(context.Background(), &resolvelocation.Input{Location: "Coimbatore"})
	require.NotNil(t, out)
	if !out.Resolved {
		t.Log("⚠️ Geocoding unavailable, worker degraded to unresolved turn")
		return
	}
	require.NotNil(t, out.Lat)
	require.NotNil(t, out.Lon)
	assert.InDelta(t, 11.0, *out.Lat, 1.0)
	assert.InDelta(t, 77.0, *out.Lon, 1.0)

	// Second call must come from the Redis cache
	cached := handler.Execute(context.Background(), &resolvelocation.Input{Location: "Coimbatore"})
	require.NotNil(t, cached)
	assert.True(t, cached.Resolved)
}

func testFloodVulnerability(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	logAdapter := &floodVulnerabilityLoggerAdapter{logger.NewZapAdapter(log)}

	// Without platform credentials the worker must degrade to a marker-only
	// map instead of failing the job.
	eeClient := earthengine.NewClient(earthengine.Config{
		BaseURL:         "http://localhost:8080/mock",
		ProjectID:       "e2e-test",
		TileURLTemplate: "http://localhost:8080/mock/{mapid}/tiles/{z}/{x}/{y}?token={token}",
		Timeout:         5 * time.Second,
	}, nil, logger.NewZapAdapter(log))
	geoService := earthengine.NewService(eeClient, earthengine.ServiceConfig{
		BufferMeters: 10000,
		ScaleMeters:  90,
	}, logger.NewZapAdapter(log))

	handler := floodvulnerability.NewHandler(floodvulnerability.LoadConfig(), geoService, rdb, logAdapter)

	out := handler.Execute(context.Background(), &floodvulnerability.Input{
		Location: "Coimbatore",
		Lat:      models.Float64(11.0168),
		Lon:      models.Float64(76.9558),
	})
	require.NotNil(t, out)
	assert.NotEmpty(t, out.ResultSummary)
	assert.NotEmpty(t, out.MapPayload.Markers)

	// Missing coordinates also complete the job with a synthetic payload
	noCoords := handler.Execute(context.Background(), &floodvulnerability.Input{Location: "Coimbatore"})
	require.NotNil(t, noCoords)
	assert.Contains(t, noCoords.ResultSummary, "Missing coordinates")
}

func testScoreVulnerability(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	eeClient := earthengine.NewClient(earthengine.Config{
		BaseURL:         "http://localhost:8080/mock",
		ProjectID:       "e2e-test",
		TileURLTemplate: "http://localhost:8080/mock/{mapid}/tiles/{z}/{x}/{y}?token={token}",
		Timeout:         5 * time.Second,
	}, nil, logger.NewZapAdapter(log))
	geoService := earthengine.NewService(eeClient, earthengine.ServiceConfig{
		BufferMeters: 10000,
		ScaleMeters:  90,
	}, logger.NewZapAdapter(log))

	handler := scorevulnerability.NewHandler(scorevulnerability.LoadConfig(), geoService, logger.NewZapAdapter(log))

	// Degenerate bounds must be rejected before any platform call
	_, err := handler.Execute(context.Background(), &scorevulnerability.Input{
		Bounds: models.Bounds{North: 11.0, South: 11.2, East: 77.0, West: 76.9},
	})
	assert.ErrorIs(t, err, scorevulnerability.ErrInvalidBounds)

	// Valid bounds against an unreachable platform must report the analysis failure
	_, err = handler.Execute(context.Background(), &scorevulnerability.Input{
		Bounds:       models.Bounds{North: 11.2, South: 11.0, East: 77.1, West: 76.9},
		AnalysisType: "flood",
	})
	assert.ErrorIs(t, err, scorevulnerability.ErrAnalysisFailed)
}

func testQueryHistory(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	qhCfg := queryhistory.LoadConfig()
	qhCfg.Index = cfg.Database.Elasticsearch.Index
	handler := queryhistory.NewHandler(qhCfg, db, es, logger.NewZapAdapter(log))

	// Proximity query around the seeded Coimbatore assessment
	out, err := handler.Execute(context.Background(), &queryhistory.Input{
		Lat:   11.0168,
		Lon:   76.9558,
		Limit: 5,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Count, 1, "seeded assessment should be in range")
	assert.Len(t, out.Assessments, out.Count)

	// Text-filtered query; a missing index degrades instead of failing
	filtered, err := handler.Execute(context.Background(), &queryhistory.Input{
		Lat:   11.0168,
		Lon:   76.9558,
		Limit: 5,
		Query: "flood",
	})
	require.NoError(t, err)
	assert.NotNil(t, filtered)
}

func testNotifyHighRisk(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	// Alerts disabled: the worker completes with a skip reason
	disabledCfg := notifyhighrisk.LoadConfig()
	handler := notifyhighrisk.NewHandler(disabledCfg, nil, nil, logger.NewZapAdapter(log))

	out := handler.Execute(context.Background(), &notifyhighrisk.Input{
		Location:  "Coimbatore",
		RiskLevel: "High",
	})
	require.NotNil(t, out)
	assert.False(t, out.Alerted)
	assert.Equal(t, notifyhighrisk.SkipDisabled, out.Skipped)

	// Enabled but with no channels wired: still a clean skip
	enabledCfg := notifyhighrisk.LoadConfig()
	enabledCfg.Enabled = true
	enabledCfg.Recipients = []string{"ops@example.com"}
	handler = notifyhighrisk.NewHandler(enabledCfg, nil, nil, logger.NewZapAdapter(log))

	out = handler.Execute(context.Background(), &notifyhighrisk.Input{
		Location:  "Coimbatore",
		RiskLevel: "High",
	})
	require.NotNil(t, out)
	assert.False(t, out.Alerted)
	assert.Equal(t, notifyhighrisk.SkipNoChannels, out.Skipped)

	// Below the risk threshold: no alert regardless of channels
	out = handler.Execute(context.Background(), &notifyhighrisk.Input{
		Location:  "Coimbatore",
		RiskLevel: "Low",
	})
	require.NotNil(t, out)
	assert.Equal(t, notifyhighrisk.SkipBelowThreshold, out.Skipped)
}

func testArchiveAnalysis(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *database.ElasticsearchClient, rdb *database.RedisClient) {
	aaCfg := archiveanalysis.LoadConfig()
	aaCfg.Index = cfg.Database.Elasticsearch.Index
	handler := archiveanalysis.NewHandler(aaCfg, db, es, rdb, logger.NewZapAdapter(log))

	out, err := handler.Execute(context.Background(), &archiveanalysis.Input{
		Location:   "Coimbatore",
		Lat:        11.0168,
		Lon:        76.9558,
		RiskLevel:  "High",
		DepthIndex: 0.82,
		Summary:    "E2E archived flood vulnerability assessment",
		Analysis:   "flood_analysis",
	})
	require.NoError(t, err)
	assert.True(t, out.Archived)
	assert.NotEmpty(t, out.AssessmentID)
	assert.NotEmpty(t, out.ArchivedAt)

	// Verify the Postgres row actually landed
	var count int
	err = db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM flood_assessments WHERE id = $1`, out.AssessmentID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "archived assessment should be queryable")
}

// ==========================
// Benchmarks (no-network handler paths)
// ==========================

func BenchmarkHandler_NotifyHighRisk_Skip(b *testing.B) {
	log, _ := zap.NewProduction()
	handler := notifyhighrisk.NewHandler(notifyhighrisk.LoadConfig(), nil, nil, logger.NewZapAdapter(log))

	input := &notifyhighrisk.Input{
		Location:  "Coimbatore",
		RiskLevel: "High",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}

func BenchmarkHandler_ScoreVulnerability_BoundsValidation(b *testing.B) {
	log, _ := zap.NewProduction()
	eeClient := earthengine.NewClient(earthengine.Config{
		BaseURL:   "http://localhost:8080/mock",
		ProjectID: "bench",
		Timeout:   time.Second,
	}, nil, logger.NewZapAdapter(log))
	geoService := earthengine.NewService(eeClient, earthengine.ServiceConfig{}, logger.NewZapAdapter(log))
	handler := scorevulnerability.NewHandler(scorevulnerability.LoadConfig(), geoService, logger.NewZapAdapter(log))

	input := &scorevulnerability.Input{
		Bounds: models.Bounds{North: 11.0, South: 11.2, East: 77.0, West: 76.9},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}

func BenchmarkHandler_FloodVulnerability_MissingCoordinates(b *testing.B) {
	log, _ := zap.NewProduction()
	logAdapter := &floodVulnerabilityLoggerAdapter{logger.NewZapAdapter(log)}
	eeClient := earthengine.NewClient(earthengine.Config{
		BaseURL:   "http://localhost:8080/mock",
		ProjectID: "bench",
		Timeout:   time.Second,
	}, nil, logger.NewZapAdapter(log))
	geoService := earthengine.NewService(eeClient, earthengine.ServiceConfig{}, logger.NewZapAdapter(log))
	handler := floodvulnerability.NewHandler(floodvulnerability.LoadConfig(), geoService, nil, logAdapter)

	input := &floodvulnerability.Input{Location: "Coimbatore"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}
