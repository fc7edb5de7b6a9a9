// cmd/agent-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"disaster-eye-workers/internal/common/auth"
	"disaster-eye-workers/internal/common/config"
	"disaster-eye-workers/internal/common/database"
	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/geocode"
	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/observability"
	"disaster-eye-workers/internal/server"
	"disaster-eye-workers/internal/workflow"

	aa "disaster-eye-workers/internal/workers/analysis/archive-analysis"
	qh "disaster-eye-workers/internal/workers/analysis/query-history"
	sv "disaster-eye-workers/internal/workers/analysis/score-vulnerability"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// newProvider builds the configured completion client. The client is always
// constructed, even without an API key, because the workflow nodes call it
// and recover through their keyword paths when it errors. The second return
// value reports whether a key is actually present.
func newProvider(cfg *config.Config, log logger.Logger) (llm.Provider, bool) {
	switch cfg.LLM.Provider {
	case "anthropic":
		client := llm.NewAnthropicClient(llm.AnthropicConfig{
			APIKey:    cfg.LLM.Anthropic.APIKey,
			Model:     cfg.LLM.Anthropic.Model,
			MaxTokens: cfg.LLM.Anthropic.MaxTokens,
		}, log)
		return client, cfg.LLM.Anthropic.APIKey != ""
	default:
		client := llm.NewGroqClient(llm.GroqConfig{
			BaseURL:     cfg.LLM.Groq.BaseURL,
			APIKey:      cfg.LLM.Groq.APIKey,
			Model:       cfg.LLM.Groq.Model,
			Temperature: cfg.LLM.Groq.Temperature,
			MaxTokens:   cfg.LLM.Groq.MaxTokens,
			MaxRetries:  2,
		}, log)
		return client, cfg.LLM.Groq.APIKey != ""
	}
}

// newEarthEngine wires the geospatial service. Missing or unreadable
// credentials leave the service uninitialized and the analysis routes
// answer 503 instead of the process refusing to start.
func newEarthEngine(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) *earthengine.Service {
	var tokenSource oauth2.TokenSource
	if cfg.EarthEngine.CredentialsFile == "" {
		zapLog.Warn("No Earth Engine credentials configured, geospatial analysis disabled")
	} else {
		sa, err := auth.LoadServiceAccount(cfg.EarthEngine.CredentialsFile)
		if err != nil {
			zapLog.Warn("Failed to load Earth Engine credentials, geospatial analysis disabled", zap.Error(err))
		} else {
			tokenSource = sa.TokenSource(ctx, auth.EarthEngineScope)
			zapLog.Info("Earth Engine credentials loaded", zap.String("clientEmail", sa.ClientEmail))
		}
	}

	client := earthengine.NewClient(earthengine.Config{
		BaseURL:         cfg.EarthEngine.BaseURL,
		ProjectID:       cfg.EarthEngine.ProjectID,
		TileURLTemplate: cfg.EarthEngine.TileURLTemplate,
		Timeout:         config.GetDuration(cfg.EarthEngine.Timeout),
	}, tokenSource, log)

	return earthengine.NewService(client, earthengine.ServiceConfig{
		BufferMeters: float64(cfg.EarthEngine.BufferMeters),
		ScaleMeters:  float64(cfg.EarthEngine.ScaleMeters),
	}, log)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting agent server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("provider", cfg.LLM.Provider),
	)

	obs := observability.New("agent-server")
	defer obs.Shutdown()
	if cfg.Observability.TracingEnabled {
		if err := obs.EnableTracing(cfg.Observability.JaegerEndpoint); err != nil {
			zapLog.Warn("Failed to enable tracing", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.EnsureAssessmentSchema(ctx); err != nil {
		zapLog.Fatal("assessment schema migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Completion provider ---
	provider, keyPresent := newProvider(cfg, log)
	if !keyPresent {
		zapLog.Warn("No completion API key configured, conversation turns will use keyword fallbacks",
			zap.String("provider", cfg.LLM.Provider))
	}

	// --- Geocoding ---
	nominatim := geocode.NewNominatimClient(geocode.Config{
		BaseURL:       cfg.Geocoding.BaseURL,
		UserAgent:     cfg.Geocoding.UserAgent,
		CountrySuffix: cfg.Geocoding.CountrySuffix,
		Timeout:       config.GetDuration(cfg.Geocoding.Timeout),
	}, log)
	geocoder := geocode.NewCachedGeocoder(nominatim, redis, time.Duration(cfg.Geocoding.CacheTTL)*time.Second, log)

	// --- Earth Engine ---
	geoService := newEarthEngine(ctx, cfg, zapLog, log)

	// --- Conversation workflow ---
	wf := workflow.New(
		workflow.NewLLMClassifier(provider, log),
		workflow.NewLLMExtractor(provider, log),
		workflow.NewGeocodeResolver(geocoder, log),
		workflow.NewFloodAnalysisProducer(geoService, log),
		log,
	)

	// --- Analysis handlers shared with the worker fleet ---
	qhCfg := qh.LoadConfig()
	qhCfg.Index = cfg.Database.Elasticsearch.Index
	history := qh.NewHandler(qhCfg, pg.DB, esClient, log)

	scorer := sv.NewHandler(sv.LoadConfig(), geoService, log)

	aaCfg := aa.LoadConfig()
	aaCfg.Index = cfg.Database.Elasticsearch.Index
	archiver := aa.NewHandler(aaCfg, pg.DB, esClient, redis, log)

	// The health endpoint and the direct query routes treat a keyless
	// provider as absent.
	var serverProvider llm.Provider
	if keyPresent {
		serverProvider = provider
	}

	srv := server.New(cfg, server.Deps{
		Workflow:      wf,
		Geo:           geoService,
		Provider:      serverProvider,
		History:       history,
		Scorer:        scorer,
		Archiver:      archiver,
		Observability: obs,
	}, log)

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Graceful shutdown failed", zap.Error(err))
	}

	zapLog.Info("Agent server stopped gracefully")
}
