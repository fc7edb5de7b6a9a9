// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"disaster-eye-workers/internal/common/auth"
	"disaster-eye-workers/internal/common/aws"
	"disaster-eye-workers/internal/common/camunda"
	"disaster-eye-workers/internal/common/config"
	"disaster-eye-workers/internal/common/database"
	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/geocode"
	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/observability"
	"disaster-eye-workers/internal/workflow"

	// Conversation workers (4)
	ci "disaster-eye-workers/internal/workers/conversation/classify-intent"
	eq "disaster-eye-workers/internal/workers/conversation/extract-query"
	fv "disaster-eye-workers/internal/workers/conversation/flood-vulnerability"
	rl "disaster-eye-workers/internal/workers/conversation/resolve-location"

	// Analysis workers (4)
	aa "disaster-eye-workers/internal/workers/analysis/archive-analysis"
	nh "disaster-eye-workers/internal/workers/analysis/notify-high-risk"
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
// constructed, even without an API key, because the classify and extract
// workers call it and recover through their keyword paths when it errors.
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
// credentials leave the service uninitialized; the flood-vulnerability and
// score-vulnerability workers then fail their jobs with PLATFORM_UNAVAILABLE
// instead of the process refusing to start.
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

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("broker", cfg.Camunda.BrokerAddress),
	)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()
	if cfg.Observability.TracingEnabled {
		if err := obs.EnableTracing(cfg.Observability.JaegerEndpoint); err != nil {
			zapLog.Warn("Failed to enable tracing", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	// Construction probes the broker topology, so a successful connect
	// means the fleet can actually poll jobs.
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClient(cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

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
		zapLog.Warn("No completion API key configured, classify and extract workers will use keyword fallbacks",
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

	// --- Alert channels ---
	// Clients are only assigned into the interfaces when they exist, so the
	// notify worker's nil checks keep working.
	var emailer nh.AlertEmailer
	var publisher nh.AlertPublisher
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, sesErr := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if sesErr != nil {
			zapLog.Warn("SES client init failed, alert emails disabled", zap.Error(sesErr))
		} else {
			emailer = sesClient
		}
	}
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, snsErr := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if snsErr != nil {
			zapLog.Warn("SNS client init failed, alert topic disabled", zap.Error(snsErr))
		} else {
			publisher = snsClient
		}
	}

	// --- 1. Conversation Workers (4) ---
	fleet := camunda.NewFleet(zeebeClient, zapLog)

	ciAdapter := &classifyIntentLoggerAdapter{log}
	eqAdapter := &extractQueryLoggerAdapter{log}
	rlAdapter := &resolveLocationLoggerAdapter{log}
	fvAdapter := &floodVulnerabilityLoggerAdapter{log}

	if wcfg := config.GetWorkerConfig(cfg, ci.TaskType); wcfg.Enabled {
		handler := ci.NewHandler(ci.LoadConfig(), workflow.NewLLMClassifier(provider, log), ciAdapter)
		fleet.Start(ci.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, eq.TaskType); wcfg.Enabled {
		handler := eq.NewHandler(eq.LoadConfig(), workflow.NewLLMExtractor(provider, log), eqAdapter)
		fleet.Start(eq.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, rl.TaskType); wcfg.Enabled {
		handler := rl.NewHandler(rl.LoadConfig(), workflow.NewGeocodeResolver(geocoder, log), rlAdapter)
		fleet.Start(rl.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, fv.TaskType); wcfg.Enabled {
		handler := fv.NewHandler(fv.LoadConfig(), geoService, redis, fvAdapter)
		fleet.Start(fv.TaskType, wcfg, handler.Handle)
	}

	// --- 2. Analysis Workers (4) ---
	if wcfg := config.GetWorkerConfig(cfg, sv.TaskType); wcfg.Enabled {
		handler := sv.NewHandler(sv.LoadConfig(), geoService, log)
		fleet.Start(sv.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, qh.TaskType); wcfg.Enabled {
		qhCfg := qh.LoadConfig()
		qhCfg.Index = cfg.Database.Elasticsearch.Index
		handler := qh.NewHandler(qhCfg, pg.DB, esClient, log)
		fleet.Start(qh.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, nh.TaskType); wcfg.Enabled {
		nhCfg := nh.LoadConfig()
		nhCfg.Enabled = cfg.Alerts.Enabled
		nhCfg.MinRiskLevel = cfg.Alerts.MinRiskLevel
		nhCfg.Recipients = cfg.Alerts.Recipients
		nhCfg.EmailEnabled = cfg.Integrations.AWS.SES.Enabled
		nhCfg.FromEmail = cfg.Integrations.AWS.SES.FromEmail
		nhCfg.TopicEnabled = cfg.Integrations.AWS.SNS.Enabled
		nhCfg.TopicARN = cfg.Integrations.AWS.SNS.TopicARN
		handler := nh.NewHandler(nhCfg, emailer, publisher, log)
		fleet.Start(nh.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, aa.TaskType); wcfg.Enabled {
		aaCfg := aa.LoadConfig()
		aaCfg.Index = cfg.Database.Elasticsearch.Index
		handler := aa.NewHandler(aaCfg, pg.DB, esClient, redis, log)
		fleet.Start(aa.TaskType, wcfg, handler.Handle)
	}

	zapLog.Info("All workers registered successfully", zap.Int("workers", fleet.Size()))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			// Ready means the broker still answers topology requests.
			if err := zeebeClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
					"time":   time.Now().Format(time.RFC3339),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	fleet.Close()
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// Logger adapters for conversation workers that declare their own Logger interfaces
type classifyIntentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyIntentLoggerAdapter) With(fields map[string]interface{}) ci.Logger {
	return &classifyIntentLoggerAdapter{a.Logger.With(fields)}
}

type extractQueryLoggerAdapter struct {
	logger.Logger
}

func (a *extractQueryLoggerAdapter) With(fields map[string]interface{}) eq.Logger {
	return &extractQueryLoggerAdapter{a.Logger.With(fields)}
}

type resolveLocationLoggerAdapter struct {
	logger.Logger
}

func (a *resolveLocationLoggerAdapter) With(fields map[string]interface{}) rl.Logger {
	return &resolveLocationLoggerAdapter{a.Logger.With(fields)}
}

type floodVulnerabilityLoggerAdapter struct {
	logger.Logger
}

func (a *floodVulnerabilityLoggerAdapter) With(fields map[string]interface{}) fv.Logger {
	return &floodVulnerabilityLoggerAdapter{a.Logger.With(fields)}
}
