// internal/workers/conversation/flood-vulnerability/handler.go
package floodvulnerability

import (
	"context"
	"encoding/json"
	"fmt"

	"disaster-eye-workers/internal/common/database"
	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/metrics"
	"disaster-eye-workers/internal/mapdata"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/report"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "flood-vulnerability"
)

// Analyzer is the slice of the geospatial service this worker uses.
type Analyzer interface {
	FloodHazard(ctx context.Context, lat, lng float64) (*earthengine.FloodHazardData, error)
	FloodLayers(ctx context.Context, lat, lng float64) (*earthengine.FloodLayerSet, error)
}

// AssessmentCache serves recently archived assessments for the same point.
// A nil cache disables the short-circuit.
type AssessmentCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config   *Config
	analyzer Analyzer
	cache    AssessmentCache
	logger   Logger
}

func NewHandler(config *Config, analyzer Analyzer, cache AssessmentCache, log Logger) *Handler {
	return &Handler{
		config:   config,
		analyzer: analyzer,
		cache:    cache,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	// Platform failures degrade into the output payload; the job itself
	// only fails on unparseable variables.
	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	if input.Lat == nil || input.Lon == nil {
		summary := "Missing coordinates for flood analysis"
		h.logger.Error(summary, map[string]interface{}{"location": input.Location})
		return &Output{
			ResultSummary: summary,
			MapPayload:    mapdata.MissingCoordinatesMap(summary),
		}
	}

	lat, lng := *input.Lat, *input.Lon
	label := input.Location
	if label == "" {
		label = models.DefaultLocationLabel
	}

	if output := h.fromCache(ctx, lat, lng, label); output != nil {
		return output
	}

	data, err := h.analyzer.FloodHazard(ctx, lat, lng)
	if err != nil {
		summary := fmt.Sprintf("Basic map for (%v, %v). Error in flood analysis: %v", lat, lng, err)
		h.logger.Error("flood analysis failed", map[string]interface{}{
			"lat":   lat,
			"lng":   lng,
			"error": err.Error(),
		})
		return &Output{
			ResultSummary: summary,
			MapPayload:    mapdata.MarkerOnlyMap(lat, lng, label, mapdata.ErrLoadLayersMessage),
		}
	}

	summary := report.Assessment(label, lat, lng, data.DepthIndex)
	risk := report.ClassifyDepth(data.DepthIndex)

	payload := mapdata.BuildFloodMap(lat, lng, label, mapdata.TileURLs{
		Flood:     data.Flood.TileURL,
		Water:     data.Water.TileURL,
		Elevation: data.Elevation.TileURL,
	})
	if err := mapdata.Validate(payload); err != nil {
		h.logger.Error("map payload failed validation", map[string]interface{}{
			"error": err.Error(),
		})
		return &Output{
			ResultSummary: summary,
			MapPayload:    mapdata.MarkerOnlyMap(lat, lng, label, mapdata.ErrLoadLayersMessage),
			RiskLevel:     string(risk),
			DepthIndex:    models.Float64(data.DepthIndex),
		}
	}

	metrics.AssessmentsByRisk.WithLabelValues(string(risk)).Inc()
	h.logger.Info("flood vulnerability analysis completed", map[string]interface{}{
		"location":   label,
		"riskLevel":  string(risk),
		"depthIndex": data.DepthIndex,
	})

	return &Output{
		ResultSummary: summary,
		MapPayload:    payload,
		RiskLevel:     string(risk),
		DepthIndex:    models.Float64(data.DepthIndex),
	}
}

// fromCache rebuilds the response from an archived assessment of the same
// point. The zonal statistics are skipped; tile layers are still rendered
// fresh because map tokens expire. Any failure on this path returns nil
// and the full analysis runs instead.
func (h *Handler) fromCache(ctx context.Context, lat, lng float64, label string) *Output {
	if h.cache == nil {
		return nil
	}

	var cached models.FloodAssessment
	if err := h.cache.GetJSON(ctx, models.AssessmentCacheKey(lat, lng), &cached); err != nil {
		if !database.IsCacheMiss(err) {
			h.logger.Warn("assessment cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		metrics.AssessmentCacheHits.WithLabelValues("miss").Inc()
		return nil
	}

	layers, err := h.analyzer.FloodLayers(ctx, lat, lng)
	if err != nil {
		h.logger.Warn("layer render failed for cached assessment, re-running analysis", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	payload := mapdata.BuildFloodMap(lat, lng, label, mapdata.TileURLs{
		Flood:     layers.Flood.TileURL,
		Water:     layers.Water.TileURL,
		Elevation: layers.Elevation.TileURL,
	})
	if err := mapdata.Validate(payload); err != nil {
		h.logger.Error("map payload failed validation", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	risk := report.ClassifyDepth(cached.DepthIndex)
	summary := report.Assessment(label, lat, lng, cached.DepthIndex)

	metrics.AssessmentCacheHits.WithLabelValues("hit").Inc()
	h.logger.Info("served flood assessment from cache", map[string]interface{}{
		"location":   label,
		"riskLevel":  string(risk),
		"depthIndex": cached.DepthIndex,
	})

	return &Output{
		ResultSummary: summary,
		MapPayload:    payload,
		RiskLevel:     string(risk),
		DepthIndex:    models.Float64(cached.DepthIndex),
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	errorCode := "PARSE_ERROR"

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}
