// internal/workers/analysis/score-vulnerability/handler.go
package scorevulnerability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/metrics"
	"disaster-eye-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-vulnerability"
)

var (
	ErrAnalysisFailed = errors.New("EE_QUERY_FAILED")
	ErrInvalidBounds  = errors.New("INVALID_BOUNDS")
)

// metersPerDegree approximates one degree of latitude.
const metersPerDegree = 111320.0

// Analyzer is the slice of the geospatial service this worker uses.
type Analyzer interface {
	FloodAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.SARFloodAnalysis, error)
	BuildingAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.BuildingAnalysis, error)
}

type Handler struct {
	config   *Config
	analyzer Analyzer
	logger   logger.Logger
}

func NewHandler(config *Config, analyzer Analyzer, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		analyzer: analyzer,
		logger:   log.With(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "EE_QUERY_FAILED"
		retries := int32(0)
		switch {
		case errors.Is(err, ErrInvalidBounds):
			errorCode = "INVALID_BOUNDS"
		case errors.Is(err, ErrAnalysisFailed):
			retries = 2
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateBounds(input.Bounds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, err)
	}

	center := input.Bounds.Center()
	radius := h.analysisRadius(input.Bounds)
	analysisType := normalizeAnalysisType(input.AnalysisType)

	result := models.RegionalAnalysis{
		Bounds:       input.Bounds,
		AnalysisType: analysisType,
	}
	var m Metrics

	if analysisType != "building" {
		flood, err := h.analyzer.FloodAnalysis(ctx, center.Lat, center.Lng, radius)
		if err != nil {
			return nil, fmt.Errorf("%w: flood analysis: %v", ErrAnalysisFailed, err)
		}
		result.Flood = flood
		m.FloodPercentage = flood.FloodPercentage
		m.AverageElevation = flood.AverageElevation
	}

	if analysisType != "flood" {
		building, err := h.analyzer.BuildingAnalysis(ctx, center.Lat, center.Lng, radius)
		if err != nil {
			return nil, fmt.Errorf("%w: building analysis: %v", ErrAnalysisFailed, err)
		}
		result.Building = building
		m.BuiltUpPercentage = building.BuiltUpPercentage
		m.DamagePercentage = building.DamagePercentage
	}

	result.Score = Score(m)
	result.Tier = Tier(result.Score)

	h.logger.Info("regional vulnerability scored", map[string]interface{}{
		"analysisType": analysisType,
		"centerLat":    center.Lat,
		"centerLng":    center.Lng,
		"score":        result.Score,
		"tier":         string(result.Tier),
	})

	return &Output{Result: result}, nil
}

// analysisRadius derives the sampling radius from the region's larger span,
// clamped to the configured window.
func (h *Handler) analysisRadius(b models.Bounds) float64 {
	latSpan := math.Abs(b.North-b.South) / 2
	lngSpan := math.Abs(b.East-b.West) / 2
	radius := math.Max(latSpan, lngSpan) * metersPerDegree

	if radius < h.config.MinRadiusMeters {
		return h.config.MinRadiusMeters
	}
	if radius > h.config.MaxRadiusMeters {
		return h.config.MaxRadiusMeters
	}
	return radius
}

func validateBounds(b models.Bounds) error {
	if b.North < b.South {
		return fmt.Errorf("north (%v) below south (%v)", b.North, b.South)
	}
	if b.North > 90 || b.South < -90 {
		return fmt.Errorf("latitude out of range [-90, 90]")
	}
	if b.East > 180 || b.West < -180 {
		return fmt.Errorf("longitude out of range [-180, 180]")
	}
	if b.North == b.South && b.East == b.West {
		return fmt.Errorf("degenerate region")
	}
	return nil
}

func normalizeAnalysisType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "flood", "flood_analysis":
		return "flood"
	case "building", "building_damage":
		return "building"
	default:
		return "comprehensive"
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, message string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     message,
		"errorCode": errorCode,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + message).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
