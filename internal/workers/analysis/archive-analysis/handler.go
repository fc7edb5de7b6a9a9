// internal/workers/analysis/archive-analysis/handler.go
package archiveanalysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/metrics"
	"disaster-eye-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "archive-analysis"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

// SearchIndexer is the slice of the search backend this worker uses.
// Index failures degrade; the archive is still considered written.
type SearchIndexer interface {
	IndexDocument(ctx context.Context, index, id string, body []byte) error
}

// AssessmentCache short-circuits repeat producer runs for the same point.
type AssessmentCache interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Handler struct {
	config  *Config
	db      *sql.DB
	search  SearchIndexer
	cache   AssessmentCache
	logger  logger.Logger
}

func NewHandler(config *Config, db *sql.DB, search SearchIndexer, cache AssessmentCache, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		search: search,
		cache:  cache,
		logger: log.With(map[string]interface{}{"taskType": TaskType}),
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
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	assessmentID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	location := input.Location
	if location == "" {
		location = models.DefaultLocationLabel
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO flood_assessments (
			id, location, lat, lng, risk_level, depth_index, summary, analysis, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		assessmentID,
		location,
		input.Lat,
		input.Lon,
		input.RiskLevel,
		input.DepthIndex,
		input.Summary,
		input.Analysis,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	record := models.FloodAssessment{
		ID:         assessmentID,
		Location:   location,
		Lat:        input.Lat,
		Lng:        input.Lon,
		RiskLevel:  models.RiskLevel(input.RiskLevel),
		DepthIndex: input.DepthIndex,
		Summary:    input.Summary,
		Analysis:   input.Analysis,
		CreatedAt:  createdAt,
	}

	output := &Output{
		AssessmentID: assessmentID,
		Archived:     true,
		ArchivedAt:   createdAt,
	}

	// Search index and cache are best-effort: failures degrade, never
	// fail the job.
	if doc, err := json.Marshal(record); err == nil {
		if err := h.search.IndexDocument(ctx, h.config.Index, assessmentID, doc); err != nil {
			h.logger.Warn("search index failed, continuing", map[string]interface{}{
				"assessmentId": assessmentID,
				"error":        err.Error(),
			})
		} else {
			output.Indexed = true
		}
	}

	if err := h.cache.SetJSON(ctx, models.AssessmentCacheKey(input.Lat, input.Lon), record, h.config.CacheTTL); err != nil {
		h.logger.Warn("assessment cache write failed, continuing", map[string]interface{}{
			"assessmentId": assessmentID,
			"error":        err.Error(),
		})
	} else {
		output.Cached = true
	}

	h.logger.Info("assessment archived", map[string]interface{}{
		"assessmentId": assessmentID,
		"location":     location,
		"riskLevel":    input.RiskLevel,
		"indexed":      output.Indexed,
		"cached":       output.Cached,
	})

	return output, nil
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
