// internal/workers/analysis/query-history/handler.go
package queryhistory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/metrics"
	"disaster-eye-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-history"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
)

// Searcher is the slice of the search backend used for text lookups.
type Searcher interface {
	Search(ctx context.Context, index string, query []byte) ([]byte, error)
}

type Handler struct {
	config *Config
	db     *sql.DB
	search Searcher
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, search Searcher, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		search: search,
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
		errorCode := "QUERY_EXECUTION_FAILED"
		retries := int32(0)
		if errors.Is(err, ErrQueryExecutionFailed) {
			retries = 2
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	if limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}

	assessments, err := h.queryByProximity(ctx, input.Lat, input.Lon, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	output := &Output{
		Assessments: assessments,
		Count:       len(assessments),
	}

	// An optional text search widens the result set; its failure degrades
	// to the SQL results alone.
	if input.Query != "" {
		extra, err := h.searchByText(ctx, input.Query, limit)
		if err != nil {
			h.logger.Warn("text search failed, serving SQL results only", map[string]interface{}{
				"query": input.Query,
				"error": err.Error(),
			})
			output.SearchDegraded = true
		} else {
			output.Assessments = mergeByID(output.Assessments, extra, limit)
			output.Count = len(output.Assessments)
		}
	}

	h.logger.Info("history query served", map[string]interface{}{
		"lat":   input.Lat,
		"lng":   input.Lon,
		"count": output.Count,
	})

	return output, nil
}

func (h *Handler) queryByProximity(ctx context.Context, lat, lng float64, limit int) ([]models.FloodAssessment, error) {
	window := h.config.ProximityDegrees
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, location, lat, lng, risk_level, depth_index, summary, analysis, created_at
		FROM flood_assessments
		WHERE lat BETWEEN $1 AND $2
		  AND lng BETWEEN $3 AND $4
		ORDER BY created_at DESC
		LIMIT $5`,
		lat-window, lat+window,
		lng-window, lng+window,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []models.FloodAssessment
	for rows.Next() {
		var a models.FloodAssessment
		var analysis sql.NullString
		if err := rows.Scan(&a.ID, &a.Location, &a.Lat, &a.Lng, &a.RiskLevel, &a.DepthIndex, &a.Summary, &analysis, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Analysis = analysis.String
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

func (h *Handler) searchByText(ctx context.Context, text string, limit int) ([]models.FloodAssessment, error) {
	query, err := json.Marshal(map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"location^2", "summary"},
			},
		},
		"sort": []map[string]interface{}{
			{"createdAt": map[string]string{"order": "desc"}},
		},
	})
	if err != nil {
		return nil, err
	}

	raw, err := h.search.Search(ctx, h.config.Index, query)
	if err != nil {
		return nil, err
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source models.FloodAssessment `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	assessments := make([]models.FloodAssessment, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		assessments = append(assessments, hit.Source)
	}
	return assessments, nil
}

// mergeByID appends search hits not already present, keeping SQL order
// first and capping at limit.
func mergeByID(base, extra []models.FloodAssessment, limit int) []models.FloodAssessment {
	seen := make(map[string]bool, len(base))
	for _, a := range base {
		seen[a.ID] = true
	}
	merged := base
	for _, a := range extra {
		if len(merged) >= limit {
			break
		}
		if !seen[a.ID] {
			seen[a.ID] = true
			merged = append(merged, a)
		}
	}
	return merged
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
