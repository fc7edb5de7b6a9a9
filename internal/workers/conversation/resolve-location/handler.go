// internal/workers/conversation/resolve-location/handler.go
package resolvelocation

import (
	"context"
	"encoding/json"
	"fmt"

	"disaster-eye-workers/internal/common/metrics"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-location"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config   *Config
	resolver workflow.LocationResolver
	logger   Logger
}

func NewHandler(config *Config, resolver workflow.LocationResolver, log Logger) *Handler {
	return &Handler{
		config:   config,
		resolver: resolver,
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

	// A miss or a provider failure is a valid outcome, never a job failure:
	// the turn continues without coordinates.
	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	if input.Location == "" {
		return &Output{Resolved: false}
	}

	coords, err := h.resolver.Resolve(ctx, input.Location)
	if err != nil {
		h.logger.Warn("geocoding failed, continuing without coordinates", map[string]interface{}{
			"location": input.Location,
			"error":    err.Error(),
		})
		return &Output{Resolved: false}
	}
	if coords == nil {
		h.logger.Info("no coordinates found", map[string]interface{}{
			"location": input.Location,
		})
		return &Output{Resolved: false}
	}

	h.logger.Info("location resolved", map[string]interface{}{
		"location": input.Location,
		"lat":      coords.Lat,
		"lng":      coords.Lng,
	})

	return &Output{
		Resolved: true,
		Lat:      models.Float64(coords.Lat),
		Lon:      models.Float64(coords.Lng),
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
