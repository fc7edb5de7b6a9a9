// internal/workers/conversation/extract-query/handler.go
package extractquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/metrics"
	"disaster-eye-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-query"
)

var (
	ErrExtractionFailed = errors.New("QUERY_EXTRACTION_FAILED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config    *Config
	extractor workflow.QueryExtractor
	logger    Logger
}

func NewHandler(config *Config, extractor workflow.QueryExtractor, log Logger) *Handler {
	return &Handler{
		config:    config,
		extractor: extractor,
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
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, llm.ErrUnavailable) {
			retries = 2
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ext, err := h.extractor.Extract(ctx, input.Input)
	if err != nil {
		if errors.Is(err, llm.ErrQuotaExceeded) || errors.Is(err, llm.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if ext.Ask != workflow.ClarifyNone {
		h.logger.Info("turn needs clarification", map[string]interface{}{
			"missing": string(ext.Ask),
		})
		return &Output{
			Ask:       string(ext.Ask),
			AskPrompt: ext.Ask.Prompt(),
		}, nil
	}

	h.logger.Info("query extracted", map[string]interface{}{
		"location": ext.Location,
		"analysis": ext.Analysis,
	})

	return &Output{
		Location: ext.Location,
		Analysis: ext.Analysis,
	}, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "QUERY_EXTRACTION_FAILED"
	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		errorCode = "LLM_QUOTA_EXCEEDED"
	case errors.Is(err, llm.ErrUnavailable):
		errorCode = "LLM_UNAVAILABLE"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
