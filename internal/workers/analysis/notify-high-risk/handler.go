// internal/workers/analysis/notify-high-risk/handler.go
package notifyhighrisk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/metrics"
	"disaster-eye-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-high-risk"
)

// Define interfaces for mocking
type AlertEmailer interface {
	SendAlertEmail(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

type AlertPublisher interface {
	PublishAlert(ctx context.Context, topicARN, subject, message string) (string, error)
}

type Handler struct {
	config    *Config
	emailer   AlertEmailer
	publisher AlertPublisher
	logger    logger.Logger
}

func NewHandler(config *Config, emailer AlertEmailer, publisher AlertPublisher, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		emailer:   emailer,
		publisher: publisher,
		logger:    log.With(map[string]interface{}{"taskType": TaskType}),
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

	// Alerting is best-effort: channel failures degrade into the output,
	// they never fail the turn.
	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	if !h.config.Enabled {
		return &Output{Skipped: SkipDisabled}
	}
	if !meetsThreshold(input.RiskLevel, h.config.MinRiskLevel) {
		h.logger.Debug("risk below alert threshold", map[string]interface{}{
			"riskLevel": input.RiskLevel,
			"minRisk":   h.config.MinRiskLevel,
		})
		return &Output{Skipped: SkipBelowThreshold}
	}

	location := input.Location
	if location == "" {
		location = models.DefaultLocationLabel
	}

	subject := fmt.Sprintf("Flood risk alert: %s", location)
	body := alertBody(input, location)
	output := &Output{}

	if h.emailer != nil && h.config.EmailEnabled && len(h.config.Recipients) > 0 {
		messageID, err := h.emailer.SendAlertEmail(ctx, h.config.FromEmail, h.config.Recipients, subject, body)
		if err != nil {
			h.logger.Error("alert email failed", map[string]interface{}{
				"location": location,
				"error":    err.Error(),
			})
			metrics.AlertsDispatched.WithLabelValues("email", "failed").Inc()
		} else {
			output.EmailSent = true
			metrics.AlertsDispatched.WithLabelValues("email", "sent").Inc()
			h.logger.Info("alert email sent", map[string]interface{}{
				"location":   location,
				"messageId":  messageID,
				"recipients": len(h.config.Recipients),
			})
		}
	}

	if h.publisher != nil && h.config.TopicEnabled && h.config.TopicARN != "" {
		messageID, err := h.publisher.PublishAlert(ctx, h.config.TopicARN, subject, body)
		if err != nil {
			h.logger.Error("alert publish failed", map[string]interface{}{
				"location": location,
				"error":    err.Error(),
			})
			metrics.AlertsDispatched.WithLabelValues("sns", "failed").Inc()
		} else {
			output.TopicSent = true
			metrics.AlertsDispatched.WithLabelValues("sns", "sent").Inc()
			h.logger.Info("alert published", map[string]interface{}{
				"location":  location,
				"messageId": messageID,
			})
		}
	}

	output.Alerted = output.EmailSent || output.TopicSent
	if output.Alerted {
		output.AlertedAt = time.Now().UTC().Format(time.RFC3339)
	} else if !h.config.EmailEnabled && !h.config.TopicEnabled {
		output.Skipped = SkipNoChannels
	}

	return output
}

// alertBody composes the plain-text alert shared by both channels.
func alertBody(input *Input, location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flood risk level %s reported for %s.\n", input.RiskLevel, location)
	if input.Lat != nil && input.Lon != nil {
		fmt.Fprintf(&b, "Coordinates: %.4f, %.4f\n", *input.Lat, *input.Lon)
	}
	if input.DepthIndex != nil {
		fmt.Fprintf(&b, "Flood depth index: %.3f\n", *input.DepthIndex)
	}
	if input.Summary != "" {
		b.WriteString("\n")
		b.WriteString(input.Summary)
	}
	return b.String()
}

// meetsThreshold compares risk tiers by rank so "Medium" and "Moderate"
// labels alert at the same level.
func meetsThreshold(risk, minimum string) bool {
	r, m := riskRank(risk), riskRank(minimum)
	return r > 0 && r >= m
}

func riskRank(level string) int {
	switch strings.ToLower(level) {
	case "high":
		return 3
	case "moderate", "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
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

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}
