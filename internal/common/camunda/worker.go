// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"disaster-eye-workers/internal/common/config"
	"disaster-eye-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

// Fleet tracks the open job workers so shutdown can drain them before
// the broker connection drops.
type Fleet struct {
	client  *Client
	logger  *zap.Logger
	workers []worker.JobWorker
	types   []string
}

// NewFleet creates an empty worker fleet on the given broker connection.
func NewFleet(client *Client, log *zap.Logger) *Fleet {
	return &Fleet{
		client: client,
		logger: log,
	}
}

// Start opens a job worker for the task type. Handlers complete or fail
// their own jobs; the fleet only opens and closes the pollers. Disabled
// workers are skipped with a log line so a trimmed deployment is visible
// at boot.
func (f *Fleet) Start(taskType string, wcfg config.WorkerConfig, handler func(worker.JobClient, entities.Job)) {
	if !wcfg.Enabled {
		f.logger.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	instrumented := func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		start := time.Now()
		handler(client, job)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
	}

	jobWorker := f.client.GetClient().NewJobWorker().
		JobType(taskType).
		Handler(instrumented).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	f.workers = append(f.workers, jobWorker)
	f.types = append(f.types, taskType)

	f.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}

// Size reports how many workers are open.
func (f *Fleet) Size() int {
	return len(f.workers)
}

// Close drains every open worker. The broker connection stays up until
// the caller closes the client.
func (f *Fleet) Close() {
	for i, w := range f.workers {
		f.logger.Info("stopping worker", zap.String("taskType", f.types[i]))
		w.Close()
	}
	f.workers = nil
	f.types = nil
}
