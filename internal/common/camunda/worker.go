package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"loan-lens/internal/common/config"
	"loan-lens/internal/common/logger"
)

// JobHandler is implemented by every decision worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Workers tracks opened job workers so they can be closed together.
type Workers struct {
	open   []worker.JobWorker
	logger logger.Logger
}

func NewWorkers(log logger.Logger) *Workers {
	return &Workers{logger: log}
}

// Start opens a job worker for taskType unless it is disabled.
func (w *Workers) Start(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler) {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	w.open = append(w.open, jobWorker)
	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

// Count reports how many workers are open.
func (w *Workers) Count() int {
	return len(w.open)
}

// Close stops every worker and waits for in-flight jobs.
func (w *Workers) Close() {
	for _, jw := range w.open {
		jw.Close()
		jw.AwaitClose()
	}
	w.open = nil
}
