package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Worker processes a single restructuring job.
type Worker struct {
	runner *Runner
	log    *slog.Logger
}

// NewWorker creates a worker that runs jobs through runner.
func NewWorker(runner *Runner, log *slog.Logger) *Worker {
	return &Worker{runner: runner, log: log}
}

// Process fetches the job's documents and runs its operation.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "operation", job.Request.Operation)
	start := time.Now()

	if err := job.Request.Validate(); err != nil {
		log.Warn("rejected job", "error", err)
		job.Fail(err)
		return
	}

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	inputs, err := w.runner.Inputs(ctx, job.Request.DocumentIDs)
	if err != nil {
		log.Error("fetch failed", "error", err)
		job.Fail(err)
		return
	}

	// Phase 2: Restructure
	job.SetStatus(StatusRunning, "restructuring")
	res, err := w.runner.Execute(ctx, job.Request, inputs)
	if err != nil {
		log.Error("operation failed", "error", err)
		job.Fail(err)
		return
	}

	job.Complete(res)
	log.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
}
