package worker

import (
	"context"
	"log/slog"
	"time"
)

// Job is one pipeline run.
type Job interface {
	RunOnce(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) RunOnce(ctx context.Context) error { return f(ctx) }

// Worker runs a job immediately and then once per interval. Runs never
// overlap; a failed run is logged and the schedule continues.
type Worker struct {
	job      Job
	interval time.Duration
	log      *slog.Logger

	successCount int
	errorCount   int
}

func New(job Job, interval time.Duration, log *slog.Logger) *Worker {
	return &Worker{
		job:      job,
		interval: interval,
		log:      log.With(slog.String("component", "worker")),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Watch worker started", slog.String("interval", w.interval.String()))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)
		case <-ctx.Done():
			w.log.Info("Watch worker stopping",
				slog.Int("successful", w.successCount),
				slog.Int("errors", w.errorCount),
			)
			return nil
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.job.RunOnce(ctx); err != nil {
		w.errorCount++
		w.log.Error("Scheduled run failed", slog.Any("error", err))
		return
	}
	w.successCount++
	w.log.Debug("Scheduled run completed", slog.Duration("duration", time.Since(start)))
}

// Stats returns the number of successful and failed runs so far.
func (w *Worker) Stats() (successful, failed int) { return w.successCount, w.errorCount }

// Interval returns the configured run interval.
func (w *Worker) Interval() time.Duration { return w.interval }
