package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lawn-engine/internal/config"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"
	"lawn-engine/internal/repo"
)

type JobProcessor interface {
	ProcessJob(ctx context.Context, job *model.EngineJob) error
}

// Worker runs Concurrency goroutines that poll the job table, claim one job at a time and
// hand it to the processor, heartbeating while it runs.
type Worker struct {
	jobs      repo.EngineJobRepo
	processor JobProcessor
	cfg       config.WorkerConfig
	log       *logger.Logger
}

func NewWorker(jobs repo.EngineJobRepo, processor JobProcessor, cfg config.WorkerConfig, baseLog *logger.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Worker{
		jobs:      jobs,
		processor: processor,
		cfg:       cfg,
		log:       baseLog.With("component", "JobWorker"),
	}
}

// Run blocks until ctx is cancelled and every goroutine has returned.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("job worker started", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval)
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}
	wg.Wait()
	w.log.Info("job worker stopped")
}

func (w *Worker) loop(ctx context.Context, slot int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// drain what is runnable before waiting for the next tick
			for ctx.Err() == nil && w.RunOnce(ctx, slot) {
			}
		}
	}
}

// RunOnce claims and processes at most one job. It reports whether a job was claimed.
func (w *Worker) RunOnce(ctx context.Context, slot int) bool {
	job, err := w.jobs.ClaimNextRunnable(ctx, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleAfter)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("claim next job failed", "slot", slot, "error", err)
		}
		return false
	}
	if job == nil {
		return false
	}

	stop := w.heartbeat(ctx, job)
	defer stop()

	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("job handler panic", "job_id", job.ID, "panic", r)
				if err := w.jobs.MarkFailed(ctx, job.ID, model.JobFailed, fmt.Sprintf("panic: %v", r)); err != nil {
					w.log.Error("mark panicked job failed", "job_id", job.ID, "error", err)
				}
			}
		}()
		if err := w.processor.ProcessJob(ctx, job); err != nil {
			w.log.Warn("job failed", "job_id", job.ID, "lawn_id", job.LawnID, "attempt", job.Attempts, "error", err)
			return
		}
		w.log.Debug("job complete", "job_id", job.ID, "lawn_id", job.LawnID)
	}()
	return true
}

func (w *Worker) heartbeat(ctx context.Context, job *model.EngineJob) func() {
	every := w.cfg.StaleAfter / 3
	if every <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				if err := w.jobs.Heartbeat(ctx, job.ID); err != nil {
					w.log.Warn("job heartbeat failed", "job_id", job.ID, "error", err)
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
