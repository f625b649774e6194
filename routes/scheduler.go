package routes

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic background task
type Job struct {
	Name     string
	Interval time.Duration // zero disables the job
	Run      func(ctx context.Context) (int, error)
}

// Scheduler runs jobs on tickers until its context is cancelled
type Scheduler struct {
	jobs []Job
	log  *slog.Logger
}

func NewScheduler(log *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, log: log}
}

// Start launches one goroutine per enabled job and blocks until ctx is done
// and every job has returned
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.log.Info("scheduled job disabled", "job", job.Name)
			continue
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := job.Run(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Error("scheduled job failed", "job", job.Name, "error", err)
				}
				continue
			}
			if n > 0 {
				s.log.Info("scheduled job done", "job", job.Name, "count", n)
			}
		}
	}
}
