package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbxbnb/BnBot/internal/logger"
)

// Job is a polling worker: one cycle per tick, cycles independent across jobs.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives each job on its own fixed-interval ticker. Jobs share no
// in-process state; they coordinate through the store. A cycle that overruns
// its interval simply delays that job's next cycle.
type Scheduler struct {
	jobs   []Job
	logger *logger.Logger
}

func NewScheduler(log *logger.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: log}
}

// Run blocks until ctx is cancelled and every job loop has stopped.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("loop started", "job", job.Name, "interval", job.Interval.String())

	// Run immediately on start.
	s.runCycle(ctx, job)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("loop stopped", "job", job.Name)
			return
		case <-ticker.C:
			s.runCycle(ctx, job)
		}
	}
}

// runCycle is the catch-log-continue boundary: no error or panic from a cycle
// may terminate the loop.
func (s *Scheduler) runCycle(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in cycle", "job", job.Name, "panic", fmt.Sprint(r))
		}
	}()

	if err := job.Run(ctx); err != nil {
		s.logger.Error("cycle failed", "job", job.Name, "error", err)
	}
}
