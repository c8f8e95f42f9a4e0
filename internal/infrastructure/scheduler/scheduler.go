// Package scheduler runs the periodic background jobs: deadline reminders,
// closed notification cleanup and access cache eviction. Each job gets its
// own ticker goroutine; a run that overlaps the next tick is skipped.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a named unit of periodic work
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once right after the scheduler starts
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// JobState is a snapshot of a job's run history
type JobState struct {
	Name        string        `json:"name"`
	Interval    time.Duration `json:"interval"`
	Status      JobStatus     `json:"status"`
	LastStarted *time.Time    `json:"last_started,omitempty"`
	LastEnded   *time.Time    `json:"last_ended,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	Runs        int64         `json:"runs"`
	Failures    int64         `json:"failures"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled    bool
	JobTimeout time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:    true,
		JobTimeout: 5 * time.Minute,
	}
}

type jobEntry struct {
	job   Job
	mu    sync.Mutex
	state JobState
	busy  bool
}

// Scheduler manages the periodic jobs
type Scheduler struct {
	config SchedulerConfig
	logger *zap.Logger

	jobs      map[string]*jobEntry
	order     []string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Interval <= 0 || job.Run == nil {
		return fmt.Errorf("%w: %q", ErrInvalidJob, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	s.jobs[job.Name] = &jobEntry{
		job:   job,
		state: JobState{Name: job.Name, Interval: job.Interval, Status: JobStatusIdle},
	}
	s.order = append(s.order, job.Name)
	return nil
}

// Start starts one ticker loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled, background jobs will not run")
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, name := range s.order {
		s.wg.Add(1)
		go s.loop(ctx, s.jobs[name])
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.order)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels the loops and waits for running jobs to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler has been started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow runs the named job once in the caller's goroutine
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	entry, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, entry)
}

// States returns the state of every job in registration order
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]JobState, 0, len(s.order))
	for _, name := range s.order {
		e := s.jobs[name]
		e.mu.Lock()
		states = append(states, e.state)
		e.mu.Unlock()
	}
	return states
}

func (s *Scheduler) loop(ctx context.Context, entry *jobEntry) {
	defer s.wg.Done()

	if entry.job.RunOnStart {
		_ = s.execute(ctx, entry)
	}

	ticker := time.NewTicker(entry.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.execute(ctx, entry)
		}
	}
}

// execute runs a job with the configured timeout. Overlapping runs of the
// same job are skipped.
func (s *Scheduler) execute(ctx context.Context, entry *jobEntry) (err error) {
	entry.mu.Lock()
	if entry.busy {
		entry.mu.Unlock()
		s.logger.Warn("Job still running, skipping tick", zap.String("job", entry.job.Name))
		return nil
	}
	entry.busy = true
	started := time.Now()
	entry.state.Status = JobStatusRunning
	entry.state.LastStarted = &started
	entry.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}

		ended := time.Now()
		entry.mu.Lock()
		entry.busy = false
		entry.state.LastEnded = &ended
		entry.state.Runs++
		if err != nil {
			entry.state.Status = JobStatusFailed
			entry.state.LastError = err.Error()
			entry.state.Failures++
		} else {
			entry.state.Status = JobStatusSuccess
			entry.state.LastError = ""
		}
		entry.mu.Unlock()

		if err != nil {
			s.logger.Error("Job failed",
				zap.String("job", entry.job.Name),
				zap.Duration("duration", ended.Sub(started)),
				zap.Error(err),
			)
			return
		}
		s.logger.Debug("Job completed",
			zap.String("job", entry.job.Name),
			zap.Duration("duration", ended.Sub(started)),
		)
	}()

	return entry.job.Run(jobCtx)
}
