// Package scheduler runs recurring summary jobs. Uses robfig/cron for
// cron expression parsing and execution, with the jobs persisted in the
// central SQLite store so they survive restarts.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/hollevoet/recap/pkg/recap/store"
)

// JobStore is the persistence surface the scheduler needs.
type JobStore interface {
	SaveJob(ctx context.Context, j store.SummaryJob) error
	ListJobs(ctx context.Context) ([]store.SummaryJob, error)
	DeleteJob(ctx context.Context, id string) error
	TouchJobRun(ctx context.Context, id string, runErr error) error
}

// RunFunc executes one job firing.
type RunFunc func(ctx context.Context, job store.SummaryJob) error

// Scheduler manages cron-scheduled summary jobs.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	jobs    JobStore
	run     RunFunc

	// jobTimeout bounds a single firing (window load + LLM call + send).
	jobTimeout time.Duration

	logger *slog.Logger
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler backed by the given store. run is called for
// every firing.
func New(jobs JobStore, run RunFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		))),
		entries:    make(map[string]cron.EntryID),
		jobs:       jobs,
		run:        run,
		jobTimeout: 2 * time.Minute,
		logger:     logger,
	}
}

// Start loads persisted jobs, registers them and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("load summary jobs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range jobs {
		if err := s.register(job); err != nil {
			s.logger.Error("failed to register job", "job", job.ID, "schedule", job.Schedule, "error", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(jobs))
	return nil
}

// Stop halts the cron loop and waits for a running firing to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// Add validates, persists and registers a new job. The job ID is assigned
// here.
func (s *Scheduler) Add(ctx context.Context, job store.SummaryJob) (store.SummaryJob, error) {
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return job, fmt.Errorf("invalid cron expression %q: %w", job.Schedule, err)
	}
	if job.Count <= 0 {
		job.Count = 99
	}
	if job.SessionID == "" {
		job.SessionID = job.ChatID
	}
	job.ID = uuid.NewString()
	job.CreatedAt = time.Now()

	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return job, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		if err := s.register(job); err != nil {
			return job, err
		}
	}
	return job, nil
}

// Remove unregisters and deletes a job.
func (s *Scheduler) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
	s.mu.Unlock()

	return s.jobs.DeleteJob(ctx, id)
}

// List returns the persisted jobs.
func (s *Scheduler) List(ctx context.Context) ([]store.SummaryJob, error) {
	return s.jobs.ListJobs(ctx)
}

// register adds the job to the cron loop. Caller holds s.mu.
func (s *Scheduler) register(job store.SummaryJob) error {
	entryID, err := s.cron.AddFunc(job.Schedule, func() {
		s.fire(job)
	})
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", job.ID, err)
	}
	s.entries[job.ID] = entryID
	return nil
}

// fire runs one job execution. Failures are recorded on the job row and
// logged; a firing is never retried.
func (s *Scheduler) fire(job store.SummaryJob) {
	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	s.logger.Info("running summary job", "job", job.ID, "session", job.SessionID)
	err := s.run(ctx, job)
	if err != nil {
		s.logger.Error("summary job failed", "job", job.ID, "error", err)
	}
	if terr := s.jobs.TouchJobRun(ctx, job.ID, err); terr != nil {
		s.logger.Error("failed to record job run", "job", job.ID, "error", terr)
	}
}
