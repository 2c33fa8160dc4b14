// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package precompute fills the feature store ahead of demand. A run walks
// the (staff, date) cross product, skips pairs already cached, and
// generates the rest on a background goroutine without ever blocking
// foreground store access.
package precompute

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rosterops/shiftcast/internal/feature"
	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/metrics"
	"github.com/rosterops/shiftcast/internal/models"
)

// State is the run lifecycle: Idle -> Running -> (drained or cancelled)
// -> Idle. A single guard enforces at most one active run.
type State string

// Run states.
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Task is one pending (staff, date) insertion.
type Task struct {
	Staff models.StaffMember
	Date  models.DateKey
	Index int
}

// Config tunes the background drain.
type Config struct {
	// RatePerSecond paces generation so foreground requests keep low
	// added latency. Default: 200.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"gt=0"`

	// Burst is the limiter burst size. Default: 1 (yield between items).
	Burst int `koanf:"burst" validate:"gte=1"`
}

// DefaultConfig returns the reference pacing.
func DefaultConfig() Config {
	return Config{RatePerSecond: 200, Burst: 1}
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State     State `json:"state"`
	Queued    int   `json:"queued"`
	Processed int   `json:"processed"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
}

// Scheduler drains precomputation queues into the feature store.
type Scheduler struct {
	store    *feature.Store
	producer feature.Producer
	limiter  *rate.Limiter
	logger   zerolog.Logger

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	queued    int
	processed int
	skipped   int
	failed    int
}

// NewScheduler creates an idle scheduler over the shared store.
func NewScheduler(cfg Config, store *feature.Store, producer feature.Producer) *Scheduler {
	def := DefaultConfig()
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.Burst < 1 {
		cfg.Burst = def.Burst
	}
	return &Scheduler{
		store:    store,
		producer: producer,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:   logging.WithComponent("precompute"),
		state:    StateIdle,
	}
}

// Start builds the work queue of all (staff, date) pairs in the cross
// product that are not already cached and drains it asynchronously. It
// returns the number of enqueued tasks and whether a run was started;
// while a run is active the call is a no-op reporting (0, false).
func (s *Scheduler) Start(ctx context.Context, staff []models.StaffMember, dates models.DateRange, historical models.Schedule) (int, bool) {
	days := dates.Days()
	if len(staff) == 0 || len(days) == 0 {
		return 0, false
	}

	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		s.logger.Debug().Msg("precompute already running, start ignored")
		return 0, false
	}

	var tasks []Task
	for _, member := range staff {
		for i, day := range days {
			if s.store.Contains(member.ID, day) {
				s.skipped++
				metrics.PrecomputeTasksProcessed.WithLabelValues("skipped").Inc()
				continue
			}
			tasks = append(tasks, Task{Staff: member, Date: day, Index: i})
		}
	}
	if len(tasks) == 0 {
		s.mu.Unlock()
		return 0, true
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.state = StateRunning
	s.cancel = cancel
	s.done = done
	s.queued = len(tasks)
	s.mu.Unlock()

	metrics.PrecomputeRuns.Inc()
	s.logger.Info().
		Int("tasks", len(tasks)).
		Int("staff", len(staff)).
		Int("days", len(days)).
		Msg("precompute run started")

	gc := feature.GenerationContext{
		Period:     dates,
		Historical: historical,
		Staff:      staff,
	}
	go s.drain(runCtx, tasks, gc, done)

	return len(tasks), true
}

// drain processes the queue until it is empty or the run is cancelled.
// Per-item failures are logged and skipped; they never abort the rest of
// the queue.
func (s *Scheduler) drain(ctx context.Context, tasks []Task, gc feature.GenerationContext, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.cancel = nil
		s.done = nil
		s.queued = 0
		s.mu.Unlock()
		close(done)
	}()

	for _, task := range tasks {
		// The limiter yields between items so foreground requests are
		// served with low added latency.
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Info().Int("abandoned", remaining(tasks, task)).Msg("precompute run cancelled")
			return
		}

		gc.DateIndex = task.Index
		vector, err := s.producer.Generate(ctx, task.Staff, task.Date, gc)
		if err != nil {
			s.recordFailure()
			s.logger.Warn().
				Str("staff_id", string(task.Staff.ID)).
				Str("date", string(task.Date)).
				Err(err).
				Msg("precompute generation failed")
			continue
		}

		ok, err := s.store.Set(task.Staff.ID, task.Date, vector)
		switch {
		case err != nil:
			// Store disposed mid-run; nothing left to fill.
			s.logger.Warn().Err(err).Msg("precompute aborted")
			return
		case !ok:
			s.recordFailure()
		default:
			s.recordProcessed()
			metrics.PrecomputeTasksProcessed.WithLabelValues("stored").Inc()
		}
	}

	s.logger.Info().Msg("precompute run drained")
}

// Stop signals cancellation: the queue is abandoned immediately and no
// further background work for the run executes. In-flight single-entry
// generation may complete. Safe to call at any time, idempotent, a no-op
// when no run is active.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Status returns the scheduler's current state and counters.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:     s.state,
		Queued:    s.queued,
		Processed: s.processed,
		Skipped:   s.skipped,
		Failed:    s.failed,
	}
}

// Wait returns a channel closed when the active run finishes. An idle
// scheduler yields an already-closed channel.
func (s *Scheduler) Wait() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return s.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

func (s *Scheduler) recordProcessed() {
	s.mu.Lock()
	s.processed++
	s.queued--
	s.mu.Unlock()
}

func (s *Scheduler) recordFailure() {
	s.mu.Lock()
	s.failed++
	s.queued--
	s.mu.Unlock()
	metrics.PrecomputeTasksProcessed.WithLabelValues("failed").Inc()
}

// remaining counts queue items at and after the given task.
func remaining(tasks []Task, current Task) int {
	for i, t := range tasks {
		if t.Staff.ID == current.Staff.ID && t.Date == current.Date {
			return len(tasks) - i
		}
	}
	return 0
}
