// Package scheduler runs the engine's periodic maintenance: expiring idle
// sessions and retrying progress records that could not be stored.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper expires sessions idle for longer than a TTL.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// Flusher stores queued progress records.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
	Len() int
}

// Config sets the job intervals.
type Config struct {
	IdleTTL    time.Duration
	SweepEvery time.Duration
	FlushEvery time.Duration

	// FlushTimeout bounds one flush run.
	FlushTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		IdleTTL:      2 * time.Hour,
		SweepEvery:   5 * time.Minute,
		FlushEvery:   30 * time.Second,
		FlushTimeout: 20 * time.Second,
	}
}

// Scheduler manages the maintenance jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	flusher   Flusher
	cfg       Config
}

// New creates a scheduler. Either collaborator may be nil to skip its job.
func New(sweeper Sweeper, flusher Flusher, cfg Config) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		flusher:   flusher,
		cfg:       cfg,
	}
}

// Start schedules the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.sweeper != nil {
		if _, err := s.scheduler.Every(s.cfg.SweepEvery).Do(s.sweep); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}
	if s.flusher != nil {
		if _, err := s.scheduler.Every(s.cfg.FlushEvery).Do(s.flush); err != nil {
			return fmt.Errorf("schedule outbox flush: %w", err)
		}
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweep() {
	if n := s.sweeper.Sweep(s.cfg.IdleTTL); n > 0 {
		slog.Info("expired idle sessions", "count", n, "ttl", s.cfg.IdleTTL)
	}
}

func (s *Scheduler) flush() {
	if s.flusher.Len() == 0 {
		return
	}
	ctx := context.Background()
	if s.cfg.FlushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FlushTimeout)
		defer cancel()
	}

	n, err := s.flusher.Flush(ctx)
	if n > 0 {
		slog.Info("stored queued progress records", "count", n)
	}
	if err != nil {
		slog.Warn("progress records still queued", "remaining", s.flusher.Len(), "err", err)
	}
}
