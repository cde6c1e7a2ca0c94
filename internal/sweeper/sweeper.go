// Package sweeper runs the recurring sweep that expires open victims whose
// death deadline has passed.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/deathnote/deathnote/internal/victim"
)

// Sweeper periodically evaluates open victims against the deadline policy
// and commits the resulting transitions with conditional updates.
type Sweeper struct {
	repo      victim.Repository
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the wall-clock source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// WithBatchSize overrides how many open victims one tick examines.
func WithBatchSize(n int) Option {
	return func(s *Sweeper) {
		s.batchSize = n
	}
}

// New creates a new Sweeper.
func New(repo victim.Repository, interval time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		repo:      repo,
		interval:  interval,
		batchSize: 100,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the sweep loop. It blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("sweeper started", "interval", s.interval.String(), "batchSize", s.batchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one tick: list a page of open victims, evaluate each, expire
// those past their deadline. Failures on individual victims are logged and
// never abort the rest of the batch.
func (s *Sweeper) Sweep(ctx context.Context) {
	victims, err := s.repo.ListAlive(ctx, s.batchSize, 0)
	if err != nil {
		slog.Error("sweeper: failed to list open victims", "error", err)
		return
	}

	now := s.now()
	for i := range victims {
		if ctx.Err() != nil {
			return
		}
		s.sweepOne(ctx, &victims[i], now)
	}
}

func (s *Sweeper) sweepOne(ctx context.Context, v *victim.Victim, now time.Time) {
	if victim.EvaluateDeadline(v, now) != victim.Expire {
		return
	}

	dead := false
	_, err := s.repo.CompareAndUpdate(ctx, v.ID, v.Version, victim.Patch{IsAlive: &dead})
	if err != nil {
		switch {
		case errors.Is(err, victim.ErrConflict):
			// Someone edited the victim after we read it. The next tick
			// re-evaluates with the fresh edit time.
			slog.Debug("sweeper: victim changed mid-sweep, skipping", "victim", v.ID)
		case errors.Is(err, victim.ErrNotFound):
			slog.Debug("sweeper: victim deleted mid-sweep, skipping", "victim", v.ID)
		default:
			slog.Error("sweeper: failed to expire victim", "victim", v.ID, "error", err)
		}
		return
	}

	slog.Info("sweeper: victim expired",
		"victim", v.ID,
		"deathType", v.DeathType,
		"elapsed", now.Sub(v.ReferenceTime()).String(),
	)
}
