package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
)

// Config controls how often and how aggressively rooms are evicted
type Config struct {
	Interval time.Duration
	MaxAge   time.Duration
}

// DefaultConfig returns the default sweep settings
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Minute,
		MaxAge:   30 * time.Minute,
	}
}

// Target is anything that can evict rooms older than maxAge
type Target interface {
	Sweep(ctx context.Context, maxAge time.Duration) int
}

// Sweeper periodically evicts stale rooms, independent of disconnects
type Sweeper struct {
	target Target
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	timer   clock.Timer
	ctx     context.Context
	running bool
}

// New creates a Sweeper; call Start to begin sweeping
func New(target Target, cfg Config, clock clock.Clock, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		target: target,
		cfg:    cfg,
		clock:  clock,
		logger: logger.With(slog.String("component", "sweeper")),
	}
}

// Start schedules a sweep every Interval until Stop is called or ctx ends
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.ctx = ctx
	s.scheduleLocked()
	s.logger.Info("sweeper started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("max_age", s.cfg.MaxAge))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop cancels the next scheduled sweep
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.logger.Info("sweeper stopped")
}

// SweepOnce runs a single sweep and returns the number of rooms evicted
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	removed := s.target.Sweep(ctx, s.cfg.MaxAge)
	s.logger.Debug("sweep complete", slog.Int("removed", removed))
	return removed
}

func (s *Sweeper) scheduleLocked() {
	s.timer = s.clock.AfterFunc(s.cfg.Interval, s.tick)
}

func (s *Sweeper) tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.SweepOnce(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.scheduleLocked()
	}
}
