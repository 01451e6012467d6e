package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// IdleAbandoner stops applications that have been idle for too long
type IdleAbandoner interface {
	AbandonIdle(ctx context.Context, maxIdle time.Duration) int
}

// Sweeper periodically abandons idle applications on a cron schedule
type Sweeper struct {
	cron    *cron.Cron
	target  IdleAbandoner
	maxIdle time.Duration
	log     zerolog.Logger
}

// NewSweeper schedules target.AbandonIdle(maxIdle) on schedule, which accepts
// standard cron expressions and descriptors such as "@every 1m"
func NewSweeper(schedule string, maxIdle time.Duration, target IdleAbandoner, log zerolog.Logger) (*Sweeper, error) {
	if maxIdle <= 0 {
		return nil, fmt.Errorf("sweeper: idle timeout must be positive, got %s", maxIdle)
	}

	cl := cronLogger{log: log}
	s := &Sweeper{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		target:  target,
		maxIdle: maxIdle,
		log:     log,
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("sweeper: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Sweep runs one pass
func (s *Sweeper) Sweep() {
	n := s.target.AbandonIdle(context.Background(), s.maxIdle)
	if n > 0 {
		s.log.Info().Int("abandoned", n).Dur("max_idle", s.maxIdle).Msg("idle applications swept")
	}
}

// Start begins running the schedule in the background
func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info().Dur("max_idle", s.maxIdle).Msg("idle application sweeper started")
}

// Stop halts the schedule and waits for a running sweep, or ctx expiry
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
