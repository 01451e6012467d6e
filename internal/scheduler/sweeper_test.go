package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAbandoner struct {
	calls   atomic.Int32
	maxIdle atomic.Int64
}

func (c *countingAbandoner) AbandonIdle(ctx context.Context, maxIdle time.Duration) int {
	c.calls.Add(1)
	c.maxIdle.Store(int64(maxIdle))
	return 1
}

func TestNewSweeper_Validation(t *testing.T) {
	target := &countingAbandoner{}

	_, err := NewSweeper("@every 1m", 0, target, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewSweeper("not a schedule", time.Minute, target, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewSweeper("*/5 * * * *", time.Minute, target, zerolog.Nop())
	assert.NoError(t, err)
}

func TestSweeper_SweepPassesTimeout(t *testing.T) {
	target := &countingAbandoner{}
	s, err := NewSweeper("@every 1h", 30*time.Minute, target, zerolog.Nop())
	require.NoError(t, err)

	s.Sweep()
	assert.Equal(t, int32(1), target.calls.Load())
	assert.Equal(t, int64(30*time.Minute), target.maxIdle.Load())
}

func TestSweeper_RunsOnSchedule(t *testing.T) {
	target := &countingAbandoner{}
	s, err := NewSweeper("@every 1s", time.Minute, target, zerolog.Nop())
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return target.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
