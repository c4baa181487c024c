package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsduel/internal/dependencies/mocks"
	"github.com/mcoot/rpsduel/internal/dependencies/random"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/room"
	"github.com/mcoot/rpsduel/internal/testutil"
)

type countingTarget struct {
	mu     sync.Mutex
	calls  int
	maxAge time.Duration
}

func (c *countingTarget) Sweep(_ context.Context, maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.maxAge = maxAge
	return 0
}

func (c *countingTarget) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

var start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestSweeperRunsEveryInterval(t *testing.T) {
	clk := mocks.NewMockClock(start)
	target := &countingTarget{}
	s := New(target, DefaultConfig(), clk, testutil.NopLogger())

	s.Start(context.Background())
	defer s.Stop()

	clk.Advance(29 * time.Minute)
	assert.Equal(t, 0, target.count())

	clk.Advance(time.Minute)
	assert.Equal(t, 1, target.count())
	assert.Equal(t, 30*time.Minute, target.maxAge)

	clk.Advance(time.Hour)
	assert.Equal(t, 3, target.count())
}

func TestSweeperStopCancelsSchedule(t *testing.T) {
	clk := mocks.NewMockClock(start)
	target := &countingTarget{}
	s := New(target, DefaultConfig(), clk, testutil.NopLogger())

	s.Start(context.Background())
	s.Stop()
	clk.Advance(2 * time.Hour)

	assert.Equal(t, 0, target.count())
	assert.Equal(t, 0, clk.PendingTimers())
}

func TestSweeperStartIsIdempotent(t *testing.T) {
	clk := mocks.NewMockClock(start)
	target := &countingTarget{}
	s := New(target, DefaultConfig(), clk, testutil.NopLogger())

	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	assert.Equal(t, 1, clk.PendingTimers())
}

func TestSweeperEvictsAbandonedRoom(t *testing.T) {
	clk := mocks.NewMockClock(start)
	registry := room.NewRegistry(room.DefaultConfig(), nil, nil, clk, random.New(), testutil.NopLogger())
	defer registry.Close(context.Background())

	s := New(registry, DefaultConfig(), clk, testutil.NopLogger())
	s.Start(context.Background())
	defer s.Stop()

	host := model.Participant{ID: "host-1"}
	_, err := registry.Join(context.Background(), "R", host, nil)
	require.NoError(t, err)

	// first sweep at 30m finds the room exactly at the threshold
	clk.Advance(30 * time.Minute)
	_, err = registry.Get(context.Background(), "R")
	require.NoError(t, err)

	clk.Advance(30 * time.Minute)
	_, err = registry.Get(context.Background(), "R")
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
}
