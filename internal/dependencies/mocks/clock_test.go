package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMockClockFiresDueTimersInOrder(t *testing.T) {
	c := NewMockClock(start)
	var fired []string

	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(3*time.Second), c.Now())
	assert.Equal(t, 1, c.PendingTimers())
}

func TestMockClockStopPreventsFiring(t *testing.T) {
	c := NewMockClock(start)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestMockClockCallbackSeesFiringTime(t *testing.T) {
	c := NewMockClock(start)
	var seen time.Time
	c.AfterFunc(10*time.Second, func() { seen = c.Now() })

	c.Advance(time.Minute)
	assert.Equal(t, start.Add(10*time.Second), seen)
}

func TestMockClockRearmedTimerFiresWithinSameAdvance(t *testing.T) {
	c := NewMockClock(start)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	assert.Equal(t, 3, count)
}
