package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Monotonic(t *testing.T) {
	var c Clock = RealClock{}
	a := c.Now()
	b := c.Now()
	assert.False(t, b.Before(a))
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(fixedTime)

	assert.Equal(t, fixedTime, clock.Now())
	assert.Equal(t, fixedTime, clock.Now(), "clock without step must not move")
	assert.Equal(t, 2, clock.Reads())
}

func TestMockClock_Step(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(start)
	clock.SetStep(20 * time.Millisecond)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(20*time.Millisecond), clock.Now())
	assert.Equal(t, start.Add(40*time.Millisecond), clock.Now())
}

func TestMockClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, clock.Now().Sub(start))

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}
