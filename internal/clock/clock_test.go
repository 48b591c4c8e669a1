package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockNow(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	now := c.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestMockClock(t *testing.T) {
	start := time.Date(2025, 12, 8, 6, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Advance(-30 * time.Minute)
	assert.Equal(t, start.Add(time.Hour), c.Now())

	reset := time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)
	c.Set(reset)
	assert.Equal(t, reset, c.Now())
}

func TestMockClockConcurrentAccess(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.Advance(time.Second)
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		_ = c.Now()
	}
	<-done

	assert.Equal(t, time.Unix(100, 0), c.Now())
}
