package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemToday(t *testing.T) {
	now := time.Unix(5, 0).UTC()
	c := newSystem(func() time.Time { return now }, "2025-11-17")

	assert.Equal(t, "2025-11-17", c.Today(), "unsynced clock uses build date")

	now = time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-09", c.Today())
}

func TestSystemElapsed(t *testing.T) {
	now := time.Unix(5, 0)
	c := newSystem(func() time.Time { return now }, "")
	now = now.Add(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed())
	assert.Equal(t, "----------", c.Today())
}
