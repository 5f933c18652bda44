// Package clock supplies monotonic elapsed time and the date shown on the
// top row of the panel.
package clock

import (
	"time"
)

// DateLayout is the format of the displayed date.
const DateLayout = "2006-01-02"

// minValidYear guards against an unsynchronized board clock, which starts
// at the Unix epoch.
const minValidYear = 2024

// buildDate is set at link time:
//
//	tinygo build -ldflags="-X 'github.com/harveysanders/airpanel/clock.buildDate=2025-11-17'"
var buildDate string

// BuildDate returns the date set via linker flags, or "".
func BuildDate() string { return buildDate }

// Clock is the time source used by the display loop.
type Clock interface {
	// Elapsed returns monotonic time since boot.
	Elapsed() time.Duration
	// Today returns the date to display, formatted with DateLayout.
	Today() string
}

// System is a Clock backed by the runtime clock. Until the wall clock is
// set to a plausible date, Today falls back to the link-time build date.
type System struct {
	start    time.Time
	now      func() time.Time
	fallback string
}

// NewSystem returns a System clock started now.
func NewSystem() *System {
	return newSystem(time.Now, buildDate)
}

func newSystem(now func() time.Time, fallback string) *System {
	if fallback == "" {
		fallback = "----------"
	}
	return &System{start: now(), now: now, fallback: fallback}
}

func (s *System) Elapsed() time.Duration {
	return s.now().Sub(s.start)
}

func (s *System) Today() string {
	t := s.now()
	if t.Year() < minValidYear {
		return s.fallback
	}
	return t.Format(DateLayout)
}
