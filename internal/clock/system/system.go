// Package system provides a real clock implementation.
package system

import "time"

// Clock reads the wall clock.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time. The monotonic reading is kept so Since is
// immune to wall clock steps.
func (Clock) Now() time.Time {
	return time.Now()
}

// Since reports the time elapsed since start.
func (Clock) Since(start time.Time) time.Duration {
	return time.Since(start)
}
