package ports

import (
	"time"
)

// Clock supplies the current time so tests can control it. The core
// never resolves wall-clock time directly.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock
func SystemClock() Clock {
	return ClockFunc(time.Now)
}
