package service

import "time"

// Clock returns the current instant.
type Clock func() time.Time

// SystemClock is UTC wall time truncated to the microsecond precision both
// databases store.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// OrSystem returns c, or SystemClock when c is nil.
func (c Clock) OrSystem() Clock {
	if c == nil {
		return SystemClock
	}
	return c
}
