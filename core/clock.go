package core

import "time"

// Clock supplies the current time. Functions that depend on "now" take a Clock
// instead of reading the system time so results stay reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. Only outermost call sites should use it.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// clockOrSystem guards against a nil Clock at the package boundary.
func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}
