package port

import "time"

// Clock supplies the current time. Injected so day-rollover and expiry
// logic are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
