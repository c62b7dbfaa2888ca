package engine

import "time"

// Clock supplies wall-clock time for execution timestamps.
//
// Wall time is recorded (start_ms, end_ms) but never hashed: identity and
// fingerprints exclude it by construction.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// UnixMillis converts t to milliseconds since the Unix epoch.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}
