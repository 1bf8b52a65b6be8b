package snowflake

import "time"

// Clock reports the current time in milliseconds since the Unix epoch.
//
// Generators sample the clock exactly once per step, while holding their lock.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// Now calls f.
func (f ClockFunc) Now() int64 { return f() }

// WallClock returns a Clock that reads the system wall clock. It follows NTP
// adjustments, so it can move backwards.
func WallClock() Clock {
	return ClockFunc(func() int64 { return time.Now().UnixMilli() })
}

// MonotonicClock returns a Clock anchored to the wall clock at creation and
// advanced by Go's monotonic clock afterwards. It is not affected by NTP
// steps, leap seconds or manual time changes made after it was created.
func MonotonicClock() Clock {
	return &monotonicClock{start: time.Now()}
}

type monotonicClock struct {
	start time.Time
}

func (c *monotonicClock) Now() int64 {
	// start carries a monotonic reading, so Since ignores wall-clock steps.
	return c.start.Add(time.Since(c.start)).UnixMilli()
}
