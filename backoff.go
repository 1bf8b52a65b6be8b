package snowflake

import (
	"runtime"
	"time"
)

// Backoff is called by Generator when a step is pending. wait is the
// suggested delay before the clock catches up; the function decides whether
// to sleep, yield or spin.
type Backoff func(wait time.Duration)

// Sleep blocks the goroutine for the full suggested wait.
func Sleep(wait time.Duration) {
	time.Sleep(wait)
}

// Yield gives up the processor once and retries immediately.
func Yield(time.Duration) {
	runtime.Gosched()
}

// Spin retries immediately without yielding.
func Spin(time.Duration) {}

// Hybrid sleeps for most of the wait and yields for the last stretch.
// Sleep granularity is coarse, so waits under 100µs are only yielded.
func Hybrid(wait time.Duration) {
	if wait > 100*time.Microsecond {
		time.Sleep(wait - 50*time.Microsecond)
		return
	}
	runtime.Gosched()
}
