package snowflake

import (
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of a generator's counters.
//
// All counters are monotonically increasing until ResetMetrics is called.
type Metrics struct {
	Generated         int64 // IDs successfully generated
	ClockBackward     int64 // Pending steps caused by backwards drift within tolerance
	ClockBackwardErr  int64 // Steps that failed with ErrClockMovedBack
	SequenceOverflow  int64 // Pending steps caused by sequence exhaustion
	TimestampOverflow int64 // Steps that failed with ErrTimestampOverflow
	WaitTimeUs        int64 // Time spent backing off, in microseconds
}

// counters are updated with atomics so Metrics never takes the generator lock.
type counters struct {
	enabled           bool
	generated         atomic.Int64
	clockBackward     atomic.Int64
	clockBackwardErr  atomic.Int64
	sequenceOverflow  atomic.Int64
	timestampOverflow atomic.Int64
	waitTimeUs        atomic.Int64
}

func (c *counters) addGenerated(n int) {
	if c.enabled {
		c.generated.Add(int64(n))
	}
}

func (c *counters) addWait(start time.Time) {
	if c.enabled {
		c.waitTimeUs.Add(time.Since(start).Microseconds())
	}
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Generated:         c.generated.Load(),
		ClockBackward:     c.clockBackward.Load(),
		ClockBackwardErr:  c.clockBackwardErr.Load(),
		SequenceOverflow:  c.sequenceOverflow.Load(),
		TimestampOverflow: c.timestampOverflow.Load(),
		WaitTimeUs:        c.waitTimeUs.Load(),
	}
}

func (c *counters) reset() {
	c.generated.Store(0)
	c.clockBackward.Store(0)
	c.clockBackwardErr.Store(0)
	c.sequenceOverflow.Store(0)
	c.timestampOverflow.Store(0)
	c.waitTimeUs.Store(0)
}
