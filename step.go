package snowflake

import (
	"time"

	"go.uber.org/zap"
)

// state is the mutable part of a generator. It is only read or written by
// step, and step only runs while the owning generator's lock is held.
type state struct {
	lastTimestamp int64  // clock reading used for the most recent ID
	sequence      uint64 // sequence of the most recent ID within lastTimestamp
}

// Operation is the outcome of a single generation step: either an ID is ready,
// or the caller should wait roughly Wait and try again.
type Operation[S any] struct {
	// ID is the generated ID. It is the zero value when Pending is true.
	ID S

	// Pending is true when no ID is available yet.
	Pending bool

	// Wait is the suggested delay before retrying a pending step.
	Wait time.Duration
}

// Ready returns the ID and true if the step produced one.
func (op Operation[S]) Ready() (S, bool) {
	return op.ID, !op.Pending
}

// step advances st by one ID at clock reading now.
//
// The transitions, in order:
//
//  1. now < last: within tolerance the step is pending for the drift and st is
//     untouched; beyond it the step fails with a ClockError.
//  2. now == last: the sequence is incremented; if it would wrap to zero the
//     step is pending for SequenceWait and st is untouched.
//  3. now > last: the sequence restarts at zero.
//  4. last = now. From here the (timestamp, sequence) pair is consumed.
//  5. The offset from the epoch must fit the timestamp field, otherwise the
//     step fails with an OverflowError.
//
// Pending outcomes are expected under load or clock jitter and resolve by
// waiting; errors do not.
func step[S Snowflake[S]](st *state, now int64, c *core) (Operation[S], error) {
	if now < st.lastTimestamp {
		drift := st.lastTimestamp - now
		if drift <= c.toleranceMs {
			if c.metrics.enabled {
				c.metrics.clockBackward.Add(1)
			}
			return Operation[S]{Pending: true, Wait: time.Duration(drift) * time.Millisecond}, nil
		}

		if c.metrics.enabled {
			c.metrics.clockBackwardErr.Add(1)
		}
		c.logger.Error("clock moved backwards beyond tolerance",
			zap.Int64("drift_ms", drift),
			zap.Int64("tolerance_ms", c.toleranceMs),
			zap.Int64("last_timestamp", st.lastTimestamp),
			zap.Int64("current_timestamp", now))
		return Operation[S]{}, newClockError(now, st.lastTimestamp, c.toleranceMs, c.machineID)
	}

	if now == st.lastTimestamp {
		next := (st.sequence + 1) & c.layout.SequenceMask()
		if next == 0 {
			if c.metrics.enabled {
				c.metrics.sequenceOverflow.Add(1)
			}
			return Operation[S]{Pending: true, Wait: c.sequenceWait}, nil
		}
		st.sequence = next
	} else {
		st.sequence = 0
	}

	st.lastTimestamp = now

	offset := now - c.epoch
	if offset < 0 || offset > c.layout.MaxTimestampOffset() {
		if c.metrics.enabled {
			c.metrics.timestampOverflow.Add(1)
		}
		c.logger.Error("timestamp does not fit the layout",
			zap.Int64("timestamp", now),
			zap.Int64("epoch", c.epoch),
			zap.Int64("offset", offset),
			zap.Int64("max_offset", c.layout.MaxTimestampOffset()))
		return Operation[S]{}, newOverflowError(now, offset, c.layout.MaxTimestampOffset(), c.machineID)
	}

	var zero S
	id := zero.FromComponentParts(
		uint64(offset)&c.layout.TimestampMask(),
		c.machineID,
		st.sequence,
	)
	c.metrics.addGenerated(1)
	return Operation[S]{ID: id}, nil
}
