package snowflake

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// AsyncGenerator issues IDs of type S for callers that must stay responsive
// to cancellation.
//
// The state is guarded by a weighted semaphore of size one instead of a
// mutex, so a goroutine waiting for the lock can give up when its context is
// done. Pending steps park the goroutine on a timer rather than calling a
// Backoff, and the lock is never held while waiting.
//
// The context only bounds waiting. A step that has acquired the lock always
// runs to completion, so a cancelled call never leaves the state half-updated.
//
// An AsyncGenerator and a Generator never share state; do not mix them for
// the same machine ID.
type AsyncGenerator[S Snowflake[S]] struct {
	sem      *semaphore.Weighted
	state    state
	poisoned bool

	core core
}

// AsyncIDGenerator is an AsyncGenerator of the default ID type.
type AsyncIDGenerator = AsyncGenerator[ID]

// NewAsync creates an AsyncGenerator with DefaultConfig(machineID).
func NewAsync[S Snowflake[S]](machineID uint64) (*AsyncGenerator[S], error) {
	return NewAsyncWithConfig[S](DefaultConfig(machineID))
}

// AsyncWithEpoch creates an AsyncGenerator with a caller-chosen epoch.
func AsyncWithEpoch[S Snowflake[S]](machineID uint64, epoch int64) (*AsyncGenerator[S], error) {
	cfg := DefaultConfig(machineID)
	cfg.Epoch = epoch
	return NewAsyncWithConfig[S](cfg)
}

// NewAsyncWithConfig creates an AsyncGenerator with full control over its settings.
func NewAsyncWithConfig[S Snowflake[S]](cfg Config) (*AsyncGenerator[S], error) {
	g := &AsyncGenerator[S]{sem: semaphore.NewWeighted(1)}
	if err := g.core.init(cfg, LayoutOf[S]()); err != nil {
		return nil, err
	}
	return g, nil
}

// TryNextID waits for the lock, runs a single step and returns its outcome.
//
// ctx.Err() is returned if ctx is done before the lock is acquired.
func (g *AsyncGenerator[S]) TryNextID(ctx context.Context) (Operation[S], error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return Operation[S]{}, err
	}
	defer g.sem.Release(1)
	defer g.poisonOnPanic()

	if g.poisoned {
		return Operation[S]{}, ErrGeneratorPoisoned
	}
	return step[S](&g.state, g.core.clock.Now(), &g.core)
}

// NextID returns the next ID, sleeping on a timer between pending steps.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
//	defer cancel()
//	id, err := gen.NextID(ctx)
func (g *AsyncGenerator[S]) NextID(ctx context.Context) (S, error) {
	var zero S
	for {
		op, err := g.TryNextID(ctx)
		if err != nil {
			return zero, err
		}
		if id, ok := op.Ready(); ok {
			return id, nil
		}
		if err := g.wait(ctx, op.Wait); err != nil {
			return zero, err
		}
	}
}

// NextIDBulk returns count IDs by calling NextID count times.
//
// The lock is re-acquired for every element, so IDs from other callers may
// interleave with the batch. The batch itself is still strictly increasing.
// On error the IDs produced so far are returned together with the error.
func (g *AsyncGenerator[S]) NextIDBulk(ctx context.Context, count int) ([]S, error) {
	if count <= 0 {
		return []S{}, nil
	}
	ids := make([]S, 0, count)
	for len(ids) < count {
		id, err := g.NextID(ctx)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *AsyncGenerator[S]) wait(ctx context.Context, d time.Duration) error {
	start := time.Now()
	defer g.core.metrics.addWait(start)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset clears the poisoned flag and the generator's timestamp and sequence.
func (g *AsyncGenerator[S]) Reset() {
	// Acquire cannot fail with a background context.
	_ = g.sem.Acquire(context.Background(), 1)
	defer g.sem.Release(1)

	if g.poisoned {
		g.core.logger.Info("generator reset after poisoning")
	}
	g.poisoned = false
	g.state = state{}
}

func (g *AsyncGenerator[S]) poisonOnPanic() {
	if r := recover(); r != nil {
		g.poisoned = true
		g.core.logger.Error("generator poisoned", zap.Error(&PoisonedError{Cause: r}))
		panic(r)
	}
}

// MachineID returns the machine ID of this generator.
func (g *AsyncGenerator[S]) MachineID() uint64 { return g.core.machineID }

// Epoch returns the epoch of this generator in milliseconds.
func (g *AsyncGenerator[S]) Epoch() int64 { return g.core.epoch }

// Layout returns the bit layout of S.
func (g *AsyncGenerator[S]) Layout() BitLayout { return g.core.layout }

// Metrics returns a snapshot of the generator's counters.
func (g *AsyncGenerator[S]) Metrics() Metrics { return g.core.metrics.snapshot() }

// ResetMetrics zeroes all counters.
func (g *AsyncGenerator[S]) ResetMetrics() { g.core.metrics.reset() }
