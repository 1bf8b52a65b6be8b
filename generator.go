package snowflake

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Generator issues IDs of type S from a single machine ID.
//
// All methods are safe for concurrent use. The state is guarded by a
// sync.Mutex that is held for exactly one step in TryNextID and NextID, and
// for a whole batch in NextIDBulk.
//
// If a goroutine panics while holding the lock (for example inside a custom
// Clock or Backoff), the generator is poisoned: every later call returns
// ErrGeneratorPoisoned until Reset is called.
type Generator[S Snowflake[S]] struct {
	mu       sync.Mutex
	state    state
	poisoned bool

	core core
}

// IDGenerator is a Generator of the default ID type.
type IDGenerator = Generator[ID]

// New creates a Generator with DefaultConfig(machineID).
//
// Example:
//
//	gen, err := snowflake.New[snowflake.ID](42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, err := gen.NextID(snowflake.Sleep)
//
// Returns a *ConfigError wrapping ErrInvalidMachineID if machineID is larger
// than MaxMachineID[S]().
func New[S Snowflake[S]](machineID uint64) (*Generator[S], error) {
	return NewWithConfig[S](DefaultConfig(machineID))
}

// WithEpoch creates a Generator with a caller-chosen epoch in milliseconds
// since the Unix epoch.
func WithEpoch[S Snowflake[S]](machineID uint64, epoch int64) (*Generator[S], error) {
	cfg := DefaultConfig(machineID)
	cfg.Epoch = epoch
	return NewWithConfig[S](cfg)
}

// NewWithConfig creates a Generator with full control over its settings.
//
// Example:
//
//	cfg := snowflake.DefaultConfig(42)
//	cfg.MaxClockBackward = 10 * time.Millisecond
//	cfg.Logger = logger
//	gen, err := snowflake.NewWithConfig[snowflake.ClusterID](cfg)
func NewWithConfig[S Snowflake[S]](cfg Config) (*Generator[S], error) {
	g := &Generator[S]{}
	if err := g.core.init(cfg, LayoutOf[S]()); err != nil {
		return nil, err
	}
	return g, nil
}

// TryNextID runs a single step without waiting.
//
// The returned Operation is either ready or pending with a suggested wait.
// Fatal conditions are returned as errors: *ClockError, *OverflowError or
// ErrGeneratorPoisoned.
func (g *Generator[S]) TryNextID() (Operation[S], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer g.poisonOnPanic()

	if g.poisoned {
		return Operation[S]{}, ErrGeneratorPoisoned
	}
	return step[S](&g.state, g.core.clock.Now(), &g.core)
}

// NextID returns the next ID, calling onPending with the suggested wait each
// time a step is pending. The lock is not held while onPending runs.
//
// A nil onPending means Sleep.
func (g *Generator[S]) NextID(onPending Backoff) (S, error) {
	if onPending == nil {
		onPending = Sleep
	}
	for {
		op, err := g.TryNextID()
		if err != nil {
			var zero S
			return zero, err
		}
		if id, ok := op.Ready(); ok {
			return id, nil
		}
		start := time.Now()
		onPending(op.Wait)
		g.core.metrics.addWait(start)
	}
}

// NextIDBulk returns count IDs in strictly increasing order.
//
// The lock is taken once for the whole batch, so no other caller can
// interleave, and onPending runs with the lock held. A nil onPending means
// Sleep.
//
// On a fatal condition the IDs produced so far are returned together with
// the error.
//
// Example:
//
//	ids, err := gen.NextIDBulk(1000, snowflake.Hybrid)
//	if err != nil {
//	    // ids holds the partial batch
//	    logger.Error("batch generation failed", zap.Int("generated", len(ids)), zap.Error(err))
//	}
func (g *Generator[S]) NextIDBulk(count int, onPending Backoff) ([]S, error) {
	if count <= 0 {
		return []S{}, nil
	}
	if onPending == nil {
		onPending = Sleep
	}

	ids := make([]S, 0, count)

	g.mu.Lock()
	defer g.mu.Unlock()
	defer g.poisonOnPanic()

	if g.poisoned {
		return ids, ErrGeneratorPoisoned
	}

	for len(ids) < count {
		op, err := step[S](&g.state, g.core.clock.Now(), &g.core)
		if err != nil {
			return ids, err
		}
		if id, ok := op.Ready(); ok {
			ids = append(ids, id)
			continue
		}
		start := time.Now()
		onPending(op.Wait)
		g.core.metrics.addWait(start)
	}
	return ids, nil
}

// Reset clears the poisoned flag and the generator's timestamp and sequence.
//
// Continuity is lost, which is safe as long as the clock has not been set
// back: the next ID is built from a fresh clock reading.
func (g *Generator[S]) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poisoned {
		g.core.logger.Info("generator reset after poisoning")
	}
	g.poisoned = false
	g.state = state{}
}

// poisonOnPanic must be deferred after the lock is taken. It marks the
// generator as poisoned and re-panics.
func (g *Generator[S]) poisonOnPanic() {
	if r := recover(); r != nil {
		g.poisoned = true
		g.core.logger.Error("generator poisoned", zap.Error(&PoisonedError{Cause: r}))
		panic(r)
	}
}

// MachineID returns the machine ID of this generator.
func (g *Generator[S]) MachineID() uint64 { return g.core.machineID }

// Epoch returns the epoch of this generator in milliseconds.
func (g *Generator[S]) Epoch() int64 { return g.core.epoch }

// Layout returns the bit layout of S.
func (g *Generator[S]) Layout() BitLayout { return g.core.layout }

// Metrics returns a snapshot of the generator's counters without taking the lock.
// All counters stay zero when metrics are disabled.
func (g *Generator[S]) Metrics() Metrics { return g.core.metrics.snapshot() }

// ResetMetrics zeroes all counters. Primarily useful in tests.
func (g *Generator[S]) ResetMetrics() { g.core.metrics.reset() }
