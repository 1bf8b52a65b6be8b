// Package snowflake generates 64-bit, time-ordered, collision-resistant IDs
// based on Twitter's Snowflake algorithm.
//
// # ID Structure (LayoutDefault)
//
//	┌───┬─────────────────────────────────────┬──────────────┬──────────────┐
//	│ 0 │  41 bits: ms since epoch (~69 years) │  10 bits:    │  12 bits:    │
//	│   │                                     │  Machine ID  │  Sequence    │
//	└───┴─────────────────────────────────────┴──────────────┴──────────────┘
//
// The layout is a property of the ID type. Any type satisfying the Snowflake
// constraint can be produced by a Generator or an AsyncGenerator; ID
// (41+10+12) and ClusterID (40+14+9) are provided.
//
// # Generators
//
// Generator guards its state with a sync.Mutex and hands backoff decisions to
// a caller-supplied Backoff. AsyncGenerator guards the same state with a
// context-aware semaphore and parks the calling goroutine on a timer while it
// waits. Both run the same single-step state machine, so they can never
// disagree on which ID comes next.
//
// # Usage
//
//	gen, err := snowflake.New[snowflake.ID](42)
//	if err != nil {
//	    return err
//	}
//	id, err := gen.NextID(snowflake.Sleep)
//
//	// Cooperative form, cancellable while waiting.
//	agen, err := snowflake.NewAsync[snowflake.ID](42)
//	id, err = agen.NextID(ctx)
package snowflake

import (
	"sync"
	"time"
)

const (
	// Epoch is the default epoch (January 1, 2024 00:00:00 UTC) in milliseconds.
	Epoch int64 = 1704067200000

	// DefaultMaxClockBackward is the default tolerance for backwards clock drift.
	// Smaller regressions are waited out; larger ones fail with ErrClockMovedBack.
	DefaultMaxClockBackward = 5 * time.Millisecond

	// DefaultSequenceWait is the suggested wait after the sequence space of the
	// current millisecond is exhausted.
	DefaultSequenceWait = time.Millisecond
)

// Snowflake is the capability set an ID type provides to plug into a generator.
//
// Layout, FromComponentParts and Raw are called on the zero value as well as
// on real IDs, so they must not depend on the receiver beyond Raw. Everything
// else (extraction, masks, validity) is derived from these three methods.
type Snowflake[S any] interface {
	comparable

	// Layout returns the fixed bit layout of the type.
	Layout() BitLayout

	// FromComponentParts packs pre-masked fields into an ID.
	FromComponentParts(timestampOffset, machineID, sequence uint64) S

	// Raw returns the underlying bit pattern.
	Raw() uint64
}

// LayoutOf returns the bit layout of the ID type S.
func LayoutOf[S Snowflake[S]]() BitLayout {
	var zero S
	return zero.Layout()
}

// TimestampOffset returns the milliseconds since the epoch stored in id.
func TimestampOffset[S Snowflake[S]](id S) uint64 {
	return id.Layout().TimestampOffset(id.Raw())
}

// TimestampWithEpoch returns the Unix millisecond timestamp of id given the
// epoch it was generated with.
func TimestampWithEpoch[S Snowflake[S]](id S, epoch int64) int64 {
	return int64(TimestampOffset(id)) + epoch
}

// MachineID returns the machine ID stored in id.
func MachineID[S Snowflake[S]](id S) uint64 {
	return id.Layout().MachineID(id.Raw())
}

// Sequence returns the sequence number stored in id.
func Sequence[S Snowflake[S]](id S) uint64 {
	return id.Layout().Sequence(id.Raw())
}

// IsValid reports whether id has no bits set outside its layout.
func IsValid[S Snowflake[S]](id S) bool {
	return id.Layout().IsValid(id.Raw())
}

// MaxMachineID is the largest machine ID S can hold.
func MaxMachineID[S Snowflake[S]]() uint64 { return LayoutOf[S]().MaxMachineID() }

// MaxSequence is the largest sequence number S can hold.
func MaxSequence[S Snowflake[S]]() uint64 { return LayoutOf[S]().MaxSequence() }

// MaxTimestampOffset is the largest timestamp offset S can hold.
func MaxTimestampOffset[S Snowflake[S]]() int64 { return LayoutOf[S]().MaxTimestampOffset() }

// Default generator (machine ID 0), initialized on first use.
var (
	defaultGenerator     *IDGenerator
	defaultGeneratorOnce sync.Once
	defaultGeneratorErr  error
)

func initDefaultGenerator() {
	defaultGenerator, defaultGeneratorErr = New[ID](0)
}

// GenerateID generates an ID with the package default generator.
//
// The default generator uses machine ID 0 and the default epoch, which only
// suits single-node deployments. Distributed systems should create their own
// Generator with a unique machine ID.
func GenerateID() (ID, error) {
	defaultGeneratorOnce.Do(initDefaultGenerator)
	if defaultGeneratorErr != nil {
		return 0, defaultGeneratorErr
	}
	return defaultGenerator.NextID(Hybrid)
}

// MustGenerateID is like GenerateID but panics on error.
func MustGenerateID() ID {
	id, err := GenerateID()
	if err != nil {
		panic(err)
	}
	return id
}

// DefaultMetrics returns the metrics of the package default generator.
func DefaultMetrics() (Metrics, error) {
	defaultGeneratorOnce.Do(initDefaultGenerator)
	if defaultGeneratorErr != nil {
		return Metrics{}, defaultGeneratorErr
	}
	return defaultGenerator.Metrics(), nil
}
