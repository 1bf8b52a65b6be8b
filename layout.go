// Package snowflake - layout.go describes how the 63 usable bits of an ID are split
// between the timestamp offset, the machine ID and the per-millisecond sequence.
//
// A BitLayout is pure arithmetic: it never touches a clock or a lock, so every
// method here is safe to call from any number of goroutines.

package snowflake

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// BitLayout defines how the bits of a Snowflake ID are allocated.
//
// From the most to the least significant bit an ID holds:
//
//	┌───┬──────────────────────┬─────────────────┬────────────────┐
//	│ 0 │ TimestampBits        │ MachineIDBits   │ SequenceBits   │
//	└───┴──────────────────────┴─────────────────┴────────────────┘
//
// Bit 63 always stays zero so the packed value is a non-negative int64.
// The timestamp field stores milliseconds since the generator's epoch.
type BitLayout struct {
	// TimestampBits is the width of the timestamp offset field.
	// 41 bits give roughly 69 years of milliseconds.
	TimestampBits int

	// MachineIDBits is the width of the machine ID field.
	MachineIDBits int

	// SequenceBits is the width of the per-millisecond sequence counter.
	SequenceBits int
}

// Pre-defined layouts.
//
// IDs produced with different layouts are not comparable with each other;
// pick one per ID type and keep it for the lifetime of the system.
var (
	// LayoutDefault is the classic Twitter layout: ~69 years, 1,024 machines,
	// 4,096 IDs per millisecond per machine.
	LayoutDefault = BitLayout{
		TimestampBits: 41,
		MachineIDBits: 10,
		SequenceBits:  12,
	}

	// LayoutSuperior trades lifespan and throughput for scale: ~35 years,
	// 16,384 machines, 512 IDs per millisecond per machine.
	LayoutSuperior = BitLayout{
		TimestampBits: 40,
		MachineIDBits: 14,
		SequenceBits:  9,
	}

	// LayoutExtreme targets very large fleets: ~17 years, 131,072 machines,
	// 128 IDs per millisecond per machine.
	LayoutExtreme = BitLayout{
		TimestampBits: 39,
		MachineIDBits: 17,
		SequenceBits:  7,
	}

	// LayoutLongLife favours lifespan: ~139 years, 4,096 machines,
	// 512 IDs per millisecond per machine.
	LayoutLongLife = BitLayout{
		TimestampBits: 42,
		MachineIDBits: 12,
		SequenceBits:  9,
	}
)

// ErrInvalidBitLayout is returned when a BitLayout cannot describe a
// non-negative 64-bit ID.
var ErrInvalidBitLayout = errors.New("invalid bit layout")

// Validate checks that every field width is non-negative and that the three
// fields fit in 63 bits.
func (l BitLayout) Validate() error {
	if l.TimestampBits < 0 {
		return fmt.Errorf("%w: timestamp bits cannot be negative (%d)", ErrInvalidBitLayout, l.TimestampBits)
	}
	if l.MachineIDBits < 0 {
		return fmt.Errorf("%w: machine id bits cannot be negative (%d)", ErrInvalidBitLayout, l.MachineIDBits)
	}
	if l.SequenceBits < 0 {
		return fmt.Errorf("%w: sequence bits cannot be negative (%d)", ErrInvalidBitLayout, l.SequenceBits)
	}

	total := l.TimestampBits + l.MachineIDBits + l.SequenceBits
	if total > 63 {
		return fmt.Errorf("%w: total bits must not exceed 63, got %d (%d+%d+%d)",
			ErrInvalidBitLayout, total, l.TimestampBits, l.MachineIDBits, l.SequenceBits)
	}
	return nil
}

// TimestampShift is the left shift applied to the timestamp offset.
func (l BitLayout) TimestampShift() int {
	return l.MachineIDBits + l.SequenceBits
}

// MachineIDShift is the left shift applied to the machine ID.
func (l BitLayout) MachineIDShift() int {
	return l.SequenceBits
}

func mask(bits int) uint64 {
	return (uint64(1) << bits) - 1
}

// TimestampMask returns the mask of the timestamp field before shifting.
func (l BitLayout) TimestampMask() uint64 { return mask(l.TimestampBits) }

// MachineIDMask returns the mask of the machine ID field before shifting.
func (l BitLayout) MachineIDMask() uint64 { return mask(l.MachineIDBits) }

// SequenceMask returns the mask of the sequence field.
func (l BitLayout) SequenceMask() uint64 { return mask(l.SequenceBits) }

// ValidMask is the union of the three fields shifted into position.
// Any bit outside it means the value was not produced by this layout.
func (l BitLayout) ValidMask() uint64 {
	return l.TimestampMask()<<l.TimestampShift() |
		l.MachineIDMask()<<l.MachineIDShift() |
		l.SequenceMask()
}

// MaxMachineID is the largest machine ID the layout can hold.
func (l BitLayout) MaxMachineID() uint64 { return l.MachineIDMask() }

// MaxSequence is the largest sequence value the layout can hold.
func (l BitLayout) MaxSequence() uint64 { return l.SequenceMask() }

// MaxTimestampOffset is the largest timestamp offset, in milliseconds, the
// layout can hold.
func (l BitLayout) MaxTimestampOffset() int64 { return int64(l.TimestampMask()) }

// Compose packs the three fields into one value.
//
// Inputs are not re-masked: the caller guarantees each one already fits its
// field. The bitwise composition for LayoutDefault is:
//
//	raw = timestampOffset<<22 | machineID<<12 | sequence
func (l BitLayout) Compose(timestampOffset, machineID, sequence uint64) uint64 {
	return timestampOffset<<l.TimestampShift() |
		machineID<<l.MachineIDShift() |
		sequence
}

// TimestampOffset extracts the timestamp offset field from raw.
func (l BitLayout) TimestampOffset(raw uint64) uint64 {
	return (raw >> l.TimestampShift()) & l.TimestampMask()
}

// MachineID extracts the machine ID field from raw.
func (l BitLayout) MachineID(raw uint64) uint64 {
	return (raw >> l.MachineIDShift()) & l.MachineIDMask()
}

// Sequence extracts the sequence field from raw.
func (l BitLayout) Sequence(raw uint64) uint64 {
	return raw & l.SequenceMask()
}

// IsValid reports whether raw has no bits set outside the layout's fields.
func (l BitLayout) IsValid(raw uint64) bool {
	return raw&^l.ValidMask() == 0
}

// LayoutCapacity holds calculated capacity information for a BitLayout.
type LayoutCapacity struct {
	// MaxMachines is the number of distinct machine IDs.
	MaxMachines int64

	// IDsPerMillisecond is how many IDs one machine can issue per millisecond.
	IDsPerMillisecond int64

	// ThroughputPerMachine is the theoretical max IDs/sec per machine.
	ThroughputPerMachine int64

	// Lifespan is the duration from the epoch until the timestamp field overflows.
	Lifespan time.Duration
}

// CalculateCapacity returns the theoretical capacity of this layout.
func (l BitLayout) CalculateCapacity() LayoutCapacity {
	perMs := int64(l.SequenceMask()) + 1

	// Layouts with 44 or more timestamp bits outlive time.Duration.
	lifespan := time.Duration(math.MaxInt64)
	if l.TimestampMask() < uint64(math.MaxInt64/int64(time.Millisecond)) {
		lifespan = time.Duration(l.TimestampMask()+1) * time.Millisecond
	}

	return LayoutCapacity{
		MaxMachines:          int64(l.MachineIDMask()) + 1,
		IDsPerMillisecond:    perMs,
		ThroughputPerMachine: perMs * 1000,
		Lifespan:             lifespan,
	}
}

// String returns a human-readable description of the layout capacity.
func (c LayoutCapacity) String() string {
	years := int(c.Lifespan.Hours() / 24 / 365)
	return fmt.Sprintf("MaxMachines: %d, ThroughputPerMachine: %d/sec, Lifespan: %d years",
		c.MaxMachines, c.ThroughputPerMachine, years)
}

// String renders the layout as "timestamp+machine+sequence" bit widths.
func (l BitLayout) String() string {
	return fmt.Sprintf("%d+%d+%d", l.TimestampBits, l.MachineIDBits, l.SequenceBits)
}
