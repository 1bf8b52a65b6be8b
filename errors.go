// Package snowflake - errors.go defines the error taxonomy of the generator.
//
// Every error carries a sentinel reachable through errors.Is, and the ones
// that have useful context (drift amounts, offending field values) are typed
// so callers can pull that context out with errors.As.

package snowflake

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Use errors.Is to classify an error returned by this package.
var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidMachineID is returned when the machine ID exceeds the layout's capacity.
	ErrInvalidMachineID = errors.New("invalid machine ID")

	// ErrClockMovedBack is returned when the clock moved backwards by more than
	// the configured tolerance. Waiting does not fix it.
	ErrClockMovedBack = errors.New("clock moved backwards")

	// ErrTimestampOverflow is returned once the timestamp offset no longer fits
	// the layout's timestamp field, or falls before the epoch.
	ErrTimestampOverflow = errors.New("timestamp overflow")

	// ErrGeneratorPoisoned is returned after a goroutine panicked while holding
	// the generator's lock. Call Reset to make the generator usable again.
	ErrGeneratorPoisoned = errors.New("generator poisoned by a panic while locked")

	// ErrInvalidID is returned when a value cannot be decoded into an ID.
	ErrInvalidID = errors.New("invalid snowflake id")

	// ErrNegativeID is returned when a decoded value is negative.
	ErrNegativeID = errors.New("snowflake id cannot be negative")
)

// ClockError reports a backwards clock movement beyond the tolerance.
//
// Example usage:
//
//	if _, err := gen.NextID(snowflake.Sleep); err != nil {
//	    var clockErr *snowflake.ClockError
//	    if errors.As(err, &clockErr) {
//	        logger.Error("clock drift detected",
//	            zap.Int64("drift_ms", clockErr.DriftMilliseconds),
//	            zap.Uint64("machine", clockErr.MachineID))
//	    }
//	}
type ClockError struct {
	// CurrentTimestamp is the sampled clock in milliseconds since the Unix epoch.
	CurrentTimestamp int64

	// LastTimestamp is the timestamp of the most recent ID.
	LastTimestamp int64

	// DriftMilliseconds is LastTimestamp - CurrentTimestamp (always positive).
	DriftMilliseconds int64

	// ToleranceMilliseconds is the maximum drift treated as transient.
	ToleranceMilliseconds int64

	// MachineID is the machine ID of the generator that failed.
	MachineID uint64
}

// Error implements the error interface.
func (e *ClockError) Error() string {
	return fmt.Sprintf("clock moved backwards: drift=%dms tolerance=%dms current=%d last=%d machine=%d",
		e.DriftMilliseconds, e.ToleranceMilliseconds,
		e.CurrentTimestamp, e.LastTimestamp, e.MachineID)
}

// Unwrap returns ErrClockMovedBack.
func (e *ClockError) Unwrap() error {
	return ErrClockMovedBack
}

// DriftDuration returns the drift as a time.Duration.
func (e *ClockError) DriftDuration() time.Duration {
	return time.Duration(e.DriftMilliseconds) * time.Millisecond
}

// ConfigError describes which configuration field failed validation.
type ConfigError struct {
	// Field is the name of the configuration field.
	Field string

	// Value is the rejected value, formatted for logging.
	Value string

	// Reason says why the value was rejected.
	Reason string

	// Constraint describes the accepted range, e.g. "must be between 0 and 1023".
	Constraint string

	sentinel error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s (%s) - %s",
		e.Field, e.Value, e.Reason, e.Constraint)
}

// Unwrap exposes ErrInvalidConfig and, where one applies, the more specific
// sentinel such as ErrInvalidMachineID.
func (e *ConfigError) Unwrap() []error {
	if e.sentinel == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.sentinel}
}

// OverflowError reports that the epoch's timestamp space is exhausted (or the
// clock reads earlier than the epoch).
type OverflowError struct {
	// Timestamp is the sampled clock in milliseconds since the Unix epoch.
	Timestamp int64

	// Offset is Timestamp minus the generator's epoch.
	Offset int64

	// MaxOffset is the largest offset the layout can hold.
	MaxOffset int64

	// MachineID is the machine ID of the generator that failed.
	MachineID uint64
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("timestamp overflow: clock %d is before the epoch (offset=%d, machine=%d)",
			e.Timestamp, e.Offset, e.MachineID)
	}
	return fmt.Sprintf("timestamp overflow: offset %d exceeds maximum %d (machine=%d)",
		e.Offset, e.MaxOffset, e.MachineID)
}

// Unwrap returns ErrTimestampOverflow.
func (e *OverflowError) Unwrap() error {
	return ErrTimestampOverflow
}

// PoisonedError is the panic value observed when the generator became poisoned.
// It is only logged; callers see ErrGeneratorPoisoned on later calls.
type PoisonedError struct {
	Cause any
}

// Error implements the error interface.
func (e *PoisonedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrGeneratorPoisoned, e.Cause)
}

// Unwrap returns ErrGeneratorPoisoned.
func (e *PoisonedError) Unwrap() error {
	return ErrGeneratorPoisoned
}

// IsClockError checks if an error is or wraps a ClockError.
func IsClockError(err error) bool {
	var clockErr *ClockError
	return errors.As(err, &clockErr)
}

// IsConfigError checks if an error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsOverflowError checks if an error is or wraps an OverflowError.
func IsOverflowError(err error) bool {
	var overflowErr *OverflowError
	return errors.As(err, &overflowErr)
}

// IsFatal reports whether err is a runtime condition that waiting cannot fix:
// a clock regression beyond tolerance, a timestamp overflow or a poisoned
// generator.
func IsFatal(err error) bool {
	return errors.Is(err, ErrClockMovedBack) ||
		errors.Is(err, ErrTimestampOverflow) ||
		errors.Is(err, ErrGeneratorPoisoned)
}

// GetClockError extracts the ClockError from an error chain.
func GetClockError(err error) (*ClockError, bool) {
	var clockErr *ClockError
	if errors.As(err, &clockErr) {
		return clockErr, true
	}
	return nil, false
}

// GetConfigError extracts the ConfigError from an error chain.
func GetConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetOverflowError extracts the OverflowError from an error chain.
func GetOverflowError(err error) (*OverflowError, bool) {
	var overflowErr *OverflowError
	if errors.As(err, &overflowErr) {
		return overflowErr, true
	}
	return nil, false
}

func newClockError(current, last, toleranceMs int64, machineID uint64) *ClockError {
	return &ClockError{
		CurrentTimestamp:      current,
		LastTimestamp:         last,
		DriftMilliseconds:     last - current,
		ToleranceMilliseconds: toleranceMs,
		MachineID:             machineID,
	}
}

func newConfigError(field, value, reason, constraint string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Reason:     reason,
		Constraint: constraint,
	}
}

func newOverflowError(timestamp, offset, maxOffset int64, machineID uint64) *OverflowError {
	return &OverflowError{
		Timestamp: timestamp,
		Offset:    offset,
		MaxOffset: maxOffset,
		MachineID: machineID,
	}
}
