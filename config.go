package snowflake

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config holds the immutable settings of a generator.
//
// Sensible defaults are provided via DefaultConfig.
type Config struct {
	// MachineID identifies this generator. It must be unique across every
	// generator issuing IDs of the same type and must not exceed the layout's
	// MaxMachineID (1023 for ID).
	MachineID uint64

	// Epoch is the reference instant in milliseconds since the Unix epoch.
	// It is only used to compute timestamp offsets and may be any value.
	// Default: January 1, 2024 00:00:00 UTC
	Epoch int64

	// MaxClockBackward is the largest backwards clock movement treated as
	// jitter. Smaller regressions produce a pending step of the drift's length;
	// larger ones fail with ErrClockMovedBack. The clock ticks in whole
	// milliseconds, so a fractional tolerance rounds up.
	// Default: 5 milliseconds
	MaxClockBackward time.Duration

	// SequenceWait is the wait suggested once the current millisecond's
	// sequence space is exhausted.
	// Default: 1 millisecond
	SequenceWait time.Duration

	// EnableMetrics turns on the atomic counters returned by Metrics.
	// Default: true
	EnableMetrics bool

	// Clock supplies the current time. Default: MonotonicClock()
	Clock Clock

	// Logger receives warnings about fatal clock and overflow conditions.
	// Default: zap.NewNop()
	Logger *zap.Logger
}

// DefaultConfig returns a Config for machineID with production defaults.
func DefaultConfig(machineID uint64) Config {
	return Config{
		MachineID:        machineID,
		Epoch:            Epoch,
		MaxClockBackward: DefaultMaxClockBackward,
		SequenceWait:     DefaultSequenceWait,
		EnableMetrics:    true,
	}
}

// Validate checks the configuration against layout.
//
// Returns a ConfigError with the offending field. Machine ID violations also
// match ErrInvalidMachineID, layout violations ErrInvalidBitLayout.
func (c Config) Validate(layout BitLayout) error {
	if err := layout.Validate(); err != nil {
		cfgErr := newConfigError("Layout", layout.String(), err.Error(), "fields must be non-negative and sum to at most 63 bits")
		cfgErr.sentinel = ErrInvalidBitLayout
		return cfgErr
	}
	if c.MachineID > layout.MaxMachineID() {
		cfgErr := newConfigError(
			"MachineID",
			fmt.Sprintf("%d", c.MachineID),
			"out of valid range for layout",
			fmt.Sprintf("must be between 0 and %d (%d bits)", layout.MaxMachineID(), layout.MachineIDBits),
		)
		cfgErr.sentinel = ErrInvalidMachineID
		return cfgErr
	}
	if c.MaxClockBackward < 0 {
		return newConfigError(
			"MaxClockBackward",
			c.MaxClockBackward.String(),
			"must be non-negative",
			"duration must be >= 0",
		)
	}
	if c.SequenceWait <= 0 {
		return newConfigError(
			"SequenceWait",
			c.SequenceWait.String(),
			"must be positive",
			"duration must be > 0",
		)
	}
	return nil
}

// core is the immutable part of a generator plus its counters.
// Everything except counters is read-only after init.
type core struct {
	layout       BitLayout
	machineID    uint64
	epoch        int64
	toleranceMs  int64
	sequenceWait time.Duration
	clock        Clock
	logger       *zap.Logger
	metrics      counters
}

func (c *core) init(cfg Config, layout BitLayout) error {
	if err := cfg.Validate(layout); err != nil {
		return err
	}
	if cfg.Clock == nil {
		cfg.Clock = MonotonicClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c.layout = layout
	c.machineID = cfg.MachineID
	c.epoch = cfg.Epoch
	c.toleranceMs = cfg.MaxClockBackward.Milliseconds()
	if cfg.MaxClockBackward%time.Millisecond != 0 {
		c.toleranceMs++
	}
	c.sequenceWait = cfg.SequenceWait
	c.clock = cfg.Clock
	c.logger = cfg.Logger.With(
		zap.Uint64("machine_id", cfg.MachineID),
		zap.Stringer("layout", layout),
	)
	c.metrics.enabled = cfg.EnableMetrics
	return nil
}
