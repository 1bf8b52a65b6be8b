package snowflake

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// ClockError Tests
// ============================================================================

func TestClockError_Error(t *testing.T) {
	err := newClockError(1000, 1500, 5, 42)

	msg := err.Error()
	for _, want := range []string{"clock moved backwards", "drift=500ms", "tolerance=5ms", "machine=42"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want it to contain %q", msg, want)
		}
	}
}

func TestClockError_Unwrap(t *testing.T) {
	err := newClockError(1000, 1500, 5, 42)

	if !errors.Is(err, ErrClockMovedBack) {
		t.Error("ClockError should unwrap to ErrClockMovedBack")
	}
	if errors.Is(err, ErrTimestampOverflow) {
		t.Error("ClockError should not match ErrTimestampOverflow")
	}
}

func TestClockError_DriftDuration(t *testing.T) {
	err := newClockError(1000, 1500, 5, 42)

	if got, want := err.DriftDuration(), 500*time.Millisecond; got != want {
		t.Errorf("DriftDuration() = %v, want %v", got, want)
	}
}

// ============================================================================
// ConfigError Tests
// ============================================================================

func TestConfigError_Error(t *testing.T) {
	err := newConfigError("MachineID", "2000", "out of valid range", "must be between 0 and 1023")

	msg := err.Error()
	for _, want := range []string{"invalid configuration", "MachineID=2000", "must be between 0 and 1023"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want it to contain %q", msg, want)
		}
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	plain := newConfigError("SequenceWait", "0s", "must be positive", "duration must be > 0")
	if !errors.Is(plain, ErrInvalidConfig) {
		t.Error("ConfigError should unwrap to ErrInvalidConfig")
	}
	if errors.Is(plain, ErrInvalidMachineID) {
		t.Error("ConfigError without a sentinel should not match ErrInvalidMachineID")
	}

	err := DefaultConfig(1024).Validate(LayoutDefault)
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidMachineID) {
		t.Errorf("Validate() error = %v, want ErrInvalidConfig and ErrInvalidMachineID", err)
	}
}

func TestConfig_Validate_Layout(t *testing.T) {
	err := DefaultConfig(0).Validate(BitLayout{TimestampBits: 50, MachineIDBits: 10, SequenceBits: 10})
	if !errors.Is(err, ErrInvalidBitLayout) || !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() error = %v, want ErrInvalidBitLayout and ErrInvalidConfig", err)
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		layout BitLayout
	}{
		{"Default", DefaultConfig(0), LayoutDefault},
		{"Max machine", DefaultConfig(1023), LayoutDefault},
		{"Superior max machine", DefaultConfig(16383), LayoutSuperior},
		{"Zero tolerance", Config{SequenceWait: time.Millisecond}, LayoutDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(tt.layout); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

// ============================================================================
// OverflowError Tests
// ============================================================================

func TestOverflowError_Error(t *testing.T) {
	past := newOverflowError(5000, 2000, 1023, 3)
	if msg := past.Error(); !strings.Contains(msg, "offset 2000 exceeds maximum 1023") {
		t.Errorf("Error() = %q, want the offset and maximum", msg)
	}

	before := newOverflowError(5000, -10, 1023, 3)
	if msg := before.Error(); !strings.Contains(msg, "before the epoch") {
		t.Errorf("Error() = %q, want it to mention the epoch", msg)
	}
}

func TestOverflowError_Unwrap(t *testing.T) {
	if !errors.Is(newOverflowError(1, 2, 1, 0), ErrTimestampOverflow) {
		t.Error("OverflowError should unwrap to ErrTimestampOverflow")
	}
}

func TestPoisonedError(t *testing.T) {
	err := &PoisonedError{Cause: "boom"}
	if !errors.Is(err, ErrGeneratorPoisoned) {
		t.Error("PoisonedError should unwrap to ErrGeneratorPoisoned")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q, want the panic value", err.Error())
	}
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestErrorHelpers(t *testing.T) {
	clockErr := newClockError(1000, 1500, 5, 42)
	configErr := newConfigError("MachineID", "2000", "bad", "range")
	overflowErr := newOverflowError(1, 2, 1, 0)

	tests := []struct {
		name         string
		err          error
		wantClock    bool
		wantConfig   bool
		wantOverflow bool
		wantFatal    bool
	}{
		{"ClockError", clockErr, true, false, false, true},
		{"Wrapped ClockError", fmt.Errorf("generate: %w", clockErr), true, false, false, true},
		{"ConfigError", configErr, false, true, false, false},
		{"OverflowError", overflowErr, false, false, true, true},
		{"Poisoned", ErrGeneratorPoisoned, false, false, false, true},
		{"Plain error", errors.New("other"), false, false, false, false},
		{"Nil", nil, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClockError(tt.err); got != tt.wantClock {
				t.Errorf("IsClockError() = %v, want %v", got, tt.wantClock)
			}
			if got := IsConfigError(tt.err); got != tt.wantConfig {
				t.Errorf("IsConfigError() = %v, want %v", got, tt.wantConfig)
			}
			if got := IsOverflowError(tt.err); got != tt.wantOverflow {
				t.Errorf("IsOverflowError() = %v, want %v", got, tt.wantOverflow)
			}
			if got := IsFatal(tt.err); got != tt.wantFatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.wantFatal)
			}
		})
	}
}

func TestGetErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", newClockError(1, 3, 1, 9))
	if got, ok := GetClockError(wrapped); !ok || got.MachineID != 9 {
		t.Errorf("GetClockError() = %v, %v", got, ok)
	}
	if _, ok := GetClockError(errors.New("other")); ok {
		t.Error("GetClockError() found a ClockError in a plain error")
	}

	if got, ok := GetConfigError(fmt.Errorf("x: %w", newConfigError("Epoch", "1", "r", "c"))); !ok || got.Field != "Epoch" {
		t.Errorf("GetConfigError() = %v, %v", got, ok)
	}
	if got, ok := GetOverflowError(fmt.Errorf("x: %w", newOverflowError(1, 7, 5, 0))); !ok || got.Offset != 7 {
		t.Errorf("GetOverflowError() = %v, %v", got, ok)
	}
}
