package snowflake

import (
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a Clock whose reading only changes when a test moves it.
type fakeClock struct {
	ms atomic.Int64
}

func newFakeClock(ms int64) *fakeClock {
	c := &fakeClock{}
	c.ms.Store(ms)
	return c
}

func (c *fakeClock) Now() int64 { return c.ms.Load() }

func (c *fakeClock) Set(ms int64) { c.ms.Store(ms) }

func (c *fakeClock) Advance(ms int64) { c.ms.Add(ms) }

// advanceOnWait is a Backoff that moves the clock forward instead of sleeping.
func (c *fakeClock) advanceOnWait() Backoff {
	return func(time.Duration) { c.Advance(1) }
}

// tinyID has a 3-bit sequence so rollover takes eight IDs.
type tinyID uint64

var tinyLayout = BitLayout{TimestampBits: 20, MachineIDBits: 4, SequenceBits: 3}

func (tinyID) Layout() BitLayout { return tinyLayout }

func (tinyID) FromComponentParts(timestampOffset, machineID, sequence uint64) tinyID {
	return tinyID(tinyLayout.Compose(timestampOffset, machineID, sequence))
}

func (id tinyID) Raw() uint64 { return uint64(id) }

// Epoch used by tests that drive a fakeClock.
const testEpoch int64 = 1_000_000

func testConfig(machineID uint64, clock Clock) Config {
	cfg := DefaultConfig(machineID)
	cfg.Epoch = testEpoch
	cfg.Clock = clock
	return cfg
}

func newTestCore(t *testing.T, layout BitLayout, cfg Config) *core {
	t.Helper()
	c := &core{}
	if err := c.init(cfg, layout); err != nil {
		t.Fatalf("core.init() error = %v", err)
	}
	return c
}
