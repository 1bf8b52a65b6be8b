package snowflake

import (
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	a, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	b := MustGenerateID()
	if b <= a {
		t.Errorf("MustGenerateID() = %d, want greater than %d", b, a)
	}
	if a.MachineID() != 0 {
		t.Errorf("default generator machine ID = %d, want 0", a.MachineID())
	}

	m, err := DefaultMetrics()
	if err != nil {
		t.Fatalf("DefaultMetrics() error = %v", err)
	}
	if m.Generated < 2 {
		t.Errorf("DefaultMetrics().Generated = %d, want at least 2", m.Generated)
	}
}

func TestGenericAccessors(t *testing.T) {
	id := ClusterID(LayoutSuperior.Compose(99, 12000, 300))

	if got := MachineID(id); got != 12000 {
		t.Errorf("MachineID() = %d, want 12000", got)
	}
	if got := Sequence(id); got != 300 {
		t.Errorf("Sequence() = %d, want 300", got)
	}
	if got := TimestampWithEpoch(id, 1000); got != 1099 {
		t.Errorf("TimestampWithEpoch() = %d, want 1099", got)
	}
	if !IsValid(id) {
		t.Error("IsValid() = false")
	}
	if IsValid(ClusterID(-1)) {
		t.Error("IsValid() = true for a negative ClusterID")
	}
}

func TestMonotonicClock(t *testing.T) {
	c := MonotonicClock()
	first := c.Now()
	if d := first - time.Now().UnixMilli(); d < -1000 || d > 1000 {
		t.Errorf("MonotonicClock().Now() is %dms away from the wall clock", d)
	}
	for i := 0; i < 1000; i++ {
		next := c.Now()
		if next < first {
			t.Fatalf("MonotonicClock went backwards: %d then %d", first, next)
		}
		first = next
	}
}

func TestWallClock(t *testing.T) {
	now := time.Now().UnixMilli()
	if d := WallClock().Now() - now; d < 0 || d > 1000 {
		t.Errorf("WallClock().Now() is %dms away from time.Now", d)
	}
}

func TestBackoffs(t *testing.T) {
	for name, backoff := range map[string]Backoff{"Sleep": Sleep, "Yield": Yield, "Spin": Spin, "Hybrid": Hybrid} {
		start := time.Now()
		backoff(200 * time.Microsecond)
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("%s took %v", name, elapsed)
		}
	}

	start := time.Now()
	Sleep(2 * time.Millisecond)
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Errorf("Sleep(2ms) returned after %v", elapsed)
	}
}
