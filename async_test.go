package snowflake

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewAsync(t *testing.T) {
	if _, err := NewAsync[ID](1023); err != nil {
		t.Errorf("NewAsync(1023) error = %v", err)
	}
	if _, err := NewAsync[ID](1024); !errors.Is(err, ErrInvalidMachineID) {
		t.Errorf("NewAsync(1024) error = %v, want ErrInvalidMachineID", err)
	}

	epoch := Epoch + 1000
	gen, err := AsyncWithEpoch[ClusterID](16000, epoch)
	if err != nil {
		t.Fatalf("AsyncWithEpoch() error = %v", err)
	}
	if gen.Epoch() != epoch || gen.MachineID() != 16000 || gen.Layout() != LayoutSuperior {
		t.Errorf("generator = (epoch %d, machine %d, layout %v)", gen.Epoch(), gen.MachineID(), gen.Layout())
	}
}

func TestAsyncGenerator_NextID(t *testing.T) {
	gen, err := NewAsync[ID](11)
	if err != nil {
		t.Fatalf("NewAsync() error = %v", err)
	}

	ctx := context.Background()
	var prev ID
	for i := 0; i < 10_000; i++ {
		id, err := gen.NextID(ctx)
		if err != nil {
			t.Fatalf("NextID() error = %v", err)
		}
		if id.MachineID() != 11 {
			t.Fatalf("MachineID() = %d, want 11", id.MachineID())
		}
		if id <= prev {
			t.Fatalf("ID %d is not greater than %d", id, prev)
		}
		prev = id
	}
}

func TestAsyncGenerator_Concurrent(t *testing.T) {
	gen, err := NewAsync[ID](2)
	if err != nil {
		t.Fatalf("NewAsync() error = %v", err)
	}

	const (
		workers   = 16
		perWorker = 2_000
	)
	var (
		mu   sync.Mutex
		seen = make(map[ID]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := gen.NextID(context.Background())
				if err != nil {
					t.Errorf("NextID() error = %v", err)
					return
				}
				mu.Lock()
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate ID %d", id)
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("got %d unique IDs, want %d", len(seen), workers*perWorker)
	}
}

func TestAsyncGenerator_WaitsOutExhaustion(t *testing.T) {
	clock := newFakeClock(testEpoch + 40)
	gen, err := NewAsyncWithConfig[tinyID](testConfig(1, clock))
	if err != nil {
		t.Fatalf("NewAsyncWithConfig() error = %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		if _, err := gen.NextID(ctx); err != nil {
			t.Fatalf("NextID() error = %v", err)
		}
	}

	time.AfterFunc(5*time.Millisecond, func() { clock.Advance(1) })

	id, err := gen.NextID(ctx)
	if err != nil {
		t.Fatalf("NextID() error = %v", err)
	}
	if Sequence(id) != 0 || TimestampOffset(id) != 41 {
		t.Errorf("ID = (offset %d, seq %d), want (41, 0)", TimestampOffset(id), Sequence(id))
	}
	m := gen.Metrics()
	if m.SequenceOverflow == 0 || m.WaitTimeUs == 0 {
		t.Errorf("metrics = %+v, want sequence overflows and wait time", m)
	}
}

func TestAsyncGenerator_ContextBoundsWaiting(t *testing.T) {
	clock := newFakeClock(testEpoch + 40)
	gen, err := NewAsyncWithConfig[tinyID](testConfig(1, clock))
	if err != nil {
		t.Fatalf("NewAsyncWithConfig() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// The clock never moves, so the ninth ID can only time out.
	ids, err := gen.NextIDBulk(ctx, 20)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("NextIDBulk() error = %v, want context.DeadlineExceeded", err)
	}
	if len(ids) != 8 {
		t.Fatalf("len = %d, want 8", len(ids))
	}

	// An abandoned wait leaves the state intact.
	clock.Advance(1)
	id, err := gen.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID() error = %v", err)
	}
	if id <= ids[len(ids)-1] || Sequence(id) != 0 {
		t.Errorf("ID after timeout = %d (seq %d), want a fresh millisecond after %d", id, Sequence(id), ids[len(ids)-1])
	}
}

func TestAsyncGenerator_ContextBoundsLocking(t *testing.T) {
	gen, err := NewAsync[ID](1)
	if err != nil {
		t.Fatalf("NewAsync() error = %v", err)
	}

	if err := gen.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := gen.TryNextID(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("TryNextID() with the lock held error = %v, want context.DeadlineExceeded", err)
	}
	gen.sem.Release(1)

	if _, err := gen.NextID(context.Background()); err != nil {
		t.Errorf("NextID() after release error = %v", err)
	}
}

func TestAsyncGenerator_NextIDBulk(t *testing.T) {
	gen, err := NewAsync[ID](8)
	if err != nil {
		t.Fatalf("NewAsync() error = %v", err)
	}

	ids, err := gen.NextIDBulk(context.Background(), 100)
	if err != nil {
		t.Fatalf("NextIDBulk() error = %v", err)
	}
	if len(ids) != 100 {
		t.Fatalf("len = %d, want 100", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("ids[%d] is not greater than ids[%d]", i, i-1)
		}
	}

	empty, err := gen.NextIDBulk(context.Background(), 0)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("NextIDBulk(0) = %v, %v; want empty slice", empty, err)
	}
}

func TestAsyncGenerator_ClockMovedBack(t *testing.T) {
	clock := newFakeClock(testEpoch + 1000)
	gen, err := NewAsyncWithConfig[ID](testConfig(0, clock))
	if err != nil {
		t.Fatalf("NewAsyncWithConfig() error = %v", err)
	}
	if _, err := gen.NextID(context.Background()); err != nil {
		t.Fatalf("NextID() error = %v", err)
	}

	clock.Set(testEpoch + 900)
	_, err = gen.NextID(context.Background())
	clockErr, ok := GetClockError(err)
	if !ok {
		t.Fatalf("NextID() error = %v, want *ClockError", err)
	}
	if clockErr.DriftMilliseconds != 100 {
		t.Errorf("DriftMilliseconds = %d, want 100", clockErr.DriftMilliseconds)
	}
	if !IsFatal(err) {
		t.Error("IsFatal() = false for a clock regression beyond tolerance")
	}
}

func TestAsyncGenerator_Poisoning(t *testing.T) {
	var explode atomic.Bool
	clock := ClockFunc(func() int64 {
		if explode.Load() {
			panic("clock failure")
		}
		return testEpoch + 10
	})
	gen, err := NewAsyncWithConfig[ID](testConfig(0, clock))
	if err != nil {
		t.Fatalf("NewAsyncWithConfig() error = %v", err)
	}

	explode.Store(true)
	if r := catchPanic(func() { gen.NextID(context.Background()) }); r != "clock failure" {
		t.Fatalf("NextID() panic = %v, want the clock's panic", r)
	}
	explode.Store(false)

	if _, err := gen.NextID(context.Background()); !errors.Is(err, ErrGeneratorPoisoned) {
		t.Errorf("NextID() error = %v, want ErrGeneratorPoisoned", err)
	}

	gen.Reset()
	if _, err := gen.NextID(context.Background()); err != nil {
		t.Errorf("NextID() after Reset error = %v", err)
	}
}

func BenchmarkAsyncGenerator_NextID(b *testing.B) {
	gen, err := NewAsync[ID](1)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gen.NextID(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
