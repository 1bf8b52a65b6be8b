package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sxyafiq/snowflake/v2"
)

// asyncMachineID picks the machine ID for the async benchmark. Two generators
// in one process sharing a machine ID and clock can issue the same ID.
func asyncMachineID(id uint64) uint64 {
	if id >= snowflake.LayoutDefault.MaxMachineID() {
		return 0
	}
	return id + 1
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		duration time.Duration
		workers  int
		batch    int
	)
	cmd := &cobra.Command{
		Use:     "bench",
		Aliases: []string{"benchmark", "b"},
		Short:   "Run performance benchmarks",
		Example: `  snowflake bench --duration 5s
  snowflake bench --machine-id 42 --workers 8 --duration 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if duration <= 0 || workers < 1 || batch < 1 {
				return fmt.Errorf("--duration, --workers and --batch must be positive")
			}
			gen, s, logger, err := a.generator(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			acfg := s.GeneratorConfig(logger)
			acfg.MachineID = asyncMachineID(s.MachineID)
			agen, err := snowflake.NewAsyncWithConfig[snowflake.ID](acfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			fmt.Fprintf(out, "Running benchmarks (duration: %v, machine: %d, workers: %d)\n\n", duration, s.MachineID, workers)

			single := func(context.Context) (int, error) {
				_, err := gen.NextID(snowflake.Hybrid)
				return 1, err
			}
			benches := []struct {
				title   string
				workers int
				op      func(context.Context) (int, error)
			}{
				{"1. Single ID Generation:", 1, single},
				{fmt.Sprintf("2. Concurrent Generation (%d goroutines):", workers), workers, single},
				{fmt.Sprintf("3. Bulk Generation (batch size: %d):", batch), 1, func(context.Context) (int, error) {
					ids, err := gen.NextIDBulk(batch, snowflake.Hybrid)
					return len(ids), err
				}},
				{fmt.Sprintf("4. Async Generation (%d goroutines):", workers), workers, func(ctx context.Context) (int, error) {
					_, err := agen.NextID(ctx)
					return 1, err
				}},
			}
			for _, b := range benches {
				n, elapsed, err := runBench(ctx, duration, b.workers, b.op)
				if err != nil {
					return fmt.Errorf("%s %w", b.title, err)
				}
				fmt.Fprintf(out, "%s\n", b.title)
				printRate(out, n, elapsed)
			}

			fmt.Fprintf(out, "5. Encoding Performance (1000 operations):\n")
			id, err := gen.NextID(snowflake.Hybrid)
			if err != nil {
				return err
			}
			for _, enc := range snowflake.Encodings {
				start := time.Now()
				for i := 0; i < 1000; i++ {
					_, _ = id.Encode(enc)
				}
				fmt.Fprintf(out, "   %-8s %6.0f ns/op\n", enc+":", float64(time.Since(start).Nanoseconds())/1000)
			}

			m := gen.Metrics()
			fmt.Fprintf(out, "\nSequence exhaustions: %d, clock waits: %d, time waiting: %v\n",
				m.SequenceOverflow, m.ClockBackward, time.Duration(m.WaitTimeUs)*time.Microsecond)
			fmt.Fprintf(out, "\nBenchmark complete!\n")
			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVar(&duration, "duration", 3*time.Second, "Duration of each benchmark")
	f.IntVar(&workers, "workers", 4, "Goroutines for the concurrent benchmarks")
	f.IntVar(&batch, "batch", 100, "Batch size for the bulk benchmark")
	return cmd
}

// runBench calls op from workers goroutines until d has elapsed and returns
// the number of IDs produced. Context errors caused by the deadline are not
// failures.
func runBench(ctx context.Context, d time.Duration, workers int, op func(context.Context) (int, error)) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for gctx.Err() == nil {
				n, err := op(gctx)
				total.Add(int64(n))
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return total.Load(), time.Since(start), err
}

func printRate(w io.Writer, n int64, elapsed time.Duration) {
	fmt.Fprintf(w, "   Generated:      %d IDs\n", n)
	fmt.Fprintf(w, "   Duration:       %v\n", elapsed)
	if n > 0 {
		fmt.Fprintf(w, "   Rate:           %.0f IDs/sec (%.0f ns/op)\n",
			float64(n)/elapsed.Seconds(), float64(elapsed.Nanoseconds())/float64(n))
	}
	fmt.Fprintf(w, "\n")
}
