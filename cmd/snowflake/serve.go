package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sxyafiq/snowflake/v2"
	"github.com/sxyafiq/snowflake/v2/internal/logging"
	"github.com/sxyafiq/snowflake/v2/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve IDs over HTTP",
		Long: `Serve IDs over HTTP until interrupted.

Routes:
  GET /v1/id            one ID
  GET /v1/ids?count=N   N IDs, at most --max-batch
  GET /v1/ids/:id       decompose an ID
  GET /metrics          Prometheus counters
  GET /health           503 while generation is failing`,
		Example: `  snowflake serve --machine-id 3 --http-addr :8080
  SNOWFLAKE_MACHINE_ID=3 snowflake serve --config /etc/snowflake.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			gen, err := snowflake.NewAsyncWithConfig[snowflake.ID](s.GeneratorConfig(logging.Component(logger, "generator")))
			if err != nil {
				return fmt.Errorf("create generator: %w", err)
			}
			srv := server.New(gen, logging.Component(logger, "server"), server.Options{
				MaxBatch:        s.MaxBatch,
				ShutdownTimeout: s.ShutdownTimeout,
				Debug:           s.LogDebug,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting snowflake server",
				zap.String("addr", s.HTTPAddr),
				zap.Uint64("machine_id", s.MachineID),
				zap.Int64("epoch", s.Epoch),
				zap.String("clock", s.Clock),
				zap.Int("max_batch", s.MaxBatch),
			)
			if err := srv.Run(ctx, s.HTTPAddr); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("server stopped", zap.Int64("generated", gen.Metrics().Generated))
			return nil
		},
	}

	f := cmd.Flags()
	f.String("http-addr", ":8080", "HTTP listen address")
	f.Int("max-batch", 4096, "Largest count accepted by /v1/ids")
	f.Duration("shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	return cmd
}
