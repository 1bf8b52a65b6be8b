// Snowflake CLI - Command-line tool for Snowflake ID generation and utilities
//
// Usage:
//
//	snowflake generate [flags]       Generate Snowflake IDs
//	snowflake parse <id>             Parse and inspect an ID
//	snowflake encode <id> <format>   Convert ID to different format
//	snowflake validate <id>          Validate an ID
//	snowflake bench                  Run performance benchmarks
//	snowflake serve                  Serve IDs over HTTP
//
// Generator settings come from flags, SNOWFLAKE_* environment variables and
// an optional --config file, in that order of precedence.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sxyafiq/snowflake/v2"
	"github.com/sxyafiq/snowflake/v2/internal/config"
	"github.com/sxyafiq/snowflake/v2/internal/logging"
)

const version = "2.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	configFile string
}

// load resolves settings from the command's flags and builds the logger.
func (a *app) load(cmd *cobra.Command) (*config.Settings, *zap.Logger, error) {
	s, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(s.LogDebug)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return s, logger, nil
}

// generator builds a blocking generator from the command's settings.
func (a *app) generator(cmd *cobra.Command) (*snowflake.IDGenerator, *config.Settings, *zap.Logger, error) {
	s, logger, err := a.load(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := snowflake.NewWithConfig[snowflake.ID](s.GeneratorConfig(logging.Component(logger, "generator")))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create generator: %w", err)
	}
	return gen, s, logger, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "snowflake",
		Short: "High-performance distributed unique ID generator",
		Long: `Snowflake generates 64-bit, time-ordered unique IDs without coordination.

Each ID packs a millisecond timestamp offset, a machine ID and a per-millisecond
sequence number. Machine IDs must be unique across every generator issuing IDs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("snowflake CLI version {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (yaml, json or toml)")
	pf.Uint64("machine-id", 0, "Machine ID (0-1023)")
	pf.Int64("epoch", snowflake.Epoch, "Epoch in Unix milliseconds")
	pf.Duration("max-clock-backward", snowflake.DefaultMaxClockBackward, "Largest backwards clock step waited out instead of failing")
	pf.Duration("sequence-wait", snowflake.DefaultSequenceWait, "Wait after the sequence space of a millisecond is exhausted")
	pf.String("clock", config.ClockMonotonic, "Clock source: monotonic|wall")
	pf.Bool("log-debug", false, "Human-readable debug logging")

	root.AddCommand(
		newGenerateCmd(a),
		newParseCmd(a),
		newEncodeCmd(),
		newValidateCmd(a),
		newBenchCmd(a),
		newServeCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "snowflake CLI version %s\n", version)
			},
		},
	)
	return root
}
