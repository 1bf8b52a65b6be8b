// Package config loads process settings for the snowflake binaries from
// defaults, an optional config file, SNOWFLAKE_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sxyafiq/snowflake/v2"
)

// EnvPrefix is prepended to every setting when read from the environment,
// e.g. SNOWFLAKE_MACHINE_ID.
const EnvPrefix = "snowflake"

const (
	ClockMonotonic = "monotonic"
	ClockWall      = "wall"
)

// Settings is the resolved configuration of the snowflake command.
type Settings struct {
	// generator
	MachineID        uint64        `mapstructure:"machine_id"`
	Epoch            int64         `mapstructure:"epoch" validate:"gte=0"`
	MaxClockBackward time.Duration `mapstructure:"max_clock_backward" validate:"gte=0"`
	SequenceWait     time.Duration `mapstructure:"sequence_wait" validate:"gt=0"`
	Clock            string        `mapstructure:"clock" validate:"oneof=monotonic wall"`
	MetricsEnable    bool          `mapstructure:"metrics_enable"`

	// process
	LogDebug        bool          `mapstructure:"log_debug"`
	HTTPAddr        string        `mapstructure:"http_addr" validate:"required"`
	MaxBatch        int           `mapstructure:"max_batch" validate:"gt=0,lte=100000"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// keys lists every setting. Flags are bound only when their name, with
// dashes turned into underscores, appears here.
var keys = []string{
	"machine_id",
	"epoch",
	"max_clock_backward",
	"sequence_wait",
	"clock",
	"metrics_enable",
	"log_debug",
	"http_addr",
	"max_batch",
	"shutdown_timeout",
}

// BindEnv maps every setting to its SNOWFLAKE_ environment variable.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range keys {
		v.BindEnv(key)
	}
}

// SetDefaults installs the value each setting takes when nothing else sets it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("machine_id", 0)
	v.SetDefault("epoch", snowflake.Epoch)
	v.SetDefault("max_clock_backward", snowflake.DefaultMaxClockBackward)
	v.SetDefault("sequence_wait", snowflake.DefaultSequenceWait)
	v.SetDefault("clock", ClockMonotonic)
	v.SetDefault("metrics_enable", true)
	v.SetDefault("log_debug", false)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("max_batch", 4096)
	v.SetDefault("shutdown_timeout", 5*time.Second)
}

// BindFlags binds every flag in flags that names a setting, so that a flag
// set on the command line overrides the environment and config file.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKey(key) || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func isKey(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// Load resolves Settings. configFile may be empty; flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	BindEnv(v)
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	if flags != nil {
		if err := BindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	s := new(Settings)
	if err := v.UnmarshalExact(s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks struct constraints, then the generator settings against
// the default ID layout.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := s.GeneratorConfig(nil).Validate(snowflake.LayoutDefault); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GeneratorConfig translates the settings into a generator Config.
// A nil logger leaves the generator silent.
func (s *Settings) GeneratorConfig(logger *zap.Logger) snowflake.Config {
	cfg := snowflake.DefaultConfig(s.MachineID)
	cfg.Epoch = s.Epoch
	cfg.MaxClockBackward = s.MaxClockBackward
	cfg.SequenceWait = s.SequenceWait
	cfg.EnableMetrics = s.MetricsEnable
	cfg.Logger = logger
	if s.Clock == ClockWall {
		cfg.Clock = snowflake.WallClock()
	} else {
		cfg.Clock = snowflake.MonotonicClock()
	}
	return cfg
}
