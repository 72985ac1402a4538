// Package config loads the writer's configuration from CLI flags, a
// pthc.yaml file, and built-in defaults, in that precedence order.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ErrInitialBucketsNotPowerOfTwo is returned when the configured starting
// bucket count for the on-disk hash tables is not a power of two.
var ErrInitialBucketsNotPowerOfTwo = errors.New("config: initial_buckets must be a power of two")

const defaultInitialBuckets = 64

// Config holds the CLI's writer settings.
type Config struct {
	OutputPath     string `mapstructure:"output_path"`
	InitialBuckets int    `mapstructure:"initial_buckets"`
	Strict         bool   `mapstructure:"strict"`
}

// Load reads configuration from pthc.yaml (if present) and built-in
// defaults. Callers overlay CLI flag values afterward, since viper's own
// flag binding would require the cobra command to be constructed first.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("initial_buckets", defaultInitialBuckets)
	v.SetDefault("strict", true)

	v.SetConfigName("pthc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PTHC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read pthc.yaml: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.InitialBuckets <= 0 || cfg.InitialBuckets&(cfg.InitialBuckets-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrInitialBucketsNotPowerOfTwo, cfg.InitialBuckets)
	}

	return nil
}
