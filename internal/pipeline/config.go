package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/framepipe/internal/frame"
)

// ErrInvalidConfig is returned when construction-time validation fails.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Config holds the stream processor settings. It is immutable after
// construction; UpdateConfig applies a validated replacement for the
// tunable subset.
type Config struct {
	// Geometry
	InputWidth   int `toml:"input_width"`
	InputHeight  int `toml:"input_height"`
	TargetWidth  int `toml:"target_width"`
	TargetHeight int `toml:"target_height"`

	// Performance
	TargetFPS             int           `toml:"target_fps"`
	MaxQueueSize          int           `toml:"max_queue_size"`
	MaxProcessingTime     time.Duration `toml:"max_processing_time"`
	EnableGPU             bool          `toml:"enable_gpu"`
	EnableAdaptiveQuality bool          `toml:"enable_adaptive_quality"`
	MaxThreads            int           `toml:"max_threads"`

	// Memory
	MaxMemoryMB int `toml:"max_memory_mb"`

	// Safety
	EnableSafetyMonitoring bool    `toml:"enable_safety_monitoring"`
	ThermalLimitCelsius    float64 `toml:"thermal_limit_celsius"`
	MaxConsecutiveErrors   int     `toml:"max_consecutive_errors"`

	// Batching
	BatchSize int `toml:"batch_size"`

	// Loop intervals. Zero values take the defaults; tests shorten them.
	MetricsInterval   time.Duration `toml:"metrics_interval"`
	SafetyInterval    time.Duration `toml:"safety_interval"`
	OptimizerInterval time.Duration `toml:"optimizer_interval"`
}

// DefaultConfig returns the baseline configuration: 640x480 at 30 fps with
// safety monitoring on.
func DefaultConfig() Config {
	return Config{
		InputWidth:             640,
		InputHeight:            480,
		TargetWidth:            640,
		TargetHeight:           480,
		TargetFPS:              30,
		MaxQueueSize:           10,
		MaxProcessingTime:      100 * time.Millisecond,
		EnableGPU:              true,
		EnableAdaptiveQuality:  true,
		MaxThreads:             4,
		MaxMemoryMB:            512,
		EnableSafetyMonitoring: true,
		ThermalLimitCelsius:    85.0,
		MaxConsecutiveErrors:   10,
		BatchSize:              4,
		MetricsInterval:        time.Second,
		SafetyInterval:         500 * time.Millisecond,
		OptimizerInterval:      5 * time.Second,
	}
}

// withDefaults fills unset interval fields.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = d.MetricsInterval
	}
	if c.SafetyInterval <= 0 {
		c.SafetyInterval = d.SafetyInterval
	}
	if c.OptimizerInterval <= 0 {
		c.OptimizerInterval = d.OptimizerInterval
	}
	if c.MaxProcessingTime <= 0 {
		c.MaxProcessingTime = d.MaxProcessingTime
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	return c
}

// Validate checks construction-time invariants. A processor is never created
// from a config that fails here.
func (c Config) Validate() error {
	if err := frame.CheckDimensions(c.InputWidth, c.InputHeight, 3); err != nil {
		return fmt.Errorf("%w: input %v", ErrInvalidConfig, err)
	}
	if err := frame.CheckDimensions(c.TargetWidth, c.TargetHeight, 3); err != nil {
		return fmt.Errorf("%w: target %v", ErrInvalidConfig, err)
	}
	if c.TargetFPS <= 0 || c.TargetFPS > 1000 {
		return fmt.Errorf("%w: target fps %d", ErrInvalidConfig, c.TargetFPS)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("%w: max queue size %d", ErrInvalidConfig, c.MaxQueueSize)
	}
	if c.MaxConsecutiveErrors < 1 {
		return fmt.Errorf("%w: max consecutive errors %d", ErrInvalidConfig, c.MaxConsecutiveErrors)
	}
	if c.ThermalLimitCelsius <= 0 {
		return fmt.Errorf("%w: thermal limit %f", ErrInvalidConfig, c.ThermalLimitCelsius)
	}
	if c.MaxMemoryMB < 0 {
		return fmt.Errorf("%w: max memory %d", ErrInvalidConfig, c.MaxMemoryMB)
	}
	return nil
}
