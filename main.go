package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/framepipe/cmd"
	"github.com/smazurov/framepipe/internal/api"
	"github.com/smazurov/framepipe/internal/config"
	"github.com/smazurov/framepipe/internal/events"
	"github.com/smazurov/framepipe/internal/logging"
	"github.com/smazurov/framepipe/internal/pipeline"
	"github.com/smazurov/framepipe/internal/telemetry"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"framepipe.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings; empty credentials disable auth
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Pipeline geometry
	InputWidth   int `help:"Input frame width" default:"640" toml:"pipeline.input_width" env:"INPUT_WIDTH"`
	InputHeight  int `help:"Input frame height" default:"480" toml:"pipeline.input_height" env:"INPUT_HEIGHT"`
	TargetWidth  int `help:"Target frame width" default:"640" toml:"pipeline.target_width" env:"TARGET_WIDTH"`
	TargetHeight int `help:"Target frame height" default:"480" toml:"pipeline.target_height" env:"TARGET_HEIGHT"`

	// Pipeline performance
	TargetFPS             int  `help:"Target frame rate" default:"30" toml:"pipeline.target_fps" env:"TARGET_FPS"`
	MaxQueueSize          int  `help:"Frame queue capacity" default:"10" toml:"pipeline.max_queue_size" env:"MAX_QUEUE_SIZE"`
	EnableGPU             bool `help:"Use the GPU when available" default:"true" toml:"pipeline.enable_gpu" env:"ENABLE_GPU"`
	EnableAdaptiveQuality bool `help:"Adapt quality to measured FPS" default:"true" toml:"pipeline.enable_adaptive_quality" env:"ENABLE_ADAPTIVE_QUALITY"`
	MaxMemoryMB           int  `help:"Frame memory ceiling in MB" default:"512" toml:"pipeline.max_memory_mb" env:"MAX_MEMORY_MB"`
	BatchSize             int  `help:"Default retrieval batch size" default:"4" toml:"pipeline.batch_size" env:"BATCH_SIZE"`

	// Safety settings
	EnableSafetyMonitoring bool `help:"Run fault and thermal checks" default:"true" toml:"pipeline.enable_safety_monitoring" env:"ENABLE_SAFETY_MONITORING"`
	ThermalLimitCelsius    int  `help:"Thermal trip point in Celsius" default:"85" toml:"pipeline.thermal_limit_celsius" env:"THERMAL_LIMIT_CELSIUS"`
	MaxConsecutiveErrors   int  `help:"Consecutive error trip point" default:"10" toml:"pipeline.max_consecutive_errors" env:"MAX_CONSECUTIVE_ERRORS"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingPipeline  string `help:"Pipeline logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP      string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingGPU       string `help:"GPU probe logging level" default:"info" toml:"logging.gpu" env:"LOGGING_GPU"`
	LoggingTelemetry string `help:"Telemetry logging level" default:"info" toml:"logging.telemetry" env:"LOGGING_TELEMETRY"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadOptions(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"pipeline":  opts.LoggingPipeline,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
				"gpu":       opts.LoggingGPU,
				"telemetry": opts.LoggingTelemetry,
			},
		})

		logger := logging.GetLogger("main")

		eventBus := events.New()

		pipeCfg := pipeline.DefaultConfig()
		pipeCfg.InputWidth = opts.InputWidth
		pipeCfg.InputHeight = opts.InputHeight
		pipeCfg.TargetWidth = opts.TargetWidth
		pipeCfg.TargetHeight = opts.TargetHeight
		pipeCfg.TargetFPS = opts.TargetFPS
		pipeCfg.MaxQueueSize = opts.MaxQueueSize
		pipeCfg.EnableGPU = opts.EnableGPU
		pipeCfg.EnableAdaptiveQuality = opts.EnableAdaptiveQuality
		pipeCfg.MaxMemoryMB = opts.MaxMemoryMB
		pipeCfg.BatchSize = opts.BatchSize
		pipeCfg.EnableSafetyMonitoring = opts.EnableSafetyMonitoring
		pipeCfg.ThermalLimitCelsius = float64(opts.ThermalLimitCelsius)
		pipeCfg.MaxConsecutiveErrors = opts.MaxConsecutiveErrors

		proc, err := pipeline.New(pipeCfg, pipeline.WithEventBus(eventBus))
		if err != nil {
			logger.Error("Invalid pipeline configuration", "error", err)
			os.Exit(1)
		}

		poller := telemetry.NewPoller(proc, eventBus, time.Second)

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Pipeline:          proc,
			EventBus:          eventBus,
			PrometheusHandler: telemetry.Handler(),
		})

		// Hot-reload the tunable pipeline settings when the config file
		// changes. Geometry changes are rejected by UpdateConfig and only
		// take effect on restart.
		watcher := config.NewWatcher(
			opts.Config,
			config.LoadPipelineConfig,
			logging.GetLogger("config"),
		)
		watcher.OnReload(func(cfg pipeline.Config) {
			next := proc.Config()
			next.TargetFPS = cfg.TargetFPS
			next.MaxQueueSize = cfg.MaxQueueSize
			next.EnableAdaptiveQuality = cfg.EnableAdaptiveQuality
			next.EnableSafetyMonitoring = cfg.EnableSafetyMonitoring
			next.ThermalLimitCelsius = cfg.ThermalLimitCelsius
			next.MaxConsecutiveErrors = cfg.MaxConsecutiveErrors
			next.BatchSize = cfg.BatchSize

			if updateErr := proc.UpdateConfig(next, "watcher"); updateErr != nil {
				logger.Warn("Config reload rejected", "error", updateErr)
			}
		})

		hooks.OnStart(func() {
			if startErr := proc.Start(); startErr != nil {
				logger.Error("Failed to start pipeline", "error", startErr)
				os.Exit(1)
			}

			if startErr := poller.Start(context.Background()); startErr != nil {
				logger.Warn("Failed to start telemetry poller", "error", startErr)
			}

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", startErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if stopErr := poller.Stop(); stopErr != nil {
				logger.Warn("Error stopping telemetry poller", "error", stopErr)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := proc.Shutdown(ctx); stopErr != nil {
				logger.Error("Pipeline shutdown timed out", "error", stopErr)
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateBenchCmd())
	cli.Root().AddCommand(cmd.CreateValidateConfigCmd())

	cli.Run()
}
