package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/framepipe/internal/config"
	"github.com/smazurov/framepipe/internal/frame"
	"github.com/smazurov/framepipe/internal/logging"
	"github.com/smazurov/framepipe/internal/pipeline"
)

// CreateBenchCmd creates a command that feeds synthetic frames through the
// pipeline and reports throughput. Useful for sizing hardware and for
// exercising the adaptation loop without a capture source.
func CreateBenchCmd() *cobra.Command {
	var (
		configPath string
		duration   time.Duration
		logJSON    bool
	)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic-frame throughput benchmark",
		Long: `Feeds generated frames into the pipeline at the configured target FPS
for a fixed duration, drains the output side, and prints the final
metrics snapshot as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := "text"
			if logJSON {
				format = "json"
			}
			logging.Initialize(logging.Config{Level: "info", Format: format})
			logger := logging.GetLogger("bench")

			cfg, err := config.LoadPipelineConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			proc, err := pipeline.New(cfg)
			if err != nil {
				return fmt.Errorf("creating pipeline: %w", err)
			}
			if err := proc.Start(); err != nil {
				return fmt.Errorf("starting pipeline: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, duration)
			defer cancelTimeout()

			logger.Info("Benchmark started",
				"input", fmt.Sprintf("%dx%d", cfg.InputWidth, cfg.InputHeight),
				"target_fps", cfg.TargetFPS,
				"duration", duration)

			feed := time.NewTicker(time.Second / time.Duration(cfg.TargetFPS))
			defer feed.Stop()
			status := time.NewTicker(time.Second)
			defer status.Stop()

			src, err := frame.New(cfg.InputWidth, cfg.InputHeight, 3)
			if err != nil {
				return fmt.Errorf("allocating source frame: %w", err)
			}

			var tick int
		loop:
			for {
				select {
				case <-ctx.Done():
					break loop
				case <-feed.C:
					paintGradient(src, tick)
					tick++
					proc.SubmitAsync(src)
					for _, out := range proc.RetrieveBatch(0) {
						proc.Release(out)
					}
				case <-status.C:
					m := proc.Metrics()
					logger.Info("Benchmark progress",
						"fps", m.CurrentFPS,
						"avg_ms", m.AvgProcessingMs,
						"scale_level", m.CurrentScaleLevel,
						"queue", m.FramesInQueue,
						"dropped", m.FramesDropped,
						"ramp_complete", m.RampComplete)
				}
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := proc.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Shutdown did not complete cleanly", "error", err)
			}

			snapshot := proc.Metrics()
			out, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding metrics: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(out))

			logger.Info("Benchmark finished",
				"frames_processed", snapshot.FramesProcessed,
				"frames_dropped", snapshot.FramesDropped,
				"fps", snapshot.CurrentFPS,
				"scale_level", snapshot.CurrentScaleLevel)
			return nil
		},
	}

	benchCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to TOML configuration file (defaults when empty)")
	benchCmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second,
		"How long to feed frames")
	benchCmd.Flags().BoolVar(&logJSON, "log-json", false,
		"Emit logs as JSON")

	return benchCmd
}

// paintGradient fills the frame with a diagonal gradient shifted by tick so
// consecutive frames differ.
func paintGradient(f *frame.Frame, tick int) {
	for y := 0; y < f.Height; y++ {
		row := y * f.Width * f.Channels
		for x := 0; x < f.Width; x++ {
			px := row + x*f.Channels
			f.Data[px] = byte(x + tick)
			f.Data[px+1] = byte(y + tick)
			f.Data[px+2] = byte(x + y)
		}
	}
}
