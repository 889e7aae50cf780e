package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smazurov/framepipe/internal/config"
)

// CreateValidateConfigCmd creates a command that checks a configuration file
// without starting the pipeline.
func CreateValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config <config-file>",
		Short: "Validate a configuration file",
		Long:  `Parses the given TOML configuration file and checks the pipeline settings against the same rules the server applies at startup.`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := args[0]

			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(os.Stderr, "Cannot read %s: %v\n", path, err)
				os.Exit(1)
			}

			cfg, err := config.LoadPipelineConfig(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
				os.Exit(1)
			}

			logCfg := config.LoadLoggingConfig(path)

			fmt.Printf("%s is valid\n", path)
			fmt.Printf("  pipeline: %dx%d -> %dx%d @ %d fps, queue %d\n",
				cfg.InputWidth, cfg.InputHeight,
				cfg.TargetWidth, cfg.TargetHeight,
				cfg.TargetFPS, cfg.MaxQueueSize)
			fmt.Printf("  gpu: %v, adaptive: %v, safety: %v\n",
				cfg.EnableGPU, cfg.EnableAdaptiveQuality, cfg.EnableSafetyMonitoring)
			fmt.Printf("  logging: level=%s format=%s\n", logCfg.Level, logCfg.Format)
		},
	}
}
