// Package logging provides structured logging with per-module log level configuration.
//
// The logging system uses Go's slog package with automatic output routing:
//   - systemd journal when available (Linux systems with journald)
//   - stdout when a terminal, pipe, or file is connected
//   - an in-memory ring buffer of recent entries, served by the HTTP API
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"pipeline": "debug", // Per-module overrides
//			"api":      "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("pipeline")
//	logger.Info("Starting up", "target_fps", 30)
package logging
