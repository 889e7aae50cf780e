package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config    string  `toml:"-"`
	Port      int     `toml:"server.port" env:"PORT"`
	Host      string  `toml:"server.host" env:"HOST"`
	TargetFPS int     `toml:"pipeline.target_fps" env:"TARGET_FPS"`
	Thermal   float64 `toml:"pipeline.thermal_limit_celsius" env:"THERMAL"`
	EnableGPU bool    `toml:"pipeline.enable_gpu" env:"ENABLE_GPU"`
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framepipe.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadOptionsFromTOML(t *testing.T) {
	path := writeTempConfig(t, `
[server]
port = 9090
host = "0.0.0.0"

[pipeline]
target_fps = 60
thermal_limit_celsius = 75.5
enable_gpu = true
`)

	opts := testOptions{Config: path, Port: 8080}
	if err := LoadOptions(&opts, nil); err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}

	if opts.Port != 9090 {
		t.Errorf("port = %d, want 9090", opts.Port)
	}
	if opts.Host != "0.0.0.0" {
		t.Errorf("host = %q, want 0.0.0.0", opts.Host)
	}
	if opts.TargetFPS != 60 {
		t.Errorf("target fps = %d, want 60", opts.TargetFPS)
	}
	if opts.Thermal != 75.5 {
		t.Errorf("thermal limit = %v, want 75.5", opts.Thermal)
	}
	if !opts.EnableGPU {
		t.Error("enable_gpu not applied from TOML")
	}
}

func TestLoadOptionsEnvOverridesTOML(t *testing.T) {
	path := writeTempConfig(t, `
[server]
port = 9090
`)
	t.Setenv("FRAMEPIPE_PORT", "7070")
	t.Setenv("FRAMEPIPE_TARGET_FPS", "15")

	opts := testOptions{Config: path}
	if err := LoadOptions(&opts, nil); err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}

	if opts.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", opts.Port)
	}
	if opts.TargetFPS != 15 {
		t.Errorf("target fps = %d, want env override 15", opts.TargetFPS)
	}
}

func TestLoadOptionsCLIWins(t *testing.T) {
	path := writeTempConfig(t, `
[server]
port = 9090
`)
	t.Setenv("FRAMEPIPE_PORT", "7070")

	cmd := &cobra.Command{}
	cmd.Flags().Int("port", 8080, "")
	if err := cmd.Flags().Set("port", "6060"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	opts := testOptions{Config: path, Port: 6060}
	if err := LoadOptions(&opts, cmd); err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}

	if opts.Port != 6060 {
		t.Errorf("port = %d, want CLI value 6060", opts.Port)
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	opts := testOptions{Config: "/nonexistent/framepipe.toml", Port: 8080}
	if err := LoadOptions(&opts, nil); err != nil {
		t.Fatalf("LoadOptions with missing file: %v", err)
	}
	if opts.Port != 8080 {
		t.Errorf("port = %d, want untouched default 8080", opts.Port)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	cases := map[string]string{
		"Port":         "port",
		"LoggingLevel": "logging-level",
		"TargetFPS":    "target-f-p-s",
		"Host":         "host",
	}
	for in, want := range cases {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTempConfig(t, `
[logging]
level = "debug"
format = "json"
pipeline = "warn"
api = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Format)
	}
	if cfg.Modules["pipeline"] != "warn" || cfg.Modules["api"] != "error" {
		t.Errorf("module overrides = %v", cfg.Modules)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("/nonexistent/framepipe.toml")
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("defaults = %q/%q, want info/text", cfg.Level, cfg.Format)
	}
}

func TestLoadPipelineConfig(t *testing.T) {
	path := writeTempConfig(t, `
[pipeline]
target_fps = 60
max_queue_size = 20
enable_gpu = false
`)

	cfg, err := LoadPipelineConfig(path)
	if err != nil {
		t.Fatalf("LoadPipelineConfig: %v", err)
	}
	if cfg.TargetFPS != 60 {
		t.Errorf("target fps = %d, want 60", cfg.TargetFPS)
	}
	if cfg.MaxQueueSize != 20 {
		t.Errorf("max queue size = %d, want 20", cfg.MaxQueueSize)
	}
	// Unset fields keep their defaults.
	if cfg.InputWidth != 640 || cfg.InputHeight != 480 {
		t.Errorf("input %dx%d, want default 640x480", cfg.InputWidth, cfg.InputHeight)
	}
}

func TestLoadPipelineConfigRejectsInvalid(t *testing.T) {
	path := writeTempConfig(t, `
[pipeline]
target_fps = -1
`)
	if _, err := LoadPipelineConfig(path); err == nil {
		t.Error("invalid pipeline config accepted")
	}
}

func TestLoadPipelineConfigEmptyPath(t *testing.T) {
	cfg, err := LoadPipelineConfig("")
	if err != nil {
		t.Fatalf("LoadPipelineConfig(\"\"): %v", err)
	}
	if cfg.TargetFPS != 30 {
		t.Errorf("target fps = %d, want default 30", cfg.TargetFPS)
	}
}
