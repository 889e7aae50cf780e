// Package gpu probes for an NVIDIA GPU through nvidia-smi. The probe is
// opportunistic: every failure reads as "no GPU" and the pipeline keeps
// running on the CPU path.
package gpu

import (
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const queryTimeout = 2 * time.Second

// runner executes the query tool; swapped out in tests.
type runner func(args ...string) ([]byte, error)

// Probe caches GPU availability and answers telemetry queries.
type Probe struct {
	logger *slog.Logger
	run    runner

	detectOnce  sync.Once
	available   bool
	deviceCount int
}

// NewProbe creates a probe using the system nvidia-smi binary.
func NewProbe(logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		logger: logger,
		run: func(args ...string) ([]byte, error) {
			cmd := exec.Command("nvidia-smi", args...)
			done := make(chan struct{})
			var out []byte
			var err error
			go func() {
				out, err = cmd.Output()
				close(done)
			}()
			select {
			case <-done:
				return out, err
			case <-time.After(queryTimeout):
				_ = cmd.Process.Kill()
				<-done
				return nil, err
			}
		},
	}
}

// detect runs the availability query once and caches the result.
func (p *Probe) detect() {
	p.detectOnce.Do(func() {
		out, err := p.run("--query-gpu=name", "--format=csv,noheader")
		if err != nil {
			p.logger.Debug("No GPU capability detected", "error", err)
			return
		}
		p.deviceCount = countDevices(string(out))
		p.available = p.deviceCount > 0
		if p.available {
			p.logger.Info("GPU capability detected", "devices", p.deviceCount)
		}
	})
}

// Available reports whether at least one GPU device answered the probe.
func (p *Probe) Available() bool {
	p.detect()
	return p.available
}

// DeviceCount returns the number of detected GPU devices.
func (p *Probe) DeviceCount() int {
	p.detect()
	return p.deviceCount
}

// Temperature returns the first device's temperature in Celsius.
// The second return is false when no reading is available.
func (p *Probe) Temperature() (float64, bool) {
	return p.queryFloat("--query-gpu=temperature.gpu")
}

// Utilization returns the first device's utilization percentage.
func (p *Probe) Utilization() (float64, bool) {
	return p.queryFloat("--query-gpu=utilization.gpu")
}

// MemoryUsedMB returns the first device's used memory in MB.
func (p *Probe) MemoryUsedMB() (float64, bool) {
	return p.queryFloat("--query-gpu=memory.used")
}

func (p *Probe) queryFloat(query string) (float64, bool) {
	if !p.Available() {
		return 0, false
	}
	out, err := p.run(query, "--format=csv,noheader,nounits")
	if err != nil {
		return 0, false
	}
	return parseFirstFloat(string(out))
}

// countDevices counts non-empty lines of a csv,noheader listing.
func countDevices(out string) int {
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// parseFirstFloat extracts the first device's value from query output.
func parseFirstFloat(out string) (float64, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
