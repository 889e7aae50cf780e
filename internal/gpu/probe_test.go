package gpu

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubProbe(responses map[string][]byte, err error) *Probe {
	return &Probe{
		logger: testLogger(),
		run: func(args ...string) ([]byte, error) {
			if err != nil {
				return nil, err
			}
			return responses[args[0]], nil
		},
	}
}

func TestProbeUnavailable(t *testing.T) {
	p := stubProbe(nil, errors.New("exec: not found"))

	if p.Available() {
		t.Error("Available() = true, want false when nvidia-smi is missing")
	}
	if _, ok := p.Temperature(); ok {
		t.Error("Temperature() ok = true, want false")
	}
}

func TestProbeDetectsDevices(t *testing.T) {
	p := stubProbe(map[string][]byte{
		"--query-gpu=name":            []byte("NVIDIA GeForce RTX 3060\n"),
		"--query-gpu=temperature.gpu": []byte("62\n"),
	}, nil)

	if !p.Available() {
		t.Fatal("Available() = false, want true")
	}
	if got := p.DeviceCount(); got != 1 {
		t.Errorf("DeviceCount() = %d, want 1", got)
	}

	temp, ok := p.Temperature()
	if !ok || temp != 62 {
		t.Errorf("Temperature() = (%f, %v), want (62, true)", temp, ok)
	}
}

func TestCountDevices(t *testing.T) {
	cases := []struct {
		out  string
		want int
	}{
		{"", 0},
		{"\n", 0},
		{"GPU A\n", 1},
		{"GPU A\nGPU B\n", 2},
	}
	for _, tc := range cases {
		if got := countDevices(tc.out); got != tc.want {
			t.Errorf("countDevices(%q) = %d, want %d", tc.out, got, tc.want)
		}
	}
}

func TestParseFirstFloat(t *testing.T) {
	if v, ok := parseFirstFloat(" 71.5 \n68\n"); !ok || v != 71.5 {
		t.Errorf("parseFirstFloat = (%f, %v), want (71.5, true)", v, ok)
	}
	if _, ok := parseFirstFloat("N/A\n"); ok {
		t.Error("parseFirstFloat on N/A should fail")
	}
	if _, ok := parseFirstFloat(""); ok {
		t.Error("parseFirstFloat on empty output should fail")
	}
}
