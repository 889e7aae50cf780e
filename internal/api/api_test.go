package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smazurov/framepipe/internal/events"
	"github.com/smazurov/framepipe/internal/pipeline"
)

func newTestServer(t *testing.T, opts *Options) *httptest.Server {
	t.Helper()

	if opts.Pipeline == nil {
		cfg := pipeline.DefaultConfig()
		cfg.EnableGPU = false
		proc, err := pipeline.New(cfg)
		if err != nil {
			t.Fatalf("pipeline.New: %v", err)
		}
		opts.Pipeline = proc
	}
	if opts.EventBus == nil {
		opts.EventBus = events.New()
	}

	srv := NewServer(opts)
	ts := httptest.NewServer(srv.GetMux())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var body struct {
		Status string `json:"status"`
	}
	resp := getJSON(t, ts.URL+"/api/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestVersionEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var body struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	}
	resp := getJSON(t, ts.URL+"/api/version", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.Version == "" || body.GoVersion == "" {
		t.Errorf("incomplete version payload: %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var body pipeline.Metrics
	resp := getJSON(t, ts.URL+"/api/pipeline/metrics", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.InstanceID == "" {
		t.Error("metrics missing instance ID")
	}
	if body.TargetFPS != 30 {
		t.Errorf("target fps = %v, want 30", body.TargetFPS)
	}
}

func TestScaleLevelEndpoints(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var levels struct {
		Levels  []struct{ Level, Width, Height int } `json:"levels"`
		Current int                                  `json:"current"`
		Forced  bool                                 `json:"forced"`
	}
	resp := getJSON(t, ts.URL+"/api/pipeline/levels", &levels)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("levels status = %d, want 200", resp.StatusCode)
	}
	if len(levels.Levels) != pipeline.NumScaleLevels {
		t.Errorf("preset count = %d, want %d", len(levels.Levels), pipeline.NumScaleLevels)
	}
	if levels.Forced {
		t.Error("level reported forced on a fresh pipeline")
	}

	// Pin level 3.
	resp, err := http.Post(ts.URL+"/api/pipeline/scale", "application/json",
		strings.NewReader(`{"level": 3}`))
	if err != nil {
		t.Fatalf("POST scale: %v", err)
	}
	var pinned struct {
		Current int  `json:"current"`
		Forced  bool `json:"forced"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scale status = %d, want 200", resp.StatusCode)
	}
	if pinned.Current != 3 || !pinned.Forced {
		t.Errorf("after pin: current=%d forced=%v, want 3/true", pinned.Current, pinned.Forced)
	}

	// Release the pin.
	resp, err = http.Post(ts.URL+"/api/pipeline/scale", "application/json",
		strings.NewReader(`{"level": -1}`))
	if err != nil {
		t.Fatalf("POST scale release: %v", err)
	}
	var released struct {
		Forced bool `json:"forced"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&released); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if released.Forced {
		t.Error("pin not released")
	}
}

func TestConfigUpdateEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	payload := `{
		"target_fps": 60,
		"max_queue_size": 20,
		"enable_adaptive_quality": true,
		"enable_safety_monitoring": true,
		"thermal_limit_celsius": 80,
		"max_consecutive_errors": 5,
		"batch_size": 8
	}`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/pipeline/config",
		strings.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		TargetFPS    int `json:"target_fps"`
		MaxQueueSize int `json:"max_queue_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TargetFPS != 60 || body.MaxQueueSize != 20 {
		t.Errorf("applied config = %+v, want fps 60, queue 20", body)
	}
}

func TestConfigUpdateRejectsInvalid(t *testing.T) {
	ts := newTestServer(t, &Options{})

	payload := `{
		"target_fps": -5,
		"max_queue_size": 10,
		"thermal_limit_celsius": 85,
		"max_consecutive_errors": 10,
		"batch_size": 4
	}`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/pipeline/config",
		strings.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode < 400 {
		t.Errorf("status = %d, want a client error", resp.StatusCode)
	}
}

func TestResetErrorsEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	resp, err := http.Post(ts.URL+"/api/pipeline/reset-errors", "application/json", nil)
	if err != nil {
		t.Fatalf("POST reset-errors: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMemoryEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{})

	var body struct {
		UsageMB  float64 `json:"usage_mb"`
		LimitMB  int     `json:"limit_mb"`
		Pressure bool    `json:"pressure"`
	}
	resp := getJSON(t, ts.URL+"/api/pipeline/memory", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.LimitMB != 512 {
		t.Errorf("limit = %d, want default 512", body.LimitMB)
	}
	if body.Pressure {
		t.Error("memory pressure on an idle pipeline")
	}
}

func TestBasicAuthProtectsPipelineRoutes(t *testing.T) {
	ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})

	// No credentials.
	resp, err := http.Get(ts.URL + "/api/pipeline/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// Health stays open.
	resp, err = http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	// Valid credentials.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/pipeline/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization",
		"Basic "+base64.StdEncoding.EncodeToString([]byte("admin:secret")))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with auth: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}

	// Wrong credentials.
	req.Header.Set("Authorization",
		"Basic "+base64.StdEncoding.EncodeToString([]byte("admin:wrong")))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with bad auth: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad credentials status = %d, want 401", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &Options{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/pipeline/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
}
