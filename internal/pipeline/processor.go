// Package pipeline implements the adaptive frame processing pipeline: bounded
// submission and retrieval queues, a dedicated worker, a metrics-driven
// quality adaptation loop, a startup resolution ramp, and a latching safety
// monitor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/framepipe/internal/events"
	"github.com/smazurov/framepipe/internal/frame"
	"github.com/smazurov/framepipe/internal/gpu"
	"github.com/smazurov/framepipe/internal/imaging"
	"github.com/smazurov/framepipe/internal/logging"
)

// Adaptation hysteresis bands around the target frame rate.
const (
	adaptLowWater  = 0.8 // drop a level when fps < 80% of target
	adaptHighWater = 1.2 // raise a level when fps > 120% of target
)

var (
	// ErrAlreadyStarted is returned by Start on a running or stopped processor.
	ErrAlreadyStarted = errors.New("pipeline already started")

	// ErrImmutableField is returned by UpdateConfig when the replacement
	// changes a construction-time field.
	ErrImmutableField = errors.New("field cannot change at runtime")
)

// ThermalSource answers GPU telemetry queries. gpu.Probe is the production
// implementation; tests substitute a fixed-value source.
type ThermalSource interface {
	Available() bool
	Temperature() (float64, bool)
	Utilization() (float64, bool)
	MemoryUsedMB() (float64, bool)
}

// Option configures a Processor at construction.
type Option func(*Processor)

// WithLogger sets the processor logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithEventBus sets the event bus the processor publishes on.
func WithEventBus(b *events.Bus) Option {
	return func(p *Processor) { p.bus = b }
}

// WithImaging sets the image processing collaborator.
func WithImaging(img imaging.Processor) Option {
	return func(p *Processor) { p.imgProc = img }
}

// WithThermalSource sets the GPU telemetry source.
func WithThermalSource(t ThermalSource) Option {
	return func(p *Processor) { p.thermal = t }
}

// Processor is the stream processor. Callers submit frames through Submit,
// the worker processes them at the current working resolution, and processed
// frames come back through Retrieve. Background loops adapt quality to the
// measured frame rate and watch for fault and thermal conditions.
type Processor struct {
	id      string
	logger  *slog.Logger
	bus     *events.Bus
	imgProc imaging.Processor
	thermal ThermalSource

	cfgMu sync.RWMutex
	cfg   Config

	pool   *frame.Pool
	input  *boundedQueue
	output *boundedQueue

	xformCPU *cpuTransformer
	xformGPU transformer // nil when no device answered the probe

	ramp   *RampController
	window *rollingWindow

	fallback     latchedFlag
	thermalLatch latchedFlag

	scaleLevel  atomic.Int32
	forcedLevel atomic.Int32 // -1 when adaptation is free to move the level
	started     atomic.Bool
	active      atomic.Bool
	gpuEnabled  atomic.Bool
	safetyOn    atomic.Bool
	adaptiveOn  atomic.Bool

	framesProcessed atomic.Int64
	framesDropped   atomic.Int64
	errorCount      atomic.Int64
	consecErrors    atomic.Int64
	nextID          atomic.Int64
	lastProcMs      atomic.Uint64 // math.Float64bits

	qualityMu  sync.Mutex
	avgQuality float64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a processor from a validated configuration. The processor is
// idle until Start.
func New(cfg Config, opts ...Option) (*Processor, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{
		id:     uuid.NewString(),
		cfg:    cfg,
		pool:   frame.NewPool(cfg.MaxQueueSize),
		input:  newBoundedQueue(cfg.MaxQueueSize),
		output: newBoundedQueue(cfg.MaxQueueSize),
		ramp:   NewRampController(cfg.TargetWidth, cfg.TargetHeight, cfg.TargetFPS),
		window: newRollingWindow(),
		stopCh: make(chan struct{}),
	}
	p.scaleLevel.Store(defaultScaleLevel)
	p.forcedLevel.Store(-1)
	p.adaptiveOn.Store(cfg.EnableAdaptiveQuality)
	p.safetyOn.Store(cfg.EnableSafetyMonitoring)

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logging.GetLogger("pipeline")
	}
	if p.bus == nil {
		p.bus = events.New()
	}
	if p.imgProc == nil {
		p.imgProc = imaging.Default()
	}
	if p.thermal == nil {
		p.thermal = gpu.NewProbe(p.logger)
	}

	p.xformCPU = &cpuTransformer{img: p.imgProc, pool: p.pool}
	if cfg.EnableGPU && p.thermal.Available() {
		p.xformGPU = &gpuTransformer{cpu: p.xformCPU}
		p.gpuEnabled.Store(true)
	}

	return p, nil
}

// InstanceID returns the processor's unique identifier.
func (p *Processor) InstanceID() string { return p.id }

// Config returns a snapshot of the current configuration.
func (p *Processor) Config() Config {
	p.cfgMu.RLock()
	defer p.cfgMu.RUnlock()
	return p.cfg
}

// Start launches the worker and the background loops. It can be called once;
// a stopped processor is not restartable.
func (p *Processor) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	p.active.Store(true)

	cfg := p.Config()
	p.wg.Add(4)
	go p.workerLoop()
	go p.metricsLoop(cfg.MetricsInterval)
	go p.safetyLoop(cfg.SafetyInterval)
	go p.optimizerLoop(cfg.OptimizerInterval)

	p.logger.Info("Pipeline started",
		"instance", p.id,
		"transformer", p.activeTransformer().name(),
		"target", fmt.Sprintf("%dx%d@%d", cfg.TargetWidth, cfg.TargetHeight, cfg.TargetFPS),
		"queue_size", cfg.MaxQueueSize)
	return nil
}

// Shutdown stops the loops and releases queued frames. The input backlog is
// not drained through the worker; unprocessed frames count as dropped.
func (p *Processor) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		p.active.Store(false)
		close(p.stopCh)
		p.input.close()
		p.output.close()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
			return
		}

		dropped := p.input.drain()
		p.framesDropped.Add(int64(len(dropped)))
		for _, f := range dropped {
			p.pool.Put(f)
		}
		for _, f := range p.output.drain() {
			p.pool.Put(f)
		}

		p.logger.Info("Pipeline stopped",
			"instance", p.id,
			"frames_processed", p.framesProcessed.Load(),
			"frames_dropped", p.framesDropped.Load())
	})
	return err
}

// Submit copies the caller's frame into the pipeline. The caller keeps
// ownership of its buffer. Returns false when the frame is invalid or the
// input queue is full; every rejection counts as exactly one dropped frame.
func (p *Processor) Submit(src *frame.Frame) bool {
	f, ok := p.intake(src)
	if !ok {
		return false
	}
	return p.submitOwned(f)
}

// SubmitAsync copies the frame synchronously and enqueues it from a separate
// goroutine, so the caller never waits on queue contention.
func (p *Processor) SubmitAsync(src *frame.Frame) {
	f, ok := p.intake(src)
	if !ok {
		return
	}
	go p.submitOwned(f)
}

// intake validates and deep-copies a submission, assigning a sequence ID and
// timestamp when the caller left them unset.
func (p *Processor) intake(src *frame.Frame) (*frame.Frame, bool) {
	if src == nil || src.Validate() != nil {
		p.recordDrop(0, "invalid_frame")
		return nil, false
	}

	f := src.Clone()
	if f.ID == 0 {
		f.ID = p.nextID.Add(1)
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	return f, true
}

func (p *Processor) submitOwned(f *frame.Frame) bool {
	if !p.input.push(f) {
		p.recordDrop(f.ID, "queue_full")
		return false
	}
	return true
}

// Retrieve returns the oldest processed frame without blocking.
func (p *Processor) Retrieve() (*frame.Frame, bool) {
	return p.output.tryPop()
}

// RetrieveBatch returns up to max processed frames, oldest first. A max of 0
// or less uses the configured batch size.
func (p *Processor) RetrieveBatch(max int) []*frame.Frame {
	if max <= 0 {
		max = p.Config().BatchSize
	}

	var out []*frame.Frame
	for len(out) < max {
		f, ok := p.output.tryPop()
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out
}

// Release returns a retrieved frame's buffer to the pool. Optional; frames
// not released are collected normally.
func (p *Processor) Release(f *frame.Frame) {
	p.pool.Put(f)
}

// ForceScaleLevel pins the quality preset, overriding adaptation. A negative
// level releases the pin.
func (p *Processor) ForceScaleLevel(level int) {
	if level < 0 {
		p.forcedLevel.Store(-1)
		return
	}
	level = ClampScaleLevel(level)
	p.forcedLevel.Store(int32(level))
	p.applyScaleLevel(int(p.scaleLevel.Load()), level, 0, true)
}

// SetSafetyMonitoring toggles the safety loop's checks. An already latched
// fallback stays latched.
func (p *Processor) SetSafetyMonitoring(enabled bool) {
	p.safetyOn.Store(enabled)
}

// SafetyMonitoringEnabled reports whether the safety loop runs its checks.
func (p *Processor) SafetyMonitoringEnabled() bool {
	return p.safetyOn.Load()
}

// ForcedScaleLevel returns the pinned preset index, or -1 when adaptation is
// free to move the level.
func (p *Processor) ForcedScaleLevel() int {
	return int(p.forcedLevel.Load())
}

// ResetErrors clears error counters and releases the safety latches. This is
// the only way out of emergency fallback.
func (p *Processor) ResetErrors() {
	p.consecErrors.Store(0)
	p.errorCount.Store(0)

	wasActive := p.fallback.Active()
	p.fallback.Reset()
	p.thermalLatch.Reset()

	if p.xformGPU != nil && p.Config().EnableGPU {
		p.gpuEnabled.Store(true)
	}

	if wasActive {
		p.bus.Publish(events.EmergencyFallbackEvent{
			Active:    false,
			Reason:    "reset",
			Timestamp: eventTime(),
		})
		p.logger.Info("Emergency fallback cleared", "instance", p.id)
	}
}

// UpdateConfig applies a validated replacement configuration. Frame geometry
// and the GPU flag are fixed at construction; the tunable fields take effect
// immediately. Source names the origin of the update for the event stream.
func (p *Processor) UpdateConfig(next Config, source string) error {
	next = next.withDefaults()
	if err := next.Validate(); err != nil {
		return err
	}

	p.cfgMu.Lock()
	cur := p.cfg
	if next.InputWidth != cur.InputWidth || next.InputHeight != cur.InputHeight ||
		next.TargetWidth != cur.TargetWidth || next.TargetHeight != cur.TargetHeight ||
		next.EnableGPU != cur.EnableGPU {
		p.cfgMu.Unlock()
		return fmt.Errorf("%w: frame geometry and GPU mode are fixed at construction", ErrImmutableField)
	}
	p.cfg = next
	p.cfgMu.Unlock()

	p.input.setMax(next.MaxQueueSize)
	p.output.setMax(next.MaxQueueSize)
	p.adaptiveOn.Store(next.EnableAdaptiveQuality)
	p.safetyOn.Store(next.EnableSafetyMonitoring)

	p.bus.Publish(events.ConfigUpdatedEvent{Source: source, Timestamp: eventTime()})
	p.logger.Info("Configuration updated", "source", source,
		"target_fps", next.TargetFPS, "max_queue_size", next.MaxQueueSize)
	return nil
}

// MemoryUsageMB is an advisory estimate of frame memory held by the pipeline:
// queued input frames, queued output frames, and pooled buffers.
func (p *Processor) MemoryUsageMB() float64 {
	cfg := p.Config()
	in := frame.EstimateMB(cfg.InputWidth, cfg.InputHeight, 3, p.input.len())
	out := frame.EstimateMB(cfg.TargetWidth, cfg.TargetHeight, 3, p.output.len())
	pooled := float64(p.pool.RetainedBytes()) / (1024 * 1024)
	return in + out + pooled
}

// MemoryPressure reports whether the estimate exceeds the configured ceiling.
func (p *Processor) MemoryPressure() bool {
	limit := p.Config().MaxMemoryMB
	return limit > 0 && p.MemoryUsageMB() > float64(limit)
}

// Metrics assembles a point-in-time snapshot.
func (p *Processor) Metrics() Metrics {
	cfg := p.Config()

	avg := p.window.mean()
	fps := p.window.fps()
	efficiency := 0.0
	if cfg.TargetFPS > 0 && fps > 0 {
		efficiency = min(100, fps/float64(cfg.TargetFPS)*100)
	}

	level := p.effectiveScaleLevel()
	width, height := p.ramp.Resolution()
	if p.ramp.Complete() {
		res := ScaleResolution(level)
		width, height = res.Width, res.Height
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m := Metrics{
		AvgProcessingMs: avg,
		CurrentFPS:      fps,
		TargetFPS:       float64(cfg.TargetFPS),
		Efficiency:      efficiency,

		FramesProcessed: p.framesProcessed.Load(),
		FramesDropped:   p.framesDropped.Load(),
		FramesInQueue:   p.input.len(),

		CPUMemoryMB: float64(memStats.HeapInuse) / (1024 * 1024),

		CurrentScaleLevel: level,
		AverageQuality:    p.averageQuality(),

		RampComplete:  p.ramp.Complete(),
		WorkingWidth:  width,
		WorkingHeight: height,
		SkipFactor:    p.ramp.SkipFactor(),

		ErrorCount:              p.errorCount.Load(),
		ConsecutiveErrors:       p.consecErrors.Load(),
		EmergencyFallbackActive: p.fallback.Active(),
		ThermalThrottlingActive: p.thermalLatch.Active(),

		MemoryUsageMB: p.MemoryUsageMB(),

		InstanceID: p.id,
	}
	m.MemoryPressure = cfg.MaxMemoryMB > 0 && m.MemoryUsageMB > float64(cfg.MaxMemoryMB)

	if p.thermal != nil && p.thermal.Available() {
		m.GPUAvailable = true
		if v, ok := p.thermal.Utilization(); ok {
			m.GPUUtilization = v
		}
		if v, ok := p.thermal.MemoryUsedMB(); ok {
			m.GPUMemoryMB = v
		}
		if v, ok := p.thermal.Temperature(); ok {
			m.GPUTemperature = v
		}
	}

	return m
}

// workerLoop is the single consumer of the input queue.
func (p *Processor) workerLoop() {
	defer p.wg.Done()

	for {
		f, ok := p.input.pop()
		if !ok {
			return
		}

		last := math.Float64frombits(p.lastProcMs.Load())
		if !p.ramp.ShouldProcess(last) {
			p.recordDrop(f.ID, "ramp_skip")
			p.pool.Put(f)
			continue
		}

		frameID := f.ID
		res, level := p.workingResolution()

		start := time.Now()
		out, err := p.activeTransformer().transform(f, res, level)
		elapsed := time.Since(start)
		p.pool.Put(f)

		if err != nil {
			consec := p.consecErrors.Add(1)
			p.errorCount.Add(1)
			p.framesDropped.Add(1)
			p.bus.Publish(events.ProcessingErrorEvent{
				FrameID:     frameID,
				Error:       err.Error(),
				Consecutive: int(consec),
				Timestamp:   eventTime(),
			})
			p.logger.Warn("Frame processing failed", "frame_id", frameID, "error", err)
			continue
		}

		ms := float64(elapsed) / float64(time.Millisecond)
		out.Duration = elapsed
		p.lastProcMs.Store(math.Float64bits(ms))
		p.window.add(ms)
		p.consecErrors.Store(0)
		p.framesProcessed.Add(1)
		p.recordQuality(out.QualityScore)

		if elapsed > p.Config().MaxProcessingTime {
			p.logger.Debug("Frame exceeded processing budget",
				"frame_id", frameID, "elapsed_ms", ms)
		}

		if p.ramp.RecordDuration(ms) {
			w, h := p.ramp.Resolution()
			p.bus.Publish(events.RampCompletedEvent{
				Width:           w,
				Height:          h,
				FramesProcessed: p.ramp.FramesProcessed(),
				Timestamp:       eventTime(),
			})
			p.logger.Info("Startup ramp complete", "width", w, "height", h,
				"frames", p.ramp.FramesProcessed())
		}

		if !p.output.push(out) {
			p.recordDrop(out.ID, "output_full")
			p.pool.Put(out)
		}
	}
}

// metricsLoop runs the quality adaptation on a fixed cadence.
func (p *Processor) metricsLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.adaptTick()
		}
	}
}

// adaptTick moves the scale level one step per tick based on the measured
// frame rate. A forced level or an active fallback pins the level instead.
func (p *Processor) adaptTick() {
	cur := int(p.scaleLevel.Load())

	if forced := int(p.forcedLevel.Load()); forced >= 0 {
		p.applyScaleLevel(cur, forced, 0, true)
		return
	}
	if p.fallback.Active() {
		p.applyScaleLevel(cur, 0, 0, false)
		return
	}
	if !p.adaptiveOn.Load() || p.window.count() == 0 {
		return
	}

	fps := p.window.fps()
	target := float64(p.Config().TargetFPS)

	next := cur
	switch {
	case fps < target*adaptLowWater:
		next = cur - 1
	case fps > target*adaptHighWater:
		next = cur + 1
	}
	p.applyScaleLevel(cur, next, fps, false)
}

// applyScaleLevel stores a clamped level and announces the transition.
func (p *Processor) applyScaleLevel(from, to int, fps float64, forced bool) {
	to = ClampScaleLevel(to)
	if to == from {
		return
	}
	p.scaleLevel.Store(int32(to))
	p.bus.Publish(events.ScaleLevelChangedEvent{
		From:      from,
		To:        to,
		FPS:       fps,
		Forced:    forced,
		Timestamp: eventTime(),
	})
	p.logger.Info("Scale level changed", "from", from, "to", to,
		"fps", fps, "forced", forced)
}

// safetyLoop watches fault and thermal conditions on a fixed cadence.
func (p *Processor) safetyLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.safetyTick()
		}
	}
}

// safetyTick trips the emergency fallback when consecutive errors exceed the
// limit or the device runs too hot. The latch holds until ResetErrors.
func (p *Processor) safetyTick() {
	if !p.safetyOn.Load() {
		return
	}

	cfg := p.Config()
	consec := p.consecErrors.Load()

	var temp float64
	var hasTemp bool
	if p.thermal != nil {
		temp, hasTemp = p.thermal.Temperature()
	}

	if consec > int64(cfg.MaxConsecutiveErrors) {
		p.tripFallback("consecutive_errors", consec, temp)
	}

	if hasTemp && temp > cfg.ThermalLimitCelsius {
		if p.thermalLatch.Trip(fmt.Sprintf("temperature %.1fC", temp)) {
			p.logger.Warn("Thermal throttling engaged", "temperature", temp,
				"limit", cfg.ThermalLimitCelsius)
		}
		p.tripFallback("thermal_limit", consec, temp)
	}
}

// tripFallback latches degraded operation: lowest quality preset, GPU path
// disabled. Publishes exactly one event per latch transition.
func (p *Processor) tripFallback(reason string, consec int64, temp float64) {
	if !p.fallback.Trip(reason) {
		return
	}

	p.gpuEnabled.Store(false)
	p.applyScaleLevel(int(p.scaleLevel.Load()), 0, 0, false)

	p.bus.Publish(events.EmergencyFallbackEvent{
		Active:            true,
		Reason:            reason,
		ConsecutiveErrors: int(consec),
		Temperature:       temp,
		Timestamp:         eventTime(),
	})
	p.logger.Error("Emergency fallback engaged", "reason", reason,
		"consecutive_errors", consec, "temperature", temp)
}

// optimizerLoop periodically reviews memory pressure and overall efficiency.
func (p *Processor) optimizerLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.optimizeTick()
		}
	}
}

func (p *Processor) optimizeTick() {
	usage := p.MemoryUsageMB()
	if limit := p.Config().MaxMemoryMB; limit > 0 && usage > float64(limit) {
		p.logger.Warn("Memory pressure", "usage_mb", usage, "limit_mb", limit)
	}

	p.logger.Debug("Pipeline status",
		"fps", p.window.fps(),
		"scale_level", p.effectiveScaleLevel(),
		"queue_depth", p.input.len(),
		"memory_mb", usage)
}

// workingResolution returns the resolution and quality level for the next
// frame: the ramp resolution while warming up, the preset afterwards. An
// active fallback pins the lowest preset.
func (p *Processor) workingResolution() (Resolution, int) {
	level := p.effectiveScaleLevel()
	if !p.ramp.Complete() {
		w, h := p.ramp.Resolution()
		return Resolution{Width: w, Height: h}, level
	}
	return ScaleResolution(level), level
}

func (p *Processor) effectiveScaleLevel() int {
	if p.fallback.Active() {
		return 0
	}
	return int(p.scaleLevel.Load())
}

func (p *Processor) activeTransformer() transformer {
	if p.xformGPU != nil && p.gpuEnabled.Load() {
		return p.xformGPU
	}
	return p.xformCPU
}

func (p *Processor) recordDrop(id int64, reason string) {
	p.framesDropped.Add(1)
	p.bus.Publish(events.FrameDroppedEvent{
		FrameID:   id,
		Reason:    reason,
		Timestamp: eventTime(),
	})
}

// recordQuality folds a processed frame's quality score into a smoothed
// average, same EMA weight as the ramp.
func (p *Processor) recordQuality(score float64) {
	p.qualityMu.Lock()
	defer p.qualityMu.Unlock()

	if p.avgQuality == 0 {
		p.avgQuality = score
		return
	}
	p.avgQuality = rampEMAAlpha*score + (1-rampEMAAlpha)*p.avgQuality
}

func (p *Processor) averageQuality() float64 {
	p.qualityMu.Lock()
	defer p.qualityMu.Unlock()
	return p.avgQuality
}

func eventTime() string {
	return time.Now().UTC().Format(time.RFC3339)
}
