package pipeline

import "sync"

// Startup ramp tuning. The pipeline starts at a quarter of the target size
// and grows toward it while early frames confirm there is headroom.
const (
	rampFloorWidth    = 320
	rampFloorHeight   = 240
	rampGrowthFactor  = 1.5
	rampCheckInterval = 30  // completed frames between growth checks
	rampEMAAlpha      = 0.1 // smoothing factor for the duration average
	rampLowWater      = 0.7 // grow when avg time < 70% of the frame budget

	skipFactorMax  = 4
	skipFactorMin  = 1
	skipHighWater  = 1.5 // raise skip factor when last frame took > 150% of budget
	skipLowWater   = 0.8 // lower it when under 80%
	maxRampWidth   = 16000
	maxRampHeight  = 16000
	growthCapWidth = 32000
)

// RampController raises the working resolution progressively during warm-up
// so the first frames never pay full-resolution cost. Completion latches; only
// Reset returns the controller to the ramping state.
type RampController struct {
	mu sync.Mutex

	targetWidth  int
	targetHeight int
	targetFPS    int

	currentWidth  int
	currentHeight int

	framesProcessed   int
	framesSinceAdjust int
	avgProcessingMs   float64
	complete          bool
	skipFactor        int
}

// NewRampController creates a controller ramping toward the given target.
func NewRampController(targetWidth, targetHeight, targetFPS int) *RampController {
	r := &RampController{
		targetWidth:  targetWidth,
		targetHeight: targetHeight,
		targetFPS:    targetFPS,
	}
	r.resetLocked()
	return r
}

func (r *RampController) resetLocked() {
	r.currentWidth = max(rampFloorWidth, min(r.targetWidth/4, maxRampWidth))
	r.currentHeight = max(rampFloorHeight, min(r.targetHeight/4, maxRampHeight))
	r.framesProcessed = 0
	r.framesSinceAdjust = 0
	r.avgProcessingMs = 0
	r.complete = false
	r.skipFactor = skipFactorMin

	// A floor at or above the target means there is nothing to ramp.
	if r.currentWidth >= r.targetWidth {
		r.currentWidth = r.targetWidth
		r.currentHeight = r.targetHeight
		r.complete = true
	}
}

// Reset returns the controller to the initial ramping state.
func (r *RampController) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// ShouldProcess applies the warm-up frame-skip heuristic. It must be called
// once per arriving frame; the previous frame's processing time steers the
// skip factor. After ramp completion every frame is processed.
func (r *RampController) ShouldProcess(lastProcessingMs float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.framesSinceAdjust++

	if r.complete {
		return true
	}

	budget := 1000.0 / float64(r.targetFPS)
	if lastProcessingMs > budget*skipHighWater {
		r.skipFactor = min(skipFactorMax, r.skipFactor+1)
	} else if lastProcessingMs < budget*skipLowWater {
		r.skipFactor = max(skipFactorMin, r.skipFactor-1)
	}

	return r.framesSinceAdjust%r.skipFactor == 0
}

// RecordDuration feeds a completed frame's processing time into the ramp.
// Every rampCheckInterval frames, resolution grows by rampGrowthFactor when
// the smoothed average is comfortably under the frame budget. Returns true
// on the tick that completes the ramp.
func (r *RampController) RecordDuration(processingMs float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.avgProcessingMs == 0 {
		r.avgProcessingMs = processingMs
	} else {
		r.avgProcessingMs = rampEMAAlpha*processingMs + (1-rampEMAAlpha)*r.avgProcessingMs
	}

	r.framesProcessed++

	if r.complete || r.framesProcessed%rampCheckInterval != 0 {
		return false
	}

	budget := 1000.0 / float64(r.targetFPS)
	if r.avgProcessingMs >= budget*rampLowWater {
		return false
	}

	newWidth := min(r.targetWidth, min(int(float64(r.currentWidth)*rampGrowthFactor), growthCapWidth))
	newHeight := min(r.targetHeight, min(int(float64(r.currentHeight)*rampGrowthFactor), growthCapWidth))

	if newWidth != r.currentWidth {
		r.currentWidth = newWidth
		r.currentHeight = newHeight
	}

	if r.currentWidth >= r.targetWidth {
		r.complete = true
		r.skipFactor = skipFactorMin
		return true
	}
	return false
}

// Resolution returns the current working resolution.
func (r *RampController) Resolution() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentWidth, r.currentHeight
}

// Complete reports whether the ramp has latched complete.
func (r *RampController) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}

// SkipFactor returns the current frame-skip factor, always in [1, 4].
func (r *RampController) SkipFactor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipFactor
}

// FramesProcessed returns the number of completions recorded.
func (r *RampController) FramesProcessed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.framesProcessed
}
