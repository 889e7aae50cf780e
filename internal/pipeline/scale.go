package pipeline

// Resolution is a (width, height) pair.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// scaleTable is the ordered quality preset list, lowest to highest.
// It is package-level read-only data, never mutated at runtime.
var scaleTable = [...]Resolution{
	{320, 240},  // Level 0: very low
	{480, 360},  // Level 1: low
	{640, 480},  // Level 2: medium
	{800, 600},  // Level 3: high
	{1024, 768}, // Level 4: full
}

const (
	// NumScaleLevels is the number of quality presets.
	NumScaleLevels = len(scaleTable)

	// MaxScaleLevel is the highest valid scale level.
	MaxScaleLevel = NumScaleLevels - 1

	// defaultScaleLevel is where a fresh processor starts.
	defaultScaleLevel = 2

	// smoothingLevel is the lowest level that gets the light smoothing pass.
	smoothingLevel = 3
)

// ClampScaleLevel forces level into [0, MaxScaleLevel].
func ClampScaleLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxScaleLevel {
		return MaxScaleLevel
	}
	return level
}

// ScaleResolution returns the preset for a level, clamping out-of-range input.
func ScaleResolution(level int) Resolution {
	return scaleTable[ClampScaleLevel(level)]
}

// ScaleLevels returns a copy of the preset table for display purposes.
func ScaleLevels() []Resolution {
	out := make([]Resolution, NumScaleLevels)
	copy(out, scaleTable[:])
	return out
}

// qualityScore rates a preset against the full-quality preset by area, in [0, 1].
func qualityScore(level int) float64 {
	res := ScaleResolution(level)
	full := scaleTable[MaxScaleLevel]
	return float64(res.Width*res.Height) / float64(full.Width*full.Height)
}
