package pipeline

import "testing"

func TestClampScaleLevel(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{2, 2},
		{MaxScaleLevel, MaxScaleLevel},
		{99, MaxScaleLevel},
	}
	for _, c := range cases {
		if got := ClampScaleLevel(c.in); got != c.want {
			t.Errorf("ClampScaleLevel(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestScaleResolutionPresets(t *testing.T) {
	if res := ScaleResolution(0); res.Width != 320 || res.Height != 240 {
		t.Errorf("level 0 = %dx%d, want 320x240", res.Width, res.Height)
	}
	if res := ScaleResolution(defaultScaleLevel); res.Width != 640 || res.Height != 480 {
		t.Errorf("default level = %dx%d, want 640x480", res.Width, res.Height)
	}
	if res := ScaleResolution(MaxScaleLevel); res.Width != 1024 || res.Height != 768 {
		t.Errorf("max level = %dx%d, want 1024x768", res.Width, res.Height)
	}
	// Out-of-range input clamps instead of panicking.
	if res := ScaleResolution(42); res != ScaleResolution(MaxScaleLevel) {
		t.Error("out-of-range level did not clamp to max")
	}
}

func TestQualityScoreMonotonic(t *testing.T) {
	prev := -1.0
	for level := 0; level < NumScaleLevels; level++ {
		score := qualityScore(level)
		if score <= prev {
			t.Errorf("qualityScore(%d) = %v, not above previous %v", level, score, prev)
		}
		prev = score
	}
	if qualityScore(MaxScaleLevel) != 1 {
		t.Errorf("top preset score = %v, want 1", qualityScore(MaxScaleLevel))
	}
}
