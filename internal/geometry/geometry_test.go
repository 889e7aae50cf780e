package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b Point
		want float64
	}{
		{Point{0, 0}, Point{3, 4}, 5},
		{Point{1, 1}, Point{1, 1}, 0},
		{Point{-2, 0}, Point{2, 0}, 4},
	}

	for _, tc := range cases {
		if got := Distance(tc.a, tc.b); !almostEqual(got, tc.want, 1e-9) {
			t.Errorf("Distance(%v, %v) = %f, want %f", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestBatchDistance(t *testing.T) {
	a := []Point{{0, 0}, {0, 0}}
	b := []Point{{3, 4}, {6, 8}}

	got := BatchDistance(a, b)
	want := []float64{5, 10}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-9) {
			t.Errorf("BatchDistance[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestCircleOverlap(t *testing.T) {
	cases := []struct {
		name   string
		c1, c2 Circle
		want   float64
	}{
		{"disjoint", Circle{Point{0, 0}, 1}, Circle{Point{10, 0}, 1}, 0},
		{"touching", Circle{Point{0, 0}, 1}, Circle{Point{2, 0}, 1}, 0},
		{"contained", Circle{Point{0, 0}, 5}, Circle{Point{1, 0}, 1}, 100},
		{"identical", Circle{Point{0, 0}, 2}, Circle{Point{0, 0}, 2}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CircleOverlap(tc.c1, tc.c2); !almostEqual(got, tc.want, 1e-9) {
				t.Errorf("CircleOverlap = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestCircleOverlapPartial(t *testing.T) {
	// Equal circles at distance r overlap somewhere strictly between 0 and 100.
	got := CircleOverlap(Circle{Point{0, 0}, 2}, Circle{Point{2, 0}, 2})
	if got <= 0 || got >= 100 {
		t.Errorf("partial overlap = %f, want in (0, 100)", got)
	}
}

func TestBatchInBounds(t *testing.T) {
	box := Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	points := []Point{{5, 5}, {0, 0}, {10, 10}, {11, 5}, {-1, 3}}

	results, inside := BatchInBounds(points, box)
	wantResults := []bool{true, true, true, false, false}
	if inside != 3 {
		t.Errorf("inside = %d, want 3", inside)
	}
	for i, w := range wantResults {
		if results[i] != w {
			t.Errorf("results[%d] = %v, want %v", i, results[i], w)
		}
	}
}

func TestBoundsArea(t *testing.T) {
	landmarks := []Point{{0, 0}, {4, 0}, {4, 3}, {0, 3}}
	if got := BoundsArea(landmarks); !almostEqual(got, 12, 1e-9) {
		t.Errorf("BoundsArea = %f, want 12", got)
	}

	if got := BoundsArea(landmarks[:3]); got != 0 {
		t.Errorf("BoundsArea with 3 landmarks = %f, want 0", got)
	}
}
