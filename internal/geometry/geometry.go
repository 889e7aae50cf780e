// Package geometry provides the small planar-geometry helpers used by
// gesture and region-of-interest calculations: point distances, circular ROI
// overlap, and bounding-box membership.
package geometry

import "math"

// Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// Circle is a circular region of interest.
type Circle struct {
	Center Point
	Radius float64
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// BatchDistance computes pairwise distances between corresponding points.
// Panics if the slices differ in length, mirroring the usual Go convention
// for parallel-slice helpers.
func BatchDistance(a, b []Point) []float64 {
	if len(a) != len(b) {
		panic("geometry: BatchDistance slice length mismatch")
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = Distance(a[i], b[i])
	}
	return out
}

// CircleOverlap returns the overlap between two circular ROIs as a percentage
// of the smaller circle's area, in [0, 100]. Disjoint circles yield 0; a
// circle fully contained in the other yields 100.
func CircleOverlap(c1, c2 Circle) float64 {
	dist := Distance(c1.Center, c2.Center)
	r1, r2 := c1.Radius, c2.Radius

	if dist >= r1+r2 {
		return 0
	}

	smaller := math.Min(r1, r2)
	smallerArea := math.Pi * smaller * smaller

	if dist <= math.Abs(r1-r2) {
		if smallerArea > 0 {
			return 100
		}
		return 0
	}

	r1sq, r2sq := r1*r1, r2*r2
	distSq := dist * dist

	angle1 := math.Acos((distSq + r1sq - r2sq) / (2 * dist * r1))
	angle2 := math.Acos((distSq + r2sq - r1sq) / (2 * dist * r2))

	intersection := r1sq*angle1 + r2sq*angle2 -
		0.5*math.Sqrt((-dist+r1+r2)*(dist+r1-r2)*(dist-r1+r2)*(dist+r1+r2))

	if smallerArea == 0 {
		return 0
	}
	return intersection / smallerArea * 100
}

// Contains reports whether p lies inside the box (inclusive bounds).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// BatchInBounds checks each point against the box. It returns a parallel
// membership slice and the number of points inside.
func BatchInBounds(points []Point, box Rect) ([]bool, int) {
	results := make([]bool, len(points))
	inside := 0
	for i, p := range points {
		if box.Contains(p) {
			results[i] = true
			inside++
		}
	}
	return results, inside
}

// BoundsArea returns the area of the axis-aligned bounding box of the given
// landmarks. Fewer than four landmarks yield 0, matching the palm-area
// approximation it replaces.
func BoundsArea(landmarks []Point) float64 {
	if len(landmarks) < 4 {
		return 0
	}

	minX, maxX := landmarks[0].X, landmarks[0].X
	minY, maxY := landmarks[0].Y, landmarks[0].Y
	for _, p := range landmarks[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	return (maxX - minX) * (maxY - minY)
}
