// Package geometry provides pure point math over hand joint coordinates.
package geometry

import "math"

// Point represents a 2D point in frame pixel space.
type Point struct {
	X float64
	Y float64
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
	}
}

// Centroid returns the center of mass of the given points.
// Returns the zero point for an empty slice.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}

	n := float64(len(points))
	return Point{X: sumX / n, Y: sumY / n}
}

// AngleFromVertical returns the angle of the vector from a to b measured
// against the upward vertical axis, in degrees in (-180, 180].
// Screen coordinates have Y increasing downward, hence the -dy.
func AngleFromVertical(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Atan2(dx, -dy) * 180 / math.Pi
}

// PolarAngle returns the angle of p about center in degrees in (-180, 180].
func PolarAngle(center, p Point) float64 {
	dx := p.X - center.X
	dy := p.Y - center.Y
	return math.Atan2(dy, dx) * 180 / math.Pi
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
