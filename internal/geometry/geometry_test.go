package geometry

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Point{1, 1}, Point{1, 1}, 0},
		{"unit x", Point{0, 0}, Point{1, 0}, 1},
		{"3-4-5 triangle", Point{0, 0}, Point{3, 4}, 5},
		{"negative coords", Point{-3, -4}, Point{0, 0}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMidpoint(t *testing.T) {
	got := Midpoint(Point{0, 0}, Point{10, 20})
	want := Point{5, 10}
	if got != want {
		t.Errorf("Midpoint = %v, want %v", got, want)
	}
}

func TestCentroid(t *testing.T) {
	points := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	got := Centroid(points)
	want := Point{5, 5}
	if got != want {
		t.Errorf("Centroid = %v, want %v", got, want)
	}

	if got := Centroid(nil); got != (Point{}) {
		t.Errorf("Centroid(nil) = %v, want zero point", got)
	}
}

func TestAngleFromVertical(t *testing.T) {
	origin := Point{0, 0}

	tests := []struct {
		name string
		b    Point
		want float64
	}{
		// Screen Y grows downward, so "up" is negative Y.
		{"straight up", Point{0, -1}, 0},
		{"right", Point{1, 0}, 90},
		{"left", Point{-1, 0}, -90},
		{"straight down", Point{0, 1}, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleFromVertical(origin, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AngleFromVertical = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolarAngle(t *testing.T) {
	center := Point{5, 5}

	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"east", Point{10, 5}, 0},
		{"south", Point{5, 10}, 90},
		{"west", Point{0, 5}, 180},
		{"north", Point{5, 0}, -90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolarAngle(center, tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PolarAngle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-0.5, 0, 1); got != 0 {
		t.Errorf("Clamp(-0.5) = %v, want 0", got)
	}
	if got := Clamp(1.5, 0, 1); got != 1 {
		t.Errorf("Clamp(1.5) = %v, want 1", got)
	}
	if got := Clamp(0.25, 0, 1); got != 0.25 {
		t.Errorf("Clamp(0.25) = %v, want 0.25", got)
	}
}
