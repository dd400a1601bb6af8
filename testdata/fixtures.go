// Package testdata generates synthetic camera frames for tests so the
// repository carries no recorded footage.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// SolidFrame returns a rows x cols BGR frame filled with one color.
// The caller owns the returned Mat and must close it.
func SolidFrame(rows, cols int, b, g, r float64) *gocv.Mat {
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(b, g, r, 0))
	return &m
}

// MovingSquareSequence returns n frames of a white square sliding across a
// black background, enough frame-to-frame change to register as motion.
func MovingSquareSequence(n, rows, cols int) []*gocv.Mat {
	const size = 80
	const step = 40

	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
		x := (i * step) % (cols - size)
		y := (rows - size) / 2
		gocv.Rectangle(&m, image.Rect(x, y, x+size, y+size),
			color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
		frames = append(frames, &m)
	}
	return frames
}

// CloseFrames closes every frame in the slice.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
