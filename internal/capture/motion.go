package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// blurKernel is the Gaussian blur kernel size used for noise reduction.
	blurKernel = 21
	// diffThreshold is the per-pixel difference threshold.
	diffThreshold = 25

	// DefaultMotionThreshold is the percentage of changed pixels that
	// counts as motion.
	DefaultMotionThreshold = 1.0
	// DefaultActiveHold keeps the pipeline at the active rate this long
	// after the last detected motion.
	DefaultActiveHold = 3 * time.Second
)

// MotionDetector detects motion between consecutive frames using blurred
// grayscale frame differencing.
type MotionDetector struct {
	threshold float64
	prevGray  gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionDetector creates a MotionDetector. The threshold is the
// percentage of pixels that must change between frames to count as motion.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares the frame against the previous one and reports whether
// motion was seen, along with the percentage of pixels that changed. The
// first frame primes the detector and never reports motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prevGray)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, diffThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()
	changePct := float64(changed) / float64(total) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changePct > m.threshold, changePct
}

// Reset clears the baseline so the next frame primes the detector again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Close releases the detector's resources.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *MotionDetector) resetLocked() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold changes the motion threshold. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Gate drives the idle/active capture rate from motion observations. It
// holds the active rate for a quiet period after the last motion so the
// rate does not flap between frames.
type Gate struct {
	det  *MotionDetector
	hold time.Duration

	mu          sync.Mutex
	activeUntil time.Time
}

// NewGate creates a Gate with the given motion threshold and active hold.
func NewGate(threshold float64, hold time.Duration) *Gate {
	if hold <= 0 {
		hold = DefaultActiveHold
	}
	return &Gate{
		det:  NewMotionDetector(threshold),
		hold: hold,
	}
}

// Observe feeds one frame and reports whether the pipeline should run at
// the active rate.
func (g *Gate) Observe(frame *gocv.Mat, now time.Time) (active bool, changePct float64) {
	moved, changePct := g.det.Detect(frame)

	g.mu.Lock()
	defer g.mu.Unlock()
	if moved {
		g.activeUntil = now.Add(g.hold)
	}
	return now.Before(g.activeUntil), changePct
}

// FPS returns the capture rate the camera should use right now.
func (g *Gate) FPS(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.Before(g.activeUntil) {
		return ActiveFPS
	}
	return IdleFPS
}

// Close releases the underlying detector.
func (g *Gate) Close() {
	g.det.Close()
}
