package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/medsim/epitrainer/testdata"
)

func TestNewMotionDetector(t *testing.T) {
	md := NewMotionDetector(DefaultMotionThreshold)
	if md == nil {
		t.Fatal("NewMotionDetector returned nil")
	}
	defer md.Close()

	if md.threshold != DefaultMotionThreshold {
		t.Errorf("threshold = %f, want %f", md.threshold, DefaultMotionThreshold)
	}
	if md.primed {
		t.Error("detector should not be primed before the first frame")
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionThreshold)
	defer md.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	detected, changePct := md.Detect(&frame1)
	if detected {
		t.Error("priming frame should not detect motion")
	}
	if changePct != 0 {
		t.Errorf("priming frame changePct = %f, want 0", changePct)
	}

	detected, changePct = md.Detect(&frame2)
	if detected {
		t.Errorf("identical frames should not detect motion, changePct = %f", changePct)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionThreshold)
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	detected, changePct := md.Detect(&white)
	if !detected {
		t.Errorf("black to white should detect motion, changePct = %f", changePct)
	}
	if changePct < 50.0 {
		t.Errorf("changePct = %f, expected > 50 for a full-frame change", changePct)
	}
}

func TestMotionDetector_MovingSquare(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionThreshold)
	defer md.Close()

	frames := testdata.MovingSquareSequence(5, 480, 640)
	defer testdata.CloseFrames(frames)

	md.Detect(frames[0])
	moved := false
	for _, f := range frames[1:] {
		if detected, _ := md.Detect(f); detected {
			moved = true
		}
	}
	if !moved {
		t.Error("sliding square should register as motion")
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionThreshold)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	if !md.primed {
		t.Error("detector should be primed after first Detect")
	}

	md.Reset()
	if md.primed {
		t.Error("detector should not be primed after Reset")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}

	// non-positive values are ignored
	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}
}

func TestMotionDetector_CloseMultiple(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}

func TestGate_HoldsActiveRate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewGate(DefaultMotionThreshold, 3*time.Second)
	defer g.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	g.Observe(&black, t0)
	if g.FPS(t0) != IdleFPS {
		t.Errorf("expected idle rate before motion, got %d", g.FPS(t0))
	}

	active, _ := g.Observe(&white, t0.Add(time.Second))
	if !active {
		t.Error("full-frame change should activate the gate")
	}
	if g.FPS(t0.Add(2*time.Second)) != ActiveFPS {
		t.Error("gate should hold the active rate during the quiet period")
	}
	if g.FPS(t0.Add(10*time.Second)) != IdleFPS {
		t.Error("gate should drop back to idle after the hold expires")
	}
}
