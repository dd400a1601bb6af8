// Package gesture extracts semantic gestures from per-frame hand poses.
package gesture

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/medsim/epitrainer/internal/detector"
	"github.com/medsim/epitrainer/internal/geometry"
)

// Recognition thresholds. These are calibrated against the source frame
// resolution (640x480) and must not be changed without re-validating the
// training phases that depend on them.
const (
	// PinchThreshold is the thumb-tip to index-tip distance in pixels
	// below which the hand counts as pinched.
	PinchThreshold = 125.0
	// PinchStrengthRange scales pinch distance into a 0-1 strength.
	PinchStrengthRange = 150.0
	// ExtensionRatio is the index/middle wrist-distance ratio above which
	// the index finger counts as extended.
	ExtensionRatio = 1.10
	// RotationHistorySize bounds the rolling buffer of rotation angles.
	RotationHistorySize = 30
	// PinchHistorySize bounds the rolling buffer of pinch-point positions.
	PinchHistorySize = 50
	// CircularMinSamples is the minimum pinch-point history needed before
	// a circular-motion verdict is produced.
	CircularMinSamples = 10
	// CircularMinRadius is the minimum average radius in pixels for a
	// motion to count as circular.
	CircularMinRadius = 10.0
	// CircularMinConsistency is the minimum radius consistency for a
	// motion to count as circular.
	CircularMinConsistency = 0.5
	// boundaryJumpDeg is the frame-to-frame angle jump that signals a
	// crossing of the ±180° discontinuity.
	boundaryJumpDeg = 90.0

	epsilon = 0.001
)

// PinchState describes whether thumb and index finger are pinched together.
type PinchState struct {
	IsPinched bool
	Distance  float64
	Strength  float64 // 0-1
}

// ExtensionState describes whether the index finger is extended.
type ExtensionState struct {
	Extended   bool
	Level      float64 // 0-1
	PointingUp bool
}

// CircularMotion describes a detected circular wiping motion of the pinch
// point around its recent center of mass.
type CircularMotion struct {
	IsCircular   bool
	MotionCount  float64 // completed circles, in 0.5 steps
	Center       geometry.Point
	HasCenter    bool
	Radius       float64
	Consistency  float64 // 0-1 radius consistency
	CurrentAngle float64 // degrees about the center, (-180, 180]
}

// Snapshot is the per-hand gesture extraction result for one frame.
type Snapshot struct {
	Handedness         string
	Confidence         float64
	PinchPoint         geometry.Point
	ThumbIndexDistance float64
	Pinch              PinchState
	Index              ExtensionState
	RotationAngle      float64 // degrees from vertical, (-180, 180]
	Rotations          float64 // accumulated half-turns over the rotation history
	Circular           CircularMotion
}

// Recognizer extracts gestures from hand poses. It owns rolling histories
// for the lifetime of one hand-tracking session and must not be shared
// across concurrent sessions.
type Recognizer struct {
	rotationHist []float64
	pinchHist    []geometry.Point
}

// NewRecognizer creates a Recognizer with empty histories.
func NewRecognizer() *Recognizer {
	return &Recognizer{
		rotationHist: make([]float64, 0, RotationHistorySize),
		pinchHist:    make([]geometry.Point, 0, PinchHistorySize),
	}
}

// Process extracts one Snapshot per input hand pose.
// An empty input yields an empty result; absence of a hand means "no
// gesture", never an error.
func (r *Recognizer) Process(poses []detector.HandPose) []Snapshot {
	if len(poses) == 0 {
		return nil
	}

	snapshots := make([]Snapshot, 0, len(poses))
	for i := range poses {
		snapshots = append(snapshots, r.processHand(&poses[i]))
	}
	return snapshots
}

// Reset clears all rolling histories. Called when a session restarts.
func (r *Recognizer) Reset() {
	r.rotationHist = r.rotationHist[:0]
	r.pinchHist = r.pinchHist[:0]
}

// ResetCircular clears the pinch-point history so that a consumed circle
// is not detected again from the same samples.
func (r *Recognizer) ResetCircular() {
	r.pinchHist = r.pinchHist[:0]
}

func (r *Recognizer) processHand(pose *detector.HandPose) Snapshot {
	snap := Snapshot{
		Handedness:         pose.Handedness,
		Confidence:         pose.Confidence,
		PinchPoint:         pose.PinchPoint(),
		ThumbIndexDistance: pose.ThumbIndexDistance(),
	}

	snap.Pinch = detectPinch(pose)
	snap.Index = detectExtension(pose)
	snap.RotationAngle = rotationAngle(pose)
	snap.Rotations = r.trackRotation(snap.RotationAngle)
	snap.Circular = r.trackCircularMotion(snap.PinchPoint)

	return snap
}

// detectPinch derives the pinch state from the thumb-tip/index-tip distance.
func detectPinch(pose *detector.HandPose) PinchState {
	distance := pose.ThumbIndexDistance()
	return PinchState{
		IsPinched: distance < PinchThreshold,
		Distance:  distance,
		Strength:  geometry.Clamp(1-distance/PinchStrengthRange, 0, 1),
	}
}

// detectExtension compares the index fingertip's distance from the wrist
// against the middle fingertip's.
func detectExtension(pose *detector.HandPose) ExtensionState {
	wrist := pose.Joints[detector.Wrist].Point()
	indexTip := pose.Joints[detector.IndexTip].Point()
	middleTip := pose.Joints[detector.MiddleTip].Point()

	indexDist := geometry.Distance(indexTip, wrist)
	middleDist := geometry.Distance(middleTip, wrist)

	ratio := indexDist / (middleDist + epsilon)

	return ExtensionState{
		Extended:   ratio > ExtensionRatio,
		Level:      geometry.Clamp((ratio-0.9)/0.5, 0, 1),
		PointingUp: pose.Joints[detector.IndexTip].Y < pose.Joints[detector.IndexMCP].Y,
	}
}

// rotationAngle returns the angle of the wrist-to-middle-fingertip vector
// relative to vertical, in degrees in (-180, 180].
func rotationAngle(pose *detector.HandPose) float64 {
	wrist := pose.Joints[detector.Wrist].Point()
	middleTip := pose.Joints[detector.MiddleTip].Point()
	return geometry.AngleFromVertical(wrist, middleTip)
}

// trackRotation appends the current angle to the rotation history and
// returns the accumulated half-turn count over the whole buffer.
//
// Turns are estimated by scanning consecutive angle pairs for jumps across
// the ±180° boundary and adding ±0.5 per crossing. This is a heuristic,
// not a true unwrap: motion fast enough to sweep more than one boundary
// between samples under-counts.
func (r *Recognizer) trackRotation(angle float64) float64 {
	if len(r.rotationHist) >= RotationHistorySize {
		copy(r.rotationHist, r.rotationHist[1:])
		r.rotationHist = r.rotationHist[:RotationHistorySize-1]
	}
	r.rotationHist = append(r.rotationHist, angle)

	if len(r.rotationHist) < 5 {
		return 0
	}

	var halfTurns float64
	for i := 1; i < len(r.rotationHist); i++ {
		diff := r.rotationHist[i] - r.rotationHist[i-1]
		if math.Abs(diff) > boundaryJumpDeg {
			if diff > 0 {
				halfTurns -= 0.5
			} else {
				halfTurns += 0.5
			}
		}
	}
	return halfTurns
}

// trackCircularMotion appends the pinch point to the position history and
// evaluates whether the recent motion forms a circle around its centroid.
func (r *Recognizer) trackCircularMotion(pinchPoint geometry.Point) CircularMotion {
	if len(r.pinchHist) >= PinchHistorySize {
		copy(r.pinchHist, r.pinchHist[1:])
		r.pinchHist = r.pinchHist[:PinchHistorySize-1]
	}
	r.pinchHist = append(r.pinchHist, pinchPoint)

	if len(r.pinchHist) < CircularMinSamples {
		return CircularMotion{}
	}

	center := geometry.Centroid(r.pinchHist)

	distances := make([]float64, len(r.pinchHist))
	for i, p := range r.pinchHist {
		distances[i] = geometry.Distance(p, center)
	}

	avgRadius := stat.Mean(distances, nil)
	if avgRadius <= CircularMinRadius {
		// Motion too small to be a deliberate wipe.
		return CircularMotion{Center: center, HasCenter: true, Radius: avgRadius}
	}

	variance := stat.MomentAbout(2, distances, avgRadius, nil)
	consistency := math.Max(0, 1-math.Sqrt(variance)/(avgRadius+epsilon))

	angles := make([]float64, len(r.pinchHist))
	for i, p := range r.pinchHist {
		angles[i] = geometry.PolarAngle(center, p)
	}

	return CircularMotion{
		IsCircular:   consistency > CircularMinConsistency,
		MotionCount:  countCircles(angles),
		Center:       center,
		HasCenter:    true,
		Radius:       avgRadius,
		Consistency:  consistency,
		CurrentAngle: angles[len(angles)-1],
	}
}

// countCircles estimates completed circles from polar-angle history by
// counting ±180° boundary crossings and dividing by two. Like the rotation
// counter this is an approximation that trades exactness for robustness
// against pose-estimator jitter.
func countCircles(angles []float64) float64 {
	if len(angles) < 5 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(angles); i++ {
		if math.Abs(angles[i]-angles[i-1]) > boundaryJumpDeg {
			crossings++
		}
	}
	return float64(crossings) / 2
}
