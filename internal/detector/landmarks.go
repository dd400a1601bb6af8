// Package detector provides hand pose detection interfaces and types for the training pipeline.
package detector

import "github.com/medsim/epitrainer/internal/geometry"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist     = 0
	ThumbCMC  = 1
	ThumbMCP  = 2
	ThumbIP   = 3
	ThumbTip  = 4
	IndexMCP  = 5
	IndexPIP  = 6
	IndexDIP  = 7
	IndexTip  = 8
	MiddleMCP = 9
	MiddlePIP = 10
	MiddleDIP = 11
	MiddleTip = 12
	RingMCP   = 13
	RingPIP   = 14
	RingDIP   = 15
	RingTip   = 16
	PinkyMCP  = 17
	PinkyPIP  = 18
	PinkyDIP  = 19
	PinkyTip  = 20
	NumJoints = 21
)

// Joint is one tracked hand landmark. X and Y are in the source frame's
// pixel space; Z is the relative depth reported by the pose extractor.
// NormX and NormY keep the extractor's original normalized coordinates.
type Joint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	NormX float64 `json:"nx"`
	NormY float64 `json:"ny"`
}

// Point returns the joint's 2D pixel position.
func (j Joint) Point() geometry.Point {
	return geometry.Point{X: j.X, Y: j.Y}
}

// HandPose represents the 21 joints of one detected hand in one frame.
// A HandPose is immutable once produced and is discarded after the frame's
// gesture extraction.
type HandPose struct {
	Joints     [NumJoints]Joint `json:"joints"`
	Handedness string           `json:"handedness"` // "Left" or "Right"
	Confidence float64          `json:"confidence"`
}

// PinchPoint returns the midpoint between thumb tip and index tip.
func (h *HandPose) PinchPoint() geometry.Point {
	return geometry.Midpoint(h.Joints[ThumbTip].Point(), h.Joints[IndexTip].Point())
}

// ThumbIndexDistance returns the pixel distance between thumb tip and index tip.
func (h *HandPose) ThumbIndexDistance() float64 {
	return geometry.Distance(h.Joints[ThumbTip].Point(), h.Joints[IndexTip].Point())
}
