package detector

import (
	"gocv.io/x/gocv"

	"github.com/medsim/epitrainer/internal/geometry"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests and the no-camera fallback to control detection results.
type MockDetector struct {
	poses []HandPose
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the hand poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []HandPose) {
	m.poses = poses
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandPose, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PinchedPoseAt returns a preset HandPose with thumb tip and index tip
// pinched together so that the pinch point lands on p. Coordinates are in
// pixel space for a 640x480 frame.
func PinchedPoseAt(p geometry.Point) HandPose {
	pose := HandPose{
		Handedness: "Right",
		Confidence: 0.95,
	}

	// Wrist below the pinch point, palm pointing up.
	pose.Joints[Wrist] = Joint{X: p.X, Y: p.Y + 160}

	// Thumb tip and index tip 20px apart, centered on p.
	pose.Joints[ThumbTip] = Joint{X: p.X - 10, Y: p.Y}
	pose.Joints[IndexTip] = Joint{X: p.X + 10, Y: p.Y}
	pose.Joints[ThumbIP] = Joint{X: p.X - 25, Y: p.Y + 20}
	pose.Joints[IndexDIP] = Joint{X: p.X + 15, Y: p.Y + 20}
	pose.Joints[IndexPIP] = Joint{X: p.X + 20, Y: p.Y + 40}
	pose.Joints[IndexMCP] = Joint{X: p.X + 25, Y: p.Y + 80}

	// Middle finger curled toward the palm.
	pose.Joints[MiddleTip] = Joint{X: p.X + 10, Y: p.Y + 70}
	pose.Joints[MiddleMCP] = Joint{X: p.X + 5, Y: p.Y + 90}

	// Remaining fingers curled.
	pose.Joints[RingTip] = Joint{X: p.X, Y: p.Y + 80}
	pose.Joints[RingMCP] = Joint{X: p.X - 5, Y: p.Y + 95}
	pose.Joints[PinkyTip] = Joint{X: p.X - 15, Y: p.Y + 85}
	pose.Joints[PinkyMCP] = Joint{X: p.X - 20, Y: p.Y + 100}

	fillNormalized(&pose)
	return pose
}

// OpenHandPose returns a preset HandPose with all fingers spread, thumb and
// index tips far apart. The hand points straight up with the wrist at the
// lower middle of a 640x480 frame.
func OpenHandPose() HandPose {
	pose := HandPose{
		Handedness: "Right",
		Confidence: 0.95,
	}

	pose.Joints[Wrist] = Joint{X: 320, Y: 400}

	pose.Joints[ThumbCMC] = Joint{X: 280, Y: 380}
	pose.Joints[ThumbMCP] = Joint{X: 250, Y: 360}
	pose.Joints[ThumbIP] = Joint{X: 230, Y: 340}
	pose.Joints[ThumbTip] = Joint{X: 210, Y: 330}

	pose.Joints[IndexMCP] = Joint{X: 300, Y: 320}
	pose.Joints[IndexPIP] = Joint{X: 295, Y: 270}
	pose.Joints[IndexDIP] = Joint{X: 292, Y: 230}
	pose.Joints[IndexTip] = Joint{X: 290, Y: 190}

	pose.Joints[MiddleMCP] = Joint{X: 320, Y: 315}
	pose.Joints[MiddlePIP] = Joint{X: 320, Y: 260}
	pose.Joints[MiddleDIP] = Joint{X: 320, Y: 215}
	pose.Joints[MiddleTip] = Joint{X: 320, Y: 170}

	pose.Joints[RingMCP] = Joint{X: 340, Y: 320}
	pose.Joints[RingPIP] = Joint{X: 343, Y: 270}
	pose.Joints[RingDIP] = Joint{X: 345, Y: 230}
	pose.Joints[RingTip] = Joint{X: 347, Y: 195}

	pose.Joints[PinkyMCP] = Joint{X: 360, Y: 330}
	pose.Joints[PinkyPIP] = Joint{X: 366, Y: 290}
	pose.Joints[PinkyDIP] = Joint{X: 370, Y: 260}
	pose.Joints[PinkyTip] = Joint{X: 373, Y: 235}

	fillNormalized(&pose)
	return pose
}

// PointingPose returns a preset HandPose with only the index finger
// extended, further from the wrist than the curled middle finger.
func PointingPose() HandPose {
	pose := HandPose{
		Handedness: "Right",
		Confidence: 0.95,
	}

	pose.Joints[Wrist] = Joint{X: 320, Y: 400}

	pose.Joints[ThumbTip] = Joint{X: 280, Y: 350}
	pose.Joints[ThumbIP] = Joint{X: 290, Y: 365}

	pose.Joints[IndexMCP] = Joint{X: 315, Y: 330}
	pose.Joints[IndexPIP] = Joint{X: 313, Y: 270}
	pose.Joints[IndexDIP] = Joint{X: 312, Y: 220}
	pose.Joints[IndexTip] = Joint{X: 310, Y: 170}

	// Middle finger curled: tip close to the wrist.
	pose.Joints[MiddleMCP] = Joint{X: 330, Y: 330}
	pose.Joints[MiddlePIP] = Joint{X: 332, Y: 310}
	pose.Joints[MiddleDIP] = Joint{X: 330, Y: 330}
	pose.Joints[MiddleTip] = Joint{X: 328, Y: 350}

	pose.Joints[RingTip] = Joint{X: 340, Y: 355}
	pose.Joints[PinkyTip] = Joint{X: 352, Y: 360}

	fillNormalized(&pose)
	return pose
}

// fillNormalized derives NormX/NormY from pixel coordinates assuming a
// 640x480 frame, matching what the pose service would report.
func fillNormalized(pose *HandPose) {
	for i := range pose.Joints {
		pose.Joints[i].NormX = pose.Joints[i].X / 640
		pose.Joints[i].NormY = pose.Joints[i].Y / 480
	}
}
