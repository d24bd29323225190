package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// The presets below are in pixel space of a 640x500 capture with Y growing
// downward. The pinky side sits at lower X than the thumb, which the button
// engine reads as a right hand.

// RaisedHandLandmarks returns a right hand with every finger pointing up and
// the thumb tucked toward the palm. No finger counts as pressed.
func RaisedHandLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 320, Y: 450, Z: 0}

	// Thumb folded in: tip left of the MCP
	landmarks.Points[ThumbCMC] = Point3D{X: 370, Y: 420, Z: -5}
	landmarks.Points[ThumbMCP] = Point3D{X: 400, Y: 390, Z: -8}
	landmarks.Points[ThumbIP] = Point3D{X: 385, Y: 360, Z: -10}
	landmarks.Points[ThumbTip] = Point3D{X: 360, Y: 340, Z: -12}

	landmarks.Points[IndexMCP] = Point3D{X: 360, Y: 330, Z: -4}
	landmarks.Points[IndexPIP] = Point3D{X: 365, Y: 270, Z: -6}
	landmarks.Points[IndexDIP] = Point3D{X: 367, Y: 235, Z: -7}
	landmarks.Points[IndexTip] = Point3D{X: 368, Y: 200, Z: -8}

	landmarks.Points[MiddleMCP] = Point3D{X: 325, Y: 320, Z: -4}
	landmarks.Points[MiddlePIP] = Point3D{X: 325, Y: 255, Z: -6}
	landmarks.Points[MiddleDIP] = Point3D{X: 325, Y: 215, Z: -7}
	landmarks.Points[MiddleTip] = Point3D{X: 325, Y: 180, Z: -8}

	landmarks.Points[RingMCP] = Point3D{X: 290, Y: 330, Z: -4}
	landmarks.Points[RingPIP] = Point3D{X: 285, Y: 270, Z: -6}
	landmarks.Points[RingDIP] = Point3D{X: 282, Y: 235, Z: -7}
	landmarks.Points[RingTip] = Point3D{X: 280, Y: 205, Z: -8}

	landmarks.Points[PinkyMCP] = Point3D{X: 258, Y: 345, Z: -4}
	landmarks.Points[PinkyPIP] = Point3D{X: 250, Y: 300, Z: -6}
	landmarks.Points[PinkyDIP] = Point3D{X: 245, Y: 275, Z: -7}
	landmarks.Points[PinkyTip] = Point3D{X: 242, Y: 250, Z: -8}

	return landmarks
}

// FistLandmarks returns a right hand with every finger curled below its PIP
// joint and the thumb tucked. All four fingers count as pressed.
func FistLandmarks() HandLandmarks {
	landmarks := RaisedHandLandmarks()
	for _, f := range [][2]int{
		{IndexPIP, IndexTip},
		{MiddlePIP, MiddleTip},
		{RingPIP, RingTip},
		{PinkyPIP, PinkyTip},
	} {
		pip := landmarks.Points[f[0]]
		landmarks.Points[f[1]] = Point3D{X: pip.X - 5, Y: pip.Y + 40, Z: pip.Z + 4}
	}
	return landmarks
}

// ThumbOutLandmarks returns RaisedHandLandmarks with the thumb swung away
// from the palm.
func ThumbOutLandmarks() HandLandmarks {
	landmarks := RaisedHandLandmarks()
	landmarks.Points[ThumbIP] = Point3D{X: 440, Y: 370, Z: -10}
	landmarks.Points[ThumbTip] = Point3D{X: 470, Y: 350, Z: -12}
	return landmarks
}
