package detector

import (
	"sync"
	"time"

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

// Calls reports how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Frame{}, m.err
	}
	return Frame{Hands: m.hands, Timestamp: time.Now()}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture geometry. Image Y grows downward, so a fingertip with a smaller Y
// than the wrist is raised above it.
const (
	fixtureWristY  = 0.80
	fixtureRaised  = 0.35 // tip of an extended finger
	fixtureFolded  = 0.85 // tip of a curled finger, just below the wrist
	fixturePIPY    = 0.70 // PIP joint of a curled finger
	fixtureRaisPIP = 0.55 // PIP joint of an extended finger
)

// finger describes the vertical layout of one digit in a fixture.
type finger struct {
	mcp, pip, dip, tip int
	x                  float64
}

var fixtureFingers = []finger{
	{IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.56},
	{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50},
	{RingMCP, RingPIP, RingDIP, RingTip, 0.45},
	{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.40},
}

// buildHand lays out a right hand. raised[i] selects whether finger i
// (index, middle, ring, pinky) is extended. thumbTipY places the thumb.
func buildHand(thumbTipY float64, raised [4]bool) HandLandmarks {
	h := HandLandmarks{
		Handedness: HandRight,
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.5, Y: fixtureWristY}

	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: (0.76 + thumbTipY) / 2}
	h.Points[ThumbIP] = Point3D{X: 0.62, Y: (0.76 + 3*thumbTipY) / 4}
	h.Points[ThumbTip] = Point3D{X: 0.63, Y: thumbTipY}

	for i, f := range fixtureFingers {
		h.Points[f.mcp] = Point3D{X: f.x, Y: 0.68, Z: -0.01}
		if raised[i] {
			h.Points[f.pip] = Point3D{X: f.x, Y: fixtureRaisPIP}
			h.Points[f.dip] = Point3D{X: f.x, Y: 0.45}
			h.Points[f.tip] = Point3D{X: f.x, Y: fixtureRaised}
			continue
		}
		h.Points[f.pip] = Point3D{X: f.x, Y: fixturePIPY, Z: -0.05}
		h.Points[f.dip] = Point3D{X: f.x - 0.02, Y: 0.78, Z: -0.04}
		h.Points[f.tip] = Point3D{X: f.x - 0.03, Y: fixtureFolded, Z: -0.02}
	}

	return h
}

// ThumbsUpLandmarks returns a preset hand with the thumb raised and the other
// fingers folded below the wrist line.
func ThumbsUpLandmarks() HandLandmarks {
	return buildHand(0.45, [4]bool{})
}

// OpenPalmLandmarks returns a preset hand with all five digits raised.
func OpenPalmLandmarks() HandLandmarks {
	return buildHand(0.60, [4]bool{true, true, true, true})
}

// ClosedFistLandmarks returns a preset hand with every finger curled and the
// thumb tucked across the palm.
func ClosedFistLandmarks() HandLandmarks {
	return buildHand(0.70, [4]bool{})
}

// PointingLandmarks returns a preset hand with only the index finger raised.
func PointingLandmarks() HandLandmarks {
	return buildHand(0.78, [4]bool{true, false, false, false})
}

// PinkyUpLandmarks returns a preset hand with only the pinky raised.
func PinkyUpLandmarks() HandLandmarks {
	return buildHand(0.75, [4]bool{false, false, false, true})
}
