package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	calls  int
	lastTs int64
	closed bool
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

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat, timestampMs int64) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastTs = timestampMs
	if m.err != nil {
		return nil, m.err
	}
	if m.hands == nil {
		return nil, nil
	}
	out := make([]HandLandmarks, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastTimestamp returns the timestamp passed to the latest Detect call.
func (m *MockDetector) LastTimestamp() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTs
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// finger holds MCP, PIP, DIP and tip positions as (x, y) pairs.
type finger [4][2]float64

func buildHand(wrist [2]float64, thumb, index, middle, ring, pinky finger) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: wrist[0], Y: wrist[1]}

	bases := []struct {
		start int
		f     finger
	}{
		{ThumbCMC, thumb},
		{IndexMCP, index},
		{MiddleMCP, middle},
		{RingMCP, ring},
		{PinkyMCP, pinky},
	}
	for _, b := range bases {
		for j, p := range b.f {
			h.Points[b.start+j] = Point3D{X: p[0], Y: p[1], Z: -0.01 * float64(j)}
		}
	}
	return h
}

var (
	extendedMiddle = finger{{0.50, 0.60}, {0.50, 0.47}, {0.50, 0.38}, {0.50, 0.30}}
	extendedRing   = finger{{0.44, 0.62}, {0.43, 0.50}, {0.42, 0.42}, {0.42, 0.36}}
	extendedPinky  = finger{{0.39, 0.66}, {0.37, 0.57}, {0.36, 0.50}, {0.35, 0.45}}
	extendedIndex  = finger{{0.56, 0.62}, {0.57, 0.50}, {0.58, 0.42}, {0.58, 0.35}}

	curledIndex  = finger{{0.56, 0.62}, {0.56, 0.57}, {0.55, 0.62}, {0.54, 0.66}}
	curledMiddle = finger{{0.50, 0.60}, {0.50, 0.55}, {0.49, 0.60}, {0.49, 0.64}}
	curledRing   = finger{{0.44, 0.62}, {0.44, 0.57}, {0.44, 0.62}, {0.44, 0.66}}
	curledPinky  = finger{{0.39, 0.66}, {0.39, 0.62}, {0.39, 0.66}, {0.40, 0.69}}

	tuckedThumb = finger{{0.55, 0.80}, {0.58, 0.74}, {0.55, 0.70}, {0.48, 0.72}}
	wrist       = [2]float64{0.50, 0.85}
)

// OpenPalmLandmarks returns a right hand with all five fingers extended.
// The palm center sits at x=0.50.
func OpenPalmLandmarks() HandLandmarks {
	thumb := finger{{0.56, 0.80}, {0.62, 0.74}, {0.67, 0.68}, {0.71, 0.63}}
	return buildHand(wrist, thumb, extendedIndex, extendedMiddle, extendedRing, extendedPinky)
}

// OpenPalmAt returns an open palm translated so its palm center sits at x.
func OpenPalmAt(x float64) HandLandmarks {
	h := OpenPalmLandmarks()
	return h.Translate(x-h.Points[PalmCenter].X, 0)
}

// PointingLandmarks returns a right hand with only the index finger extended.
func PointingLandmarks() HandLandmarks {
	return buildHand(wrist, tuckedThumb, extendedIndex, curledMiddle, curledRing, curledPinky)
}

// PinchLandmarks returns a right hand whose thumb tip touches the index tip
// while the remaining fingers stay extended.
func PinchLandmarks() HandLandmarks {
	thumb := finger{{0.56, 0.80}, {0.61, 0.72}, {0.64, 0.63}, {0.65, 0.555}}
	index := finger{{0.56, 0.62}, {0.60, 0.52}, {0.63, 0.50}, {0.64, 0.54}}
	return buildHand(wrist, thumb, index, extendedMiddle, extendedRing, extendedPinky)
}

// FistLandmarks returns a closed right hand that matches no gesture.
func FistLandmarks() HandLandmarks {
	return buildHand(wrist, tuckedThumb, curledIndex, curledMiddle, curledRing, curledPinky)
}
