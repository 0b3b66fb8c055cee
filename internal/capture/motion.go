package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// blurKernel is the Gaussian kernel size applied before differencing.
	blurKernel = 21
	// pixelDelta is the per-pixel intensity change counted as motion.
	pixelDelta = 25

	// DefaultMotionThreshold is the percentage of changed pixels that counts as motion.
	DefaultMotionThreshold = 1.0
	// DefaultIdleTimeout is how long the gate stays open after the last motion.
	DefaultIdleTimeout = 2 * time.Second
)

// MotionDetector compares each frame with the previous one.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	hasPrev   bool
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of pixels change. Values <= 0 use DefaultMotionThreshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous frame, and the
// percentage of changed pixels. The first frame only sets the baseline.
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
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	if !m.hasPrev {
		blurred.CopyTo(&m.prev)
		m.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasPrev = false
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.hasPrev = false
}

// MotionGate keeps the detector running while the scene moves and for a
// grace period afterwards.
type MotionGate struct {
	motion      *MotionDetector
	idleTimeout time.Duration

	mu         sync.Mutex
	active     bool
	lastMotion time.Time
}

// NewMotionGate creates a closed gate.
func NewMotionGate(motion *MotionDetector, idleTimeout time.Duration) *MotionGate {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &MotionGate{motion: motion, idleTimeout: idleTimeout}
}

// Observe feeds one frame at time now and reports whether the gate is open
// and whether that changed.
func (g *MotionGate) Observe(frame *gocv.Mat, now time.Time) (active, changed bool) {
	moved, _ := g.motion.Detect(frame)
	return g.observe(moved, now)
}

func (g *MotionGate) observe(moved bool, now time.Time) (active, changed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	was := g.active
	switch {
	case moved:
		g.lastMotion = now
		g.active = true
	case g.active && now.Sub(g.lastMotion) > g.idleTimeout:
		g.active = false
	}
	return g.active, g.active != was
}

// Active reports whether the gate is open.
func (g *MotionGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Close releases the underlying detector.
func (g *MotionGate) Close() {
	g.motion.Close()
}
