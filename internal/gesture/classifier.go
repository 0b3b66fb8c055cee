// Package gesture turns per-frame hand landmarks into a discrete and continuous gesture signal.
package gesture

import (
	"sync"

	"github.com/ayusman/treelight/internal/detector"
)

// PinchThreshold is the thumb-to-index distance, in normalized image units,
// below which the hand is considered pinching.
const PinchThreshold = 0.05

// Point2 is a position in normalized screen coordinates.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is the classified gesture for one detector frame.
type State struct {
	Pinching      bool    `json:"pinching"`
	OpenPalm      bool    `json:"open_palm"`
	Pointing      bool    `json:"pointing"`
	HandPosition  Point2  `json:"hand_position"`
	RotationDelta float64 `json:"rotation_delta"`
}

// Classifier applies the gesture rules to successive landmark frames.
// The only state it carries is the previous palm x used for RotationDelta.
type Classifier struct {
	mu       sync.Mutex
	prevPalm float64
	hasPrev  bool
}

// NewClassifier creates a Classifier with no motion baseline.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// ClassifyHands classifies the first reported hand. Additional hands are ignored.
// An empty slice is treated as no hand.
func (c *Classifier) ClassifyHands(hands []detector.HandLandmarks) (State, bool) {
	if len(hands) == 0 {
		return c.Classify(nil)
	}
	return c.Classify(hands[0].Points[:])
}

// Classify classifies one frame of landmarks. It returns false when no usable
// hand is present (nil or short input), in which case the motion baseline is
// cleared and the caller should keep its previous state.
func (c *Classifier) Classify(points []detector.Point3D) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hand, err := detector.FromPoints(points)
	if err != nil {
		c.hasPrev = false
		return State{}, false
	}
	lm := hand.Points

	thumbTip := lm[detector.ThumbTip]
	indexTip := lm[detector.IndexTip]

	var s State
	s.Pinching = detector.Distance2D(thumbTip, indexTip) < PinchThreshold

	indexUp := above(lm, detector.IndexTip, detector.IndexPIP)
	middleUp := above(lm, detector.MiddleTip, detector.MiddlePIP)
	ringUp := above(lm, detector.RingTip, detector.RingPIP)
	pinkyUp := above(lm, detector.PinkyTip, detector.PinkyPIP)

	s.OpenPalm = indexUp && middleUp && ringUp && pinkyUp && !s.Pinching
	s.Pointing = indexUp &&
		below(lm, detector.MiddleTip, detector.MiddlePIP) &&
		below(lm, detector.RingTip, detector.RingPIP) &&
		below(lm, detector.PinkyTip, detector.PinkyPIP)

	palmX := lm[detector.PalmCenter].X
	if s.OpenPalm && c.hasPrev {
		s.RotationDelta = palmX - c.prevPalm
	}
	c.prevPalm = palmX
	c.hasPrev = true

	// Mirror x so moving the hand right moves the cursor right on screen.
	s.HandPosition = Point2{X: 1 - indexTip.X, Y: indexTip.Y}

	return s, true
}

// Reset clears the motion baseline.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasPrev = false
	c.prevPalm = 0
}

// above reports whether the tip is higher in the image (smaller y) than the joint.
func above(lm [detector.NumLandmarks]detector.Point3D, tip, joint int) bool {
	return lm[tip].Y < lm[joint].Y
}

// below reports whether the tip is lower in the image than the joint.
func below(lm [detector.NumLandmarks]detector.Point3D, tip, joint int) bool {
	return lm[tip].Y > lm[joint].Y
}
