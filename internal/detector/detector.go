package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrUnavailable is returned when the landmark model cannot be initialized.
var ErrUnavailable = errors.New("hand detector unavailable")

// Detector defines the interface for hand landmark sources.
type Detector interface {
	// Detect analyzes a video frame captured at timestampMs and returns the
	// detected hands. Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat, timestampMs int64) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config tuned for single-hand tracking.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
