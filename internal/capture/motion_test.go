package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"explicit", 5.0, 5.0},
		{"low", 0.5, 0.5},
		{"zero uses default", 0, DefaultMotionThreshold},
		{"negative uses default", -2, DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()
			if md.threshold != tt.want {
				t.Errorf("threshold = %f, want %f", md.threshold, tt.want)
			}
		})
	}
}

func TestMotionDetector_Frames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md := NewMotionDetector(1.0)
	defer md.Close()

	if moved, pct := md.Detect(&black); moved || pct != 0 {
		t.Errorf("first frame = (%v, %f), want (false, 0)", moved, pct)
	}
	if moved, pct := md.Detect(&black); moved {
		t.Errorf("identical frames detected motion, changed = %f", pct)
	}
	moved, pct := md.Detect(&white)
	if !moved || pct < 50 {
		t.Errorf("black to white = (%v, %f), want motion above 50%%", moved, pct)
	}

	md.Reset()
	if moved, _ := md.Detect(&black); moved {
		t.Error("first frame after Reset should only set the baseline")
	}
}

func TestMotionDetector_NilAndEmpty(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if moved, _ := md.Detect(nil); moved {
		t.Error("nil frame should not detect motion")
	}
	empty := gocv.NewMat()
	defer empty.Close()
	if moved, _ := md.Detect(&empty); moved {
		t.Error("empty frame should not detect motion")
	}
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}

func TestMotionGate(t *testing.T) {
	gate := NewMotionGate(NewMotionDetector(1.0), time.Second)
	defer gate.Close()
	t0 := time.Unix(1000, 0)

	steps := []struct {
		name        string
		moved       bool
		at          time.Duration
		wantActive  bool
		wantChanged bool
	}{
		{"still at start", false, 0, false, false},
		{"motion opens", true, 100 * time.Millisecond, true, true},
		{"still within timeout", false, 900 * time.Millisecond, true, false},
		{"motion extends", true, 1500 * time.Millisecond, true, false},
		{"still at timeout edge", false, 2500 * time.Millisecond, true, false},
		{"timeout closes", false, 2600 * time.Millisecond, false, true},
		{"still stays closed", false, 5 * time.Second, false, false},
	}

	for _, s := range steps {
		active, changed := gate.observe(s.moved, t0.Add(s.at))
		if active != s.wantActive || changed != s.wantChanged {
			t.Errorf("%s: observe = (%v, %v), want (%v, %v)", s.name, active, changed, s.wantActive, s.wantChanged)
		}
	}
	if gate.Active() {
		t.Error("gate should be closed at the end")
	}
}
