package detector

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestFromPoints(t *testing.T) {
	t.Run("full hand is copied", func(t *testing.T) {
		points := make([]Point3D, NumLandmarks)
		for i := range points {
			points[i] = Point3D{X: float64(i) / 100, Y: 0.5, Z: 0}
		}

		hand, err := FromPoints(points)
		if err != nil {
			t.Fatalf("FromPoints() error = %v", err)
		}
		if hand.Points[PinkyTip].X != 0.20 {
			t.Errorf("pinky tip X = %f, want 0.20", hand.Points[PinkyTip].X)
		}
	})

	t.Run("extra points are ignored", func(t *testing.T) {
		points := make([]Point3D, NumLandmarks+5)
		if _, err := FromPoints(points); err != nil {
			t.Errorf("FromPoints() error = %v, want nil", err)
		}
	})

	t.Run("short slice is malformed", func(t *testing.T) {
		for _, n := range []int{0, 1, 9, NumLandmarks - 1} {
			_, err := FromPoints(make([]Point3D, n))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("FromPoints(%d points) error = %v, want ErrMalformed", n, err)
			}
		}
	})

	t.Run("nil slice is malformed", func(t *testing.T) {
		if _, err := FromPoints(nil); !errors.Is(err, ErrMalformed) {
			t.Errorf("FromPoints(nil) error = %v, want ErrMalformed", err)
		}
	})
}

func TestDistance2D(t *testing.T) {
	tests := []struct {
		name string
		a, b Point3D
		want float64
	}{
		{"same point", Point3D{X: 0.5, Y: 0.5}, Point3D{X: 0.5, Y: 0.5}, 0},
		{"horizontal", Point3D{X: 0.1, Y: 0.5}, Point3D{X: 0.4, Y: 0.5}, 0.3},
		{"3-4-5", Point3D{X: 0, Y: 0}, Point3D{X: 0.3, Y: 0.4}, 0.5},
		{"depth ignored", Point3D{X: 0, Y: 0, Z: -1}, Point3D{X: 0.3, Y: 0.4, Z: 5}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance2D(tt.a, tt.b)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Distance2D() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestHandLandmarks_Translate(t *testing.T) {
	hand := OpenPalmLandmarks()
	moved := hand.Translate(0.1, -0.05)

	for i := range hand.Points {
		if math.Abs(moved.Points[i].X-hand.Points[i].X-0.1) > epsilon {
			t.Errorf("point %d X not shifted", i)
		}
		if math.Abs(moved.Points[i].Y-hand.Points[i].Y+0.05) > epsilon {
			t.Errorf("point %d Y not shifted", i)
		}
	}

	if hand.Points[Wrist].X != 0.50 {
		t.Error("Translate must not modify the receiver")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil, 0)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{PointingLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil, 1234)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.LastTimestamp() != 1234 {
			t.Errorf("LastTimestamp() = %d, want 1234", mock.LastTimestamp())
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil, 0)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected Closed() after Close")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func extended(h HandLandmarks, tip, pip int) bool {
	return h.Points[tip].Y < h.Points[pip].Y
}

func TestPresetPoses(t *testing.T) {
	t.Run("open palm has all fingers extended", func(t *testing.T) {
		h := OpenPalmLandmarks()
		for _, f := range [][2]int{{IndexTip, IndexPIP}, {MiddleTip, MiddlePIP}, {RingTip, RingPIP}, {PinkyTip, PinkyPIP}} {
			if !extended(h, f[0], f[1]) {
				t.Errorf("finger tip %d should be above its PIP", f[0])
			}
		}
		if d := Distance2D(h.Points[ThumbTip], h.Points[IndexTip]); d < 0.05 {
			t.Errorf("open palm thumb-index distance %f should not be a pinch", d)
		}
	})

	t.Run("pointing has only index extended", func(t *testing.T) {
		h := PointingLandmarks()
		if !extended(h, IndexTip, IndexPIP) {
			t.Error("index should be extended")
		}
		for _, f := range [][2]int{{MiddleTip, MiddlePIP}, {RingTip, RingPIP}, {PinkyTip, PinkyPIP}} {
			if extended(h, f[0], f[1]) {
				t.Errorf("finger tip %d should be curled", f[0])
			}
		}
	})

	t.Run("pinch touches thumb and index", func(t *testing.T) {
		h := PinchLandmarks()
		if d := Distance2D(h.Points[ThumbTip], h.Points[IndexTip]); d >= 0.05 {
			t.Errorf("pinch distance = %f, want < 0.05", d)
		}
	})

	t.Run("fist has all fingers curled", func(t *testing.T) {
		h := FistLandmarks()
		for _, f := range [][2]int{{IndexTip, IndexPIP}, {MiddleTip, MiddlePIP}, {RingTip, RingPIP}, {PinkyTip, PinkyPIP}} {
			if extended(h, f[0], f[1]) {
				t.Errorf("finger tip %d should be curled", f[0])
			}
		}
	})

	t.Run("OpenPalmAt moves palm center", func(t *testing.T) {
		h := OpenPalmAt(0.3)
		if math.Abs(h.Points[PalmCenter].X-0.3) > epsilon {
			t.Errorf("palm center X = %f, want 0.3", h.Points[PalmCenter].X)
		}
	})
}
