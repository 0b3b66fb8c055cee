package capture

import (
	"errors"
	"testing"
)

func TestNewCamera_Defaults(t *testing.T) {
	tests := []struct {
		name    string
		config  CameraConfig
		wantFPS int
	}{
		{"zero config", CameraConfig{}, DefaultFPS},
		{"device 1", CameraConfig{DeviceID: 1}, DefaultFPS},
		{"explicit fps", CameraConfig{FPS: 30}, 30},
		{"negative fps", CameraConfig{FPS: -1}, DefaultFPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.config)
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
			if cam.IsOpen() {
				t.Error("camera should not be open initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(CameraConfig{})

	tests := []struct {
		fps  int
		want int
	}{
		{10, 10},
		{30, 30},
		{0, 30},
		{-5, 30},
	}

	for _, tt := range tests {
		cam.SetFPS(tt.fps)
		if got := cam.FPS(); got != tt.want {
			t.Errorf("SetFPS(%d): FPS() = %d, want %d", tt.fps, got, tt.want)
		}
	}
}

func TestCamera_NotOpened(t *testing.T) {
	cam := NewCamera(CameraConfig{})

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera = %v, want nil", err)
	}
}

func TestCamera_MissingDevice_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(CameraConfig{DeviceID: 97})
	err := cam.Open()
	if err == nil {
		cam.Close()
		t.Skip("device 97 exists on this machine")
	}
	if !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("Open() error = %v, want ErrCameraUnavailable", err)
	}
	if cam.IsOpen() {
		t.Error("camera should not be open after failed Open()")
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(CameraConfig{})
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Empty() {
			t.Error("ReadFrame() returned empty mat")
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
