package tray

import "testing"

func TestTray_Defaults(t *testing.T) {
	tr := New()
	if !tr.GesturesEnabled() {
		t.Error("gestures should start enabled")
	}

	// Menu items do not exist before Run; toggling still flips state.
	var got []bool
	tr.OnGestures(func(enabled bool) { got = append(got, enabled) })
	tr.handleGestures()
	tr.handleGestures()
	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("gesture callbacks = %v, want [false true]", got)
	}

	tr.SetState("EXPLODED")
	if tr.state != "EXPLODED" {
		t.Errorf("state = %q", tr.state)
	}
}

func TestTitles(t *testing.T) {
	if got := stateTitle("ASSEMBLED"); got != "Layout: ASSEMBLED" {
		t.Errorf("stateTitle = %q", got)
	}
	if gesturesTitle(true) == gesturesTitle(false) {
		t.Error("gesture titles should differ")
	}
}
