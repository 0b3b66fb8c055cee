// Package session holds the scene's discrete state, accumulated rotation, cursor
// and zoomed frame, and applies the gesture rules that mutate them.
package session

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ayusman/treelight/internal/gesture"
)

// Gesture tuning.
const (
	// Sensitivity scales palm motion into scene rotation (radians per image width).
	Sensitivity = 5.0
	// DeadZone is the minimum |RotationDelta| that rotates the scene.
	DeadZone = 0.005
)

// State is the discrete layout of the scene.
type State int

const (
	// Assembled is the tree-shaped layout.
	Assembled State = iota
	// Exploded is the sphere-scattered layout.
	Exploded
)

// String returns the display label of the state.
func (s State) String() string {
	switch s {
	case Assembled:
		return "ASSEMBLED"
	case Exploded:
		return "EXPLODED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalJSON encodes the state as its label.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state label.
func (s *State) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	st, err := ParseState(label)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState parses a state label.
func ParseState(label string) (State, error) {
	switch label {
	case "ASSEMBLED":
		return Assembled, nil
	case "EXPLODED":
		return Exploded, nil
	}
	return Assembled, fmt.Errorf("unknown state %q", label)
}

// Result describes what a single Apply changed.
type Result struct {
	From, To      State
	Rotated       bool
	CursorUpdated bool
}

// Changed reports whether the discrete state changed.
func (r Result) Changed() bool { return r.From != r.To }

// Machine applies gesture and toggle inputs to the scene state.
// It is not safe for concurrent use; Session provides locking.
type Machine struct {
	State    State
	Rotation float64
	Cursor   gesture.Point2
}

// NewMachine returns a machine in the assembled state with a centered cursor.
func NewMachine() Machine {
	return Machine{
		State:  Assembled,
		Cursor: gesture.Point2{X: 0.5, Y: 0.5},
	}
}

// Apply runs the transition, rotation and cursor rules for one gesture sample.
func (m *Machine) Apply(g gesture.State) Result {
	r := Result{From: m.State}

	// An open palm that is moving rotates instead of exploding.
	switch {
	case g.Pinching:
		m.State = Assembled
	case g.OpenPalm && g.RotationDelta == 0:
		m.State = Exploded
	}

	if g.OpenPalm && math.Abs(g.RotationDelta) > DeadZone {
		m.Rotation += g.RotationDelta * Sensitivity
		r.Rotated = true
	}

	if g.Pointing || g.OpenPalm {
		m.Cursor = g.HandPosition
		r.CursorUpdated = true
	}

	r.To = m.State
	return r
}

// Toggle flips between assembled and exploded.
func (m *Machine) Toggle() Result {
	r := Result{From: m.State}
	if m.State == Assembled {
		m.State = Exploded
	} else {
		m.State = Assembled
	}
	r.To = m.State
	return r
}
