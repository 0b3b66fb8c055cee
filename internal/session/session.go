package session

import (
	"errors"
	"sync"
	"time"

	"github.com/ayusman/treelight/internal/gesture"
)

// NoFrame is the Zoomed value when no frame is zoomed.
const NoFrame = -1

// Transition causes.
const (
	CauseGesture = "gesture"
	CauseToggle  = "toggle"
)

// ErrNotReady is returned by Apply before the gesture source is ready.
var ErrNotReady = errors.New("gesture source not ready")

// Snapshot is a consistent copy of the session at one instant.
type Snapshot struct {
	State    State          `json:"state"`
	Rotation float64        `json:"rotation"`
	Cursor   gesture.Point2 `json:"cursor"`
	Zoomed   int            `json:"zoomed"`
	Ready    bool           `json:"ready"`
	Revision uint64         `json:"revision"`
}

// Transition records a change of discrete state.
type Transition struct {
	From  State
	To    State
	Cause string
	At    time.Time
}

// Session is the shared context between the gesture loop, the render loop and
// user input. Writers replace values under a lock; readers take whole snapshots.
type Session struct {
	mu       sync.RWMutex
	machine  Machine
	ready    bool
	zoomed   int
	revision uint64
	hooks    []func(Transition)
	now      func() time.Time
}

// New creates a session in the assembled state with no zoomed frame.
func New() *Session {
	return &Session{
		machine: NewMachine(),
		zoomed:  NoFrame,
		now:     time.Now,
	}
}

// OnTransition registers fn to be called after every discrete state change.
// Hooks run outside the session lock.
func (s *Session) OnTransition(fn func(Transition)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// SetReady marks whether gesture input is available.
func (s *Session) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready != ready {
		s.ready = ready
		s.revision++
	}
}

// Ready reports whether gesture input is available.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Apply feeds one gesture sample through the state machine.
// It returns ErrNotReady and changes nothing until SetReady(true).
func (s *Session) Apply(g gesture.State) (Result, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return Result{}, ErrNotReady
	}
	r := s.machine.Apply(g)
	if r.Changed() || r.Rotated || r.CursorUpdated {
		s.revision++
	}
	hooks := s.hooks
	s.mu.Unlock()

	if r.Changed() {
		s.notify(hooks, r, CauseGesture)
	}
	return r, nil
}

// Toggle flips the discrete state. It works whether or not gestures are ready.
func (s *Session) Toggle() State {
	s.mu.Lock()
	r := s.machine.Toggle()
	s.revision++
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, r, CauseToggle)
	return r.To
}

// Zoom makes id the single zoomed frame and returns the previously zoomed
// frame, or NoFrame.
func (s *Session) Zoom(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.zoomed
	if prev != id {
		s.zoomed = id
		s.revision++
	}
	return prev
}

// Unzoom clears the zoomed frame and returns the frame that was zoomed, or NoFrame.
func (s *Session) Unzoom() int {
	return s.Zoom(NoFrame)
}

// Zoomed returns the zoomed frame id, or NoFrame.
func (s *Session) Zoomed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoomed
}

// Snapshot returns a consistent copy of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		State:    s.machine.State,
		Rotation: s.machine.Rotation,
		Cursor:   s.machine.Cursor,
		Zoomed:   s.zoomed,
		Ready:    s.ready,
		Revision: s.revision,
	}
}

func (s *Session) notify(hooks []func(Transition), r Result, cause string) {
	if !r.Changed() {
		return
	}
	tr := Transition{From: r.From, To: r.To, Cause: cause, At: s.now()}
	for _, fn := range hooks {
		fn(tr)
	}
}
