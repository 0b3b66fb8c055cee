package scene

import (
	"errors"
	"fmt"
	"sync"

	"cogentcore.org/core/math32"

	"github.com/ayusman/treelight/internal/attach"
	"github.com/ayusman/treelight/internal/session"
)

// FrameCount is the number of photo frames on the tree.
const FrameCount = 16

// ErrUnknownFrame is returned for a frame id outside the gallery.
var ErrUnknownFrame = errors.New("unknown frame")

// Frame is one photo frame. Whether it is zoomed is owned by the session.
type Frame struct {
	ID    int
	Ring  Pose
	Image attach.Handle
	pose  Pose
}

// Pose returns the live pose.
func (f *Frame) Pose() Pose { return f.pose }

// Target returns the pose the frame moves toward this tick.
func (f *Frame) Target(state session.State, zoomed bool, cam Camera, elapsed float64) Pose {
	switch {
	case zoomed:
		return cam.ZoomPose()
	case state == session.Exploded:
		return Pose{
			Position: f.Ring.Position.MulScalar(2.5),
			Rotation: math32.Vec3(f.Ring.Rotation.X+phase(elapsed), f.Ring.Rotation.Y, f.Ring.Rotation.Z),
			Scale:    f.Ring.Scale,
		}
	default:
		return f.Ring
	}
}

// Gallery owns the ring of photo frames.
type Gallery struct {
	mu     sync.RWMutex
	frames []*Frame
}

// NewGallery lays out n frames on the ring. Frames start at their ring pose.
func NewGallery(n int) *Gallery {
	g := &Gallery{frames: make([]*Frame, n)}
	for i := range g.frames {
		ring := RingPose(i, n)
		g.frames[i] = &Frame{ID: i, Ring: ring, pose: ring}
	}
	return g
}

// Len returns the number of frames.
func (g *Gallery) Len() int { return len(g.frames) }

func (g *Gallery) frame(id int) (*Frame, error) {
	if id < 0 || id >= len(g.frames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFrame, id)
	}
	return g.frames[id], nil
}

// Image returns the handle attached to frame id, or the zero handle.
func (g *Gallery) Image(id int) (attach.Handle, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, err := g.frame(id)
	if err != nil {
		return "", err
	}
	return f.Image, nil
}

// SetImage attaches h to frame id and returns the handle it replaced.
// The zero handle detaches.
func (g *Gallery) SetImage(id int, h attach.Handle) (attach.Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, err := g.frame(id)
	if err != nil {
		return "", err
	}
	prev := f.Image
	f.Image = h
	return prev, nil
}

// Tick moves every frame toward its target.
func (g *Gallery) Tick(state session.State, zoomed int, cam Camera, elapsed float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, f := range g.frames {
		f.pose.Approach(f.Target(state, f.ID == zoomed, cam, elapsed), FrameSmoothing)
	}
}

// Frames returns copies of every frame.
func (g *Gallery) Frames() []Frame {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Frame, len(g.frames))
	for i, f := range g.frames {
		out[i] = *f
	}
	return out
}
