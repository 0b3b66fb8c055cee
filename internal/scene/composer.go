package scene

import (
	"fmt"
	"sync"

	"cogentcore.org/core/math32"

	"github.com/ayusman/treelight/internal/attach"
	"github.com/ayusman/treelight/internal/gesture"
	"github.com/ayusman/treelight/internal/session"
)

// AmbientSpin is the constant group rotation in radians per second.
const AmbientSpin = 0.1

// SelectResult tells the host what a frame selection did.
type SelectResult int

const (
	// SelectNone means the frame was already zoomed.
	SelectNone SelectResult = iota
	// SelectAttach means the frame has no image and the host should run an upload.
	SelectAttach
	// SelectZoom means the frame is now the zoomed frame.
	SelectZoom
)

func (r SelectResult) String() string {
	switch r {
	case SelectNone:
		return "none"
	case SelectAttach:
		return "attach"
	case SelectZoom:
		return "zoom"
	default:
		return fmt.Sprintf("SelectResult(%d)", int(r))
	}
}

// MarshalText encodes the result as its name.
func (r SelectResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Options configures a Composer.
type Options struct {
	Seed   uint64
	Groups []GroupSpec
	Frames int
	Camera Camera
}

// DefaultOptions returns the full-size tree.
func DefaultOptions(seed uint64) Options {
	return Options{
		Seed:   seed,
		Groups: DefaultGroups(),
		Frames: FrameCount,
		Camera: DefaultCamera(),
	}
}

// InstanceBatch is the per-instance transforms of one particle group.
type InstanceBatch struct {
	Name     string           `json:"name"`
	Matrices []math32.Matrix4 `json:"matrices"`
}

// Object is the transform of one named object.
type Object struct {
	ID     string         `json:"id"`
	Matrix math32.Matrix4 `json:"matrix"`
	Image  attach.Handle  `json:"image,omitempty"`
}

// RenderFrame is everything the renderer needs for one tick.
type RenderFrame struct {
	Tick      uint64          `json:"tick"`
	Elapsed   float64         `json:"elapsed"`
	State     session.State   `json:"state"`
	Ready     bool            `json:"ready"`
	Cursor    gesture.Point2  `json:"cursor"`
	Zoomed    int             `json:"zoomed"`
	Camera    Camera          `json:"camera"`
	Group     math32.Matrix4  `json:"group"`
	Instances []InstanceBatch `json:"instances,omitempty"`
	Objects   []Object        `json:"objects"`
}

// Composer owns every scene object under one rotating group and produces a
// RenderFrame per tick from the session snapshot.
type Composer struct {
	session *session.Session
	field   *Field
	gallery *Gallery
	topper  *Topper

	mu       sync.Mutex
	camera   Camera
	groupYaw float64
	tick     uint64
	elapsed  float64
	snap     session.Snapshot
}

// NewComposer generates the scene layout from opts.
func NewComposer(s *session.Session, opts Options) *Composer {
	return &Composer{
		session: s,
		field:   NewField(opts.Seed, opts.Groups...),
		gallery: NewGallery(opts.Frames),
		topper:  NewTopper(),
		camera:  opts.Camera,
		snap:    s.Snapshot(),
	}
}

// Field returns the particle field.
func (c *Composer) Field() *Field { return c.field }

// Gallery returns the photo frames.
func (c *Composer) Gallery() *Gallery { return c.gallery }

// Topper returns the topper.
func (c *Composer) Topper() *Topper { return c.topper }

// GroupYaw returns the accumulated rotation of the scene group about Y.
func (c *Composer) GroupYaw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupYaw
}

// Tick advances the whole scene to elapsed seconds since start.
func (c *Composer) Tick(elapsed float64) {
	snap := c.session.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	target := snap.Rotation + elapsed*AmbientSpin
	c.groupYaw += (target - c.groupYaw) * GroupSmoothing

	c.field.Tick(snap.State, elapsed)
	c.gallery.Tick(snap.State, snap.Zoomed, c.camera.Local(phase(c.groupYaw)), elapsed)
	c.topper.Tick(snap.State, elapsed)

	c.snap = snap
	c.elapsed = elapsed
	c.tick++
}

// Select handles a click on frame id.
func (c *Composer) Select(id int) (SelectResult, error) {
	img, err := c.gallery.Image(id)
	if err != nil {
		return SelectNone, err
	}
	if img == "" {
		return SelectAttach, nil
	}
	if c.session.Zoom(id) == id {
		return SelectNone, nil
	}
	return SelectZoom, nil
}

// Miss handles a click on empty space. It reports whether a frame was unzoomed.
func (c *Composer) Miss() bool {
	return c.session.Unzoom() != session.NoFrame
}

// Attach sets the image of frame id and returns the handle it replaced.
func (c *Composer) Attach(id int, h attach.Handle) (attach.Handle, error) {
	return c.gallery.SetImage(id, h)
}

// Detach removes the image of frame id, unzooming it if needed.
func (c *Composer) Detach(id int) (attach.Handle, error) {
	prev, err := c.gallery.SetImage(id, "")
	if err != nil {
		return "", err
	}
	if c.session.Zoomed() == id {
		c.session.Unzoom()
	}
	return prev, nil
}

// Frame returns a deep copy of the last tick. Instance batches are included
// only when withParticles is set.
func (c *Composer) Frame(withParticles bool) RenderFrame {
	c.mu.Lock()
	defer c.mu.Unlock()

	group := Pose{Rotation: math32.Vec3(0, phase(c.groupYaw), 0), Scale: 1}
	out := RenderFrame{
		Tick:    c.tick,
		Elapsed: c.elapsed,
		State:   c.snap.State,
		Ready:   c.snap.Ready,
		Cursor:  c.snap.Cursor,
		Zoomed:  c.snap.Zoomed,
		Camera:  c.camera,
		Group:   group.Matrix(),
	}

	if withParticles {
		for _, g := range c.field.Groups() {
			out.Instances = append(out.Instances, InstanceBatch{
				Name:     g.Spec.Kind.String(),
				Matrices: append([]math32.Matrix4(nil), g.Matrices()...),
			})
		}
	}

	frames := c.gallery.Frames()
	out.Objects = make([]Object, 0, len(frames)+2)
	for _, f := range frames {
		out.Objects = append(out.Objects, Object{
			ID:     FrameObjectID(f.ID),
			Matrix: f.pose.Matrix(),
			Image:  f.Image,
		})
	}
	out.Objects = append(out.Objects,
		Object{ID: "topper", Matrix: c.topper.Pose().Matrix()},
		Object{ID: "halo", Matrix: c.topper.Halo().Matrix()},
	)
	return out
}

// FrameObjectID names frame id in RenderFrame objects.
func FrameObjectID(id int) string {
	return fmt.Sprintf("frame-%02d", id)
}
